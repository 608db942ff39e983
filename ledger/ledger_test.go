package ledger

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/kbukum/mbedjs/errors"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestOpenEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	l, err := Open(fs, "/build")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := l.Tasks(); len(got) != 0 {
		t.Errorf("Tasks() = %v, want empty", got)
	}
	if ok, _ := afero.Exists(fs, l.Path()); ok {
		t.Error("Open() must not create the ledger file")
	}
}

func TestPutPersists(t *testing.T) {
	fs := afero.NewMemMapFs()
	l, err := Open(fs, "/build")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	want := Record{Status: StatusSucceeded, Outputs: []string{"source"}, FinishedAt: at, RunID: "run-1"}
	if err := l.Put("source", want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := l.SetTarget("K64F"); err != nil {
		t.Fatalf("SetTarget() error = %v", err)
	}

	reopened, err := Open(fs, "/build")
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	got, ok := reopened.Get("source")
	if !ok {
		t.Fatal("record lost after reopen")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	if reopened.Target() != "K64F" {
		t.Errorf("Target() = %q, want K64F", reopened.Target())
	}

	// no temp files left behind
	entries, err := afero.ReadDir(fs, "/build")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != FileName {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("build dir = %v, want only %s", names, FileName)
	}
}

func TestPutStampsTime(t *testing.T) {
	l, err := Open(afero.NewMemMapFs(), "/build")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	if err := l.Put("x", Record{Status: StatusFailed}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, _ := l.Get("x")
	if !got.FinishedAt.Equal(fixed) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, fixed)
	}
}

func TestForget(t *testing.T) {
	l, err := Open(afero.NewMemMapFs(), "/build")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if err := l.Put(name, Record{Status: StatusSucceeded}); err != nil {
			t.Fatalf("Put(%s): %v", name, err)
		}
	}
	if err := l.Forget("a", "c", "missing"); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, l.Tasks()); diff != "" {
		t.Errorf("Tasks() mismatch (-want +got):\n%s", diff)
	}
}

func TestReset(t *testing.T) {
	fs := afero.NewMemMapFs()
	l, err := Open(fs, "/build")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := l.Put("a", Record{Status: StatusSucceeded}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := fs.RemoveAll("/build"); err != nil {
		t.Fatal(err)
	}
	l.Reset()
	if len(l.Tasks()) != 0 {
		t.Errorf("Tasks() = %v after Reset", l.Tasks())
	}
	if ok, _ := afero.DirExists(fs, "/build"); ok {
		t.Error("Reset() recreated the build root")
	}
}

func TestOpenCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/build/"+FileName, "tasks: [unterminated")
	_, err := Open(fs, "/build")
	if !errors.HasCode(err, errors.ErrCodeConfig) {
		t.Fatalf("Open() error = %v, want CONFIG_ERROR", err)
	}
}

func TestCompleteAndVerify(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/build/mbed_app.json", `{"config":{}}`)
	writeFile(t, fs, "/build/source/main.cpp", "int main() {}")

	l, err := Open(fs, "/build")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := l.Complete("mbed_app", "run-1", []string{"mbed_app.json"}, true, Inputs{}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if err := l.Complete("source", "run-1", []string{"source"}, true, Inputs{}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if err := l.Complete("get-mbed-os", "run-1", []string{"mbed-os"}, false, Inputs{}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	tests := []struct {
		name   string
		task   string
		mutate func()
		want   bool
	}{
		{name: "unchanged", task: "source", want: true},
		{name: "no fingerprint", task: "get-mbed-os", want: true},
		{name: "unknown task", task: "nope", want: true},
		{
			name:   "failed last run",
			task:   "config",
			mutate: func() { _ = l.Put("config", Record{Status: StatusFailed}) },
			want:   false,
		},
		{
			name:   "edited file",
			task:   "mbed_app",
			mutate: func() { writeFile(t, fs, "/build/mbed_app.json", `{"config":{"x":1}}`) },
			want:   false,
		},
		{
			name:   "added file",
			task:   "source",
			mutate: func() { writeFile(t, fs, "/build/source/extra.cpp", "") },
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mutate != nil {
				tt.mutate()
			}
			got, err := l.Verify(tt.task)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Verify(%q) = %v, want %v", tt.task, got, tt.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/r/a/one.txt", "1")
	writeFile(t, fs, "/r/a/two.txt", "2")
	writeFile(t, fs, "/r/b.txt", "b")

	first, err := Fingerprint(fs, "/r", "b.txt", "a")
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	if len(first) != 64 {
		t.Errorf("len = %d, want 64 hex chars", len(first))
	}

	swapped, err := Fingerprint(fs, "/r", "a", "b.txt")
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	if first != swapped {
		t.Error("fingerprint depends on argument order")
	}

	if err := fs.Rename("/r/a/two.txt", "/r/a/three.txt"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	renamed, err := Fingerprint(fs, "/r", "a", "b.txt")
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	if renamed == first {
		t.Error("rename did not change the fingerprint")
	}

	missing, err := Fingerprint(fs, "/r", "gone")
	if err != nil {
		t.Fatalf("Fingerprint(missing) error = %v", err)
	}
	empty, _ := Fingerprint(fs, "/r")
	if missing == empty {
		t.Error("missing path should hash differently from no paths")
	}
}

func TestFingerprintFramesFileContents(t *testing.T) {
	joined := afero.NewMemMapFs()
	writeFile(t, joined, "/r/d/x", "1file\x00d/y\x002")
	split := afero.NewMemMapFs()
	writeFile(t, split, "/r/d/x", "1")
	writeFile(t, split, "/r/d/y", "2")

	a, err := Fingerprint(joined, "/r", "d")
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	b, err := Fingerprint(split, "/r", "d")
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	if a == b {
		t.Error("one file embedding a record collides with two files")
	}
}

func TestDigestValues(t *testing.T) {
	sum := func(kv ...string) string {
		d := NewDigest()
		for i := 0; i < len(kv); i += 2 {
			d.Value(kv[i], kv[i+1])
		}
		return d.Sum()
	}
	if sum("target", "K64F") == sum("target", "NUCLEO_F401RE") {
		t.Error("different values hash alike")
	}
	if sum("a", "bc") == sum("ab", "c") {
		t.Error("name/value boundary is not framed")
	}
	if sum("target", "K64F") != sum("target", "K64F") {
		t.Error("digest is not deterministic")
	}
}

func TestVerifyInputs(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/build/js/app.bundle.min.js", "bundle")
	l, err := Open(fs, "/build")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	in := Inputs{Digest: "abc", Reads: []string{"/proj/node_modules/ble/src"}}
	if err := l.Complete("bundle", "run-1", []string{"js"}, true, in); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	tests := []struct {
		name   string
		digest string
		mutate func()
		want   bool
	}{
		{name: "same inputs", digest: "abc", want: true},
		{name: "changed inputs", digest: "abd", want: false},
		{name: "empty digest", digest: "", want: false},
		{
			name:   "edited output",
			digest: "abc",
			mutate: func() { writeFile(t, fs, "/build/js/app.bundle.min.js", "edited") },
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mutate != nil {
				tt.mutate()
			}
			got, err := l.VerifyInputs("bundle", tt.digest)
			if err != nil {
				t.Fatalf("VerifyInputs() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("VerifyInputs() = %v, want %v", got, tt.want)
			}
		})
	}

	if diff := cmp.Diff(in.Reads, l.Reads("bundle")); diff != "" {
		t.Errorf("Reads mismatch (-want +got):\n%s", diff)
	}
	if ok, _ := l.VerifyInputs("unknown", "abc"); ok {
		t.Error("task without a record verified")
	}
	if err := l.Put("bundle", Record{Status: StatusFailed, Inputs: "abc"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if ok, _ := l.VerifyInputs("bundle", "abc"); ok {
		t.Error("failed task verified")
	}
	if got := l.Reads("bundle"); got != nil {
		t.Errorf("Reads after failure = %v, want nil", got)
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == "" || a == b {
		t.Errorf("NewRunID() = %q, %q; want distinct non-empty ids", a, b)
	}
}
