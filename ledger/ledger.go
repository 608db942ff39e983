package ledger

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/mbedjs/errors"
)

// FileName is the ledger file name inside the build root.
const FileName = ".mbedjs-state.yaml"

const schemaVersion = 1

// Record is the ledger entry for one task.
type Record struct {
	Status      string   `yaml:"status"`
	Outputs     []string `yaml:"outputs,omitempty"`
	Fingerprint string   `yaml:"fingerprint,omitempty"`
	// Inputs is the digest of what the task read on its last successful run.
	Inputs string `yaml:"inputs,omitempty"`
	// Reads lists paths the task discovered while running, such as native
	// package sources. They are part of the next run's input digest.
	Reads      []string  `yaml:"reads,omitempty"`
	FinishedAt time.Time `yaml:"finished_at"`
	RunID      string    `yaml:"run_id"`
}

// Inputs is the input state a task ran against.
type Inputs struct {
	Digest string
	Reads  []string
}

type document struct {
	Version int               `yaml:"version"`
	Target  string            `yaml:"target,omitempty"`
	Tasks   map[string]Record `yaml:"tasks"`
}

// Ledger is the build-state record of one build root. It is safe for
// concurrent use by tasks of the same invocation.
type Ledger struct {
	mu   sync.Mutex
	fs   afero.Fs
	root string
	doc  document
	now  func() time.Time
}

// NewRunID returns an identifier for one build invocation.
func NewRunID() string {
	return uuid.NewString()
}

// Open loads the ledger of the build root, or starts an empty one.
func Open(fs afero.Fs, root string) (*Ledger, error) {
	l := &Ledger{
		fs:   fs,
		root: root,
		doc:  document{Version: schemaVersion, Tasks: map[string]Record{}},
		now:  time.Now,
	}

	data, err := afero.ReadFile(fs, l.Path())
	if err != nil {
		if ok, _ := afero.Exists(fs, l.Path()); !ok {
			return l, nil
		}
		return nil, errors.Internal(err).WithDetail("path", l.Path())
	}
	if err := yaml.Unmarshal(data, &l.doc); err != nil {
		return nil, errors.Config(fmt.Sprintf("corrupt build ledger %s; remove it to rebuild state", l.Path())).
			WithCause(err)
	}
	if l.doc.Tasks == nil {
		l.doc.Tasks = map[string]Record{}
	}
	return l, nil
}

// Path returns the ledger file location.
func (l *Ledger) Path() string {
	return filepath.Join(l.root, FileName)
}

// Get returns the record of task.
func (l *Ledger) Get(task string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.doc.Tasks[task]
	return r, ok
}

// Tasks returns the recorded task names in sorted order.
func (l *Ledger) Tasks() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.doc.Tasks))
	for name := range l.doc.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Target returns the target the ledger was last written for.
func (l *Ledger) Target() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doc.Target
}

// SetTarget records the build target and saves.
func (l *Ledger) SetTarget(target string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.doc.Target = target
	return l.saveLocked()
}

// Put stores rec for task and saves. A zero FinishedAt is set to now.
func (l *Ledger) Put(task string, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = l.now().UTC()
	}
	l.doc.Tasks[task] = rec
	return l.saveLocked()
}

// Complete records a successful task and the inputs it ran against. When
// fingerprint is true the outputs, relative to the build root, are hashed so
// later runs can detect edits.
func (l *Ledger) Complete(task, runID string, outputs []string, fingerprint bool, in Inputs) error {
	rec := Record{
		Status:  StatusSucceeded,
		Outputs: outputs,
		Inputs:  in.Digest,
		Reads:   in.Reads,
		RunID:   runID,
	}
	if fingerprint && len(outputs) > 0 {
		sum, err := Fingerprint(l.fs, l.root, outputs...)
		if err != nil {
			return err
		}
		rec.Fingerprint = sum
	}
	return l.Put(task, rec)
}

// Verify reports whether the outputs of task still match the recorded
// fingerprint. A task whose last run failed never verifies. Tasks without a
// record or without a fingerprint verify.
func (l *Ledger) Verify(task string) (bool, error) {
	rec, ok := l.Get(task)
	if ok && rec.Status == StatusFailed {
		return false, nil
	}
	if !ok || rec.Fingerprint == "" {
		return true, nil
	}
	sum, err := Fingerprint(l.fs, l.root, rec.Outputs...)
	if err != nil {
		return false, err
	}
	return sum == rec.Fingerprint, nil
}

// Reads returns the paths task discovered on its last successful run.
func (l *Ledger) Reads(task string) []string {
	rec, ok := l.Get(task)
	if !ok || rec.Status != StatusSucceeded {
		return nil
	}
	return rec.Reads
}

// VerifyInputs reports whether task last succeeded against the input digest
// and its outputs still match their fingerprint.
func (l *Ledger) VerifyInputs(task, digest string) (bool, error) {
	rec, ok := l.Get(task)
	if !ok || rec.Status != StatusSucceeded || rec.Inputs == "" || rec.Inputs != digest {
		return false, nil
	}
	return l.Verify(task)
}

// Forget removes the records of tasks and saves if any existed.
func (l *Ledger) Forget(tasks ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := false
	for _, t := range tasks {
		if _, ok := l.doc.Tasks[t]; ok {
			delete(l.doc.Tasks, t)
			removed = true
		}
	}
	if !removed {
		return nil
	}
	return l.saveLocked()
}

// Reset drops every record without writing. Used after the build root has
// been removed.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.doc = document{Version: schemaVersion, Tasks: map[string]Record{}}
}

// Task statuses as written to the ledger.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

func (l *Ledger) saveLocked() error {
	if err := l.fs.MkdirAll(l.root, 0o755); err != nil {
		return errors.Internal(err).WithDetail("path", l.root)
	}
	data, err := yaml.Marshal(&l.doc)
	if err != nil {
		return errors.Internal(err)
	}

	tmp, err := afero.TempFile(l.fs, l.root, FileName+".*")
	if err != nil {
		return errors.Internal(err).WithDetail("path", l.root)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = l.fs.Remove(tmpName)
		return errors.Internal(err).WithDetail("path", tmpName)
	}
	if err := tmp.Close(); err != nil {
		_ = l.fs.Remove(tmpName)
		return errors.Internal(err).WithDetail("path", tmpName)
	}
	if err := l.fs.Rename(tmpName, l.Path()); err != nil {
		_ = l.fs.Remove(tmpName)
		return errors.Internal(err).WithDetail("path", l.Path())
	}
	return nil
}
