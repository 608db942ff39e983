package main

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/kbukum/mbedjs/config"
	"github.com/kbukum/mbedjs/errors"
	"github.com/kbukum/mbedjs/firmware"
)

func TestApplyFlags(t *testing.T) {
	cfg := &config.BuildConfig{Target: "NUCLEO_F401RE", Parallel: 4, BuildDir: "build"}
	applyFlags(cfg, &CLI{
		Target:   "K64F",
		Parallel: -1,
		Timeout:  time.Minute,
		LogLevel: "debug",
		Force:    true,
	})

	if cfg.Target != "K64F" {
		t.Errorf("Target = %q, want K64F", cfg.Target)
	}
	if cfg.Parallel != 4 {
		t.Errorf("Parallel = %d, want the config value kept", cfg.Parallel)
	}
	if cfg.BuildDir != "build" {
		t.Errorf("BuildDir = %q, want the config value kept", cfg.BuildDir)
	}
	if cfg.TaskTimeout != time.Minute || cfg.Logging.Level != "debug" || !cfg.Force {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestLoaderOptionsEnvFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/p/.env", []byte("MBED_TARGET=K64F\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/p/ci.env", []byte("MBED_TARGET=NUCLEO_F429ZI\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cli  *CLI
		want string
	}{
		{"project .env", &CLI{ProjectDir: "/p"}, "K64F"},
		{"explicit env file", &CLI{ProjectDir: "/p", EnvFile: "/p/ci.env"}, "NUCLEO_F429ZI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append(loaderOptions(tt.cli), config.WithFs(fs), config.WithEnviron([]string{}))
			cfg, err := config.Load(opts...)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Target != tt.want {
				t.Errorf("Target = %q, want %q", cfg.Target, tt.want)
			}
		})
	}
}

func TestOrDefault(t *testing.T) {
	if diff := cmp.Diff([]string{firmware.TaskDefault}, orDefault(nil)); diff != "" {
		t.Errorf("orDefault(nil) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"pins"}, orDefault([]string{"pins"})); diff != "" {
		t.Errorf("orDefault (-want +got):\n%s", diff)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain", stderrors.New("boom"), 1},
		{"config", errors.Config("bad"), 2},
		{"task failed", errors.TaskFailed("build", stderrors.New("boom")), 1},
		{"cancelled inside task", errors.TaskFailed("build", errors.Cancelled(stderrors.New("ctx"))), 130},
		{"reported", reported{errors.ManifestInvalid("/p/mbedjs.json", stderrors.New("eof"))}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode = %d, want %d", got, tt.want)
			}
		})
	}
}
