// Package staging answers the question every idempotent build task asks
// first: is my output already in place?
package staging

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/kbukum/mbedjs/logger"
)

// Verifier checks recorded fingerprints. *ledger.Ledger satisfies it.
type Verifier interface {
	Verify(task string) (bool, error)
}

// InputVerifier checks recorded input digests. *ledger.Ledger satisfies it.
type InputVerifier interface {
	VerifyInputs(task, digest string) (bool, error)
}

// Option configures a Probe.
type Option func(*Probe)

// WithVerifier makes Done compare outputs against recorded fingerprints.
func WithVerifier(v Verifier) Option {
	return func(p *Probe) { p.verifier = v }
}

// WithForce makes Done always report false so every task reruns.
func WithForce(force bool) Option {
	return func(p *Probe) { p.force = force }
}

// WithLogger sets the logger used to report stale outputs.
func WithLogger(l *logger.Logger) Option {
	return func(p *Probe) { p.log = l }
}

// Probe inspects the staging area of a build root.
type Probe struct {
	fs       afero.Fs
	root     string
	verifier Verifier
	force    bool
	log      *logger.Logger
}

// NewProbe returns a probe rooted at the build directory.
func NewProbe(fs afero.Fs, root string, opts ...Option) *Probe {
	p := &Probe{fs: fs, root: root, log: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Root returns the build directory.
func (p *Probe) Root() string { return p.root }

// Path resolves rel against the build root. Absolute paths pass through.
func (p *Probe) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.root, rel)
}

// Exists reports whether anything exists at rel. Stat errors count as absent.
func (p *Probe) Exists(rel string) bool {
	_, err := p.fs.Stat(p.Path(rel))
	return err == nil
}

// Done reports whether task can be skipped: its output at rel exists and,
// when a verifier is set, still matches what the task last produced.
func (p *Probe) Done(task, rel string) bool {
	if p.force || !p.Exists(rel) {
		return false
	}
	if p.verifier == nil {
		return true
	}
	ok, err := p.verifier.Verify(task)
	if err != nil {
		p.log.Warn("output verification failed", logger.Fields(
			logger.FieldTask, task,
			logger.FieldPath, p.Path(rel),
			logger.FieldError, err.Error(),
		))
		return false
	}
	if !ok {
		p.log.Info("output changed since last build", logger.Fields(
			logger.FieldTask, task,
			logger.FieldPath, p.Path(rel),
		))
	}
	return ok
}

// Current reports whether task can be skipped because it last succeeded
// against the same input digest and every output in rels still exists.
// Without a verifier that records inputs nothing is current.
func (p *Probe) Current(task, digest string, rels ...string) bool {
	iv, ok := p.verifier.(InputVerifier)
	if p.force || !ok || digest == "" {
		return false
	}
	for _, rel := range rels {
		if !p.Exists(rel) {
			return false
		}
	}
	current, err := iv.VerifyInputs(task, digest)
	if err != nil {
		p.log.Warn("input verification failed", logger.Fields(
			logger.FieldTask, task,
			logger.FieldError, err.Error(),
		))
		return false
	}
	if !current {
		p.log.Debug("inputs changed since last build", logger.Fields(logger.FieldTask, task))
	}
	return current
}
