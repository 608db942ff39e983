package firmware

import (
	"context"
	"path/filepath"

	"github.com/kbukum/mbedjs/dag"
	"github.com/kbukum/mbedjs/ledger"
	"github.com/kbukum/mbedjs/logger"
)

// inputSet lists what a task reads: named values and absolute paths.
type inputSet struct {
	values [][2]string
	paths  []string
}

func newInputs() *inputSet { return &inputSet{} }

func (s *inputSet) Value(name, value string) *inputSet {
	s.values = append(s.values, [2]string{name, value})
	return s
}

func (s *inputSet) Path(paths ...string) *inputSet {
	s.paths = append(s.paths, paths...)
	return s
}

// digest hashes in together with reads, the paths a previous run of the
// task discovered.
func (p *Pipeline) digest(in *inputSet, reads []string) (string, error) {
	d := ledger.NewDigest()
	for _, kv := range in.values {
		d.Value(kv[0], kv[1])
	}
	for _, path := range append(append([]string(nil), in.paths...), reads...) {
		d.Value("path", path)
		if err := d.Tree(p.fs, filepath.Dir(path), filepath.Base(path)); err != nil {
			return "", err
		}
	}
	return d.Sum(), nil
}

// incremental wraps action so it is skipped when the ledger shows task
// succeeded against the same inputs and its outputs are still in place.
// Paths returned by action are hashed into the next run's inputs. Without a
// ledger the action always runs.
func (p *Pipeline) incremental(
	task string,
	inputs func() (*inputSet, error),
	action func(ctx context.Context) ([]string, error),
) dag.Action {
	return func(ctx context.Context) error {
		if p.ledger == nil {
			_, err := action(ctx)
			return err
		}
		p.setStamp(task, ledger.Inputs{})

		in, err := inputs()
		if err != nil {
			return err
		}
		reads := p.ledger.Reads(task)
		sum, err := p.digest(in, reads)
		if err != nil {
			p.log.Warn("hashing task inputs failed", logger.Fields(logger.FieldTask, task, logger.FieldError, err.Error()))
		} else if p.probe.Current(task, sum, p.outputs[task].paths...) {
			p.log.Debug("up to date", logger.Fields(logger.FieldTask, task))
			p.setStamp(task, ledger.Inputs{Digest: sum, Reads: reads})
			return nil
		}

		reads, err = action(ctx)
		if err != nil {
			return err
		}
		// the action may have written some of its own inputs
		if in, err = inputs(); err != nil {
			return err
		}
		sum, err = p.digest(in, reads)
		if err != nil {
			p.log.Warn("hashing task inputs failed", logger.Fields(logger.FieldTask, task, logger.FieldError, err.Error()))
			return nil
		}
		p.setStamp(task, ledger.Inputs{Digest: sum, Reads: reads})
		return nil
	}
}

func (p *Pipeline) setStamp(task string, in ledger.Inputs) {
	p.stampsMu.Lock()
	defer p.stampsMu.Unlock()
	if in.Digest == "" {
		delete(p.stamps, task)
		return
	}
	p.stamps[task] = in
}

func (p *Pipeline) stamp(task string) ledger.Inputs {
	p.stampsMu.Lock()
	defer p.stampsMu.Unlock()
	return p.stamps[task]
}
