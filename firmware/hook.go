package firmware

import (
	"context"

	"github.com/kbukum/mbedjs/dag"
	"github.com/kbukum/mbedjs/ledger"
	"github.com/kbukum/mbedjs/logger"
)

// ledgerHook writes the outcome of tasks that own build-root paths.
// Skipped tasks keep their previous record.
type ledgerHook struct {
	p *Pipeline
}

func (h ledgerHook) OnStart(context.Context, string) {}

func (h ledgerHook) OnFinish(_ context.Context, r dag.TaskResult) {
	out, ok := h.p.outputs[r.Name]
	if !ok {
		return
	}

	var err error
	switch r.Status {
	case dag.StatusSucceeded:
		err = h.p.ledger.Complete(r.Name, h.p.runID, out.paths, out.fingerprint, h.p.stamp(r.Name))
	case dag.StatusFailed:
		err = h.p.ledger.Put(r.Name, ledger.Record{
			Status:  ledger.StatusFailed,
			Outputs: out.paths,
			RunID:   h.p.runID,
		})
	default:
		return
	}
	if err != nil {
		h.p.log.Warn("failed to update build ledger", logger.Fields(
			logger.FieldTask, r.Name,
			logger.FieldError, err.Error(),
		))
	}
}
