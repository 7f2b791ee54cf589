package lifecycle

import (
	"context"

	"github.com/concordrt/concord/runtime/task"
)

// TerminationReport is returned by Join: join's round-trip law requires the
// result be consistent with the worker's declared termination cause, which a
// bare Ok cannot carry.
type TerminationReport struct {
	Cause      task.Cause
	WorkCycles uint64
	Err        error
}

// Join blocks until id reaches Terminated, or ctx is done.
func (e *Engine) Join(ctx context.Context, id task.ID) (*TerminationReport, error) {
	rec := e.registry.Lookup(id)
	if rec == nil {
		return nil, ErrUnknownTask
	}

	select {
	case <-rec.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	cause, err := rec.Outcome()
	return &TerminationReport{Cause: cause, WorkCycles: rec.WorkCycles(), Err: err}, nil
}
