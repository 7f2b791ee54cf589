// Package governor implements the Context-Switch Governor: genealogy-rooted
// permission checks for a cooperative handoff between two tasks, with token
// custody transfer on success.
package governor

import (
	"context"
	"runtime"

	"github.com/concordrt/concord/internal/clock"
	"github.com/concordrt/concord/runtime/registry"
	"github.com/concordrt/concord/runtime/task"
	"github.com/concordrt/concord/runtime/token"
	"github.com/concordrt/concord/telemetry"
	"github.com/concordrt/concord/tracing"
)

// Engine validates and executes context switches between tasks in the same
// hierarchy.
type Engine struct {
	registry *registry.Registry
	pool     *token.Pool
	sink     telemetry.Sink
	clock    clock.Source
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithTelemetrySink overrides where the engine emits telemetry.Records.
func WithTelemetrySink(sink telemetry.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithClock overrides the monotonic time source.
func WithClock(c clock.Source) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an Engine over reg and pool.
func New(reg *registry.Registry, pool *token.Pool, options ...Option) *Engine {
	e := &Engine{registry: reg, pool: pool, clock: clock.System}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// ContextSwitch validates the switch from fromID to toID and, on success,
// transfers every transferable token from owns to to, and increments both
// records' context_switches. A denied switch has no side effects and does
// not touch the counters.
func (e *Engine) ContextSwitch(fromID, toID task.ID) (err error) {
	_, span := tracing.StartSpan(context.Background(), "governor.ContextSwitch", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	from := e.registry.Lookup(fromID)
	to := e.registry.Lookup(toID)
	if from == nil || to == nil || from.State() == task.Terminated || to.State() == task.Terminated {
		err = ErrDenied
		e.emitDenied(fromID, toID, err)
		return err
	}
	if !sameHierarchy(from, to) {
		err = ErrNotSameHierarchy
		e.emitDenied(fromID, toID, err)
		return err
	}

	e.pool.TransferOwned(token.TaskID(fromID), token.TaskID(toID))
	from.IncrementContextSwitches()
	to.IncrementContextSwitches()

	e.emit(fromID, telemetry.KindContextSwitchOK, uint64(toID), telemetry.OutcomeOK, "")

	// The scheduler handoff proper belongs to the cooperative scheduler; this
	// is only a courtesy nudge so the target gets a chance to run soon.
	runtime.Gosched()
	return nil
}

// sameHierarchy implements the §4.5 predicate: from is to's parent, to is
// from's parent, or both share a non-root parent.
func sameHierarchy(from, to *task.Record) bool {
	fromParent := from.ParentID()
	toParent := to.ParentID()
	if fromParent == to.ID() {
		return true
	}
	if toParent == from.ID() {
		return true
	}
	if fromParent != 0 && fromParent == toParent {
		return true
	}
	return false
}

func (e *Engine) emit(id task.ID, kind telemetry.Kind, secondary uint64, outcome telemetry.Outcome, detail string) {
	if e.sink == nil {
		return
	}
	e.sink.Emit(context.Background(), telemetry.Record{
		Timestamp:   e.clock.Now(),
		Kind:        kind,
		TaskID:      uint64(id),
		SecondaryID: secondary,
		Outcome:     outcome,
		Detail:      detail,
	})
}

func (e *Engine) emitDenied(fromID, toID task.ID, err error) {
	e.emit(fromID, telemetry.KindContextSwitchDeny, uint64(toID), telemetry.OutcomeError, err.Error())
}
