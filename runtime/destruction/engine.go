// Package destruction implements the Destruction Policy Engine:
// on_parent_destroyed walks a terminated parent's children and applies
// each child's declared destroy policy.
package destruction

import (
	"context"
	"strconv"

	"github.com/concordrt/concord/internal/clock"
	"github.com/concordrt/concord/runtime/registry"
	"github.com/concordrt/concord/runtime/task"
	"github.com/concordrt/concord/telemetry"
	"github.com/concordrt/concord/tracing"
)

// Terminator is the subset of the Lifecycle Engine the Destruction Policy
// Engine depends on, kept narrow so tests can substitute a fake.
type Terminator interface {
	RequestGraceful(id task.ID) error
	RequestImmediate(id task.ID) error
}

// Engine applies destroy policies to a destroyed parent's children.
type Engine struct {
	registry *registry.Registry
	lifecyle Terminator
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

// New creates an Engine over reg, dispatching termination requests to lifecyle.
func New(reg *registry.Registry, lifecyle Terminator, options ...Option) *Engine {
	e := &Engine{registry: reg, lifecyle: lifecyle, clock: clock.System}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// OnParentDestroyed walks parentID's children in ascending task-id order and
// applies each one's destroy policy. It must be invoked after the parent has
// itself reached Terminated. It returns the number of children acted on;
// children already Terminating or Terminated are skipped and not counted.
func (e *Engine) OnParentDestroyed(parentID task.ID) int {
	_, span := tracing.StartSpan(context.Background(), "destruction.OnParentDestroyed", "INTERNAL")
	span.WithAttributes(map[string]string{"parent.id": formatID(parentID)})
	defer tracing.EndSpan(span, nil)

	affected := 0
	for _, child := range e.registry.ChildrenOf(parentID) {
		switch child.State() {
		case task.Terminating, task.Terminated:
			continue
		}

		switch child.Policy.DestroyPolicy {
		case task.Cascade:
			if e.lifecyle.RequestImmediate(child.ID()) == nil {
				affected++
			}
		case task.KeepAlive:
			if child.Policy.KeepAlive {
				e.registry.Orphan(child.ID())
				e.emit(child.ID(), telemetry.KindTaskOrphaned, uint64(parentID), telemetry.OutcomeOK, "")
				affected++
			} else if e.lifecyle.RequestImmediate(child.ID()) == nil {
				affected++
			}
		case task.Graceful:
			if e.lifecyle.RequestGraceful(child.ID()) == nil {
				affected++
			}
		case task.Immediate:
			if e.lifecyle.RequestImmediate(child.ID()) == nil {
				affected++
			}
		}
	}
	return affected
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

func formatID(id task.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}
