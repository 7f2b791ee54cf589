package concord

import (
	"context"

	"github.com/concordrt/concord/internal/clock"
	"github.com/concordrt/concord/runtime/destruction"
	"github.com/concordrt/concord/runtime/governor"
	"github.com/concordrt/concord/runtime/lifecycle"
	"github.com/concordrt/concord/runtime/registry"
	"github.com/concordrt/concord/runtime/task"
	"github.com/concordrt/concord/runtime/token"
	"github.com/concordrt/concord/telemetry"
)

// Runtime wires the Registry, Token Pool, Task Lifecycle Engine, Destruction
// Policy Engine and Context-Switch Governor into the governance surface
// described by the external interface table: spawn, join, request_graceful,
// request_immediate, on_parent_destroyed, acquire_token, release_token,
// context_switch and shutdown_runtime.
type Runtime struct {
	registry    *registry.Registry
	pool        *token.Pool
	lifecycle   *lifecycle.Engine
	destruction *destruction.Engine
	governor    *governor.Engine

	sink   telemetry.Sink
	clock  clock.Source
	config Config
}

// New wires a fresh, independent Runtime. Most embedders that only need one
// runtime per process should prefer InitRuntime/CurrentRuntime, which
// enforce the init_runtime/AlreadyInitialized contract; New is for tests and
// for embedders that deliberately run more than one runtime side by side.
func New(options ...Option) *Runtime {
	r := &Runtime{clock: clock.System, config: *DefaultConfig()}
	for _, opt := range options {
		opt(r)
	}
	if r.sink == nil {
		r.sink = telemetry.NewPublisher(nil)
	}

	r.registry = registry.New()
	r.pool = token.NewPool(r.clock)

	lcOptions := []lifecycle.Option{
		lifecycle.WithClock(r.clock),
		lifecycle.WithTelemetrySink(r.sink),
		lifecycle.WithAutoCascade(r.config.Lifecycle.AutoCascade),
	}
	if r.config.Lifecycle.MaxParallelWorkers > 0 {
		lcOptions = append(lcOptions, lifecycle.WithMaxParallelWorkers(r.config.Lifecycle.MaxParallelWorkers))
	}
	r.lifecycle = lifecycle.New(r.registry, r.pool, lcOptions...)

	r.destruction = destruction.New(r.registry, r.lifecycle,
		destruction.WithClock(r.clock),
		destruction.WithTelemetrySink(r.sink))

	if r.config.Lifecycle.AutoCascade {
		r.lifecycle.SetOnTerminated(func(id task.ID) { r.destruction.OnParentDestroyed(id) })
	}

	r.governor = governor.New(r.registry, r.pool,
		governor.WithClock(r.clock),
		governor.WithTelemetrySink(r.sink))

	return r
}

// Spawn registers a new task under policy and launches its worker according
// to policy.Mode.
func (r *Runtime) Spawn(policy task.Policy, work task.WorkFunc) (task.ID, error) {
	return r.lifecycle.Spawn(policy, work)
}

// Join blocks until id reaches Terminated, ctx is done, or an error occurs,
// returning the task's termination report.
func (r *Runtime) Join(ctx context.Context, id task.ID) (*lifecycle.TerminationReport, error) {
	return r.lifecycle.Join(ctx, id)
}

// RequestGraceful asks id to stop at its next checkpoint.
func (r *Runtime) RequestGraceful(id task.ID) error {
	return r.lifecycle.RequestGraceful(id)
}

// RequestImmediate forces id's cancellation as soon as practicable.
func (r *Runtime) RequestImmediate(id task.ID) error {
	return r.lifecycle.RequestImmediate(id)
}

// OnParentDestroyed applies every child of parentID's destroy policy. Must
// be invoked after parentID itself reached Terminated, unless AutoCascade
// was enabled at construction, in which case the runtime calls this
// automatically and an embedder need not call it again.
func (r *Runtime) OnParentDestroyed(parentID task.ID) int {
	return r.destruction.OnParentDestroyed(parentID)
}

// AcquireToken acquires a token on behalf of requester.
func (r *Runtime) AcquireToken(requester task.ID, resourceName string, accessMask byte) (token.ID, error) {
	return r.lifecycle.AcquireToken(requester, resourceName, accessMask)
}

// ReleaseToken releases a previously acquired token.
func (r *Runtime) ReleaseToken(id token.ID) error {
	return r.lifecycle.ReleaseToken(id)
}

// PinToken clears is_transferable on a token the caller still owns, the
// supplemented operation resolving the PoC's acquire/transfer contradiction
// (see the design decisions for details).
func (r *Runtime) PinToken(id token.ID, ownerID task.ID) error {
	return r.pool.Pin(id, token.TaskID(ownerID))
}

// ContextSwitch validates and executes a cooperative handoff from fromID to
// toID, transferring every transferable token fromID owns.
func (r *Runtime) ContextSwitch(fromID, toID task.ID) error {
	return r.governor.ContextSwitch(fromID, toID)
}

// ShutdownRuntime stops the Simulated-mode scheduler loop; Simulated tasks
// still queued on it make no further progress. It does not force running
// tasks to stop and does not Reap; callers should RequestImmediate and Join
// every outstanding task first if a clean drain is required.
func (r *Runtime) ShutdownRuntime() {
	r.lifecycle.Shutdown()
}

// Reap unregisters every Terminated task, whose tokens finishTask already
// reclaimed on the way into that state, mirroring the teacher's
// Process.Remove stack-compaction idiom. It returns the number of tasks
// removed. Safe to call periodically; a task that has not yet reached
// Terminated is left untouched.
func (r *Runtime) Reap() int {
	ids := r.registry.TerminatedIDs()
	n := 0
	for _, id := range ids {
		if err := r.registry.Unregister(id); err == nil {
			n++
		}
	}
	return n
}

// Registry exposes the underlying Registry for introspection (e.g.
// children_of, lookup) by embedders that need more than the governance
// operations above.
func (r *Runtime) Registry() *registry.Registry { return r.registry }

// Pool exposes the underlying Token Pool for introspection.
func (r *Runtime) Pool() *token.Pool { return r.pool }

// TelemetrySink exposes the sink every governance engine emits to, so an
// embedder can attach a telemetry.Listener.
func (r *Runtime) TelemetrySink() telemetry.Sink { return r.sink }
