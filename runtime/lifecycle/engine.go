// Package lifecycle implements the Task Lifecycle Engine: spawn, the worker
// loop contract wrapped around a caller's WorkFunc, graceful/immediate
// termination requests, and join. It owns the Registry-before-Token-Pool
// locking order: every operation that needs both always resolves the
// Registry side first.
package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/concordrt/concord/internal/clock"
	"github.com/concordrt/concord/runtime/registry"
	"github.com/concordrt/concord/runtime/task"
	"github.com/concordrt/concord/runtime/token"
	"github.com/concordrt/concord/telemetry"
	"github.com/concordrt/concord/tracing"
)

// Config controls Engine behavior beyond the compile-time constants the
// spec fixes (pool capacity, max tasks, hierarchy depth, children, yield
// period).
type Config struct {
	// MaxParallelWorkers bounds the number of Parallel-mode workers that may
	// run their loop concurrently; 0 means unbounded (a literal OS-level
	// worker per task, as the component design describes).
	MaxParallelWorkers int
	// AutoCascade, when true, invokes the OnTerminated hook the moment a
	// task's own transition to Terminated is observed, letting an embedder
	// wire it to the Destruction Policy Engine's on_parent_destroyed without
	// the caller triggering it explicitly.
	AutoCascade bool
}

// DefaultConfig returns the engine's default configuration.
func DefaultConfig() Config {
	return Config{MaxParallelWorkers: 0, AutoCascade: false}
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithClock overrides the monotonic time source.
func WithClock(c clock.Source) Option {
	return func(e *Engine) { e.clock = c }
}

// WithTelemetrySink overrides where the engine emits telemetry.Records.
func WithTelemetrySink(sink telemetry.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithMaxParallelWorkers bounds concurrent Parallel-mode workers.
func WithMaxParallelWorkers(n int) Option {
	return func(e *Engine) { e.config.MaxParallelWorkers = n }
}

// WithAutoCascade toggles automatic on_parent_destroyed invocation.
func WithAutoCascade(enabled bool) Option {
	return func(e *Engine) { e.config.AutoCascade = enabled }
}

// WithOnTerminated registers a hook invoked after a task reaches Terminated.
// The hook runs only when AutoCascade is enabled. The root façade installs
// its Destruction Policy Engine hook through SetOnTerminated instead.
func WithOnTerminated(fn func(task.ID)) Option {
	return func(e *Engine) { e.onTerminated = fn }
}

// Engine runs spawned tasks to completion and arbitrates their termination.
type Engine struct {
	registry *registry.Registry
	pool     *token.Pool
	clock    clock.Source
	sink     telemetry.Sink
	config   Config

	mu      sync.Mutex
	cancels map[task.ID]context.CancelFunc

	simOnce sync.Once
	sim     *simScheduler
	closed  chan struct{}

	parallelSem chan struct{}

	onTerminated func(task.ID)

	nextID uint64
}

// New creates an Engine over the given Registry and token Pool.
func New(reg *registry.Registry, pool *token.Pool, options ...Option) *Engine {
	e := &Engine{
		registry: reg,
		pool:     pool,
		clock:    clock.System,
		config:   DefaultConfig(),
		cancels:  make(map[task.ID]context.CancelFunc),
		closed:   make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.config.MaxParallelWorkers > 0 {
		e.parallelSem = make(chan struct{}, e.config.MaxParallelWorkers)
	}
	return e
}

// Shutdown stops the Simulated scheduler loop if one was started. It does
// not cancel running tasks; callers drain the runtime via RequestImmediate
// and Join before calling Shutdown.
func (e *Engine) Shutdown() {
	close(e.closed)
}

// Spawn registers a new task under policy and, once registered, launches its
// worker. policy.ThreadID is auto-assigned when left zero; a caller that
// supplies its own non-zero id (tests, deterministic replay) keeps it.
// generation_depth is computed from the parent's recorded depth; ParentID ==
// 0 spawns at depth 0 (the root generation).
func (e *Engine) Spawn(policy task.Policy, work task.WorkFunc) (id task.ID, err error) {
	_, span := tracing.StartSpan(context.Background(), "lifecycle.Spawn", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	if policy.ThreadID == 0 {
		policy.ThreadID = task.ID(atomic.AddUint64(&e.nextID, 1))
	}

	depth := 0
	if policy.ParentID != 0 {
		parent := e.registry.Lookup(policy.ParentID)
		if parent == nil {
			err = ErrUnknownTask
			return 0, err
		}
		depth = parent.Policy.GenerationDepth + 1
	}
	policy.GenerationDepth = depth
	policy.CreationTime = e.clock.Now()
	policy.LastHeartbeat = policy.CreationTime

	rec := task.NewRecord(policy)
	if err = e.registry.Register(rec); err != nil {
		return 0, err
	}
	span.WithAttributes(map[string]string{"task.mode": policy.Mode.String()})

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancels[rec.ID()] = cancel
	e.mu.Unlock()

	e.emit(rec.ID(), telemetry.KindTaskRegistered, uint64(policy.ParentID), telemetry.OutcomeOK, "")

	switch policy.Mode {
	case task.Parallel:
		e.spawnParallel(ctx, rec, work)
	default:
		e.spawnSimulated(ctx, rec, work)
	}

	return rec.ID(), nil
}

// RequestGraceful sets the cancel flag; the task observes it at its next
// checkpoint and exits through the Graceful cause.
func (e *Engine) RequestGraceful(id task.ID) error {
	rec := e.registry.Lookup(id)
	if rec == nil {
		return ErrUnknownTask
	}
	rec.Cancel(task.CauseGraceful)
	return nil
}

// RequestImmediate sets the cancel flag and cancels the task's own context,
// so a cooperative WorkFunc observing ctx.Done() can stop at once. The
// engine still reclaims tokens only once it observes Terminated.
func (e *Engine) RequestImmediate(id task.ID) error {
	rec := e.registry.Lookup(id)
	if rec == nil {
		return ErrUnknownTask
	}
	rec.Cancel(task.CauseImmediate)

	e.mu.Lock()
	cancel := e.cancels[id]
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// AcquireToken validates requester against the Registry before delegating
// to the Token Pool, preserving the Registry-before-Token-Pool lock order.
func (e *Engine) AcquireToken(requester task.ID, resourceName string, accessMask byte) (token.ID, error) {
	rec := e.registry.Lookup(requester)
	if rec == nil {
		e.emit(requester, telemetry.KindTokenAcquired, 0, telemetry.OutcomeError, token.ErrUnknownRequester.Error())
		return 0, token.ErrUnknownRequester
	}
	switch rec.State() {
	case task.New, task.Running:
	default:
		e.emit(requester, telemetry.KindTokenAcquired, 0, telemetry.OutcomeError, token.ErrUnknownRequester.Error())
		return 0, token.ErrUnknownRequester
	}

	id, err := e.pool.Acquire(token.TaskID(requester), resourceName, accessMask)
	if err != nil {
		e.emit(requester, telemetry.KindTokenAcquired, 0, telemetry.OutcomeError, err.Error())
		return 0, err
	}
	e.emit(requester, telemetry.KindTokenAcquired, uint64(id), telemetry.OutcomeOK, "")
	return id, nil
}

// ReleaseToken releases a token by id, matching the token_id-only §6 signature.
func (e *Engine) ReleaseToken(id token.ID) error {
	if err := e.pool.Release(id); err != nil {
		e.emit(0, telemetry.KindTokenReleased, uint64(id), telemetry.OutcomeError, err.Error())
		return err
	}
	e.emit(0, telemetry.KindTokenReleased, uint64(id), telemetry.OutcomeOK, "")
	return nil
}

// Pool exposes the underlying Token Pool for collaborators (the
// Context-Switch Governor) constructed alongside this Engine.
func (e *Engine) Pool() *token.Pool { return e.pool }

// RegistryOf exposes the underlying Registry for collaborators (the
// Destruction Policy Engine, the Context-Switch Governor) constructed
// alongside this Engine.
func (e *Engine) RegistryOf() *registry.Registry { return e.registry }

// SetOnTerminated wires the hook invoked after a task reaches Terminated,
// once AutoCascade is enabled. Exists alongside WithOnTerminated because the
// root façade must construct the Destruction Policy Engine from this Engine
// before it can hand the hook back in.
func (e *Engine) SetOnTerminated(fn func(task.ID)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTerminated = fn
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

func (e *Engine) finishTask(rec *task.Record, cause task.Cause, err error) {
	rec.SetState(task.Terminating)
	e.emit(rec.ID(), telemetry.KindTaskTerminating, 0, telemetry.OutcomeOK, "")

	e.pool.ReclaimOwnedBy(token.TaskID(rec.ID()))
	rec.Finish(cause, err)

	outcome := telemetry.OutcomeOK
	detail := ""
	if err != nil {
		outcome = telemetry.OutcomeError
		detail = err.Error()
	}
	e.emit(rec.ID(), telemetry.KindTaskTerminated, 0, outcome, detail)

	e.mu.Lock()
	delete(e.cancels, rec.ID())
	e.mu.Unlock()

	e.mu.Lock()
	hook := e.onTerminated
	e.mu.Unlock()
	if e.config.AutoCascade && hook != nil {
		hook(rec.ID())
	}
}
