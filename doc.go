// Package concord implements a concurrency governance runtime: a task
// lifecycle state machine, a bounded arbitration-token pool, a destruction
// policy engine, and a context-switch governor, running tasks in either a
// single-goroutine cooperative Simulated mode or a goroutine-per-task
// Parallel mode.
//
// The governance surface is the Runtime type, constructed with New or (for
// a process-wide singleton) InitRuntime:
//
//	rt := concord.New()
//	id, _ := rt.Spawn(task.Policy{Mode: task.Parallel}, func(ctx context.Context) (bool, error) {
//		return true, nil
//	})
//	report, _ := rt.Join(context.Background(), id)
//
// Sub-packages implement each governance component: runtime/task (records
// and policy), runtime/token (the arbitration pool), runtime/registry (the
// task hierarchy), runtime/lifecycle (spawn/join/cancellation and the two
// scheduling modes), runtime/destruction (destroy-policy propagation) and
// runtime/governor (context-switch validation and token handoff).
// telemetry carries the observable side-effect stream; tracing wraps
// governance operations in OpenTelemetry spans.
package concord
