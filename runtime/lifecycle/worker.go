package lifecycle

import (
	"context"
	"fmt"
	"runtime"

	"github.com/concordrt/concord/runtime/task"
	"github.com/concordrt/concord/telemetry"
)

// YieldPeriod is the work-cycle quantum: a Simulated task cooperatively
// yields every YieldPeriod cycles when its policy requires it.
const YieldPeriod = 10

// runStep executes one work cycle and the checks the worker loop contract
// runs after it: trace-depth cap, deadline, heartbeat, cancellation, and
// whether this is a cooperative yield point. It is shared by both
// scheduling strategies; only how often it's called, and what happens
// between calls, differs between Parallel and Simulated.
func (e *Engine) runStep(ctx context.Context, rec *task.Record, work task.WorkFunc) (terminated bool, cause task.Cause, err error, shouldYield bool) {
	if rec.Cancelled() {
		return true, rec.RequestedCause(), nil, false
	}

	done, werr := e.callWork(ctx, work)
	rec.IncrementWorkCycles()

	if werr != nil {
		return true, task.CauseFault, werr, false
	}
	if done {
		return true, task.CauseNatural, nil, false
	}

	now := e.clock.Now()
	if rec.Policy.TraceCapped && rec.Policy.GenerationDepth > rec.Policy.MaxTraceDepth {
		return true, task.CauseTraceCap, nil, false
	}
	if rec.Policy.MaxExecutionTime > 0 && now.Sub(rec.Policy.CreationTime) > rec.Policy.MaxExecutionTime {
		return true, task.CauseDeadline, nil, false
	}
	rec.SetHeartbeat(now)

	if rec.Cancelled() {
		return true, rec.RequestedCause(), nil, false
	}

	shouldYield = rec.Policy.Mode == task.Simulated &&
		rec.Policy.ReturnToMainRequired &&
		rec.WorkCycles()%YieldPeriod == 0
	return false, task.CauseNone, nil, shouldYield
}

// callWork invokes work for one cycle, catching a panic at the wrapper
// boundary and reporting it (and any returned error) as task.ErrWorkerFault.
func (e *Engine) callWork(ctx context.Context, work task.WorkFunc) (done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", task.ErrWorkerFault, r)
		}
	}()
	done, err = work(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", task.ErrWorkerFault, err)
	}
	return done, err
}

// spawnParallel launches rec's worker on its own goroutine, gated by the
// parallel semaphore when the engine bounds MaxParallelWorkers.
func (e *Engine) spawnParallel(ctx context.Context, rec *task.Record, work task.WorkFunc) {
	go func() {
		if e.parallelSem != nil {
			e.parallelSem <- struct{}{}
			defer func() { <-e.parallelSem }()
		}
		e.runParallel(ctx, rec, work)
	}()
}

func (e *Engine) runParallel(ctx context.Context, rec *task.Record, work task.WorkFunc) {
	rec.SetState(task.Running)
	e.emit(rec.ID(), telemetry.KindTaskStarted, 0, telemetry.OutcomeOK, "")

	for {
		terminated, cause, err, shouldYield := e.runStep(ctx, rec, work)
		if terminated {
			e.finishTask(rec, cause, err)
			return
		}
		if shouldYield {
			// Parallel mode has no scheduler to hand off to; honor the
			// yield point as a courtesy to the Go runtime scheduler only.
			rec.SetState(task.Yielded)
			e.emit(rec.ID(), telemetry.KindTaskYielded, 0, telemetry.OutcomeOK, "")
			runtime.Gosched()
			rec.SetState(task.Running)
			e.emit(rec.ID(), telemetry.KindTaskResumed, 0, telemetry.OutcomeOK, "")
		}
	}
}

// simTask is one entry in the cooperative scheduler's run queue.
type simTask struct {
	ctx  context.Context
	rec  *task.Record
	work task.WorkFunc
}

// simScheduler is the single-threaded cooperative scheduler for Simulated
// tasks: one goroutine dequeues a task, runs it until its next yield point
// or termination, and re-enqueues it if it's still runnable. This is the
// only way tasks in Simulated mode make progress, which is what gives the
// mode its "no data races by construction" property.
type simScheduler struct {
	queue chan *simTask
}

func (e *Engine) ensureSimScheduler() {
	e.simOnce.Do(func() {
		e.sim = &simScheduler{queue: make(chan *simTask, 4096)}
		go e.runSimLoop()
	})
}

func (e *Engine) spawnSimulated(ctx context.Context, rec *task.Record, work task.WorkFunc) {
	e.ensureSimScheduler()
	e.sim.queue <- &simTask{ctx: ctx, rec: rec, work: work}
}

func (e *Engine) runSimLoop() {
	for {
		select {
		case <-e.closed:
			return
		case st := <-e.sim.queue:
			if e.runSimSegment(st) {
				select {
				case e.sim.queue <- st:
				case <-e.closed:
					return
				}
			}
		}
	}
}

// runSimSegment runs rec until its next cooperative yield point or
// termination, returning true if the task is still runnable and should be
// requeued.
func (e *Engine) runSimSegment(st *simTask) bool {
	rec := st.rec
	switch rec.State() {
	case task.New:
		rec.SetState(task.Running)
		e.emit(rec.ID(), telemetry.KindTaskStarted, 0, telemetry.OutcomeOK, "")
	case task.Yielded:
		rec.SetState(task.Running)
		e.emit(rec.ID(), telemetry.KindTaskResumed, 0, telemetry.OutcomeOK, "")
	}

	for {
		terminated, cause, err, shouldYield := e.runStep(st.ctx, rec, st.work)
		if terminated {
			e.finishTask(rec, cause, err)
			return false
		}
		if shouldYield {
			rec.SetState(task.Yielded)
			e.emit(rec.ID(), telemetry.KindTaskYielded, 0, telemetry.OutcomeOK, "")
			return true
		}
	}
}
