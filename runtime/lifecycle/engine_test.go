package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concordrt/concord/runtime/registry"
	"github.com/concordrt/concord/runtime/task"
	"github.com/concordrt/concord/runtime/token"
)

func newEngine(options ...Option) *Engine {
	return New(registry.New(), token.NewPool(nil), options...)
}

func countingWork(limit int) (task.WorkFunc, func() int) {
	count := 0
	return func(ctx context.Context) (bool, error) {
		count++
		return count >= limit, nil
	}, func() int { return count }
}

func TestEngine_SpawnParallelNaturalCompletion(t *testing.T) {
	e := newEngine()
	work, _ := countingWork(3)

	id, err := e.Spawn(task.Policy{ThreadID: 1, Mode: task.Parallel}, work)
	require.NoError(t, err)

	report, err := e.Join(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, task.CauseNatural, report.Cause)
	assert.EqualValues(t, 3, report.WorkCycles)
}

func TestEngine_SpawnSimulatedNaturalCompletion(t *testing.T) {
	e := newEngine()
	work, _ := countingWork(25)

	id, err := e.Spawn(task.Policy{
		ThreadID:             1,
		Mode:                 task.Simulated,
		ReturnToMainRequired: true,
	}, work)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	report, err := e.Join(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, task.CauseNatural, report.Cause)
	assert.EqualValues(t, 25, report.WorkCycles)
}

func TestEngine_SimulatedInterleaving(t *testing.T) {
	e := newEngine()
	workA, cyclesA := countingWork(30)
	workB, cyclesB := countingWork(5)

	idA, err := e.Spawn(task.Policy{ThreadID: 1, Mode: task.Simulated, ReturnToMainRequired: true}, workA)
	require.NoError(t, err)
	idB, err := e.Spawn(task.Policy{ThreadID: 2, Mode: task.Simulated, ReturnToMainRequired: true}, workB)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reportB, err := e.Join(ctx, idB)
	require.NoError(t, err)
	assert.EqualValues(t, 5, cyclesB())
	assert.Less(t, cyclesB(), cyclesA()+1, "B should finish without waiting for A to fully drain")

	reportA, err := e.Join(ctx, idA)
	require.NoError(t, err)
	assert.Equal(t, task.CauseNatural, reportA.Cause)
	assert.Equal(t, task.CauseNatural, reportB.Cause)
}

func TestEngine_RequestGraceful(t *testing.T) {
	e := newEngine()
	started := make(chan struct{}, 1)
	work := func(ctx context.Context) (bool, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		return false, nil
	}

	id, err := e.Spawn(task.Policy{ThreadID: 1, Mode: task.Parallel}, work)
	require.NoError(t, err)
	<-started

	require.NoError(t, e.RequestGraceful(id))

	report, err := e.Join(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, task.CauseGraceful, report.Cause)
	assert.GreaterOrEqual(t, report.WorkCycles, uint64(1))
}

func TestEngine_RequestImmediate(t *testing.T) {
	e := newEngine()
	started := make(chan struct{}, 1)
	work := func(ctx context.Context) (bool, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return false, nil
	}

	id, err := e.Spawn(task.Policy{ThreadID: 1, Mode: task.Parallel}, work)
	require.NoError(t, err)
	<-started

	require.NoError(t, e.RequestImmediate(id))

	report, err := e.Join(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, task.CauseImmediate, report.Cause)
}

func TestEngine_RequestUnknownTask(t *testing.T) {
	e := newEngine()
	assert.ErrorIs(t, e.RequestGraceful(999), ErrUnknownTask)
	assert.ErrorIs(t, e.RequestImmediate(999), ErrUnknownTask)
}

func TestEngine_MaxExecutionTimeDeadline(t *testing.T) {
	e := newEngine()
	work := func(ctx context.Context) (bool, error) {
		time.Sleep(2 * time.Millisecond)
		return false, nil
	}

	id, err := e.Spawn(task.Policy{
		ThreadID:         1,
		Mode:             task.Parallel,
		MaxExecutionTime: time.Millisecond,
	}, work)
	require.NoError(t, err)

	report, err := e.Join(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, task.CauseDeadline, report.Cause)
}

func TestEngine_TraceDepthCap(t *testing.T) {
	e := newEngine()
	natural := func(ctx context.Context) (bool, error) { return true, nil }
	loop := func(ctx context.Context) (bool, error) { return false, nil }

	parentID, err := e.Spawn(task.Policy{ThreadID: 1, Mode: task.Parallel}, natural)
	require.NoError(t, err)
	_, err = e.Join(context.Background(), parentID)
	require.NoError(t, err)

	// parentID registers at depth 0; Spawn computes the child's depth as
	// parent+1 regardless of the caller-supplied GenerationDepth, so a child
	// with MaxTraceDepth 0 registers at depth 1 > 0 and must exit trace-capped.
	childID, err := e.Spawn(task.Policy{
		ThreadID:      2,
		ParentID:      parentID,
		Mode:          task.Parallel,
		TraceCapped:   true,
		MaxTraceDepth: 0,
	}, loop)
	require.NoError(t, err)

	report, err := e.Join(context.Background(), childID)
	require.NoError(t, err)
	assert.Equal(t, task.CauseTraceCap, report.Cause)
}

func TestEngine_WorkerFaultOnError(t *testing.T) {
	e := newEngine()
	boom := errors.New("boom")
	work := func(ctx context.Context) (bool, error) { return false, boom }

	id, err := e.Spawn(task.Policy{ThreadID: 1, Mode: task.Parallel}, work)
	require.NoError(t, err)

	report, err := e.Join(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, task.CauseFault, report.Cause)
	assert.ErrorIs(t, report.Err, task.ErrWorkerFault)
}

func TestEngine_WorkerFaultOnPanic(t *testing.T) {
	e := newEngine()
	work := func(ctx context.Context) (bool, error) { panic("kaboom") }

	id, err := e.Spawn(task.Policy{ThreadID: 1, Mode: task.Parallel}, work)
	require.NoError(t, err)

	report, err := e.Join(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, task.CauseFault, report.Cause)
	assert.ErrorIs(t, report.Err, task.ErrWorkerFault)
}

func TestEngine_TokensReclaimedOnTermination(t *testing.T) {
	e := newEngine()
	release := make(chan struct{})
	work := func(ctx context.Context) (bool, error) {
		<-release
		return true, nil
	}

	id, err := e.Spawn(task.Policy{ThreadID: 1, Mode: task.Parallel}, work)
	require.NoError(t, err)

	tokID, err := e.AcquireToken(id, "res", token.AccessRead)
	require.NoError(t, err)

	close(release)
	_, err = e.Join(context.Background(), id)
	require.NoError(t, err)

	tok, err := e.Pool().Inspect(tokID)
	require.NoError(t, err)
	assert.Zero(t, tok.OwnerThreadID)
}

func TestEngine_AcquireTokenUnknownRequester(t *testing.T) {
	e := newEngine()
	_, err := e.AcquireToken(999, "res", token.AccessRead)
	assert.ErrorIs(t, err, token.ErrUnknownRequester)
}

func TestEngine_ReleaseToken(t *testing.T) {
	e := newEngine()
	work := func(ctx context.Context) (bool, error) { return false, nil }
	id, err := e.Spawn(task.Policy{ThreadID: 1, Mode: task.Parallel}, work)
	require.NoError(t, err)

	tokID, err := e.AcquireToken(id, "res", token.AccessRead)
	require.NoError(t, err)
	require.NoError(t, e.ReleaseToken(tokID))
	assert.ErrorIs(t, e.ReleaseToken(tokID), token.ErrNotOwned)

	require.NoError(t, e.RequestImmediate(id))
	_, _ = e.Join(context.Background(), id)
}
