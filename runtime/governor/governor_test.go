package governor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concordrt/concord/runtime/lifecycle"
	"github.com/concordrt/concord/runtime/registry"
	"github.com/concordrt/concord/runtime/task"
	"github.com/concordrt/concord/runtime/token"
)

func newFixture() (*registry.Registry, *lifecycle.Engine, *token.Pool, *Engine) {
	reg := registry.New()
	pool := token.NewPool(nil)
	lc := lifecycle.New(reg, pool)
	g := New(reg, pool)
	return reg, lc, pool, g
}

func spawnRunning(t *testing.T, lc *lifecycle.Engine, id, parent task.ID, release <-chan struct{}) task.ID {
	t.Helper()
	got, err := lc.Spawn(task.Policy{ThreadID: id, ParentID: parent, Mode: task.Parallel}, func(ctx context.Context) (bool, error) {
		<-release
		return true, nil
	})
	require.NoError(t, err)
	return got
}

func TestContextSwitch_TransfersTransferableToken(t *testing.T) {
	reg, lc, _, g := newFixture()
	release := make(chan struct{})
	defer close(release)

	parent, err := lc.Spawn(task.Policy{ThreadID: 100, Mode: task.Parallel}, func(ctx context.Context) (bool, error) { <-release; return true, nil })
	require.NoError(t, err)
	c1 := spawnRunning(t, lc, 101, parent, release)
	c2 := spawnRunning(t, lc, 102, parent, release)

	tokID, err := lc.AcquireToken(c1, "res", token.AccessRead)
	require.NoError(t, err)

	require.NoError(t, g.ContextSwitch(c1, c2))

	tok, err := lc.Pool().Inspect(tokID)
	require.NoError(t, err)
	assert.EqualValues(t, c2, tok.OwnerThreadID)

	fromRec := reg.Lookup(c1)
	toRec := reg.Lookup(c2)
	assert.EqualValues(t, 1, fromRec.ContextSwitches())
	assert.EqualValues(t, 1, toRec.ContextSwitches())
}

func TestContextSwitch_DeniedAcrossHierarchies(t *testing.T) {
	_, lc, pool, g := newFixture()
	release := make(chan struct{})
	defer close(release)

	p1, err := lc.Spawn(task.Policy{ThreadID: 200, Mode: task.Parallel}, func(ctx context.Context) (bool, error) { <-release; return true, nil })
	require.NoError(t, err)
	p2, err := lc.Spawn(task.Policy{ThreadID: 201, Mode: task.Parallel}, func(ctx context.Context) (bool, error) { <-release; return true, nil })
	require.NoError(t, err)
	c1 := spawnRunning(t, lc, 202, p1, release)
	c4 := spawnRunning(t, lc, 203, p2, release)

	tokID, err := lc.AcquireToken(c1, "res", token.AccessRead)
	require.NoError(t, err)

	err = g.ContextSwitch(c1, c4)
	assert.ErrorIs(t, err, ErrNotSameHierarchy)

	tok, err := pool.Inspect(tokID)
	require.NoError(t, err)
	assert.EqualValues(t, c1, tok.OwnerThreadID, "no token should move on denial")
}

func TestContextSwitch_DeniedWhenTerminated(t *testing.T) {
	_, lc, _, g := newFixture()
	done, err := lc.Spawn(task.Policy{ThreadID: 300, Mode: task.Parallel}, func(ctx context.Context) (bool, error) { return true, nil })
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = lc.Join(ctx, done)
	require.NoError(t, err)

	other, err := lc.Spawn(task.Policy{ThreadID: 301, Mode: task.Parallel}, func(ctx context.Context) (bool, error) { <-ctx.Done(); return false, nil })
	require.NoError(t, err)
	defer lc.RequestImmediate(other)

	assert.ErrorIs(t, g.ContextSwitch(done, other), ErrDenied)
}

func TestContextSwitch_SiblingsUnderSameParent(t *testing.T) {
	_, lc, _, g := newFixture()
	release := make(chan struct{})
	defer close(release)

	parent, err := lc.Spawn(task.Policy{ThreadID: 400, Mode: task.Parallel}, func(ctx context.Context) (bool, error) { <-release; return true, nil })
	require.NoError(t, err)
	a := spawnRunning(t, lc, 401, parent, release)
	b := spawnRunning(t, lc, 402, parent, release)

	assert.NoError(t, g.ContextSwitch(a, b))
}

func TestContextSwitch_ParentChild(t *testing.T) {
	_, lc, _, g := newFixture()
	release := make(chan struct{})
	defer close(release)

	parent, err := lc.Spawn(task.Policy{ThreadID: 500, Mode: task.Parallel}, func(ctx context.Context) (bool, error) { <-release; return true, nil })
	require.NoError(t, err)
	child := spawnRunning(t, lc, 501, parent, release)

	assert.NoError(t, g.ContextSwitch(parent, child))
	assert.NoError(t, g.ContextSwitch(child, parent))
}
