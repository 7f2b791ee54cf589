package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_AcquireFirstFit(t *testing.T) {
	p := NewPool(nil)

	id1, err := p.Acquire(1, "res-a", AccessRead)
	require.NoError(t, err)
	assert.EqualValues(t, 1, id1)

	id2, err := p.Acquire(2, "res-b", AccessWrite)
	require.NoError(t, err)
	assert.EqualValues(t, 2, id2)

	require.NoError(t, p.Release(id1))

	id3, err := p.Acquire(3, "res-c", AccessRead|AccessWrite)
	require.NoError(t, err)
	assert.EqualValues(t, id1, id3, "released slot should be reused first-fit")
}

func TestPool_AcquireExhaustion(t *testing.T) {
	p := NewPool(nil)
	for i := 0; i < Capacity; i++ {
		_, err := p.Acquire(TaskID(i+1), "res", AccessRead)
		require.NoError(t, err)
	}
	_, err := p.Acquire(999, "res", AccessRead)
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestPool_AcquireInvalidName(t *testing.T) {
	p := NewPool(nil)
	_, err := p.Acquire(1, strings.Repeat("x", MaxResourceNameBytes+1), AccessRead)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestPool_ReleaseUnowned(t *testing.T) {
	p := NewPool(nil)
	id, err := p.Acquire(1, "res", AccessRead)
	require.NoError(t, err)
	require.NoError(t, p.Release(id))
	assert.ErrorIs(t, p.Release(id), ErrNotOwned)
}

func TestPool_ReleaseUnknownToken(t *testing.T) {
	p := NewPool(nil)
	assert.ErrorIs(t, p.Release(ID(Capacity+1)), ErrUnknownToken)
}

func TestPool_Transfer(t *testing.T) {
	p := NewPool(nil)
	id, err := p.Acquire(1, "res", AccessRead)
	require.NoError(t, err)

	require.NoError(t, p.Transfer(id, 1, 2))

	tok, err := p.Inspect(id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, tok.OwnerThreadID)
}

func TestPool_TransferNotOwned(t *testing.T) {
	p := NewPool(nil)
	id, err := p.Acquire(1, "res", AccessRead)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Transfer(id, 2, 3), ErrNotOwned)
}

func TestPool_TransferNotTransferable(t *testing.T) {
	p := NewPool(nil)
	id, err := p.Acquire(1, "res", AccessRead)
	require.NoError(t, err)
	require.NoError(t, p.Pin(id, 1))
	assert.ErrorIs(t, p.Transfer(id, 1, 2), ErrNotTransferable)
}

func TestPool_TransferOwned(t *testing.T) {
	p := NewPool(nil)
	transferableID, err := p.Acquire(1, "res-a", AccessRead)
	require.NoError(t, err)
	pinnedID, err := p.Acquire(1, "res-b", AccessRead)
	require.NoError(t, err)
	require.NoError(t, p.Pin(pinnedID, 1))

	moved := p.TransferOwned(1, 2)
	assert.ElementsMatch(t, []ID{transferableID}, moved)

	pinned, err := p.Inspect(pinnedID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pinned.OwnerThreadID, "non-transferable token stays with original owner")
}

func TestPool_ReclaimOwnedBy(t *testing.T) {
	p := NewPool(nil)
	_, _ = p.Acquire(1, "res-a", AccessRead)
	_, _ = p.Acquire(1, "res-b", AccessWrite)
	_, _ = p.Acquire(2, "res-c", AccessRead)

	count := p.ReclaimOwnedBy(1)
	assert.Equal(t, 2, count)
	assert.Zero(t, p.ReclaimOwnedBy(1))

	tok, err := p.Inspect(3)
	require.NoError(t, err)
	assert.EqualValues(t, 2, tok.OwnerThreadID, "unrelated owner is untouched")
}

func TestPool_AcquireReleaseRoundTrip(t *testing.T) {
	p := NewPool(nil)
	id, err := p.Acquire(1, "res", AccessRead)
	require.NoError(t, err)
	require.NoError(t, p.Release(id))

	tok, err := p.Inspect(id)
	require.NoError(t, err)
	assert.Zero(t, tok.OwnerThreadID)
	assert.Zero(t, tok.AccessMask)
	assert.Empty(t, tok.ResourceName)
	assert.False(t, tok.IsTransferable)
	assert.True(t, tok.Allocated())
	assert.False(t, tok.Locked())
}
