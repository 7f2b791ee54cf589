package token

import (
	"sync"

	"github.com/concordrt/concord/internal/clock"
)

// Capacity is the fixed number of slots in a Pool.
const Capacity = 64

// Pool is a fixed-capacity set of arbitration tokens. It performs no
// existence check on task ids passed to it: callers (the Lifecycle Engine,
// the root façade) look the task up in the Registry first, then call into the
// Pool — matching the runtime's Registry-before-Token-Pool locking
// discipline. The Registry lock is released before the Pool lock is taken. Acquisition is first-fit in
// index order; releases do not reorder.
type Pool struct {
	mu    sync.Mutex
	slots [Capacity]Token
	clock clock.Source
}

// NewPool creates an empty Pool. clockSource defaults to clock.System when
// nil.
func NewPool(clockSource clock.Source) *Pool {
	if clockSource == nil {
		clockSource = clock.System
	}
	p := &Pool{clock: clockSource}
	for i := range p.slots {
		p.slots[i].TokenID = ID(i + 1)
		p.slots[i].ValidationBits = validationAllocated
	}
	return p
}

// Acquire selects the lowest-indexed available token, records the new
// owner/mask/name/time, marks it locked and transferable, and returns its id.
func (p *Pool) Acquire(requester TaskID, resourceName string, accessMask byte) (ID, error) {
	if len(resourceName) > MaxResourceNameBytes {
		return 0, ErrInvalidName
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.slots {
		slot := &p.slots[i]
		if slot.OwnerThreadID != 0 {
			continue
		}
		slot.OwnerThreadID = requester
		slot.AccessMask = accessMask
		slot.ResourceName = resourceName
		slot.AcquisitionTime = p.clock.Now()
		slot.ValidationBits = validationAllocated | validationLocked
		slot.IsTransferable = true
		return slot.TokenID, nil
	}
	return 0, ErrPoolExhausted
}

// Release clears the token's owner, mask and name, restoring it to the
// available state.
func (p *Pool) Release(id ID) error {
	slot, err := p.slot(id)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if slot.OwnerThreadID == 0 {
		return ErrNotOwned
	}
	slot.OwnerThreadID = 0
	slot.AccessMask = 0
	slot.ResourceName = ""
	slot.IsTransferable = false
	slot.ValidationBits = validationAllocated
	return nil
}

// Transfer atomically moves ownership of id from from to to. The token must
// currently be owned by from and transferable.
func (p *Pool) Transfer(id ID, from, to TaskID) error {
	slot, err := p.slot(id)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if slot.OwnerThreadID != from {
		return ErrNotOwned
	}
	if !slot.IsTransferable {
		return ErrNotTransferable
	}
	slot.OwnerThreadID = to
	return nil
}

// TransferOwned moves every token owned by from with IsTransferable set to
// to, leaving non-transferable tokens with from. Used by the Context-Switch
// Governor on a successful switch; returns the ids that moved.
func (p *Pool) TransferOwned(from, to TaskID) []ID {
	p.mu.Lock()
	defer p.mu.Unlock()

	var moved []ID
	for i := range p.slots {
		slot := &p.slots[i]
		if slot.OwnerThreadID == from && slot.IsTransferable {
			slot.OwnerThreadID = to
			moved = append(moved, slot.TokenID)
		}
	}
	return moved
}

// ReclaimOwnedBy releases every token owned by taskID. Always succeeds;
// returns the number of tokens released.
func (p *Pool) ReclaimOwnedBy(taskID TaskID) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for i := range p.slots {
		slot := &p.slots[i]
		if slot.OwnerThreadID == taskID {
			slot.OwnerThreadID = 0
			slot.AccessMask = 0
			slot.ResourceName = ""
			slot.IsTransferable = false
			slot.ValidationBits = validationAllocated
			count++
		}
	}
	return count
}

// Pin clears IsTransferable on a token still owned by ownerID, pinning it to
// its owner so it cannot cross a future context switch.
func (p *Pool) Pin(id ID, ownerID TaskID) error {
	slot, err := p.slot(id)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if slot.OwnerThreadID != ownerID {
		return ErrNotOwned
	}
	slot.IsTransferable = false
	return nil
}

// Inspect returns a snapshot of token id's current state.
func (p *Pool) Inspect(id ID) (Token, error) {
	slot, err := p.slot(id)
	if err != nil {
		return Token{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return *slot, nil
}

func (p *Pool) slot(id ID) (*Token, error) {
	if id < 1 || int(id) > len(p.slots) {
		return nil, ErrUnknownToken
	}
	return &p.slots[id-1], nil
}
