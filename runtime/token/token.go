// Package token implements the bounded arbitration pool: fixed-capacity
// tokens with ownership, an advisory access mask, and a transferability bit
// consulted by the context-switch governor. The pool is an injected
// collaborator rather than a process singleton, so callers can run multiple
// isolated runtimes in one process.
package token

import "time"

// MaxResourceNameBytes bounds resource_name (≤63 bytes + terminator).
const MaxResourceNameBytes = 63

// AccessMask bit positions. Higher bits are reserved.
const (
	AccessRead  byte = 1 << 0
	AccessWrite byte = 1 << 1
)

// ValidationBits bit positions.
const (
	validationAllocated byte = 1 << 0
	validationLocked    byte = 1 << 1
)

// ID is a 1-based token identifier within a Pool.
type ID uint32

// TaskID identifies the owning task. 0 means unowned.
type TaskID uint64

// Token is one slot in the pool. Fields are only ever mutated by the Pool
// that owns the slot; callers observe a snapshot via Pool.Inspect.
type Token struct {
	TokenID         ID
	OwnerThreadID   TaskID
	AccessMask      byte
	ResourceName    string
	AcquisitionTime time.Time
	ValidationBits  byte
	IsTransferable  bool
}

// Allocated reports whether the token is backed by a live slot (always true
// for every slot in a Pool; retained for parity with the source format's
// explicit validation bit).
func (t Token) Allocated() bool { return t.ValidationBits&validationAllocated != 0 }

// Locked reports whether the token is currently owned.
func (t Token) Locked() bool { return t.ValidationBits&validationLocked != 0 }
