package token

import "errors"

var (
	// ErrPoolExhausted means the token pool has no free slot.
	ErrPoolExhausted = errors.New("token: pool exhausted")
	// ErrUnknownToken means token_id is out of range.
	ErrUnknownToken = errors.New("token: unknown token")
	// ErrNotOwned means the token operation requires ownership the caller
	// does not hold (release of an available token, transfer by a non-owner).
	ErrNotOwned = errors.New("token: not owned")
	// ErrNotTransferable means the token is pinned to its owner.
	ErrNotTransferable = errors.New("token: not transferable")
	// ErrUnknownTask means a task id referenced by a token operation (join,
	// request_graceful/immediate, transfer target) is not present in the
	// Registry. The Pool never checks this itself; callers validate against
	// the Registry first, per the Registry-before-Token-Pool locking order.
	ErrUnknownTask = errors.New("token: unknown task")
	// ErrUnknownRequester means acquire's requester id is not present in the
	// Registry, or is not in state New/Running.
	ErrUnknownRequester = errors.New("token: unknown requester")
	// ErrInvalidName means resource_name exceeded MaxResourceNameBytes.
	ErrInvalidName = errors.New("token: invalid resource name")
)
