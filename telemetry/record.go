// Package telemetry implements the runtime's observable side-effect stream:
// one structured Record per lifecycle transition, token acquire or release,
// orphaning, and context-switch decision. Tokens moved by a context switch,
// tokens reclaimed at termination, and pinned tokens get no Record of their
// own; KindTokenTransferred and KindTokenReclaimed are defined but the
// runtime does not emit them. Transport is
// pluggable; the default is an in-memory queue, with an optional file-backed
// sink for embedders that want a persisted record stream.
package telemetry

import "time"

// Kind identifies the category of a telemetry Record.
type Kind string

const (
	KindTaskRegistered    Kind = "task.registered"
	KindTaskStarted       Kind = "task.started"
	KindTaskYielded       Kind = "task.yielded"
	KindTaskResumed       Kind = "task.resumed"
	KindTaskTerminating   Kind = "task.terminating"
	KindTaskTerminated    Kind = "task.terminated"
	KindTaskOrphaned      Kind = "task.orphaned"
	KindTokenAcquired     Kind = "token.acquired"
	KindTokenReleased     Kind = "token.released"
	KindTokenTransferred  Kind = "token.transferred"
	KindTokenReclaimed    Kind = "token.reclaimed"
	KindContextSwitchOK   Kind = "switch.ok"
	KindContextSwitchDeny Kind = "switch.denied"
)

// Outcome is the result recorded against a Record.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// Record is one observable governance event. Timestamp is taken from the
// runtime's injected clock, never from wall-clock time outside of it.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	Kind        Kind      `json:"kind"`
	TaskID      uint64    `json:"taskId,omitempty"`
	SecondaryID uint64    `json:"secondaryId,omitempty"`
	Outcome     Outcome   `json:"outcome"`
	Detail      string    `json:"detail,omitempty"`
}
