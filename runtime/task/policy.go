package task

import "time"

// ID is an opaque task identifier. 0 is reserved to mean "no parent" (root).
type ID uint64

// Policy is immutable once registered, except ParentID and DaemonMode, which
// the Destruction Policy Engine may clear when a KeepAlive child is orphaned.
type Policy struct {
	ThreadID             ID
	ParentID             ID
	Mode                 Mode
	DestroyPolicy        DestroyPolicy
	KeepAlive            bool
	DaemonMode           bool
	TraceCapped          bool
	MaxTraceDepth        int
	MaxExecutionTime     time.Duration
	ReturnToMainRequired bool
	CreationTime         time.Time
	LastHeartbeat        time.Time
	GenerationDepth      int
}
