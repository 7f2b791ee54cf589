package task

import "errors"

var (
	// ErrWorkerFault is surfaced on join when work_fn aborted or panicked.
	ErrWorkerFault = errors.New("task: worker fault")
)
