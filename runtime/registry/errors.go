package registry

import "errors"

var (
	// ErrHierarchyDepthExceeded means generation_depth would exceed
	// MaxHierarchyDepth.
	ErrHierarchyDepthExceeded = errors.New("registry: hierarchy depth exceeded")
	// ErrChildLimitExceeded means the parent already has MaxChildrenPerProcess
	// direct children.
	ErrChildLimitExceeded = errors.New("registry: child limit exceeded")
	// ErrRegistryFull means MaxTasks entries are already registered.
	ErrRegistryFull = errors.New("registry: full")
	// ErrAlreadyRegistered means the task id is already present.
	ErrAlreadyRegistered = errors.New("registry: already registered")
	// ErrUnregisteredTermination means Unregister was called before the task
	// reached Terminated.
	ErrUnregisteredTermination = errors.New("registry: task has not terminated")
)
