package governor

import "errors"

var (
	// ErrDenied means one of from/to does not exist, or either is Terminated.
	ErrDenied = errors.New("governor: denied")
	// ErrNotSameHierarchy means the hierarchy predicate failed.
	ErrNotSameHierarchy = errors.New("governor: not same hierarchy")
)
