package concord

import "errors"

// ErrAlreadyInitialized is returned by InitRuntime when the package-level
// singleton runtime has already been initialized.
var ErrAlreadyInitialized = errors.New("concord: runtime already initialized")

// ErrNotInitialized is returned by the package-level singleton accessors
// when InitRuntime has not run yet.
var ErrNotInitialized = errors.New("concord: runtime not initialized")
