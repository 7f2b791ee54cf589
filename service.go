package concord

import "sync"

// Package-level singleton, mirroring the external interface's
// init_runtime/shutdown_runtime contract (no-argument, Ok/AlreadyInitialized
// semantics) for embedders that want exactly one runtime per process.
// Embedders who want more than one independent runtime should call New
// directly instead.
var (
	globalMu sync.Mutex
	global   *Runtime
)

// InitRuntime constructs the process-wide Runtime singleton. A second call
// before ShutdownRuntime returns ErrAlreadyInitialized and leaves the
// existing singleton untouched.
func InitRuntime(options ...Option) (*Runtime, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global != nil {
		return nil, ErrAlreadyInitialized
	}
	global = New(options...)
	return global, nil
}

// CurrentRuntime returns the process-wide Runtime singleton, or
// ErrNotInitialized if InitRuntime has not been called since the last
// ShutdownRuntime.
func CurrentRuntime() (*Runtime, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		return nil, ErrNotInitialized
	}
	return global, nil
}

// ShutdownRuntime stops the process-wide Runtime singleton's Simulated-mode
// scheduler loop (see Runtime.ShutdownRuntime), then clears the singleton so
// a later InitRuntime may construct a fresh one. It neither waits for running
// tasks to finish nor unregisters them.
func ShutdownRuntime() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		return ErrNotInitialized
	}
	global.ShutdownRuntime()
	global = nil
	return nil
}
