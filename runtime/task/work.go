package task

import "context"

// WorkFunc performs one work cycle and reports whether the task is done.
// Unlike the source runtime's void*-erased callback, a WorkFunc is a typed
// Go closure: any state it needs is captured at creation time rather than
// handed across the boundary as an opaque pointer, so the engine never casts
// or dereferences caller state.
type WorkFunc func(ctx context.Context) (done bool, err error)
