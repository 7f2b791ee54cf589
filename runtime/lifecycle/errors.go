package lifecycle

import "github.com/concordrt/concord/runtime/token"

// ErrUnknownTask means task_id is not present in the Registry. Re-exported
// from token so callers of the Lifecycle Engine can errors.Is against a
// single sentinel regardless of which component rejected the id.
var ErrUnknownTask = token.ErrUnknownTask

