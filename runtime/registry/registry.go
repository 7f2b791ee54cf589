// Package registry implements the process-wide mapping from task id to
// task record, and the genealogy lookups (children-of) the Destruction
// Policy Engine and Context-Switch Governor depend on. Locking follows the
// same single-writer discipline as the teacher's Process type: a RWMutex
// guards the map and the secondary parent->children index, never individual
// Record fields — those carry their own lock.
package registry

import (
	"sort"
	"sync"

	"github.com/concordrt/concord/runtime/task"
)

// MaxTasks is the Registry's fixed capacity.
const MaxTasks = 256

// MaxHierarchyDepth bounds generation_depth.
const MaxHierarchyDepth = 8

// MaxChildrenPerProcess bounds the number of direct children a parent may
// have simultaneously.
const MaxChildrenPerProcess = 32

// Registry is a concurrency-safe task_id -> *task.Record map with a
// parent_id -> children secondary index. A task id leaves the Registry only
// via Unregister; Orphan additionally drops an id from its old parent's
// children index while keeping the task registered.
type Registry struct {
	mu       sync.RWMutex
	byID     map[task.ID]*task.Record
	children map[task.ID][]task.ID
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byID:     make(map[task.ID]*task.Record),
		children: make(map[task.ID][]task.ID),
	}
}

// Register adds record to the Registry, enforcing the hierarchy-depth and
// child-count invariants. Depth is validated against record.Policy, which
// the caller must have already computed as parent.depth+1.
func (r *Registry) Register(record *task.Record) error {
	if record == nil {
		return nil
	}
	id := record.ID()
	parentID := record.Policy.ParentID

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; exists {
		return ErrAlreadyRegistered
	}
	if len(r.byID) >= MaxTasks {
		return ErrRegistryFull
	}
	if record.Policy.GenerationDepth > MaxHierarchyDepth {
		return ErrHierarchyDepthExceeded
	}
	if parentID != 0 && len(r.children[parentID]) >= MaxChildrenPerProcess {
		return ErrChildLimitExceeded
	}

	r.byID[id] = record
	if parentID != 0 {
		r.children[parentID] = append(r.children[parentID], id)
	}
	return nil
}

// Lookup returns the stable *task.Record for id, or nil if absent.
func (r *Registry) Lookup(id task.ID) *task.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// ChildrenOf returns the direct, still-live children of parentID in
// ascending task-id order, the ordering the Destruction Policy Engine relies
// on for deterministic telemetry. A child that has reached Terminated is
// excluded: with AutoCascade off, nothing unregisters a terminated child
// promptly, and children_of must still read as empty once every child has
// actually stopped, not just once a termination request was sent.
func (r *Registry) ChildrenOf(parentID task.ID) []*task.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := append([]task.ID(nil), r.children[parentID]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*task.Record, 0, len(ids))
	for _, id := range ids {
		rec, ok := r.byID[id]
		if !ok || rec.State() == task.Terminated {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// ChildCount reports how many direct children parentID currently has.
func (r *Registry) ChildCount(parentID task.ID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.children[parentID])
}

// Orphan clears id's parent link (delegating the record mutation to
// task.Record.Orphan) and removes id from its old parent's children index,
// so a KeepAlive-orphaned task stops showing up under ChildrenOf(oldParent)
// even though it is still alive and registered under its own id.
func (r *Registry) Orphan(id task.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return
	}
	oldParent := rec.ParentID()
	rec.Orphan()

	siblings := r.children[oldParent]
	for i, sib := range siblings {
		if sib == id {
			r.children[oldParent] = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
}

// Unregister removes id's entry. Callers must only invoke this after the
// task has reached Terminated and its tokens have been reclaimed.
func (r *Registry) Unregister(id task.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil
	}
	if rec.State() != task.Terminated {
		return ErrUnregisteredTermination
	}

	delete(r.byID, id)
	parentID := rec.ParentID()
	siblings := r.children[parentID]
	for i, sib := range siblings {
		if sib == id {
			r.children[parentID] = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	delete(r.children, id)
	return nil
}

// TerminatedIDs returns the ids of every registered task currently in the
// Terminated state, in ascending order. Used by the Runtime façade's Reap
// convenience to find entries safe to Unregister.
func (r *Registry) TerminatedIDs() []task.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []task.ID
	for id, rec := range r.byID {
		if rec.State() == task.Terminated {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
