// Package ledger holds the per-type ownership table the allocation engine
// commits into. It is pure bookkeeping: no gating policy, no locking. The
// engine serializes access and decides when a mutation is legal.
package ledger

import (
	"sort"

	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/core"
)

const unowned = core.Allocatee("")

// Ledger is a fixed-shape ownership table. The resource universe is declared
// once at construction; after that, only ownership changes. An unknown
// (type, id) reference is an O(1) lookup miss, never a silent insert.
type Ledger struct {
	owners map[core.ResourceType]map[core.ResourceID]core.Allocatee
}

// New builds a ledger over the declared resource universe with every
// resource unowned.
func New(universe map[core.ResourceType][]core.ResourceID) *Ledger {
	owners := make(map[core.ResourceType]map[core.ResourceID]core.Allocatee, len(universe))
	for t, ids := range universe {
		perType := make(map[core.ResourceID]core.Allocatee, len(ids))
		for _, id := range ids {
			perType[id] = unowned
		}

		owners[t] = perType
	}

	return &Ledger{owners: owners}
}

func (l *Ledger) HasType(t core.ResourceType) bool {
	_, ok := l.owners[t]
	return ok
}

func (l *Ledger) HasResource(t core.ResourceType, id core.ResourceID) bool {
	perType, ok := l.owners[t]
	if !ok {
		return false
	}

	_, ok = perType[id]
	return ok
}

// OwnerOf returns the current owner of (t, id); the second return is false
// when the resource is unowned or not managed.
func (l *Ledger) OwnerOf(t core.ResourceType, id core.ResourceID) (core.Allocatee, bool) {
	owner, ok := l.owners[t][id]
	if !ok || owner == unowned {
		return "", false
	}

	return owner, true
}

// Assign sets the owner of a managed resource. Returns false if (t, id) is
// not managed; callers are expected to have validated first.
func (l *Ledger) Assign(t core.ResourceType, id core.ResourceID, owner core.Allocatee) bool {
	perType, ok := l.owners[t]
	if !ok {
		return false
	}

	if _, ok := perType[id]; !ok {
		return false
	}

	perType[id] = owner
	return true
}

// Release clears ownership of a managed resource. Releasing an already
// unowned resource is a no-op. Returns false if (t, id) is not managed.
func (l *Ledger) Release(t core.ResourceType, id core.ResourceID) bool {
	perType, ok := l.owners[t]
	if !ok {
		return false
	}

	if _, ok := perType[id]; !ok {
		return false
	}

	perType[id] = unowned
	return true
}

// ReleaseAllOwnedBy clears every resource owned by the allocatee, across all
// types, and returns what was released, sorted.
func (l *Ledger) ReleaseAllOwnedBy(owner core.Allocatee) map[core.ResourceType][]core.ResourceID {
	released := make(map[core.ResourceType][]core.ResourceID)
	for t, perType := range l.owners {
		for id, o := range perType {
			if o == owner {
				perType[id] = unowned
				released[t] = append(released[t], id)
			}
		}
	}

	for t := range released {
		sortIDs(released[t])
	}

	return released
}

// OwnedBy returns, per type, the sorted identifiers owned by the allocatee.
// Types with nothing owned are omitted so callers can test ownership of a
// type with a single membership check.
func (l *Ledger) OwnedBy(owner core.Allocatee) map[core.ResourceType][]core.ResourceID {
	out := make(map[core.ResourceType][]core.ResourceID)
	for t, perType := range l.owners {
		for id, o := range perType {
			if o == owner {
				out[t] = append(out[t], id)
			}
		}
	}

	for t := range out {
		sortIDs(out[t])
	}

	return out
}

// Unowned returns, per type, the sorted identifiers with no current owner.
// Exhausted types still appear with an empty list, so callers can tell "no
// free resources" apart from "unknown type".
func (l *Ledger) Unowned() map[core.ResourceType][]core.ResourceID {
	out := make(map[core.ResourceType][]core.ResourceID, len(l.owners))
	for t, perType := range l.owners {
		free := make([]core.ResourceID, 0, len(perType))
		for id, o := range perType {
			if o == unowned {
				free = append(free, id)
			}
		}

		sortIDs(free)
		out[t] = free
	}

	return out
}

// Types returns the sorted managed resource types.
func (l *Ledger) Types() []core.ResourceType {
	types := make([]core.ResourceType, 0, len(l.owners))
	for t := range l.owners {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func sortIDs(ids []core.ResourceID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
