package core

import (
	"sort"
)

// ResourceType partitions the resource identifier space. Identifiers are
// unique only within their type; the same literal id may exist under two
// types without collision.
type ResourceType string

// ResourceID names one unit of a resource type.
type ResourceID string

// Allocatee names an entity resources can be assigned to (a subarray, a
// station beam host, a compute node tenant). The set of valid allocatees is
// fixed when the engine is constructed.
type Allocatee string

// AllocationRequest maps each resource type to the identifiers requested for
// that type.
type AllocationRequest map[ResourceType][]ResourceID

// Normalized returns a copy of the request with each identifier list
// deduplicated and sorted. Validation over a normalized request is
// order-deterministic.
func (r AllocationRequest) Normalized() AllocationRequest {
	out := make(AllocationRequest, len(r))
	for t, ids := range r {
		seen := make(map[ResourceID]struct{}, len(ids))
		uniq := make([]ResourceID, 0, len(ids))
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}

			seen[id] = struct{}{}
			uniq = append(uniq, id)
		}

		sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })
		out[t] = uniq
	}

	return out
}

// Types returns the sorted resource types named by the request.
func (r AllocationRequest) Types() []ResourceType {
	types := make([]ResourceType, 0, len(r))
	for t := range r {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Violation is one structured validation failure. Owner is populated for
// ownership conflicts. Allocatee-level violations (e.g. readiness) carry
// empty Type and ID.
type Violation struct {
	Type  ResourceType
	ID    ResourceID
	Owner Allocatee
}

// LedgerView is the read-only view of ownership state handed to validators.
// Validators must never mutate ledger state; mutation is the engine's commit
// step only.
type LedgerView interface {
	// HasType indicates whether t is a managed resource type.
	HasType(t ResourceType) bool

	// HasResource indicates whether (t, id) is a managed resource.
	HasResource(t ResourceType, id ResourceID) bool

	// OwnerOf returns the current owner of (t, id). The second return is
	// false when the resource is unowned or unknown.
	OwnerOf(t ResourceType, id ResourceID) (Allocatee, bool)
}
