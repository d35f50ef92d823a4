// Package gates provides the constraint validators the engine composes in
// front of its commit step. Each gate owns its own flag store and checks one
// concern; the engine runs them as an ordered chain, so adding a future gate
// (e.g. a capacity gate) touches neither of these.
package gates

import (
	"context"

	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/core"
	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/errors"
)

// Health gates first acquisition of resources on a per-resource health flag.
// Flags are fail-closed: a resource whose health was never reported is
// unhealthy. Health is only consulted for resources being newly acquired;
// a resource the requester already owns is never re-checked here, so an
// allocation cannot be defeated by a resource going unhealthy after the
// fact (that is a monitoring concern, not an allocation-time concern).
type Health struct {
	flags map[core.ResourceType]map[core.ResourceID]bool
}

// NewHealth builds the health gate over the given subset of the resource
// universe. Only the listed types are health-gated.
func NewHealth(gated map[core.ResourceType][]core.ResourceID) *Health {
	flags := make(map[core.ResourceType]map[core.ResourceID]bool, len(gated))
	for t, ids := range gated {
		perType := make(map[core.ResourceID]bool, len(ids))
		for _, id := range ids {
			perType[id] = false
		}

		flags[t] = perType
	}

	return &Health{flags: flags}
}

// Set records the health classification of a resource. Calling it for a type
// that is not health-gated is an explicit error, not a silent no-op.
func (h *Health) Set(t core.ResourceType, id core.ResourceID, healthy bool) error {
	perType, ok := h.flags[t]
	if !ok {
		return errors.Errorf(errors.ResourceTypeNotHealthGated,
			"resource type [%v] is not health-gated", t)
	}

	if _, ok := perType[id]; !ok {
		return errors.Errorf(errors.UnknownResource,
			"resource [%v/%v] is not managed", t, id)
	}

	perType[id] = healthy
	return nil
}

// IsHealthy reports the current flag; unknown resources are unhealthy.
func (h *Health) IsHealthy(t core.ResourceType, id core.ResourceID) bool {
	return h.flags[t][id]
}

func (h *Health) Code() errors.ErrorCode {
	return errors.UnhealthyResource
}

// Validate flags every requested resource of a gated type that is currently
// unowned and not marked healthy. Resources already owned (by anyone) are
// skipped: ownership by another allocatee is the conflict gate's concern,
// ownership by the requester makes the request an idempotent re-allocation.
func (h *Health) Validate(_ context.Context, _ core.Allocatee, req core.AllocationRequest, view core.LedgerView) []core.Violation {
	var violations []core.Violation
	for _, t := range req.Types() {
		perType, gated := h.flags[t]
		if !gated {
			continue
		}

		for _, id := range req[t] {
			if _, owned := view.OwnerOf(t, id); owned {
				continue
			}

			if !perType[id] {
				violations = append(violations, core.Violation{Type: t, ID: id})
			}
		}
	}

	return violations
}
