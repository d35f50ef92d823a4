package engine

import (
	"context"

	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/core"
	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/errors"
)

// knownTypeValidator rejects requests naming resource types the engine does
// not manage. It runs first so later validators can assume every type is
// known.
type knownTypeValidator struct{}

func (knownTypeValidator) Code() errors.ErrorCode {
	return errors.UnknownResourceType
}

func (knownTypeValidator) Validate(_ context.Context, _ core.Allocatee, req core.AllocationRequest, view core.LedgerView) []core.Violation {
	var violations []core.Violation
	for _, t := range req.Types() {
		if !view.HasType(t) {
			violations = append(violations, core.Violation{Type: t})
		}
	}

	return violations
}

// knownResourceValidator rejects requests naming identifiers that are not
// managed resources of their type, reporting every offender at once.
type knownResourceValidator struct{}

func (knownResourceValidator) Code() errors.ErrorCode {
	return errors.UnknownResource
}

func (knownResourceValidator) Validate(_ context.Context, _ core.Allocatee, req core.AllocationRequest, view core.LedgerView) []core.Violation {
	var violations []core.Violation
	for _, t := range req.Types() {
		if !view.HasType(t) {
			continue
		}

		for _, id := range req[t] {
			if !view.HasResource(t, id) {
				violations = append(violations, core.Violation{Type: t, ID: id})
			}
		}
	}

	return violations
}

// conflictValidator rejects requests naming resources currently owned by a
// different allocatee. A resource already owned by the requester is not a
// conflict; re-requesting one's own resources is the basis of idempotent
// re-allocation.
type conflictValidator struct{}

func (conflictValidator) Code() errors.ErrorCode {
	return errors.ResourceConflict
}

func (conflictValidator) Validate(_ context.Context, allocatee core.Allocatee, req core.AllocationRequest, view core.LedgerView) []core.Violation {
	var violations []core.Violation
	for _, t := range req.Types() {
		for _, id := range req[t] {
			owner, owned := view.OwnerOf(t, id)
			if owned && owner != allocatee {
				violations = append(violations, core.Violation{Type: t, ID: id, Owner: owner})
			}
		}
	}

	return violations
}
