package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/errors"
)

// Validator is one link in the engine's pre-commit validation chain. Each
// validator checks a single concern against a read-only view of the ledger
// and reports every violation it finds, never just the first. The engine
// commits only after every validator in the chain passed.
//
// Validators must be pure: same view, same request, same verdict.
type Validator interface {
	// Code is the error code the engine attaches when this validator fails.
	Code() errors.ErrorCode

	// Validate returns the complete violation list for this concern, or an
	// empty list to pass. The request is normalized (deduplicated, sorted).
	Validate(ctx context.Context, allocatee Allocatee, req AllocationRequest, view LedgerView) []Violation
}

// ValidationError is the failure surfaced by the engine when a validator in
// the chain rejects a request. It carries the full structured violation set
// of the failing concern.
type ValidationError struct {
	ErrCode    errors.ErrorCode
	Violations []Violation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("allocation error, %v: %v", e.ErrCode, FormatViolations(e.Violations))
}

// ErrorCode implements errors.Coded so callers can route on the code without
// type-asserting the concrete error.
func (e *ValidationError) ErrorCode() errors.ErrorCode {
	return e.ErrCode
}

// NewValidationError builds a ValidationError for a failing validator.
func NewValidationError(code errors.ErrorCode, violations []Violation) *ValidationError {
	return &ValidationError{
		ErrCode:    code,
		Violations: violations,
	}
}

// FormatViolations renders every violation in one message, e.g.
// "stations/10 (owned by subarray-1); stations/11". Allocatee-level
// violations render the allocatee alone.
func FormatViolations(violations []Violation) string {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		switch {
		case v.Type == "" && v.ID == "":
			parts = append(parts, string(v.Owner))
		case v.Owner != "":
			parts = append(parts, fmt.Sprintf("%v/%v (owned by %v)", v.Type, v.ID, v.Owner))
		default:
			parts = append(parts, fmt.Sprintf("%v/%v", v.Type, v.ID))
		}
	}

	return strings.Join(parts, "; ")
}
