package core

import (
	"context"

	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/errors"
)

type Operation string

const (
	OpAllocate       Operation = "Allocate"
	OpDeallocate     Operation = "Deallocate"
	OpDeallocateFrom Operation = "DeallocateFrom"
)

// Outcome describes one completed engine operation, granted or rejected.
type Outcome struct {
	Operation Operation
	Allocatee Allocatee
	Request   AllocationRequest

	// Code is empty when the operation succeeded.
	Code       errors.ErrorCode
	Violations []Violation
}

// Granted indicates whether the operation committed.
func (o Outcome) Granted() bool {
	return o.Code == ""
}

// Recorder observes engine outcomes for diagnostics. The engine never reads
// back what a recorder retains; implementations must not call back into the
// engine.
type Recorder interface {
	Record(ctx context.Context, outcome Outcome)
}
