package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorCode string

const (
	// The allocatee is not in the universe the engine was constructed with.
	UnknownAllocatee ErrorCode = "UnknownAllocatee"

	// A requested resource type is not managed by the engine.
	UnknownResourceType ErrorCode = "UnknownResourceType"

	// A requested identifier is not a managed resource of its type.
	UnknownResource ErrorCode = "UnknownResource"

	// A requested resource is currently owned by a different allocatee.
	ResourceConflict ErrorCode = "ResourceConflict"

	// A requested, currently-unowned resource of a health-gated type is
	// marked unhealthy (or its health was never set).
	UnhealthyResource ErrorCode = "UnhealthyResource"

	// The allocatee is not marked ready (or its readiness was never set).
	AllocateeNotReady ErrorCode = "AllocateeNotReady"

	// SetHealth was called for a resource type that is not health-gated.
	ResourceTypeNotHealthGated ErrorCode = "ResourceTypeNotHealthGated"

	// The pool has no free resource of the requested type.
	NoFreeResource ErrorCode = "NoFreeResource"

	// The pool does not manage the named identifier.
	PoolUnknownResource ErrorCode = "PoolUnknownResource"
)

// AllocError is the error type every package in this module surfaces. It
// pairs a stable code with a human-readable message that enumerates every
// violation found, so operators can fix all problems in one round-trip.
type AllocError struct {
	Code    ErrorCode
	Message string
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("allocation error, %v: %v", e.Code, e.Message)
}

type AllocErrorWithCause struct {
	*AllocError
	cause error
}

func (e *AllocErrorWithCause) Error() string {
	return fmt.Sprintf("%v, caused by: %v", e.AllocError.Error(), e.cause)
}

func (e *AllocErrorWithCause) Cause() error {
	return e.cause
}

func (e *AllocErrorWithCause) Unwrap() error {
	return e.cause
}

func Errorf(code ErrorCode, msgFmt string, args ...interface{}) *AllocError {
	return &AllocError{
		Code:    code,
		Message: fmt.Sprintf(msgFmt, args...),
	}
}

func Wrapf(code ErrorCode, err error, msgFmt string, args ...interface{}) *AllocErrorWithCause {
	return &AllocErrorWithCause{
		AllocError: Errorf(code, msgFmt, args...),
		cause:      errors.WithStack(err),
	}
}

// Coded is implemented by error types elsewhere in the module that carry a
// structured payload alongside their code.
type Coded interface {
	error
	ErrorCode() ErrorCode
}

// GetErrorCode extracts the code from any error produced by this module.
func GetErrorCode(err error) (code ErrorCode, found bool) {
	if err == nil {
		return "", false
	}

	var coded Coded
	if errors.As(err, &coded) {
		return coded.ErrorCode(), true
	}

	var withCause *AllocErrorWithCause
	if errors.As(err, &withCause) {
		return withCause.Code, true
	}

	var base *AllocError
	if errors.As(err, &base) {
		return base.Code, true
	}

	return "", false
}

// IsCode indicates whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	c, found := GetErrorCode(err)
	return found && c == code
}
