package gates

import (
	"context"

	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/core"
	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/errors"
)

// Readiness gates allocation on a per-allocatee readiness flag. Flags are
// fail-closed: an allocatee whose readiness was never reported cannot
// receive resources.
type Readiness struct {
	flags map[core.Allocatee]bool
}

// NewReadiness builds the readiness gate over the fixed allocatee universe.
func NewReadiness(allocatees []core.Allocatee) *Readiness {
	flags := make(map[core.Allocatee]bool, len(allocatees))
	for _, a := range allocatees {
		flags[a] = false
	}

	return &Readiness{flags: flags}
}

// Set records whether the allocatee may receive resources.
func (r *Readiness) Set(allocatee core.Allocatee, ready bool) error {
	if _, ok := r.flags[allocatee]; !ok {
		return errors.Errorf(errors.UnknownAllocatee,
			"allocatee [%v] is not managed", allocatee)
	}

	r.flags[allocatee] = ready
	return nil
}

// IsReady reports the current flag; unknown allocatees are not ready.
func (r *Readiness) IsReady(allocatee core.Allocatee) bool {
	return r.flags[allocatee]
}

func (r *Readiness) Code() errors.ErrorCode {
	return errors.AllocateeNotReady
}

// Validate returns a single allocatee-level violation when the requester is
// not marked ready. The requested resources are irrelevant to this gate.
func (r *Readiness) Validate(_ context.Context, allocatee core.Allocatee, _ core.AllocationRequest, _ core.LedgerView) []core.Violation {
	if r.flags[allocatee] {
		return nil
	}

	return []core.Violation{{Owner: allocatee}}
}
