// Package engine implements the constraint-based resource allocation engine.
// It decides which resources are owned by which allocatee and enforces that
// an allocation only commits when every requested resource is
// free-or-already-owned-by-the-requester and every configured gate passes.
// Validation never mutates state; the commit runs only once the whole
// request is valid, so a failed call leaves every ownership record
// untouched.
//
// The engine performs no I/O and never blocks. Callers are responsible for
// serializing allocate/deallocate calls against one engine instance; the
// internal lock only guarantees that concurrent readers never observe a
// partial commit.
package engine

import (
	"context"
	"sync"

	"github.com/flyteorg/flytestdlib/logger"
	"github.com/flyteorg/flytestdlib/promutils"

	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/core"
	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/errors"
	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/gates"
	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/ledger"
)

// Options declares the fixed universe the engine manages. Resources and
// allocatees cannot be added or removed after construction; adding physical
// capacity is a deployment-time concern.
type Options struct {
	// Allocatees is the fixed set of entities resources can be assigned to.
	Allocatees []core.Allocatee

	// Resources declares, per type, the identifiers the engine manages.
	Resources map[core.ResourceType][]core.ResourceID

	// HealthGatedTypes lists the resource types whose first acquisition
	// requires a healthy flag. Every entry must be a key of Resources.
	HealthGatedTypes []core.ResourceType

	// ReadinessGate requires allocatees to be marked ready before they can
	// receive resources.
	ReadinessGate bool

	// Recorder, when set, observes every allocate/deallocate outcome.
	Recorder core.Recorder
}

type Engine struct {
	mu         sync.RWMutex
	ledger     *ledger.Ledger
	allocatees map[core.Allocatee]struct{}
	chain      []core.Validator
	health     *gates.Health
	readiness  *gates.Readiness
	recorder   core.Recorder
	metrics    Metrics
}

// New builds an engine over the declared universe. The validation chain is
// fixed at construction: known-type, known-resource, conflict, then the
// configured gates in order.
func New(opts Options, scope promutils.Scope) (*Engine, error) {
	if len(opts.Allocatees) == 0 {
		return nil, errors.Errorf(errors.UnknownAllocatee, "at least one allocatee must be declared")
	}

	allocatees := make(map[core.Allocatee]struct{}, len(opts.Allocatees))
	for _, a := range opts.Allocatees {
		if a == "" {
			return nil, errors.Errorf(errors.UnknownAllocatee, "allocatee names must be non-empty")
		}

		allocatees[a] = struct{}{}
	}

	for t, ids := range opts.Resources {
		if t == "" {
			return nil, errors.Errorf(errors.UnknownResourceType, "resource type names must be non-empty")
		}

		for _, id := range ids {
			if id == "" {
				return nil, errors.Errorf(errors.UnknownResource,
					"resource identifiers must be non-empty, got one for type [%v]", t)
			}
		}
	}

	gated := make(map[core.ResourceType][]core.ResourceID, len(opts.HealthGatedTypes))
	for _, t := range opts.HealthGatedTypes {
		ids, ok := opts.Resources[t]
		if !ok {
			return nil, errors.Errorf(errors.UnknownResourceType,
				"health-gated type [%v] is not a managed resource type", t)
		}

		gated[t] = ids
	}

	e := &Engine{
		ledger:     ledger.New(opts.Resources),
		allocatees: allocatees,
		health:     gates.NewHealth(gated),
		readiness:  gates.NewReadiness(opts.Allocatees),
		recorder:   opts.Recorder,
		metrics:    newMetrics(scope),
	}

	e.chain = []core.Validator{knownTypeValidator{}, knownResourceValidator{}, conflictValidator{}}
	if len(gated) > 0 {
		e.chain = append(e.chain, e.health)
	}

	if opts.ReadinessGate {
		e.chain = append(e.chain, e.readiness)
	}

	return e, nil
}

// Allocate assigns every resource in req to the allocatee, or changes
// nothing. The whole request is validated against the unmodified ledger
// before any ownership record is touched; on failure the returned error
// names every violation of the failing kind, not just the first.
func (e *Engine) Allocate(ctx context.Context, allocatee core.Allocatee, req core.AllocationRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.allocatees[allocatee]; !ok {
		return errors.Errorf(errors.UnknownAllocatee, "allocatee [%v] is not managed", allocatee)
	}

	norm := req.Normalized()
	for _, v := range e.chain {
		violations := v.Validate(ctx, allocatee, norm, e.ledger)
		if len(violations) > 0 {
			err := core.NewValidationError(v.Code(), violations)
			logger.Warnf(ctx, "Rejecting allocation to [%v]: %v", allocatee, err)
			e.metrics.AllocationRejected.Inc(ctx)
			e.record(ctx, core.Outcome{
				Operation:  core.OpAllocate,
				Allocatee:  allocatee,
				Request:    norm,
				Code:       v.Code(),
				Violations: violations,
			})
			return err
		}
	}

	assigned := 0
	for _, t := range norm.Types() {
		for _, id := range norm[t] {
			e.ledger.Assign(t, id, allocatee)
			assigned++
		}
	}

	logger.Debugf(ctx, "Allocated %d resource(s) to [%v]", assigned, allocatee)
	e.metrics.AllocationGranted.Inc(ctx)
	e.metrics.ResourcesAssigned.Add(ctx, float64(assigned))
	e.record(ctx, core.Outcome{Operation: core.OpAllocate, Allocatee: allocatee, Request: norm})
	return nil
}

// Deallocate unconditionally clears ownership of every named resource,
// regardless of current owner. Releasing an already-unowned resource is a
// no-op; release is never gated on conflicts, health, or readiness.
func (e *Engine) Deallocate(ctx context.Context, req core.AllocationRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	norm := req.Normalized()
	for _, v := range []core.Validator{knownTypeValidator{}, knownResourceValidator{}} {
		violations := v.Validate(ctx, "", norm, e.ledger)
		if len(violations) > 0 {
			err := core.NewValidationError(v.Code(), violations)
			logger.Warnf(ctx, "Rejecting deallocation: %v", err)
			e.record(ctx, core.Outcome{
				Operation:  core.OpDeallocate,
				Request:    norm,
				Code:       v.Code(),
				Violations: violations,
			})
			return err
		}
	}

	released := 0
	for _, t := range norm.Types() {
		for _, id := range norm[t] {
			if _, owned := e.ledger.OwnerOf(t, id); owned {
				released++
			}

			e.ledger.Release(t, id)
		}
	}

	logger.Debugf(ctx, "Released %d resource(s)", released)
	e.metrics.ResourcesReleased.Add(ctx, float64(released))
	e.record(ctx, core.Outcome{Operation: core.OpDeallocate, Request: norm})
	return nil
}

// DeallocateFrom releases every resource currently owned by the allocatee,
// across all types. Callers tearing an allocatee down never need to know
// what it owned.
func (e *Engine) DeallocateFrom(ctx context.Context, allocatee core.Allocatee) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.allocatees[allocatee]; !ok {
		return errors.Errorf(errors.UnknownAllocatee, "allocatee [%v] is not managed", allocatee)
	}

	released := e.ledger.ReleaseAllOwnedBy(allocatee)
	count := 0
	for _, ids := range released {
		count += len(ids)
	}

	logger.Debugf(ctx, "Released %d resource(s) owned by [%v]", count, allocatee)
	e.metrics.ResourcesReleased.Add(ctx, float64(count))
	e.record(ctx, core.Outcome{
		Operation: core.OpDeallocateFrom,
		Allocatee: allocatee,
		Request:   core.AllocationRequest(released),
	})
	return nil
}

// GetAllocated returns, per type, the sorted identifiers currently owned by
// the allocatee. Types with nothing owned are omitted.
func (e *Engine) GetAllocated(_ context.Context, allocatee core.Allocatee) (map[core.ResourceType][]core.ResourceID, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.allocatees[allocatee]; !ok {
		return nil, errors.Errorf(errors.UnknownAllocatee, "allocatee [%v] is not managed", allocatee)
	}

	return e.ledger.OwnedBy(allocatee), nil
}

// GetUnallocated returns, per type, the sorted identifiers with no current
// owner. Exhausted types appear with an empty list.
func (e *Engine) GetUnallocated(_ context.Context) map[core.ResourceType][]core.ResourceID {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.ledger.Unowned()
}

// SetHealth records the health classification of a resource of a
// health-gated type. Unset flags are unhealthy.
func (e *Engine) SetHealth(ctx context.Context, t core.ResourceType, id core.ResourceID, healthy bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.health.Set(t, id, healthy); err != nil {
		return err
	}

	logger.Debugf(ctx, "Resource [%v/%v] marked healthy=%v", t, id, healthy)
	return nil
}

// SetReady records whether the allocatee may receive resources. Unset flags
// are not-ready.
func (e *Engine) SetReady(ctx context.Context, allocatee core.Allocatee, ready bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.readiness.Set(allocatee, ready); err != nil {
		return err
	}

	logger.Debugf(ctx, "Allocatee [%v] marked ready=%v", allocatee, ready)
	return nil
}

func (e *Engine) record(ctx context.Context, outcome core.Outcome) {
	if e.recorder != nil {
		e.recorder.Record(ctx, outcome)
	}
}
