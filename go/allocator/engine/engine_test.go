package engine

import (
	"context"
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"

	"github.com/flyteorg/flytestdlib/promutils"

	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/core"
	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/errors"
)

// newTestEngine builds the reference configuration: two subarrays,
// health-gated stations, readiness-gated allocatees.
func newTestEngine(t *testing.T) *Engine {
	e, err := New(Options{
		Allocatees: []core.Allocatee{"1", "2"},
		Resources: map[core.ResourceType][]core.ResourceID{
			"stations":       {"10", "11"},
			"channel_blocks": {"1", "2", "3"},
		},
		HealthGatedTypes: []core.ResourceType{"stations"},
		ReadinessGate:    true,
	}, promutils.NewTestScope())
	assert.NoError(t, err)
	return e
}

// newPlainEngine builds an engine with no gates at all.
func newPlainEngine(t *testing.T) *Engine {
	e, err := New(Options{
		Allocatees: []core.Allocatee{"1", "2"},
		Resources: map[core.ResourceType][]core.ResourceID{
			"stations": {"10", "11"},
		},
	}, promutils.NewTestScope())
	assert.NoError(t, err)
	return e
}

func assertCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	assert.Error(t, err)
	got, found := errors.GetErrorCode(err)
	assert.True(t, found)
	assert.Equal(t, code, got)
}

func TestNew_RejectsBadUniverse(t *testing.T) {
	scope := promutils.NewTestScope()

	tests := []struct {
		name string
		opts Options
		code errors.ErrorCode
	}{
		{
			"NoAllocatees",
			Options{Resources: map[core.ResourceType][]core.ResourceID{"stations": {"10"}}},
			errors.UnknownAllocatee,
		},
		{
			"EmptyAllocateeName",
			Options{Allocatees: []core.Allocatee{""}},
			errors.UnknownAllocatee,
		},
		{
			"EmptyTypeName",
			Options{
				Allocatees: []core.Allocatee{"1"},
				Resources:  map[core.ResourceType][]core.ResourceID{"": {"10"}},
			},
			errors.UnknownResourceType,
		},
		{
			"EmptyResourceID",
			Options{
				Allocatees: []core.Allocatee{"1"},
				Resources:  map[core.ResourceType][]core.ResourceID{"stations": {""}},
			},
			errors.UnknownResource,
		},
		{
			"GatedTypeNotManaged",
			Options{
				Allocatees:       []core.Allocatee{"1"},
				Resources:        map[core.ResourceType][]core.ResourceID{"stations": {"10"}},
				HealthGatedTypes: []core.ResourceType{"beams"},
			},
			errors.UnknownResourceType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts, scope)
			assertCode(t, err, tt.code)
		})
	}
}

func TestAllocate_UnknownAllocatee(t *testing.T) {
	ctx := context.Background()
	e := newPlainEngine(t)

	err := e.Allocate(ctx, "9", core.AllocationRequest{"stations": {"10"}})
	assertCode(t, err, errors.UnknownAllocatee)
}

func TestAllocate_UnknownResourceType(t *testing.T) {
	ctx := context.Background()
	e := newPlainEngine(t)

	err := e.Allocate(ctx, "1", core.AllocationRequest{"beams": {"1"}})
	assertCode(t, err, errors.UnknownResourceType)
}

func TestAllocate_UnknownResource_NamesEveryOffender(t *testing.T) {
	ctx := context.Background()
	e := newPlainEngine(t)

	err := e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10", "98", "99"}})
	assertCode(t, err, errors.UnknownResource)

	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, []core.Violation{
		{Type: "stations", ID: "98"},
		{Type: "stations", ID: "99"},
	}, vErr.Violations)
}

func TestAllocate_IdempotentReallocation(t *testing.T) {
	ctx := context.Background()
	e := newPlainEngine(t)

	assert.NoError(t, e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10"}}))
	assert.NoError(t, e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10"}}))

	got, err := e.GetAllocated(ctx, "1")
	assert.NoError(t, err)
	assert.Equal(t, map[core.ResourceType][]core.ResourceID{"stations": {"10"}}, got)
}

func TestAllocate_ConflictRejection(t *testing.T) {
	ctx := context.Background()
	e := newPlainEngine(t)

	assert.NoError(t, e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10"}}))

	err := e.Allocate(ctx, "2", core.AllocationRequest{"stations": {"10"}})
	assertCode(t, err, errors.ResourceConflict)

	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, []core.Violation{{Type: "stations", ID: "10", Owner: "1"}}, vErr.Violations)

	// Ownership stays with the original allocatee.
	got, err := e.GetAllocated(ctx, "1")
	assert.NoError(t, err)
	assert.Equal(t, map[core.ResourceType][]core.ResourceID{"stations": {"10"}}, got)
}

func TestAllocate_NoDoubleOwnership(t *testing.T) {
	ctx := context.Background()
	e := newPlainEngine(t)

	assert.NoError(t, e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10"}}))
	_ = e.Allocate(ctx, "2", core.AllocationRequest{"stations": {"10", "11"}})
	assert.NoError(t, e.Allocate(ctx, "2", core.AllocationRequest{"stations": {"11"}}))

	one, err := e.GetAllocated(ctx, "1")
	assert.NoError(t, err)
	two, err := e.GetAllocated(ctx, "2")
	assert.NoError(t, err)

	seen := map[core.ResourceID]struct{}{}
	for _, ids := range one {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	for _, ids := range two {
		for _, id := range ids {
			_, dup := seen[id]
			assert.False(t, dup, "resource %v owned by two allocatees", id)
		}
	}
}

func TestAllocate_AllOrNothingCommit(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	assert.NoError(t, e.SetReady(ctx, "1", true))
	assert.NoError(t, e.SetReady(ctx, "2", true))
	assert.NoError(t, e.SetHealth(ctx, "stations", "10", true))
	assert.NoError(t, e.SetHealth(ctx, "stations", "11", true))
	assert.NoError(t, e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10"}}))

	beforeOne, err := e.GetAllocated(ctx, "1")
	assert.NoError(t, err)
	beforeTwo, err := e.GetAllocated(ctx, "2")
	assert.NoError(t, err)
	beforeFree := e.GetUnallocated(ctx)

	// 11 is free and healthy, 10 conflicts; the request must change nothing.
	err = e.Allocate(ctx, "2", core.AllocationRequest{"stations": {"10", "11"}, "channel_blocks": {"1"}})
	assertCode(t, err, errors.ResourceConflict)

	afterOne, err := e.GetAllocated(ctx, "1")
	assert.NoError(t, err)
	afterTwo, err := e.GetAllocated(ctx, "2")
	assert.NoError(t, err)
	afterFree := e.GetUnallocated(ctx)

	assert.Nil(t, deep.Equal(beforeOne, afterOne))
	assert.Nil(t, deep.Equal(beforeTwo, afterTwo))
	assert.Nil(t, deep.Equal(beforeFree, afterFree))
}

func TestAllocate_FailClosedDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadinessNeverSet", func(t *testing.T) {
		e := newTestEngine(t)
		assert.NoError(t, e.SetHealth(ctx, "stations", "10", true))

		err := e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10"}})
		assertCode(t, err, errors.AllocateeNotReady)
	})

	t.Run("HealthNeverSet", func(t *testing.T) {
		e := newTestEngine(t)
		assert.NoError(t, e.SetReady(ctx, "1", true))

		err := e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10"}})
		assertCode(t, err, errors.UnhealthyResource)
	})
}

func TestAllocate_HealthOnlyGatesNewAcquisition(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	assert.NoError(t, e.SetReady(ctx, "1", true))
	assert.NoError(t, e.SetHealth(ctx, "stations", "10", true))
	assert.NoError(t, e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10"}}))

	// The resource going unhealthy after acquisition must not defeat an
	// idempotent re-allocation.
	assert.NoError(t, e.SetHealth(ctx, "stations", "10", false))
	assert.NoError(t, e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10"}}))
}

func TestAllocate_UngatedTypeIgnoresHealth(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	assert.NoError(t, e.SetReady(ctx, "1", true))

	// channel_blocks is not health-gated; no health report is needed.
	assert.NoError(t, e.Allocate(ctx, "1", core.AllocationRequest{"channel_blocks": {"1", "2"}}))
}

func TestDeallocate(t *testing.T) {
	ctx := context.Background()
	e := newPlainEngine(t)

	assert.NoError(t, e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10"}}))

	// Release is never gated; any owner's resources can be cleared.
	assert.NoError(t, e.Deallocate(ctx, core.AllocationRequest{"stations": {"10"}}))
	got, err := e.GetAllocated(ctx, "1")
	assert.NoError(t, err)
	assert.Empty(t, got)

	// Idempotent: releasing an already-unowned resource is a no-op.
	assert.NoError(t, e.Deallocate(ctx, core.AllocationRequest{"stations": {"10"}}))

	assertCode(t, e.Deallocate(ctx, core.AllocationRequest{"beams": {"1"}}), errors.UnknownResourceType)
	assertCode(t, e.Deallocate(ctx, core.AllocationRequest{"stations": {"99"}}), errors.UnknownResource)
}

func TestDeallocateFrom(t *testing.T) {
	ctx := context.Background()
	e := newPlainEngine(t)

	assert.NoError(t, e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10", "11"}}))
	assert.NoError(t, e.DeallocateFrom(ctx, "1"))

	got, err := e.GetAllocated(ctx, "1")
	assert.NoError(t, err)
	assert.Empty(t, got)

	assert.Equal(t, []core.ResourceID{"10", "11"}, e.GetUnallocated(ctx)["stations"])

	// Tearing down an allocatee that owns nothing is fine.
	assert.NoError(t, e.DeallocateFrom(ctx, "1"))

	assertCode(t, e.DeallocateFrom(ctx, "9"), errors.UnknownAllocatee)
}

func TestGetAllocated_UnknownAllocatee(t *testing.T) {
	ctx := context.Background()
	e := newPlainEngine(t)

	_, err := e.GetAllocated(ctx, "9")
	assertCode(t, err, errors.UnknownAllocatee)
}

func TestGetUnallocated_KeepsExhaustedTypes(t *testing.T) {
	ctx := context.Background()
	e := newPlainEngine(t)

	assert.NoError(t, e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10", "11"}}))

	free := e.GetUnallocated(ctx)
	ids, present := free["stations"]
	assert.True(t, present)
	assert.Empty(t, ids)
}

func TestSetHealth_NotGatedType(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	assertCode(t, e.SetHealth(ctx, "channel_blocks", "1", true), errors.ResourceTypeNotHealthGated)
	assertCode(t, e.SetHealth(ctx, "stations", "99", true), errors.UnknownResource)

	// An engine with no health-gated types refuses every SetHealth call.
	plain := newPlainEngine(t)
	assertCode(t, plain.SetHealth(ctx, "stations", "10", true), errors.ResourceTypeNotHealthGated)
}

func TestSetReady_UnknownAllocatee(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	assertCode(t, e.SetReady(ctx, "9", true), errors.UnknownAllocatee)
}

// TestScenario walks the reference sequence end to end: ready subarray 1,
// healthy station 10, allocate, conflict for subarray 2, unhealthy station
// 11, then tear subarray 1 down.
func TestScenario(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	assert.NoError(t, e.SetReady(ctx, "1", true))
	assert.NoError(t, e.SetHealth(ctx, "stations", "10", true))

	assert.NoError(t, e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10"}}))
	got, err := e.GetAllocated(ctx, "1")
	assert.NoError(t, err)
	assert.Equal(t, map[core.ResourceType][]core.ResourceID{"stations": {"10"}}, got)

	err = e.Allocate(ctx, "2", core.AllocationRequest{"stations": {"10"}})
	assertCode(t, err, errors.ResourceConflict)
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, []core.Violation{{Type: "stations", ID: "10", Owner: "1"}}, vErr.Violations)

	err = e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"11"}})
	assertCode(t, err, errors.UnhealthyResource)
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, []core.Violation{{Type: "stations", ID: "11"}}, vErr.Violations)

	assert.NoError(t, e.DeallocateFrom(ctx, "1"))
	got, err = e.GetAllocated(ctx, "1")
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.Contains(t, e.GetUnallocated(ctx)["stations"], core.ResourceID("10"))
}

func TestValidationIsDeterministic(t *testing.T) {
	ctx := context.Background()
	e := newPlainEngine(t)

	assert.NoError(t, e.Allocate(ctx, "1", core.AllocationRequest{"stations": {"10", "11"}}))

	// Same ledger, same request, same violation set every time.
	var first *core.ValidationError
	for i := 0; i < 20; i++ {
		err := e.Allocate(ctx, "2", core.AllocationRequest{"stations": {"11", "10"}})
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
		if first == nil {
			first = vErr
			continue
		}

		assert.Equal(t, first.Violations, vErr.Violations)
	}
}
