// Package pool provides a finite fungible-resource pool for "give me any
// free instance of type T" use cases. It deliberately stays separate from
// the allocation engine: pool callers pick an instance rather than specific
// instances, there is no per-allocatee ownership history, and no gating or
// multi-resource atomicity, so folding it into the engine would make every
// pool consumer pay for machinery it does not need.
package pool

import (
	"context"
	"sort"
	"sync"

	"github.com/flyteorg/flytestdlib/logger"

	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/core"
	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/errors"
)

type entry struct {
	resourceType core.ResourceType
	free         bool
}

// Pool tracks free/in-use state for a fixed set of resources. Identifiers
// must be unique across the whole pool, not just within their type, because
// LockResource and FreeResource address resources by identifier alone.
type Pool struct {
	mu        sync.Mutex
	resources map[core.ResourceID]*entry

	// byType holds each type's identifiers sorted, so GetFreeResource is
	// deterministic: the smallest free identifier wins.
	byType map[core.ResourceType][]core.ResourceID
}

// New builds a pool with every resource free. Returns an error if an
// identifier appears under two types.
func New(resources map[core.ResourceType][]core.ResourceID) (*Pool, error) {
	p := &Pool{
		resources: make(map[core.ResourceID]*entry),
		byType:    make(map[core.ResourceType][]core.ResourceID, len(resources)),
	}

	for t, ids := range resources {
		for _, id := range ids {
			if existing, ok := p.resources[id]; ok {
				return nil, errors.Errorf(errors.PoolUnknownResource,
					"identifier [%v] declared under both [%v] and [%v]; pool identifiers must be unique",
					id, existing.resourceType, t)
			}

			p.resources[id] = &entry{resourceType: t, free: true}
			p.byType[t] = append(p.byType[t], id)
		}

		sort.Slice(p.byType[t], func(i, j int) bool { return p.byType[t][i] < p.byType[t][j] })
	}

	return p, nil
}

// GetFreeResource returns the smallest currently-free identifier of the
// requested type and marks it in-use.
func (p *Pool) GetFreeResource(ctx context.Context, t core.ResourceType) (core.ResourceID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids, ok := p.byType[t]
	if !ok {
		return "", errors.Errorf(errors.UnknownResourceType, "resource type [%v] is not managed", t)
	}

	for _, id := range ids {
		if p.resources[id].free {
			p.resources[id].free = false
			logger.Debugf(ctx, "Handing out free resource [%v] of type [%v]", id, t)
			return id, nil
		}
	}

	return "", errors.Errorf(errors.NoFreeResource, "no free resource of type [%v]", t)
}

// LockResource marks a specific resource in-use.
func (p *Pool) LockResource(_ context.Context, id core.ResourceID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.resources[id]
	if !ok {
		return errors.Errorf(errors.PoolUnknownResource, "resource [%v] is not managed", id)
	}

	e.free = false
	return nil
}

// FreeResource marks a resource free again. Freeing an already-free
// resource is a no-op.
func (p *Pool) FreeResource(_ context.Context, id core.ResourceID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.resources[id]
	if !ok {
		return errors.Errorf(errors.PoolUnknownResource, "resource [%v] is not managed", id)
	}

	e.free = true
	return nil
}
