package engine

import (
	"github.com/flyteorg/flytestdlib/promutils"

	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/core"
	engineConfig "github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/engine/config"
)

// FromConfig builds an engine from the registered config section.
func FromConfig(scope promutils.Scope) (*Engine, error) {
	cfg := engineConfig.GetEngineConfig()

	allocatees := make([]core.Allocatee, 0, len(cfg.Allocatees))
	for _, a := range cfg.Allocatees {
		allocatees = append(allocatees, core.Allocatee(a))
	}

	resources := make(map[core.ResourceType][]core.ResourceID, len(cfg.Resources))
	for t, ids := range cfg.Resources {
		typed := make([]core.ResourceID, 0, len(ids))
		for _, id := range ids {
			typed = append(typed, core.ResourceID(id))
		}

		resources[core.ResourceType(t)] = typed
	}

	gated := make([]core.ResourceType, 0, len(cfg.HealthGatedTypes))
	for _, t := range cfg.HealthGatedTypes {
		gated = append(gated, core.ResourceType(t))
	}

	return New(Options{
		Allocatees:       allocatees,
		Resources:        resources,
		HealthGatedTypes: gated,
		ReadinessGate:    cfg.ReadinessGate,
	}, scope)
}
