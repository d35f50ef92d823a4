package engine

import (
	"github.com/flyteorg/flytestdlib/contextutils"
	"github.com/flyteorg/flytestdlib/promutils"
	"github.com/flyteorg/flytestdlib/promutils/labeled"
)

func init() {
	labeled.SetMetricKeys(contextutils.NamespaceKey)
}

type Metrics struct {
	Scope              promutils.Scope
	AllocationGranted  labeled.Counter
	AllocationRejected labeled.Counter
	ResourcesAssigned  labeled.Counter
	ResourcesReleased  labeled.Counter
}

func newMetrics(scope promutils.Scope) Metrics {
	return Metrics{
		Scope: scope,
		AllocationGranted: labeled.NewCounter("allocation_granted",
			"Allocation request validated and committed", scope),
		AllocationRejected: labeled.NewCounter("allocation_rejected",
			"Allocation request rejected by a validator", scope),
		ResourcesAssigned: labeled.NewCounter("resources_assigned",
			"Individual resources assigned to an allocatee", scope),
		ResourcesReleased: labeled.NewCounter("resources_released",
			"Individual resources released back to the free set", scope),
	}
}
