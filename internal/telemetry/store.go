package telemetry

import (
	"context"
	"time"

	"github.com/kubecostopt/costopt-backend/internal/types"
)

// NodeInfo is the engine's read-only view of a cluster node.
type NodeInfo struct {
	UUID               string
	Name               string
	InstanceClass      string
	Zone               string
	CPUCores           float64
	MemoryBytes        int64
	HourlyCost         float64
	LastClassification types.Classification
}

func (n NodeInfo) MonthlyCost() float64 {
	return n.HourlyCost * HoursPerMonth
}

// HoursPerMonth matches the 24h x 30d convention used for monthly cost
// estimates throughout the engine.
const HoursPerMonth = 720

type ClusterInfo struct {
	UUID          string
	Name          string
	Provider      types.CloudProvider
	Region        string
	MonthlyBudget float64
	OverBudget    bool
	Nodes         []NodeInfo
}

// TotalMonthlyCost is derived from node costs at read time.
func (c ClusterInfo) TotalMonthlyCost() float64 {
	var total float64
	for _, n := range c.Nodes {
		total += n.MonthlyCost()
	}
	return total
}

// Sample is one utilization datapoint, ratios already clamped to [0, 1].
type Sample struct {
	NodeUUID    string
	Timestamp   time.Time
	CPURatio    float64
	MemoryRatio float64
}

// DailyCost is one day of aggregated billed cost for a cluster.
type DailyCost struct {
	Date time.Time
	Cost float64
}

// Store is the read surface of the telemetry feed the engine consumes.
// Implementations must return NotFoundError for unknown clusters and
// UpstreamUnavailableError for storage failures, never partial results.
type Store interface {
	GetCluster(ctx context.Context, clusterUUID string) (ClusterInfo, error)
	ListClusters(ctx context.Context) ([]ClusterInfo, error)
	// SamplesInWindow returns samples inside the closed window [from, to],
	// ordered by timestamp.
	SamplesInWindow(ctx context.Context, clusterUUID string, from, to time.Time) ([]Sample, error)
	// DailyCosts returns daily aggregated costs inside [from, to], ordered
	// by date.
	DailyCosts(ctx context.Context, clusterUUID string, from, to time.Time) ([]DailyCost, error)
}
