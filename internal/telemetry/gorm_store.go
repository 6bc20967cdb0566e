package telemetry

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kubecostopt/costopt-backend/internal/model"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

// GormStore reads telemetry from the postgres tables populated by the
// ingestor. It also carries the small amount of detector state (node
// classification, budget latch) the anomaly scans need between runs.
type GormStore struct{}

func NewGormStore() *GormStore {
	return &GormStore{}
}

func clusterInfoFromModel(cluster model.Cluster) ClusterInfo {
	info := ClusterInfo{
		UUID:          cluster.ClusterUUID,
		Name:          cluster.Name,
		Provider:      cluster.Provider,
		Region:        cluster.Region,
		MonthlyBudget: cluster.MonthlyBudget,
		OverBudget:    cluster.OverBudget,
	}
	for _, node := range cluster.Nodes {
		info.Nodes = append(info.Nodes, NodeInfo{
			UUID:               node.NodeUUID,
			Name:               node.Name,
			InstanceClass:      node.InstanceClass,
			Zone:               node.Zone,
			CPUCores:           node.CPUCores,
			MemoryBytes:        node.MemoryBytes,
			HourlyCost:         node.HourlyCost,
			LastClassification: node.LastClassification,
		})
	}
	return info
}

func (s *GormStore) GetCluster(ctx context.Context, clusterUUID string) (ClusterInfo, error) {
	cluster, err := model.GetClusterByUUID(clusterUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ClusterInfo{}, types.NewNotFoundError("cluster", clusterUUID)
	}
	if err != nil {
		return ClusterInfo{}, types.NewUpstreamUnavailableError("telemetry store", err)
	}
	return clusterInfoFromModel(cluster), nil
}

func (s *GormStore) ListClusters(ctx context.Context) ([]ClusterInfo, error) {
	clusters, err := model.GetAllClusters()
	if err != nil {
		return nil, types.NewUpstreamUnavailableError("telemetry store", err)
	}
	infos := make([]ClusterInfo, 0, len(clusters))
	for _, cluster := range clusters {
		infos = append(infos, clusterInfoFromModel(cluster))
	}
	return infos, nil
}

func (s *GormStore) SamplesInWindow(ctx context.Context, clusterUUID string, from, to time.Time) ([]Sample, error) {
	cluster, err := model.GetClusterByUUID(clusterUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewNotFoundError("cluster", clusterUUID)
	}
	if err != nil {
		return nil, types.NewUpstreamUnavailableError("telemetry store", err)
	}

	nodeUUIDs := make(map[uint]string, len(cluster.Nodes))
	for _, node := range cluster.Nodes {
		nodeUUIDs[node.ID] = node.NodeUUID
	}

	records, err := model.GetSamplesInWindow(cluster.ID, from, to)
	if err != nil {
		return nil, types.NewUpstreamUnavailableError("telemetry store", err)
	}
	samples := make([]Sample, 0, len(records))
	for _, record := range records {
		samples = append(samples, Sample{
			NodeUUID:    nodeUUIDs[record.NodeID],
			Timestamp:   record.Timestamp,
			CPURatio:    record.CPURatio,
			MemoryRatio: record.MemoryRatio,
		})
	}
	return samples, nil
}

func (s *GormStore) DailyCosts(ctx context.Context, clusterUUID string, from, to time.Time) ([]DailyCost, error) {
	cluster, err := model.GetClusterByUUID(clusterUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewNotFoundError("cluster", clusterUUID)
	}
	if err != nil {
		return nil, types.NewUpstreamUnavailableError("telemetry store", err)
	}

	entries, err := model.GetDailyCosts(cluster.ID, from, to)
	if err != nil {
		return nil, types.NewUpstreamUnavailableError("telemetry store", err)
	}
	costs := make([]DailyCost, 0, len(entries))
	for _, entry := range entries {
		costs = append(costs, DailyCost{Date: entry.Date, Cost: entry.Cost})
	}
	return costs, nil
}

func (s *GormStore) RecordNodeClassification(ctx context.Context, nodeUUID string, c types.Classification) error {
	if err := model.UpdateNodeClassification(nodeUUID, c); err != nil {
		return types.NewUpstreamUnavailableError("telemetry store", err)
	}
	return nil
}

func (s *GormStore) SetOverBudget(ctx context.Context, clusterUUID string, over bool) error {
	cluster, err := model.GetClusterByUUID(clusterUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NewNotFoundError("cluster", clusterUUID)
	}
	if err != nil {
		return types.NewUpstreamUnavailableError("telemetry store", err)
	}
	if err := cluster.SetOverBudget(over); err != nil {
		return types.NewUpstreamUnavailableError("telemetry store", err)
	}
	return nil
}
