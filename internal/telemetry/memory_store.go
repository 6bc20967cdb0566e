package telemetry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kubecostopt/costopt-backend/internal/types"
)

// MemoryStore is an in-process Store used by tests and the demo seed.
type MemoryStore struct {
	mu         sync.RWMutex
	clusters   map[string]ClusterInfo
	order      []string
	samples    map[string][]Sample
	dailyCosts map[string][]DailyCost
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clusters:   map[string]ClusterInfo{},
		samples:    map[string][]Sample{},
		dailyCosts: map[string][]DailyCost{},
	}
}

func (m *MemoryStore) AddCluster(cluster ClusterInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clusters[cluster.UUID]; !ok {
		m.order = append(m.order, cluster.UUID)
	}
	m.clusters[cluster.UUID] = cluster
}

func (m *MemoryStore) AddSample(clusterUUID string, sample Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[clusterUUID] = append(m.samples[clusterUUID], sample)
}

func (m *MemoryStore) AddDailyCost(clusterUUID string, cost DailyCost) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyCosts[clusterUUID] = append(m.dailyCosts[clusterUUID], cost)
}

func (m *MemoryStore) GetCluster(ctx context.Context, clusterUUID string) (ClusterInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cluster, ok := m.clusters[clusterUUID]
	if !ok {
		return ClusterInfo{}, types.NewNotFoundError("cluster", clusterUUID)
	}
	return cluster, nil
}

func (m *MemoryStore) ListClusters(ctx context.Context) ([]ClusterInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	clusters := make([]ClusterInfo, 0, len(m.order))
	for _, uuid := range m.order {
		clusters = append(clusters, m.clusters[uuid])
	}
	return clusters, nil
}

func (m *MemoryStore) SamplesInWindow(ctx context.Context, clusterUUID string, from, to time.Time) ([]Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.clusters[clusterUUID]; !ok {
		return nil, types.NewNotFoundError("cluster", clusterUUID)
	}
	var window []Sample
	for _, sample := range m.samples[clusterUUID] {
		if !sample.Timestamp.Before(from) && !sample.Timestamp.After(to) {
			window = append(window, sample)
		}
	}
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Timestamp.Before(window[j].Timestamp)
	})
	return window, nil
}

func (m *MemoryStore) DailyCosts(ctx context.Context, clusterUUID string, from, to time.Time) ([]DailyCost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.clusters[clusterUUID]; !ok {
		return nil, types.NewNotFoundError("cluster", clusterUUID)
	}
	var window []DailyCost
	for _, cost := range m.dailyCosts[clusterUUID] {
		if !cost.Date.Before(from) && !cost.Date.After(to) {
			window = append(window, cost)
		}
	}
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Date.Before(window[j].Date)
	})
	return window, nil
}

func (m *MemoryStore) RecordNodeClassification(ctx context.Context, nodeUUID string, c types.Classification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for uuid, cluster := range m.clusters {
		for i := range cluster.Nodes {
			if cluster.Nodes[i].UUID == nodeUUID {
				cluster.Nodes[i].LastClassification = c
				m.clusters[uuid] = cluster
				return nil
			}
		}
	}
	return types.NewNotFoundError("node", nodeUUID)
}

func (m *MemoryStore) SetOverBudget(ctx context.Context, clusterUUID string, over bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cluster, ok := m.clusters[clusterUUID]
	if !ok {
		return types.NewNotFoundError("cluster", clusterUUID)
	}
	cluster.OverBudget = over
	m.clusters[clusterUUID] = cluster
	return nil
}
