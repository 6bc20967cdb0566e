package alerts

import (
	"context"
	"sort"
	"sync"

	"github.com/kubecostopt/costopt-backend/internal/types"
)

// MemoryStore is an in-process Store used by tests and the demo seed.
type MemoryStore struct {
	mu     sync.RWMutex
	alerts []Alert
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Insert(ctx context.Context, alert Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *MemoryStore) FindUnresolved(ctx context.Context, clusterUUID string, alertType types.AlertType) (*Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.alerts {
		if m.alerts[i].ClusterUUID == clusterUUID && m.alerts[i].AlertType == alertType && !m.alerts[i].Resolved {
			alert := m.alerts[i]
			return &alert, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			alert := m.alerts[i]
			return &alert, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Update(ctx context.Context, alert Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == alert.ID {
			m.alerts[i] = alert
			return nil
		}
	}
	return types.NewNotFoundError("alert", alert.ID)
}

func (m *MemoryStore) List(ctx context.Context, filter Filter) ([]Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Alert
	for _, alert := range m.alerts {
		if filter.ClusterUUID != "" && alert.ClusterUUID != filter.ClusterUUID {
			continue
		}
		if filter.Resolved != nil && alert.Resolved != *filter.Resolved {
			continue
		}
		out = append(out, alert)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	return out, nil
}
