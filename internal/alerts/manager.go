package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kubecostopt/costopt-backend/internal/logging"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

type Alert struct {
	ID          string          `json:"id"`
	ClusterUUID string          `json:"cluster_id"`
	AlertType   types.AlertType `json:"alert_type"`
	Severity    types.Severity  `json:"severity"`
	Description string          `json:"description"`
	DetectedAt  time.Time       `json:"detected_at"`
	Resolved    bool            `json:"resolved"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
}

type Filter struct {
	ClusterUUID string
	Resolved    *bool
}

// Store persists alerts. FindUnresolved returns nil when no active alert
// exists for the pair.
type Store interface {
	Insert(ctx context.Context, alert Alert) error
	FindUnresolved(ctx context.Context, clusterUUID string, alertType types.AlertType) (*Alert, error)
	Get(ctx context.Context, id string) (*Alert, error)
	Update(ctx context.Context, alert Alert) error
	List(ctx context.Context, filter Filter) ([]Alert, error)
}

// Publisher pushes raised-alert events to the notification feed.
type Publisher interface {
	PublishAlert(event types.AlertEvent) error
}

// Manager enforces the at-most-one-unresolved-alert-per-(cluster, type)
// invariant. Raises for the same key are serialized through a per-key
// lock so concurrent detector runs cannot slip a duplicate through.
type Manager struct {
	store     Store
	publisher Publisher

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store Store, publisher Publisher) *Manager {
	return &Manager{
		store:     store,
		publisher: publisher,
		locks:     map[string]*sync.Mutex{},
	}
}

func (m *Manager) keyLock(clusterUUID string, alertType types.AlertType) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := clusterUUID + "/" + string(alertType)
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

// Raise creates an alert unless an unresolved one for the same
// (cluster, type) pair already exists, in which case it is a no-op and
// returns nil. Detector re-runs are therefore idempotent.
func (m *Manager) Raise(ctx context.Context, clusterUUID string, alertType types.AlertType, severity types.Severity, description string, detectedAt time.Time) (*Alert, error) {
	lock := m.keyLock(clusterUUID, alertType)
	lock.Lock()
	defer lock.Unlock()

	existing, err := m.store.FindUnresolved(ctx, clusterUUID, alertType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	alert := Alert{
		ID:          uuid.NewString(),
		ClusterUUID: clusterUUID,
		AlertType:   alertType,
		Severity:    severity,
		Description: description,
		DetectedAt:  detectedAt,
	}
	if err := m.store.Insert(ctx, alert); err != nil {
		return nil, err
	}

	if m.publisher != nil {
		event := types.AlertEvent{
			AlertUUID:   alert.ID,
			ClusterUUID: alert.ClusterUUID,
			AlertType:   alert.AlertType,
			Severity:    alert.Severity,
			Description: alert.Description,
			DetectedAt:  alert.DetectedAt,
		}
		if err := m.publisher.PublishAlert(event); err != nil {
			logging.GetLogger().Errorf("unable to publish alert event for %s: %v", alert.ID, err)
		}
	}
	return &alert, nil
}

// Resolve transitions an unresolved alert to resolved, stamping
// resolved_at. Resolving an unknown id fails with NotFoundError and an
// already-resolved alert with InvalidStateError, so callers can tell
// "nothing to do" from "bad request". The transition is one-way.
func (m *Manager) Resolve(ctx context.Context, id string, at time.Time) (*Alert, error) {
	alert, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, types.NewNotFoundError("alert", id)
	}

	lock := m.keyLock(alert.ClusterUUID, alert.AlertType)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the key lock; a concurrent resolve may have won.
	alert, err = m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, types.NewNotFoundError("alert", id)
	}
	if alert.Resolved {
		return nil, types.NewInvalidStateError("resolve alert", "alert "+id+" is already resolved")
	}

	alert.Resolved = true
	alert.ResolvedAt = &at
	if err := m.store.Update(ctx, *alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// List returns alerts newest first, optionally filtered by cluster
// and/or resolved state.
func (m *Manager) List(ctx context.Context, filter Filter) ([]Alert, error) {
	return m.store.List(ctx, filter)
}
