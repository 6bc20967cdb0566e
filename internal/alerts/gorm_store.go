package alerts

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kubecostopt/costopt-backend/internal/model"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

// GormStore persists alerts in postgres. The partial unique index on
// (cluster_id, alert_type) where unresolved backstops the manager's
// per-key lock across processes.
type GormStore struct{}

func NewGormStore() *GormStore {
	return &GormStore{}
}

func (s *GormStore) clusterID(clusterUUID string) (uint, error) {
	cluster, err := model.GetClusterByUUID(clusterUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, types.NewNotFoundError("cluster", clusterUUID)
	}
	if err != nil {
		return 0, types.NewUpstreamUnavailableError("alert store", err)
	}
	return cluster.ID, nil
}

func alertFromModel(record model.Alert) Alert {
	alert := Alert{
		ID:          record.AlertUUID,
		ClusterUUID: record.Cluster.ClusterUUID,
		AlertType:   record.AlertType,
		Severity:    record.Severity,
		Description: record.Description,
		DetectedAt:  record.DetectedAt,
		Resolved:    record.Resolved,
	}
	if record.ResolvedAt != nil {
		at := *record.ResolvedAt
		alert.ResolvedAt = &at
	}
	return alert
}

func (s *GormStore) Insert(ctx context.Context, alert Alert) error {
	clusterID, err := s.clusterID(alert.ClusterUUID)
	if err != nil {
		return err
	}
	record := model.Alert{
		AlertUUID:   alert.ID,
		ClusterID:   clusterID,
		AlertType:   alert.AlertType,
		Severity:    alert.Severity,
		Description: alert.Description,
		DetectedAt:  alert.DetectedAt,
		Resolved:    alert.Resolved,
		ResolvedAt:  alert.ResolvedAt,
	}
	if err := record.CreateAlert(); err != nil {
		return types.NewUpstreamUnavailableError("alert store", err)
	}
	return nil
}

func (s *GormStore) FindUnresolved(ctx context.Context, clusterUUID string, alertType types.AlertType) (*Alert, error) {
	clusterID, err := s.clusterID(clusterUUID)
	if err != nil {
		return nil, err
	}
	record, err := model.GetUnresolvedAlert(clusterID, alertType)
	if err != nil {
		return nil, types.NewUpstreamUnavailableError("alert store", err)
	}
	if record == nil {
		return nil, nil
	}
	record.Cluster.ClusterUUID = clusterUUID
	alert := alertFromModel(*record)
	return &alert, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*Alert, error) {
	record, err := model.GetAlertByUUID(id)
	if err != nil {
		return nil, types.NewUpstreamUnavailableError("alert store", err)
	}
	if record == nil {
		return nil, nil
	}
	alert := alertFromModel(*record)
	return &alert, nil
}

func (s *GormStore) Update(ctx context.Context, alert Alert) error {
	record, err := model.GetAlertByUUID(alert.ID)
	if err != nil {
		return types.NewUpstreamUnavailableError("alert store", err)
	}
	if record == nil {
		return types.NewNotFoundError("alert", alert.ID)
	}
	if alert.Resolved && !record.Resolved {
		at := time.Now().UTC()
		if alert.ResolvedAt != nil {
			at = *alert.ResolvedAt
		}
		if err := record.MarkResolved(at); err != nil {
			return types.NewUpstreamUnavailableError("alert store", err)
		}
	}
	return nil
}

func (s *GormStore) List(ctx context.Context, filter Filter) ([]Alert, error) {
	var clusterID *uint
	if filter.ClusterUUID != "" {
		id, err := s.clusterID(filter.ClusterUUID)
		if err != nil {
			return nil, err
		}
		clusterID = &id
	}
	records, err := model.ListAlerts(clusterID, filter.Resolved)
	if err != nil {
		return nil, types.NewUpstreamUnavailableError("alert store", err)
	}
	alerts := make([]Alert, 0, len(records))
	for _, record := range records {
		alerts = append(alerts, alertFromModel(record))
	}
	return alerts, nil
}
