package model

import (
	"errors"
	"time"

	"gorm.io/gorm"

	database "github.com/kubecostopt/costopt-backend/internal/db"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

type Alert struct {
	ID          uint            `gorm:"primaryKey;not null;autoIncrement"`
	AlertUUID   string          `gorm:"type:text;unique"`
	ClusterID   uint            `gorm:"index"`
	Cluster     Cluster
	AlertType   types.AlertType `gorm:"type:text"`
	Severity    types.Severity  `gorm:"type:text"`
	Description string          `gorm:"type:text"`
	DetectedAt  time.Time
	Resolved    bool
	ResolvedAt  *time.Time
}

func (a *Alert) CreateAlert() error {
	db := database.GetDB()
	return db.Create(a).Error
}

// GetUnresolvedAlert returns the active alert for a (cluster, type) pair,
// or nil when none exists. At most one can exist at a time.
func GetUnresolvedAlert(clusterID uint, alertType types.AlertType) (*Alert, error) {
	db := database.GetDB()
	var alert Alert
	err := db.Where("cluster_id = ? AND alert_type = ? AND resolved = false", clusterID, alertType).
		First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func GetAlertByUUID(alertUUID string) (*Alert, error) {
	db := database.GetDB()
	var alert Alert
	err := db.Preload("Cluster").Where("alert_uuid = ?", alertUUID).First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (a *Alert) MarkResolved(at time.Time) error {
	db := database.GetDB()
	a.Resolved = true
	a.ResolvedAt = &at
	return db.Model(a).Updates(map[string]interface{}{
		"resolved":    true,
		"resolved_at": at,
	}).Error
}

// ListAlerts returns alerts newest first, optionally filtered by cluster
// and/or resolved state.
func ListAlerts(clusterID *uint, resolved *bool) ([]Alert, error) {
	db := database.GetDB()
	query := db.Preload("Cluster").Order("detected_at desc")
	if clusterID != nil {
		query = query.Where("cluster_id = ?", *clusterID)
	}
	if resolved != nil {
		query = query.Where("resolved = ?", *resolved)
	}
	var alerts []Alert
	err := query.Find(&alerts).Error
	return alerts, err
}
