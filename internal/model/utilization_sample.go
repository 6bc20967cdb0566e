package model

import (
	"time"

	database "github.com/kubecostopt/costopt-backend/internal/db"
)

// UtilizationSample is one observed datapoint of the append-only
// per-node utilization time series. Ratios are clamped to [0, 1] on write.
type UtilizationSample struct {
	ID          uint   `gorm:"primaryKey;not null;autoIncrement"`
	ClusterID   uint   `gorm:"index:idx_samples_cluster_time"`
	NodeID      uint   `gorm:"index"`
	Timestamp   time.Time `gorm:"index:idx_samples_cluster_time"`
	CPURatio    float64
	MemoryRatio float64
}

func clampRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (s *UtilizationSample) CreateUtilizationSample() error {
	db := database.GetDB()
	s.CPURatio = clampRatio(s.CPURatio)
	s.MemoryRatio = clampRatio(s.MemoryRatio)
	return db.Create(s).Error
}

// GetSamplesInWindow returns the cluster's samples inside the closed
// window [from, to], ordered by timestamp.
func GetSamplesInWindow(clusterID uint, from time.Time, to time.Time) ([]UtilizationSample, error) {
	db := database.GetDB()
	var samples []UtilizationSample
	err := db.Where("cluster_id = ? AND timestamp >= ? AND timestamp <= ?", clusterID, from, to).
		Order("timestamp asc").Find(&samples).Error
	return samples, err
}
