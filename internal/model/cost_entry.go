package model

import (
	"time"

	"gorm.io/gorm/clause"

	database "github.com/kubecostopt/costopt-backend/internal/db"
)

// CostEntry is one day of aggregated billed cost for a cluster.
type CostEntry struct {
	ID        uint      `gorm:"primaryKey;not null;autoIncrement"`
	ClusterID uint      `gorm:"index;uniqueIndex:idx_cost_cluster_date"`
	Date      time.Time `gorm:"uniqueIndex:idx_cost_cluster_date"`
	Cost      float64
}

func (e *CostEntry) CreateCostEntry() error {
	db := database.GetDB()
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cluster_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"cost"}),
	}).Create(e)
	return result.Error
}

func GetDailyCosts(clusterID uint, from time.Time, to time.Time) ([]CostEntry, error) {
	db := database.GetDB()
	var entries []CostEntry
	err := db.Where("cluster_id = ? AND date >= ? AND date <= ?", clusterID, from, to).
		Order("date asc").Find(&entries).Error
	return entries, err
}
