package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	database "github.com/kubecostopt/costopt-backend/internal/db"
)

// AnalysisRun caches the outcome of one analysis invocation. A new run
// logically supersedes the previous one, rows are never updated in place.
type AnalysisRun struct {
	ID               uint   `gorm:"primaryKey;not null;autoIncrement"`
	AnalysisUUID     string `gorm:"type:text;unique"`
	ClusterID        uint   `gorm:"index"`
	Cluster          Cluster
	PotentialSavings float64
	ConfidenceScore  float64
	AIInsights       string `gorm:"type:text"`
	Recommendations  datatypes.JSON
	Classifications  pq.StringArray `gorm:"type:text[]"`
	CreatedAt        time.Time
}

func (r *AnalysisRun) CreateAnalysisRun() error {
	db := database.GetDB()
	return db.Create(r).Error
}

func GetLatestAnalysisRun(clusterID uint) (*AnalysisRun, error) {
	db := database.GetDB()
	var run AnalysisRun
	result := db.Where("cluster_id = ?", clusterID).Order("created_at desc").Limit(1).Find(&run)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &run, nil
}

func GetAllAnalysisRuns() ([]AnalysisRun, error) {
	db := database.GetDB()
	var runs []AnalysisRun
	err := db.Preload("Cluster").Order("created_at desc").Find(&runs).Error
	return runs, err
}

// GetLatestAnalysisRuns returns the most recent run per cluster.
func GetLatestAnalysisRuns() ([]AnalysisRun, error) {
	db := database.GetDB()
	var runs []AnalysisRun
	err := db.Raw(`SELECT DISTINCT ON (cluster_id) * FROM analysis_runs
		ORDER BY cluster_id, created_at DESC`).Scan(&runs).Error
	return runs, err
}
