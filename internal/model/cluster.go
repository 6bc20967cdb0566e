package model

import (
	"time"

	"gorm.io/gorm/clause"

	database "github.com/kubecostopt/costopt-backend/internal/db"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

type Cluster struct {
	ID             uint                `gorm:"primaryKey;not null;autoIncrement"`
	ClusterUUID    string              `gorm:"type:text;unique"`
	Name           string              `gorm:"type:text"`
	Provider       types.CloudProvider `gorm:"type:text"`
	Region         string              `gorm:"type:text"`
	MonthlyBudget  float64
	OverBudget     bool
	Nodes          []Node `gorm:"foreignKey:ClusterID"`
	CreatedAt      time.Time
	LastReportedAt time.Time
}

func (c *Cluster) CreateCluster() error {
	db := database.GetDB()
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cluster_uuid"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_reported_at"}),
	}).Create(c)

	if result.Error != nil {
		return result.Error
	}
	return nil
}

func GetClusterByUUID(clusterUUID string) (Cluster, error) {
	db := database.GetDB()
	var cluster Cluster
	err := db.Preload("Nodes").Where("cluster_uuid = ?", clusterUUID).First(&cluster).Error
	return cluster, err
}

func GetAllClusters() ([]Cluster, error) {
	db := database.GetDB()
	var clusters []Cluster
	err := db.Preload("Nodes").Order("name asc").Find(&clusters).Error
	return clusters, err
}

// TotalMonthlyCost is derived from node hourly costs at read time, never
// stored independently.
func (c *Cluster) TotalMonthlyCost() float64 {
	var total float64
	for _, node := range c.Nodes {
		total += node.MonthlyCost()
	}
	return total
}

func (c *Cluster) SetOverBudget(over bool) error {
	db := database.GetDB()
	c.OverBudget = over
	return db.Model(c).Update("over_budget", over).Error
}
