package model

import (
	database "github.com/kubecostopt/costopt-backend/internal/db"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

// HoursPerMonth matches the 24h x 30d convention used for all monthly
// cost estimates.
const HoursPerMonth = 720

type Node struct {
	ID                 uint   `gorm:"primaryKey;not null;autoIncrement"`
	ClusterID          uint   `gorm:"index"`
	NodeUUID           string `gorm:"type:text;unique"`
	Name               string `gorm:"type:text"`
	InstanceClass      string `gorm:"type:text"`
	Zone               string `gorm:"type:text"`
	CPUCores           float64
	MemoryBytes        int64
	HourlyCost         float64
	Status             string               `gorm:"type:text"`
	LastClassification types.Classification `gorm:"type:text"`
}

func (n *Node) CreateNode() error {
	db := database.GetDB()
	return db.Create(n).Error
}

func (n *Node) MonthlyCost() float64 {
	return n.HourlyCost * HoursPerMonth
}

func UpdateNodeClassification(nodeUUID string, c types.Classification) error {
	db := database.GetDB()
	return db.Model(&Node{}).Where("node_uuid = ?", nodeUUID).
		Update("last_classification", c).Error
}
