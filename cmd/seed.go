package cmd

import (
	"fmt"
	"time"

	"github.com/kubecostopt/costopt-backend/internal/model"
	"github.com/kubecostopt/costopt-backend/internal/pricing"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

type seedNode struct {
	uuid          string
	name          string
	instanceClass string
	zone          string
	meanCPU       float64
	meanMemory    float64
}

type seedCluster struct {
	uuid          string
	name          string
	provider      types.CloudProvider
	region        string
	monthlyBudget float64
	costSpike     bool
	nodes         []seedNode
}

// Demo data is fully deterministic so that repeated seeding converges
// on the same state instead of multiplying rows.
var seedClusters = []seedCluster{
	{
		uuid:          "11111111-1111-1111-1111-000000000001",
		name:          "production",
		provider:      types.AWS,
		region:        "us-east-1",
		monthlyBudget: 250,
		costSpike:     true,
		nodes: []seedNode{
			{"aaaaaaaa-0001-0000-0000-000000000001", "prod-node-1", "m5.large", "us-east-1a", 0.72, 0.65},
			{"aaaaaaaa-0001-0000-0000-000000000002", "prod-node-2", "m5.large", "us-east-1b", 0.58, 0.61},
			{"aaaaaaaa-0001-0000-0000-000000000003", "prod-node-3", "m5.large", "us-east-1c", 0.12, 0.22},
		},
	},
	{
		uuid:          "11111111-1111-1111-1111-000000000002",
		name:          "staging",
		provider:      types.AWS,
		region:        "us-east-2",
		monthlyBudget: 80,
		nodes: []seedNode{
			{"aaaaaaaa-0002-0000-0000-000000000001", "stage-node-1", "t3.xlarge", "us-east-2a", 0.18, 0.25},
			{"aaaaaaaa-0002-0000-0000-000000000002", "stage-node-2", "t3.medium", "us-east-2b", 0.22, 0.30},
		},
	},
	{
		uuid:          "11111111-1111-1111-1111-000000000003",
		name:          "development",
		provider:      types.GCP,
		region:        "us-central1",
		monthlyBudget: 40,
		nodes: []seedNode{
			{"aaaaaaaa-0003-0000-0000-000000000001", "dev-node-1", "e2-standard-2", "us-central1-a", 0.05, 0.09},
		},
	},
}

func seedDemoData() error {
	catalog := pricing.DefaultCatalog()
	now := time.Now().UTC().Truncate(time.Hour)

	for _, sc := range seedClusters {
		cluster := model.Cluster{
			ClusterUUID:    sc.uuid,
			Name:           sc.name,
			Provider:       sc.provider,
			Region:         sc.region,
			MonthlyBudget:  sc.monthlyBudget,
			CreatedAt:      now,
			LastReportedAt: now,
		}
		if err := cluster.CreateCluster(); err != nil {
			return err
		}
		stored, err := model.GetClusterByUUID(sc.uuid)
		if err != nil {
			return err
		}

		nodeIDs := map[string]uint{}
		for _, existing := range stored.Nodes {
			nodeIDs[existing.NodeUUID] = existing.ID
		}
		for _, sn := range sc.nodes {
			if _, ok := nodeIDs[sn.uuid]; ok {
				continue
			}
			class, ok := catalog.Lookup(sc.provider, sn.instanceClass)
			if !ok {
				return fmt.Errorf("unknown instance class %s for provider %s", sn.instanceClass, sc.provider)
			}
			node := model.Node{
				ClusterID:     stored.ID,
				NodeUUID:      sn.uuid,
				Name:          sn.name,
				InstanceClass: sn.instanceClass,
				Zone:          sn.zone,
				CPUCores:      class.CPUCores,
				MemoryBytes:   class.MemoryBytes,
				HourlyCost:    class.HourlyCost,
				Status:        "running",
			}
			if err := node.CreateNode(); err != nil {
				return err
			}
			nodeIDs[sn.uuid] = node.ID
		}

		if err := seedSamples(stored.ID, nodeIDs, sc, now); err != nil {
			return err
		}
		if err := seedCosts(stored.ID, sc, catalog, now); err != nil {
			return err
		}
	}
	return nil
}

// seedSamples writes one sample per node per hour across the last day.
// The wobble keeps the series from being perfectly flat without breaking
// determinism.
func seedSamples(clusterID uint, nodeIDs map[string]uint, sc seedCluster, now time.Time) error {
	for _, sn := range sc.nodes {
		for hour := 24; hour >= 1; hour-- {
			wobble := float64(hour%5) * 0.01
			sample := model.UtilizationSample{
				ClusterID:   clusterID,
				NodeID:      nodeIDs[sn.uuid],
				Timestamp:   now.Add(-time.Duration(hour) * time.Hour),
				CPURatio:    sn.meanCPU + wobble,
				MemoryRatio: sn.meanMemory + wobble,
			}
			if err := sample.CreateUtilizationSample(); err != nil {
				return err
			}
		}
	}
	return nil
}

// seedCosts writes 30 days of daily cost derived from the node price
// sheet. Spiking clusters get a 4x final day to exercise detection.
func seedCosts(clusterID uint, sc seedCluster, catalog *pricing.Catalog, now time.Time) error {
	var daily float64
	for _, sn := range sc.nodes {
		class, ok := catalog.Lookup(sc.provider, sn.instanceClass)
		if !ok {
			return fmt.Errorf("unknown instance class %s for provider %s", sn.instanceClass, sc.provider)
		}
		daily += class.HourlyCost * 24
	}

	day := now.Truncate(24 * time.Hour)
	for back := 29; back >= 0; back-- {
		cost := daily
		if sc.costSpike && back == 0 {
			cost = daily * 4
		}
		entry := model.CostEntry{
			ClusterID: clusterID,
			Date:      day.AddDate(0, 0, -back),
			Cost:      cost,
		}
		if err := entry.CreateCostEntry(); err != nil {
			return err
		}
	}
	return nil
}
