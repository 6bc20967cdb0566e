package analyzer

import (
	"context"
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/kubecostopt/costopt-backend/internal/telemetry"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

// Classification thresholds. A node is idle when both means sit below the
// idle thresholds, over-provisioned when both peaks sit below the peak
// thresholds, and fragmented when it runs cold while another node in the
// same cluster runs hot.
const (
	idleMeanCPUThreshold    = 0.10
	idleMeanMemoryThreshold = 0.15
	overPeakCPUThreshold    = 0.40
	overPeakMemoryThreshold = 0.50
	fragmentedColdThreshold = 0.30
	fragmentedHotThreshold  = 0.70
)

type Window struct {
	From time.Time
	To   time.Time
}

// WindowEndingAt builds the closed lookback window [at-hours, at]. The
// evaluation instant is always injected by the caller, never read from a
// clock here, so identical inputs aggregate identically.
func WindowEndingAt(at time.Time, hours int) Window {
	return Window{From: at.Add(-time.Duration(hours) * time.Hour), To: at}
}

// NodeSummary is the aggregated utilization of one node over the window.
type NodeSummary struct {
	NodeUUID         string
	NodeName         string
	InstanceClass    string
	CPUCores         float64
	MemoryBytes      int64
	HourlyCost       float64
	MeanCPU          float64
	PeakCPU          float64
	MeanMemory       float64
	PeakMemory       float64
	SampleCount      int
	InsufficientData bool
	Classification   types.Classification
}

func (n NodeSummary) MonthlyCost() float64 {
	return n.HourlyCost * telemetry.HoursPerMonth
}

type ClusterSummary struct {
	ClusterUUID string
	Window      Window
	// Nodes is ordered by NodeUUID for deterministic downstream output.
	Nodes []NodeSummary
	// AggregateCPU and AggregateMemory are capacity-weighted means over
	// nodes that reported samples in the window.
	AggregateCPU    float64
	AggregateMemory float64
	// ValidSamples counts samples attributable to known nodes.
	ValidSamples int
	// UtilizationVariance is the variance of the combined per-sample
	// utilization ratio across the window.
	UtilizationVariance float64
}

// SufficientNodes counts nodes whose window held at least the minimum
// sample count.
func (c ClusterSummary) SufficientNodes() int {
	count := 0
	for _, node := range c.Nodes {
		if !node.InsufficientData {
			count++
		}
	}
	return count
}

type Analyzer struct {
	store      telemetry.Store
	minSamples int
}

func New(store telemetry.Store, minSamples int) *Analyzer {
	return &Analyzer{store: store, minSamples: minSamples}
}

// Analyze aggregates the cluster's samples in the window into per-node
// summaries with classification tags. Sparse windows are flagged
// insufficient_data instead of failing, only an unknown cluster or a
// store failure is an error. Pure read-and-compute, no side effects.
func (a *Analyzer) Analyze(ctx context.Context, clusterUUID string, window Window) (ClusterSummary, error) {
	cluster, err := a.store.GetCluster(ctx, clusterUUID)
	if err != nil {
		return ClusterSummary{}, err
	}
	samples, err := a.store.SamplesInWindow(ctx, clusterUUID, window.From, window.To)
	if err != nil {
		return ClusterSummary{}, err
	}

	perNode := make(map[string]*NodeSummary, len(cluster.Nodes))
	for _, node := range cluster.Nodes {
		perNode[node.UUID] = &NodeSummary{
			NodeUUID:      node.UUID,
			NodeName:      node.Name,
			InstanceClass: node.InstanceClass,
			CPUCores:      node.CPUCores,
			MemoryBytes:   node.MemoryBytes,
			HourlyCost:    node.HourlyCost,
		}
	}

	summary := ClusterSummary{ClusterUUID: clusterUUID, Window: window}

	type samplePoint struct {
		Node   string
		CPU    float64
		Memory float64
	}
	points := make([]samplePoint, 0, len(samples))
	combined := make([]float64, 0, len(samples))
	for _, sample := range samples {
		if _, known := perNode[sample.NodeUUID]; !known {
			continue
		}
		points = append(points, samplePoint{
			Node:   sample.NodeUUID,
			CPU:    sample.CPURatio,
			Memory: sample.MemoryRatio,
		})
		combined = append(combined, (sample.CPURatio+sample.MemoryRatio)/2)
	}
	summary.ValidSamples = len(points)

	if len(points) > 0 {
		df := dataframe.LoadStructs(points)
		agg := df.GroupBy("Node").Aggregation(
			[]dataframe.AggregationType{
				dataframe.Aggregation_MEAN,
				dataframe.Aggregation_MAX,
				dataframe.Aggregation_MEAN,
				dataframe.Aggregation_MAX,
				dataframe.Aggregation_COUNT,
			},
			[]string{"CPU", "CPU", "Memory", "Memory", "CPU"},
		)
		for _, row := range agg.Maps() {
			node, ok := perNode[row["Node"].(string)]
			if !ok {
				continue
			}
			node.MeanCPU = row["CPU_MEAN"].(float64)
			node.PeakCPU = row["CPU_MAX"].(float64)
			node.MeanMemory = row["Memory_MEAN"].(float64)
			node.PeakMemory = row["Memory_MAX"].(float64)
			node.SampleCount = int(row["CPU_COUNT"].(float64))
		}

		sd := series.Floats(combined).StdDev()
		summary.UtilizationVariance = sd * sd
	}

	for _, node := range perNode {
		node.InsufficientData = node.SampleCount < a.minSamples
	}
	classify(perNode)

	var cpuWeight, cpuWeighted, memWeight, memWeighted float64
	for _, node := range perNode {
		summary.Nodes = append(summary.Nodes, *node)
		if node.SampleCount == 0 {
			continue
		}
		cpuWeighted += node.MeanCPU * node.CPUCores
		cpuWeight += node.CPUCores
		memWeighted += node.MeanMemory * float64(node.MemoryBytes)
		memWeight += float64(node.MemoryBytes)
	}
	if cpuWeight > 0 {
		summary.AggregateCPU = cpuWeighted / cpuWeight
	}
	if memWeight > 0 {
		summary.AggregateMemory = memWeighted / memWeight
	}

	sort.Slice(summary.Nodes, func(i, j int) bool {
		return summary.Nodes[i].NodeUUID < summary.Nodes[j].NodeUUID
	})
	return summary, nil
}

// classify assigns waste pattern tags. Precedence: idle, then
// over_provisioned, then fragmented.
func classify(perNode map[string]*NodeSummary) {
	hotNodes := 0
	for _, node := range perNode {
		if node.InsufficientData {
			continue
		}
		if node.MeanCPU > fragmentedHotThreshold || node.MeanMemory > fragmentedHotThreshold {
			hotNodes++
		}
	}

	for _, node := range perNode {
		if node.InsufficientData {
			node.Classification = types.Healthy
			continue
		}
		nodeIsHot := node.MeanCPU > fragmentedHotThreshold || node.MeanMemory > fragmentedHotThreshold
		hotOthers := hotNodes
		if nodeIsHot {
			hotOthers--
		}

		switch {
		case node.MeanCPU < idleMeanCPUThreshold && node.MeanMemory < idleMeanMemoryThreshold:
			node.Classification = types.Idle
		case node.PeakCPU < overPeakCPUThreshold && node.PeakMemory < overPeakMemoryThreshold:
			node.Classification = types.OverProvisioned
		case (node.MeanCPU < fragmentedColdThreshold || node.MeanMemory < fragmentedColdThreshold) && hotOthers > 0:
			node.Classification = types.Fragmented
		default:
			node.Classification = types.Healthy
		}
	}
}
