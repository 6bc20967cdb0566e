package recommender

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/kubecostopt/costopt-backend/internal/analyzer"
	"github.com/kubecostopt/costopt-backend/internal/pricing"
	"github.com/kubecostopt/costopt-backend/internal/telemetry"
	"github.com/kubecostopt/costopt-backend/internal/types"
	"github.com/kubecostopt/costopt-backend/internal/utils"
)

// recommendationNamespace seeds deterministic recommendation ids so that
// two runs over identical telemetry produce identical output.
var recommendationNamespace = uuid.MustParse("9f2c1e9a-52cf-4be0-9f5e-c0ffee000001")

type Recommendation struct {
	ID               string                   `json:"id"`
	ClusterUUID      string                   `json:"cluster_id"`
	NodeUUID         string                   `json:"node_id,omitempty"`
	Type             types.RecommendationType `json:"type"`
	Description      string                   `json:"description"`
	Impact           string                   `json:"impact"`
	SavingsEstimate  float64                  `json:"savings_estimate"`
	Priority         types.Priority           `json:"priority"`
	Complexity       types.Complexity         `json:"implementation_complexity"`
}

// Result is the generator's output for one cluster analysis.
type Result struct {
	Recommendations []Recommendation
	ConfidenceScore float64
	Insights        string
}

// PotentialSavings is the exact sum of the recommendation estimates.
func (r Result) PotentialSavings() float64 {
	var total float64
	for _, rec := range r.Recommendations {
		total += rec.SavingsEstimate
	}
	return total
}

type Generator struct {
	catalog          *pricing.Catalog
	utilizationFloor float64
}

func New(catalog *pricing.Catalog, utilizationFloor float64) *Generator {
	return &Generator{catalog: catalog, utilizationFloor: utilizationFloor}
}

func recommendationID(clusterUUID string, recType types.RecommendationType, nodeUUID string) string {
	return uuid.NewSHA1(recommendationNamespace, []byte(clusterUUID+"/"+string(recType)+"/"+nodeUUID)).String()
}

// Generate turns the analyzer's summaries into a ranked, priced
// recommendation set. A window with zero valid samples yields an empty
// set with confidence 0 and explanatory insight text, never an error.
func (g *Generator) Generate(cluster telemetry.ClusterInfo, summary analyzer.ClusterSummary) Result {
	if summary.ValidSamples == 0 {
		return Result{
			Recommendations: []Recommendation{},
			ConfidenceScore: 0,
			Insights: fmt.Sprintf(
				"Insufficient telemetry for cluster %s: no utilization samples were recorded in the analysis window. Collect at least 24h of node metrics and re-run the analysis.",
				cluster.Name),
		}
	}

	recommendations := []Recommendation{}
	var fragmented []analyzer.NodeSummary

	for _, node := range summary.Nodes {
		if node.InsufficientData {
			continue
		}
		switch node.Classification {
		case types.Idle:
			recommendations = append(recommendations, g.idleRecommendation(cluster, node))
		case types.OverProvisioned:
			if rec, ok := g.downsizeRecommendation(cluster, node); ok {
				recommendations = append(recommendations, rec)
			}
		case types.Fragmented:
			fragmented = append(fragmented, node)
		}
	}

	if len(fragmented) >= 2 {
		recommendations = append(recommendations, g.consolidationRecommendation(cluster, fragmented))
	}
	if rec, ok := g.clusterRightsizingRecommendation(cluster, summary); ok {
		recommendations = append(recommendations, rec)
	}

	sortRecommendations(recommendations)
	confidence := ConfidenceScore(summary)

	return Result{
		Recommendations: recommendations,
		ConfidenceScore: confidence,
		Insights:        renderInsights(cluster, summary, recommendations, confidence),
	}
}

func (g *Generator) idleRecommendation(cluster telemetry.ClusterInfo, node analyzer.NodeSummary) Recommendation {
	return Recommendation{
		ID:          recommendationID(cluster.UUID, types.RecommendationTerminate, node.NodeUUID),
		ClusterUUID: cluster.UUID,
		NodeUUID:    node.NodeUUID,
		Type:        types.RecommendationTerminate,
		Description: fmt.Sprintf(
			"Terminate or scale to zero idle node %s (%s): mean CPU %.0f%%, mean memory %.0f%% over the window",
			node.NodeName, node.InstanceClass, node.MeanCPU*100, node.MeanMemory*100),
		Impact:          "Removes a node whose capacity is effectively unused",
		SavingsEstimate: node.MonthlyCost(),
		Priority:        types.PriorityHigh,
		Complexity:      types.ComplexityLow,
	}
}

func (g *Generator) downsizeRecommendation(cluster telemetry.ClusterInfo, node analyzer.NodeSummary) (Recommendation, bool) {
	peakCPUCores := node.PeakCPU * node.CPUCores
	peakMemoryBytes := int64(node.PeakMemory * float64(node.MemoryBytes))

	var targetName string
	var targetCost float64
	if target, ok := g.catalog.NextSmaller(cluster.Provider, node.InstanceClass, peakCPUCores, peakMemoryBytes); ok {
		targetName = target.Name
		targetCost = target.HourlyCost
	} else if _, known := g.catalog.Lookup(cluster.Provider, node.InstanceClass); !known {
		// Class not in the catalog, price the target from raw rates.
		targetName = "a right-sized instance"
		targetCost = g.catalog.EstimateRightsized(cluster.Provider, peakCPUCores, peakMemoryBytes)
	} else {
		return Recommendation{}, false
	}

	delta := (node.HourlyCost - targetCost) * telemetry.HoursPerMonth
	if delta <= 0 {
		return Recommendation{}, false
	}
	return Recommendation{
		ID:          recommendationID(cluster.UUID, types.RecommendationDownsize, node.NodeUUID),
		ClusterUUID: cluster.UUID,
		NodeUUID:    node.NodeUUID,
		Type:        types.RecommendationDownsize,
		Description: fmt.Sprintf(
			"Downsize node %s from %s to %s: peak CPU %.0f%%, peak memory %.0f%% never approach capacity",
			node.NodeName, node.InstanceClass, targetName, node.PeakCPU*100, node.PeakMemory*100),
		Impact:          fmt.Sprintf("Peak observed usage fits %s with headroom", targetName),
		SavingsEstimate: delta,
		Priority:        types.PriorityMedium,
		Complexity:      types.ComplexityMedium,
	}, true
}

// consolidationRecommendation estimates the freed capacity of packing
// fragmented nodes together: half of them, lowest utilization first, are
// treated as freeable.
func (g *Generator) consolidationRecommendation(cluster telemetry.ClusterInfo, fragmented []analyzer.NodeSummary) Recommendation {
	sort.Slice(fragmented, func(i, j int) bool {
		ui := math.Max(fragmented[i].MeanCPU, fragmented[i].MeanMemory)
		uj := math.Max(fragmented[j].MeanCPU, fragmented[j].MeanMemory)
		if ui != uj {
			return ui < uj
		}
		return fragmented[i].NodeUUID < fragmented[j].NodeUUID
	})
	freed := len(fragmented) / 2
	var savings float64
	names := make([]string, 0, len(fragmented))
	for i, node := range fragmented {
		names = append(names, node.NodeName)
		if i < freed {
			savings += node.MonthlyCost()
		}
	}
	return Recommendation{
		ID:          recommendationID(cluster.UUID, types.RecommendationConsolidate, ""),
		ClusterUUID: cluster.UUID,
		Type:        types.RecommendationConsolidate,
		Description: fmt.Sprintf(
			"Consolidate %d under-packed nodes (%s) onto fewer nodes, freeing an estimated %d node(s)",
			len(fragmented), joinNames(names), freed),
		Impact:          "Bin-packing the cold nodes frees whole instances for termination",
		SavingsEstimate: savings,
		Priority:        types.PriorityMedium,
		Complexity:      types.ComplexityHigh,
	}
}

func (g *Generator) clusterRightsizingRecommendation(cluster telemetry.ClusterInfo, summary analyzer.ClusterSummary) (Recommendation, bool) {
	if summary.AggregateCPU >= g.utilizationFloor && summary.AggregateMemory >= g.utilizationFloor {
		return Recommendation{}, false
	}
	aggregate := (summary.AggregateCPU + summary.AggregateMemory) / 2
	savings := cluster.TotalMonthlyCost() * (1 - aggregate) * 0.3
	return Recommendation{
		ID:          recommendationID(cluster.UUID, types.RecommendationRightsize, ""),
		ClusterUUID: cluster.UUID,
		Type:        types.RecommendationRightsize,
		Description: fmt.Sprintf(
			"Rightsize cluster %s: aggregate utilization is %.0f%% CPU / %.0f%% memory, well below the %.0f%% floor",
			cluster.Name, summary.AggregateCPU*100, summary.AggregateMemory*100, g.utilizationFloor*100),
		Impact:          "Systemic over-provisioning across the whole fleet",
		SavingsEstimate: savings,
		Priority:        types.PriorityHigh,
		Complexity:      types.ComplexityMedium,
	}, true
}

// sortRecommendations orders by descending savings, then priority
// High > Medium > Low, then node id, for fully deterministic output.
func sortRecommendations(recommendations []Recommendation) {
	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].SavingsEstimate != recommendations[j].SavingsEstimate {
			return recommendations[i].SavingsEstimate > recommendations[j].SavingsEstimate
		}
		if recommendations[i].Priority.Rank() != recommendations[j].Priority.Rank() {
			return recommendations[i].Priority.Rank() > recommendations[j].Priority.Rank()
		}
		return recommendations[i].NodeUUID < recommendations[j].NodeUUID
	})
}

// ConfidenceScore weighs sample coverage (70%) against utilization
// stability (30%), scaled to [0, 100]. Nodes flagged insufficient_data
// contribute zero coverage weight.
func ConfidenceScore(summary analyzer.ClusterSummary) float64 {
	if summary.ValidSamples == 0 || len(summary.Nodes) == 0 {
		return 0
	}
	coverage := float64(summary.SufficientNodes()) / float64(len(summary.Nodes))
	stability := 1 / (1 + summary.UtilizationVariance)
	return utils.Clamp((0.7*coverage+0.3*stability)*100, 0, 100)
}

func joinNames(names []string) string {
	out := ""
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += name
	}
	return out
}
