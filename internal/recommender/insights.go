package recommender

import (
	"fmt"
	"strings"

	"github.com/kubecostopt/costopt-backend/internal/analyzer"
	"github.com/kubecostopt/costopt-backend/internal/telemetry"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

// Insights text is a deterministic template over the computed
// classifications and top recommendations. A generative-model integration
// would implement InsightsRenderer as an external collaborator instead.
type InsightsRenderer interface {
	Render(cluster telemetry.ClusterInfo, summary analyzer.ClusterSummary, recommendations []Recommendation, confidence float64) string
}

func renderInsights(cluster telemetry.ClusterInfo, summary analyzer.ClusterSummary, recommendations []Recommendation, confidence float64) string {
	counts := map[types.Classification]int{}
	insufficient := 0
	for _, node := range summary.Nodes {
		if node.InsufficientData {
			insufficient++
			continue
		}
		counts[node.Classification]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cluster %s (%s, %s) runs %d node(s) at $%.2f/month.",
		cluster.Name, cluster.Provider, cluster.Region, len(cluster.Nodes), cluster.TotalMonthlyCost())
	fmt.Fprintf(&b, " Aggregate utilization over the window: %.0f%% CPU, %.0f%% memory.",
		summary.AggregateCPU*100, summary.AggregateMemory*100)

	findings := []string{}
	if n := counts[types.Idle]; n > 0 {
		findings = append(findings, fmt.Sprintf("%d idle node(s)", n))
	}
	if n := counts[types.OverProvisioned]; n > 0 {
		findings = append(findings, fmt.Sprintf("%d over-provisioned node(s)", n))
	}
	if n := counts[types.Fragmented]; n > 0 {
		findings = append(findings, fmt.Sprintf("%d fragmented node(s)", n))
	}
	if len(findings) > 0 {
		fmt.Fprintf(&b, " Waste patterns detected: %s.", strings.Join(findings, ", "))
	} else {
		b.WriteString(" No waste patterns detected.")
	}

	if len(recommendations) > 0 {
		var total float64
		for _, rec := range recommendations {
			total += rec.SavingsEstimate
		}
		fmt.Fprintf(&b, " %d recommendation(s) worth an estimated $%.2f/month; top action: %s.",
			len(recommendations), total, recommendations[0].Description)
	} else {
		b.WriteString(" No optimization actions identified.")
	}

	if insufficient > 0 {
		fmt.Fprintf(&b, " %d node(s) reported too few samples and were excluded.", insufficient)
	}
	fmt.Fprintf(&b, " Confidence: %.0f%%.", confidence)
	return b.String()
}
