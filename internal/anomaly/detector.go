package anomaly

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kubecostopt/costopt-backend/internal/alerts"
	"github.com/kubecostopt/costopt-backend/internal/analyzer"
	"github.com/kubecostopt/costopt-backend/internal/logging"
	"github.com/kubecostopt/costopt-backend/internal/telemetry"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

// AlertRaiser is the slice of the alert lifecycle manager the detector
// needs. Raising is idempotent per (cluster, type) pair.
type AlertRaiser interface {
	Raise(ctx context.Context, clusterUUID string, alertType types.AlertType, severity types.Severity, description string, detectedAt time.Time) (*alerts.Alert, error)
}

// StateStore carries the small bits of state the detector keeps between
// runs: the last classification per node and the per-cluster budget latch.
type StateStore interface {
	RecordNodeClassification(ctx context.Context, nodeUUID string, c types.Classification) error
	SetOverBudget(ctx context.Context, clusterUUID string, over bool) error
}

type Config struct {
	WindowDays        int
	DeviationMultiple float64
	MinDeviation      float64
	LookbackHours     int
	UtilizationFloor  float64
}

type Detector struct {
	store    telemetry.Store
	analyzer *analyzer.Analyzer
	alerts   AlertRaiser
	state    StateStore
	cfg      Config
}

func NewDetector(store telemetry.Store, utilAnalyzer *analyzer.Analyzer, raiser AlertRaiser, state StateStore, cfg Config) *Detector {
	return &Detector{
		store:    store,
		analyzer: utilAnalyzer,
		alerts:   raiser,
		state:    state,
		cfg:      cfg,
	}
}

// Run evaluates every cluster at the given instant. A failure in one
// cluster is logged and never aborts detection for the others.
func (d *Detector) Run(ctx context.Context, at time.Time) error {
	log := logging.GetLogger()
	clusters, err := d.store.ListClusters(ctx)
	if err != nil {
		return err
	}
	for _, cluster := range clusters {
		if err := d.EvaluateCluster(ctx, cluster, at); err != nil {
			log.Errorf("anomaly detection failed for cluster %s: %v", cluster.UUID, err)
		}
	}
	return nil
}

// EvaluateCluster runs the three detection rules for one cluster. It is
// re-runnable on the same data: the dedup invariant in the alert manager
// means a second pass raises nothing new.
func (d *Detector) EvaluateCluster(ctx context.Context, cluster telemetry.ClusterInfo, at time.Time) error {
	if err := d.checkCostSpike(ctx, cluster, at); err != nil {
		return err
	}
	if err := d.checkNodeTransitions(ctx, cluster, at); err != nil {
		return err
	}
	return d.checkBudget(ctx, cluster, at)
}

// checkCostSpike flags the most recent daily cost against a trailing
// median/MAD baseline computed without it. The absolute floor keeps
// near-zero-variance series from alerting on rounding noise.
func (d *Detector) checkCostSpike(ctx context.Context, cluster telemetry.ClusterInfo, at time.Time) error {
	from := at.AddDate(0, 0, -d.cfg.WindowDays)
	costs, err := d.store.DailyCosts(ctx, cluster.UUID, from, at)
	if err != nil {
		return err
	}
	if len(costs) < 3 {
		return nil
	}

	trailing := make([]float64, 0, len(costs)-1)
	for _, c := range costs[:len(costs)-1] {
		trailing = append(trailing, c.Cost)
	}
	latest := costs[len(costs)-1]

	baseline := Median(trailing)
	mad := MedianAbsoluteDeviation(trailing)
	deviation := math.Abs(latest.Cost - baseline)

	// Effective spread never drops below the floor-implied minimum, so a
	// flat series needs at least MinDeviation of absolute movement.
	effective := math.Max(mad, d.cfg.MinDeviation/d.cfg.DeviationMultiple)
	if deviation < d.cfg.DeviationMultiple*effective {
		return nil
	}

	ratio := deviation / effective
	severity := types.SeverityLow
	switch {
	case ratio >= 5:
		severity = types.SeverityHigh
	case ratio >= 3:
		severity = types.SeverityMedium
	}

	description := fmt.Sprintf(
		"Daily cost of $%.2f on %s deviates $%.2f from the trailing %d-day baseline of $%.2f",
		latest.Cost, latest.Date.Format("2006-01-02"), deviation, len(trailing), baseline)
	_, err = d.alerts.Raise(ctx, cluster.UUID, types.AlertCostSpike, severity, description, at)
	return err
}

// checkNodeTransitions reruns the utilization analysis and raises an
// idle_resource alert for every node that went idle since the previous
// run, then records the new classifications.
func (d *Detector) checkNodeTransitions(ctx context.Context, cluster telemetry.ClusterInfo, at time.Time) error {
	window := analyzer.WindowEndingAt(at, d.cfg.LookbackHours)
	summary, err := d.analyzer.Analyze(ctx, cluster.UUID, window)
	if err != nil {
		return err
	}

	previous := make(map[string]types.Classification, len(cluster.Nodes))
	names := make(map[string]string, len(cluster.Nodes))
	for _, node := range cluster.Nodes {
		previous[node.UUID] = node.LastClassification
		names[node.UUID] = node.Name
	}

	belowFloor := false
	for _, node := range summary.Nodes {
		if node.InsufficientData {
			continue
		}
		was := previous[node.NodeUUID]
		if node.Classification == types.Idle && was != types.Idle && was != "" {
			description := fmt.Sprintf("Node %s went idle: mean CPU %.0f%%, mean memory %.0f%% over the last %dh",
				names[node.NodeUUID], node.MeanCPU*100, node.MeanMemory*100, d.cfg.LookbackHours)
			if _, err := d.alerts.Raise(ctx, cluster.UUID, types.AlertIdleResource, types.SeverityLow, description, at); err != nil {
				return err
			}
		}
		if node.Classification != was {
			if err := d.state.RecordNodeClassification(ctx, node.NodeUUID, node.Classification); err != nil {
				return err
			}
		}
	}

	if summary.ValidSamples > 0 && (summary.AggregateCPU < d.cfg.UtilizationFloor || summary.AggregateMemory < d.cfg.UtilizationFloor) {
		belowFloor = true
	}
	if belowFloor {
		description := fmt.Sprintf("Cluster %s aggregate utilization drifted to %.0f%% CPU / %.0f%% memory",
			cluster.Name, summary.AggregateCPU*100, summary.AggregateMemory*100)
		if _, err := d.alerts.Raise(ctx, cluster.UUID, types.AlertRightsizingDrift, types.SeverityMedium, description, at); err != nil {
			return err
		}
	}
	return nil
}

// checkBudget raises exactly once per threshold crossing: the over-budget
// latch resets only after the monthly cost falls back below the budget.
func (d *Detector) checkBudget(ctx context.Context, cluster telemetry.ClusterInfo, at time.Time) error {
	if cluster.MonthlyBudget <= 0 {
		return nil
	}
	cost := cluster.TotalMonthlyCost()
	switch {
	case cost > cluster.MonthlyBudget && !cluster.OverBudget:
		description := fmt.Sprintf("Cluster %s monthly cost $%.2f exceeds the $%.2f budget",
			cluster.Name, cost, cluster.MonthlyBudget)
		if _, err := d.alerts.Raise(ctx, cluster.UUID, types.AlertBudgetThreshold, types.SeverityHigh, description, at); err != nil {
			return err
		}
		return d.state.SetOverBudget(ctx, cluster.UUID, true)
	case cost <= cluster.MonthlyBudget && cluster.OverBudget:
		return d.state.SetOverBudget(ctx, cluster.UUID, false)
	}
	return nil
}
