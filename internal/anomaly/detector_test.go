package anomaly

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kubecostopt/costopt-backend/internal/alerts"
	"github.com/kubecostopt/costopt-backend/internal/analyzer"
	"github.com/kubecostopt/costopt-backend/internal/telemetry"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

const gib = int64(1024 * 1024 * 1024)

var detectionTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		WindowDays:        30,
		DeviationMultiple: 3.0,
		MinDeviation:      5.0,
		LookbackHours:     24,
		UtilizationFloor:  0.20,
	}
}

func newHarness(t *testing.T) (*Detector, *telemetry.MemoryStore, *alerts.Manager) {
	t.Helper()
	store := telemetry.NewMemoryStore()
	manager := alerts.NewManager(alerts.NewMemoryStore(), nil)
	detector := NewDetector(store, analyzer.New(store, 12), manager, store, testConfig())
	return detector, store, manager
}

func listAlerts(t *testing.T, manager *alerts.Manager, clusterUUID string) []alerts.Alert {
	t.Helper()
	list, err := manager.List(context.Background(), alerts.Filter{ClusterUUID: clusterUUID})
	require.NoError(t, err)
	return list
}

func addDailyCosts(store *telemetry.MemoryStore, clusterUUID string, costs []float64) {
	for i, cost := range costs {
		store.AddDailyCost(clusterUUID, telemetry.DailyCost{
			Date: detectionTime.AddDate(0, 0, -(len(costs) - 1 - i)),
			Cost: cost,
		})
	}
}

func TestCostSpikeFlatSeriesWithNoiseStaysQuiet(t *testing.T) {
	detector, store, manager := newHarness(t)
	cluster := telemetry.ClusterInfo{UUID: "cluster-1", Name: "production"}
	store.AddCluster(cluster)
	addDailyCosts(store, "cluster-1", []float64{100, 99.5, 100.5, 100, 99.5, 100.5, 100, 100.5})

	require.NoError(t, detector.EvaluateCluster(context.Background(), cluster, detectionTime))

	// The $5 floor keeps sub-dollar wiggle on a flat series from alerting.
	require.Empty(t, listAlerts(t, manager, "cluster-1"))
}

func TestCostSpikeOnFlatSeriesIsHighSeverity(t *testing.T) {
	detector, store, manager := newHarness(t)
	cluster := telemetry.ClusterInfo{UUID: "cluster-1", Name: "production"}
	store.AddCluster(cluster)
	addDailyCosts(store, "cluster-1", []float64{50, 50, 50, 50, 50, 50, 200})

	require.NoError(t, detector.EvaluateCluster(context.Background(), cluster, detectionTime))

	list := listAlerts(t, manager, "cluster-1")
	require.Len(t, list, 1)
	require.Equal(t, types.AlertCostSpike, list[0].AlertType)
	// MAD of the flat baseline is zero, so the effective deviation is the
	// floor-implied minimum and a $150 jump lands far above the 5x bar.
	require.Equal(t, types.SeverityHigh, list[0].Severity)
	require.False(t, list[0].Resolved)
}

func TestCostSpikeSeverityLadderHonorsConfiguredMultiple(t *testing.T) {
	store := telemetry.NewMemoryStore()
	manager := alerts.NewManager(alerts.NewMemoryStore(), nil)
	cfg := testConfig()
	cfg.DeviationMultiple = 2.0
	detector := NewDetector(store, analyzer.New(store, 12), manager, store, cfg)

	cluster := telemetry.ClusterInfo{UUID: "cluster-1", Name: "production"}
	store.AddCluster(cluster)
	// Flat baseline with a 2x multiple: the effective deviation is the
	// floor-implied $2.50, so a $6 jump triggers at ratio 2.4 and stays
	// below the fixed 3x medium bar.
	addDailyCosts(store, "cluster-1", []float64{50, 50, 50, 50, 50, 56})

	require.NoError(t, detector.EvaluateCluster(context.Background(), cluster, detectionTime))

	list := listAlerts(t, manager, "cluster-1")
	require.Len(t, list, 1)
	require.Equal(t, types.AlertCostSpike, list[0].AlertType)
	require.Equal(t, types.SeverityLow, list[0].Severity)
}

func TestCostSpikeNeedsThreeDatapoints(t *testing.T) {
	detector, store, manager := newHarness(t)
	cluster := telemetry.ClusterInfo{UUID: "cluster-1", Name: "production"}
	store.AddCluster(cluster)
	addDailyCosts(store, "cluster-1", []float64{50, 500})

	require.NoError(t, detector.EvaluateCluster(context.Background(), cluster, detectionTime))
	require.Empty(t, listAlerts(t, manager, "cluster-1"))
}

func TestCostSpikeRerunDoesNotDuplicate(t *testing.T) {
	detector, store, manager := newHarness(t)
	cluster := telemetry.ClusterInfo{UUID: "cluster-1", Name: "production"}
	store.AddCluster(cluster)
	addDailyCosts(store, "cluster-1", []float64{50, 50, 50, 200})

	require.NoError(t, detector.EvaluateCluster(context.Background(), cluster, detectionTime))
	require.NoError(t, detector.EvaluateCluster(context.Background(), cluster, detectionTime))

	require.Len(t, listAlerts(t, manager, "cluster-1"), 1)
}

func addNodeSamples(store *telemetry.MemoryStore, clusterUUID, nodeUUID string, cpu, memory float64) {
	for i := 0; i < 12; i++ {
		store.AddSample(clusterUUID, telemetry.Sample{
			NodeUUID:    nodeUUID,
			Timestamp:   detectionTime.Add(-time.Duration(i+1) * time.Hour),
			CPURatio:    cpu,
			MemoryRatio: memory,
		})
	}
}

func TestIdleTransitionRaisesAlert(t *testing.T) {
	detector, store, manager := newHarness(t)
	cluster := telemetry.ClusterInfo{
		UUID: "cluster-1", Name: "production",
		Nodes: []telemetry.NodeInfo{
			{UUID: "node-1", Name: "prod-1", CPUCores: 2, MemoryBytes: 8 * gib, LastClassification: types.Healthy},
			{UUID: "node-2", Name: "prod-2", CPUCores: 6, MemoryBytes: 24 * gib, LastClassification: types.Healthy},
		},
	}
	store.AddCluster(cluster)
	addNodeSamples(store, "cluster-1", "node-1", 0.05, 0.08)
	addNodeSamples(store, "cluster-1", "node-2", 0.60, 0.55)

	require.NoError(t, detector.EvaluateCluster(context.Background(), cluster, detectionTime))

	list := listAlerts(t, manager, "cluster-1")
	require.Len(t, list, 1)
	require.Equal(t, types.AlertIdleResource, list[0].AlertType)
	require.Equal(t, types.SeverityLow, list[0].Severity)

	// The new classification is recorded so the next sweep sees no
	// transition and stays quiet.
	updated, err := store.GetCluster(context.Background(), "cluster-1")
	require.NoError(t, err)
	require.Equal(t, types.Idle, updated.Nodes[0].LastClassification)

	require.NoError(t, detector.EvaluateCluster(context.Background(), updated, detectionTime))
	require.Len(t, listAlerts(t, manager, "cluster-1"), 1)
}

func TestFirstClassificationIsNotATransition(t *testing.T) {
	detector, store, manager := newHarness(t)
	cluster := telemetry.ClusterInfo{
		UUID: "cluster-1", Name: "production",
		Nodes: []telemetry.NodeInfo{
			{UUID: "node-1", Name: "prod-1", CPUCores: 2, MemoryBytes: 8 * gib},
			{UUID: "node-2", Name: "prod-2", CPUCores: 6, MemoryBytes: 24 * gib},
		},
	}
	store.AddCluster(cluster)
	addNodeSamples(store, "cluster-1", "node-1", 0.05, 0.08)
	addNodeSamples(store, "cluster-1", "node-2", 0.60, 0.55)

	require.NoError(t, detector.EvaluateCluster(context.Background(), cluster, detectionTime))

	// A node idle on its very first classification has not "gone" idle.
	require.Empty(t, listAlerts(t, manager, "cluster-1"))
}

func TestRightsizingDriftBelowFloor(t *testing.T) {
	detector, store, manager := newHarness(t)
	cluster := telemetry.ClusterInfo{
		UUID: "cluster-1", Name: "production",
		Nodes: []telemetry.NodeInfo{
			{UUID: "node-1", Name: "prod-1", CPUCores: 2, MemoryBytes: 8 * gib, LastClassification: types.OverProvisioned},
		},
	}
	store.AddCluster(cluster)
	addNodeSamples(store, "cluster-1", "node-1", 0.15, 0.18)

	require.NoError(t, detector.EvaluateCluster(context.Background(), cluster, detectionTime))

	list := listAlerts(t, manager, "cluster-1")
	require.Len(t, list, 1)
	require.Equal(t, types.AlertRightsizingDrift, list[0].AlertType)
	require.Equal(t, types.SeverityMedium, list[0].Severity)
}

func TestBudgetAlertLatchesPerCrossing(t *testing.T) {
	detector, store, manager := newHarness(t)
	cluster := telemetry.ClusterInfo{
		UUID: "cluster-1", Name: "production", MonthlyBudget: 100,
		Nodes: []telemetry.NodeInfo{
			{UUID: "node-1", Name: "prod-1", HourlyCost: 0.2},
		},
	}
	store.AddCluster(cluster)

	// 0.2 * 720 = $144 against a $100 budget.
	require.NoError(t, detector.EvaluateCluster(context.Background(), cluster, detectionTime))

	list := listAlerts(t, manager, "cluster-1")
	require.Len(t, list, 1)
	require.Equal(t, types.AlertBudgetThreshold, list[0].AlertType)
	require.Equal(t, types.SeverityHigh, list[0].Severity)

	// Still over budget on the next sweep: the latch holds.
	updated, err := store.GetCluster(context.Background(), "cluster-1")
	require.NoError(t, err)
	require.True(t, updated.OverBudget)
	require.NoError(t, detector.EvaluateCluster(context.Background(), updated, detectionTime))
	require.Len(t, listAlerts(t, manager, "cluster-1"), 1)

	// Falling back under budget resets the latch without alerting.
	updated.Nodes[0].HourlyCost = 0.05
	store.AddCluster(updated)
	require.NoError(t, detector.EvaluateCluster(context.Background(), updated, detectionTime))
	relatched, err := store.GetCluster(context.Background(), "cluster-1")
	require.NoError(t, err)
	require.False(t, relatched.OverBudget)
	require.Len(t, listAlerts(t, manager, "cluster-1"), 1)
}

func TestBudgetZeroMeansNoBudget(t *testing.T) {
	detector, store, manager := newHarness(t)
	cluster := telemetry.ClusterInfo{
		UUID: "cluster-1", Name: "production",
		Nodes: []telemetry.NodeInfo{
			{UUID: "node-1", Name: "prod-1", HourlyCost: 10},
		},
	}
	store.AddCluster(cluster)

	require.NoError(t, detector.EvaluateCluster(context.Background(), cluster, detectionTime))
	require.Empty(t, listAlerts(t, manager, "cluster-1"))
}

// faultyCostStore fails the cost read for one cluster and delegates
// everything else.
type faultyCostStore struct {
	telemetry.Store
	failing string
}

func (s faultyCostStore) DailyCosts(ctx context.Context, clusterUUID string, from, to time.Time) ([]telemetry.DailyCost, error) {
	if clusterUUID == s.failing {
		return nil, types.NewUpstreamUnavailableError("telemetry store", errors.New("connection reset"))
	}
	return s.Store.DailyCosts(ctx, clusterUUID, from, to)
}

func TestRunIsolatesPerClusterFailures(t *testing.T) {
	store := telemetry.NewMemoryStore()
	manager := alerts.NewManager(alerts.NewMemoryStore(), nil)
	detector := NewDetector(faultyCostStore{Store: store, failing: "cluster-bad"},
		analyzer.New(store, 12), manager, store, testConfig())

	store.AddCluster(telemetry.ClusterInfo{UUID: "cluster-bad", Name: "broken"})
	healthy := telemetry.ClusterInfo{UUID: "cluster-ok", Name: "ok", MonthlyBudget: 1,
		Nodes: []telemetry.NodeInfo{{UUID: "node-1", HourlyCost: 0.2}}}
	store.AddCluster(healthy)

	// The broken cluster fails its cost read first in the sweep order; the
	// sweep still finishes and the healthy cluster gets its budget alert.
	require.NoError(t, detector.Run(context.Background(), detectionTime))
	require.Len(t, listAlerts(t, manager, "cluster-ok"), 1)
	require.Empty(t, listAlerts(t, manager, "cluster-bad"))
}
