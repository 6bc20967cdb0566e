package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kubecostopt/costopt-backend/internal/alerts"
	"github.com/kubecostopt/costopt-backend/internal/analyzer"
	"github.com/kubecostopt/costopt-backend/internal/model"
	"github.com/kubecostopt/costopt-backend/internal/pricing"
	"github.com/kubecostopt/costopt-backend/internal/recommender"
	"github.com/kubecostopt/costopt-backend/internal/services"
	"github.com/kubecostopt/costopt-backend/internal/telemetry"
	"github.com/kubecostopt/costopt-backend/internal/types"
	"github.com/kubecostopt/costopt-backend/internal/utils"
)

var (
	storeOnce    sync.Once
	store        *telemetry.GormStore
	engineOnce   sync.Once
	engine       *services.Orchestrator
	managerOnce  sync.Once
	alertManager *alerts.Manager
)

func telemetryStore() *telemetry.GormStore {
	storeOnce.Do(func() {
		store = telemetry.NewGormStore()
	})
	return store
}

func analysisEngine() *services.Orchestrator {
	engineOnce.Do(func() {
		s := telemetryStore()
		utilAnalyzer := analyzer.New(s, cfg.MinSamples)
		generator := recommender.New(pricing.DefaultCatalog(), cfg.ClusterUtilizationFloor)
		engine = services.NewOrchestrator(s, utilAnalyzer, generator, services.NewGormRecorder(), cfg.LookbackHours)
	})
	return engine
}

func getAlertManager() *alerts.Manager {
	managerOnce.Do(func() {
		alertManager = services.NewDefaultAlertManager()
	})
	return alertManager
}

func GetAppStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"api": "costopt", "status": "ok"})
}

func GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func GetClusterList(c echo.Context) error {
	clusters, err := telemetryStore().ListClusters(c.Request().Context())
	if err != nil {
		return apiError(c, err)
	}

	results := make([]map[string]interface{}, 0, len(clusters))
	for _, cluster := range clusters {
		results = append(results, map[string]interface{}{
			"id":             cluster.UUID,
			"name":           cluster.Name,
			"provider":       cluster.Provider,
			"region":         cluster.Region,
			"node_count":     len(cluster.Nodes),
			"monthly_cost":   utils.Round2(cluster.TotalMonthlyCost()),
			"monthly_budget": utils.Round2(cluster.MonthlyBudget),
			"over_budget":    cluster.OverBudget,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"clusters": results, "count": len(results)})
}

func GetCluster(c echo.Context) error {
	cluster, err := telemetryStore().GetCluster(c.Request().Context(), c.Param("cluster-id"))
	if err != nil {
		return apiError(c, err)
	}

	nodes := make([]map[string]interface{}, 0, len(cluster.Nodes))
	for _, node := range cluster.Nodes {
		nodes = append(nodes, map[string]interface{}{
			"id":                  node.UUID,
			"name":                node.Name,
			"instance_class":      node.InstanceClass,
			"zone":                node.Zone,
			"cpu_cores":           node.CPUCores,
			"memory_bytes":        node.MemoryBytes,
			"hourly_cost":         node.HourlyCost,
			"monthly_cost":        utils.Round2(node.MonthlyCost()),
			"last_classification": node.LastClassification,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":             cluster.UUID,
		"name":           cluster.Name,
		"provider":       cluster.Provider,
		"region":         cluster.Region,
		"monthly_cost":   utils.Round2(cluster.TotalMonthlyCost()),
		"monthly_budget": utils.Round2(cluster.MonthlyBudget),
		"over_budget":    cluster.OverBudget,
		"nodes":          nodes,
	})
}

func AnalyzeCluster(c echo.Context) error {
	result, err := analysisEngine().RunAnalysis(c.Request().Context(), c.Param("cluster-id"), time.Now().UTC())
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, roundAnalysisMoney(result))
}

// roundAnalysisMoney rounds the monetary fields of an analysis for the
// wire. The engine keeps full precision internally.
func roundAnalysisMoney(result services.AnalysisResult) services.AnalysisResult {
	result.PotentialSavings = utils.Round2(result.PotentialSavings)
	result.ConfidenceScore = utils.Round2(result.ConfidenceScore)
	for i := range result.Recommendations {
		result.Recommendations[i].SavingsEstimate = utils.Round2(result.Recommendations[i].SavingsEstimate)
	}
	return result
}

func GetClusterRecommendations(c echo.Context) error {
	clusterUUID := c.Param("cluster-id")
	if _, err := telemetryStore().GetCluster(c.Request().Context(), clusterUUID); err != nil {
		return apiError(c, err)
	}

	cluster, err := model.GetClusterByUUID(clusterUUID)
	if err != nil {
		return apiError(c, types.NewUpstreamUnavailableError("analysis store", err))
	}
	run, err := model.GetLatestAnalysisRun(cluster.ID)
	if err != nil {
		return apiError(c, types.NewUpstreamUnavailableError("analysis store", err))
	}
	if run == nil {
		return c.JSON(http.StatusOK, echo.Map{
			"cluster_id":      clusterUUID,
			"recommendations": []recommender.Recommendation{},
			"count":           0,
		})
	}

	var recommendations []recommender.Recommendation
	if err := json.Unmarshal(run.Recommendations, &recommendations); err != nil {
		log.Error("unable to unmarshal cached recommendations", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "internal error"})
	}
	for i := range recommendations {
		recommendations[i].SavingsEstimate = utils.Round2(recommendations[i].SavingsEstimate)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"cluster_id":        clusterUUID,
		"analysis_id":       run.AnalysisUUID,
		"created_at":        run.CreatedAt,
		"potential_savings": utils.Round2(run.PotentialSavings),
		"confidence_score":  utils.Round2(run.ConfidenceScore),
		"ai_insights":       run.AIInsights,
		"recommendations":   recommendations,
		"count":             len(recommendations),
	})
}

func GetDashboardOverview(c echo.Context) error {
	ctx := c.Request().Context()
	clusters, err := telemetryStore().ListClusters(ctx)
	if err != nil {
		return apiError(c, err)
	}

	now := time.Now().UTC()
	utilFrom := now.Add(-time.Duration(cfg.LookbackHours) * time.Hour)
	trendFrom := now.AddDate(0, 0, -7)

	var totalNodes int
	var totalMonthlyCost float64
	var cpuSum, memSum float64
	var sampleCount int
	trend := map[string]float64{}
	for _, cluster := range clusters {
		totalNodes += len(cluster.Nodes)
		totalMonthlyCost += cluster.TotalMonthlyCost()

		samples, err := telemetryStore().SamplesInWindow(ctx, cluster.UUID, utilFrom, now)
		if err != nil {
			return apiError(c, err)
		}
		for _, sample := range samples {
			cpuSum += sample.CPURatio
			memSum += sample.MemoryRatio
		}
		sampleCount += len(samples)

		daily, err := telemetryStore().DailyCosts(ctx, cluster.UUID, trendFrom, now)
		if err != nil {
			return apiError(c, err)
		}
		for _, entry := range daily {
			trend[entry.Date.Format(dateLayout)] += entry.Cost
		}
	}

	var avgCPU, avgMemory float64
	if sampleCount > 0 {
		avgCPU = cpuSum / float64(sampleCount)
		avgMemory = memSum / float64(sampleCount)
	}

	dates := make([]string, 0, len(trend))
	for date := range trend {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	costTrend := make([]map[string]interface{}, 0, len(dates))
	for _, date := range dates {
		costTrend = append(costTrend, map[string]interface{}{
			"date": date,
			"cost": utils.Round2(trend[date]),
		})
	}

	var potentialSavings float64
	runs, err := model.GetLatestAnalysisRuns()
	if err != nil {
		return apiError(c, types.NewUpstreamUnavailableError("analysis store", err))
	}
	for _, run := range runs {
		potentialSavings += run.PotentialSavings
	}

	unresolved := false
	active, err := getAlertManager().List(ctx, alerts.Filter{Resolved: &unresolved})
	if err != nil {
		return apiError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_clusters":          len(clusters),
		"total_nodes":             totalNodes,
		"total_monthly_cost":      utils.Round2(totalMonthlyCost),
		"potential_savings":       utils.Round2(potentialSavings),
		"active_alerts":           len(active),
		"avg_cpu_utilization":     utils.Round2(avgCPU * 100),
		"avg_memory_utilization":  utils.Round2(avgMemory * 100),
		"daily_cost_trend":        costTrend,
	})
}

func GetAlertList(c echo.Context) error {
	resolved, err := ParseResolvedParam(c.QueryParam("resolved"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
	}
	filter := alerts.Filter{
		ClusterUUID: c.QueryParam("cluster_id"),
		Resolved:    resolved,
	}
	list, err := getAlertManager().List(c.Request().Context(), filter)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"alerts": list, "count": len(list)})
}

func ResolveAlert(c echo.Context) error {
	alert, err := getAlertManager().Resolve(c.Request().Context(), c.Param("alert-id"), time.Now().UTC())
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, alert)
}

func GetCostAnalysis(c echo.Context) error {
	ctx := c.Request().Context()
	clusters, err := telemetryStore().ListClusters(ctx)
	if err != nil {
		return apiError(c, err)
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -cfg.AnomalyWindowDays)

	var grandTotal float64
	results := make([]map[string]interface{}, 0, len(clusters))
	for _, cluster := range clusters {
		daily, err := telemetryStore().DailyCosts(ctx, cluster.UUID, from, now)
		if err != nil {
			return apiError(c, err)
		}
		costs := make([]map[string]interface{}, 0, len(daily))
		for _, entry := range daily {
			costs = append(costs, map[string]interface{}{
				"date": entry.Date.Format(dateLayout),
				"cost": utils.Round2(entry.Cost),
			})
		}
		monthly := cluster.TotalMonthlyCost()
		grandTotal += monthly
		results = append(results, map[string]interface{}{
			"cluster_id":     cluster.UUID,
			"name":           cluster.Name,
			"monthly_cost":   utils.Round2(monthly),
			"monthly_budget": utils.Round2(cluster.MonthlyBudget),
			"over_budget":    cluster.OverBudget,
			"daily_costs":    costs,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"clusters":           results,
		"total_monthly_cost": utils.Round2(grandTotal),
	})
}
