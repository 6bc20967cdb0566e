package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kubecostopt/costopt-backend/internal/analyzer"
	"github.com/kubecostopt/costopt-backend/internal/logging"
	"github.com/kubecostopt/costopt-backend/internal/recommender"
	"github.com/kubecostopt/costopt-backend/internal/telemetry"
)

// AnalysisResult is the fully composed outcome of one analysis
// invocation. It is assembled in full before being returned or persisted,
// an abandoned call never leaves a partial batch visible.
type AnalysisResult struct {
	ID               string                         `json:"id"`
	ClusterUUID      string                         `json:"cluster_id"`
	PotentialSavings float64                        `json:"potential_savings"`
	ConfidenceScore  float64                        `json:"confidence_score"`
	AIInsights       string                         `json:"ai_insights"`
	Recommendations  []recommender.Recommendation   `json:"recommendations"`
	Classifications  []string                       `json:"classifications"`
	CreatedAt        time.Time                      `json:"created_at"`
}

// Recorder persists a finished analysis. A nil recorder disables caching.
type Recorder interface {
	SaveAnalysis(ctx context.Context, result AnalysisResult) error
}

type Orchestrator struct {
	store     telemetry.Store
	analyzer  *analyzer.Analyzer
	generator *recommender.Generator
	recorder  Recorder

	lookbackHours int
}

func NewOrchestrator(store telemetry.Store, utilAnalyzer *analyzer.Analyzer, generator *recommender.Generator, recorder Recorder, lookbackHours int) *Orchestrator {
	return &Orchestrator{
		store:         store,
		analyzer:      utilAnalyzer,
		generator:     generator,
		recorder:      recorder,
		lookbackHours: lookbackHours,
	}
}

// RunAnalysis is the analyze entry point: validate the cluster, aggregate
// the default window, generate recommendations, compose the result.
// Sparse telemetry lowers the confidence score, it never errors.
func (o *Orchestrator) RunAnalysis(ctx context.Context, clusterUUID string, at time.Time) (AnalysisResult, error) {
	log := logging.GetLogger()

	cluster, err := o.store.GetCluster(ctx, clusterUUID)
	if err != nil {
		return AnalysisResult{}, err
	}

	window := analyzer.WindowEndingAt(at, o.lookbackHours)
	summary, err := o.analyzer.Analyze(ctx, clusterUUID, window)
	if err != nil {
		return AnalysisResult{}, err
	}

	generated := o.generator.Generate(cluster, summary)

	classifications := make([]string, 0, len(summary.Nodes))
	for _, node := range summary.Nodes {
		tag := string(node.Classification)
		if node.InsufficientData {
			tag = "insufficient_data"
		}
		classifications = append(classifications, node.NodeUUID+"="+tag)
	}

	result := AnalysisResult{
		ID:               uuid.NewString(),
		ClusterUUID:      clusterUUID,
		PotentialSavings: generated.PotentialSavings(),
		ConfidenceScore:  generated.ConfidenceScore,
		AIInsights:       generated.Insights,
		Recommendations:  generated.Recommendations,
		Classifications:  classifications,
		CreatedAt:        at,
	}

	if o.recorder != nil {
		if err := o.recorder.SaveAnalysis(ctx, result); err != nil {
			// The composed result is still valid; caching it is best effort.
			log.Errorf("unable to save analysis run for cluster %s: %v", clusterUUID, err)
		}
	}

	analysesTotal.Inc()
	log.Infof("analysis completed for cluster %s: %d recommendation(s), confidence %.0f",
		clusterUUID, len(result.Recommendations), result.ConfidenceScore)
	return result, nil
}
