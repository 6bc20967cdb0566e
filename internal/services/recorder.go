package services

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/kubecostopt/costopt-backend/internal/model"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

// GormRecorder caches finished analyses in the analysis_runs table so
// the recommendations endpoint can serve the most recent batch.
type GormRecorder struct{}

func NewGormRecorder() *GormRecorder {
	return &GormRecorder{}
}

func (r *GormRecorder) SaveAnalysis(ctx context.Context, result AnalysisResult) error {
	cluster, err := model.GetClusterByUUID(result.ClusterUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NewNotFoundError("cluster", result.ClusterUUID)
	}
	if err != nil {
		return types.NewUpstreamUnavailableError("analysis store", err)
	}

	marshalData, err := json.Marshal(result.Recommendations)
	if err != nil {
		return err
	}
	run := model.AnalysisRun{
		AnalysisUUID:     result.ID,
		ClusterID:        cluster.ID,
		PotentialSavings: result.PotentialSavings,
		ConfidenceScore:  result.ConfidenceScore,
		AIInsights:       result.AIInsights,
		Recommendations:  marshalData,
		Classifications:  result.Classifications,
		CreatedAt:        result.CreatedAt,
	}
	if err := run.CreateAnalysisRun(); err != nil {
		return types.NewUpstreamUnavailableError("analysis store", err)
	}
	return nil
}
