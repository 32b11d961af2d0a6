package task

import (
	"context"
	"errors"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/didiklab/taksir-api/internal/store"
	"github.com/google/uuid"
)

// AssessmentServiceAdapter implements AssessmentService directly on top of
// the stores. It is used by the task pipeline, which needs assessment and
// analysis persistence without the event-emitting service layer (emitting
// from a task would loop back into the pipeline).
type AssessmentServiceAdapter struct {
	assessments store.AssessmentStore
	analyses    store.AnalysisStore
}

// NewAssessmentServiceAdapter creates an adapter over the given stores.
func NewAssessmentServiceAdapter(
	assessments store.AssessmentStore,
	analyses store.AnalysisStore,
) (*AssessmentServiceAdapter, error) {
	if assessments == nil {
		return nil, errors.New("assessment store cannot be nil")
	}
	if analyses == nil {
		return nil, errors.New("analysis store cannot be nil")
	}
	return &AssessmentServiceAdapter{
		assessments: assessments,
		analyses:    analyses,
	}, nil
}

// Ensure AssessmentServiceAdapter implements AssessmentService
var _ AssessmentService = (*AssessmentServiceAdapter)(nil)

// GetAssessment retrieves an assessment by its ID.
func (a *AssessmentServiceAdapter) GetAssessment(
	ctx context.Context,
	assessmentID uuid.UUID,
) (*domain.Assessment, error) {
	return a.assessments.GetByID(ctx, assessmentID)
}

// UpdateAssessmentStatus updates an assessment's status.
func (a *AssessmentServiceAdapter) UpdateAssessmentStatus(
	ctx context.Context,
	assessmentID uuid.UUID,
	status domain.AssessmentStatus,
) error {
	return a.assessments.UpdateStatus(ctx, assessmentID, status)
}

// SaveAnalysis persists the analysis produced for an assessment.
// A duplicate analysis is treated as success: the pipeline may retry a task
// whose previous attempt saved the analysis but failed afterwards.
func (a *AssessmentServiceAdapter) SaveAnalysis(
	ctx context.Context,
	analysis *domain.Analysis,
) error {
	err := a.analyses.Create(ctx, analysis)
	if errors.Is(err, store.ErrAnalysisExists) {
		return nil
	}
	return err
}
