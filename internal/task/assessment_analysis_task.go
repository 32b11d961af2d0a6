package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrNilAssessmentService = errors.New("assessment service cannot be nil")
	ErrNilAnalyzer          = errors.New("analyzer cannot be nil")
	ErrNilLogger            = errors.New("logger cannot be nil")
	ErrEmptyAssessmentID    = errors.New("assessment ID cannot be empty")
)

// AssessmentService defines the assessment operations the task needs.
// It is declared here, rather than importing the service package, to keep
// the dependency direction from service to task.
type AssessmentService interface {
	// GetAssessment retrieves an assessment by its ID
	GetAssessment(ctx context.Context, assessmentID uuid.UUID) (*domain.Assessment, error)

	// UpdateAssessmentStatus updates an assessment's status
	UpdateAssessmentStatus(ctx context.Context, assessmentID uuid.UUID, status domain.AssessmentStatus) error

	// SaveAnalysis persists the analysis produced for an assessment
	SaveAnalysis(ctx context.Context, analysis *domain.Analysis) error
}

// Analyzer defines the interface for assessment analysis services
type Analyzer interface {
	// AnalyzeAssessment produces a structured analysis for the assessment
	AnalyzeAssessment(ctx context.Context, assessment *domain.Assessment) (*domain.Analysis, error)
}

// assessmentAnalysisPayload represents the serialized data stored in the task
type assessmentAnalysisPayload struct {
	AssessmentID uuid.UUID `json:"assessment_id"`
}

// AssessmentAnalysisTask implements the Task interface for analyzing a
// student assessment record through the configured Analyzer.
type AssessmentAnalysisTask struct {
	id           uuid.UUID
	assessmentID uuid.UUID
	service      AssessmentService
	analyzer     Analyzer
	logger       *slog.Logger
	status       TaskStatus
}

// NewAssessmentAnalysisTask creates a new assessment analysis task
func NewAssessmentAnalysisTask(
	assessmentID uuid.UUID,
	service AssessmentService,
	analyzer Analyzer,
	logger *slog.Logger,
) (*AssessmentAnalysisTask, error) {
	if service == nil {
		return nil, ErrNilAssessmentService
	}
	if analyzer == nil {
		return nil, ErrNilAnalyzer
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if assessmentID == uuid.Nil {
		return nil, ErrEmptyAssessmentID
	}

	return &AssessmentAnalysisTask{
		id:           uuid.New(),
		assessmentID: assessmentID,
		service:      service,
		analyzer:     analyzer,
		logger: logger.With(
			slog.String("task_type", TaskTypeAssessmentAnalysis),
			slog.String("assessment_id", assessmentID.String())),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *AssessmentAnalysisTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *AssessmentAnalysisTask) Type() string {
	return TaskTypeAssessmentAnalysis
}

// Payload returns the task data as a byte slice
func (t *AssessmentAnalysisTask) Payload() []byte {
	payload := assessmentAnalysisPayload{
		AssessmentID: t.assessmentID,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// If marshal fails, return an empty payload with error logged
		t.logger.Error("failed to marshal task payload", slog.String("error", err.Error()))
		return []byte{}
	}

	return data
}

// Status returns the current task status
func (t *AssessmentAnalysisTask) Status() TaskStatus {
	return t.status
}

// Execute runs the assessment analysis task, handling the complete
// lifecycle: fetching the assessment, marking it processing, calling the
// analyzer, saving the analysis, and finalizing the assessment status.
// Failures at any step mark the assessment failed.
func (t *AssessmentAnalysisTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting assessment analysis task")

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("task cancelled by context", slog.String("error", err.Error()))
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	// 1. Retrieve the assessment
	assessment, err := t.service.GetAssessment(ctx, t.assessmentID)
	if err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("failed to retrieve assessment", slog.String("error", err.Error()))
		return fmt.Errorf("failed to retrieve assessment: %w", err)
	}

	t.logger.Info("retrieved assessment",
		slog.String("student_id", assessment.StudentID),
		slog.String("assessment_status", string(assessment.Status)))

	// 2. Mark the assessment as processing
	err = t.service.UpdateAssessmentStatus(ctx, t.assessmentID, domain.AssessmentStatusProcessing)
	if err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("failed to update assessment status to processing",
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update assessment status to processing: %w", err)
	}

	// 3. Analyze the assessment
	t.logger.Info("analyzing assessment")
	analysis, err := t.analyzer.AnalyzeAssessment(ctx, assessment)
	if err != nil {
		_ = t.service.UpdateAssessmentStatus(ctx, t.assessmentID, domain.AssessmentStatusFailed)
		t.status = TaskStatusFailed
		t.logger.Error("failed to analyze assessment", slog.String("error", err.Error()))
		return fmt.Errorf("failed to analyze assessment: %w", err)
	}

	// 4. Save the analysis
	if err := t.service.SaveAnalysis(ctx, analysis); err != nil {
		_ = t.service.UpdateAssessmentStatus(ctx, t.assessmentID, domain.AssessmentStatusFailed)
		t.status = TaskStatusFailed
		t.logger.Error("failed to save analysis", slog.String("error", err.Error()))
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	// 5. Mark the assessment completed
	err = t.service.UpdateAssessmentStatus(ctx, t.assessmentID, domain.AssessmentStatusCompleted)
	if err != nil {
		// Log the error but don't fail the task, the analysis is saved
		t.logger.Error("failed to update assessment final status, but analysis was saved",
			slog.String("error", err.Error()))
	}

	t.status = TaskStatusCompleted
	t.logger.Info("assessment analysis task completed successfully",
		slog.String("analysis_id", analysis.ID.String()))
	return nil
}
