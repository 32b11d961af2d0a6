package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/didiklab/taksir-api/internal/events"
	"github.com/didiklab/taksir-api/internal/store"
	"github.com/didiklab/taksir-api/internal/task"
)

// AssessmentRepository defines the data access operations the
// assessment service needs. It mirrors store.AssessmentStore but adds
// DB access so the service can own transaction boundaries.
type AssessmentRepository interface {
	// Create saves a new assessment record.
	Create(ctx context.Context, assessment *domain.Assessment) error

	// GetByID retrieves an assessment by its unique ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Assessment, error)

	// Update saves changes to an existing assessment.
	Update(ctx context.Context, assessment *domain.Assessment) error

	// WithTx returns a repository bound to the given transaction.
	WithTx(tx *sql.Tx) AssessmentRepository

	// DB returns the underlying database connection for transaction management.
	DB() *sql.DB
}

// AnalysisRepository defines read access to stored analysis results.
type AnalysisRepository interface {
	// GetByAssessmentID retrieves the analysis for the given assessment.
	GetByAssessmentID(ctx context.Context, assessmentID uuid.UUID) (*domain.Analysis, error)
}

// EventEmitter publishes task request events to interested handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error
}

// AssessmentService coordinates assessment submission and retrieval.
type AssessmentService interface {
	// CreateAssessmentAndEnqueueTask persists a new pending assessment
	// for the user and emits an analysis task request event. The
	// assessment is returned immediately; analysis happens in the
	// background.
	CreateAssessmentAndEnqueueTask(
		ctx context.Context,
		userID uuid.UUID,
		studentID string,
		gradeLevel int,
		subjects map[string]domain.SubjectScores,
	) (*domain.Assessment, error)

	// GetAssessment retrieves an assessment owned by the given user.
	// Returns ErrAssessmentNotFound if it does not exist and ErrNotOwned
	// if it belongs to a different user.
	GetAssessment(ctx context.Context, assessmentID, userID uuid.UUID) (*domain.Assessment, error)

	// GetAnalysis retrieves the analysis for an assessment owned by the
	// given user. Returns ErrAnalysisNotFound if analysis has not
	// completed yet.
	GetAnalysis(ctx context.Context, assessmentID, userID uuid.UUID) (*domain.Analysis, error)
}

// assessmentServiceImpl implements AssessmentService.
type assessmentServiceImpl struct {
	assessmentRepo AssessmentRepository
	analysisRepo   AnalysisRepository
	eventEmitter   EventEmitter
	logger         *slog.Logger
}

// NewAssessmentService creates a new AssessmentService.
// Panics if any dependency is nil; missing dependencies are a
// programmer error caught during startup.
func NewAssessmentService(
	assessmentRepo AssessmentRepository,
	analysisRepo AnalysisRepository,
	eventEmitter EventEmitter,
	logger *slog.Logger,
) AssessmentService {
	if assessmentRepo == nil {
		panic("assessmentRepo cannot be nil")
	}
	if analysisRepo == nil {
		panic("analysisRepo cannot be nil")
	}
	if eventEmitter == nil {
		panic("eventEmitter cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &assessmentServiceImpl{
		assessmentRepo: assessmentRepo,
		analysisRepo:   analysisRepo,
		eventEmitter:   eventEmitter,
		logger:         logger.With(slog.String("component", "assessment_service")),
	}
}

// analysisTaskPayload is the event payload consumed by the task event
// handler to construct an analysis task.
type analysisTaskPayload struct {
	AssessmentID string `json:"assessment_id"`
}

func (s *assessmentServiceImpl) CreateAssessmentAndEnqueueTask(
	ctx context.Context,
	userID uuid.UUID,
	studentID string,
	gradeLevel int,
	subjects map[string]domain.SubjectScores,
) (*domain.Assessment, error) {
	log := s.logger.With(slog.String("user_id", userID.String()), slog.String("student_id", studentID))

	assessment, err := domain.NewAssessment(userID, studentID, gradeLevel, subjects)
	if err != nil {
		log.WarnContext(ctx, "assessment validation failed", slog.String("error", err.Error()))
		return nil, NewAssessmentServiceError("create assessment", err)
	}

	err = store.RunInTransaction(ctx, s.assessmentRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		return s.assessmentRepo.WithTx(tx).Create(ctx, assessment)
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to save assessment", slog.String("error", err.Error()))
		return nil, NewAssessmentServiceError("save assessment", err)
	}

	event, err := events.NewTaskRequestEvent(task.TaskTypeAssessmentAnalysis, analysisTaskPayload{
		AssessmentID: assessment.ID.String(),
	})
	if err != nil {
		return nil, NewAssessmentServiceError("create task event", err)
	}

	// The assessment is already committed; an emit failure leaves it
	// pending so the client can re-submit without losing the record.
	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		log.ErrorContext(ctx, "failed to emit analysis task event",
			slog.String("assessment_id", assessment.ID.String()),
			slog.String("error", err.Error()))
		return nil, NewAssessmentServiceError("emit task event", err)
	}

	log.InfoContext(ctx, "assessment created and analysis task enqueued",
		slog.String("assessment_id", assessment.ID.String()))

	return assessment, nil
}

func (s *assessmentServiceImpl) GetAssessment(
	ctx context.Context,
	assessmentID, userID uuid.UUID,
) (*domain.Assessment, error) {
	assessment, err := s.getOwnedAssessment(ctx, assessmentID, userID)
	if err != nil {
		return nil, err
	}
	return assessment, nil
}

func (s *assessmentServiceImpl) GetAnalysis(
	ctx context.Context,
	assessmentID, userID uuid.UUID,
) (*domain.Analysis, error) {
	if _, err := s.getOwnedAssessment(ctx, assessmentID, userID); err != nil {
		return nil, err
	}

	analysis, err := s.analysisRepo.GetByAssessmentID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, store.ErrAnalysisNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, NewAssessmentServiceError("get analysis", err)
	}

	return analysis, nil
}

// getOwnedAssessment fetches the assessment and verifies ownership.
func (s *assessmentServiceImpl) getOwnedAssessment(
	ctx context.Context,
	assessmentID, userID uuid.UUID,
) (*domain.Assessment, error) {
	assessment, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, store.ErrAssessmentNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, NewAssessmentServiceError("get assessment", fmt.Errorf("retrieving assessment %s: %w", assessmentID, err))
	}
	if assessment.UserID != userID {
		return nil, ErrNotOwned
	}
	return assessment, nil
}
