package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/didiklab/taksir-api/internal/platform/logger"
	"github.com/didiklab/taksir-api/internal/store"
	"github.com/google/uuid"
)

// analysisResult is the JSONB document stored in the result column.
// It groups the structured parts of an analysis so the table schema stays
// stable as the analyzer's output evolves.
type analysisResult struct {
	PerformanceLevels          map[string]domain.SubjectLevel `json:"performance_levels"`
	Strengths                  []domain.Finding               `json:"strengths"`
	Weaknesses                 []domain.Finding               `json:"weaknesses"`
	ImprovementRecommendations []domain.Recommendation        `json:"improvement_recommendations"`
	EnrichmentActivities       []domain.Recommendation        `json:"enrichment_activities"`
	RawResponse                json.RawMessage                `json:"raw_response,omitempty"`
}

// PostgresAnalysisStore implements the store.AnalysisStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAnalysisStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAnalysisStore creates a new PostgreSQL implementation of the
// AnalysisStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAnalysisStore(db store.DBTX, logger *slog.Logger) *PostgresAnalysisStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAnalysisStore{
		db:     db,
		logger: logger.With(slog.String("component", "analysis_store")),
	}
}

// Ensure PostgresAnalysisStore implements store.AnalysisStore interface
var _ store.AnalysisStore = (*PostgresAnalysisStore)(nil)

// Create implements store.AnalysisStore.Create
// It saves a new analysis to the database, handling domain validation.
// Returns store.ErrAnalysisExists if an analysis is already stored for the
// assessment, and store.ErrInvalidEntity if the assessment ID doesn't exist.
func (s *PostgresAnalysisStore) Create(ctx context.Context, analysis *domain.Analysis) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := analysis.Validate(); err != nil {
		log.Warn("analysis validation failed during create",
			slog.String("error", err.Error()),
			slog.String("analysis_id", analysis.ID.String()))
		return err
	}

	result, err := json.Marshal(analysisResult{
		PerformanceLevels:          analysis.PerformanceLevels,
		Strengths:                  analysis.Strengths,
		Weaknesses:                 analysis.Weaknesses,
		ImprovementRecommendations: analysis.ImprovementRecommendations,
		EnrichmentActivities:       analysis.EnrichmentActivities,
		RawResponse:                analysis.RawResponse,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	query := `
		INSERT INTO analyses (id, assessment_id, model_name, result, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		analysis.ID,
		analysis.AssessmentID,
		analysis.ModelName,
		result,
		analysis.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("analysis already exists for assessment",
				slog.String("assessment_id", analysis.AssessmentID.String()))
			return fmt.Errorf("%w: %v", store.ErrAnalysisExists, err)
		}
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during analysis creation",
				slog.String("error", err.Error()),
				slog.String("assessment_id", analysis.AssessmentID.String()))
			return fmt.Errorf("%w: assessment with ID %s not found",
				store.ErrInvalidEntity, analysis.AssessmentID)
		}

		log.Error("failed to create analysis",
			slog.String("error", err.Error()),
			slog.String("analysis_id", analysis.ID.String()),
			slog.String("assessment_id", analysis.AssessmentID.String()))
		return MapError(err)
	}

	log.Info("analysis created successfully",
		slog.String("analysis_id", analysis.ID.String()),
		slog.String("assessment_id", analysis.AssessmentID.String()),
		slog.String("model_name", analysis.ModelName))
	return nil
}

// GetByAssessmentID implements store.AnalysisStore.GetByAssessmentID
// Returns store.ErrAnalysisNotFound if no analysis exists for the assessment.
func (s *PostgresAnalysisStore) GetByAssessmentID(
	ctx context.Context,
	assessmentID uuid.UUID,
) (*domain.Analysis, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving analysis by assessment ID",
		slog.String("assessment_id", assessmentID.String()))

	query := `
		SELECT id, assessment_id, model_name, result, created_at
		FROM analyses
		WHERE assessment_id = $1
	`

	var analysis domain.Analysis
	var result []byte

	err := s.db.QueryRowContext(ctx, query, assessmentID).Scan(
		&analysis.ID,
		&analysis.AssessmentID,
		&analysis.ModelName,
		&result,
		&analysis.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("analysis not found",
				slog.String("assessment_id", assessmentID.String()))
			return nil, store.ErrAnalysisNotFound
		}
		log.Error("failed to get analysis by assessment ID",
			slog.String("error", err.Error()),
			slog.String("assessment_id", assessmentID.String()))
		return nil, MapError(err)
	}

	var doc analysisResult
	if err := json.Unmarshal(result, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
	}

	analysis.PerformanceLevels = doc.PerformanceLevels
	analysis.Strengths = doc.Strengths
	analysis.Weaknesses = doc.Weaknesses
	analysis.ImprovementRecommendations = doc.ImprovementRecommendations
	analysis.EnrichmentActivities = doc.EnrichmentActivities
	analysis.RawResponse = doc.RawResponse

	return &analysis, nil
}

// WithTx implements store.AnalysisStore.WithTx
// It returns a new AnalysisStore instance that uses the provided transaction.
func (s *PostgresAnalysisStore) WithTx(tx *sql.Tx) store.AnalysisStore {
	return &PostgresAnalysisStore{
		db:     tx,
		logger: s.logger,
	}
}
