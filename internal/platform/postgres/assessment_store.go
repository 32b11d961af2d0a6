package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/didiklab/taksir-api/internal/platform/logger"
	"github.com/didiklab/taksir-api/internal/store"
	"github.com/google/uuid"
)

// PostgresAssessmentStore implements the store.AssessmentStore interface
// using a PostgreSQL database as the storage backend. Subject scores are
// stored as a JSONB column keyed by subject name.
type PostgresAssessmentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAssessmentStore creates a new PostgreSQL implementation of the
// AssessmentStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAssessmentStore(db store.DBTX, logger *slog.Logger) *PostgresAssessmentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAssessmentStore{
		db:     db,
		logger: logger.With(slog.String("component", "assessment_store")),
	}
}

// Ensure PostgresAssessmentStore implements store.AssessmentStore interface
var _ store.AssessmentStore = (*PostgresAssessmentStore)(nil)

// Create implements store.AssessmentStore.Create
// It saves a new assessment to the database, handling domain validation.
// Returns validation errors from the domain Assessment if data is invalid.
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key violation).
func (s *PostgresAssessmentStore) Create(ctx context.Context, assessment *domain.Assessment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := assessment.Validate(); err != nil {
		log.Warn("assessment validation failed during create",
			slog.String("error", err.Error()),
			slog.String("assessment_id", assessment.ID.String()))
		return err
	}

	subjects, err := json.Marshal(assessment.Subjects)
	if err != nil {
		return fmt.Errorf("failed to marshal subject scores: %w", err)
	}

	query := `
		INSERT INTO assessments (id, user_id, student_id, grade_level, subjects, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		assessment.ID,
		assessment.UserID,
		assessment.StudentID,
		assessment.GradeLevel,
		subjects,
		assessment.Status,
		assessment.CreatedAt,
		assessment.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during assessment creation",
				slog.String("error", err.Error()),
				slog.String("assessment_id", assessment.ID.String()),
				slog.String("user_id", assessment.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, assessment.UserID)
		}

		log.Error("failed to create assessment",
			slog.String("error", err.Error()),
			slog.String("assessment_id", assessment.ID.String()),
			slog.String("user_id", assessment.UserID.String()))
		return MapError(err)
	}

	log.Info("assessment created successfully",
		slog.String("assessment_id", assessment.ID.String()),
		slog.String("student_id", assessment.StudentID),
		slog.String("status", string(assessment.Status)))
	return nil
}

// GetByID implements store.AssessmentStore.GetByID
// Returns store.ErrAssessmentNotFound if the assessment does not exist.
func (s *PostgresAssessmentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assessment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving assessment by ID", slog.String("assessment_id", id.String()))

	query := `
		SELECT id, user_id, student_id, grade_level, subjects, status, created_at, updated_at
		FROM assessments
		WHERE id = $1
	`

	assessment, err := scanAssessment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("assessment not found", slog.String("assessment_id", id.String()))
			return nil, store.ErrAssessmentNotFound
		}
		log.Error("failed to get assessment by ID",
			slog.String("error", err.Error()),
			slog.String("assessment_id", id.String()))
		return nil, err
	}

	return assessment, nil
}

// Update implements store.AssessmentStore.Update
// Returns store.ErrAssessmentNotFound if the assessment does not exist.
func (s *PostgresAssessmentStore) Update(ctx context.Context, assessment *domain.Assessment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := assessment.Validate(); err != nil {
		log.Warn("assessment validation failed during update",
			slog.String("error", err.Error()),
			slog.String("assessment_id", assessment.ID.String()))
		return err
	}

	subjects, err := json.Marshal(assessment.Subjects)
	if err != nil {
		return fmt.Errorf("failed to marshal subject scores: %w", err)
	}

	query := `
		UPDATE assessments
		SET student_id = $1, grade_level = $2, subjects = $3, status = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		assessment.StudentID,
		assessment.GradeLevel,
		subjects,
		assessment.Status,
		assessment.UpdatedAt,
		assessment.ID,
	)

	if err != nil {
		log.Error("failed to update assessment",
			slog.String("error", err.Error()),
			slog.String("assessment_id", assessment.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "assessment"); err != nil {
		log.Debug("assessment not found for update",
			slog.String("assessment_id", assessment.ID.String()))
		return store.ErrAssessmentNotFound
	}

	log.Info("assessment updated successfully",
		slog.String("assessment_id", assessment.ID.String()),
		slog.String("status", string(assessment.Status)))
	return nil
}

// UpdateStatus implements store.AssessmentStore.UpdateStatus
// Returns store.ErrAssessmentNotFound if the assessment does not exist.
// Returns domain.ErrInvalidAssessmentStatus if the status is invalid.
func (s *PostgresAssessmentStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.AssessmentStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("updating assessment status",
		slog.String("assessment_id", id.String()),
		slog.String("status", string(status)))

	if !domain.IsValidAssessmentStatus(status) {
		log.Warn("invalid status for assessment update",
			slog.String("assessment_id", id.String()),
			slog.String("status", string(status)))
		return domain.ErrInvalidAssessmentStatus
	}

	query := `
		UPDATE assessments
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update assessment status",
			slog.String("error", err.Error()),
			slog.String("assessment_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "assessment"); err != nil {
		log.Debug("assessment not found for status update",
			slog.String("assessment_id", id.String()))
		return store.ErrAssessmentNotFound
	}

	log.Info("assessment status updated successfully",
		slog.String("assessment_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// FindByStatus implements store.AssessmentStore.FindByStatus
// Returns an empty slice if no assessments match the criteria.
func (s *PostgresAssessmentStore) FindByStatus(
	ctx context.Context,
	status domain.AssessmentStatus,
	limit, offset int,
) ([]*domain.Assessment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 10 // Default limit
	}
	if offset < 0 {
		offset = 0
	}

	log.Debug("finding assessments by status",
		slog.String("status", string(status)),
		slog.Int("limit", limit),
		slog.Int("offset", offset))

	query := `
		SELECT id, user_id, student_id, grade_level, subjects, status, created_at, updated_at
		FROM assessments
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		log.Error("failed to query assessments by status",
			slog.String("error", err.Error()),
			slog.String("status", string(status)))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var assessments []*domain.Assessment
	for rows.Next() {
		assessment, err := scanAssessment(rows)
		if err != nil {
			log.Error("failed to scan assessment row",
				slog.String("error", err.Error()))
			return nil, err
		}
		assessments = append(assessments, assessment)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no assessments found
	if assessments == nil {
		assessments = []*domain.Assessment{}
	}

	log.Debug("found assessments by status",
		slog.String("status", string(status)),
		slog.Int("count", len(assessments)))
	return assessments, nil
}

// WithTx implements store.AssessmentStore.WithTx
// It returns a new AssessmentStore instance that uses the provided transaction.
func (s *PostgresAssessmentStore) WithTx(tx *sql.Tx) store.AssessmentStore {
	return &PostgresAssessmentStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts over *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAssessment maps a database row onto a domain.Assessment, decoding the
// JSONB subjects column.
func scanAssessment(row rowScanner) (*domain.Assessment, error) {
	var assessment domain.Assessment
	var subjects []byte
	var status string

	err := row.Scan(
		&assessment.ID,
		&assessment.UserID,
		&assessment.StudentID,
		&assessment.GradeLevel,
		&subjects,
		&status,
		&assessment.CreatedAt,
		&assessment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(subjects, &assessment.Subjects); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subject scores: %w", err)
	}
	assessment.Status = domain.AssessmentStatus(status)

	return &assessment, nil
}
