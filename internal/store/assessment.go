package store

import (
	"context"
	"database/sql"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/google/uuid"
)

// AssessmentStore defines the interface for assessment data persistence.
type AssessmentStore interface {
	// Create saves a new assessment to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain Assessment if data is invalid.
	Create(ctx context.Context, assessment *domain.Assessment) error

	// GetByID retrieves an assessment by its unique ID.
	// Returns ErrAssessmentNotFound if the assessment does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Assessment, error)

	// Update saves changes to an existing assessment.
	// Returns ErrAssessmentNotFound if the assessment does not exist.
	// Returns validation errors if the assessment data is invalid.
	Update(ctx context.Context, assessment *domain.Assessment) error

	// UpdateStatus updates the status of an existing assessment.
	// Returns ErrAssessmentNotFound if the assessment does not exist.
	// Returns validation errors if the status is invalid.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AssessmentStatus) error

	// FindByStatus retrieves all assessments with the specified status.
	// Returns an empty slice if no assessments match the criteria.
	// Can limit the number of results and paginate through offset.
	FindByStatus(
		ctx context.Context,
		status domain.AssessmentStatus,
		limit, offset int,
	) ([]*domain.Assessment, error)

	// WithTx returns a new AssessmentStore instance that uses the provided
	// transaction. The transaction should be created and managed by the
	// caller (typically a service).
	WithTx(tx *sql.Tx) AssessmentStore
}
