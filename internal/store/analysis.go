package store

import (
	"context"
	"database/sql"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/google/uuid"
)

// AnalysisStore defines the interface for analysis result persistence.
// Analyses are written once by the background pipeline and never updated.
type AnalysisStore interface {
	// Create saves a new analysis to the store.
	// Returns ErrAnalysisExists if an analysis is already stored for the
	// assessment, and validation errors if the analysis data is invalid.
	Create(ctx context.Context, analysis *domain.Analysis) error

	// GetByAssessmentID retrieves the analysis stored for the given assessment.
	// Returns ErrAnalysisNotFound if no analysis exists.
	GetByAssessmentID(ctx context.Context, assessmentID uuid.UUID) (*domain.Analysis, error)

	// WithTx returns a new AnalysisStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AnalysisStore
}
