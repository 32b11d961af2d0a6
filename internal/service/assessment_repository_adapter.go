package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/didiklab/taksir-api/internal/store"
)

// AssessmentRepositoryAdapter adapts a store.AssessmentStore to the
// service's AssessmentRepository interface, carrying the database
// handle so the service can manage transaction boundaries.
type AssessmentRepositoryAdapter struct {
	store store.AssessmentStore
	db    *sql.DB
}

// NewAssessmentRepositoryAdapter creates an adapter over the given
// store and database handle.
func NewAssessmentRepositoryAdapter(
	assessmentStore store.AssessmentStore,
	db *sql.DB,
) *AssessmentRepositoryAdapter {
	return &AssessmentRepositoryAdapter{
		store: assessmentStore,
		db:    db,
	}
}

func (a *AssessmentRepositoryAdapter) Create(ctx context.Context, assessment *domain.Assessment) error {
	return a.store.Create(ctx, assessment)
}

func (a *AssessmentRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assessment, error) {
	return a.store.GetByID(ctx, id)
}

func (a *AssessmentRepositoryAdapter) Update(ctx context.Context, assessment *domain.Assessment) error {
	return a.store.Update(ctx, assessment)
}

// WithTx returns a new adapter whose store operations run in the given
// transaction. The database handle is retained for nested use.
func (a *AssessmentRepositoryAdapter) WithTx(tx *sql.Tx) AssessmentRepository {
	return &AssessmentRepositoryAdapter{
		store: a.store.WithTx(tx),
		db:    a.db,
	}
}

// DB returns the underlying database connection.
func (a *AssessmentRepositoryAdapter) DB() *sql.DB {
	return a.db
}

var _ AssessmentRepository = (*AssessmentRepositoryAdapter)(nil)
