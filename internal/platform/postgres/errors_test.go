package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/didiklab/taksir-api/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResult implements sql.Result for testing CheckRowsAffected.
type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, MapError(nil))
	})

	t.Run("sql.ErrNoRows maps to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		err := MapError(sql.ErrNoRows)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unique violation maps to ErrDuplicate", func(t *testing.T) {
		t.Parallel()
		pgErr := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "users_email_key"}
		err := MapError(pgErr)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("foreign key violation maps to ErrInvalidEntity", func(t *testing.T) {
		t.Parallel()
		pgErr := &pgconn.PgError{
			Code:           foreignKeyViolationCode,
			ConstraintName: "assessments_user_id_fkey",
		}
		err := MapError(pgErr)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.Contains(t, err.Error(), "assessments_user_id_fkey")
	})

	t.Run("check violation maps to ErrInvalidEntity", func(t *testing.T) {
		t.Parallel()
		pgErr := &pgconn.PgError{Code: checkViolationCode, ConstraintName: "assessments_grade_level_check"}
		err := MapError(pgErr)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("not null violation maps to ErrInvalidEntity", func(t *testing.T) {
		t.Parallel()
		pgErr := &pgconn.PgError{Code: notNullViolationCode, ColumnName: "student_id"}
		err := MapError(pgErr)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.Contains(t, err.Error(), "student_id")
	})

	t.Run("unknown error passes through", func(t *testing.T) {
		t.Parallel()
		original := errors.New("connection reset")
		err := MapError(original)
		assert.Equal(t, original, err)
	})
}

func TestViolationPredicates(t *testing.T) {
	t.Parallel()

	uniqueErr := &pgconn.PgError{Code: uniqueViolationCode}
	fkErr := &pgconn.PgError{Code: foreignKeyViolationCode}

	assert.True(t, IsUniqueViolation(uniqueErr))
	assert.False(t, IsUniqueViolation(fkErr))
	assert.False(t, IsUniqueViolation(errors.New("not a pg error")))

	assert.True(t, IsForeignKeyViolation(fkErr))
	assert.False(t, IsForeignKeyViolation(uniqueErr))

	// Wrapped errors are still detected.
	wrapped := fmt.Errorf("insert failed: %w", uniqueErr)
	assert.True(t, IsUniqueViolation(wrapped))
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(store.ErrNotFound))
	assert.True(t, IsNotFoundError(store.ErrAssessmentNotFound))
	assert.False(t, IsNotFoundError(errors.New("boom")))
	assert.False(t, IsNotFoundError(nil))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	t.Run("nil result returns error", func(t *testing.T) {
		t.Parallel()
		err := CheckRowsAffected(nil, "user")
		require.Error(t, err)
	})

	t.Run("rows affected error is wrapped", func(t *testing.T) {
		t.Parallel()
		err := CheckRowsAffected(fakeResult{err: errors.New("driver failure")}, "user")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "driver failure")
	})

	t.Run("zero rows returns ErrNotFound with entity name", func(t *testing.T) {
		t.Parallel()
		err := CheckRowsAffected(fakeResult{rows: 0}, "assessment")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Contains(t, err.Error(), "assessment")
	})

	t.Run("zero rows without entity name returns bare ErrNotFound", func(t *testing.T) {
		t.Parallel()
		err := CheckRowsAffected(fakeResult{rows: 0}, "")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("affected rows return nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, "user"))
	})
}

func TestMapUniqueViolation(t *testing.T) {
	t.Parallel()

	uniqueErr := &pgconn.PgError{Code: uniqueViolationCode}

	t.Run("non-unique errors pass through", func(t *testing.T) {
		t.Parallel()
		original := errors.New("timeout")
		assert.Equal(t, original, MapUniqueViolation(original, "user", "", nil))
	})

	t.Run("specific error takes precedence", func(t *testing.T) {
		t.Parallel()
		err := MapUniqueViolation(uniqueErr, "user", "", store.ErrEmailExists)
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("entity name builds message", func(t *testing.T) {
		t.Parallel()
		err := MapUniqueViolation(uniqueErr, "analysis", "", nil)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		assert.Contains(t, err.Error(), "analysis already exists")
	})

	t.Run("constraint name builds message", func(t *testing.T) {
		t.Parallel()
		err := MapUniqueViolation(uniqueErr, "", "analyses_assessment_id_key", nil)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		assert.Contains(t, err.Error(), "analyses_assessment_id_key")
	})
}
