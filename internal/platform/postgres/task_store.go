package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/didiklab/taksir-api/internal/platform/logger"
	"github.com/didiklab/taksir-api/internal/store"
	"github.com/didiklab/taksir-api/internal/task"
	"github.com/google/uuid"
)

// PostgresTaskStore implements the task.TaskStore interface using PostgreSQL.
type PostgresTaskStore struct {
	db store.DBTX
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &PostgresTaskStore{
		db: db,
	}
}

// Ensure PostgresTaskStore implements task.TaskStore interface
var _ task.TaskStore = (*PostgresTaskStore)(nil)

// SaveTask persists a task to the database.
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		t.Payload(),
		t.Status(),
		now,
		now,
	)

	if err != nil {
		log.Error("failed to save task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save task to database: %w", MapError(err))
	}

	return nil
}

// UpdateTaskStatus updates the status of a task in the database.
// A missing task is treated as a no-op so the runner can safely report
// progress for tasks that were cleaned up concurrently.
func (s *PostgresTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		status,
		errorMsg,
		time.Now().UTC(),
		taskID,
	)

	if err != nil {
		log.Error("failed to update task status",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update task status: %w", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		log.Warn("no task found with ID to update status",
			slog.String("task_id", taskID.String()))
		return nil
	}

	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status.
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status.
// If olderThan is non-zero, only tasks that have been in that state longer
// than the specified duration are returned.
func (s *PostgresTaskStore) GetProcessingTasks(
	ctx context.Context,
	olderThan time.Duration,
) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

// WithTx implements task.TaskStore.WithTx
// It returns a new TaskStore instance that uses the provided transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresTaskStore{
		db: tx,
	}
}

// getTasksByStatus is a helper method to get tasks by status with optional age filter.
func (s *PostgresTaskStore) getTasksByStatus(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]task.Task, error) {
	log := logger.FromContext(ctx)

	var query string
	var args []interface{}

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM tasks
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []interface{}{status, time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM tasks
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []interface{}{status}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query tasks by status: %w", MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []task.Task

	for rows.Next() {
		var id uuid.UUID
		var taskType string
		var payload []byte
		var taskStatus task.TaskStatus
		var errorMessage sql.NullString
		var createdAt time.Time
		var updatedAt time.Time

		if err := rows.Scan(&id, &taskType, &payload, &taskStatus, &errorMessage, &createdAt, &updatedAt); err != nil {
			log.Error("failed to scan task row",
				slog.String("status", string(status)),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}

		tasks = append(tasks, &databaseTask{
			id:           id,
			taskType:     taskType,
			payload:      payload,
			status:       taskStatus,
			errorMessage: errorMessage.String,
			createdAt:    createdAt,
			updatedAt:    updatedAt,
		})
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// databaseTask implements the task.Task interface for tasks loaded from the
// database. It carries the stored row only; the task runner rebuilds a
// runnable task from its type and payload through a registered rehydrator
// before execution.
type databaseTask struct {
	id           uuid.UUID
	taskType     string
	payload      []byte
	status       task.TaskStatus
	errorMessage string
	createdAt    time.Time
	updatedAt    time.Time
}

// ID returns the task's unique identifier.
func (t *databaseTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier.
func (t *databaseTask) Type() string {
	return t.taskType
}

// Payload returns the task data as a byte slice.
func (t *databaseTask) Payload() []byte {
	return t.payload
}

// Status returns the current task status.
func (t *databaseTask) Status() task.TaskStatus {
	return t.status
}

// Execute always fails: a loaded row holds no dependencies and must be
// rehydrated into a concrete task type before it can run.
func (t *databaseTask) Execute(ctx context.Context) error {
	return errors.New("task loaded from store must be rehydrated before execution")
}
