package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Common errors returned by the TaskQueue
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// TaskQueue implements a buffered task queue that satisfies both
// TaskQueueReader and TaskQueueWriter interfaces. It is safe for
// concurrent use.
type TaskQueue struct {
	tasks  chan Task
	logger *slog.Logger
	mu     sync.Mutex
	closed bool
}

// NewTaskQueue creates a new task queue with the specified buffer size.
// If logger is nil, the default logger is used.
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskQueue{
		tasks:  make(chan Task, size),
		logger: logger.With(slog.String("component", "task_queue")),
	}
}

// Enqueue adds a task to the queue for processing.
// Returns ErrQueueClosed if the queue has been closed, and ErrQueueFull
// if the buffer has no room for the task.
func (q *TaskQueue) Enqueue(task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- task:
		q.logger.Debug("task enqueued",
			slog.String("task_id", task.ID().String()),
			slog.String("task_type", task.Type()))
		return nil
	default:
		q.logger.Warn("failed to enqueue task, queue is full",
			slog.String("task_id", task.ID().String()),
			slog.String("task_type", task.Type()),
			slog.Int("capacity", cap(q.tasks)))
		return fmt.Errorf("%w: capacity %d", ErrQueueFull, cap(q.tasks))
	}
}

// GetChannel returns a read-only channel for consuming tasks.
func (q *TaskQueue) GetChannel() <-chan Task {
	return q.tasks
}

// Close closes the task queue, preventing further task submission.
// Workers draining the channel will see it close once empty.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.tasks)
	q.logger.Debug("task queue closed")
}

// Ensure TaskQueue satisfies both queue interfaces
var (
	_ TaskQueueReader = (*TaskQueue)(nil)
	_ TaskQueueWriter = (*TaskQueue)(nil)
)
