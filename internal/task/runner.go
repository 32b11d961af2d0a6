package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRehydrator rebuilds an executable task of one type from its
// persisted ID and payload. Tasks loaded from the store carry data only;
// their dependencies live in the rehydrator.
type TaskRehydrator interface {
	// RehydrateTask returns a runnable task for the stored row
	RehydrateTask(taskID uuid.UUID, payload []byte) (Task, error)
}

// TaskRunner manages background task processing. Tasks are persisted
// through the TaskStore before being queued, so unfinished work survives
// restarts and is requeued by Recover.
type TaskRunner struct {
	store       TaskStore
	queue       *TaskQueue
	ctx         context.Context
	cancelFunc  context.CancelFunc
	wg          sync.WaitGroup
	config      TaskRunnerConfig
	logger      *slog.Logger
	errHandler  func(task Task, err error)
	rehydrators map[string]TaskRehydrator
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		store:      store,
		queue:      NewTaskQueue(config.QueueSize, logger),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				slog.String("task_id", task.ID().String()),
				slog.String("task_type", task.Type()),
				slog.String("error", err.Error()))
		},
		rehydrators: make(map[string]TaskRehydrator),
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// RegisterRehydrator registers the rehydrator used to rebuild recovered
// tasks of the given type. Must be called before Start so Recover can
// requeue runnable tasks.
func (r *TaskRunner) RegisterRehydrator(taskType string, rehydrator TaskRehydrator) {
	r.rehydrators[taskType] = rehydrator
}

// Submit persists a new task and adds it to the queue
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	// Save task to database first so it survives a crash before pickup
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	if err := r.queue.Enqueue(task); err != nil {
		if errors.Is(err, ErrQueueFull) {
			return fmt.Errorf("task queue is full, try again later: %w", err)
		}
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

// Start initializes the worker pool and begins processing tasks
func (r *TaskRunner) Start() error {
	// Recover unfinished tasks from previous runs
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the task runner
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.queue.Close()
	r.wg.Wait()
}

// Recover loads any unfinished tasks from the database and requeues them.
// Tasks interrupted mid-processing are reset to pending first.
func (r *TaskRunner) Recover() error {
	ctx := context.Background()

	pendingTasks, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// Processing tasks regardless of age: a restart means no worker holds them
	processingTasks, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		slog.Int("pending_count", len(pendingTasks)),
		slog.Int("processing_count", len(processingTasks)))

	for _, t := range pendingTasks {
		runnable, err := r.rehydrate(t)
		if err != nil {
			continue
		}

		if err := r.queue.Enqueue(runnable); err != nil {
			r.logger.Error("failed to requeue pending task",
				slog.String("task_id", t.ID().String()),
				slog.String("task_type", t.Type()),
				slog.String("error", err.Error()))
		}
	}

	for _, t := range processingTasks {
		runnable, err := r.rehydrate(t)
		if err != nil {
			continue
		}

		if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing task status",
				slog.String("task_id", t.ID().String()),
				slog.String("task_type", t.Type()),
				slog.String("error", err.Error()))
			continue
		}

		if err := r.queue.Enqueue(runnable); err != nil {
			r.logger.Error("failed to requeue processing task",
				slog.String("task_id", t.ID().String()),
				slog.String("task_type", t.Type()),
				slog.String("error", err.Error()))
		}
	}

	return nil
}

// rehydrate turns a task loaded from the store back into a runnable task
// using the rehydrator registered for its type. Tasks without a registered
// rehydrator keep their stored status so a later start can pick them up.
func (r *TaskRunner) rehydrate(t Task) (Task, error) {
	rehydrator, ok := r.rehydrators[t.Type()]
	if !ok {
		r.logger.Error("no rehydrator registered for task type",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()))
		return nil, fmt.Errorf("no rehydrator registered for task type %q", t.Type())
	}

	runnable, err := rehydrator.RehydrateTask(t.ID(), t.Payload())
	if err != nil {
		r.logger.Error("failed to rehydrate task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return nil, err
	}

	return runnable, nil
}

// worker processes tasks from the queue
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", slog.Int("worker_id", id))

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", slog.Int("worker_id", id))
			return

		case task, ok := <-r.queue.GetChannel():
			if !ok {
				r.logger.Debug("task channel closed, stopping worker", slog.Int("worker_id", id))
				return
			}

			r.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task
func (r *TaskRunner) processTask(task Task, workerID int) {
	ctx := context.Background()
	logger := r.logger.With(
		slog.String("task_id", task.ID().String()),
		slog.String("task_type", task.Type()),
		slog.Int("worker_id", workerID),
	)

	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, ""); err != nil {
		logger.Error("failed to update task status to processing",
			slog.String("error", err.Error()))
		return
	}

	logger.Info("processing task")

	err := task.Execute(ctx)

	if err != nil {
		logger.Error("task execution failed", slog.String("error", err.Error()))
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update task status to failed",
				slog.String("error", updateErr.Error()))
		}

		r.errHandler(task, err)
	} else {
		logger.Info("task completed successfully")
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
			logger.Error("failed to update task status to completed",
				slog.String("error", updateErr.Error()))
		}
	}
}

// stuckTaskMonitor periodically checks for tasks that have been in
// "processing" state for too long and resets them
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuckTasks, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks",
					slog.String("error", err.Error()))
				continue
			}

			if len(stuckTasks) == 0 {
				continue
			}

			r.logger.Info("found stuck tasks", slog.Int("count", len(stuckTasks)))

			for _, t := range stuckTasks {
				runnable, err := r.rehydrate(t)
				if err != nil {
					continue
				}

				if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusPending,
					"Reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck task status",
						slog.String("task_id", t.ID().String()),
						slog.String("task_type", t.Type()),
						slog.String("error", err.Error()))
					continue
				}

				if err := r.queue.Enqueue(runnable); err != nil {
					r.logger.Error("failed to requeue stuck task",
						slog.String("task_id", t.ID().String()),
						slog.String("task_type", t.Type()),
						slog.String("error", err.Error()))
					continue
				}

				r.logger.Info("requeued stuck task",
					slog.String("task_id", t.ID().String()),
					slog.String("task_type", t.Type()))
			}
		}
	}
}
