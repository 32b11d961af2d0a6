package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/didiklab/taksir-api/internal/events"
	"github.com/google/uuid"
)

// TaskFactory creates tasks for a given assessment.
type TaskFactory interface {
	// CreateTask creates a new task for the specified assessment
	CreateTask(assessmentID uuid.UUID) (Task, error)
}

// TaskSubmitter accepts tasks for background processing.
type TaskSubmitter interface {
	// Submit persists a task and adds it to the processing queue
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler implements the events.EventHandler interface.
// It turns assessment analysis request events into concrete tasks and
// submits them to the task runner.
type TaskFactoryEventHandler struct {
	taskFactory TaskFactory
	taskRunner  TaskSubmitter
	logger      *slog.Logger
}

// NewTaskFactoryEventHandler creates a new event handler that uses the given
// task factory to create tasks and submits them to the provided runner.
func NewTaskFactoryEventHandler(
	taskFactory TaskFactory,
	taskRunner TaskSubmitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		taskFactory: taskFactory,
		taskRunner:  taskRunner,
		logger:      logger.With(slog.String("component", "task_factory_event_handler")),
	}
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

// HandleEvent processes events by creating and submitting tasks.
// Events with types other than assessment_analysis are ignored.
func (h *TaskFactoryEventHandler) HandleEvent(
	ctx context.Context,
	event *events.TaskRequestEvent,
) error {
	log := h.logger.With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type))

	if event.Type != TaskTypeAssessmentAnalysis {
		log.Debug("ignoring event with unsupported type")
		return nil
	}

	var payload struct {
		AssessmentID string `json:"assessment_id"`
	}

	if err := event.UnmarshalPayload(&payload); err != nil {
		log.Error("failed to unmarshal payload", slog.String("error", err.Error()))
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	assessmentID, err := uuid.Parse(payload.AssessmentID)
	if err != nil {
		log.Error("invalid assessment ID",
			slog.String("error", err.Error()),
			slog.String("assessment_id", payload.AssessmentID))
		return fmt.Errorf("invalid assessment ID: %w", err)
	}

	log = log.With(slog.String("assessment_id", assessmentID.String()))

	log.Debug("creating task for assessment")
	t, err := h.taskFactory.CreateTask(assessmentID)
	if err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create task: %w", err)
	}

	log.Debug("submitting task to runner", slog.String("task_id", t.ID().String()))
	if err := h.taskRunner.Submit(ctx, t); err != nil {
		log.Error("failed to submit task",
			slog.String("error", err.Error()),
			slog.String("task_id", t.ID().String()))
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.Info("task created and submitted successfully",
		slog.String("task_id", t.ID().String()))
	return nil
}
