package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// AssessmentAnalysisTaskFactory creates AssessmentAnalysisTask instances
// with a fixed set of dependencies.
type AssessmentAnalysisTaskFactory struct {
	service  AssessmentService
	analyzer Analyzer
	logger   *slog.Logger
}

// NewAssessmentAnalysisTaskFactory creates a new factory for
// AssessmentAnalysisTasks.
func NewAssessmentAnalysisTaskFactory(
	service AssessmentService,
	analyzer Analyzer,
	logger *slog.Logger,
) *AssessmentAnalysisTaskFactory {
	return &AssessmentAnalysisTaskFactory{
		service:  service,
		analyzer: analyzer,
		logger:   logger.With(slog.String("component", "assessment_analysis_task_factory")),
	}
}

// CreateTask creates a new AssessmentAnalysisTask for the specified assessment
func (f *AssessmentAnalysisTaskFactory) CreateTask(assessmentID uuid.UUID) (Task, error) {
	return NewAssessmentAnalysisTask(
		assessmentID,
		f.service,
		f.analyzer,
		f.logger,
	)
}

// Ensure the factory can rebuild tasks recovered from the store
var _ TaskRehydrator = (*AssessmentAnalysisTaskFactory)(nil)

// RehydrateTask rebuilds an AssessmentAnalysisTask from a persisted task
// row, keeping the stored task ID so status updates hit the same row.
func (f *AssessmentAnalysisTaskFactory) RehydrateTask(taskID uuid.UUID, payload []byte) (Task, error) {
	var p assessmentAnalysisPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	t, err := NewAssessmentAnalysisTask(p.AssessmentID, f.service, f.analyzer, f.logger)
	if err != nil {
		return nil, err
	}
	t.id = taskID

	return t, nil
}
