package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/google/uuid"
)

// mockTaskStore is an in-memory TaskStore for tests.
type mockTaskStore struct {
	mu       sync.Mutex
	saved    map[uuid.UUID]Task
	statuses map[uuid.UUID]TaskStatus
	saveErr  error
}

func newMockTaskStore() *mockTaskStore {
	return &mockTaskStore{
		saved:    make(map[uuid.UUID]Task),
		statuses: make(map[uuid.UUID]TaskStatus),
	}
}

func (s *mockTaskStore) SaveTask(_ context.Context, t Task) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[t.ID()] = t
	s.statuses[t.ID()] = t.Status()
	return nil
}

func (s *mockTaskStore) UpdateTaskStatus(_ context.Context, taskID uuid.UUID, status TaskStatus, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[taskID] = status
	return nil
}

func (s *mockTaskStore) GetPendingTasks(_ context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tasks []Task
	for id, t := range s.saved {
		if s.statuses[id] == TaskStatusPending {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (s *mockTaskStore) GetProcessingTasks(_ context.Context, _ time.Duration) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tasks []Task
	for id, t := range s.saved {
		if s.statuses[id] == TaskStatusProcessing {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (s *mockTaskStore) WithTx(_ *sql.Tx) TaskStore {
	return s
}

func (s *mockTaskStore) statusOf(id uuid.UUID) TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[id]
}

// mockTask is a controllable Task for runner tests.
type mockTask struct {
	id        uuid.UUID
	taskType  string
	status    TaskStatus
	executeFn func(ctx context.Context) error
	executed  chan struct{}
	once      sync.Once
}

func newMockTask(executeFn func(ctx context.Context) error) *mockTask {
	return &mockTask{
		id:        uuid.New(),
		taskType:  TaskTypeAssessmentAnalysis,
		status:    TaskStatusPending,
		executeFn: executeFn,
		executed:  make(chan struct{}),
	}
}

func (t *mockTask) ID() uuid.UUID      { return t.id }
func (t *mockTask) Type() string       { return t.taskType }
func (t *mockTask) Status() TaskStatus { return t.status }

func (t *mockTask) Payload() []byte {
	data, _ := json.Marshal(assessmentAnalysisPayload{AssessmentID: uuid.New()})
	return data
}

func (t *mockTask) Execute(ctx context.Context) error {
	defer t.once.Do(func() { close(t.executed) })
	if t.executeFn != nil {
		return t.executeFn(ctx)
	}
	return nil
}

// storedTask mimics a task row loaded from the database: ID, type,
// status and payload only, with no execution capability.
type storedTask struct {
	id      uuid.UUID
	status  TaskStatus
	payload []byte
}

func newStoredTask(status TaskStatus) *storedTask {
	payload, _ := json.Marshal(assessmentAnalysisPayload{AssessmentID: uuid.New()})
	return &storedTask{
		id:      uuid.New(),
		status:  status,
		payload: payload,
	}
}

func (t *storedTask) ID() uuid.UUID      { return t.id }
func (t *storedTask) Type() string       { return TaskTypeAssessmentAnalysis }
func (t *storedTask) Status() TaskStatus { return t.status }
func (t *storedTask) Payload() []byte    { return t.payload }

func (t *storedTask) Execute(context.Context) error {
	return errors.New("stored task cannot execute without rehydration")
}

// mockRehydrator rebuilds runnable mock tasks from stored rows and
// records what it produced, keyed by task ID.
type mockRehydrator struct {
	mu         sync.Mutex
	rehydrated map[uuid.UUID]*mockTask
	err        error
}

func newMockRehydrator() *mockRehydrator {
	return &mockRehydrator{rehydrated: make(map[uuid.UUID]*mockTask)}
}

func (r *mockRehydrator) RehydrateTask(taskID uuid.UUID, _ []byte) (Task, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t := newMockTask(nil)
	t.id = taskID
	r.rehydrated[taskID] = t
	return t, nil
}

func (r *mockRehydrator) taskFor(id uuid.UUID) *mockTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rehydrated[id]
}

// mockAssessmentService records calls for task lifecycle tests.
type mockAssessmentService struct {
	mu            sync.Mutex
	assessment    *domain.Assessment
	getErr        error
	updateErr     error
	saveErr       error
	statusUpdates []domain.AssessmentStatus
	savedAnalysis *domain.Analysis
}

func (s *mockAssessmentService) GetAssessment(_ context.Context, _ uuid.UUID) (*domain.Assessment, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.assessment, nil
}

func (s *mockAssessmentService) UpdateAssessmentStatus(_ context.Context, _ uuid.UUID, status domain.AssessmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.statusUpdates = append(s.statusUpdates, status)
	return nil
}

func (s *mockAssessmentService) SaveAnalysis(_ context.Context, analysis *domain.Analysis) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedAnalysis = analysis
	return nil
}

// mockAnalyzer returns a canned analysis or error.
type mockAnalyzer struct {
	analysis *domain.Analysis
	err      error
}

func (a *mockAnalyzer) AnalyzeAssessment(_ context.Context, _ *domain.Assessment) (*domain.Analysis, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.analysis, nil
}
