package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/didiklab/taksir-api/internal/events"
	"github.com/didiklab/taksir-api/internal/store"
	"github.com/didiklab/taksir-api/internal/task"
)

// mockAssessmentRepo is an in-memory AssessmentRepository for service tests.
// It skips real transactions: WithTx returns the same instance so writes
// made inside RunInTransaction callbacks are visible to assertions.
type mockAssessmentRepo struct {
	assessments map[uuid.UUID]*domain.Assessment
	createErr   error
	getErr      error
}

func newMockAssessmentRepo() *mockAssessmentRepo {
	return &mockAssessmentRepo{assessments: make(map[uuid.UUID]*domain.Assessment)}
}

func (m *mockAssessmentRepo) Create(ctx context.Context, assessment *domain.Assessment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.assessments[assessment.ID] = assessment
	return nil
}

func (m *mockAssessmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assessment, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	assessment, ok := m.assessments[id]
	if !ok {
		return nil, store.ErrAssessmentNotFound
	}
	return assessment, nil
}

func (m *mockAssessmentRepo) Update(ctx context.Context, assessment *domain.Assessment) error {
	m.assessments[assessment.ID] = assessment
	return nil
}

func (m *mockAssessmentRepo) WithTx(tx *sql.Tx) AssessmentRepository { return m }

func (m *mockAssessmentRepo) DB() *sql.DB { return nil }

type mockAnalysisRepo struct {
	analyses map[uuid.UUID]*domain.Analysis
}

func newMockAnalysisRepo() *mockAnalysisRepo {
	return &mockAnalysisRepo{analyses: make(map[uuid.UUID]*domain.Analysis)}
}

func (m *mockAnalysisRepo) GetByAssessmentID(ctx context.Context, assessmentID uuid.UUID) (*domain.Analysis, error) {
	analysis, ok := m.analyses[assessmentID]
	if !ok {
		return nil, store.ErrAnalysisNotFound
	}
	return analysis, nil
}

type mockEmitter struct {
	emitted []*events.TaskRequestEvent
	emitErr error
}

func (m *mockEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if m.emitErr != nil {
		return m.emitErr
	}
	m.emitted = append(m.emitted, event)
	return nil
}

func validSubjects() map[string]domain.SubjectScores {
	return map[string]domain.SubjectScores{
		"english": {
			OverallScore: 78,
			Components: map[string]int{
				"reading":   80,
				"writing":   72,
				"speaking":  76,
				"listening": 84,
			},
		},
		"mathematics": {
			OverallScore: 65,
			Components: map[string]int{
				"arithmetic":      70,
				"geometry":        55,
				"problem_solving": 68,
				"data_analysis":   67,
			},
		},
	}
}

func newTestService(
	assessmentRepo AssessmentRepository,
	analysisRepo AnalysisRepository,
	emitter EventEmitter,
) AssessmentService {
	return NewAssessmentService(assessmentRepo, analysisRepo, emitter, slog.Default())
}

func TestCreateAssessmentValidation(t *testing.T) {
	t.Parallel()

	repo := newMockAssessmentRepo()
	emitter := &mockEmitter{}
	svc := newTestService(repo, newMockAnalysisRepo(), emitter)

	// Missing subjects should fail domain validation before any
	// persistence or event emission happens.
	_, err := svc.CreateAssessmentAndEnqueueTask(
		context.Background(), uuid.New(), "S12345", 4, nil)
	require.Error(t, err)
	assert.Empty(t, repo.assessments)
	assert.Empty(t, emitter.emitted)

	var svcErr *AssessmentServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "create assessment", svcErr.Operation)
}

func TestGetAssessment(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	assessment, err := domain.NewAssessment(userID, "S12345", 4, validSubjects())
	require.NoError(t, err)

	repo := newMockAssessmentRepo()
	repo.assessments[assessment.ID] = assessment
	svc := newTestService(repo, newMockAnalysisRepo(), &mockEmitter{})

	t.Run("returns owned assessment", func(t *testing.T) {
		got, err := svc.GetAssessment(context.Background(), assessment.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, assessment.ID, got.ID)
		assert.Equal(t, "S12345", got.StudentID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.GetAssessment(context.Background(), uuid.New(), userID)
		assert.ErrorIs(t, err, ErrAssessmentNotFound)
	})

	t.Run("wrong owner", func(t *testing.T) {
		_, err := svc.GetAssessment(context.Background(), assessment.ID, uuid.New())
		assert.ErrorIs(t, err, ErrNotOwned)
	})

	t.Run("store failure wrapped", func(t *testing.T) {
		failing := newMockAssessmentRepo()
		failing.getErr = errors.New("connection refused")
		failingSvc := newTestService(failing, newMockAnalysisRepo(), &mockEmitter{})

		_, err := failingSvc.GetAssessment(context.Background(), assessment.ID, userID)
		require.Error(t, err)
		var svcErr *AssessmentServiceError
		assert.ErrorAs(t, err, &svcErr)
	})
}

func TestGetAnalysis(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	assessment, err := domain.NewAssessment(userID, "S12345", 4, validSubjects())
	require.NoError(t, err)

	repo := newMockAssessmentRepo()
	repo.assessments[assessment.ID] = assessment
	analysisRepo := newMockAnalysisRepo()
	svc := newTestService(repo, analysisRepo, &mockEmitter{})

	t.Run("not ready yet", func(t *testing.T) {
		_, err := svc.GetAnalysis(context.Background(), assessment.ID, userID)
		assert.ErrorIs(t, err, ErrAnalysisNotFound)
	})

	t.Run("assessment missing", func(t *testing.T) {
		_, err := svc.GetAnalysis(context.Background(), uuid.New(), userID)
		assert.ErrorIs(t, err, ErrAssessmentNotFound)
	})

	t.Run("wrong owner", func(t *testing.T) {
		_, err := svc.GetAnalysis(context.Background(), assessment.ID, uuid.New())
		assert.ErrorIs(t, err, ErrNotOwned)
	})

	t.Run("returns stored analysis", func(t *testing.T) {
		analysis, err := domain.NewAnalysis(
			assessment.ID,
			"gemini-2.0-flash",
			map[string]domain.SubjectLevel{
				"english":     {Level: domain.PerformanceLevelHigh, Justification: "strong overall"},
				"mathematics": {Level: domain.PerformanceLevelMid, Justification: "mixed results"},
			},
			[]domain.Finding{{Area: "english reading", Description: "well above average"}},
			[]domain.Finding{{Area: "mathematics geometry", Description: "below expectations"}},
			[]domain.Recommendation{{Target: "geometry", Activities: []string{"daily shape exercises"}}},
			[]domain.Recommendation{{Target: "reading", Activities: []string{"extended reading list"}}},
		)
		require.NoError(t, err)
		analysisRepo.analyses[assessment.ID] = analysis

		got, err := svc.GetAnalysis(context.Background(), assessment.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, analysis.ID, got.ID)
		assert.Equal(t, "gemini-2.0-flash", got.ModelName)
	})
}

func TestNewAssessmentServiceError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewAssessmentServiceError("op", nil))

	// Sentinels pass through untouched so handlers can match them.
	assert.ErrorIs(t, NewAssessmentServiceError("op", ErrAssessmentNotFound), ErrAssessmentNotFound)
	assert.ErrorIs(t, NewAssessmentServiceError("op", ErrNotOwned), ErrNotOwned)

	wrapped := NewAssessmentServiceError("save assessment", errors.New("disk full"))
	var svcErr *AssessmentServiceError
	require.ErrorAs(t, wrapped, &svcErr)
	assert.Equal(t, "save assessment", svcErr.Operation)
	assert.Contains(t, wrapped.Error(), "save assessment")
	assert.Contains(t, wrapped.Error(), "disk full")
}

func TestAnalysisTaskPayloadShape(t *testing.T) {
	t.Parallel()

	// The payload field name is the contract between the service and
	// the task event handler.
	event, err := events.NewTaskRequestEvent(task.TaskTypeAssessmentAnalysis, analysisTaskPayload{
		AssessmentID: "7b8a1f3e-0000-0000-0000-000000000000",
	})
	require.NoError(t, err)

	var decoded struct {
		AssessmentID string `json:"assessment_id"`
	}
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, "7b8a1f3e-0000-0000-0000-000000000000", decoded.AssessmentID)
}
