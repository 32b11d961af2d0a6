package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

// sampleSubjects returns a valid subjects map matching the record
// shape submitted by the API.
func sampleSubjects() map[string]SubjectScores {
	return map[string]SubjectScores{
		SubjectEnglish: {
			OverallScore: 75,
			Components: map[string]int{
				"reading":   80,
				"writing":   70,
				"speaking":  75,
				"listening": 75,
			},
		},
		SubjectMathematics: {
			OverallScore: 68,
			Components: map[string]int{
				"arithmetic":      72,
				"geometry":        60,
				"problem_solving": 65,
				"data_analysis":   75,
			},
		},
	}
}

func TestNewAssessment(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	assessment, err := NewAssessment(userID, "S12345", 4, sampleSubjects())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if assessment.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if assessment.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, assessment.UserID)
	}

	if assessment.StudentID != "S12345" {
		t.Errorf("Expected student ID S12345, got %s", assessment.StudentID)
	}

	if assessment.Status != AssessmentStatusPending {
		t.Errorf("Expected status %s, got %s", AssessmentStatusPending, assessment.Status)
	}

	if assessment.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	// Invalid user ID
	_, err = NewAssessment(uuid.Nil, "S12345", 4, sampleSubjects())
	if !errors.Is(err, ErrAssessmentUserIDEmpty) {
		t.Errorf("Expected error %v, got %v", ErrAssessmentUserIDEmpty, err)
	}

	// Empty student ID
	_, err = NewAssessment(userID, "", 4, sampleSubjects())
	if !errors.Is(err, ErrAssessmentStudentIDEmpty) {
		t.Errorf("Expected error %v, got %v", ErrAssessmentStudentIDEmpty, err)
	}
}

func TestAssessmentValidate(t *testing.T) {
	t.Parallel()

	valid := Assessment{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		StudentID:  "S12345",
		GradeLevel: 4,
		Subjects:   sampleSubjects(),
		Status:     AssessmentStatusPending,
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(a *Assessment)
		wantErr error
	}{
		{
			name:    "nil ID",
			mutate:  func(a *Assessment) { a.ID = uuid.Nil },
			wantErr: ErrAssessmentIDEmpty,
		},
		{
			name:    "grade level too low",
			mutate:  func(a *Assessment) { a.GradeLevel = 0 },
			wantErr: ErrInvalidGradeLevel,
		},
		{
			name:    "grade level too high",
			mutate:  func(a *Assessment) { a.GradeLevel = 7 },
			wantErr: ErrInvalidGradeLevel,
		},
		{
			name: "missing mathematics",
			mutate: func(a *Assessment) {
				a.Subjects = map[string]SubjectScores{
					SubjectEnglish: a.Subjects[SubjectEnglish],
				}
			},
			wantErr: ErrMissingSubject,
		},
		{
			name: "subject without components",
			mutate: func(a *Assessment) {
				subjects := sampleSubjects()
				subjects[SubjectEnglish] = SubjectScores{OverallScore: 75}
				a.Subjects = subjects
			},
			wantErr: ErrMissingComponents,
		},
		{
			name: "overall score out of range",
			mutate: func(a *Assessment) {
				subjects := sampleSubjects()
				scores := subjects[SubjectMathematics]
				scores.OverallScore = 101
				subjects[SubjectMathematics] = scores
				a.Subjects = subjects
			},
			wantErr: ErrScoreOutOfRange,
		},
		{
			name: "component score negative",
			mutate: func(a *Assessment) {
				subjects := sampleSubjects()
				subjects[SubjectEnglish].Components["reading"] = -1
				a.Subjects = subjects
			},
			wantErr: ErrScoreOutOfRange,
		},
		{
			name:    "invalid status",
			mutate:  func(a *Assessment) { a.Status = "archived" },
			wantErr: ErrInvalidAssessmentStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assessment := valid
			assessment.Subjects = sampleSubjects()
			tt.mutate(&assessment)

			err := assessment.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAssessmentUpdateStatus(t *testing.T) {
	t.Parallel()

	assessment, err := NewAssessment(uuid.New(), "S12345", 4, sampleSubjects())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	before := assessment.UpdatedAt

	if err := assessment.UpdateStatus(AssessmentStatusProcessing); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if assessment.Status != AssessmentStatusProcessing {
		t.Errorf("Expected status %s, got %s", AssessmentStatusProcessing, assessment.Status)
	}

	if assessment.UpdatedAt.Before(before) {
		t.Error("Expected UpdatedAt to advance")
	}

	if err := assessment.UpdateStatus("bogus"); !errors.Is(err, ErrInvalidAssessmentStatus) {
		t.Errorf("Expected error %v, got %v", ErrInvalidAssessmentStatus, err)
	}
}

func TestIsValidAssessmentStatus(t *testing.T) {
	t.Parallel()

	valid := []AssessmentStatus{
		AssessmentStatusPending,
		AssessmentStatusProcessing,
		AssessmentStatusCompleted,
		AssessmentStatusFailed,
	}
	for _, status := range valid {
		if !IsValidAssessmentStatus(status) {
			t.Errorf("Expected %s to be valid", status)
		}
	}

	invalid := []AssessmentStatus{"", "done", "completed_with_errors"}
	for _, status := range invalid {
		if IsValidAssessmentStatus(status) {
			t.Errorf("Expected %s to be invalid", status)
		}
	}
}
