package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AssessmentStatus represents the processing state of an assessment record.
type AssessmentStatus string

// Possible assessment status values
const (
	AssessmentStatusPending    AssessmentStatus = "pending"
	AssessmentStatusProcessing AssessmentStatus = "processing"
	AssessmentStatusCompleted  AssessmentStatus = "completed"
	AssessmentStatusFailed     AssessmentStatus = "failed"
)

// Subject keys every assessment record must carry.
const (
	SubjectEnglish     = "english"
	SubjectMathematics = "mathematics"
)

// RequiredSubjects lists the subjects an assessment must include
// before it can be analyzed.
var RequiredSubjects = []string{SubjectEnglish, SubjectMathematics}

// Grade level bounds for Malaysian primary school (Tahun 1-6).
const (
	MinGradeLevel = 1
	MaxGradeLevel = 6
)

// Score bounds for overall and component scores.
const (
	MinScore = 0
	MaxScore = 100
)

// Common validation errors for Assessment
var (
	ErrAssessmentIDEmpty        = errors.New("assessment ID cannot be empty")
	ErrAssessmentUserIDEmpty    = errors.New("assessment user ID cannot be empty")
	ErrAssessmentStudentIDEmpty = errors.New("assessment student ID cannot be empty")
	ErrInvalidGradeLevel        = errors.New("grade level must be between 1 and 6")
	ErrMissingSubject           = errors.New("missing required subject")
	ErrMissingComponents        = errors.New("subject has no component scores")
	ErrScoreOutOfRange          = errors.New("score must be between 0 and 100")
	ErrInvalidAssessmentStatus  = errors.New("invalid assessment status")
)

// SubjectScores holds the scores recorded for a single subject:
// the overall score plus a breakdown into named component scores
// (e.g. reading/writing/speaking/listening for English).
type SubjectScores struct {
	OverallScore int            `json:"overall_score"`
	Components   map[string]int `json:"components"`
}

// Assessment represents a student assessment record submitted by a
// teacher for analysis. It tracks the raw scores and the processing
// state of the analysis pipeline.
type Assessment struct {
	ID         uuid.UUID                `json:"id"`
	UserID     uuid.UUID                `json:"user_id"`
	StudentID  string                   `json:"student_id"`
	GradeLevel int                      `json:"grade_level"`
	Subjects   map[string]SubjectScores `json:"subjects"`
	Status     AssessmentStatus         `json:"status"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// NewAssessment creates a new Assessment for the given user with the
// provided student data. It generates a new UUID, sets the status to
// pending, and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewAssessment(
	userID uuid.UUID,
	studentID string,
	gradeLevel int,
	subjects map[string]SubjectScores,
) (*Assessment, error) {
	assessment := &Assessment{
		ID:         uuid.New(),
		UserID:     userID,
		StudentID:  studentID,
		GradeLevel: gradeLevel,
		Subjects:   subjects,
		Status:     AssessmentStatusPending,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := assessment.Validate(); err != nil {
		return nil, err
	}

	return assessment, nil
}

// Validate checks if the Assessment has valid data.
// It enforces the record shape the analyzer depends on: a sensible
// grade level, both required subjects, component scores for every
// subject, and all scores within range.
func (a *Assessment) Validate() error {
	if a.ID == uuid.Nil {
		return ErrAssessmentIDEmpty
	}

	if a.UserID == uuid.Nil {
		return ErrAssessmentUserIDEmpty
	}

	if a.StudentID == "" {
		return ErrAssessmentStudentIDEmpty
	}

	if a.GradeLevel < MinGradeLevel || a.GradeLevel > MaxGradeLevel {
		return fmt.Errorf("%w: got %d", ErrInvalidGradeLevel, a.GradeLevel)
	}

	for _, subject := range RequiredSubjects {
		scores, ok := a.Subjects[subject]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSubject, subject)
		}

		if len(scores.Components) == 0 {
			return fmt.Errorf("%w: %s", ErrMissingComponents, subject)
		}

		if scores.OverallScore < MinScore || scores.OverallScore > MaxScore {
			return fmt.Errorf("%w: %s overall score %d",
				ErrScoreOutOfRange, subject, scores.OverallScore)
		}

		for component, score := range scores.Components {
			if score < MinScore || score > MaxScore {
				return fmt.Errorf("%w: %s %s score %d",
					ErrScoreOutOfRange, subject, component, score)
			}
		}
	}

	if !IsValidAssessmentStatus(a.Status) {
		return ErrInvalidAssessmentStatus
	}

	return nil
}

// UpdateStatus updates the assessment's status and the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (a *Assessment) UpdateStatus(status AssessmentStatus) error {
	if !IsValidAssessmentStatus(status) {
		return ErrInvalidAssessmentStatus
	}

	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// IsValidAssessmentStatus checks if the given status is a valid AssessmentStatus.
func IsValidAssessmentStatus(status AssessmentStatus) bool {
	switch status {
	case AssessmentStatusPending, AssessmentStatusProcessing,
		AssessmentStatusCompleted, AssessmentStatusFailed:
		return true
	default:
		return false
	}
}
