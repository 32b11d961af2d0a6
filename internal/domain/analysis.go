package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PerformanceLevel classifies a subject result as reported by the model.
type PerformanceLevel string

// Possible performance level values
const (
	PerformanceLevelHigh PerformanceLevel = "High"
	PerformanceLevelMid  PerformanceLevel = "Mid"
	PerformanceLevelLow  PerformanceLevel = "Low"
)

// Common validation errors for Analysis
var (
	ErrAnalysisIDEmpty             = errors.New("analysis ID cannot be empty")
	ErrAnalysisAssessmentIDEmpty   = errors.New("analysis assessment ID cannot be empty")
	ErrMissingPerformanceLevel     = errors.New("missing performance level for required subject")
	ErrInvalidPerformanceLevel     = errors.New("performance level must be High, Mid or Low")
	ErrEmptyLevelJustification     = errors.New("performance level justification cannot be empty")
	ErrAnalysisModelNameEmpty      = errors.New("analysis model name cannot be empty")
	ErrEmptyRecommendationActivity = errors.New("recommendation must list at least one activity")
)

// SubjectLevel is the per-subject classification with the model's reasoning.
type SubjectLevel struct {
	Level         PerformanceLevel `json:"level"`
	Justification string           `json:"justification"`
}

// Finding describes a single strength or weakness identified across subjects.
type Finding struct {
	Area        string `json:"area"`
	Description string `json:"description"`
}

// Recommendation groups suggested activities under a target area.
// Used both for improvement recommendations (targeting weaknesses)
// and enrichment activities (targeting strengths).
type Recommendation struct {
	Target     string   `json:"target"`
	Activities []string `json:"activities"`
}

// Analysis is the structured result produced for an assessment. Its shape
// mirrors the JSON object the model is prompted to return: performance
// levels per subject, strengths, weaknesses, and two recommendation lists.
type Analysis struct {
	ID                         uuid.UUID               `json:"id"`
	AssessmentID               uuid.UUID               `json:"assessment_id"`
	ModelName                  string                  `json:"model_name"`
	PerformanceLevels          map[string]SubjectLevel `json:"performance_levels"`
	Strengths                  []Finding               `json:"strengths"`
	Weaknesses                 []Finding               `json:"weaknesses"`
	ImprovementRecommendations []Recommendation        `json:"improvement_recommendations"`
	EnrichmentActivities       []Recommendation        `json:"enrichment_activities"`
	CreatedAt                  time.Time               `json:"created_at"`

	// RawResponse holds the JSON object as returned by the model, kept for
	// auditing. It is not exposed through the API.
	RawResponse json.RawMessage `json:"-"`
}

// NewAnalysis creates an Analysis for the given assessment. It generates a
// new UUID and sets the creation timestamp. Returns an error if validation
// fails.
func NewAnalysis(
	assessmentID uuid.UUID,
	modelName string,
	levels map[string]SubjectLevel,
	strengths, weaknesses []Finding,
	improvements, enrichment []Recommendation,
) (*Analysis, error) {
	analysis := &Analysis{
		ID:                         uuid.New(),
		AssessmentID:               assessmentID,
		ModelName:                  modelName,
		PerformanceLevels:          levels,
		Strengths:                  strengths,
		Weaknesses:                 weaknesses,
		ImprovementRecommendations: improvements,
		EnrichmentActivities:       enrichment,
		CreatedAt:                  time.Now().UTC(),
	}

	if err := analysis.Validate(); err != nil {
		return nil, err
	}

	return analysis, nil
}

// Validate checks if the Analysis has valid data. The levels map must cover
// every required subject, and each level must be one of the known values
// with a non-empty justification. Recommendation lists may be empty, but a
// present recommendation must name at least one activity.
func (a *Analysis) Validate() error {
	if a.ID == uuid.Nil {
		return ErrAnalysisIDEmpty
	}

	if a.AssessmentID == uuid.Nil {
		return ErrAnalysisAssessmentIDEmpty
	}

	if a.ModelName == "" {
		return ErrAnalysisModelNameEmpty
	}

	for _, subject := range RequiredSubjects {
		level, ok := a.PerformanceLevels[subject]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingPerformanceLevel, subject)
		}

		if !isValidPerformanceLevel(level.Level) {
			return fmt.Errorf("%w: %s got %q",
				ErrInvalidPerformanceLevel, subject, level.Level)
		}

		if level.Justification == "" {
			return fmt.Errorf("%w: %s", ErrEmptyLevelJustification, subject)
		}
	}

	for _, rec := range a.ImprovementRecommendations {
		if len(rec.Activities) == 0 {
			return fmt.Errorf("%w: improvement target %q",
				ErrEmptyRecommendationActivity, rec.Target)
		}
	}

	for _, rec := range a.EnrichmentActivities {
		if len(rec.Activities) == 0 {
			return fmt.Errorf("%w: enrichment target %q",
				ErrEmptyRecommendationActivity, rec.Target)
		}
	}

	return nil
}

// isValidPerformanceLevel checks if the given level is a valid PerformanceLevel.
func isValidPerformanceLevel(level PerformanceLevel) bool {
	switch level {
	case PerformanceLevelHigh, PerformanceLevelMid, PerformanceLevelLow:
		return true
	default:
		return false
	}
}
