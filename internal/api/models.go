package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/didiklab/taksir-api/internal/importer"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at"`
}

// SubjectScoresPayload carries one subject's scores in a create request.
type SubjectScoresPayload struct {
	OverallScore int            `json:"overall_score" validate:"gte=0,lte=100"`
	Components   map[string]int `json:"components"    validate:"required,min=1,dive,gte=0,lte=100"`
}

// CreateAssessmentRequest defines the payload for submitting a new
// assessment. Subject coverage beyond basic shape checks is enforced
// by domain validation.
type CreateAssessmentRequest struct {
	StudentID  string                          `json:"student_id"  validate:"required,min=1,max=64"`
	GradeLevel int                             `json:"grade_level" validate:"required,gte=1,lte=6"`
	Subjects   map[string]SubjectScoresPayload `json:"subjects"    validate:"required,min=1"`
}

// AssessmentResponse is the API representation of an assessment record.
type AssessmentResponse struct {
	ID         string                          `json:"id"`
	UserID     string                          `json:"user_id"`
	StudentID  string                          `json:"student_id"`
	GradeLevel int                             `json:"grade_level"`
	Subjects   map[string]SubjectScoresPayload `json:"subjects"`
	Status     string                          `json:"status"`
	CreatedAt  time.Time                       `json:"created_at"`
	UpdatedAt  time.Time                       `json:"updated_at"`
}

// AnalysisResponse is the API representation of an analysis result.
type AnalysisResponse struct {
	ID                         string                          `json:"id"`
	AssessmentID               string                          `json:"assessment_id"`
	ModelName                  string                          `json:"model_name"`
	PerformanceLevels          map[string]domain.SubjectLevel  `json:"performance_levels"`
	Strengths                  []domain.Finding                `json:"strengths"`
	Weaknesses                 []domain.Finding                `json:"weaknesses"`
	ImprovementRecommendations []domain.Recommendation         `json:"improvement_recommendations"`
	EnrichmentActivities       []domain.Recommendation         `json:"enrichment_activities"`
	CreatedAt                  time.Time                       `json:"created_at"`
}

// ImportResponse summarizes a bulk score sheet import: the assessments
// created plus the rows that were skipped.
type ImportResponse struct {
	Created []AssessmentResponse `json:"created"`
	Skipped []importer.RowIssue  `json:"skipped"`
}

// assessmentToResponse converts a domain.Assessment to its API representation.
func assessmentToResponse(assessment *domain.Assessment) AssessmentResponse {
	subjects := make(map[string]SubjectScoresPayload, len(assessment.Subjects))
	for name, scores := range assessment.Subjects {
		subjects[name] = SubjectScoresPayload{
			OverallScore: scores.OverallScore,
			Components:   scores.Components,
		}
	}

	return AssessmentResponse{
		ID:         assessment.ID.String(),
		UserID:     assessment.UserID.String(),
		StudentID:  assessment.StudentID,
		GradeLevel: assessment.GradeLevel,
		Subjects:   subjects,
		Status:     string(assessment.Status),
		CreatedAt:  assessment.CreatedAt,
		UpdatedAt:  assessment.UpdatedAt,
	}
}

// analysisToResponse converts a domain.Analysis to its API representation.
func analysisToResponse(analysis *domain.Analysis) AnalysisResponse {
	return AnalysisResponse{
		ID:                         analysis.ID.String(),
		AssessmentID:               analysis.AssessmentID.String(),
		ModelName:                  analysis.ModelName,
		PerformanceLevels:          analysis.PerformanceLevels,
		Strengths:                  analysis.Strengths,
		Weaknesses:                 analysis.Weaknesses,
		ImprovementRecommendations: analysis.ImprovementRecommendations,
		EnrichmentActivities:       analysis.EnrichmentActivities,
		CreatedAt:                  analysis.CreatedAt,
	}
}
