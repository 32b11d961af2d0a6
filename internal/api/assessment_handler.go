package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/didiklab/taksir-api/internal/api/shared"
	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/didiklab/taksir-api/internal/service"
)

// AssessmentHandler handles assessment-related HTTP requests.
type AssessmentHandler struct {
	assessmentService service.AssessmentService
	validator         *validator.Validate
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessmentService service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentService: assessmentService,
		validator:         validator.New(),
	}
}

// CreateAssessment handles POST /api/assessments. Analysis happens in
// the background, so a successful submission returns 202 Accepted with
// the pending record.
func (h *AssessmentHandler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateAssessmentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	subjects := make(map[string]domain.SubjectScores, len(req.Subjects))
	for name, payload := range req.Subjects {
		subjects[name] = domain.SubjectScores{
			OverallScore: payload.OverallScore,
			Components:   payload.Components,
		}
	}

	assessment, err := h.assessmentService.CreateAssessmentAndEnqueueTask(
		r.Context(), userID, req.StudentID, req.GradeLevel, subjects)
	if err != nil {
		var svcErr *service.AssessmentServiceError
		if errors.As(err, &svcErr) && svcErr.Operation == "create assessment" {
			// Domain validation failure: the request shape was fine but
			// the scores or subjects were not.
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid assessment data", err)
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to create assessment", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, assessmentToResponse(assessment))
}

// GetAssessment handles GET /api/assessments/{id}.
func (h *AssessmentHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	userID, assessmentID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	assessment, err := h.assessmentService.GetAssessment(r.Context(), assessmentID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, assessmentToResponse(assessment))
}

// GetAnalysis handles GET /api/assessments/{id}/analysis. While the
// assessment is still pending or processing the analysis does not
// exist yet, which maps to 404.
func (h *AssessmentHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, assessmentID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	analysis, err := h.assessmentService.GetAnalysis(r.Context(), assessmentID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, analysisToResponse(analysis))
}
