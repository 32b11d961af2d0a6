package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/didiklab/taksir-api/internal/service"
	"github.com/didiklab/taksir-api/internal/service/auth"
	"github.com/didiklab/taksir-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"wrong token type", auth.ErrWrongTokenType, http.StatusUnauthorized},
		{"expired refresh token", auth.ErrExpiredRefreshToken, http.StatusUnauthorized},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"not owned", service.ErrNotOwned, http.StatusForbidden},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"assessment not found", store.ErrAssessmentNotFound, http.StatusNotFound},
		{"service assessment not found", service.ErrAssessmentNotFound, http.StatusNotFound},
		{"analysis not found", service.ErrAnalysisNotFound, http.StatusNotFound},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"analysis exists", store.ErrAnalysisExists, http.StatusConflict},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"validation error", domain.ErrValidation, http.StatusBadRequest},
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("context: %w", store.ErrAssessmentNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "Invalid token", GetSafeErrorMessage(auth.ErrExpiredToken))
	assert.Equal(t, "Invalid refresh token", GetSafeErrorMessage(auth.ErrWrongTokenType))
	assert.Equal(t, "You do not own this assessment", GetSafeErrorMessage(service.ErrNotOwned))
	assert.Equal(t, "Assessment not found", GetSafeErrorMessage(service.ErrAssessmentNotFound))
	assert.Equal(t, "Analysis not available", GetSafeErrorMessage(service.ErrAnalysisNotFound))
	assert.Equal(t, "Email already exists", GetSafeErrorMessage(store.ErrEmailExists))

	// Internal details must not leak through.
	internal := errors.New("pq: connection refused host=10.0.0.5")
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(internal))

	// Validation errors name the offending field only.
	fieldErr := domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID)
	assert.Equal(t, "Invalid id", GetSafeErrorMessage(fieldErr))
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := errors.New(
		"Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag")
	assert.Equal(t, "Invalid Email: required field", SanitizeValidationError(err))

	err = errors.New(
		"Key: 'RegisterRequest.Password' Error:Field validation for 'Password' failed on the 'min' tag")
	assert.Equal(t, "Invalid Password: too short", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}
