package analysis

import (
	"context"

	"github.com/didiklab/taksir-api/internal/domain"
)

// Analyzer defines the interface for producing structured analyses from
// assessment records. This interface serves as a boundary between the
// application core and external AI/LLM services, following the hexagonal
// architecture pattern.
type Analyzer interface {
	// AnalyzeAssessment produces a structured analysis for the given
	// assessment record: per-subject performance levels, strengths,
	// weaknesses, and recommendation lists.
	//
	// The returned Analysis is validated against the fixed result schema
	// before being returned. An error is returned if the model call fails,
	// the response cannot be parsed, or the result fails validation
	// (see errors.go for specific types).
	AnalyzeAssessment(ctx context.Context, assessment *domain.Assessment) (*domain.Analysis, error)
}
