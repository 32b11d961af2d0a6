package gemini

import "github.com/didiklab/taksir-api/internal/domain"

// promptData is the data passed to the analysis prompt template.
type promptData struct {
	GradeLevel int
	Subjects   map[string]domain.SubjectScores
}

// responseSchema mirrors the JSON object the model is prompted to return.
type responseSchema struct {
	PerformanceLevels          map[string]levelSchema `json:"performance_levels"`
	Strengths                  []findingSchema        `json:"strengths"`
	Weaknesses                 []findingSchema        `json:"weaknesses"`
	ImprovementRecommendations []improvementSchema    `json:"improvement_recommendations"`
	EnrichmentActivities       []enrichmentSchema     `json:"enrichment_activities"`
}

// levelSchema is the per-subject classification in the model response.
type levelSchema struct {
	Level         string `json:"level"`
	Justification string `json:"justification"`
}

// findingSchema is a single strength or weakness in the model response.
type findingSchema struct {
	Area        string `json:"area"`
	Description string `json:"description"`
}

// improvementSchema groups activities addressing a weakness.
type improvementSchema struct {
	TargetArea string   `json:"target_area"`
	Activities []string `json:"activities"`
}

// enrichmentSchema groups activities building on a strength.
type enrichmentSchema struct {
	TargetStrength string   `json:"target_strength"`
	Activities     []string `json:"activities"`
}

// toDomain maps the validated model response onto domain types.
func (r *responseSchema) toDomain() (
	map[string]domain.SubjectLevel,
	[]domain.Finding,
	[]domain.Finding,
	[]domain.Recommendation,
	[]domain.Recommendation,
) {
	levels := make(map[string]domain.SubjectLevel, len(r.PerformanceLevels))
	for subject, level := range r.PerformanceLevels {
		levels[subject] = domain.SubjectLevel{
			Level:         domain.PerformanceLevel(level.Level),
			Justification: level.Justification,
		}
	}

	strengths := make([]domain.Finding, 0, len(r.Strengths))
	for _, f := range r.Strengths {
		strengths = append(strengths, domain.Finding{Area: f.Area, Description: f.Description})
	}

	weaknesses := make([]domain.Finding, 0, len(r.Weaknesses))
	for _, f := range r.Weaknesses {
		weaknesses = append(weaknesses, domain.Finding{Area: f.Area, Description: f.Description})
	}

	improvements := make([]domain.Recommendation, 0, len(r.ImprovementRecommendations))
	for _, rec := range r.ImprovementRecommendations {
		improvements = append(improvements, domain.Recommendation{
			Target:     rec.TargetArea,
			Activities: rec.Activities,
		})
	}

	enrichment := make([]domain.Recommendation, 0, len(r.EnrichmentActivities))
	for _, rec := range r.EnrichmentActivities {
		enrichment = append(enrichment, domain.Recommendation{
			Target:     rec.TargetStrength,
			Activities: rec.Activities,
		})
	}

	return levels, strengths, weaknesses, improvements, enrichment
}
