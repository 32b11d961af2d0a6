package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow implements rowScanner by copying canned values into the scan
// destinations in column order.
type fakeRow struct {
	values []interface{}
	err    error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *uuid.UUID:
			*d = v.(uuid.UUID)
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		case *[]byte:
			*d = v.([]byte)
		case *time.Time:
			*d = v.(time.Time)
		}
	}
	return nil
}

func TestScanAssessment(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	userID := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	subjects := map[string]domain.SubjectScores{
		domain.SubjectEnglish: {
			OverallScore: 85,
			Components:   map[string]int{"reading": 90, "writing": 80},
		},
		domain.SubjectMathematics: {
			OverallScore: 72,
			Components:   map[string]int{"arithmetic": 75},
		},
	}
	subjectsJSON, err := json.Marshal(subjects)
	require.NoError(t, err)

	row := fakeRow{values: []interface{}{
		id, userID, "S-1042", 4, subjectsJSON,
		string(domain.AssessmentStatusCompleted), now, now,
	}}

	assessment, err := scanAssessment(row)
	require.NoError(t, err)

	assert.Equal(t, id, assessment.ID)
	assert.Equal(t, userID, assessment.UserID)
	assert.Equal(t, "S-1042", assessment.StudentID)
	assert.Equal(t, 4, assessment.GradeLevel)
	assert.Equal(t, domain.AssessmentStatusCompleted, assessment.Status)
	assert.Equal(t, subjects, assessment.Subjects)
	assert.Equal(t, now, assessment.CreatedAt)
}

func TestScanAssessmentInvalidJSON(t *testing.T) {
	t.Parallel()

	row := fakeRow{values: []interface{}{
		uuid.New(), uuid.New(), "S-1", 1, []byte("{not json"),
		string(domain.AssessmentStatusPending), time.Now().UTC(), time.Now().UTC(),
	}}

	_, err := scanAssessment(row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal subject scores")
}

func TestAnalysisResultRoundTrip(t *testing.T) {
	t.Parallel()

	doc := analysisResult{
		PerformanceLevels: map[string]domain.SubjectLevel{
			domain.SubjectEnglish: {Level: domain.PerformanceLevelHigh, Justification: "consistent scores above 80"},
		},
		Strengths: []domain.Finding{
			{Area: "reading", Description: "strong comprehension"},
		},
		ImprovementRecommendations: []domain.Recommendation{
			{Target: "geometry", Activities: []string{"shape sorting drills"}},
		},
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded analysisResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, doc, decoded)
}
