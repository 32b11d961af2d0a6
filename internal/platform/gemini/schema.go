package gemini

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/didiklab/taksir-api/internal/analysis"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// resultSchemaJSON is the JSON Schema every model response must satisfy
// before it is mapped onto domain types. It matches the object shape the
// prompt asks for.
const resultSchemaJSON = `{
	"type": "object",
	"required": ["performance_levels", "strengths", "weaknesses", "improvement_recommendations", "enrichment_activities"],
	"properties": {
		"performance_levels": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": {
				"type": "object",
				"required": ["level", "justification"],
				"properties": {
					"level": {"enum": ["High", "Mid", "Low"]},
					"justification": {"type": "string", "minLength": 1}
				}
			}
		},
		"strengths": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["area", "description"],
				"properties": {
					"area": {"type": "string"},
					"description": {"type": "string"}
				}
			}
		},
		"weaknesses": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["area", "description"],
				"properties": {
					"area": {"type": "string"},
					"description": {"type": "string"}
				}
			}
		},
		"improvement_recommendations": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["target_area", "activities"],
				"properties": {
					"target_area": {"type": "string"},
					"activities": {"type": "array", "items": {"type": "string"}, "minItems": 1}
				}
			}
		},
		"enrichment_activities": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["target_strength", "activities"],
				"properties": {
					"target_strength": {"type": "string"},
					"activities": {"type": "array", "items": {"type": "string"}, "minItems": 1}
				}
			}
		}
	}
}`

var (
	resultSchemaOnce sync.Once
	resultSchema     *jsonschema.Schema
	resultSchemaErr  error
)

// compiledResultSchema compiles the result schema exactly once.
func compiledResultSchema() (*jsonschema.Schema, error) {
	resultSchemaOnce.Do(func() {
		var parsed any
		if err := json.Unmarshal([]byte(resultSchemaJSON), &parsed); err != nil {
			resultSchemaErr = fmt.Errorf("parse result schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const schemaURL = "schema://analysis_result.json"
		if err := c.AddResource(schemaURL, parsed); err != nil {
			resultSchemaErr = fmt.Errorf("add result schema resource: %w", err)
			return
		}

		resultSchema, resultSchemaErr = c.Compile(schemaURL)
	})
	return resultSchema, resultSchemaErr
}

// validateResult checks raw model output against the result schema.
// Returns analysis.ErrInvalidResponse on any failure.
func validateResult(raw json.RawMessage) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", analysis.ErrInvalidResponse, err)
	}

	schema, err := compiledResultSchema()
	if err != nil {
		return fmt.Errorf("%w: %v", analysis.ErrInvalidResponse, err)
	}

	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("%w: schema validation failed: %v", analysis.ErrInvalidResponse, err)
	}

	return nil
}
