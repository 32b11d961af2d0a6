package gemini

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/didiklab/taksir-api/internal/analysis"
	"github.com/didiklab/taksir-api/internal/domain"
)

//go:embed analysis_prompt.tmpl
var defaultPromptTemplate string

// promptFuncs are the helper functions available to the prompt template.
// label turns snake_case field names like "problem_solving" into readable
// labels ("Problem solving").
var promptFuncs = template.FuncMap{
	"label": func(s string) string {
		s = strings.ReplaceAll(s, "_", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

// loadPromptTemplate parses the analysis prompt template. If path is empty
// the embedded default template is used, otherwise the template is read
// from the given file.
func loadPromptTemplate(path string) (*template.Template, error) {
	content := defaultPromptTemplate

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				analysis.ErrInvalidConfig, path, err)
		}
		content = string(raw)
	}

	tmpl, err := template.New("analysis").Funcs(promptFuncs).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			analysis.ErrInvalidConfig, err)
	}

	return tmpl, nil
}

// renderPrompt executes the prompt template with the assessment's grade
// level and subject scores. Map iteration in templates is key-sorted, so
// the rendered prompt is deterministic for a given assessment.
func renderPrompt(tmpl *template.Template, assessment *domain.Assessment) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, promptData{
		GradeLevel: assessment.GradeLevel,
		Subjects:   assessment.Subjects,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
