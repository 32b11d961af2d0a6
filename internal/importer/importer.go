package importer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/didiklab/taksir-api/internal/domain"
)

// Errors reported for problems with the sheet as a whole. Per-row
// problems are reported as RowIssues instead.
var (
	ErrNoSheets      = errors.New("excel file does not contain any sheets")
	ErrEmptySheet    = errors.New("sheet contains no data rows")
	ErrInvalidHeader = errors.New("header row does not match the expected score sheet layout")
)

// componentColumn ties a sheet column to the subject component it carries.
type componentColumn struct {
	header    string
	subject   string
	component string
}

// expectedColumns is the fixed score sheet layout: student_id and
// grade_level followed by the eight component score columns.
var expectedColumns = []componentColumn{
	{header: "student_id"},
	{header: "grade_level"},
	{header: "english_reading", subject: domain.SubjectEnglish, component: "reading"},
	{header: "english_writing", subject: domain.SubjectEnglish, component: "writing"},
	{header: "english_speaking", subject: domain.SubjectEnglish, component: "speaking"},
	{header: "english_listening", subject: domain.SubjectEnglish, component: "listening"},
	{header: "mathematics_arithmetic", subject: domain.SubjectMathematics, component: "arithmetic"},
	{header: "mathematics_geometry", subject: domain.SubjectMathematics, component: "geometry"},
	{header: "mathematics_problem_solving", subject: domain.SubjectMathematics, component: "problem_solving"},
	{header: "mathematics_data_analysis", subject: domain.SubjectMathematics, component: "data_analysis"},
}

// Record is one successfully parsed student row, ready to be turned
// into an assessment.
type Record struct {
	StudentID  string
	GradeLevel int
	Subjects   map[string]domain.SubjectScores
}

// RowIssue reports why a row was skipped. Row is the 1-based row
// number as shown in a spreadsheet application.
type RowIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result holds the parsed records alongside the rows that were skipped.
type Result struct {
	Records []Record
	Issues  []RowIssue
}

// Importer parses xlsx score sheets.
type Importer struct {
	logger *slog.Logger
}

// NewImporter creates an Importer. A nil logger falls back to the
// default slog logger.
func NewImporter(logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{logger: logger.With(slog.String("component", "importer"))}
}

// Parse reads an xlsx score sheet from r. The first sheet must start
// with the expected header row; every following non-empty row becomes
// either a Record or a RowIssue. Parse only fails outright when the
// file or the header is unusable.
func (i *Importer) Parse(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			i.logger.Warn("failed to close excel file", slog.String("error", err.Error()))
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	if err := validateHeader(rows[0]); err != nil {
		return nil, err
	}
	if len(rows) == 1 {
		return nil, ErrEmptySheet
	}

	result := &Result{}
	for idx, row := range rows[1:] {
		rowNum := idx + 2 // 1-based, after the header

		if isBlankRow(row) {
			continue
		}

		record, err := parseRow(row)
		if err != nil {
			i.logger.Debug("skipping malformed row",
				slog.Int("row", rowNum),
				slog.String("reason", err.Error()))
			result.Issues = append(result.Issues, RowIssue{Row: rowNum, Reason: err.Error()})
			continue
		}

		result.Records = append(result.Records, *record)
	}

	i.logger.Info("parsed score sheet",
		slog.String("sheet", sheetName),
		slog.Int("records", len(result.Records)),
		slog.Int("skipped", len(result.Issues)))

	return result, nil
}

// validateHeader checks the header row against the expected layout.
func validateHeader(header []string) error {
	if len(header) < len(expectedColumns) {
		return fmt.Errorf("%w: expected %d columns, got %d",
			ErrInvalidHeader, len(expectedColumns), len(header))
	}
	for idx, col := range expectedColumns {
		got := strings.ToLower(strings.TrimSpace(header[idx]))
		if got != col.header {
			return fmt.Errorf("%w: column %d should be %q, got %q",
				ErrInvalidHeader, idx+1, col.header, header[idx])
		}
	}
	return nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseRow converts one data row into a Record. The overall score per
// subject is the rounded mean of its component scores.
func parseRow(row []string) (*Record, error) {
	if len(row) < len(expectedColumns) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(expectedColumns), len(row))
	}

	studentID := strings.TrimSpace(row[0])
	if studentID == "" {
		return nil, errors.New("missing student_id")
	}

	gradeLevel, err := strconv.Atoi(strings.TrimSpace(row[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid grade_level %q", row[1])
	}
	if gradeLevel < domain.MinGradeLevel || gradeLevel > domain.MaxGradeLevel {
		return nil, fmt.Errorf("grade_level %d out of range %d-%d",
			gradeLevel, domain.MinGradeLevel, domain.MaxGradeLevel)
	}

	components := make(map[string]map[string]int)
	for idx, col := range expectedColumns {
		if col.subject == "" {
			continue
		}

		score, err := strconv.Atoi(strings.TrimSpace(row[idx]))
		if err != nil {
			return nil, fmt.Errorf("invalid score %q in column %s", row[idx], col.header)
		}
		if score < domain.MinScore || score > domain.MaxScore {
			return nil, fmt.Errorf("score %d in column %s out of range %d-%d",
				score, col.header, domain.MinScore, domain.MaxScore)
		}

		if components[col.subject] == nil {
			components[col.subject] = make(map[string]int)
		}
		components[col.subject][col.component] = score
	}

	subjects := make(map[string]domain.SubjectScores, len(components))
	for subject, scores := range components {
		subjects[subject] = domain.SubjectScores{
			OverallScore: roundedMean(scores),
			Components:   scores,
		}
	}

	return &Record{
		StudentID:  studentID,
		GradeLevel: gradeLevel,
		Subjects:   subjects,
	}, nil
}

func roundedMean(scores map[string]int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, score := range scores {
		sum += score
	}
	return (sum + len(scores)/2) / len(scores)
}
