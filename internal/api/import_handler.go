package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/didiklab/taksir-api/internal/api/shared"
	"github.com/didiklab/taksir-api/internal/importer"
	"github.com/didiklab/taksir-api/internal/service"
)

// maxImportFileSize bounds uploaded score sheets to 10 MiB.
const maxImportFileSize = 10 << 20

// ImportHandler handles bulk score sheet uploads.
type ImportHandler struct {
	assessmentService service.AssessmentService
	importer          *importer.Importer
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(assessmentService service.AssessmentService, imp *importer.Importer) *ImportHandler {
	return &ImportHandler{
		assessmentService: assessmentService,
		importer:          imp,
	}
}

// ImportAssessments handles POST /api/assessments/import. It expects a
// multipart form with an xlsx score sheet under the "file" field. Each
// parsed row becomes a pending assessment with an analysis task
// enqueued; rows that could not be parsed or persisted are reported in
// the response rather than failing the whole upload.
func (h *ImportHandler) ImportAssessments(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportFileSize)
	if err := r.ParseMultipartForm(maxImportFileSize); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing file upload")
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("failed to close uploaded file", "error", err)
		}
	}()

	result, err := h.importer.Parse(file)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrInvalidHeader),
			errors.Is(err, importer.ErrNoSheets),
			errors.Is(err, importer.ErrEmptySheet):
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, err.Error(), err)
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Could not read score sheet", err)
		}
		return
	}

	response := ImportResponse{
		Created: []AssessmentResponse{},
		Skipped: result.Issues,
	}

	for _, record := range result.Records {
		assessment, err := h.assessmentService.CreateAssessmentAndEnqueueTask(
			r.Context(), userID, record.StudentID, record.GradeLevel, record.Subjects)
		if err != nil {
			slog.Warn("failed to create assessment from import",
				"student_id", record.StudentID,
				"error", err)
			response.Skipped = append(response.Skipped, importer.RowIssue{
				Reason: "could not create assessment for student " + record.StudentID,
			})
			continue
		}
		response.Created = append(response.Created, assessmentToResponse(assessment))
	}

	status := http.StatusAccepted
	if len(response.Created) == 0 {
		// Nothing usable in the sheet.
		status = http.StatusBadRequest
	}

	shared.RespondWithJSON(w, r, status, response)
}
