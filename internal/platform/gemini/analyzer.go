package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"text/template"
	"time"

	"github.com/didiklab/taksir-api/internal/analysis"
	"github.com/didiklab/taksir-api/internal/config"
	"github.com/didiklab/taksir-api/internal/domain"
	"google.golang.org/genai"
)

// GeminiAnalyzer implements the analysis.Analyzer interface using Google's
// Gemini API to analyze student assessment records.
type GeminiAnalyzer struct {
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// promptTemplate is the parsed template for creating analysis prompts
	promptTemplate *template.Template

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string
}

// Ensure GeminiAnalyzer implements analysis.Analyzer interface
var _ analysis.Analyzer = (*GeminiAnalyzer)(nil)

// NewGeminiAnalyzer creates a new GeminiAnalyzer with the provided
// dependencies. The prompt template is loaded from
// config.PromptTemplatePath when set, otherwise the embedded default
// template is used.
func NewGeminiAnalyzer(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
) (*GeminiAnalyzer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", analysis.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", analysis.ErrInvalidConfig)
	}

	promptTemplate, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			analysis.ErrInvalidConfig, err)
	}

	return &GeminiAnalyzer{
		logger:         logger.With(slog.String("component", "gemini_analyzer")),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// AnalyzeAssessment implements analysis.Analyzer.AnalyzeAssessment
// It renders the assessment into a prompt, calls the Gemini API with retry,
// validates the JSON result against the fixed schema, and maps it onto a
// domain.Analysis.
func (a *GeminiAnalyzer) AnalyzeAssessment(
	ctx context.Context,
	assessment *domain.Assessment,
) (*domain.Analysis, error) {
	if assessment == nil {
		return nil, fmt.Errorf("%w: assessment is nil", analysis.ErrAnalysisFailed)
	}
	if err := assessment.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", analysis.ErrAnalysisFailed, err)
	}

	prompt, err := renderPrompt(a.promptTemplate, assessment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", analysis.ErrAnalysisFailed, err)
	}

	a.logger.InfoContext(ctx, "analyzing assessment",
		slog.String("assessment_id", assessment.ID.String()),
		slog.String("student_id", assessment.StudentID),
		slog.Int("prompt_length", len(prompt)))

	response, raw, err := a.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	levels, strengths, weaknesses, improvements, enrichment := response.toDomain()

	result, err := domain.NewAnalysis(
		assessment.ID,
		a.model,
		levels,
		strengths,
		weaknesses,
		improvements,
		enrichment,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", analysis.ErrInvalidResponse, err)
	}
	result.RawResponse = raw

	a.logger.InfoContext(ctx, "assessment analysis complete",
		slog.String("assessment_id", assessment.ID.String()),
		slog.Int("strength_count", len(result.Strengths)),
		slog.Int("weakness_count", len(result.Weaknesses)))

	return result, nil
}

// callWithRetry calls the Gemini API with exponential backoff retry logic.
//
// It attempts the call up to config.MaxRetries+1 times, backing off with
// jitter between retries for transient errors. Permanent errors (blocked
// content, unparseable responses) are returned immediately without retrying.
func (a *GeminiAnalyzer) callWithRetry(
	ctx context.Context,
	prompt string,
) (*responseSchema, json.RawMessage, error) {
	maxRetries := a.config.MaxRetries
	baseDelaySeconds := a.config.RetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 0 {
		a.logger.WarnContext(ctx, "invalid max retries value, using default",
			slog.Int("max_retries", 3))
		maxRetries = 3
	}
	if baseDelaySeconds < 1 {
		a.logger.WarnContext(ctx, "invalid retry delay value, using default",
			slog.Int("base_delay_seconds", 2))
		baseDelaySeconds = 2
	}

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		a.logger.InfoContext(ctx, "making Gemini API call",
			slog.Int("attempt", attemptNum),
			slog.Int("max_attempts", maxRetries+1))

		response, raw, err := a.callOnce(ctx, prompt)
		if err == nil {
			a.logger.InfoContext(ctx, "Gemini API call successful",
				slog.Int("attempt", attemptNum))
			return response, raw, nil
		}

		a.logger.ErrorContext(ctx, "Gemini API call failed",
			slog.Int("attempt", attemptNum),
			slog.String("error", err.Error()))

		// Permanent errors are not retried.
		if errors.Is(err, analysis.ErrContentBlocked) || errors.Is(err, analysis.ErrInvalidResponse) {
			a.logger.WarnContext(ctx, "permanent error occurred, not retrying")
			return nil, nil, err
		}

		if attempt >= maxRetries {
			a.logger.WarnContext(ctx, "maximum retry attempts reached",
				slog.Int("max_retries", maxRetries))
			return nil, nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				analysis.ErrTransientFailure, maxRetries, err)
		}

		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		a.logger.InfoContext(ctx, "retrying after delay",
			slog.Int("attempt", attemptNum),
			slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			a.logger.WarnContext(ctx, "API call cancelled during retry delay",
				slog.Int("attempt", attemptNum),
				slog.String("ctx_err", ctx.Err().Error()))
			return nil, nil, fmt.Errorf("%w: %v", analysis.ErrTransientFailure, ctx.Err())
		}
	}
}

// callOnce makes a single Gemini API call and parses its response.
// Transient failures are wrapped in analysis.ErrTransientFailure; everything
// else is permanent.
func (a *GeminiAnalyzer) callOnce(
	ctx context.Context,
	prompt string,
) (*responseSchema, json.RawMessage, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
	}}

	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, genConfig)
	if err != nil {
		return nil, nil, classifyAPIError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, nil, fmt.Errorf("%w: no content generated", analysis.ErrInvalidResponse)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return nil, nil, fmt.Errorf("%w: finish reason %s",
			analysis.ErrContentBlocked, resp.Candidates[0].FinishReason)
	}

	raw, err := extractJSON(resp.Text())
	if err != nil {
		return nil, nil, err
	}

	if err := validateResult(raw); err != nil {
		return nil, nil, err
	}

	var parsed responseSchema
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to decode JSON response: %v",
			analysis.ErrInvalidResponse, err)
	}

	return &parsed, raw, nil
}

// classifyAPIError wraps a Gemini API error as transient when it looks
// retryable (rate limiting, server-side failures) and returns it as a
// permanent failure otherwise.
func classifyAPIError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return fmt.Errorf("%w: %v", analysis.ErrTransientFailure, err)
		}
		return fmt.Errorf("%w: %v", analysis.ErrAnalysisFailed, err)
	}

	// Network-level failures without an API error code are assumed transient.
	return fmt.Errorf("%w: %v", analysis.ErrTransientFailure, err)
}
