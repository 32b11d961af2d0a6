package analysis

import "errors"

// Common errors returned by analysis implementations
var (
	// ErrAnalysisFailed is returned when analysis fails for any general reason
	ErrAnalysisFailed = errors.New("failed to analyze assessment")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during assessment analysis")

	// ErrInvalidConfig is returned when the analyzer configuration is invalid
	ErrInvalidConfig = errors.New("invalid analyzer configuration")
)
