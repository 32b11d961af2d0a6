// Package analysis provides interfaces and error types for interacting
// with external AI/LLM services for assessment analysis. It abstracts the
// details of LLM API integration (Gemini), allowing the application to
// analyze student assessments without coupling to specific external services.
package analysis
