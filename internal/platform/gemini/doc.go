// Package gemini implements the analysis.Analyzer interface using Google's
// Gemini API. It renders assessment records into an analysis prompt, calls
// the model with retry and backoff, extracts the JSON object from the
// response text, and validates it against a fixed result schema before
// mapping it onto domain types.
package gemini
