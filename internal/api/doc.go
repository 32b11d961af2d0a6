// Package api implements the HTTP handlers for authentication,
// assessment submission, analysis retrieval, and score sheet import.
// It validates requests, maps service errors onto HTTP status codes
// with sanitized messages, and shapes domain entities into responses.
package api
