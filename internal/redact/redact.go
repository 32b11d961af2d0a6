// Package redact removes sensitive information from strings before
// they are logged. Error messages can carry connection strings, API
// keys, tokens, file paths, and raw SQL; everything the API logs goes
// through here first.
package redact

import "regexp"

// Redaction placeholders
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
)

// Precompiled patterns paired with their placeholders. Order matters:
// credential patterns run before the broader path and host patterns so
// a connection string is not half-eaten by the path rule first.
var rules = []struct {
	pattern     *regexp.Regexp
	placeholder string
}{
	// Database connection strings with embedded credentials
	{regexp.MustCompile(`(?i)(postgres|postgresql|mysql|mongodb)://[^@\s]+@`), RedactedCredentialPlaceholder},

	// Password fragments in messages or DSNs
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]['"]?|['"]?[=:])[^'"&\s]{3,}`), RedactedCredentialPlaceholder},

	// Google API keys (Gemini credentials are the main secret this
	// service holds)
	{regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`), RedactedKeyPlaceholder},

	// JWT tokens (three base64url segments, first two starting "eyJ").
	// Must run before the generic token rule below.
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), "[REDACTED_JWT]"},

	// Generic API keys, tokens, and secrets
	{regexp.MustCompile(`(?i)(api[_-]?key|token|secret|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), RedactedKeyPlaceholder},

	// File paths
	{regexp.MustCompile(`(/[\w.-]+){2,}`), RedactedPathPlaceholder},

	// Email addresses (teacher accounts are PII)
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[REDACTED_EMAIL]"},

	// SQL fragments leaking schema details
	{regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)[\s\w,*()]+(?:FROM|INTO|SET|TABLE)[\s\w,*()='"$]*`), "[REDACTED_SQL]"},

	// Host:port pairs
	{regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`), "[REDACTED_HOST]"},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, rule := range rules {
		result = rule.pattern.ReplaceAllString(result, rule.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's message.
// Returns an empty string for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
