// Package config handles configuration loading, parsing, and validation
// from environment variables and optional config files. It provides
// type-safe access to the server, database, auth, Gemini, and task
// runner settings the rest of the application depends on.
package config
