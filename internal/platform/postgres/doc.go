// Package postgres provides the PostgreSQL implementations of the storage
// interfaces defined in internal/store, plus the task store used by the
// background pipeline. Assessment subjects and analysis results are stored
// as JSONB documents; embedded goose migrations define the schema.
package postgres
