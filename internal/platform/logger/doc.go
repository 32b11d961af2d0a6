// Package logger sets up structured JSON logging with log/slog and
// carries request-scoped loggers through context so handlers, services,
// and stores share the same trace attributes.
package logger
