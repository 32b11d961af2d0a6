package logger_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/didiklab/taksir-api/internal/config"
	"github.com/didiklab/taksir-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupReturnsLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"mixed case", "DEBUG"},
		{"invalid level falls back to info", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.Setup(config.ServerConfig{Port: 8080, LogLevel: tt.logLevel})
			require.NotNil(t, log)
			assert.Same(t, slog.Default(), log, "Setup should install the logger as default")
		})
	}
}

func TestContextLogger(t *testing.T) {
	base := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "test")
	ctx := context.Background()

	// No logger in context: default is returned.
	assert.Same(t, slog.Default(), logger.FromContext(ctx))

	// Logger stored in context is retrieved.
	ctx = logger.WithLogger(ctx, base)
	assert.Same(t, base, logger.FromContext(ctx))
	assert.Same(t, base, logger.FromContextOrDefault(ctx, nil))
}

func TestFromContextOrDefaultFallback(t *testing.T) {
	fallback := slog.New(slog.NewTextHandler(os.Stderr, nil))

	got := logger.FromContextOrDefault(context.Background(), fallback)
	assert.Same(t, fallback, got, "fallback should be used when context has no logger")

	got = logger.FromContextOrDefault(context.Background(), nil)
	assert.Same(t, slog.Default(), got, "default should be used when fallback is nil")
}
