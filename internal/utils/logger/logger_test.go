package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"anchorview/internal/app/server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		expectedLevel slog.Level
	}{
		{
			name:          "local environment",
			env:           config.EnvLocal,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "dev environment",
			env:           config.EnvDev,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "prod environment",
			env:           config.EnvProd,
			expectedLevel: slog.LevelInfo,
		},
		{
			name:          "unknown environment",
			env:           "staging",
			expectedLevel: slog.LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.env)
			require.NotNil(t, logger)
			ctx := context.Background()
			assert.Equal(t, tt.expectedLevel <= slog.LevelDebug, logger.Enabled(ctx, slog.LevelDebug))
			assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
		})
	}
}

func TestSetupPrettySlog(t *testing.T) {
	logger := setupPrettySlog()
	require.NotNil(t, logger)

	ctx := context.Background()
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))

	child := logger.With(slog.String("component", "test"))
	assert.NotPanics(t, func() { child.Debug("message", slog.Int("n", 1)) })
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")

	logger := NewWithFile(config.EnvProd, path)
	logger.Info("proxy started", slog.String("address", "localhost:3000"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"proxy started"`)
	assert.Contains(t, string(data), `"address":"localhost:3000"`)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewWithFile_EmptyPath(t *testing.T) {
	logger := NewWithFile(config.EnvDev, "")

	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewWithLevel(t *testing.T) {
	ctx := context.Background()

	warn := NewWithLevel(config.EnvProd, "warn")
	assert.False(t, warn.Enabled(ctx, slog.LevelInfo))
	assert.True(t, warn.Enabled(ctx, slog.LevelWarn))

	debug := NewWithLevel(config.EnvProd, "DEBUG")
	assert.True(t, debug.Enabled(ctx, slog.LevelDebug))

	fallback := NewWithLevel(config.EnvProd, "loud")
	assert.False(t, fallback.Enabled(ctx, slog.LevelDebug))
}
