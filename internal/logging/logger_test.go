package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/profile-factory/internal/domain/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger_Levels(t *testing.T) {
	ctx := context.Background()

	log := NewLogger(&config.RuntimeConfig{})
	assert.False(t, log.Enabled(ctx, slog.LevelInfo))
	assert.True(t, log.Enabled(ctx, slog.LevelWarn))

	log = NewLogger(&config.RuntimeConfig{Debug: true})
	assert.True(t, log.Enabled(ctx, slog.LevelDebug))

	t.Setenv("PFACTORY_LOG_LEVEL", "error")
	log = NewLogger(&config.RuntimeConfig{Debug: true})
	assert.False(t, log.Enabled(ctx, slog.LevelWarn))
}
