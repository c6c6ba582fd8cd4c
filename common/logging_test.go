package common

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger_Levels(t *testing.T) {
	logger := SetupLogger(&LoggingOpts{Debug: true, JSON: true, Service: "test", Version: "v0"})
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = SetupLogger(&LoggingOpts{})
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}
