package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/ficha/internal/config"
)

func TestNewLogger_LevelGatesOutput(t *testing.T) {
	cases := []struct {
		level   string
		enabled zapcore.Level
		dropped zapcore.Level
	}{
		{"debug", zapcore.DebugLevel, zapcore.Level(-2)},
		{"info", zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel, zapcore.InfoLevel},
		{"error", zapcore.ErrorLevel, zapcore.WarnLevel},
	}
	for _, tc := range cases {
		for _, format := range []string{"json", "console"} {
			logger, err := NewLogger(config.LoggingConfig{Level: tc.level, Format: format})
			require.NoError(t, err, "%s/%s", tc.level, format)
			assert.True(t, logger.Core().Enabled(tc.enabled), "%s/%s", tc.level, format)
			assert.False(t, logger.Core().Enabled(tc.dropped), "%s/%s", tc.level, format)
		}
	}
}

func TestNewLogger_Rejections(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "trace", Format: "json"})
	assert.ErrorContains(t, err, "logging.level")

	_, err = NewLogger(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.ErrorContains(t, err, "logging.format")
}
