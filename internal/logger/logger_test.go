package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_ToCharmlogLevel(t *testing.T) {
	t.Run("Should convert all log levels to charm log levels correctly", func(t *testing.T) {
		testCases := []struct {
			level    LogLevel
			expected int
		}{
			{DebugLevel, -4},
			{InfoLevel, 0},
			{WarnLevel, 4},
			{ErrorLevel, 8},
			{DisabledLevel, 1000},
			{LogLevel("unknown"), 0},
		}
		for _, tc := range testCases {
			assert.Equal(t, tc.expected, int(tc.level.ToCharmlogLevel()), "level %s", tc.level)
		}
	})
}

func TestLevels(t *testing.T) {
	t.Run("Should map every listed level", func(t *testing.T) {
		require.Len(t, Levels, 5)
		for _, l := range Levels {
			lvl := LogLevel(l)
			if lvl == InfoLevel {
				continue
			}
			assert.NotEqual(t, 0, int(lvl.ToCharmlogLevel()), "level %s", l)
		}
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should write text records at or above the level", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: WarnLevel, Output: &buf})

		log.Info("hidden")
		log.Warn("shown", "size", "1.2 kB")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "shown")
		assert.Contains(t, out, "size")
	})

	t.Run("Should write JSON records when configured", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: DebugLevel, Output: &buf, JSON: true})

		log.With("file", "a.md").Debug("parsed", "events", 4)

		out := buf.String()
		require.NotEmpty(t, out)
		assert.Contains(t, out, `"msg":"parsed"`)
		assert.Contains(t, out, `"file":"a.md"`)
	})

	t.Run("Should write nothing when disabled", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: DisabledLevel, Output: &buf})

		log.Error("boom")

		assert.Empty(t, buf.String())
	})

	t.Run("Should log at debug level into the test config", func(t *testing.T) {
		cfg := TestConfig()
		var buf bytes.Buffer
		cfg.Output = &buf
		NewLogger(cfg).Debug("parsed", "events", 4)
		assert.Contains(t, buf.String(), "parsed")
	})

	t.Run("Should fall back to the default config", func(t *testing.T) {
		require.NotNil(t, NewLogger(nil))
	})
}
