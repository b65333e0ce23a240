package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{level: "debug", wantDebug: true, wantInfo: true, wantWarn: true},
		{level: "info", wantDebug: false, wantInfo: true, wantWarn: true},
		{level: "warn", wantDebug: false, wantInfo: false, wantWarn: true},
		{level: "error", wantDebug: false, wantInfo: false, wantWarn: false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(tt.level, &buf)

			logger.Debug().Msg("debug message")
			logger.Info().Msg("info message")
			logger.Warn().Msg("warn message")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "debug message"))
			assert.Equal(t, tt.wantInfo, strings.Contains(out, "info message"))
			assert.Equal(t, tt.wantWarn, strings.Contains(out, "warn message"))
		})
	}
}

func TestNew_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", &buf)

	logger.Info().Str("path", "jane.pdf").Int("inserted", 3).Msg("report ingested")

	out := buf.String()
	assert.Contains(t, out, "report ingested")
	assert.Contains(t, out, "jane.pdf")
	assert.Contains(t, out, "inserted=3")
}

func TestForMode(t *testing.T) {
	assert.Equal(t, log.WarnLevel, ForMode(true, "info").Level)
	assert.Equal(t, log.DebugLevel, ForMode(true, "debug").Level)
	assert.Equal(t, log.InfoLevel, ForMode(false, "info").Level)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() {
		logger.Error().Str("path", "a.pdf").Msg("dropped")
	})
}
