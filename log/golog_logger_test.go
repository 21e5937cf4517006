package log

import (
	"bytes"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
)

func newBufferedGolog(buf *bytes.Buffer) *golog.Logger {
	g := golog.New()
	g.SetOutput(buf)
	g.SetTimeFormat("")
	return g
}

func TestNewGologLogger(t *testing.T) {
	logger := NewGologLogger(golog.New())
	assert.Equal(t, LogLevelInfo, logger.GetLevel())
}

func TestGologLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewGologLogger(newBufferedGolog(&buf))
	logger.SetLevel(LogLevelWarn)

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("index %s has no nodes", "abc")
	logger.Error("load failed: %v", "corrupt")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "index abc has no nodes")
	assert.Contains(t, out, "load failed: corrupt")
}

func TestGologLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewGologLogger(newBufferedGolog(&buf))

	for _, level := range []LogLevel{LogLevelDebug, LogLevelError, LogLevelNone} {
		logger.SetLevel(level)
		assert.Equal(t, level, logger.GetLevel())
	}

	logger.Error("dropped")
	assert.Empty(t, buf.String())

	logger.SetLevel(LogLevel(99))
	assert.Equal(t, LogLevelInfo, logger.GetLevel())
}

func TestNewGologLoggerWithLevel(t *testing.T) {
	logger := NewGologLoggerWithLevel(LogLevelDebug)
	assert.Equal(t, LogLevelDebug, logger.GetLevel())

	var buf bytes.Buffer
	logger.logger.SetOutput(&buf)
	logger.Debug("visit %s", "root")
	assert.Contains(t, buf.String(), "[gptindex] ")
	assert.Contains(t, buf.String(), "visit root")
}
