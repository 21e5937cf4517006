package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel is the minimum severity a logger writes.
type LogLevel int

const (
	// LogLevelDebug for per-index traversal and synthesis details
	LogLevelDebug LogLevel = iota
	// LogLevelInfo for build and persistence events
	LogLevelInfo
	// LogLevelWarn for skipped input and other recoverable oddities
	LogLevelWarn
	// LogLevelError for failures that abort an operation
	LogLevelError
	// LogLevelNone disables all logging
	LogLevelNone
)

const defaultPrefix = "[gptindex] "

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "NONE"}

func (l LogLevel) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("UNKNOWN(%d)", l)
}

// ParseLevel converts a config value such as "debug" or "WARN" into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "none", "disable", "off":
		return LogLevelNone, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger is the leveled logger threaded through the service context.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// DefaultLogger writes through the standard library logger, tagging each line with
// its level.
type DefaultLogger struct {
	out   *log.Logger
	level LogLevel
}

// NewDefaultLogger creates a logger writing to stderr.
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return NewCustomLogger(os.Stderr, level)
}

// NewCustomLogger creates a logger writing to out.
func NewCustomLogger(out io.Writer, level LogLevel) *DefaultLogger {
	return &DefaultLogger{
		out:   log.New(out, defaultPrefix, log.LstdFlags),
		level: level,
	}
}

// Enabled reports whether messages at level are written.
func (l *DefaultLogger) Enabled(level LogLevel) bool {
	return level >= l.level && level < LogLevelNone
}

func (l *DefaultLogger) logf(level LogLevel, format string, v []any) {
	if l.Enabled(level) {
		l.out.Printf("["+level.String()+"] "+format, v...)
	}
}

func (l *DefaultLogger) Debug(format string, v ...any) { l.logf(LogLevelDebug, format, v) }
func (l *DefaultLogger) Info(format string, v ...any)  { l.logf(LogLevelInfo, format, v) }
func (l *DefaultLogger) Warn(format string, v ...any)  { l.logf(LogLevelWarn, format, v) }
func (l *DefaultLogger) Error(format string, v ...any) { l.logf(LogLevelError, format, v) }

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

// Named returns a logger that prefixes every message of l with "name: ".
func Named(l Logger, name string) Logger {
	if n, ok := l.(*named); ok {
		return &named{base: n.base, prefix: n.prefix + name + ": "}
	}
	return &named{base: l, prefix: name + ": "}
}

type named struct {
	base   Logger
	prefix string
}

func (n *named) Debug(format string, v ...any) { n.base.Debug(n.prefix+format, v...) }
func (n *named) Info(format string, v ...any)  { n.base.Info(n.prefix+format, v...) }
func (n *named) Warn(format string, v ...any)  { n.base.Warn(n.prefix+format, v...) }
func (n *named) Error(format string, v ...any) { n.base.Error(n.prefix+format, v...) }

type holder struct{ Logger }

var defaultLogger atomic.Pointer[holder]

func init() {
	defaultLogger.Store(&holder{NewDefaultLogger(LogLevelInfo)})
}

// SetDefaultLogger replaces the logger used by components built without one.
func SetDefaultLogger(logger Logger) {
	defaultLogger.Store(&holder{logger})
}

// GetDefaultLogger returns the logger used by components built without one. It logs
// at info level to stderr unless replaced.
func GetDefaultLogger() Logger {
	return defaultLogger.Load().Logger
}
