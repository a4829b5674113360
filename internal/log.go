package internal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// LogLevel controls logging verbosity.
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// ParseLogLevel maps a level name to a LogLevel, defaulting to info.
func ParseLogLevel(name string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ERROR":
		return LogLevelError
	case "WARN", "WARNING":
		return LogLevelWarn
	case "DEBUG":
		return LogLevelDebug
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return "INFO"
	}
}

// Logger writes leveled, component-tagged lines. The zero value is not
// usable; construct via NewLogger or NewDefaultLogger.
type Logger struct {
	level     LogLevel
	component string
	out       io.Writer
}

// NewLogger creates a logger at the given level writing to out.
func NewLogger(level LogLevel, component string, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{level: level, component: component, out: out}
}

// NewDefaultLogger reads LOG_LEVEL from the environment and writes to stderr.
func NewDefaultLogger(component string) *Logger {
	return NewLogger(ParseLogLevel(os.Getenv("LOG_LEVEL")), component, os.Stderr)
}

// With returns a logger sharing level and output but tagged with component.
func (l *Logger) With(component string) *Logger {
	return &Logger{level: l.level, component: component, out: l.out}
}

// Level returns the configured level.
func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) logf(level LogLevel, format string, args ...any) {
	if level > l.level {
		return
	}
	ts := time.Now().Format("2006/01/02 15:04:05")
	fmt.Fprintf(l.out, "%s [%s] %s: %s\n", ts, level, l.component, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level.
func (l *Logger) Error(format string, args ...any) { l.logf(LogLevelError, format, args...) }

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...any) { l.logf(LogLevelWarn, format, args...) }

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...any) { l.logf(LogLevelInfo, format, args...) }

// Debug logs at DEBUG level.
func (l *Logger) Debug(format string, args ...any) { l.logf(LogLevelDebug, format, args...) }
