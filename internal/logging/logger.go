package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fadedpez/scoreboard/internal/types"
)

// Level represents a logging level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// ParseLevel maps a level name such as "debug" or "WARN" to a Level.
// Unknown names fall back to INFO.
func ParseLevel(name string) Level {
	for level, levelName := range levelNames {
		if strings.EqualFold(name, levelName) {
			return level
		}
	}
	return INFO
}

// Logger is a leveled logger that prefixes every line with a timestamp,
// the level and the calling file.
type Logger struct {
	*log.Logger
	level     Level
	component string
}

// NewLogger creates a logger writing to stdout
func NewLogger(level Level) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo creates a logger writing to w
func NewLoggerTo(w io.Writer, level Level) *Logger {
	return &Logger{
		Logger: log.New(w, "", 0),
		level:  level,
	}
}

// Named returns a logger sharing the same output that tags lines with
// component.
func (l *Logger) Named(component string) *Logger {
	return &Logger{
		Logger:    l.Logger,
		level:     l.level,
		component: component,
	}
}

func (l *Logger) formatMessage(level Level, msg string) string {
	_, file, line, ok := runtime.Caller(3)
	caller := "unknown"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")

	if l.component != "" {
		msg = "[" + strings.ToUpper(l.component) + "] " + msg
	}

	return fmt.Sprintf("[%s] %-5s %s: %s",
		timestamp,
		levelNames[level],
		caller,
		msg,
	)
}

func (l *Logger) logf(level Level, format string, v ...interface{}) {
	if l.level <= level {
		l.Output(3, l.formatMessage(level, fmt.Sprintf(format, v...)))
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.logf(DEBUG, format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.logf(INFO, format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.logf(WARN, format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.logf(ERROR, format, v...)
}

// LogError logs err, expanding the code and cause of a GameError.
// Caller-recoverable codes are logged at WARN, the rest at ERROR.
func (l *Logger) LogError(err error) {
	var gameErr *types.GameError
	if !types.As(err, &gameErr) {
		l.logf(ERROR, "Unexpected error: %v", err)
		return
	}

	context := []string{
		fmt.Sprintf("Code: %s", gameErr.Code),
		fmt.Sprintf("Message: %s", gameErr.Message),
	}
	if gameErr.Err != nil {
		context = append(context, fmt.Sprintf("Cause: %v", gameErr.Err))
	}

	switch gameErr.Code {
	case types.ErrInternalError, types.ErrDatabaseError:
		l.logf(ERROR, "Game error occurred:\n\t%s", strings.Join(context, "\n\t"))
	default:
		l.logf(WARN, "Game error occurred:\n\t%s", strings.Join(context, "\n\t"))
	}
}

// Discard is a logger that writes nothing, for tests and optional wiring
var Discard = NewLoggerTo(io.Discard, ERROR+1)

// Default logger instance
var Default = NewLogger(INFO)
