// Package logger internal/infrastructure/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level represents the severity level of a log message
type Level string

const (
	// DebugLevel is used for development messages
	DebugLevel Level = "DEBUG"
	// InfoLevel is used for general operational information
	InfoLevel Level = "INFO"
	// WarnLevel is used for warnings and potential issues
	WarnLevel Level = "WARN"
	// ErrorLevel is used for errors and unexpected events
	ErrorLevel Level = "ERROR"
	// FatalLevel is used for critical errors that require termination
	FatalLevel Level = "FATAL"
)

// Output formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Logger defines the interface for the application logger
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Fatal(msg string, fields map[string]interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// LogrusLogger adapts a logrus entry to the Logger interface
type LogrusLogger struct {
	entry *logrus.Entry
}

// ParseLevel converts a configuration string such as "info" to a Level
func ParseLevel(s string) (Level, error) {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return "", err
	}
	switch lvl {
	case logrus.TraceLevel, logrus.DebugLevel:
		return DebugLevel, nil
	case logrus.InfoLevel:
		return InfoLevel, nil
	case logrus.WarnLevel:
		return WarnLevel, nil
	case logrus.ErrorLevel:
		return ErrorLevel, nil
	default:
		return FatalLevel, nil
	}
}

// NewLogrusLogger creates a logger writing to output in the given format ("json" or "text")
func NewLogrusLogger(output io.Writer, level Level, format string) *LogrusLogger {
	if output == nil {
		output = os.Stdout
	}

	base := logrus.New()
	base.SetOutput(output)
	base.SetLevel(toLogrusLevel(level))

	if strings.EqualFold(format, FormatText) {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	}

	return &LogrusLogger{entry: logrus.NewEntry(base)}
}

// NewJSONLogger creates a JSON logger
func NewJSONLogger(output io.Writer, level Level) *LogrusLogger {
	return NewLogrusLogger(output, level, FormatJSON)
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *LogrusLogger {
	return NewLogrusLogger(io.Discard, FatalLevel, FormatJSON)
}

func toLogrusLevel(level Level) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// WithField returns a new logger with the field added to the log context
func (l *LogrusLogger) WithField(key string, value interface{}) Logger {
	return &LogrusLogger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a new logger with the fields added to the log context
func (l *LogrusLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return l
	}
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// Debug logs a message at debug level
func (l *LogrusLogger) Debug(msg string, fields map[string]interface{}) {
	l.logSkip(callerSkip, logrus.DebugLevel, msg, fields)
}

// Info logs a message at info level
func (l *LogrusLogger) Info(msg string, fields map[string]interface{}) {
	l.logSkip(callerSkip, logrus.InfoLevel, msg, fields)
}

// Warn logs a message at warn level
func (l *LogrusLogger) Warn(msg string, fields map[string]interface{}) {
	l.logSkip(callerSkip, logrus.WarnLevel, msg, fields)
}

// Error logs a message at error level
func (l *LogrusLogger) Error(msg string, fields map[string]interface{}) {
	l.logSkip(callerSkip, logrus.ErrorLevel, msg, fields)
}

// Fatal logs a message at fatal level and then terminates the program
func (l *LogrusLogger) Fatal(msg string, fields map[string]interface{}) {
	l.logSkip(callerSkip, logrus.FatalLevel, msg, fields)
	os.Exit(1)
}

// callerSkip is the stack depth of the code calling a logging method or one of the
// package-level helpers, as seen from caller
const callerSkip = 3

// logSkip skips building the entry when the level is disabled
func (l *LogrusLogger) logSkip(skip int, level logrus.Level, msg string, fields map[string]interface{}) {
	if !l.entry.Logger.IsLevelEnabled(level) {
		return
	}

	entry := l.entry.WithField("caller", caller(skip))
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields))
	}

	// Fatal is routed through Log so that os.Exit stays under our control
	entry.Log(level, msg)
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown:0"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// Default logger instances
var (
	defaultLogger Logger = NewJSONLogger(os.Stdout, InfoLevel)
)

// GetDefaultLogger returns the default logger
func GetDefaultLogger() Logger {
	return defaultLogger
}

// SetDefaultLogger sets the default logger
func SetDefaultLogger(logger Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}

// Debug Global logger functions. A *LogrusLogger default is called directly so that the
// caller field points at the code using these helpers.
func Debug(msg string, fields map[string]interface{}) {
	if l, ok := defaultLogger.(*LogrusLogger); ok {
		l.logSkip(callerSkip, logrus.DebugLevel, msg, fields)
		return
	}
	defaultLogger.Debug(msg, fields)
}

func Info(msg string, fields map[string]interface{}) {
	if l, ok := defaultLogger.(*LogrusLogger); ok {
		l.logSkip(callerSkip, logrus.InfoLevel, msg, fields)
		return
	}
	defaultLogger.Info(msg, fields)
}

func Warn(msg string, fields map[string]interface{}) {
	if l, ok := defaultLogger.(*LogrusLogger); ok {
		l.logSkip(callerSkip, logrus.WarnLevel, msg, fields)
		return
	}
	defaultLogger.Warn(msg, fields)
}

func Error(msg string, fields map[string]interface{}) {
	if l, ok := defaultLogger.(*LogrusLogger); ok {
		l.logSkip(callerSkip, logrus.ErrorLevel, msg, fields)
		return
	}
	defaultLogger.Error(msg, fields)
}

func Fatal(msg string, fields map[string]interface{}) {
	if l, ok := defaultLogger.(*LogrusLogger); ok {
		l.logSkip(callerSkip, logrus.FatalLevel, msg, fields)
		os.Exit(1)
	}
	defaultLogger.Fatal(msg, fields)
}
