package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"favorites-reconciler/internal/shared/contextkeys"

	"github.com/sirupsen/logrus"
)

// Constants for configuration
const (
	// Log levels
	logLevelDebug = "DEBUG"
	logLevelInfo  = "INFO"
	logLevelWarn  = "WARN"
	logLevelError = "ERROR"
	logLevelFatal = "FATAL"

	// Log formats
	logFormatJSON = "json"
	logFormatText = "text"

	// Backends
	BackendLogrus = "logrus"
	BackendZap    = "zap"

	// Environment types
	envProduction = "production"
	envProd       = "prod"

	// Timestamp format
	timestampFormat = "2006-01-02T15:04:05.000Z07:00"
	textTimestamp   = "2006-01-02 15:04:05"
)

// Logger defines the interface for structured logging operations
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Fatal(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	WithFields(fields map[string]interface{}) Logger
	WithContext(ctx context.Context) Logger
	WithComponent(component string) Logger
}

// Options selects the backend, level, format and destination of a logger
type Options struct {
	Backend string
	Level   string
	Format  string
	Output  io.Writer
}

// OptionsFromEnv reads LOG_BACKEND, LOG_LEVEL, LOG_FORMAT and ENVIRONMENT
func OptionsFromEnv() Options {
	format := os.Getenv("LOG_FORMAT")
	env := os.Getenv("ENVIRONMENT")
	if env == envProduction || env == envProd {
		format = logFormatJSON
	}
	return Options{
		Backend: os.Getenv("LOG_BACKEND"),
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  format,
		Output:  os.Stderr,
	}
}

// New creates a logger for the given options
func New(opts Options) Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if strings.EqualFold(opts.Backend, BackendZap) {
		return NewZapLogger(opts)
	}
	return newLogrusLogger(opts)
}

// LogrusLogger implements the Logger interface using logrus
type LogrusLogger struct {
	entry *logrus.Entry
}

func newLogrusLogger(opts Options) *LogrusLogger {
	logger := logrus.New()
	logger.SetLevel(getLogLevel(opts.Level))
	logger.SetFormatter(getLogFormatter(opts.Format))
	logger.SetOutput(opts.Output)

	return &LogrusLogger{
		entry: logrus.NewEntry(logger),
	}
}

// Debug logs a debug message
func (l *LogrusLogger) Debug(args ...interface{}) {
	l.entry.Debug(args...)
}

// Info logs an info message
func (l *LogrusLogger) Info(args ...interface{}) {
	l.entry.Info(args...)
}

// Warn logs a warning message
func (l *LogrusLogger) Warn(args ...interface{}) {
	l.entry.Warn(args...)
}

// Error logs an error message
func (l *LogrusLogger) Error(args ...interface{}) {
	l.entry.Error(args...)
}

// Fatal logs a fatal message and exits
func (l *LogrusLogger) Fatal(args ...interface{}) {
	l.entry.Fatal(args...)
}

// Debugf logs a formatted debug message
func (l *LogrusLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Infof logs a formatted info message
func (l *LogrusLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warnf logs a formatted warning message
func (l *LogrusLogger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Errorf logs a formatted error message
func (l *LogrusLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Fatalf logs a formatted fatal message and exits
func (l *LogrusLogger) Fatalf(format string, args ...interface{}) {
	l.entry.Fatalf(format, args...)
}

// WithFields adds structured fields to the logger
func (l *LogrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &LogrusLogger{
		entry: l.entry.WithFields(logrus.Fields(fields)),
	}
}

// WithContext adds the run scope stored in ctx to the logger
func (l *LogrusLogger) WithContext(ctx context.Context) Logger {
	return &LogrusLogger{
		entry: l.entry.WithFields(logrus.Fields(contextFields(ctx))),
	}
}

// WithComponent adds component name to the logger
func (l *LogrusLogger) WithComponent(component string) Logger {
	return &LogrusLogger{
		entry: l.entry.WithField("component", component),
	}
}

// Helper functions

// contextFields extracts the known context keys into log fields
func contextFields(ctx context.Context) map[string]interface{} {
	fields := map[string]interface{}{}
	addContextField(ctx, contextkeys.RunIDKey, "run_id", fields)
	addContextField(ctx, contextkeys.ProjectIDKey, "project_id", fields)
	addContextField(ctx, contextkeys.DatabaseIDKey, "database_id", fields)
	addContextField(ctx, contextkeys.UserIDKey, "user_id", fields)
	addContextField(ctx, contextkeys.ComponentKey, "component", fields)
	addContextField(ctx, contextkeys.OperationKey, "operation", fields)
	return fields
}

func addContextField(ctx context.Context, key interface{}, fieldName string, fields map[string]interface{}) {
	if val := ctx.Value(key); val != nil {
		if strVal, ok := val.(string); ok && strVal != "" {
			fields[fieldName] = strVal
		}
	}
}

// normalizeLevel maps the accepted spellings onto a canonical upper-case level
func normalizeLevel(level string) string {
	switch strings.ToUpper(level) {
	case logLevelDebug:
		return logLevelDebug
	case logLevelWarn, "WARNING":
		return logLevelWarn
	case logLevelError:
		return logLevelError
	case logLevelFatal:
		return logLevelFatal
	default:
		return logLevelInfo
	}
}

// getLogLevel converts a level name into a logrus level
func getLogLevel(level string) logrus.Level {
	switch normalizeLevel(level) {
	case logLevelDebug:
		return logrus.DebugLevel
	case logLevelWarn:
		return logrus.WarnLevel
	case logLevelError:
		return logrus.ErrorLevel
	case logLevelFatal:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// getLogFormatter picks JSON for machines and colored text for terminals
func getLogFormatter(format string) logrus.Formatter {
	if strings.EqualFold(format, logFormatJSON) {
		return &logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		}
	}

	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: textTimestamp,
	}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() Logger {
	return newLogrusLogger(Options{Level: logLevelFatal, Format: logFormatText, Output: io.Discard})
}
