// Package logger provides structured logging for the reconflow application
package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// NewLogger creates a new structured logger
func NewLogger(level logrus.Level) *Logger {
	logger := logrus.New()
	logger.SetLevel(level)

	// JSON in production, text for development
	if os.Getenv("ENV") == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	return &Logger{Logger: logger}
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// WithJob adds job-specific fields to the logger
func (l *Logger) WithJob(taskID, kind string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"task_id": taskID,
		"kind":    kind,
	})
}

// Error logs an error message with structured fields
func (l *Logger) Error(msg string, fields ...Fields) {
	l.entry(fields).Error(msg)
}

// Warn logs a warning message with structured fields
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.entry(fields).Warn(msg)
}

// Info logs an info message with structured fields
func (l *Logger) Info(msg string, fields ...Fields) {
	l.entry(fields).Info(msg)
}

// Debug logs a debug message with structured fields
func (l *Logger) Debug(msg string, fields ...Fields) {
	l.entry(fields).Debug(msg)
}

func (l *Logger) entry(fields []Fields) *logrus.Entry {
	entry := logrus.NewEntry(l.Logger)
	for _, f := range fields {
		entry = entry.WithFields(logrus.Fields(f))
	}
	return entry
}

// Default logger instance
var defaultLogger = NewLogger(logrus.InfoLevel)

// SetLevel sets the log level for the default logger
func SetLevel(level logrus.Level) {
	defaultLogger.SetLevel(level)
}

// Info logs an info message using the default logger
func Info(msg string, fields ...Fields) {
	defaultLogger.Info(msg, fields...)
}

// Error logs an error message using the default logger
func Error(msg string, fields ...Fields) {
	defaultLogger.Error(msg, fields...)
}
