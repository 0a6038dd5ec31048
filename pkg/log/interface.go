// Package log provides the structured logging interface used by taxitip.
//
// The Logger interface mirrors log/slog's method set so that the search,
// cross-validation and data preparation code can log key/value pairs without
// caring which backend is installed. Two backends ship with the package: a
// zerolog logger (NewZerologLogger) and an slog logger whose handler extracts
// cockroachdb stack traces (SetupLogger). Tests use TestLogger.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "CrossValidator",
//	    log.RunIDKey, runID,
//	)
//	logger.Info("fold finished",
//	    log.FoldKey, 3,
//	    log.SamplesKey, 1000,
//	)

package log

import (
	"context"
)

// Logger is a structured, leveled logger.
type Logger interface {
	// Debug logs diagnostic detail, e.g. every candidate removal in a search step.
	Debug(msg string, fields ...any)

	// Info logs normal progress such as a completed fold.
	Info(msg string, fields ...any)

	// Warn logs conditions that did not stop the operation, such as a dropped
	// zero-variance column or a skipped fold.
	Warn(msg string, fields ...any)

	// Error logs a failure. Pass the error under the "error" key so that
	// backends can attach its stack trace:
	//
	//	logger.Error("final fit failed", "error", err, log.LambdaKey, 2.0)
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted. Use it to
	// skip building expensive fields.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level with slog-compatible values.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers.
type LoggerProvider interface {
	// GetLogger returns the default logger.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum level for loggers created by the provider.
	SetLevel(level Level)
}
