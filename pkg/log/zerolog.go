package log

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	z     zerolog.Logger
	level Level
}

// NewZerologLogger creates a zerolog-backed Logger writing JSON lines to w.
// With console set, records are rendered by zerolog.ConsoleWriter instead.
func NewZerologLogger(w io.Writer, level Level, console bool) *ZerologLogger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{z: z, level: level}
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Debug implements Logger.Debug.
func (l *ZerologLogger) Debug(msg string, fields ...any) {
	l.emit(l.z.Debug(), msg, fields)
}

// Info implements Logger.Info.
func (l *ZerologLogger) Info(msg string, fields ...any) {
	l.emit(l.z.Info(), msg, fields)
}

// Warn implements Logger.Warn.
func (l *ZerologLogger) Warn(msg string, fields ...any) {
	l.emit(l.z.Warn(), msg, fields)
}

// Error implements Logger.Error. An error logged under ErrAttrKey gets its
// stack trace attached.
func (l *ZerologLogger) Error(msg string, fields ...any) {
	e := l.z.Error()
	if err := findError(fields); err != nil {
		if st := extractStacktrace(err); st != "" {
			e = e.Str(StacktraceAttrKey, st)
		}
	}
	l.emit(e, msg, fields)
}

// With implements Logger.With.
func (l *ZerologLogger) With(fields ...any) Logger {
	return &ZerologLogger{
		z:     l.z.With().Fields(normalizeFields(fields)).Logger(),
		level: l.level,
	}
}

// Enabled implements Logger.Enabled.
func (l *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return level >= l.level
}

func (l *ZerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if m, ok := fields[i+1].(zerolog.LogObjectMarshaler); ok {
			e = e.Object(key, m)
			continue
		}
		e = e.Fields([]interface{}{key, fields[i+1]})
	}
	e.Msg(msg)
}

// normalizeFields stringifies keys and drops a trailing key without value.
func normalizeFields(fields []any) []interface{} {
	out := make([]interface{}, 0, len(fields))
	for i := 0; i+1 < len(fields); i += 2 {
		out = append(out, fmt.Sprint(fields[i]), fields[i+1])
	}
	return out
}

func findError(fields []any) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if fmt.Sprint(fields[i]) != ErrAttrKey {
			continue
		}
		if err, ok := fields[i+1].(error); ok {
			return err
		}
	}
	return nil
}
