package log

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"

	perrors "github.com/YuminosukeSato/taxitip/pkg/errors"
)

// ErrFmtHandler is an slog.Handler for records that carry an error under
// ErrAttrKey. It adds the cockroachdb stack trace and, for the model-fit
// failure kinds, an ErrorCodeKey attribute so that alerts can match on a
// stable code instead of a message.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler with ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{handler: handler}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var logged error
	hasCode := false
	r.Attrs(func(attr slog.Attr) bool {
		switch attr.Key {
		case ErrAttrKey:
			if err, ok := attr.Value.Any().(error); ok {
				logged = err
			}
		case ErrorCodeKey:
			hasCode = true
		}
		return true
	})
	if logged == nil {
		return eh.handler.Handle(ctx, r)
	}
	if st := extractStacktrace(logged); st != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, st))
	}
	if code := ErrorCode(logged); code != "" && !hasCode {
		r.AddAttrs(slog.String(ErrorCodeKey, code))
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

// ErrorCode returns the stable code of a model-fit failure anywhere in the
// chain of err, or "" for other errors.
func ErrorCode(err error) string {
	var (
		rank   *perrors.RankDeficiencyError
		degen  *perrors.DegenerateFitError
		schema *perrors.SchemaMismatchError
		folds  *perrors.InvalidFoldCountError
	)
	switch {
	case errors.As(err, &rank):
		return ErrorRankDeficient
	case errors.As(err, &degen):
		return ErrorDegenerateFit
	case errors.As(err, &schema):
		return ErrorSchemaMismatch
	case errors.As(err, &folds):
		return ErrorInvalidFoldCount
	}
	return ""
}

func extractStacktrace(err error) string {
	if details := errors.GetSafeDetails(err).SafeDetails; len(details) > 0 {
		return details[0]
	}
	if errors.GetReportableStackTrace(err) != nil {
		return fmt.Sprintf("%+v", err)
	}
	return ""
}
