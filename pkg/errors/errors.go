// Package errors provides the error kinds and warning plumbing used across taxitip.
//
// Every constructor attaches a stack trace through cockroachdb/errors so that
// `%+v` formatting and the log package's ErrFmtHandler can report where the
// failure originated. Typed errors can be recovered with As:
//
//	var rank *errors.RankDeficiencyError
//	if errors.As(err, &rank) {
//	    // inspect rank.Columns
//	}
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("taxitip-warning: %v\n", w)
	}
	// set by pkg/log when a zerolog logger is installed; kept as a func to avoid an import cycle
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the process-wide warning handler.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // drop warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs a structured warning sink. Passing nil restores
// the plain handler.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning. The zerolog sink wins over the plain handler when both are set.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warning types
//
// ===========================================================================

// UnseenLevelWarning is raised when data being encoded contains a categorical
// level that was not present when the encoder was fitted. The affected rows
// are encoded as the reference level.
type UnseenLevelWarning struct {
	Feature string
	Level   string
	Rows    int
}

func (w *UnseenLevelWarning) Error() string {
	return fmt.Sprintf("feature %q: level %q unseen at fit time in %d rows; encoded as reference level", w.Feature, w.Level, w.Rows)
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *UnseenLevelWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("feature", w.Feature).
		Str("level", w.Level).
		Int("rows", w.Rows).
		Str("type", "UnseenLevelWarning")
}

// NewUnseenLevelWarning creates an UnseenLevelWarning.
func NewUnseenLevelWarning(feature, level string, rows int) *UnseenLevelWarning {
	return &UnseenLevelWarning{Feature: feature, Level: level, Rows: rows}
}

// ColumnDroppedWarning is raised when a design column has no variance on a
// training partition and is therefore excluded from that partition's search.
type ColumnDroppedWarning struct {
	Op      string
	Columns []int
	Names   []string
}

func (w *ColumnDroppedWarning) Error() string {
	if len(w.Names) > 0 {
		return fmt.Sprintf("%s: dropped zero-variance columns %v", w.Op, w.Names)
	}
	return fmt.Sprintf("%s: dropped zero-variance columns %v", w.Op, w.Columns)
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *ColumnDroppedWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Ints("columns", w.Columns).
		Strs("names", w.Names).
		Str("type", "ColumnDroppedWarning")
}

// NewColumnDroppedWarning creates a ColumnDroppedWarning.
func NewColumnDroppedWarning(op string, columns []int, names []string) *ColumnDroppedWarning {
	return &ColumnDroppedWarning{Op: op, Columns: columns, Names: names}
}

// FoldSkippedWarning is raised when cross-validation was configured to skip
// failing folds and a fold failed.
type FoldSkippedWarning struct {
	Fold  int
	Rows  int
	Cause error
}

func (w *FoldSkippedWarning) Error() string {
	return fmt.Sprintf("fold %d skipped (%d rows excluded from scoring): %v", w.Fold, w.Rows, w.Cause)
}

// Unwrap exposes the fold failure.
func (w *FoldSkippedWarning) Unwrap() error {
	return w.Cause
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *FoldSkippedWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("fold", w.Fold).
		Int("rows", w.Rows).
		AnErr("cause", w.Cause).
		Str("type", "FoldSkippedWarning")
}

// NewFoldSkippedWarning creates a FoldSkippedWarning.
func NewFoldSkippedWarning(fold, rows int, cause error) *FoldSkippedWarning {
	return &FoldSkippedWarning{Fold: fold, Rows: rows, Cause: cause}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// NotFittedError is returned when Predict or Score is called on a model that
// has not been fitted.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("taxitip: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError reports a shape mismatch along one axis.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("taxitip: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName(e.Axis), e.Expected, e.Got)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName(e.Axis)).
		Str("type", "DimensionError")
}

func axisName(axis int) string {
	if axis == 0 {
		return "rows"
	}
	return "features"
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError reports a parameter that failed validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("taxitip: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError reports an argument whose value is unusable for the operation.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("taxitip: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError is a general model failure that wraps a cause.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("taxitip: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("taxitip: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to err.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error values
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an operation receives no rows or no columns.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is the cause attached to rank-deficient solves.
	ErrSingularMatrix = New("singular matrix")
)
