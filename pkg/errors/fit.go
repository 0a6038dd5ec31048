package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// RankDeficiencyError is returned when a least-squares problem has no unique
// solution: fewer rows than parameters, or a design whose condition number
// exceeds the configured tolerance. It is never masked by a pseudo-inverse.
type RankDeficiencyError struct {
	Op        string
	Rows      int
	Params    int     // parameters including the intercept
	Condition float64 // +Inf when the factorization is exactly singular
	Columns   []int   // design columns in the failing fit, intercept excluded
}

func (e *RankDeficiencyError) Error() string {
	if e.Rows < e.Params {
		return fmt.Sprintf("taxitip: %s: rank deficient design: %d rows for %d parameters", e.Op, e.Rows, e.Params)
	}
	return fmt.Sprintf("taxitip: %s: rank deficient design over columns %v (condition number %.3g)", e.Op, e.Columns, e.Condition)
}

// Unwrap lets callers match the sentinel ErrSingularMatrix.
func (e *RankDeficiencyError) Unwrap() error {
	return ErrSingularMatrix
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *RankDeficiencyError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("rows", e.Rows).
		Int("params", e.Params).
		Float64("condition", e.Condition).
		Ints("columns", e.Columns).
		Str("type", "RankDeficiencyError")
}

// NewRankDeficiencyError creates a RankDeficiencyError with a stack trace.
func NewRankDeficiencyError(op string, rows, params int, condition float64, columns []int) error {
	cols := append([]int(nil), columns...)
	return errors.WithStack(&RankDeficiencyError{Op: op, Rows: rows, Params: params, Condition: condition, Columns: cols})
}

// DegenerateFitError is returned when a residual sum of squares cannot enter
// the log-penalized score: zero, negative or NaN after the floor is applied.
type DegenerateFitError struct {
	Op     string
	Size   int
	RSS    float64
	Reason string
}

func (e *DegenerateFitError) Error() string {
	return fmt.Sprintf("taxitip: %s: degenerate fit at subset size %d (rss=%g): %s", e.Op, e.Size, e.RSS, e.Reason)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *DegenerateFitError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("size", e.Size).
		Float64("rss", e.RSS).
		Str("reason", e.Reason).
		Str("type", "DegenerateFitError")
}

// NewDegenerateFitError creates a DegenerateFitError with a stack trace.
func NewDegenerateFitError(op string, size int, rss float64, reason string) error {
	return errors.WithStack(&DegenerateFitError{Op: op, Size: size, RSS: rss, Reason: reason})
}

// SchemaMismatchError is returned when two design matrices that must share a
// column encoding do not.
type SchemaMismatchError struct {
	Op       string
	Expected int
	Got      int
	Missing  []string // named columns expected but absent
	Extra    []string // named columns present but not expected
}

func (e *SchemaMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "taxitip: %s: schema mismatch: expected %d columns, got %d", e.Op, e.Expected, e.Got)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing %v", e.Missing)
	}
	if len(e.Extra) > 0 {
		fmt.Fprintf(&b, "; unexpected %v", e.Extra)
	}
	return b.String()
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *SchemaMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Strs("missing", e.Missing).
		Strs("extra", e.Extra).
		Str("type", "SchemaMismatchError")
}

// NewSchemaMismatchError creates a SchemaMismatchError with a stack trace.
func NewSchemaMismatchError(op string, expected, got int, missing, extra []string) error {
	return errors.WithStack(&SchemaMismatchError{Op: op, Expected: expected, Got: got, Missing: missing, Extra: extra})
}

// InvalidFoldCountError is returned when k-fold cross-validation is asked for
// k <= 1 or more folds than observations.
type InvalidFoldCountError struct {
	K int
	N int
}

func (e *InvalidFoldCountError) Error() string {
	return fmt.Sprintf("taxitip: invalid fold count k=%d for n=%d observations (need 2 <= k <= n)", e.K, e.N)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *InvalidFoldCountError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("k", e.K).
		Int("n", e.N).
		Str("type", "InvalidFoldCountError")
}

// NewInvalidFoldCountError creates an InvalidFoldCountError with a stack trace.
func NewInvalidFoldCountError(k, n int) error {
	return errors.WithStack(&InvalidFoldCountError{K: k, N: n})
}
