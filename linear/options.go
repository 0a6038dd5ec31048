package linear

import "github.com/YuminosukeSato/taxitip/core/parallel"

// DefaultConditionTolerance is the largest 2-norm condition number of the
// design [1 X] accepted before a fit is reported as rank deficient.
const DefaultConditionTolerance = 1e12

type settings struct {
	condTol           float64
	parallelThreshold int
}

func defaultSettings() settings {
	return settings{
		condTol:           DefaultConditionTolerance,
		parallelThreshold: parallel.DefaultThreshold,
	}
}

func newSettings(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures LinearRegression and Reduce.
type Option func(*settings)

// WithConditionTolerance sets the condition number above which the design is
// treated as rank deficient. Non-positive values keep the default.
func WithConditionTolerance(tol float64) Option {
	return func(s *settings) {
		if tol > 0 {
			s.condTol = tol
		}
	}
}

// WithParallelThreshold sets the row count above which design copies and
// predictions are split across goroutines.
func WithParallelThreshold(rows int) Option {
	return func(s *settings) {
		s.parallelThreshold = rows
	}
}
