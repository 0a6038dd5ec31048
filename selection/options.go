package selection

import (
	"github.com/YuminosukeSato/taxitip/linear"
	"github.com/YuminosukeSato/taxitip/pkg/log"
)

const (
	// DefaultRSSFloor is the fraction of the null RSS below which a subset's
	// RSS is raised before taking its logarithm.
	DefaultRSSFloor = 1e-10
	// DefaultSeed seeds the fold permutation when WithSeed is not given.
	DefaultSeed uint64 = 20160101
)

type settings struct {
	logger           log.Logger
	condTol          float64
	rssFloor         float64
	seed             uint64
	workers          int
	skipFailedFolds  bool
	dropZeroVariance bool
	candidates       []int
	names            []string
}

func newSettings(opts []Option) settings {
	s := settings{
		condTol:          linear.DefaultConditionTolerance,
		rssFloor:         DefaultRSSFloor,
		seed:             DefaultSeed,
		workers:          1,
		dropZeroVariance: true,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = log.GetLogger()
	}
	return s
}

// options rebuilds the option list a component hands to the components it
// drives.
func (s settings) options() []Option {
	return []Option{
		WithLogger(s.logger),
		WithConditionTolerance(s.condTol),
		WithRSSFloor(s.rssFloor),
		WithSeed(s.seed),
		WithWorkers(s.workers),
		WithSkipFailedFolds(s.skipFailedFolds),
		WithZeroVarianceDrop(s.dropZeroVariance),
		WithCandidateColumns(s.candidates),
		WithColumnNames(s.names),
	}
}

func (s settings) name(j int) string {
	if j >= 0 && j < len(s.names) {
		return s.names[j]
	}
	return ""
}

// Option configures the components of this package.
type Option func(*settings)

// WithLogger sets the logger. The default is log.GetLogger().
func WithLogger(logger log.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithConditionTolerance sets the condition number of [1 X] above which a
// fit fails with a RankDeficiencyError.
func WithConditionTolerance(tol float64) Option {
	return func(s *settings) {
		if tol > 0 {
			s.condTol = tol
		}
	}
}

// WithRSSFloor sets the floor applied to RSS values, as a fraction of the
// intercept-only RSS, before the log in the penalized score. Zero disables
// the floor; an exact fit then fails with a DegenerateFitError.
func WithRSSFloor(fraction float64) Option {
	return func(s *settings) {
		if fraction >= 0 {
			s.rssFloor = fraction
		}
	}
}

// WithSeed seeds the fold assignment.
func WithSeed(seed uint64) Option {
	return func(s *settings) {
		s.seed = seed
	}
}

// WithWorkers sets how many folds run concurrently. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(s *settings) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// WithSkipFailedFolds makes cross-validation log and skip a failing fold
// instead of aborting. The skipped rows are left out of the MSE.
func WithSkipFailedFolds(skip bool) Option {
	return func(s *settings) {
		s.skipFailedFolds = skip
	}
}

// WithZeroVarianceDrop controls whether columns that are constant on the
// training rows are excluded from the search. When disabled such a column
// makes the fit rank deficient.
func WithZeroVarianceDrop(drop bool) Option {
	return func(s *settings) {
		s.dropZeroVariance = drop
	}
}

// WithCandidateColumns restricts subset search to the given columns. Masks
// keep the full column width; excluded columns are never selected.
func WithCandidateColumns(cols []int) Option {
	return func(s *settings) {
		if cols == nil {
			s.candidates = nil
			return
		}
		s.candidates = append([]int{}, cols...)
	}
}

// WithColumnNames names the design columns for logs and fitted models.
func WithColumnNames(names []string) Option {
	return func(s *settings) {
		s.names = append([]string(nil), names...)
	}
}
