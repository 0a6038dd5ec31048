// Package selection chooses a linear model by greedy backward elimination
// under the penalty n·ln(RSS) + λ·size, tunes λ by k-fold cross-validation
// and scores the refitted model on holdout data.
package selection

import (
	"context"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/taxitip/core/dataset"
	"github.com/YuminosukeSato/taxitip/linear"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
	"github.com/YuminosukeSato/taxitip/pkg/log"
)

// SearchStep is the best subset found for one size along the elimination
// path.
type SearchStep struct {
	Size int
	Mask SubsetMask
	RSS  float64
}

// SearchResult is the elimination path of one search, ordered by size.
// Steps[i].Size is i+1.
type SearchResult struct {
	Steps []SearchStep
	// NullRSS is the RSS of the intercept-only model.
	NullRSS float64
	// Removed lists the columns in the order they were eliminated.
	Removed    []int
	Candidates []int
	NSamples   int
	NFeatures  int
}

// Step returns the step recorded for size. Size 0 is the intercept-only
// model and is always available.
func (r *SearchResult) Step(size int) (SearchStep, bool) {
	if size == 0 {
		return SearchStep{Size: 0, Mask: make(SubsetMask, r.NFeatures), RSS: r.NullRSS}, true
	}
	if size < 0 || size > len(r.Steps) {
		return SearchStep{}, false
	}
	return r.Steps[size-1], true
}

// MaxSize returns the largest recorded size.
func (r *SearchResult) MaxSize() int { return len(r.Steps) }

// SubsetSearch runs greedy backward elimination. It is not exhaustive: the
// subset recorded for each size is the best one on a single elimination
// path, not the best subset of that size.
type SubsetSearch struct {
	settings settings
}

// NewSubsetSearch creates a SubsetSearch.
func NewSubsetSearch(opts ...Option) *SubsetSearch {
	return &SubsetSearch{settings: newSettings(opts)}
}

// Search starts from all candidate columns and repeatedly removes the
// column whose removal leaves the smallest RSS until one column remains. It
// records (size, mask, RSS) for every size from 1 to min(maxSize, number of
// candidates). When two removals leave exactly the same RSS, the lower
// column index is removed.
func (s *SubsetSearch) Search(X mat.Matrix, y mat.Vector, maxSize int) (*SearchResult, error) {
	const op = "SubsetSearch.Search"
	if maxSize < 1 {
		return nil, errors.NewValidationError("maxSize", "must be at least 1", maxSize)
	}
	n, p := X.Dims()
	if y.Len() != n {
		return nil, errors.NewDimensionError(op, n, y.Len(), 0)
	}
	cand, err := candidateColumns(op, s.settings.candidates, p)
	if err != nil {
		return nil, err
	}

	logger := s.settings.logger.With(log.ModelNameKey, "SubsetSearch", log.OperationKey, log.OperationSearch)
	started := time.Now()

	res := &SearchResult{Candidates: cand, NSamples: n, NFeatures: p}
	if len(cand) == 0 {
		res.NullRSS = nullRSS(y)
		logger.Warn("no candidate columns, only the intercept-only model is available", log.SamplesKey, n)
		return res, nil
	}

	red, err := linear.Reduce(dataset.SelectColumns(X, cand), y, linear.WithConditionTolerance(s.settings.condTol))
	if err != nil {
		return nil, globalRankError(op, err, cand)
	}
	res.NullRSS = red.NullRSS

	limit := min(maxSize, len(cand))
	steps := make([]SearchStep, limit)
	record := func(active []int, rss float64) {
		if size := len(active); size <= limit {
			steps[size-1] = SearchStep{Size: size, Mask: NewMask(p, toGlobal(active, cand)), RSS: rss}
		}
	}

	active := linear.AllColumns(len(cand))
	record(active, red.RSSFull)

	trial := make([]int, 0, len(active))
	costs := make([]float64, 0, len(active))
	for len(active) > 1 {
		costs = costs[:0]
		for idx := range active {
			trial = append(trial[:0], active[:idx]...)
			trial = append(trial, active[idx+1:]...)
			rss, err := red.RSS(trial)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: size %d", op, len(trial))
			}
			costs = append(costs, rss)
		}
		best := cheapestRemoval(costs)
		if best < 0 {
			return nil, errors.NewDegenerateFitError(op, len(active)-1, math.NaN(), "no removal produced a finite RSS")
		}
		bestRSS := costs[best]

		removed := active[best]
		res.Removed = append(res.Removed, cand[removed])
		active = append(active[:best], active[best+1:]...)
		record(active, bestRSS)

		if logger.Enabled(context.Background(), log.LevelDebug) {
			logger.Debug("column eliminated",
				log.ColumnsKey, cand[removed],
				log.SubsetSizeKey, len(active),
				log.RSSKey, bestRSS,
			)
		}
	}
	res.Removed = append(res.Removed, cand[active[0]])
	res.Steps = steps

	logger.Debug("search finished",
		log.SamplesKey, n,
		log.FeaturesKey, len(cand),
		log.MaxSizeKey, limit,
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)
	return res, nil
}

// cheapestRemoval returns the position of the smallest RSS. Active columns
// are kept in ascending order, so on exact ties the lowest column index wins.
// It returns -1 when no value is finite.
func cheapestRemoval(rss []float64) int {
	best, bestRSS := -1, math.Inf(1)
	for i, v := range rss {
		if v < bestRSS {
			best, bestRSS = i, v
		}
	}
	return best
}

func candidateColumns(op string, given []int, p int) ([]int, error) {
	if given == nil {
		return linear.AllColumns(p), nil
	}
	seen := make(map[int]struct{}, len(given))
	out := make([]int, 0, len(given))
	for _, c := range given {
		if c < 0 || c >= p {
			return nil, errors.NewValueError(op, "candidate column out of range")
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Ints(out)
	return out, nil
}

func toGlobal(local, cand []int) []int {
	out := make([]int, len(local))
	for i, l := range local {
		out[i] = cand[l]
	}
	return out
}

// globalRankError restates a rank error on the candidate submatrix in terms
// of the original column indices.
func globalRankError(op string, err error, cand []int) error {
	var rd *errors.RankDeficiencyError
	if !errors.As(err, &rd) {
		return err
	}
	return errors.NewRankDeficiencyError(op, rd.Rows, rd.Params, rd.Condition, toGlobal(rd.Columns, cand))
}

func nullRSS(y mat.Vector) float64 {
	v := mat.Col(nil, 0, y)
	mean := stat.Mean(v, nil)
	var rss float64
	for _, x := range v {
		rss += (x - mean) * (x - mean)
	}
	return rss
}
