package selection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/taxitip/core/dataset"
	"github.com/YuminosukeSato/taxitip/linear"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
	"github.com/YuminosukeSato/taxitip/pkg/log"
)

// InterceptName is the key of the intercept in CoefficientMap.
const InterceptName = "(Intercept)"

// FittedModel is an OLS fit restricted to the columns of Mask plus the
// intercept. It is not modified after creation.
type FittedModel struct {
	Mask      SubsetMask
	Intercept float64
	// Coefficients are aligned with Mask.Columns().
	Coefficients []float64
	Lambda       float64
	Size         int
	// RSS is the training residual sum of squares of the refit.
	RSS float64
	// Score is the penalized score n·ln(RSS) + λ·size that selected Size,
	// computed with the floored RSS.
	Score    float64
	NSamples int
	// Schema names every design column, selected or not. It is empty when
	// the model was fitted on an unnamed matrix.
	Schema dataset.Schema
}

// Predict returns intercept + X_S·b for a matrix with the full design width.
func (m *FittedModel) Predict(X mat.Matrix) (*mat.VecDense, error) {
	r, c := X.Dims()
	if c != len(m.Mask) {
		return nil, errors.NewSchemaMismatchError("FittedModel.Predict", len(m.Mask), c, nil, nil)
	}
	cols := m.Mask.Columns()
	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v := m.Intercept
		for t, j := range cols {
			v += X.At(i, j) * m.Coefficients[t]
		}
		out.SetVec(i, v)
	}
	return out, nil
}

// FullCoefficients returns one coefficient per design column, zero for the
// columns outside the mask.
func (m *FittedModel) FullCoefficients() []float64 {
	out := make([]float64, len(m.Mask))
	for t, j := range m.Mask.Columns() {
		out[j] = m.Coefficients[t]
	}
	return out
}

// CoefficientMap keys the intercept and the selected coefficients by column
// name. Unnamed columns are keyed "x<j>".
func (m *FittedModel) CoefficientMap() map[string]float64 {
	out := make(map[string]float64, m.Size+1)
	out[InterceptName] = m.Intercept
	for t, j := range m.Mask.Columns() {
		out[m.Schema.Name(j)] = m.Coefficients[t]
	}
	return out
}

// SelectedNames returns the names of the selected columns in column order.
func (m *FittedModel) SelectedNames() []string {
	cols := m.Mask.Columns()
	out := make([]string, len(cols))
	for t, j := range cols {
		out[t] = m.Schema.Name(j)
	}
	return out
}

// PenalizedSelector picks the subset size minimizing n·ln(RSS) + λ·size
// over a search result and refits it.
type PenalizedSelector struct {
	settings settings
}

// NewPenalizedSelector creates a PenalizedSelector.
func NewPenalizedSelector(opts ...Option) *PenalizedSelector {
	return &PenalizedSelector{settings: newSettings(opts)}
}

// PenalizedScore returns n·ln(rss) + lambda·size.
func PenalizedScore(n int, rss, lambda float64, size int) float64 {
	return float64(n)*math.Log(rss) + lambda*float64(size)
}

// ChooseSize returns the size with the smallest penalized score among the
// intercept-only model and the recorded steps, and that score. Equal scores
// resolve to the smaller size.
func (ps *PenalizedSelector) ChooseSize(res *SearchResult, lambda float64) (int, float64, error) {
	const op = "PenalizedSelector.ChooseSize"
	if err := validateLambda(lambda); err != nil {
		return 0, 0, err
	}
	if res.NullRSS <= 0 || math.IsNaN(res.NullRSS) {
		return 0, 0, errors.NewDegenerateFitError(op, 0, res.NullRSS, "target has no variance")
	}

	floor := ps.settings.rssFloor * res.NullRSS
	bestSize, bestScore := -1, math.Inf(1)
	for size := 0; size <= res.MaxSize(); size++ {
		step, _ := res.Step(size)
		rss := step.RSS
		if math.IsNaN(rss) || rss < 0 {
			return 0, 0, errors.NewDegenerateFitError(op, size, rss, "invalid residual sum of squares")
		}
		if rss < floor {
			rss = floor
		}
		if rss == 0 {
			return 0, 0, errors.NewDegenerateFitError(op, size, rss, "exact fit with the RSS floor disabled")
		}
		score := PenalizedScore(res.NSamples, rss, lambda, size)
		if score < bestScore {
			bestSize, bestScore = size, score
		}
	}
	return bestSize, bestScore, nil
}

// Select chooses a size for lambda and refits ordinary least squares on the
// chosen columns plus the intercept. X and y must be the data res was
// computed from.
func (ps *PenalizedSelector) Select(X mat.Matrix, y mat.Vector, res *SearchResult, lambda float64) (*FittedModel, error) {
	const op = "PenalizedSelector.Select"
	n, p := X.Dims()
	if n != res.NSamples || y.Len() != n {
		return nil, errors.NewDimensionError(op, res.NSamples, n, 0)
	}
	if p != res.NFeatures {
		return nil, errors.NewDimensionError(op, res.NFeatures, p, 1)
	}

	size, score, err := ps.ChooseSize(res, lambda)
	if err != nil {
		return nil, err
	}
	step, _ := res.Step(size)

	m := &FittedModel{
		Mask:     step.Mask.Clone(),
		Lambda:   lambda,
		Size:     size,
		Score:    score,
		NSamples: n,
		Schema:   dataset.NewSchema(ps.settings.names),
	}
	if size == 0 {
		m.Intercept = stat.Mean(mat.Col(nil, 0, y), nil)
		m.RSS = res.NullRSS
	} else {
		lr := linear.NewLinearRegression(linear.WithConditionTolerance(ps.settings.condTol))
		if err := lr.Fit(dataset.SelectColumns(X, m.Mask.Columns()), y); err != nil {
			return nil, errors.Wrapf(globalRankError(op, err, m.Mask.Columns()), "%s: refit of size %d", op, size)
		}
		m.Intercept = lr.Intercept
		m.Coefficients = lr.Coefficients()
		m.RSS = lr.RSS
	}
	if err := errors.CheckNumericalStability(op, append([]float64{m.Intercept}, m.Coefficients...), size); err != nil {
		return nil, err
	}

	ps.settings.logger.Debug("subset selected",
		log.ModelNameKey, "PenalizedSelector",
		log.LambdaKey, lambda,
		log.SubsetSizeKey, size,
		log.ScoreKey, score,
		log.ColumnsKey, fmt.Sprint(m.Mask),
	)
	return m, nil
}

func validateLambda(lambda float64) error {
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) || lambda < 0 {
		return errors.NewValidationError("lambda", "must be a finite non-negative number", lambda)
	}
	return nil
}

func validateLambdas(lambdas []float64) error {
	if len(lambdas) == 0 {
		return errors.NewValidationError("lambdas", "penalty grid is empty", lambdas)
	}
	for _, l := range lambdas {
		if err := validateLambda(l); err != nil {
			return err
		}
	}
	return nil
}
