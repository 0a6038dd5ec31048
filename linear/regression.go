// Package linear fits ordinary least squares models with an intercept through
// a Householder QR factorization of the design.
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/taxitip/core/model"
	"github.com/YuminosukeSato/taxitip/core/parallel"
	"github.com/YuminosukeSato/taxitip/metrics"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

var _ model.Regressor = (*LinearRegression)(nil)

// LinearRegression is ordinary least squares with an intercept.
type LinearRegression struct {
	model.BaseEstimator

	Weights   *mat.VecDense // coefficients, one per column of X
	Intercept float64
	NFeatures int
	RSS       float64 // training residual sum of squares

	settings settings
}

// NewLinearRegression creates an unfitted model.
func NewLinearRegression(opts ...Option) *LinearRegression {
	return &LinearRegression{settings: newSettings(opts)}
}

// Fit solves min ‖y − b₀ − X·b‖² by QR. A design with fewer rows than
// parameters or a condition number above the tolerance is rejected with a
// RankDeficiencyError; no pseudo-inverse is substituted.
func (lr *LinearRegression) Fit(X mat.Matrix, y mat.Vector) error {
	red, err := reduce("LinearRegression.Fit", X, y, lr.settings)
	if err != nil {
		return err
	}
	intercept, coefs, err := red.Coefficients(AllColumns(red.NFeatures))
	if err != nil {
		return errors.Wrap(err, "LinearRegression.Fit")
	}

	lr.Intercept = intercept
	lr.Weights = nil
	if len(coefs) > 0 {
		lr.Weights = mat.NewVecDense(len(coefs), coefs)
	}
	lr.NFeatures = red.NFeatures
	lr.RSS = red.RSSFull
	lr.SetFitted(red.NSamples, red.NFeatures)
	return nil
}

// Predict returns b₀ + X·b.
func (lr *LinearRegression) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := lr.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}
	return PredictRows(X, lr.Intercept, lr.Coefficients(), lr.settings.parallelThreshold, r), nil
}

// PredictRows evaluates intercept + X·coefs for the first rows rows of X.
func PredictRows(X mat.Matrix, intercept float64, coefs []float64, threshold, rows int) *mat.VecDense {
	if rows == 0 {
		return &mat.VecDense{}
	}
	out := mat.NewVecDense(rows, nil)
	parallel.ParallelizeWithThreshold(rows, threshold, func(start, end int) {
		for i := start; i < end; i++ {
			v := intercept
			for j, w := range coefs {
				v += X.At(i, j) * w
			}
			out.SetVec(i, v)
		}
	})
	return out
}

// Score returns the coefficient of determination R² on (X, y).
func (lr *LinearRegression) Score(X mat.Matrix, y mat.Vector) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(mat.VecDenseCopyOf(y), pred)
}

// Coefficients returns a copy of the fitted coefficients.
func (lr *LinearRegression) Coefficients() []float64 {
	if lr.Weights == nil {
		return nil
	}
	out := make([]float64, lr.Weights.Len())
	for i := range out {
		out[i] = lr.Weights.AtVec(i)
	}
	return out
}
