package linear

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

func TestLinearRegression_Fit(t *testing.T) {
	tests := []struct {
		name          string
		X             *mat.Dense
		y             *mat.VecDense
		wantIntercept float64
		wantCoefs     []float64
	}{
		{
			name:          "y = 2x + 1",
			X:             mat.NewDense(4, 1, []float64{1, 2, 3, 4}),
			y:             mat.NewVecDense(4, []float64{3, 5, 7, 9}),
			wantIntercept: 1,
			wantCoefs:     []float64{2},
		},
		{
			name:          "y = x1 - 3x2 + 0.5",
			X:             mat.NewDense(5, 2, []float64{1, 0, 0, 1, 2, 1, 3, 5, 1, 1}),
			y:             mat.NewVecDense(5, []float64{1.5, -2.5, -0.5, -11.5, -1.5}),
			wantIntercept: 0.5,
			wantCoefs:     []float64{1, -3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLinearRegression()
			require.NoError(t, lr.Fit(tt.X, tt.y))
			assert.True(t, lr.IsFitted())
			assert.InDelta(t, tt.wantIntercept, lr.Intercept, 1e-9)
			assert.InDeltaSlice(t, tt.wantCoefs, lr.Coefficients(), 1e-9)
			assert.InDelta(t, 0, lr.RSS, 1e-18)

			score, err := lr.Score(tt.X, tt.y)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, score, 1e-12)
		})
	}
}

func TestLinearRegression_Predict(t *testing.T) {
	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(
		mat.NewDense(4, 1, []float64{1, 2, 3, 4}),
		mat.NewVecDense(4, []float64{3, 5, 7, 9}),
	))

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{5, 6}))
	require.NoError(t, err)
	assert.InDelta(t, 11, pred.AtVec(0), 1e-9)
	assert.InDelta(t, 13, pred.AtVec(1), 1e-9)

	_, err = lr.Predict(mat.NewDense(2, 2, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestLinearRegression_PredictParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	n, p := 5000, 3
	X := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			X.Set(i, j, rng.Float64())
		}
		y.SetVec(i, 1+X.At(i, 0)-2*X.At(i, 2)+0.1*rng.NormFloat64())
	}

	seq := NewLinearRegression(WithParallelThreshold(n))
	par := NewLinearRegression(WithParallelThreshold(10))
	require.NoError(t, seq.Fit(X, y))
	require.NoError(t, par.Fit(X, y))

	ps, err := seq.Predict(X)
	require.NoError(t, err)
	pp, err := par.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(ps, pp))
}

func TestLinearRegression_NotFitted(t *testing.T) {
	lr := NewLinearRegression()
	_, err := lr.Predict(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestLinearRegression_RankDeficient(t *testing.T) {
	tests := []struct {
		name string
		X    *mat.Dense
		y    *mat.VecDense
	}{
		{
			name: "fewer rows than parameters",
			X:    mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
			y:    mat.NewVecDense(2, []float64{1, 2}),
		},
		{
			name: "duplicated column",
			X:    mat.NewDense(4, 2, []float64{1, 1, 2, 2, 3, 3, 4, 4}),
			y:    mat.NewVecDense(4, []float64{1, 2, 3, 5}),
		},
		{
			name: "constant column collinear with intercept",
			X:    mat.NewDense(4, 2, []float64{1, 7, 2, 7, 3, 7, 4, 7}),
			y:    mat.NewVecDense(4, []float64{1, 2, 3, 5}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewLinearRegression().Fit(tt.X, tt.y)
			require.Error(t, err)
			var rd *errors.RankDeficiencyError
			require.True(t, errors.As(err, &rd), "got %v", err)
			assert.True(t, errors.Is(err, errors.ErrSingularMatrix))
		})
	}
}

func TestLinearRegression_ConditionTolerance(t *testing.T) {
	// Nearly collinear columns pass the default tolerance but not a strict one.
	X := mat.NewDense(4, 2, []float64{1, 1, 2, 2.001, 3, 3, 4, 4.002})
	y := mat.NewVecDense(4, []float64{1, 2, 3, 5})

	require.NoError(t, NewLinearRegression().Fit(X, y))

	err := NewLinearRegression(WithConditionTolerance(10)).Fit(X, y)
	var rd *errors.RankDeficiencyError
	require.True(t, errors.As(err, &rd))
	assert.Greater(t, rd.Condition, 10.0)
}

func TestLinearRegression_InvalidInput(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})

	err := NewLinearRegression().Fit(X, mat.NewVecDense(2, []float64{1, 2}))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	err = NewLinearRegression().Fit(X, mat.NewVecDense(3, []float64{1, math.NaN(), 2}))
	var numErr *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &numErr))
}
