package selection

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
	"github.com/YuminosukeSato/taxitip/pkg/log"
)

func TestFoldAssignment_Partition(t *testing.T) {
	a, err := NewFoldAssignment(100, 10, 42)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}, a.Sizes())

	seen := make(map[int]int)
	for fold := 0; fold < 10; fold++ {
		train, test := a.Split(fold)
		assert.Len(t, test, 10)
		assert.Len(t, train, 90)
		for _, row := range test {
			seen[row]++
		}
	}
	assert.Len(t, seen, 100)
	for row, count := range seen {
		assert.Equal(t, 1, count, "row %d", row)
	}

	again, err := NewFoldAssignment(100, 10, 42)
	require.NoError(t, err)
	assert.Equal(t, a.Folds, again.Folds)

	other, err := NewFoldAssignment(100, 10, 43)
	require.NoError(t, err)
	assert.NotEqual(t, a.Folds, other.Folds)
}

func TestFoldAssignment_UnevenSizes(t *testing.T) {
	a, err := NewFoldAssignment(103, 10, 1)
	require.NoError(t, err)
	lo, hi := math.MaxInt, 0
	total := 0
	for _, s := range a.Sizes() {
		lo, hi = min(lo, s), max(hi, s)
		total += s
	}
	assert.Equal(t, 103, total)
	assert.LessOrEqual(t, hi-lo, 1)
}

func TestFoldAssignment_InvalidK(t *testing.T) {
	for _, k := range []int{-1, 0, 1, 11} {
		_, err := NewFoldAssignment(10, k, 1)
		var fe *errors.InvalidFoldCountError
		require.True(t, errors.As(err, &fe), "k=%d", k)
		assert.Equal(t, k, fe.K)
		assert.Equal(t, 10, fe.N)
	}
	_, err := NewFoldAssignment(10, 10, 1)
	assert.NoError(t, err, "leave-one-out is legal")
}

func TestCrossValidator_CoverageAndMSE(t *testing.T) {
	X, y := synthetic(t, 200, 6, 1, map[int]float64{0: 1, 3: -0.5}, 0.5, 31)
	logger, _ := log.NewTestLogger(log.LevelInfo)

	res, err := NewCrossValidator(WithLogger(logger), WithSeed(7)).CrossValidate(X, y, 5, goldenGrid, 6)
	require.NoError(t, err)

	assert.Equal(t, 200, res.EvaluatedRows)
	assert.Empty(t, res.SkippedFolds)
	require.Len(t, res.MSE, len(goldenGrid))

	r, c := res.Predictions.Dims()
	assert.Equal(t, 200, r)
	assert.Equal(t, len(goldenGrid), c)
	for j := range goldenGrid {
		var sum float64
		for i := 0; i < r; i++ {
			p := res.Predictions.At(i, j)
			require.False(t, math.IsNaN(p), "row %d lambda %d not predicted", i, j)
			sum += (y.AtVec(i) - p) * (y.AtVec(i) - p)
		}
		assert.InDelta(t, sum/200, res.MSE[j], 1e-12)
		assert.GreaterOrEqual(t, res.MSE[j], res.BestMSE())
	}
	assert.Equal(t, goldenGrid[res.BestIndex], res.BestLambda)
	assert.Len(t, logger.EntriesAt(log.LevelInfo), 5+2)
}

func TestCrossValidator_Reproducible(t *testing.T) {
	X, y := synthetic(t, 300, 8, 0.5, map[int]float64{1: 1, 2: 0.4, 6: -0.8}, 1, 32)

	run := func(workers int) *CVResult {
		res, err := NewCrossValidator(WithLogger(quietLogger()), WithSeed(2024), WithWorkers(workers)).
			CrossValidate(X, y, 10, goldenGrid, 8)
		require.NoError(t, err)
		return res
	}
	first := run(1)
	second := run(1)
	parallel := run(4)

	assert.Equal(t, first.BestLambda, second.BestLambda)
	assert.Equal(t, first.MSE, second.MSE)
	assert.Equal(t, first.Assignment.Folds, second.Assignment.Folds)
	assert.Equal(t, first.MSE, parallel.MSE)
	assert.Equal(t, first.BestLambda, parallel.BestLambda)
	assert.Equal(t, first.Predictions.RawMatrix().Data, parallel.Predictions.RawMatrix().Data)
}

// goldenDesign is a fixed 60×5 design built from integer residues so the
// expected values below do not depend on a random source. Only columns 0, 2
// and 4 enter the target.
func goldenDesign() (*mat.Dense, *mat.VecDense) {
	const n, p = 60, 5
	X := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			X.Set(i, j, float64((i*7+j*13+i*i*(j+1))%17)/17-0.5)
		}
		noise := float64((i*31+5)%23-11) / 10
		y.SetVec(i, 1+2*X.At(i, 0)-X.At(i, 2)+0.3*X.At(i, 4)+noise)
	}
	return X, y
}

func TestCrossValidator_Golden(t *testing.T) {
	X, y := goldenDesign()

	res, err := NewCrossValidator(WithLogger(quietLogger()), WithSeed(DefaultSeed)).CrossValidate(X, y, 5, goldenGrid, 5)
	require.NoError(t, err)

	assert.Equal(t, []int{
		1, 1, 3, 0, 3, 4, 0, 3, 1, 1, 4, 0, 2, 4, 2, 0, 0, 4, 4, 4,
		2, 1, 0, 4, 2, 3, 4, 4, 1, 0, 3, 0, 4, 3, 3, 1, 0, 2, 3, 3,
		3, 2, 2, 1, 1, 2, 2, 4, 1, 2, 2, 3, 0, 0, 0, 3, 1, 4, 1, 2,
	}, res.Assignment.Folds)

	// Exact rational arithmetic on the same folds and elimination paths.
	want := []float64{
		0.4193572367280258,
		0.42277445342281833,
		0.4313141874318662,
		0.4194725709923878,
		0.3997051006707557,
		0.3997051006707557,
		0.5311073524051162,
	}
	require.Len(t, res.MSE, len(want))
	for j := range want {
		assert.InEpsilon(t, want[j], res.MSE[j], 1e-9, "lambda %v", goldenGrid[j])
	}

	// λ=5 and λ=10 keep columns {0,2} in every fold, so their MSEs are
	// identical and the smaller lambda wins.
	assert.Equal(t, res.MSE[4], res.MSE[5])
	assert.Equal(t, 5.0, res.BestLambda)
	assert.Equal(t, 4, res.BestIndex)
	assert.Equal(t, 60, res.EvaluatedRows)
}

func TestCrossValidator_TiesPreferSmallerLambda(t *testing.T) {
	// One strong predictor: every penalty in the grid keeps it, so all MSEs
	// are equal.
	X, y := synthetic(t, 100, 1, 0, map[int]float64{0: 5}, 0.1, 33)
	grid := []float64{2, 1, 0.5, 1}
	res, err := NewCrossValidator(WithLogger(quietLogger())).CrossValidate(X, y, 4, grid, 1)
	require.NoError(t, err)
	assert.Equal(t, res.MSE[0], res.MSE[2])
	assert.Equal(t, 0.5, res.BestLambda)
	assert.Equal(t, 2, res.BestIndex)
}

func TestCrossValidator_FailedFold(t *testing.T) {
	// The indicator is 1 on a single row, so the fold holding that row has
	// a constant column in training. With dropping disabled it fails.
	X, y := indicatorDesign(t, 80, 17)
	assign, err := NewFoldAssignment(80, 4, 5)
	require.NoError(t, err)
	failing := assign.Folds[17]

	base := []Option{WithLogger(quietLogger()), WithSeed(5), WithZeroVarianceDrop(false)}

	_, err = NewCrossValidator(base...).CrossValidate(X, y, 4, []float64{1, 2}, 3)
	var rd *errors.RankDeficiencyError
	require.True(t, errors.As(err, &rd))
	assert.Contains(t, err.Error(), "fold")

	logger, _ := log.NewTestLogger(log.LevelWarn)
	res, err := NewCrossValidator(append(base, WithSkipFailedFolds(true), WithLogger(logger))...).
		CrossValidate(X, y, 4, []float64{1, 2}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{failing}, res.SkippedFolds)
	assert.Equal(t, 80-assign.Sizes()[failing], res.EvaluatedRows)
	assert.True(t, math.IsNaN(res.Predictions.At(17, 0)))
	assert.Len(t, logger.EntriesAt(log.LevelWarn), 1)

	// The default policy drops the column inside the fold instead.
	res, err = NewCrossValidator(WithLogger(quietLogger()), WithSeed(5)).CrossValidate(X, y, 4, []float64{1, 2}, 3)
	require.NoError(t, err)
	assert.Empty(t, res.SkippedFolds)
	assert.Equal(t, 80, res.EvaluatedRows)
}

func TestCrossValidator_AllFoldsFail(t *testing.T) {
	X, y := indicatorDesign(t, 40)
	_, err := NewCrossValidator(WithLogger(quietLogger()), WithZeroVarianceDrop(false), WithSkipFailedFolds(true)).
		CrossValidate(X, y, 4, []float64{1}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 4 folds failed")
}

func TestCrossValidator_InvalidInput(t *testing.T) {
	X, y := synthetic(t, 30, 2, 0, map[int]float64{0: 1}, 0.1, 34)
	cv := NewCrossValidator(WithLogger(quietLogger()))

	var fe *errors.InvalidFoldCountError
	_, err := cv.CrossValidate(X, y, 1, goldenGrid, 2)
	assert.True(t, errors.As(err, &fe))
	_, err = cv.CrossValidate(X, y, 31, goldenGrid, 2)
	assert.True(t, errors.As(err, &fe))

	var ve *errors.ValidationError
	_, err = cv.CrossValidate(X, y, 5, []float64{math.NaN()}, 2)
	assert.True(t, errors.As(err, &ve))
	_, err = cv.CrossValidate(X, y, 5, goldenGrid, 0)
	assert.True(t, errors.As(err, &ve))
}

func TestCrossValidator_Cancelled(t *testing.T) {
	X, y := synthetic(t, 60, 3, 0, map[int]float64{0: 1}, 0.1, 35)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCrossValidator(WithLogger(quietLogger()), WithWorkers(2)).CrossValidateContext(ctx, X, y, 3, goldenGrid, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
