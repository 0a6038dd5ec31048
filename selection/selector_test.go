package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

// handmade builds a search result over p = len(rss) columns where size s
// includes columns 0..s-1.
func handmade(n int, null float64, rss ...float64) *SearchResult {
	p := len(rss)
	res := &SearchResult{NullRSS: null, NSamples: n, NFeatures: p}
	for i, v := range rss {
		cols := make([]int, i+1)
		for j := range cols {
			cols[j] = j
		}
		res.Steps = append(res.Steps, SearchStep{Size: i + 1, Mask: NewMask(p, cols), RSS: v})
	}
	return res
}

func TestPenalizedSelector_ChooseSize(t *testing.T) {
	ps := NewPenalizedSelector(WithLogger(quietLogger()))
	n := 100
	res := handmade(n, 100, 50, 20, 19, 18.9)

	tests := []struct {
		name   string
		res    *SearchResult
		lambda float64
		want   int
	}{
		{name: "no penalty takes the smallest RSS", res: res, lambda: 0, want: 4},
		{name: "moderate penalty", res: res, lambda: 10, want: 2},
		{name: "huge penalty keeps only the intercept", res: res, lambda: 1e6, want: 0},
		{name: "equal scores prefer the smaller size", res: handmade(n, 100, 40, 40, 40), lambda: 0, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, score, err := ps.ChooseSize(tt.res, tt.lambda)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			step, _ := tt.res.Step(got)
			assert.InDelta(t, PenalizedScore(n, step.RSS, tt.lambda, got), score, 1e-9)
		})
	}
}

func TestPenalizedSelector_SizeNonIncreasingInLambda(t *testing.T) {
	X, y := synthetic(t, 300, 10, 1, map[int]float64{0: 0.8, 3: 0.3, 4: -0.2, 8: 0.05, 9: 0.5}, 1, 11)
	res, err := NewSubsetSearch(WithLogger(quietLogger())).Search(X, y, 10)
	require.NoError(t, err)

	ps := NewPenalizedSelector(WithLogger(quietLogger()))
	prev := math.MaxInt
	for _, lambda := range []float64{0, 0.1, 0.5, 1, 2, 5, 10, 20, 50, 100, 1000, 1e5} {
		size, _, err := ps.ChooseSize(res, lambda)
		require.NoError(t, err)
		assert.LessOrEqual(t, size, prev, "lambda=%g", lambda)
		prev = size
	}
}

func TestPenalizedSelector_RSSFloor(t *testing.T) {
	exact := handmade(50, 10, 5, 0, 0)

	size, score, err := NewPenalizedSelector(WithLogger(quietLogger())).ChooseSize(exact, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, size)
	assert.False(t, math.IsInf(score, 0))

	_, _, err = NewPenalizedSelector(WithLogger(quietLogger()), WithRSSFloor(0)).ChooseSize(exact, 1)
	var df *errors.DegenerateFitError
	require.True(t, errors.As(err, &df))
	assert.Equal(t, 2, df.Size)
}

func TestPenalizedSelector_Degenerate(t *testing.T) {
	ps := NewPenalizedSelector(WithLogger(quietLogger()))
	var df *errors.DegenerateFitError

	_, _, err := ps.ChooseSize(handmade(10, 0, 0), 1)
	assert.True(t, errors.As(err, &df), "constant target")

	_, _, err = ps.ChooseSize(handmade(10, 5, math.NaN()), 1)
	assert.True(t, errors.As(err, &df), "NaN RSS")

	_, _, err = ps.ChooseSize(handmade(10, 5, -1), 1)
	assert.True(t, errors.As(err, &df), "negative RSS")
}

func TestPenalizedSelector_InvalidLambda(t *testing.T) {
	ps := NewPenalizedSelector(WithLogger(quietLogger()))
	res := handmade(10, 5, 4)
	for _, lambda := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, _, err := ps.ChooseSize(res, lambda)
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve), "lambda=%g", lambda)
	}
}

func TestPenalizedSelector_SelectRefits(t *testing.T) {
	X, y := synthetic(t, 1000, 5, 1, map[int]float64{1: 3, 3: -2}, 0, 1)
	res, err := NewSubsetSearch(WithLogger(quietLogger())).Search(X, y, 5)
	require.NoError(t, err)

	m, err := NewPenalizedSelector(WithLogger(quietLogger()), WithColumnNames([]string{"a", "b", "c", "d", "e"})).Select(X, y, res, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Size)
	assert.Equal(t, []int{1, 3}, m.Mask.Columns())
	assert.InDelta(t, 1, m.Intercept, 1e-9)
	assert.InDeltaSlice(t, []float64{3, -2}, m.Coefficients, 1e-9)
	assert.InDeltaSlice(t, []float64{0, 3, 0, -2, 0}, m.FullCoefficients(), 1e-9)
	assert.Equal(t, []string{"b", "d"}, m.SelectedNames())

	coefs := m.CoefficientMap()
	assert.Len(t, coefs, 3)
	assert.InDelta(t, 1, coefs[InterceptName], 1e-9)
	assert.InDelta(t, -2, coefs["d"], 1e-9)

	pred, err := m.Predict(mat.NewDense(1, 5, []float64{9, 1, 9, 1, 9}))
	require.NoError(t, err)
	assert.InDelta(t, 2, pred.AtVec(0), 1e-9)

	_, err = m.Predict(mat.NewDense(1, 4, nil))
	var sm *errors.SchemaMismatchError
	assert.True(t, errors.As(err, &sm))
}

func TestPenalizedSelector_InterceptOnly(t *testing.T) {
	X, y := synthetic(t, 60, 2, 5, nil, 1, 12)
	res, err := NewSubsetSearch(WithLogger(quietLogger())).Search(X, y, 2)
	require.NoError(t, err)

	m, err := NewPenalizedSelector(WithLogger(quietLogger())).Select(X, y, res, 1e9)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Size)
	assert.Empty(t, m.Coefficients)
	var mean float64
	for i := 0; i < y.Len(); i++ {
		mean += y.AtVec(i)
	}
	assert.InDelta(t, mean/60, m.Intercept, 1e-12)
	assert.Equal(t, "{}", m.Mask.String())
}

func TestPenalizedSelector_SelectDimensionCheck(t *testing.T) {
	X, y := synthetic(t, 40, 3, 0, map[int]float64{0: 1}, 1, 13)
	res, err := NewSubsetSearch(WithLogger(quietLogger())).Search(X, y, 3)
	require.NoError(t, err)

	other, oy := synthetic(t, 40, 2, 0, nil, 1, 13)
	_, err = NewPenalizedSelector(WithLogger(quietLogger())).Select(other, oy, res, 1)
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}
