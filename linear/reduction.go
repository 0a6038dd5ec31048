package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/taxitip/core/parallel"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

// Reduction is the orthogonal reduction of the least-squares problem
// y ~ [1 X]. With [1 X y] = Q·[[R z] [0 ρ]], every regression of y on the
// intercept and a column subset S satisfies
//
//	RSS(S) = RSSFull + min_b ‖z − R_S·b‖²
//
// so subset fits cost O(p³) regardless of the number of rows.
type Reduction struct {
	// R is the (p+1)×(p+1) upper triangular factor. Column 0 belongs to the
	// intercept and column j+1 to feature j.
	R *mat.Dense
	// Z is Q₁ᵀy.
	Z *mat.VecDense
	// RSSFull is the residual sum of squares of the full model.
	RSSFull float64
	// NullRSS is the residual sum of squares of the intercept-only model.
	NullRSS float64
	// Cond is the 2-norm condition number of [1 X].
	Cond float64

	NSamples  int
	NFeatures int
}

// Reduce factorizes [1 X y] once. It fails with a RankDeficiencyError when
// there are fewer rows than parameters or when the condition number of
// [1 X] exceeds the configured tolerance.
func Reduce(X mat.Matrix, y mat.Vector, opts ...Option) (*Reduction, error) {
	return reduce("linear.Reduce", X, y, newSettings(opts))
}

func reduce(op string, X mat.Matrix, y mat.Vector, s settings) (*Reduction, error) {
	n, p := X.Dims()
	if n == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if y.Len() != n {
		return nil, errors.NewDimensionError(op, n, y.Len(), 0)
	}
	if n < p+1 {
		return nil, errors.NewRankDeficiencyError(op, n, p+1, math.Inf(1), AllColumns(p))
	}

	yData := make([]float64, n)
	for i := range yData {
		yData[i] = y.AtVec(i)
	}
	if err := errors.CheckNumericalStability(op+" target", yData, 0); err != nil {
		return nil, err
	}

	// Zero rows leave the least-squares problem unchanged and keep the
	// augmented matrix tall when n == p+1.
	rows := n
	if rows < p+2 {
		rows = p + 2
	}
	aug := mat.NewDense(rows, p+2, nil)
	parallel.ParallelizeWithThreshold(n, s.parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			aug.Set(i, 0, 1)
			for j := 0; j < p; j++ {
				aug.Set(i, j+1, X.At(i, j))
			}
			aug.Set(i, p+1, yData[i])
		}
	})
	for j := 1; j <= p; j++ {
		if err := errors.CheckNumericalStability(op+" design", mat.Col(nil, j, aug), j-1); err != nil {
			return nil, err
		}
	}

	var qr mat.QR
	qr.Factorize(aug)
	var full mat.Dense
	qr.RTo(&full)

	r := mat.DenseCopyOf(full.Slice(0, p+1, 0, p+1))
	cond := mat.Cond(r, 2)
	if math.IsNaN(cond) || cond > s.condTol {
		return nil, errors.NewRankDeficiencyError(op, n, p+1, cond, AllColumns(p))
	}

	z := mat.NewVecDense(p+1, nil)
	for i := 0; i <= p; i++ {
		z.SetVec(i, full.At(i, p+1))
	}
	rho := full.At(p+1, p+1)

	mean := stat.Mean(yData, nil)
	var nullRSS float64
	for _, v := range yData {
		d := v - mean
		nullRSS += d * d
	}

	return &Reduction{
		R:         r,
		Z:         z,
		RSSFull:   rho * rho,
		NullRSS:   nullRSS,
		Cond:      cond,
		NSamples:  n,
		NFeatures: p,
	}, nil
}

// RSS returns the residual sum of squares of the regression of y on the
// intercept and the feature columns cols.
func (r *Reduction) RSS(cols []int) (float64, error) {
	if err := r.checkColumns("Reduction.RSS", cols); err != nil {
		return 0, err
	}
	if len(cols) == r.NFeatures {
		return r.RSSFull, nil
	}

	k := len(cols) + 1
	aug := mat.NewDense(r.NFeatures+1, k+1, nil)
	r.fillSubset(aug, cols)
	for i := 0; i <= r.NFeatures; i++ {
		aug.Set(i, k, r.Z.AtVec(i))
	}

	var qr mat.QR
	qr.Factorize(aug)
	var rs mat.Dense
	qr.RTo(&rs)
	rho := rs.At(k, k)
	rss := r.RSSFull + rho*rho
	if err := errors.CheckScalar("Reduction.RSS", rss, len(cols)); err != nil {
		return 0, err
	}
	return rss, nil
}

// Coefficients solves the regression on the intercept and cols and returns
// the intercept and the coefficients in the order of cols.
func (r *Reduction) Coefficients(cols []int) (float64, []float64, error) {
	const op = "Reduction.Coefficients"
	if err := r.checkColumns(op, cols); err != nil {
		return 0, nil, err
	}

	k := len(cols) + 1
	a := mat.NewDense(r.NFeatures+1, k, nil)
	r.fillSubset(a, cols)

	var qr mat.QR
	qr.Factorize(a)
	b := mat.NewVecDense(k, nil)
	if err := qr.SolveVecTo(b, false, r.Z); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return 0, nil, errors.NewRankDeficiencyError(op, r.NSamples, k, float64(cond), cols)
		}
		return 0, nil, errors.Wrap(err, op)
	}
	if err := errors.CheckNumericalStability(op, b.RawVector().Data, len(cols)); err != nil {
		return 0, nil, err
	}

	coefs := make([]float64, len(cols))
	for t := range cols {
		coefs[t] = b.AtVec(t + 1)
	}
	return b.AtVec(0), coefs, nil
}

func (r *Reduction) fillSubset(dst *mat.Dense, cols []int) {
	for i := 0; i <= r.NFeatures; i++ {
		dst.Set(i, 0, r.R.At(i, 0))
		for t, c := range cols {
			dst.Set(i, t+1, r.R.At(i, c+1))
		}
	}
}

func (r *Reduction) checkColumns(op string, cols []int) error {
	if len(cols) > r.NFeatures {
		return errors.NewDimensionError(op, r.NFeatures, len(cols), 1)
	}
	seen := make(map[int]struct{}, len(cols))
	for _, c := range cols {
		if c < 0 || c >= r.NFeatures {
			return errors.NewValueError(op, "column index out of range")
		}
		if _, dup := seen[c]; dup {
			return errors.NewValueError(op, "duplicate column index")
		}
		seen[c] = struct{}{}
	}
	return nil
}

// AllColumns returns the indices 0..p-1.
func AllColumns(p int) []int {
	cols := make([]int, p)
	for i := range cols {
		cols[i] = i
	}
	return cols
}
