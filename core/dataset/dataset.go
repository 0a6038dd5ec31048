// Package dataset holds the numeric design matrix handed to model selection
// and the row and column copies cross-validation takes of it.
package dataset

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/taxitip/core/parallel"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

// Dataset is an n×p design matrix, its target vector and column names. It
// is not modified after construction; subsets are copies.
type Dataset struct {
	X      *mat.Dense
	Y      *mat.VecDense
	Schema Schema
}

// New validates shapes and wraps X and y. names may be nil.
func New(X *mat.Dense, y *mat.VecDense, names []string) (*Dataset, error) {
	if X == nil || y == nil {
		return nil, errors.NewModelError("dataset.New", "empty data", errors.ErrEmptyData)
	}
	n, p := X.Dims()
	if y.Len() != n {
		return nil, errors.NewDimensionError("dataset.New", n, y.Len(), 0)
	}
	if names != nil && len(names) != p {
		return nil, errors.NewDimensionError("dataset.New", p, len(names), 1)
	}
	return &Dataset{X: X, Y: y, Schema: NewSchema(names)}, nil
}

// Dims returns the number of rows and feature columns.
func (d *Dataset) Dims() (n, p int) {
	return d.X.Dims()
}

// Subset copies the given rows into a new Dataset with the same schema.
func (d *Dataset) Subset(rows []int) *Dataset {
	return &Dataset{
		X:      SelectRows(d.X, rows),
		Y:      SelectRowsVec(d.Y, rows),
		Schema: d.Schema,
	}
}

// SelectRows copies rows of X, in the given order. It returns nil for an
// empty row list.
func SelectRows(X mat.Matrix, rows []int) *mat.Dense {
	_, p := X.Dims()
	if len(rows) == 0 || p == 0 {
		return nil
	}
	out := mat.NewDense(len(rows), p, nil)
	parallel.ParallelizeWithThreshold(len(rows), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < p; j++ {
				out.Set(i, j, X.At(rows[i], j))
			}
		}
	})
	return out
}

// SelectRowsVec copies elements of y, in the given order.
func SelectRowsVec(y mat.Vector, rows []int) *mat.VecDense {
	if len(rows) == 0 {
		return nil
	}
	out := mat.NewVecDense(len(rows), nil)
	for i, r := range rows {
		out.SetVec(i, y.AtVec(r))
	}
	return out
}

// SelectColumns copies columns of X, in the given order. It returns nil
// for an empty column list.
func SelectColumns(X mat.Matrix, cols []int) *mat.Dense {
	n, _ := X.Dims()
	if len(cols) == 0 || n == 0 {
		return nil
	}
	out := mat.NewDense(n, len(cols), nil)
	parallel.ParallelizeWithThreshold(n, parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for t, c := range cols {
				out.Set(i, t, X.At(i, c))
			}
		}
	})
	return out
}

// ZeroVarianceColumns returns, in ascending order, the columns of X whose
// values are all equal. Such a column is collinear with the intercept.
func ZeroVarianceColumns(X mat.Matrix) []int {
	n, p := X.Dims()
	var out []int
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, X)
		if constant(col) {
			out = append(out, j)
		}
	}
	return out
}

func constant(v []float64) bool {
	if len(v) < 2 {
		return true
	}
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

// ColumnSummary describes one design column.
type ColumnSummary struct {
	Name string
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

// Describe summarizes every column of the dataset.
func (d *Dataset) Describe() []ColumnSummary {
	n, p := d.Dims()
	out := make([]ColumnSummary, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, d.X)
		mean, std := stat.MeanStdDev(col, nil)
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range col {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if n < 2 {
			std = 0
		}
		out[j] = ColumnSummary{Name: d.Schema.Name(j), Mean: mean, Std: std, Min: lo, Max: hi}
	}
	return out
}
