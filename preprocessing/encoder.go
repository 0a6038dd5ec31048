// Package preprocessing turns named numeric and categorical feature columns
// into a design matrix with a fixed column encoding.
package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/taxitip/core/dataset"
	"github.com/YuminosukeSato/taxitip/core/model"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

// Table holds feature columns by name. Every column has N entries.
type Table struct {
	N           int
	Numeric     map[string][]float64
	Categorical map[string][]string
}

// NewTable creates an empty table of n rows.
func NewTable(n int) *Table {
	return &Table{N: n, Numeric: make(map[string][]float64), Categorical: make(map[string][]string)}
}

// OneHotEncoder encodes categorical columns as indicator columns named
// "feature=level". The lexicographically smallest level of each feature is
// the reference level and gets no column.
type OneHotEncoder struct {
	model.BaseEstimator

	Features []string
	// Levels[f] lists the sorted levels seen by Fit; Levels[f][0] is the
	// reference level.
	Levels map[string][]string

	index map[string]map[string]int
}

// NewOneHotEncoder creates an encoder for the given features, in order.
func NewOneHotEncoder(features ...string) *OneHotEncoder {
	return &OneHotEncoder{Features: append([]string(nil), features...)}
}

// Fit records the levels of every feature.
func (e *OneHotEncoder) Fit(t *Table) error {
	if err := checkTable("OneHotEncoder.Fit", t, nil, e.Features); err != nil {
		return err
	}
	e.Levels = make(map[string][]string, len(e.Features))
	e.index = make(map[string]map[string]int, len(e.Features))
	for _, f := range e.Features {
		seen := make(map[string]struct{})
		for _, v := range t.Categorical[f] {
			seen[v] = struct{}{}
		}
		levels := make([]string, 0, len(seen))
		for v := range seen {
			levels = append(levels, v)
		}
		sort.Strings(levels)
		e.Levels[f] = levels

		idx := make(map[string]int, len(levels))
		for i, v := range levels {
			idx[v] = i
		}
		e.index[f] = idx
	}
	e.SetFitted(t.N, len(e.ColumnNames()))
	return nil
}

// ColumnNames returns the indicator column names in output order.
func (e *OneHotEncoder) ColumnNames() []string {
	var names []string
	for _, f := range e.Features {
		for _, v := range e.Levels[f][min(1, len(e.Levels[f])):] {
			names = append(names, f+"="+v)
		}
	}
	return names
}

// Reference returns the reference level of feature.
func (e *OneHotEncoder) Reference(feature string) (string, bool) {
	levels := e.Levels[feature]
	if len(levels) == 0 {
		return "", false
	}
	return levels[0], true
}

// encodeInto writes the indicator columns into dst starting at column
// offset. Levels unseen by Fit are left at zero, which is the reference
// encoding, and reported through errors.Warn.
func (e *OneHotEncoder) encodeInto(dst *mat.Dense, offset int, t *Table) {
	col := offset
	for _, f := range e.Features {
		levels := e.Levels[f]
		idx := e.index[f]
		unseen := make(map[string]int)
		for i, v := range t.Categorical[f] {
			k, ok := idx[v]
			if !ok {
				unseen[v]++
				continue
			}
			if k > 0 {
				dst.Set(i, col+k-1, 1)
			}
		}
		if len(levels) > 0 {
			col += len(levels) - 1
		}

		names := make([]string, 0, len(unseen))
		for v := range unseen {
			names = append(names, v)
		}
		sort.Strings(names)
		for _, v := range names {
			errors.Warn(errors.NewUnseenLevelWarning(f, v, unseen[v]))
		}
	}
}

// DesignEncoder builds the design matrix: numeric columns first, in the
// given order, then the indicator columns of the categorical features.
type DesignEncoder struct {
	model.BaseEstimator

	Numeric []string
	OneHot  *OneHotEncoder

	schema dataset.Schema
}

// NewDesignEncoder creates an encoder for the given numeric and categorical
// feature names.
func NewDesignEncoder(numeric, categorical []string) *DesignEncoder {
	return &DesignEncoder{
		Numeric: append([]string(nil), numeric...),
		OneHot:  NewOneHotEncoder(categorical...),
	}
}

// Fit fixes the column encoding from t. Apply the fitted encoder to every
// dataset that must share the encoding.
func (d *DesignEncoder) Fit(t *Table) error {
	if err := checkTable("DesignEncoder.Fit", t, d.Numeric, d.OneHot.Features); err != nil {
		return err
	}
	if err := d.OneHot.Fit(t); err != nil {
		return err
	}
	names := append(append([]string(nil), d.Numeric...), d.OneHot.ColumnNames()...)
	if len(names) == 0 {
		return errors.NewValueError("DesignEncoder.Fit", "no feature columns to encode")
	}
	d.schema = dataset.NewSchema(names)
	d.SetFitted(t.N, len(names))
	return nil
}

// Schema returns the fitted column encoding.
func (d *DesignEncoder) Schema() dataset.Schema {
	return d.schema
}

// Transform encodes t and pairs it with the target y.
func (d *DesignEncoder) Transform(t *Table, y []float64) (*dataset.Dataset, error) {
	const op = "DesignEncoder.Transform"
	if err := d.RequireFitted("DesignEncoder", "Transform"); err != nil {
		return nil, err
	}
	if err := checkTable(op, t, d.Numeric, d.OneHot.Features); err != nil {
		return nil, err
	}
	if len(y) != t.N {
		return nil, errors.NewDimensionError(op, t.N, len(y), 0)
	}
	if t.N == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	X := mat.NewDense(t.N, d.schema.Len(), nil)
	for j, name := range d.Numeric {
		col := t.Numeric[name]
		if err := errors.CheckNumericalStability(fmt.Sprintf("%s %s", op, name), col, j); err != nil {
			return nil, err
		}
		X.SetCol(j, col)
	}
	d.OneHot.encodeInto(X, len(d.Numeric), t)

	return dataset.New(X, mat.NewVecDense(t.N, append([]float64(nil), y...)), d.schema.Columns)
}

// FitTransform is Fit followed by Transform.
func (d *DesignEncoder) FitTransform(t *Table, y []float64) (*dataset.Dataset, error) {
	if err := d.Fit(t); err != nil {
		return nil, err
	}
	return d.Transform(t, y)
}

func checkTable(op string, t *Table, numeric, categorical []string) error {
	if t == nil {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	for _, name := range numeric {
		col, ok := t.Numeric[name]
		if !ok {
			return errors.NewValidationError(name, "numeric feature missing from table", nil)
		}
		if len(col) != t.N {
			return errors.NewDimensionError(op+" "+name, t.N, len(col), 0)
		}
	}
	for _, name := range categorical {
		col, ok := t.Categorical[name]
		if !ok {
			return errors.NewValidationError(name, "categorical feature missing from table", nil)
		}
		if len(col) != t.N {
			return errors.NewDimensionError(op+" "+name, t.N, len(col), 0)
		}
	}
	return nil
}
