package selection

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/taxitip/core/dataset"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
	"github.com/YuminosukeSato/taxitip/pkg/log"
)

// FoldPredictor fits one training partition and predicts its test
// partition for every penalty of a grid.
type FoldPredictor struct {
	settings settings
}

// NewFoldPredictor creates a FoldPredictor.
func NewFoldPredictor(opts ...Option) *FoldPredictor {
	return &FoldPredictor{settings: newSettings(opts)}
}

// PredictFold searches (Xtrain, ytrain) once, selects a model for every
// lambda and returns the |Xtest|×|lambdas| matrix of test predictions.
// Columns constant on the training rows are left out of the search, so
// their coefficient is zero, unless WithZeroVarianceDrop(false) was given.
func (fp *FoldPredictor) PredictFold(Xtrain mat.Matrix, ytrain mat.Vector, Xtest mat.Matrix, lambdas []float64, maxSize int) (*mat.Dense, error) {
	const op = "FoldPredictor.PredictFold"
	if err := validateLambdas(lambdas); err != nil {
		return nil, err
	}
	_, p := Xtrain.Dims()
	nt, pt := Xtest.Dims()
	if pt != p {
		return nil, errors.NewSchemaMismatchError(op, p, pt, nil, nil)
	}

	search, err := fp.search(op, Xtrain, ytrain, maxSize)
	if err != nil {
		return nil, err
	}

	selector := &PenalizedSelector{settings: fp.settings}
	out := mat.NewDense(nt, len(lambdas), nil)
	bySize := make(map[int]*mat.VecDense, len(lambdas))
	for j, lambda := range lambdas {
		size, _, err := selector.ChooseSize(search, lambda)
		if err != nil {
			return nil, err
		}
		pred, ok := bySize[size]
		if !ok {
			m, err := selector.Select(Xtrain, ytrain, search, lambda)
			if err != nil {
				return nil, err
			}
			if pred, err = m.Predict(Xtest); err != nil {
				return nil, err
			}
			bySize[size] = pred
		}
		out.SetCol(j, pred.RawVector().Data)
	}
	return out, nil
}

// PredictFoldDatasets is PredictFold for named datasets. The test schema
// must match the training schema column for column.
func (fp *FoldPredictor) PredictFoldDatasets(train, test *dataset.Dataset, lambdas []float64, maxSize int) (*mat.Dense, error) {
	_, p := train.Dims()
	_, pt := test.Dims()
	if err := train.Schema.CheckCompatible("FoldPredictor.PredictFold", p, test.Schema, pt); err != nil {
		return nil, err
	}
	sub := &FoldPredictor{settings: fp.settings}
	if train.Schema.Named() {
		sub.settings.names = train.Schema.Columns
	}
	return sub.PredictFold(train.X, train.Y, test.X, lambdas, maxSize)
}

// search applies the zero-variance policy and runs SubsetSearch.
func (fp *FoldPredictor) search(op string, X mat.Matrix, y mat.Vector, maxSize int) (*SearchResult, error) {
	s := fp.settings
	if s.dropZeroVariance {
		_, p := X.Dims()
		cand, err := candidateColumns(op, s.candidates, p)
		if err != nil {
			return nil, err
		}
		kept, dropped := withoutConstant(X, cand)
		if len(dropped) > 0 {
			var names []string
			if len(s.names) > 0 {
				for _, c := range dropped {
					names = append(names, s.name(c))
				}
			}
			w := errors.NewColumnDroppedWarning(op, dropped, names)
			s.logger.Warn(w.Error(), "warning", w, log.ColumnsKey, dropped)
		}
		s.candidates = kept
	}
	return (&SubsetSearch{settings: s}).Search(X, y, maxSize)
}

// withoutConstant splits cand into columns that vary on X and columns that
// do not.
func withoutConstant(X mat.Matrix, cand []int) (kept, dropped []int) {
	constant := make(map[int]bool)
	for _, c := range dataset.ZeroVarianceColumns(X) {
		constant[c] = true
	}
	kept = make([]int, 0, len(cand))
	for _, c := range cand {
		if constant[c] {
			dropped = append(dropped, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, dropped
}
