package selection

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/taxitip/core/dataset"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
	"github.com/YuminosukeSato/taxitip/pkg/log"
)

// CVResult is the outcome of one cross-validation run.
type CVResult struct {
	Lambdas []float64
	// MSE[j] is the mean squared out-of-fold error for Lambdas[j].
	MSE        []float64
	BestIndex  int
	BestLambda float64
	// Predictions holds the out-of-fold prediction of every row for every
	// lambda. Rows of skipped folds are NaN.
	Predictions *mat.Dense
	Assignment  *FoldAssignment
	// SkippedFolds lists folds that failed under WithSkipFailedFolds.
	SkippedFolds  []int
	EvaluatedRows int
}

// BestMSE returns the MSE of the chosen lambda.
func (r *CVResult) BestMSE() float64 { return r.MSE[r.BestIndex] }

// CrossValidator tunes the penalty by k-fold cross-validation.
type CrossValidator struct {
	settings settings
}

// NewCrossValidator creates a CrossValidator.
func NewCrossValidator(opts ...Option) *CrossValidator {
	return &CrossValidator{settings: newSettings(opts)}
}

// CrossValidate runs CrossValidateContext with a background context.
func (cv *CrossValidator) CrossValidate(X mat.Matrix, y mat.Vector, k int, lambdas []float64, maxSize int) (*CVResult, error) {
	return cv.CrossValidateContext(context.Background(), X, y, k, lambdas, maxSize)
}

// CrossValidateContext partitions the rows into k folds, predicts every
// fold from the others for each lambda and returns the per-lambda MSE with
// the lambda that minimizes it. Equal MSEs resolve to the smaller lambda.
//
// Folds run on up to WithWorkers goroutines. The fold assignment is drawn
// before any fold starts and every fold writes only its own rows, so the
// result does not depend on scheduling. Cancelling ctx stops folds that have
// not started yet.
func (cv *CrossValidator) CrossValidateContext(ctx context.Context, X mat.Matrix, y mat.Vector, k int, lambdas []float64, maxSize int) (*CVResult, error) {
	const op = "CrossValidator.CrossValidate"
	if err := validateLambdas(lambdas); err != nil {
		return nil, err
	}
	if maxSize < 1 {
		return nil, errors.NewValidationError("maxSize", "must be at least 1", maxSize)
	}
	n, p := X.Dims()
	if y.Len() != n {
		return nil, errors.NewDimensionError(op, n, y.Len(), 0)
	}
	assign, err := NewFoldAssignment(n, k, cv.settings.seed)
	if err != nil {
		return nil, err
	}

	logger := cv.settings.logger.With(log.ModelNameKey, "CrossValidator", log.OperationKey, log.OperationCrossValidate)
	logger.Info("cross-validation started",
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.FoldsKey, k,
		log.LambdasKey, lambdas,
		log.MaxSizeKey, maxSize,
		log.WorkersKey, cv.settings.workers,
		log.RandomSeedKey, cv.settings.seed,
	)
	started := time.Now()

	preds := mat.NewDense(n, len(lambdas), nil)
	writes := make([]uint8, n)
	predictor := &FoldPredictor{settings: cv.settings}

	var (
		mu      sync.Mutex
		skipped []int
		causes  []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cv.settings.workers)
	for fold := 0; fold < k; fold++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			train, test := assign.Split(fold)
			err := errors.SafeExecute(fmt.Sprintf("fold %d", fold), func() error {
				return cv.runFold(predictor, X, y, train, test, lambdas, maxSize, preds, writes)
			})
			if err == nil {
				logger.Info("fold finished", log.FoldKey, fold, log.FoldSizeKey, len(test))
				return nil
			}
			if !cv.settings.skipFailedFolds {
				return errors.Wrapf(err, "%s: fold %d", op, fold)
			}
			w := errors.NewFoldSkippedWarning(fold, len(test), err)
			logger.Warn(w.Error(), "warning", w, log.FoldKey, fold)
			mu.Lock()
			skipped = append(skipped, fold)
			causes = append(causes, err)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("cross-validation failed", log.ErrAttrKey, err)
		return nil, err
	}
	if len(skipped) == k {
		return nil, errors.Wrapf(causes[0], "%s: all %d folds failed", op, k)
	}
	sort.Ints(skipped)

	res, err := summarize(op, y, lambdas, preds, writes, assign, skipped)
	if err != nil {
		return nil, err
	}
	logger.Info("cross-validation finished",
		log.LambdaKey, res.BestLambda,
		log.MSEKey, res.BestMSE(),
		log.SamplesKey, res.EvaluatedRows,
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)
	return res, nil
}

// runFold copies the fold's partitions, predicts the test rows and writes
// them into their rows of preds.
func (cv *CrossValidator) runFold(fp *FoldPredictor, X mat.Matrix, y mat.Vector, train, test []int, lambdas []float64, maxSize int, preds *mat.Dense, writes []uint8) error {
	out, err := fp.PredictFold(
		dataset.SelectRows(X, train),
		dataset.SelectRowsVec(y, train),
		dataset.SelectRows(X, test),
		lambdas, maxSize,
	)
	if err != nil {
		return err
	}
	for t, row := range test {
		for j := range lambdas {
			preds.Set(row, j, out.At(t, j))
		}
		writes[row]++
	}
	return nil
}

func summarize(op string, y mat.Vector, lambdas []float64, preds *mat.Dense, writes []uint8, assign *FoldAssignment, skipped []int) (*CVResult, error) {
	isSkipped := make(map[int]bool, len(skipped))
	for _, f := range skipped {
		isSkipped[f] = true
	}

	n := y.Len()
	sums := make([]float64, len(lambdas))
	evaluated := 0
	for row := 0; row < n; row++ {
		if isSkipped[assign.Folds[row]] {
			if writes[row] != 0 {
				return nil, errors.NewValueError(op, fmt.Sprintf("row %d of a skipped fold has predictions", row))
			}
			for j := range lambdas {
				preds.Set(row, j, math.NaN())
			}
			continue
		}
		if writes[row] != 1 {
			return nil, errors.NewValueError(op, fmt.Sprintf("row %d predicted %d times", row, writes[row]))
		}
		evaluated++
		for j := range lambdas {
			d := y.AtVec(row) - preds.At(row, j)
			sums[j] += d * d
		}
	}

	mse := make([]float64, len(lambdas))
	best := 0
	for j := range lambdas {
		mse[j] = sums[j] / float64(evaluated)
		if mse[j] < mse[best] || (mse[j] == mse[best] && lambdas[j] < lambdas[best]) {
			best = j
		}
	}
	if err := errors.CheckNumericalStability(op, mse, 0); err != nil {
		return nil, err
	}

	return &CVResult{
		Lambdas:       append([]float64(nil), lambdas...),
		MSE:           mse,
		BestIndex:     best,
		BestLambda:    lambdas[best],
		Predictions:   preds,
		Assignment:    assign,
		SkippedFolds:  skipped,
		EvaluatedRows: evaluated,
	}, nil
}

// CrossValidateDataset runs CrossValidateContext on a named dataset.
func (cv *CrossValidator) CrossValidateDataset(ctx context.Context, d *dataset.Dataset, k int, lambdas []float64, maxSize int) (*CVResult, error) {
	sub := &CrossValidator{settings: cv.settings}
	if d.Schema.Named() {
		sub.settings.names = d.Schema.Columns
	}
	return sub.CrossValidateContext(ctx, d.X, d.Y, k, lambdas, maxSize)
}
