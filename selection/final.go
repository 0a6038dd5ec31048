package selection

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/taxitip/core/dataset"
	"github.com/YuminosukeSato/taxitip/metrics"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
	"github.com/YuminosukeSato/taxitip/pkg/log"
)

// FinalFitter refits the selection on all training rows with the chosen
// penalty and scores the result on holdout rows.
type FinalFitter struct {
	settings settings
}

// NewFinalFitter creates a FinalFitter.
func NewFinalFitter(opts ...Option) *FinalFitter {
	return &FinalFitter{settings: newSettings(opts)}
}

// FitFinal searches (X, y) and selects with lambda. Constant columns are
// handled as in PredictFold. Refitting the same data gives bit-identical
// models.
func (f *FinalFitter) FitFinal(X mat.Matrix, y mat.Vector, lambda float64, maxSize int) (*FittedModel, error) {
	const op = "FinalFitter.FitFinal"
	if err := validateLambda(lambda); err != nil {
		return nil, err
	}
	fp := &FoldPredictor{settings: f.settings}
	res, err := fp.search(op, X, y, maxSize)
	if err != nil {
		return nil, err
	}
	m, err := (&PenalizedSelector{settings: f.settings}).Select(X, y, res, lambda)
	if err != nil {
		return nil, err
	}
	f.settings.logger.Info("final model fitted",
		log.ModelNameKey, "FinalFitter",
		log.LambdaKey, lambda,
		log.SubsetSizeKey, m.Size,
		log.RSSKey, m.RSS,
		log.SamplesKey, m.NSamples,
	)
	return m, nil
}

// FitFinalDataset is FitFinal on a named dataset; the model carries the
// dataset schema.
func (f *FinalFitter) FitFinalDataset(d *dataset.Dataset, lambda float64, maxSize int) (*FittedModel, error) {
	sub := &FinalFitter{settings: f.settings}
	if d.Schema.Named() {
		sub.settings.names = d.Schema.Columns
	}
	return sub.FitFinal(d.X, d.Y, lambda, maxSize)
}

// Score returns the mean squared prediction error of m on the holdout rows,
// in squared target units. Xh must have the training column count.
func (f *FinalFitter) Score(m *FittedModel, Xh mat.Matrix, yh mat.Vector) (float64, error) {
	const op = "FinalFitter.Score"
	r, c := Xh.Dims()
	if c != len(m.Mask) {
		return 0, errors.NewSchemaMismatchError(op, len(m.Mask), c, nil, nil)
	}
	if yh.Len() != r {
		return 0, errors.NewDimensionError(op, r, yh.Len(), 0)
	}
	pred, err := m.Predict(Xh)
	if err != nil {
		return 0, err
	}
	mspe, err := metrics.MSE(yh, pred)
	if err != nil {
		return 0, err
	}
	f.settings.logger.Info("holdout scored",
		log.ModelNameKey, "FinalFitter",
		log.PhaseKey, log.PhaseTesting,
		log.SamplesKey, r,
		log.MSPEKey, mspe,
	)
	return mspe, nil
}

// ScoreDataset is Score on a named holdout dataset. When both the model and
// the holdout carry column names they must match in order.
func (f *FinalFitter) ScoreDataset(m *FittedModel, holdout *dataset.Dataset) (float64, error) {
	_, c := holdout.Dims()
	if err := m.Schema.CheckCompatible("FinalFitter.Score", len(m.Mask), holdout.Schema, c); err != nil {
		return 0, err
	}
	return f.Score(m, holdout.X, holdout.Y)
}

// Evaluate returns the full error report of m on the holdout rows.
func (f *FinalFitter) Evaluate(m *FittedModel, holdout *dataset.Dataset) (metrics.Report, error) {
	_, c := holdout.Dims()
	if err := m.Schema.CheckCompatible("FinalFitter.Evaluate", len(m.Mask), holdout.Schema, c); err != nil {
		return metrics.Report{}, err
	}
	pred, err := m.Predict(holdout.X)
	if err != nil {
		return metrics.Report{}, err
	}
	return metrics.Evaluate(holdout.Y, pred)
}

// RMSPE converts an MSPE to target units.
func RMSPE(mspe float64) float64 {
	return math.Sqrt(mspe)
}
