package selection

import (
	"context"

	"github.com/YuminosukeSato/taxitip/core/dataset"
	"github.com/YuminosukeSato/taxitip/metrics"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
	"github.com/YuminosukeSato/taxitip/pkg/log"
)

// Params are the tuning inputs of a full selection run.
type Params struct {
	Folds   int
	Lambdas []float64
	MaxSize int
}

// Outcome is everything a full run produces.
type Outcome struct {
	CV      *CVResult
	Model   *FittedModel
	MSPE    float64
	Holdout metrics.Report
	// Fingerprint identifies the shared column encoding of both datasets.
	Fingerprint string
}

// Run cross-validates on train, refits with the best lambda and scores the
// refit on holdout. Both datasets must share one column encoding.
func Run(ctx context.Context, train, holdout *dataset.Dataset, params Params, opts ...Option) (*Outcome, error) {
	s := newSettings(opts)
	_, p := train.Dims()
	_, ph := holdout.Dims()
	if err := train.Schema.CheckCompatible("selection.Run", p, holdout.Schema, ph); err != nil {
		return nil, err
	}

	cv, err := NewCrossValidator(s.options()...).CrossValidateDataset(ctx, train, params.Folds, params.Lambdas, params.MaxSize)
	if err != nil {
		return nil, errors.Wrap(err, "cross-validation")
	}

	ff := NewFinalFitter(s.options()...)
	model, err := ff.FitFinalDataset(train, cv.BestLambda, params.MaxSize)
	if err != nil {
		return nil, errors.Wrap(err, "final fit")
	}
	mspe, err := ff.ScoreDataset(model, holdout)
	if err != nil {
		return nil, errors.Wrap(err, "holdout score")
	}
	report, err := ff.Evaluate(model, holdout)
	if err != nil {
		return nil, errors.Wrap(err, "holdout report")
	}

	out := &Outcome{
		CV:          cv,
		Model:       model,
		MSPE:        mspe,
		Holdout:     report,
		Fingerprint: train.Schema.FingerprintHex(),
	}
	s.logger.Info("selection run finished",
		log.LambdaKey, cv.BestLambda,
		log.SubsetSizeKey, model.Size,
		log.MSPEKey, mspe,
		log.SchemaFingerprintKey, out.Fingerprint,
	)
	return out, nil
}
