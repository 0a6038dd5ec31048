// Package taxitip selects a linear model for taxi tip amounts.
//
// Trips are loaded and cleaned by package tripdata, encoded into a design
// matrix by package preprocessing, and handed to package selection, which
// runs backward elimination over the design columns, scores every subset
// size with the penalty n·ln(RSS) + λ·size, tunes λ by k-fold
// cross-validation and scores the refit on a holdout period.
//
// # Quick Start
//
//	feats := tripdata.Features{}
//	enc := preprocessing.NewDesignEncoder(feats.Numeric(), feats.Categorical())
//
//	tbl, y := feats.Table(trainTrips)
//	train, err := enc.FitTransform(tbl, y)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tbl, y = feats.Table(holdoutTrips)
//	holdout, err := enc.Transform(tbl, y)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_, p := train.Dims()
//	out, err := selection.Run(ctx, train, holdout, selection.Params{
//	    Folds:   10,
//	    Lambdas: []float64{0.1, 0.5, 1, 2, 5, 10, 20},
//	    MaxSize: p,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(out.CV.BestLambda, out.Model.CoefficientMap(), out.MSPE)
//
// # Packages
//
//   - selection: SubsetSearch, PenalizedSelector, FoldPredictor,
//     CrossValidator and FinalFitter
//   - linear: QR reduction of [1 X y] and ordinary least squares
//   - tripdata: CSV loading, cleaning rules and feature derivation
//   - preprocessing: one-hot design encoding with a fixed schema
//   - core/dataset: design matrices with named columns
//   - core/model: estimator interfaces and fitted state
//   - core/parallel: row-parallel helpers
//   - metrics: MSE, RMSE, MAE, R²
//   - report: YAML summary, CV curve PNG and XLSX workbook
//   - config: defaults, YAML and TIPSELECT_* environment overrides
//   - pkg/errors, pkg/log: typed errors and structured logging
//
// The tipselect command in cmd/tipselect wires these together.
package taxitip
