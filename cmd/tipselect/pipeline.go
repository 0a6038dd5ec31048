package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/YuminosukeSato/taxitip/core/dataset"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
	"github.com/YuminosukeSato/taxitip/pkg/log"
	"github.com/YuminosukeSato/taxitip/preprocessing"
	"github.com/YuminosukeSato/taxitip/report"
	"github.com/YuminosukeSato/taxitip/selection"
	"github.com/YuminosukeSato/taxitip/tripdata"
)

// designs are the encoded inputs of a run. holdout is nil when no holdout
// file is configured.
type designs struct {
	train    *dataset.Dataset
	holdout  *dataset.Dataset
	cleaning map[string]tripdata.Report
}

func (s *session) cleanFile(role, path string) ([]tripdata.Trip, tripdata.Report, error) {
	if path == "" {
		return nil, tripdata.Report{}, errors.NewValidationError(role, "no input file configured", path)
	}
	df, err := tripdata.LoadFile(path, s.cfg.Columns)
	if err != nil {
		return nil, tripdata.Report{}, err
	}
	trips, rep, err := tripdata.Clean(df, s.cfg.Columns, s.cfg.Cleaning, s.logger.With(log.PhaseKey, role))
	if err != nil {
		return nil, rep, err
	}
	if len(trips) == 0 {
		return nil, rep, errors.NewModelError("tipselect."+role, "no trips left after cleaning", errors.ErrEmptyData)
	}
	return trips, rep, nil
}

// loadDesigns cleans the configured files and encodes them with one
// encoder fitted on the training trips.
func (s *session) loadDesigns(withHoldout bool) (*designs, error) {
	out := &designs{cleaning: map[string]tripdata.Report{}}
	trainTrips, rep, err := s.cleanFile("train", s.cfg.Data.Train)
	if err != nil {
		return nil, err
	}
	out.cleaning["train"] = rep

	feats := s.cfg.Features
	enc := preprocessing.NewDesignEncoder(feats.Numeric(), feats.Categorical())
	tbl, y := feats.Table(trainTrips)
	if out.train, err = enc.FitTransform(tbl, y); err != nil {
		return nil, errors.Wrap(err, "encode training trips")
	}

	if withHoldout {
		holdTrips, rep, err := s.cleanFile("holdout", s.cfg.Data.Holdout)
		if err != nil {
			return nil, err
		}
		out.cleaning["holdout"] = rep
		tbl, y := feats.Table(holdTrips)
		if out.holdout, err = enc.Transform(tbl, y); err != nil {
			return nil, errors.Wrap(err, "encode holdout trips")
		}
	}
	return out, nil
}

func (s *session) selectionOptions() []selection.Option {
	return append(s.cfg.SelectionOptions(), selection.WithLogger(s.logger))
}

func (s *session) maxSize(d *dataset.Dataset) int {
	_, p := d.Dims()
	if s.cfg.Model.MaxSize == 0 || s.cfg.Model.MaxSize > p {
		return p
	}
	return s.cfg.Model.MaxSize
}

func (s *session) run(ctx context.Context) error {
	d, err := s.loadDesigns(true)
	if err != nil {
		return err
	}
	params := selection.Params{
		Folds:   s.cfg.Model.Folds,
		Lambdas: s.cfg.Model.Lambdas,
		MaxSize: s.maxSize(d.train),
	}
	outcome, err := selection.Run(ctx, d.train, d.holdout, params, s.selectionOptions()...)
	if err != nil {
		return err
	}

	sum := report.NewSummary(s.runID, outcome)
	sum.Cleaning = d.cleaning
	printCV(s.out, sum.CV)
	printModel(s.out, sum)

	paths, err := report.WriteAll(s.cfg.Report, sum, s.logger)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(s.out, "wrote %s\n", p)
	}
	return nil
}

func (s *session) crossValidate(ctx context.Context) error {
	d, err := s.loadDesigns(false)
	if err != nil {
		return err
	}
	cv, err := selection.NewCrossValidator(s.selectionOptions()...).
		CrossValidateDataset(ctx, d.train, s.cfg.Model.Folds, s.cfg.Model.Lambdas, s.maxSize(d.train))
	if err != nil {
		return err
	}
	printCV(s.out, report.CVTable(cv))
	if len(cv.SkippedFolds) > 0 {
		fmt.Fprintf(s.out, "skipped folds: %v\n", cv.SkippedFolds)
	}
	return nil
}

func (s *session) inspect() error {
	d, err := s.loadDesigns(s.cfg.Data.Holdout != "")
	if err != nil {
		return err
	}
	for _, role := range []string{"train", "holdout"} {
		rep, ok := d.cleaning[role]
		if !ok {
			continue
		}
		fmt.Fprintf(s.out, "%s: %d rows in, %d rows out, mean tip %.2f (%.1f%%)\n",
			role, rep.RowsIn, rep.RowsOut, rep.MeanTip, rep.MeanTipPercent)
		tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "rule\trows_in\tdropped\tcapped")
		for _, r := range rep.Rules {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", r.Rule, r.RowsIn, r.Dropped, r.Capped)
		}
		tw.Flush()
	}

	fmt.Fprintf(s.out, "design columns (schema %s)\n", d.train.Schema.FingerprintHex())
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "column\tmean\tstd\tmin\tmax")
	for _, c := range d.train.Describe() {
		fmt.Fprintf(tw, "%s\t%.4g\t%.4g\t%.4g\t%.4g\n", c.Name, c.Mean, c.Std, c.Min, c.Max)
	}
	return tw.Flush()
}

func printCV(w io.Writer, rows []report.CVRow) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "lambda\tcv_mse\t")
	for _, r := range rows {
		mark := ""
		if r.Best {
			mark = "*"
		}
		fmt.Fprintf(tw, "%g\t%.6g\t%s\n", r.Lambda, r.MSE, mark)
	}
	tw.Flush()
}

func printModel(w io.Writer, sum report.Summary) {
	fmt.Fprintf(w, "selected lambda %g, subset size %d\n", sum.BestLambda, sum.SubsetSize)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range sum.Coefficients {
		fmt.Fprintf(tw, "%s\t%.6g\n", c.Name, c.Value)
	}
	tw.Flush()
	fmt.Fprintf(w, "holdout MSPE %.6g (RMSPE %.4g) over %d trips\n", sum.MSPE, sum.RMSPE, sum.Holdout.N)
}
