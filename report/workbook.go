package report

import (
	"math"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

// Sheet names of the run workbook.
const (
	SheetSummary      = "Summary"
	SheetCV           = "CV"
	SheetCoefficients = "Coefficients"
	SheetCleaning     = "Cleaning"
)

// Workbook lays s out over four sheets. The caller owns the returned file.
func Workbook(s Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetCV, SheetCoefficients, SheetCleaning} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, errors.Wrapf(err, "create sheet %s", name)
		}
	}

	summary := [][]interface{}{
		{"run_id", s.RunID},
		{"created_at", s.CreatedAt.Format("2006-01-02 15:04:05")},
		{"schema_fingerprint", s.SchemaFingerprint},
		{"folds", s.Folds},
		{"evaluated_rows", s.EvaluatedRows},
		{"best_lambda", s.BestLambda},
		{"best_cv_mse", cell(s.BestMSE)},
		{"subset_size", s.SubsetSize},
		{"train_rss", cell(s.TrainRSS)},
		{"holdout_rows", s.Holdout.N},
		{"mspe", cell(s.MSPE)},
		{"rmspe", cell(s.RMSPE)},
		{"holdout_mae", cell(s.Holdout.MAE)},
		{"holdout_r2", cell(s.Holdout.R2)},
	}
	if err := writeRows(f, SheetSummary, []interface{}{"field", "value"}, summary); err != nil {
		return nil, err
	}

	cv := make([][]interface{}, len(s.CV))
	for i, r := range s.CV {
		cv[i] = []interface{}{r.Lambda, cell(r.MSE), r.Best}
	}
	if err := writeRows(f, SheetCV, []interface{}{"lambda", "cv_mse", "selected"}, cv); err != nil {
		return nil, err
	}

	coefs := make([][]interface{}, len(s.Coefficients))
	for i, c := range s.Coefficients {
		coefs[i] = []interface{}{c.Name, cell(c.Value)}
	}
	if err := writeRows(f, SheetCoefficients, []interface{}{"column", "coefficient"}, coefs); err != nil {
		return nil, err
	}

	var cleaning [][]interface{}
	roles := make([]string, 0, len(s.Cleaning))
	for role := range s.Cleaning {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		rep := s.Cleaning[role]
		for _, r := range rep.Rules {
			cleaning = append(cleaning, []interface{}{role, r.Rule, r.RowsIn, r.Dropped, r.Capped})
		}
		cleaning = append(cleaning, []interface{}{role, "total", rep.RowsIn, rep.RowsIn - rep.RowsOut})
	}
	if err := writeRows(f, SheetCleaning, []interface{}{"input", "rule", "rows_in", "dropped", "capped"}, cleaning); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteWorkbook writes the workbook of s to path.
func WriteWorkbook(path string, s Summary) error {
	f, err := Workbook(s)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save workbook %s", path)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrapf(err, "write %s header", sheet)
	}
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &row); err != nil {
			return errors.Wrapf(err, "write %s row %d", sheet, i+2)
		}
	}
	return nil
}

// cell keeps non-finite values readable; XLSX has no NaN.
func cell(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	return v
}
