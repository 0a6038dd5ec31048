// Package report writes the artifacts of a selection run: a YAML summary, a
// cross-validation curve and an XLSX workbook.
package report

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/taxitip/metrics"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
	"github.com/YuminosukeSato/taxitip/selection"
	"github.com/YuminosukeSato/taxitip/tripdata"
)

// CVRow is one entry of the cross-validation table.
type CVRow struct {
	Lambda float64 `yaml:"lambda"`
	MSE    float64 `yaml:"mse"`
	Best   bool    `yaml:"best,omitempty"`
}

// Coefficient is a named model coefficient.
type Coefficient struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

// Summary is the serializable record of one run.
type Summary struct {
	RunID             string    `yaml:"run_id"`
	CreatedAt         time.Time `yaml:"created_at"`
	SchemaFingerprint string    `yaml:"schema_fingerprint"`
	Columns           []string  `yaml:"columns"`

	Folds         int     `yaml:"folds"`
	SkippedFolds  []int   `yaml:"skipped_folds,omitempty"`
	EvaluatedRows int     `yaml:"evaluated_rows"`
	CV            []CVRow `yaml:"cv"`
	BestLambda    float64 `yaml:"best_lambda"`
	BestMSE       float64 `yaml:"best_mse"`

	SubsetSize int `yaml:"subset_size"`
	// Coefficients lists the intercept first, then the selected columns in
	// design order.
	Coefficients []Coefficient `yaml:"coefficients"`
	TrainRSS     float64       `yaml:"train_rss"`

	MSPE    float64        `yaml:"mspe"`
	RMSPE   float64        `yaml:"rmspe"`
	Holdout metrics.Report `yaml:"holdout"`

	// Cleaning is keyed by input role ("train", "holdout").
	Cleaning map[string]tripdata.Report `yaml:"cleaning,omitempty"`
}

// NewSummary collects the outcome of selection.Run.
func NewSummary(runID string, out *selection.Outcome) Summary {
	cv, m := out.CV, out.Model
	s := Summary{
		RunID:             runID,
		CreatedAt:         time.Now().UTC().Truncate(time.Second),
		SchemaFingerprint: out.Fingerprint,
		Columns:           append([]string(nil), m.Schema.Columns...),
		Folds:             cv.Assignment.K,
		SkippedFolds:      cv.SkippedFolds,
		EvaluatedRows:     cv.EvaluatedRows,
		CV:                CVTable(cv),
		BestLambda:        cv.BestLambda,
		BestMSE:           cv.BestMSE(),
		SubsetSize:        m.Size,
		Coefficients:      Coefficients(m),
		TrainRSS:          m.RSS,
		MSPE:              out.MSPE,
		RMSPE:             selection.RMSPE(out.MSPE),
		Holdout:           out.Holdout,
	}
	return s
}

// CVTable lists the lambda grid in input order with the winner flagged.
func CVTable(cv *selection.CVResult) []CVRow {
	rows := make([]CVRow, len(cv.Lambdas))
	for j, l := range cv.Lambdas {
		rows[j] = CVRow{Lambda: l, MSE: cv.MSE[j], Best: j == cv.BestIndex}
	}
	return rows
}

// Coefficients lists the intercept and the selected coefficients.
func Coefficients(m *selection.FittedModel) []Coefficient {
	out := []Coefficient{{Name: selection.InterceptName, Value: m.Intercept}}
	for t, name := range m.SelectedNames() {
		out = append(out, Coefficient{Name: name, Value: m.Coefficients[t]})
	}
	return out
}

// WriteYAML encodes s to w.
func WriteYAML(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return errors.Wrap(err, "encode summary")
	}
	return enc.Close()
}

// ReadYAML decodes a summary written by WriteYAML.
func ReadYAML(r io.Reader) (Summary, error) {
	var s Summary
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return Summary{}, errors.Wrap(err, "decode summary")
	}
	return s, nil
}
