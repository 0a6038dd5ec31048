package main

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/taxitip/config"
	"github.com/YuminosukeSato/taxitip/report"
	"github.com/YuminosukeSato/taxitip/tripdata"
)

// writeTrips writes n synthetic yellow-cab trips starting at day. Card
// payments (type 1) tip about 18% of the fare; cash trips record no tip.
func writeTrips(t *testing.T, dir, name string, n int, day time.Time, seed uint64) string {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, 1))
	var b strings.Builder
	b.WriteString("VendorID,tpep_pickup_datetime,tpep_dropoff_datetime,passenger_count,trip_distance,RatecodeID,payment_type,fare_amount,tip_amount\n")
	for i := 0; i < n; i++ {
		pickup := day.Add(time.Duration(rng.IntN(28*24*60)) * time.Minute)
		dist := 0.5 + rng.Float64()*10
		minutes := 3 + dist*3 + rng.Float64()*10
		rate := 1
		if rng.Float64() < 0.25 {
			rate = 2
		}
		payment := 1
		if rng.Float64() < 0.4 {
			payment = 2
		}
		fare := 2.5 + 2.5*dist + 0.3*minutes + rng.Float64()*3
		tip := 0.0
		if payment == 1 {
			tip = math.Max(0, 0.18*fare+rng.NormFloat64()*0.5)
		}
		fmt.Fprintf(&b, "1,%s,%s,%d,%.2f,%d,%d,%.2f,%.2f\n",
			pickup.Format("2006-01-02 15:04:05"),
			pickup.Add(time.Duration(minutes*float64(time.Minute))).Format("2006-01-02 15:04:05"),
			1+rng.IntN(4), dist, rate, payment, fare, tip)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	train := writeTrips(t, dir, "train.csv", 300, time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), 1)
	holdout := writeTrips(t, dir, "holdout.csv", 120, time.Date(2016, 2, 1, 0, 0, 0, 0, time.UTC), 2)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "run", "--train", train, "--holdout", holdout, "--out", outDir, "--folds", "5", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "selected lambda")
	assert.Contains(t, out, "holdout MSPE")
	assert.Contains(t, out, "payment_type=2")

	f, err := os.Open(filepath.Join(outDir, report.SummaryFile))
	require.NoError(t, err)
	defer f.Close()
	sum, err := report.ReadYAML(f)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Folds)
	assert.Len(t, sum.CV, 7)
	assert.Equal(t, 300, sum.Cleaning["train"].RowsOut)
	assert.Greater(t, sum.Holdout.R2, 0.5)
	assert.FileExists(t, filepath.Join(outDir, report.PlotFile))
	assert.FileExists(t, filepath.Join(outDir, report.WorkbookFile))
}

func TestCV(t *testing.T) {
	dir := t.TempDir()
	train := writeTrips(t, dir, "train.csv", 150, time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), 3)

	out, err := execute(t, "cv", "--train", train, "--folds", "3", "--workers", "2", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "lambda")
	assert.Equal(t, 1, strings.Count(out, "*"))
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	train := writeTrips(t, dir, "train.csv", 50, time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), 4)

	out, err := execute(t, "inspect", "--train", train, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "train: 50 rows in, 50 rows out")
	assert.Contains(t, out, "fare_range")
	assert.Contains(t, out, "trip_distance")
}

func TestErrors(t *testing.T) {
	_, err := execute(t, "cv", "--log-level", "error")
	assert.ErrorContains(t, err, "no input file configured")

	_, err = execute(t, "cv", "--train", filepath.Join(t.TempDir(), "missing.csv"), "--log-level", "error")
	assert.Error(t, err)

	_, err = execute(t, "cv", "--kind", "purple")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "tipselect dev\n", out)
}

func TestApplyKind(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, applyKind(&cfg, tripdata.Green))
	green, err := tripdata.ColumnsFor(tripdata.Green)
	require.NoError(t, err)
	assert.Equal(t, green, cfg.Columns)

	// Names set in YAML or the environment survive the kind switch.
	cfg = config.Default()
	cfg.Columns.Tip = "tip_usd"
	require.NoError(t, applyKind(&cfg, tripdata.Green))
	assert.Equal(t, tripdata.Green, cfg.Data.Kind)
	assert.Equal(t, "tip_usd", cfg.Columns.Tip)
	assert.Equal(t, "tpep_pickup_datetime", cfg.Columns.Pickup)

	assert.Error(t, applyKind(&cfg, "purple"))
	assert.Equal(t, tripdata.Green, cfg.Data.Kind)
}

func TestKindFlagKeepsConfiguredColumns(t *testing.T) {
	dir := t.TempDir()
	train := writeTrips(t, dir, "train.csv", 60, time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), 5)
	raw, err := os.ReadFile(train)
	require.NoError(t, err)
	renamed := strings.Replace(string(raw), "tip_amount", "tip_usd", 1)
	require.NoError(t, os.WriteFile(train, []byte(renamed), 0o600))

	cfgPath := filepath.Join(dir, "tipselect.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("columns:\n  tip: tip_usd\n"), 0o600))

	out, err := execute(t, "inspect", "--config", cfgPath, "--kind", "yellow", "--train", train, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "train: 60 rows in, 60 rows out")
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(config.LoggingConfig{Level: "warn", Format: format}, &buf)
			require.NoError(t, err)
			logger.Info("hidden")
			assert.Empty(t, buf.String())
			logger.Warn("fold skipped")
			assert.Contains(t, buf.String(), "fold skipped")
			assert.Contains(t, buf.String(), "tipselect")
		})
	}

	_, err := newLogger(config.LoggingConfig{Level: "loud", Format: "json"}, &bytes.Buffer{})
	assert.Error(t, err)
}
