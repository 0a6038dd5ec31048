package preprocessing

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

func trainTable() *Table {
	t := NewTable(5)
	t.Numeric["fare_amount"] = []float64{10, 12.5, 8, 30, 15}
	t.Categorical["payment_type"] = []string{"1", "2", "1", "4", "2"}
	t.Categorical["time_of_day"] = []string{"night", "morning", "evening", "morning", "night"}
	return t
}

type warningSink struct {
	mu       sync.Mutex
	warnings []error
}

func captureWarnings(t *testing.T) *warningSink {
	t.Helper()
	sink := &warningSink{}
	errors.SetWarningHandler(func(w error) {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		sink.warnings = append(sink.warnings, w)
	})
	errors.SetZerologWarnFunc(nil)
	t.Cleanup(func() { errors.SetWarningHandler(nil) })
	return sink
}

func TestOneHotEncoder_Levels(t *testing.T) {
	enc := NewOneHotEncoder("payment_type", "time_of_day")
	require.NoError(t, enc.Fit(trainTable()))

	assert.Equal(t, []string{"1", "2", "4"}, enc.Levels["payment_type"])
	ref, ok := enc.Reference("time_of_day")
	assert.True(t, ok)
	assert.Equal(t, "evening", ref)
	assert.Equal(t, []string{
		"payment_type=2", "payment_type=4",
		"time_of_day=morning", "time_of_day=night",
	}, enc.ColumnNames())
}

func TestDesignEncoder_FitTransform(t *testing.T) {
	enc := NewDesignEncoder([]string{"fare_amount"}, []string{"payment_type", "time_of_day"})
	d, err := enc.FitTransform(trainTable(), []float64{1, 2, 0, 5, 3})
	require.NoError(t, err)

	n, p := d.Dims()
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, p)
	assert.Equal(t, []string{
		"fare_amount",
		"payment_type=2", "payment_type=4",
		"time_of_day=morning", "time_of_day=night",
	}, d.Schema.Columns)

	// Row 1: fare 12.5, payment 2, morning.
	assert.Equal(t, []float64{12.5, 1, 0, 1, 0}, d.X.RawRowView(1))
	// Row 2: reference levels everywhere.
	assert.Equal(t, []float64{8, 0, 0, 0, 0}, d.X.RawRowView(2))
	assert.Equal(t, 5.0, d.Y.AtVec(3))
	assert.Equal(t, enc.Schema().Fingerprint(), d.Schema.Fingerprint())
}

func TestDesignEncoder_UnseenLevels(t *testing.T) {
	sink := captureWarnings(t)
	enc := NewDesignEncoder([]string{"fare_amount"}, []string{"payment_type", "time_of_day"})
	require.NoError(t, enc.Fit(trainTable()))

	holdout := NewTable(3)
	holdout.Numeric["fare_amount"] = []float64{9, 11, 13}
	holdout.Categorical["payment_type"] = []string{"3", "2", "3"}
	holdout.Categorical["time_of_day"] = []string{"morning", "night", "evening"}

	d, err := enc.Transform(holdout, []float64{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, enc.Schema(), d.Schema)
	assert.Equal(t, []float64{9, 0, 0, 1, 0}, d.X.RawRowView(0))
	assert.Equal(t, []float64{11, 1, 0, 0, 1}, d.X.RawRowView(1))

	require.Len(t, sink.warnings, 1)
	var w *errors.UnseenLevelWarning
	require.True(t, errors.As(sink.warnings[0], &w))
	assert.Equal(t, "payment_type", w.Feature)
	assert.Equal(t, "3", w.Level)
	assert.Equal(t, 2, w.Rows)
}

func TestDesignEncoder_Errors(t *testing.T) {
	enc := NewDesignEncoder([]string{"fare_amount", "trip_distance"}, nil)

	var ve *errors.ValidationError
	assert.True(t, errors.As(enc.Fit(trainTable()), &ve))

	_, err := enc.Transform(trainTable(), make([]float64, 5))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	short := trainTable()
	short.Numeric["fare_amount"] = []float64{1, 2}
	var de *errors.DimensionError
	assert.True(t, errors.As(NewDesignEncoder([]string{"fare_amount"}, nil).Fit(short), &de))

	ok := NewDesignEncoder([]string{"fare_amount"}, nil)
	require.NoError(t, ok.Fit(trainTable()))
	_, err = ok.Transform(trainTable(), []float64{1})
	assert.True(t, errors.As(err, &de))

	none := NewDesignEncoder(nil, nil)
	var valErr *errors.ValueError
	assert.True(t, errors.As(none.Fit(trainTable()), &valErr))
}
