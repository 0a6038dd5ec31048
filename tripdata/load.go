package tripdata

import (
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

// Load reads a trip CSV with a header row. Only the columns named in cols
// are kept; numeric fields are parsed as floats and unparsable values
// become NaN, which the cleaning rules later drop.
func Load(r io.Reader, cols Columns) (dataframe.DataFrame, error) {
	types := make(map[string]series.Type, len(cols.all()))
	for _, name := range cols.numeric() {
		types[name] = series.Float
	}
	types[cols.Pickup] = series.String
	types[cols.Dropoff] = series.String

	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(types),
		dataframe.NaNValues([]string{"", "NA", "NaN", "NULL", "null"}),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, errors.Wrap(df.Err, "tripdata: read csv")
	}

	present := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		present[name] = true
	}
	var missing []string
	for _, name := range cols.all() {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return dataframe.DataFrame{}, errors.NewSchemaMismatchError("tripdata.Load", len(cols.all()), len(cols.all())-len(missing), missing, nil)
	}

	df = df.Select(cols.all())
	if df.Err != nil {
		return dataframe.DataFrame{}, errors.Wrap(df.Err, "tripdata: select columns")
	}
	return df, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string, cols Columns) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(err, "tripdata: open %s", path)
	}
	defer f.Close()
	return Load(f, cols)
}
