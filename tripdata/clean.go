package tripdata

import (
	"math"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
	"github.com/YuminosukeSato/taxitip/pkg/log"
)

// DefaultTimeLayouts are tried in order when parsing pickup and dropoff
// timestamps.
var DefaultTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006 03:04:05 PM",
}

// durationColumn is the derived column holding trip duration in minutes.
const durationColumn = "__duration_min"

// Rules bound the plausible range of every trip field. Rows outside any
// bound are dropped, except tips above MaxTip, which are lowered to MaxTip.
type Rules struct {
	MinFare            float64 `yaml:"min_fare" envconfig:"MIN_FARE" validate:"gte=0"`
	MaxFare            float64 `yaml:"max_fare" envconfig:"MAX_FARE" validate:"gtfield=MinFare"`
	MaxTip             float64 `yaml:"max_tip" envconfig:"MAX_TIP" validate:"gt=0"`
	MaxDistance        float64 `yaml:"max_distance" envconfig:"MAX_DISTANCE" validate:"gt=0"`
	MinPassengers      int     `yaml:"min_passengers" envconfig:"MIN_PASSENGERS" validate:"gte=0"`
	MaxPassengers      int     `yaml:"max_passengers" envconfig:"MAX_PASSENGERS" validate:"gtefield=MinPassengers"`
	MinDurationMinutes float64 `yaml:"min_duration_minutes" envconfig:"MIN_DURATION_MINUTES" validate:"gte=0"`
	MaxDurationMinutes float64 `yaml:"max_duration_minutes" envconfig:"MAX_DURATION_MINUTES" validate:"gtfield=MinDurationMinutes"`
	// TipPercentCap caps Trip.TipPercent. It never removes rows.
	TipPercentCap float64  `yaml:"tip_percent_cap" envconfig:"TIP_PERCENT_CAP" validate:"gt=0"`
	TimeLayouts   []string `yaml:"time_layouts" envconfig:"TIME_LAYOUTS" validate:"omitempty,dive,required"`
}

// DefaultRules returns the rules used when no configuration overrides them.
func DefaultRules() Rules {
	return Rules{
		MinFare:            2.5,
		MaxFare:            250,
		MaxTip:             100,
		MaxDistance:        100,
		MinPassengers:      1,
		MaxPassengers:      6,
		MinDurationMinutes: 1,
		MaxDurationMinutes: 180,
		TipPercentCap:      100,
		TimeLayouts:        DefaultTimeLayouts,
	}
}

// Trip is one cleaned observation.
type Trip struct {
	Pickup          time.Time
	Distance        float64
	Fare            float64
	Tip             float64
	DurationMinutes float64
	Passengers      int
	RateCode        string
	Payment         string
	// TipPercent is 100·Tip/Fare capped at Rules.TipPercentCap. It is derived
	// from the target and only used for reporting.
	TipPercent float64
}

// RuleResult counts the rows one cleaning rule removed or capped.
type RuleResult struct {
	Rule    string `yaml:"rule"`
	RowsIn  int    `yaml:"rows_in"`
	Dropped int    `yaml:"dropped"`
	Capped  int    `yaml:"capped,omitempty"`
}

// Report summarizes a cleaning pass.
type Report struct {
	RowsIn         int          `yaml:"rows_in"`
	RowsOut        int          `yaml:"rows_out"`
	Rules          []RuleResult `yaml:"rules"`
	MeanTip        float64      `yaml:"mean_tip"`
	MeanTipPercent float64      `yaml:"mean_tip_percent"`
}

type rule struct {
	name string
	// filters are applied one after another, so a row must pass all of them.
	filters []dataframe.F
	// capCol, when set, is clamped to at most capAt instead of filtered.
	capCol string
	capAt  float64
}

func between(col string, lo, hi float64) []dataframe.F {
	return []dataframe.F{
		{Colname: col, Comparator: series.GreaterEq, Comparando: lo},
		{Colname: col, Comparator: series.LessEq, Comparando: hi},
	}
}

func wholeNumber(col string) dataframe.F {
	return dataframe.F{Colname: col, Comparator: series.CompFunc, Comparando: func(el series.Element) bool {
		if el.IsNA() {
			return false
		}
		v := el.Float()
		return !math.IsNaN(v) && v >= 0 && v == math.Trunc(v)
	}}
}

func (r Rules) rules(cols Columns) []rule {
	return []rule{
		{name: "timestamps", filters: []dataframe.F{{Colname: durationColumn, Comparator: series.CompFunc, Comparando: func(el series.Element) bool {
			return !el.IsNA() && !math.IsNaN(el.Float())
		}}}},
		{name: "fare_range", filters: between(cols.Fare, r.MinFare, r.MaxFare)},
		{name: "tip_nonnegative", filters: []dataframe.F{{Colname: cols.Tip, Comparator: series.GreaterEq, Comparando: 0.0}}},
		{name: "tip_cap", capCol: cols.Tip, capAt: r.MaxTip},
		{name: "distance_range", filters: []dataframe.F{
			{Colname: cols.Distance, Comparator: series.Greater, Comparando: 0.0},
			{Colname: cols.Distance, Comparator: series.LessEq, Comparando: r.MaxDistance},
		}},
		{name: "passenger_range", filters: between(cols.Passengers, float64(r.MinPassengers), float64(r.MaxPassengers))},
		{name: "duration_range", filters: between(durationColumn, r.MinDurationMinutes, r.MaxDurationMinutes)},
		{name: "categories", filters: []dataframe.F{wholeNumber(cols.RateCode), wholeNumber(cols.Payment)}},
	}
}

// Clean applies rules to a frame returned by Load and converts the
// surviving rows to trips. Every rule is applied in a fixed order and its
// drop count recorded in the report.
func Clean(df dataframe.DataFrame, cols Columns, rules Rules, logger log.Logger) ([]Trip, Report, error) {
	if logger == nil {
		logger = log.GetLogger()
	}
	layouts := rules.TimeLayouts
	if len(layouts) == 0 {
		layouts = DefaultTimeLayouts
	}
	report := Report{RowsIn: df.Nrow()}

	durations := make([]float64, df.Nrow())
	pickups := df.Col(cols.Pickup).Records()
	dropoffs := df.Col(cols.Dropoff).Records()
	for i := range durations {
		durations[i] = math.NaN()
		start, err1 := parseTime(pickups[i], layouts)
		end, err2 := parseTime(dropoffs[i], layouts)
		if err1 == nil && err2 == nil {
			durations[i] = end.Sub(start).Minutes()
		}
	}
	df = df.Mutate(series.New(durations, series.Float, durationColumn))
	if df.Err != nil {
		return nil, report, errors.Wrap(df.Err, "tripdata: derive duration")
	}

	for _, r := range rules.rules(cols) {
		in := df.Nrow()
		for _, f := range r.filters {
			if df.Nrow() == 0 {
				break
			}
			df = df.Filter(f)
			if df.Err != nil {
				return nil, report, errors.Wrapf(df.Err, "tripdata: rule %s", r.name)
			}
		}
		res := RuleResult{Rule: r.name, RowsIn: in, Dropped: in - df.Nrow()}
		if r.capCol != "" && df.Nrow() > 0 {
			var err error
			if df, res.Capped, err = capColumn(df, r.capCol, r.capAt); err != nil {
				return nil, report, errors.Wrapf(err, "tripdata: rule %s", r.name)
			}
		}
		report.Rules = append(report.Rules, res)
		logger.Debug("cleaning rule applied",
			log.RuleKey, r.name,
			log.SamplesKey, in,
			log.RowsDroppedKey, res.Dropped,
			log.RowsCappedKey, res.Capped,
		)
	}

	trips, err := toTrips(df, cols, rules, layouts)
	if err != nil {
		return nil, report, err
	}
	report.RowsOut = len(trips)
	if len(trips) > 0 {
		tips := make([]float64, len(trips))
		pct := make([]float64, len(trips))
		for i, t := range trips {
			tips[i] = t.Tip
			pct[i] = t.TipPercent
		}
		report.MeanTip = stat.Mean(tips, nil)
		report.MeanTipPercent = stat.Mean(pct, nil)
	}
	logger.Info("trip data cleaned",
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, report.RowsOut,
		log.RowsDroppedKey, report.RowsIn-report.RowsOut,
	)
	return trips, report, nil
}

// capColumn lowers every value of col above ceiling to ceiling and returns
// how many values changed.
func capColumn(df dataframe.DataFrame, col string, ceiling float64) (dataframe.DataFrame, int, error) {
	vals := df.Col(col).Float()
	capped := 0
	for i, v := range vals {
		if v > ceiling {
			vals[i] = ceiling
			capped++
		}
	}
	if capped == 0 {
		return df, 0, nil
	}
	df = df.Mutate(series.New(vals, series.Float, col))
	return df, capped, df.Err
}

func toTrips(df dataframe.DataFrame, cols Columns, rules Rules, layouts []string) ([]Trip, error) {
	n := df.Nrow()
	if n == 0 {
		return nil, nil
	}
	pickups := df.Col(cols.Pickup).Records()
	distance := df.Col(cols.Distance).Float()
	fare := df.Col(cols.Fare).Float()
	tip := df.Col(cols.Tip).Float()
	passengers := df.Col(cols.Passengers).Float()
	rate := df.Col(cols.RateCode).Float()
	payment := df.Col(cols.Payment).Float()
	duration := df.Col(durationColumn).Float()

	trips := make([]Trip, n)
	for i := range trips {
		pickup, err := parseTime(pickups[i], layouts)
		if err != nil {
			return nil, errors.Wrapf(err, "tripdata: row %d", i)
		}
		pct := 0.0
		if fare[i] > 0 {
			pct = math.Min(100*tip[i]/fare[i], rules.TipPercentCap)
		}
		trips[i] = Trip{
			Pickup:          pickup,
			Distance:        distance[i],
			Fare:            fare[i],
			Tip:             tip[i],
			DurationMinutes: duration[i],
			Passengers:      int(passengers[i]),
			RateCode:        strconv.Itoa(int(rate[i])),
			Payment:         strconv.Itoa(int(payment[i])),
			TipPercent:      pct,
		}
	}
	return trips, nil
}

func parseTime(s string, layouts []string) (time.Time, error) {
	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, errors.Wrapf(firstErr, "parse timestamp %q", s)
}
