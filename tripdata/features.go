package tripdata

import (
	"time"

	"github.com/YuminosukeSato/taxitip/preprocessing"
)

// Feature names as they appear in the design schema.
const (
	FeatureDistance   = "trip_distance"
	FeatureFare       = "fare_amount"
	FeatureDuration   = "duration_min"
	FeaturePassengers = "passenger_count"
	FeatureHour       = "hour"
	FeatureRateCode   = "rate_code"
	FeatureDayOfWeek  = "day_of_week"
	FeaturePayment    = "payment_type"
	FeatureTimeOfDay  = "time_of_day"
)

// Features controls how trips become predictor columns.
type Features struct {
	// HourAsCategory encodes the pickup hour as 23 indicator columns instead
	// of one numeric column. The time-of-day bucket is then left out, since
	// its indicators are sums of hour indicators.
	HourAsCategory bool `yaml:"hour_as_category" envconfig:"HOUR_AS_CATEGORY"`
}

// Numeric lists the numeric predictors in design order.
func (f Features) Numeric() []string {
	names := []string{FeatureDistance, FeatureFare, FeatureDuration, FeaturePassengers}
	if !f.HourAsCategory {
		names = append(names, FeatureHour)
	}
	return names
}

// Categorical lists the categorical predictors in design order.
func (f Features) Categorical() []string {
	names := []string{FeatureRateCode, FeatureDayOfWeek, FeaturePayment}
	if f.HourAsCategory {
		return append(names, FeatureHour)
	}
	return append(names, FeatureTimeOfDay)
}

// TimeOfDay buckets an hour of day.
func TimeOfDay(hour int) string {
	switch {
	case hour < 6:
		return "night"
	case hour < 12:
		return "morning"
	case hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// Table converts trips to a feature table and the tip amount target.
func (f Features) Table(trips []Trip) (*preprocessing.Table, []float64) {
	n := len(trips)
	t := preprocessing.NewTable(n)
	y := make([]float64, n)
	num := map[string][]float64{
		FeatureDistance:   make([]float64, n),
		FeatureFare:       make([]float64, n),
		FeatureDuration:   make([]float64, n),
		FeaturePassengers: make([]float64, n),
	}
	cat := map[string][]string{
		FeatureRateCode:  make([]string, n),
		FeatureDayOfWeek: make([]string, n),
		FeaturePayment:   make([]string, n),
		FeatureTimeOfDay: make([]string, n),
	}
	hours := make([]float64, n)
	hourLevels := make([]string, n)

	for i, trip := range trips {
		y[i] = trip.Tip
		num[FeatureDistance][i] = trip.Distance
		num[FeatureFare][i] = trip.Fare
		num[FeatureDuration][i] = trip.DurationMinutes
		num[FeaturePassengers][i] = float64(trip.Passengers)
		cat[FeatureRateCode][i] = trip.RateCode
		cat[FeatureDayOfWeek][i] = trip.Pickup.Weekday().String()
		cat[FeaturePayment][i] = trip.Payment
		h := trip.Pickup.Hour()
		cat[FeatureTimeOfDay][i] = TimeOfDay(h)
		hours[i] = float64(h)
		hourLevels[i] = hourLevel(h)
	}
	if f.HourAsCategory {
		cat[FeatureHour] = hourLevels
	} else {
		num[FeatureHour] = hours
	}
	t.Numeric = num
	t.Categorical = cat
	return t, y
}

// hourLevel zero-pads so that levels sort in clock order.
func hourLevel(h int) string {
	return time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format("15")
}
