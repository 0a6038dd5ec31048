// Package tripdata loads taxi trip records, removes implausible trips and
// derives the regression features for tip prediction.
package tripdata

import (
	"strings"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

// Kind selects the column layout of a trip file.
type Kind string

const (
	// Yellow is the yellow cab layout (tpep_ timestamps).
	Yellow Kind = "yellow"
	// Green is the green cab layout (lpep_ timestamps).
	Green Kind = "green"
)

// Columns maps trip fields to CSV header names.
type Columns struct {
	Pickup     string `yaml:"pickup" envconfig:"PICKUP" validate:"required"`
	Dropoff    string `yaml:"dropoff" envconfig:"DROPOFF" validate:"required"`
	Distance   string `yaml:"distance" envconfig:"DISTANCE" validate:"required"`
	Fare       string `yaml:"fare" envconfig:"FARE" validate:"required"`
	Tip        string `yaml:"tip" envconfig:"TIP" validate:"required"`
	Passengers string `yaml:"passengers" envconfig:"PASSENGERS" validate:"required"`
	RateCode   string `yaml:"rate_code" envconfig:"RATE_CODE" validate:"required"`
	Payment    string `yaml:"payment" envconfig:"PAYMENT" validate:"required"`
}

// ColumnsFor returns the TLC header names for kind.
func ColumnsFor(kind Kind) (Columns, error) {
	var prefix string
	switch Kind(strings.ToLower(string(kind))) {
	case Yellow, "":
		prefix = "tpep"
	case Green:
		prefix = "lpep"
	default:
		return Columns{}, errors.NewValidationError("kind", "must be yellow or green", kind)
	}
	return Columns{
		Pickup:     prefix + "_pickup_datetime",
		Dropoff:    prefix + "_dropoff_datetime",
		Distance:   "trip_distance",
		Fare:       "fare_amount",
		Tip:        "tip_amount",
		Passengers: "passenger_count",
		RateCode:   "RatecodeID",
		Payment:    "payment_type",
	}, nil
}

func (c Columns) numeric() []string {
	return []string{c.Distance, c.Fare, c.Tip, c.Passengers, c.RateCode, c.Payment}
}

func (c Columns) all() []string {
	return append([]string{c.Pickup, c.Dropoff}, c.numeric()...)
}
