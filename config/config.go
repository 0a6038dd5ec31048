// Package config loads tipselect run configuration. Values come from code
// defaults, then an optional YAML file, then TIPSELECT_* environment
// variables, and are validated once all sources are applied.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/taxitip/linear"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
	"github.com/YuminosukeSato/taxitip/selection"
	"github.com/YuminosukeSato/taxitip/tripdata"
)

// EnvPrefix prefixes every environment override, e.g. TIPSELECT_MODEL_FOLDS.
const EnvPrefix = "TIPSELECT"

// Config is the complete run configuration.
type Config struct {
	Data     DataConfig        `yaml:"data" envconfig:"DATA"`
	Columns  tripdata.Columns  `yaml:"columns" envconfig:"COLUMNS"`
	Cleaning tripdata.Rules    `yaml:"cleaning" envconfig:"CLEANING"`
	Features tripdata.Features `yaml:"features" envconfig:"FEATURES"`
	Model    ModelConfig       `yaml:"model" envconfig:"MODEL"`
	Logging  LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Report   ReportConfig      `yaml:"report" envconfig:"REPORT"`
}

// DataConfig names the input files.
type DataConfig struct {
	Kind    tripdata.Kind `yaml:"kind" envconfig:"KIND" validate:"oneof=yellow green"`
	Train   string        `yaml:"train" envconfig:"TRAIN"`
	Holdout string        `yaml:"holdout" envconfig:"HOLDOUT"`
}

// ModelConfig holds the selection parameters.
type ModelConfig struct {
	Folds   int       `yaml:"folds" envconfig:"FOLDS" validate:"gte=2"`
	Lambdas []float64 `yaml:"lambdas" envconfig:"LAMBDAS" validate:"min=1,dive,gte=0"`
	// MaxSize caps the subset size; 0 searches down from all columns.
	MaxSize            int     `yaml:"max_size" envconfig:"MAX_SIZE" validate:"gte=0"`
	Seed               uint64  `yaml:"seed" envconfig:"SEED"`
	Workers            int     `yaml:"workers" envconfig:"WORKERS" validate:"gte=1"`
	SkipFailedFolds    bool    `yaml:"skip_failed_folds" envconfig:"SKIP_FAILED_FOLDS"`
	DropZeroVariance   bool    `yaml:"drop_zero_variance" envconfig:"DROP_ZERO_VARIANCE"`
	ConditionTolerance float64 `yaml:"condition_tolerance" envconfig:"CONDITION_TOLERANCE" validate:"gt=1"`
	RSSFloor           float64 `yaml:"rss_floor" envconfig:"RSS_FLOOR" validate:"gt=0,lt=1"`
}

// LoggingConfig selects the log backend.
type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	// Format is json or console for zerolog, or slog for the slog JSON handler.
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json console slog"`
}

// ReportConfig controls the files written after a run.
type ReportConfig struct {
	Dir      string `yaml:"dir" envconfig:"DIR"`
	Plot     bool   `yaml:"plot" envconfig:"PLOT"`
	Workbook bool   `yaml:"workbook" envconfig:"WORKBOOK"`
	Summary  bool   `yaml:"summary" envconfig:"SUMMARY"`
}

// DefaultLambdas is the default penalty grid.
var DefaultLambdas = []float64{0.1, 0.5, 1, 2, 5, 10, 20}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	cols, _ := tripdata.ColumnsFor(tripdata.Yellow)
	return Config{
		Data:     DataConfig{Kind: tripdata.Yellow},
		Columns:  cols,
		Cleaning: tripdata.DefaultRules(),
		Model: ModelConfig{
			Folds:              10,
			Lambdas:            append([]float64(nil), DefaultLambdas...),
			Seed:               selection.DefaultSeed,
			Workers:            1,
			DropZeroVariance:   true,
			ConditionTolerance: linear.DefaultConditionTolerance,
			RSSFloor:           selection.DefaultRSSFloor,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Report:  ReportConfig{Dir: "out", Plot: true, Workbook: true, Summary: true},
	}
}

// Load builds a configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := cfg.decodeYAML(data); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "load config from env")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// decodeYAML overlays data on c. A kind change without explicit columns
// switches to that kind's header names.
func (c *Config) decodeYAML(data []byte) error {
	kind := c.Data.Kind
	cols := c.Columns
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if c.Data.Kind != kind && c.Columns == cols {
		next, err := tripdata.ColumnsFor(c.Data.Kind)
		if err != nil {
			return err
		}
		c.Columns = next
	}
	return nil
}

// Validate checks every field against its validate tag.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewValidationError(fe.Namespace(), "failed "+fe.Tag()+" check", fe.Value())
		}
		return errors.Wrap(err, "validate config")
	}
	return nil
}

// SelectionOptions converts the model section to selection options.
func (c *Config) SelectionOptions() []selection.Option {
	return []selection.Option{
		selection.WithSeed(c.Model.Seed),
		selection.WithWorkers(c.Model.Workers),
		selection.WithSkipFailedFolds(c.Model.SkipFailedFolds),
		selection.WithZeroVarianceDrop(c.Model.DropZeroVariance),
		selection.WithConditionTolerance(c.Model.ConditionTolerance),
		selection.WithRSSFloor(c.Model.RSSFloor),
	}
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}
