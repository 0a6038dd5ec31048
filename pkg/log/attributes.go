// Package log defines standard attribute keys for model selection runs.
//
// Keys follow a dotted hierarchy ("data.samples", "selection.lambda") so that
// log lines from the search, the fold workers and the final fit can be
// filtered and joined by the same field names.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator emitting the record.
	// Examples: "LinearRegression", "SubsetSearch", "CrossValidator"
	ModelNameKey = "model.name"

	// RunIDKey identifies one end-to-end pipeline run.
	RunIDKey = "run.id"

	// OperationKey is the operation being performed.
	// Standard values: "fit", "predict", "search", "select", "cross_validate", "score"
	OperationKey = "ml.operation"

	// ComponentKey is the package performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey is the lifecycle phase: training, validation, testing, preprocessing.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	// RowsDroppedKey counts rows removed by a cleaning rule.
	RowsDroppedKey = "data.rows_dropped"
	// RowsCappedKey counts values a cleaning rule clamped to its ceiling.
	RowsCappedKey = "data.rows_capped"
	// RuleKey names a cleaning rule.
	RuleKey = "data.rule"
	// SchemaFingerprintKey is the xxhash fingerprint of a design schema.
	SchemaFingerprintKey = "data.schema_fingerprint"
)

// Subset selection and cross-validation.
const (
	LambdaKey     = "selection.lambda"
	LambdasKey    = "selection.lambdas"
	SubsetSizeKey = "selection.subset_size"
	MaxSizeKey    = "selection.max_size"
	RSSKey        = "selection.rss"
	ScoreKey      = "selection.penalized_score"
	ColumnsKey    = "selection.columns"
	FoldKey       = "cv.fold"
	FoldsKey      = "cv.folds"
	FoldSizeKey   = "cv.fold_size"
	WorkersKey    = "cv.workers"
	MSEKey        = "metrics.mse"
	MSPEKey       = "metrics.mspe"
	R2ScoreKey    = "metrics.r2_score"
)

// Performance.
const (
	DurationMsKey = "perf.duration_ms"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
	SuggestionKey = "error.suggestion"
)

// Configuration.
const (
	RandomSeedKey = "config.random_seed"
	ConfigPathKey = "config.path"
)

// Standard attribute values.
const (
	OperationFit           = "fit"
	OperationPredict       = "predict"
	OperationSearch        = "search"
	OperationSelect        = "select"
	OperationCrossValidate = "cross_validate"
	OperationScore         = "score"
	OperationTransform     = "transform"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseTesting       = "testing"
	PhasePreprocessing = "preprocessing"

	ErrorRankDeficient    = "RANK_DEFICIENT"
	ErrorDegenerateFit    = "DEGENERATE_FIT"
	ErrorSchemaMismatch   = "SCHEMA_MISMATCH"
	ErrorInvalidFoldCount = "INVALID_FOLD_COUNT"
)
