// Package log defines standard attribute keys for model evaluation logging.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so log output can be filtered consistently.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "RandomForestRegressor", "DecisionTreeRegressor"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "score", "evaluate"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the evaluation.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// TrainSamplesKey and HoldoutSamplesKey record partition sizes.
	TrainSamplesKey   = "data.train_samples"
	HoldoutSamplesKey = "data.holdout_samples"

	// DroppedRowsKey records rows removed by the completeness filter.
	DroppedRowsKey = "data.dropped_rows"
)

// Evaluation Context
const (
	// DatasetKey names the feature set, e.g. "counts" or "normalized".
	DatasetKey = "eval.dataset"

	// CityKey is the subgroup city label.
	CityKey = "eval.city"

	// TargetKey is the outcome column being predicted.
	TargetKey = "eval.target"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records the R² coefficient of determination.
	R2ScoreKey = "metrics.r2_score"

	// RMSEKey records root-mean-squared error.
	RMSEKey = "metrics.rmse"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Hyperparameters and Configuration
const (
	// NEstimatorsKey records the number of trees in an ensemble.
	NEstimatorsKey = "hyperparams.n_estimators"

	// MaxDepthKey records the maximum tree depth.
	MaxDepthKey = "hyperparams.max_depth"

	// MaxFeaturesKey records the fraction of features considered per split.
	MaxFeaturesKey = "hyperparams.max_features"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit      = "fit"
	OperationPredict  = "predict"
	OperationScore    = "score"
	OperationEvaluate = "evaluate"

	PhaseTraining   = "training"
	PhaseValidation = "validation"

	ErrorEmptyData     = "EMPTY_DATA"
	ErrorUnknownTarget = "UNKNOWN_TARGET"
	ErrorModelFit      = "MODEL_FIT"
	ErrorInvalidInput  = "INVALID_INPUT"
)
