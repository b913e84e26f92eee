package collision

import (
	"sort"
	"time"

	"github.com/YuminosukeSato/collisionforest/metrics"
	"github.com/YuminosukeSato/collisionforest/pkg/errors"
	"github.com/YuminosukeSato/collisionforest/pkg/log"
	"github.com/YuminosukeSato/collisionforest/sklearn/ensemble"
	"github.com/YuminosukeSato/collisionforest/sklearn/model_selection"
	"gonum.org/v1/gonum/mat"
)

// HoldoutFraction is the share of the subgroup held out for RMSE.
const HoldoutFraction = 0.4

// DefaultSeed is the seed used by the CLI and the default battery.
const DefaultSeed int64 = 1234

// Params selects the subgroup and target and carries the forest
// hyperparameters of one evaluation.
type Params struct {
	City        string  `yaml:"city" json:"city"`
	Target      string  `yaml:"target" json:"target"`
	NEstimators int     `yaml:"n_estimators" json:"n_estimators"`
	MaxDepth    int     `yaml:"max_depth" json:"max_depth"`
	MaxFeatures float64 `yaml:"max_features" json:"max_features"`
}

// DefaultParams returns 500 trees of depth 5 drawing half the features per split.
func DefaultParams(city, target string) Params {
	return Params{
		City:        city,
		Target:      target,
		NEstimators: 500,
		MaxDepth:    5,
		MaxFeatures: 0.5,
	}
}

// Validate checks the hyperparameters.
func (p Params) Validate() error {
	if p.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", p.NEstimators)
	}
	if p.MaxDepth < 1 {
		return errors.NewValidationError("max_depth", "must be at least 1", p.MaxDepth)
	}
	if p.MaxFeatures <= 0 || p.MaxFeatures > 1 {
		return errors.NewValidationError("max_features", "must be in (0, 1]", p.MaxFeatures)
	}
	return nil
}

// FeatureImportance pairs a predictor with its share of impurity decrease.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Report is the outcome of one Evaluate call.
type Report struct {
	Dataset     string
	City        string
	Target      string
	FitScore    float64 // R^2 on the training partition
	RMSE        float64 // on the holdout partition
	TargetMean  float64
	TargetStdev float64 // population standard deviation
	TrainSize   int
	HoldoutSize int
	Importances []FeatureImportance // ascending by importance
}

// Evaluate restricts ds to p.City, trains a random forest for p.Target on a
// 60% partition and reports fit quality, holdout RMSE, target statistics and
// ranked feature importances. Identical inputs and seed give identical reports.
func Evaluate(ds *Dataset, p Params, seed int64) (*Report, error) {
	logger := log.GetLoggerWithName("collision.evaluate").With(
		log.DatasetKey, ds.Name,
		log.CityKey, p.City,
		log.TargetKey, p.Target,
	)
	start := time.Now()

	if !IsOutcome(p.Target) || ds.ColumnIndex(p.Target) < 0 {
		return nil, errors.NewUnknownTargetError(p.Target, Outcomes)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	sub, err := ds.Subgroup(p.City)
	if err != nil {
		return nil, err
	}
	names, X, err := sub.Features()
	if err != nil {
		return nil, err
	}
	yAll, err := sub.Target(p.Target)
	if err != nil {
		return nil, err
	}
	logger.Debug("Subgroup selected",
		log.SamplesKey, sub.Len(),
		log.FeaturesKey, len(names),
		log.DroppedRowsKey, sub.Dropped,
	)

	y := mat.NewDense(len(yAll), 1, yAll)
	split, err := model_selection.TrainTestSplit(X, y, HoldoutFraction, seed)
	if err != nil {
		return nil, errors.NewModelFitError("Evaluate", err)
	}

	forest := ensemble.NewRandomForestRegressor(
		ensemble.WithNEstimators(p.NEstimators),
		ensemble.WithMaxDepth(p.MaxDepth),
		ensemble.WithMaxFeatures(p.MaxFeatures),
		ensemble.WithRandomState(seed),
	)
	if err := forest.Fit(split.XTrain, split.YTrain); err != nil {
		return nil, errors.NewModelFitError("Evaluate", err)
	}

	fit, err := forest.Score(split.XTrain, split.YTrain)
	if err != nil {
		return nil, errors.NewModelFitError("Evaluate", err)
	}
	rmse, err := holdoutRMSE(forest, split.XTest, split.YTest)
	if err != nil {
		return nil, errors.NewModelFitError("Evaluate", err)
	}
	mean, std, err := metrics.PopMeanStdDev(yAll)
	if err != nil {
		return nil, errors.NewModelFitError("Evaluate", err)
	}
	imp, err := forest.FeatureImportances()
	if err != nil {
		return nil, errors.NewModelFitError("Evaluate", err)
	}

	r := &Report{
		Dataset:     ds.Name,
		City:        p.City,
		Target:      p.Target,
		FitScore:    fit,
		RMSE:        rmse,
		TargetMean:  mean,
		TargetStdev: std,
		TrainSize:   len(split.TrainIdx),
		HoldoutSize: len(split.TestIdx),
		Importances: rankImportances(names, imp),
	}

	logger.Debug("Evaluation finished",
		log.OperationKey, log.OperationEvaluate,
		log.TrainSamplesKey, r.TrainSize,
		log.HoldoutSamplesKey, r.HoldoutSize,
		log.R2ScoreKey, r.FitScore,
		log.RMSEKey, r.RMSE,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return r, nil
}

func holdoutRMSE(forest *ensemble.RandomForestRegressor, X, y *mat.Dense) (float64, error) {
	pred, err := forest.Predict(X)
	if err != nil {
		return 0, err
	}
	predVec, err := metrics.ColumnVector(pred)
	if err != nil {
		return 0, err
	}
	yVec, err := metrics.ColumnVector(y)
	if err != nil {
		return 0, err
	}
	return metrics.RMSE(yVec, predVec)
}

// rankImportances pairs names with values and sorts ascending, breaking
// ties by name.
func rankImportances(names []string, values []float64) []FeatureImportance {
	out := make([]FeatureImportance, len(names))
	for i, n := range names {
		out[i] = FeatureImportance{Feature: n, Importance: values[i]}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance < out[j].Importance
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}
