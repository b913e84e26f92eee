// Package ensemble provides bagged tree ensembles.
package ensemble

import (
	"math/rand"
	"time"

	"github.com/YuminosukeSato/collisionforest/core/model"
	"github.com/YuminosukeSato/collisionforest/core/parallel"
	"github.com/YuminosukeSato/collisionforest/metrics"
	"github.com/YuminosukeSato/collisionforest/pkg/errors"
	"github.com/YuminosukeSato/collisionforest/pkg/log"
	"github.com/YuminosukeSato/collisionforest/sklearn/tree"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RandomForestRegressor averages regression trees grown on bootstrap samples.
type RandomForestRegressor struct {
	model.BaseEstimator

	// hyperparameters
	nEstimators     int
	maxDepth        int
	maxFeatures     float64
	minSamplesSplit int
	minSamplesLeaf  int
	randomState     int64
	nJobs           int
	bootstrap       bool

	// fitted state
	trees       []*tree.DecisionTreeRegressor
	nFeatures   int
	importances []float64
}

// NewRandomForestRegressor creates a forest of 100 unlimited-depth trees
// using all features, the scikit-learn defaults.
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	f := &RandomForestRegressor{
		nEstimators:     100,
		maxDepth:        -1,
		maxFeatures:     1.0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		nJobs:           1,
		bootstrap:       true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Validate checks the forest-level hyperparameters. Tree-level ones are
// checked again by each tree.
func (f *RandomForestRegressor) Validate() error {
	if f.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", f.nEstimators)
	}
	if f.maxFeatures <= 0 || f.maxFeatures > 1 {
		return errors.NewValidationError("max_features", "must be in (0, 1]", f.maxFeatures)
	}
	if f.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", f.minSamplesSplit)
	}
	if f.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", f.minSamplesLeaf)
	}
	return nil
}

// Fit trains nEstimators trees. Tree seeds are drawn from the master seed
// before any tree is built, so the result does not depend on nJobs.
func (f *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")

	if err := f.Validate(); err != nil {
		return err
	}

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("RandomForestRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("RandomForestRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("RandomForestRegressor.Fit", 1, yCols, 1)
	}

	logger := log.GetLoggerWithName("ensemble.forest").With(log.ModelNameKey, "RandomForestRegressor")
	start := time.Now()
	logger.Debug("Fitting forest",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.NEstimatorsKey, f.nEstimators,
		log.MaxDepthKey, f.maxDepth,
		log.MaxFeaturesKey, f.maxFeatures,
		log.RandomSeedKey, f.randomState,
	)

	xd := mat.DenseCopyOf(X)
	yv := mat.Col(nil, 0, y)
	if err := errors.CheckMatrix("RandomForestRegressor.Fit", xd, rows, cols); err != nil {
		return err
	}

	master := rand.New(rand.NewSource(f.randomState))
	seeds := make([]int64, f.nEstimators)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	f.Reset()
	trees := make([]*tree.DecisionTreeRegressor, f.nEstimators)
	errs := make([]error, f.nEstimators)

	build := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			trees[i], errs[i] = f.fitTree(xd, yv, seeds[i])
		}
	}
	if f.nJobs > 0 {
		parallel.ParallelizeN(f.nEstimators, f.nJobs, build)
	} else {
		parallel.Parallelize(f.nEstimators, build)
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}

	f.trees = trees
	f.nFeatures = cols
	f.importances = f.aggregateImportances()
	f.SetFitted()

	logger.Debug("Forest fitted",
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// fitTree builds one tree from its own seed: the seed drives the bootstrap
// draw and then the tree's feature sampling.
func (f *RandomForestRegressor) fitTree(X *mat.Dense, y []float64, seed int64) (*tree.DecisionTreeRegressor, error) {
	rng := rand.New(rand.NewSource(seed))
	n := len(y)
	samples := make([]int, n)
	for i := range samples {
		if f.bootstrap {
			samples[i] = rng.Intn(n)
		} else {
			samples[i] = i
		}
	}

	t := tree.NewDecisionTreeRegressor(
		tree.WithMaxDepth(f.maxDepth),
		tree.WithMaxFeatures(f.maxFeatures),
		tree.WithMinSamplesSplit(f.minSamplesSplit),
		tree.WithMinSamplesLeaf(f.minSamplesLeaf),
		tree.WithRandomState(rng.Int63()),
	)
	if err := t.FitSamples(X, y, samples); err != nil {
		return nil, err
	}
	return t, nil
}

// aggregateImportances averages the normalized importances of every tree
// that made at least one split and renormalizes the mean to sum to 1.
// When no tree split, importance is spread uniformly.
func (f *RandomForestRegressor) aggregateImportances() []float64 {
	sum := make([]float64, f.nFeatures)
	used := 0
	for _, t := range f.trees {
		imp, err := t.FeatureImportances()
		if err != nil || floats.Sum(imp) == 0 {
			continue
		}
		floats.Add(sum, imp)
		used++
	}

	total := floats.Sum(sum)
	if used == 0 || total == 0 {
		for i := range sum {
			sum[i] = 1 / float64(f.nFeatures)
		}
		return sum
	}
	floats.Scale(1/total, sum)
	return sum
}

// Predict returns the mean prediction of all trees as an n×1 matrix.
func (f *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}
	rows, cols := X.Dims()
	if cols != f.nFeatures {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", f.nFeatures, cols, 1)
	}

	out := mat.NewDense(rows, 1, nil)
	row := make([]float64, cols)
	nTrees := float64(len(f.trees))
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		var s float64
		for _, t := range f.trees {
			s += t.PredictRow(row)
		}
		out.Set(i, 0, s/nTrees)
	}
	return out, nil
}

// Score returns the coefficient of determination R^2 of the prediction.
func (f *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := f.Predict(X)
	if err != nil {
		return 0, err
	}
	yVec, err := metrics.ColumnVector(y)
	if err != nil {
		return 0, err
	}
	predVec, err := metrics.ColumnVector(pred)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(yVec, predVec)
}

// FeatureImportances returns impurity-based importances that sum to 1.
func (f *RandomForestRegressor) FeatureImportances() ([]float64, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "FeatureImportances")
	}
	return append([]float64(nil), f.importances...), nil
}

// Estimators returns the fitted trees.
func (f *RandomForestRegressor) Estimators() []*tree.DecisionTreeRegressor {
	return f.trees
}

// GetParams returns the parameters of the forest
func (f *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      f.nEstimators,
		"max_depth":         f.maxDepth,
		"max_features":      f.maxFeatures,
		"min_samples_split": f.minSamplesSplit,
		"min_samples_leaf":  f.minSamplesLeaf,
		"random_state":      f.randomState,
		"n_jobs":            f.nJobs,
		"bootstrap":         f.bootstrap,
	}
}
