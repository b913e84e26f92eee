// Package tree implements CART regression trees with variance-reduction
// splitting, used as the base learner of the random forest in sklearn/ensemble.
package tree

import (
	"math"
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/collisionforest/core/model"
	"github.com/YuminosukeSato/collisionforest/metrics"
	"github.com/YuminosukeSato/collisionforest/pkg/errors"
	"github.com/YuminosukeSato/collisionforest/pkg/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// featureThreshold is the minimum gap between two feature values for a
// threshold to be placed between them.
const featureThreshold = 1e-7

// impurityEpsilon below which a node is treated as pure.
const impurityEpsilon = 1e-12

// node is one entry of the flattened tree. Leaves have feature == -1.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
	impurity  float64
	nSamples  int
}

// DecisionTreeRegressor is a regression tree that greedily picks the split
// minimizing the weighted variance of the two children.
type DecisionTreeRegressor struct {
	model.BaseEstimator

	// Hyperparameters
	maxDepth        int
	maxFeatures     float64
	minSamplesSplit int
	minSamplesLeaf  int
	randomState     int64

	// Fitted state
	nodes       []node
	nFeatures   int
	depth       int
	importances []float64 // raw weighted impurity decrease per feature

	// scratch used during fitting
	rng *rand.Rand
	x   *mat.Dense
	y   []float64
}

// NewDecisionTreeRegressor creates a tree with scikit-learn's defaults
// (unlimited depth, all features, min_samples_split=2, min_samples_leaf=1).
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		maxDepth:        -1,
		maxFeatures:     1.0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Validate checks the hyperparameters.
func (t *DecisionTreeRegressor) Validate() error {
	if t.maxFeatures <= 0 || t.maxFeatures > 1 {
		return errors.NewValidationError("max_features", "must be in (0, 1]", t.maxFeatures)
	}
	if t.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", t.minSamplesSplit)
	}
	if t.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", t.minSamplesLeaf)
	}
	return nil
}

// Fit builds the tree from all rows of X and the n×1 target y.
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", 1, yCols, 1)
	}

	samples := make([]int, rows)
	for i := range samples {
		samples[i] = i
	}
	return t.FitSamples(mat.DenseCopyOf(X), mat.Col(nil, 0, y), samples)
}

// FitSamples builds the tree from the rows of X listed in samples. Rows may
// repeat, which is how bootstrap replicates are expressed. X and y are not
// modified or retained after the call.
func (t *DecisionTreeRegressor) FitSamples(X *mat.Dense, y []float64, samples []int) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.FitSamples")

	if err := t.Validate(); err != nil {
		return err
	}
	rows, cols := X.Dims()
	if len(samples) == 0 || cols == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(y) != rows {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", rows, len(y), 0)
	}
	if err := errors.CheckMatrix("DecisionTreeRegressor.Fit", X, rows, cols); err != nil {
		return err
	}
	if err := errors.CheckNumericalStability("DecisionTreeRegressor.Fit", y); err != nil {
		return err
	}

	t.Reset()
	t.nFeatures = cols
	t.nodes = t.nodes[:0]
	t.depth = 0
	t.importances = make([]float64, cols)
	t.rng = rand.New(rand.NewSource(t.randomState))
	t.x, t.y = X, y
	defer func() { t.rng, t.x, t.y = nil, nil, nil }()

	t.build(append([]int(nil), samples...), 0)
	t.SetFitted()

	logger := log.GetLoggerWithName("tree.regressor")
	logger.Debug("Tree fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(samples),
		log.FeaturesKey, cols,
		"nodes", len(t.nodes),
		"depth", t.depth,
	)
	return nil
}

// build grows the subtree for samples and returns its node index.
func (t *DecisionTreeRegressor) build(samples []int, depth int) int {
	if depth > t.depth {
		t.depth = depth
	}
	mean, impurity := t.meanImpurity(samples)
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{
		feature:  -1,
		value:    mean,
		impurity: impurity,
		nSamples: len(samples),
	})

	n := len(samples)
	if (t.maxDepth > 0 && depth >= t.maxDepth) ||
		n < t.minSamplesSplit ||
		n < 2*t.minSamplesLeaf ||
		impurity <= impurityEpsilon {
		return idx
	}

	feature, threshold, ok := t.bestSplit(samples)
	if !ok {
		return idx
	}

	left := make([]int, 0, n)
	right := make([]int, 0, n)
	for _, s := range samples {
		if t.x.At(s, feature) <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := t.build(left, depth+1)
	r := t.build(right, depth+1)

	nd := &t.nodes[idx]
	nd.feature = feature
	nd.threshold = threshold
	nd.left = l
	nd.right = r

	t.importances[feature] += float64(n)*impurity -
		float64(len(left))*t.nodes[l].impurity -
		float64(len(right))*t.nodes[r].impurity

	return idx
}

// bestSplit draws features without replacement until maxFeatures
// non-constant ones have been evaluated, and returns the split with the
// largest variance reduction.
func (t *DecisionTreeRegressor) bestSplit(samples []int) (int, float64, bool) {
	k := t.nFeaturesPerSplit()
	features := make([]int, t.nFeatures)
	for i := range features {
		features[i] = i
	}

	n := len(samples)
	xs := make([]float64, n)
	ys := make([]float64, n)
	order := make([]int, n)

	bestFeature, bestThreshold := -1, 0.0
	bestProxy := math.Inf(-1)
	visited := 0

	for i := 0; i < len(features) && visited < k; i++ {
		j := i + t.rng.Intn(len(features)-i)
		features[i], features[j] = features[j], features[i]
		f := features[i]

		for p := range order {
			order[p] = p
		}
		for p, s := range samples {
			xs[p] = t.x.At(s, f)
		}
		if xs[floats.MaxIdx(xs)]-xs[floats.MinIdx(xs)] <= featureThreshold {
			continue
		}
		visited++

		sort.Slice(order, func(a, b int) bool { return xs[order[a]] < xs[order[b]] })
		for p, o := range order {
			ys[p] = t.y[samples[o]]
		}
		total := floats.Sum(ys)

		var sumLeft float64
		for p := 1; p < n; p++ {
			sumLeft += ys[p-1]
			nLeft, nRight := p, n-p
			if nLeft < t.minSamplesLeaf || nRight < t.minSamplesLeaf {
				continue
			}
			lo, hi := xs[order[p-1]], xs[order[p]]
			if hi <= lo+featureThreshold {
				continue
			}
			sumRight := total - sumLeft
			// Maximizing this proxy minimizes the children's summed squared error.
			proxy := sumLeft*sumLeft/float64(nLeft) + sumRight*sumRight/float64(nRight)
			if proxy > bestProxy {
				bestProxy = proxy
				bestFeature = f
				bestThreshold = lo/2 + hi/2
				if bestThreshold == hi || math.IsInf(bestThreshold, 0) {
					bestThreshold = lo
				}
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (t *DecisionTreeRegressor) nFeaturesPerSplit() int {
	k := int(t.maxFeatures * float64(t.nFeatures))
	if k < 1 {
		k = 1
	}
	if k > t.nFeatures {
		k = t.nFeatures
	}
	return k
}

// meanImpurity returns the mean and population variance of y over samples.
func (t *DecisionTreeRegressor) meanImpurity(samples []int) (float64, float64) {
	var sum float64
	for _, s := range samples {
		sum += t.y[s]
	}
	mean := sum / float64(len(samples))
	var sq float64
	for _, s := range samples {
		d := t.y[s] - mean
		sq += d * d
	}
	return mean, sq / float64(len(samples))
}

// PredictRow returns the leaf value reached by a single feature row.
func (t *DecisionTreeRegressor) PredictRow(x []float64) float64 {
	i := 0
	for t.nodes[i].feature >= 0 {
		nd := t.nodes[i]
		if x[nd.feature] <= nd.threshold {
			i = nd.left
		} else {
			i = nd.right
		}
	}
	return t.nodes[i].value
}

// Predict returns an n×1 matrix of predictions.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}
	rows, cols := X.Dims()
	if cols != t.nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Predict", t.nFeatures, cols, 1)
	}

	out := mat.NewDense(rows, 1, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out.Set(i, 0, t.PredictRow(row))
	}
	return out, nil
}

// Score returns the coefficient of determination R^2 of the prediction.
func (t *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := t.Predict(X)
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

// RawImportances returns the unnormalized weighted impurity decrease per
// feature. The slice is a copy.
func (t *DecisionTreeRegressor) RawImportances() []float64 {
	return append([]float64(nil), t.importances...)
}

// FeatureImportances returns impurity-based importances normalized to sum
// to 1. A tree without splits returns all zeros.
func (t *DecisionTreeRegressor) FeatureImportances() ([]float64, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "FeatureImportances")
	}
	out := t.RawImportances()
	if total := floats.Sum(out); total > 0 {
		floats.Scale(1/total, out)
	}
	return out, nil
}

// Depth returns the depth of the fitted tree (0 for a single leaf).
func (t *DecisionTreeRegressor) Depth() int { return t.depth }

// NLeaves returns the number of leaves of the fitted tree.
func (t *DecisionTreeRegressor) NLeaves() int {
	leaves := 0
	for _, nd := range t.nodes {
		if nd.feature < 0 {
			leaves++
		}
	}
	return leaves
}

// NFeatures returns the number of features seen during Fit.
func (t *DecisionTreeRegressor) NFeatures() int { return t.nFeatures }

// GetParams returns the parameters of the regressor
func (t *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_depth":         t.maxDepth,
		"max_features":      t.maxFeatures,
		"min_samples_split": t.minSamplesSplit,
		"min_samples_leaf":  t.minSamplesLeaf,
		"random_state":      t.randomState,
	}
}
