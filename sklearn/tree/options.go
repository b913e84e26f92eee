package tree

// Option is a function that configures DecisionTreeRegressor
type Option func(*DecisionTreeRegressor)

// WithMaxDepth sets the maximum depth of the tree. A value <= 0 grows the
// tree until leaves are pure or hit the sample limits.
func WithMaxDepth(depth int) Option {
	return func(t *DecisionTreeRegressor) {
		t.maxDepth = depth
	}
}

// WithMaxFeatures sets the fraction of features drawn at each split, in (0, 1].
// At least one feature is always considered.
func WithMaxFeatures(fraction float64) Option {
	return func(t *DecisionTreeRegressor) {
		t.maxFeatures = fraction
	}
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) {
		t.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples required in each leaf
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) {
		t.minSamplesLeaf = n
	}
}

// WithRandomState sets the seed used for feature sampling
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeRegressor) {
		t.randomState = seed
	}
}
