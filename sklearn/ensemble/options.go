package ensemble

// Option is a function that configures RandomForestRegressor
type Option func(*RandomForestRegressor)

// WithNEstimators sets the number of trees in the forest
func WithNEstimators(n int) Option {
	return func(f *RandomForestRegressor) {
		f.nEstimators = n
	}
}

// WithMaxDepth sets the maximum depth of each tree (<= 0 for unlimited)
func WithMaxDepth(depth int) Option {
	return func(f *RandomForestRegressor) {
		f.maxDepth = depth
	}
}

// WithMaxFeatures sets the fraction of features considered at each split
func WithMaxFeatures(fraction float64) Option {
	return func(f *RandomForestRegressor) {
		f.maxFeatures = fraction
	}
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node
func WithMinSamplesSplit(n int) Option {
	return func(f *RandomForestRegressor) {
		f.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples required in each leaf
func WithMinSamplesLeaf(n int) Option {
	return func(f *RandomForestRegressor) {
		f.minSamplesLeaf = n
	}
}

// WithRandomState sets the master seed. Per-tree seeds are derived from it.
func WithRandomState(seed int64) Option {
	return func(f *RandomForestRegressor) {
		f.randomState = seed
	}
}

// WithNJobs sets the number of goroutines used to build trees.
// 0 or a negative value uses every CPU core.
func WithNJobs(n int) Option {
	return func(f *RandomForestRegressor) {
		f.nJobs = n
	}
}

// WithBootstrap sets whether each tree is trained on a bootstrap sample
func WithBootstrap(bootstrap bool) Option {
	return func(f *RandomForestRegressor) {
		f.bootstrap = bootstrap
	}
}
