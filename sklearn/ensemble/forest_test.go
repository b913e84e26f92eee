package ensemble

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/collisionforest/core/model"
	"github.com/YuminosukeSato/collisionforest/pkg/errors"
	"github.com/YuminosukeSato/collisionforest/pkg/log"
)

var (
	_ model.Regressor          = (*RandomForestRegressor)(nil)
	_ model.FeatureImportancer = (*RandomForestRegressor)(nil)
	_ model.ParameterGetter    = (*RandomForestRegressor)(nil)
)

// synthetic returns n rows where y depends strongly on x0, weakly on x1 and
// not at all on x2.
func synthetic(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0 := float64(i % 20)
		x1 := float64((i * 7) % 5)
		x2 := float64((i * 13) % 11)
		X.SetRow(i, []float64{x0, x1, x2})
		y.Set(i, 0, 10*x0+x1)
	}
	return X, y
}

func TestRandomForestRegressor_FitPredict(t *testing.T) {
	X, y := synthetic(120)
	rf := NewRandomForestRegressor(
		WithNEstimators(25),
		WithMaxDepth(6),
		WithMaxFeatures(1.0),
		WithRandomState(1234),
	)
	require.NoError(t, rf.Fit(X, y))
	assert.True(t, rf.IsFitted())
	assert.Len(t, rf.Estimators(), 25)

	pred, err := rf.Predict(X)
	require.NoError(t, err)
	r, c := pred.Dims()
	assert.Equal(t, 120, r)
	assert.Equal(t, 1, c)

	score, err := rf.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.95)
}

func TestRandomForestRegressor_FeatureImportances(t *testing.T) {
	X, y := synthetic(200)
	rf := NewRandomForestRegressor(WithNEstimators(20), WithMaxDepth(5), WithMaxFeatures(0.5), WithRandomState(7))
	require.NoError(t, rf.Fit(X, y))

	imp, err := rf.FeatureImportances()
	require.NoError(t, err)
	require.Len(t, imp, 3)

	var sum float64
	for _, v := range imp {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Greater(t, imp[0], imp[1])
	assert.Greater(t, imp[0], imp[2])
}

func TestRandomForestRegressor_ConstantTargetUniformImportances(t *testing.T) {
	X, _ := synthetic(30)
	y := mat.NewDense(30, 1, nil)
	for i := 0; i < 30; i++ {
		y.Set(i, 0, 5)
	}
	rf := NewRandomForestRegressor(WithNEstimators(5), WithMaxDepth(3), WithRandomState(1))
	require.NoError(t, rf.Fit(X, y))

	imp, err := rf.FeatureImportances()
	require.NoError(t, err)
	for _, v := range imp {
		assert.InDelta(t, 1.0/3.0, v, 1e-12)
	}

	score, err := rf.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestRandomForestRegressor_DeterministicAcrossNJobs(t *testing.T) {
	X, y := synthetic(100)
	fit := func(jobs int) (mat.Matrix, []float64) {
		rf := NewRandomForestRegressor(
			WithNEstimators(16),
			WithMaxDepth(4),
			WithMaxFeatures(0.5),
			WithRandomState(99),
			WithNJobs(jobs),
		)
		require.NoError(t, rf.Fit(X, y))
		pred, err := rf.Predict(X)
		require.NoError(t, err)
		imp, err := rf.FeatureImportances()
		require.NoError(t, err)
		return pred, imp
	}

	p1, i1 := fit(1)
	p4, i4 := fit(4)
	p1b, i1b := fit(1)
	pAll, iAll := fit(-1) // all CPUs
	assert.True(t, mat.Equal(p1, p4))
	assert.True(t, mat.Equal(p1, p1b))
	assert.True(t, mat.Equal(p1, pAll))
	assert.Equal(t, i1, i4)
	assert.Equal(t, i1, i1b)
	assert.Equal(t, i1, iAll)
}

func TestRandomForestRegressor_FitLogging(t *testing.T) {
	logs, restore := log.Capture(log.LevelDebug)
	defer restore()

	X, y := synthetic(50)
	rf := NewRandomForestRegressor(WithNEstimators(6), WithMaxDepth(3), WithRandomState(5), WithNJobs(0))
	require.NoError(t, rf.Fit(X, y))

	start, ok := logs.Find("Fitting forest")
	require.True(t, ok)
	assert.Equal(t, "ensemble.forest", start.Fields[log.ComponentKey])
	assert.Equal(t, "RandomForestRegressor", start.Fields[log.ModelNameKey])
	assert.Equal(t, 50, start.Fields[log.SamplesKey])
	assert.Equal(t, 6, start.Fields[log.NEstimatorsKey])

	_, ok = logs.Find("Forest fitted")
	assert.True(t, ok)
	assert.Equal(t, 6, logs.Count("Tree fitted"))
}

func TestRandomForestRegressor_SeedChangesModel(t *testing.T) {
	X, y := synthetic(100)
	a := NewRandomForestRegressor(WithNEstimators(5), WithMaxFeatures(0.34), WithRandomState(1))
	b := NewRandomForestRegressor(WithNEstimators(5), WithMaxFeatures(0.34), WithRandomState(2))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))
	pa, _ := a.Predict(X)
	pb, _ := b.Predict(X)
	assert.False(t, mat.Equal(pa, pb))
}

func TestRandomForestRegressor_NoBootstrap(t *testing.T) {
	X, y := synthetic(40)
	rf := NewRandomForestRegressor(WithNEstimators(3), WithBootstrap(false), WithRandomState(3))
	require.NoError(t, rf.Fit(X, y))
	// Full-depth trees on the full sample with all features reproduce y.
	score, err := rf.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestRandomForestRegressor_Errors(t *testing.T) {
	X, y := synthetic(20)

	tests := []struct {
		name  string
		rf    *RandomForestRegressor
		X, y  mat.Matrix
		check func(t *testing.T, err error)
	}{
		{
			name: "zero estimators",
			rf:   NewRandomForestRegressor(WithNEstimators(0)),
			X:    X, y: y,
			check: func(t *testing.T, err error) {
				var ve *errors.ValidationError
				assert.True(t, errors.As(err, &ve))
			},
		},
		{
			name: "max features out of range",
			rf:   NewRandomForestRegressor(WithMaxFeatures(0)),
			X:    X, y: y,
			check: func(t *testing.T, err error) {
				var ve *errors.ValidationError
				assert.True(t, errors.As(err, &ve))
			},
		},
		{
			name: "row mismatch",
			rf:   NewRandomForestRegressor(),
			X:    X, y: mat.NewDense(5, 1, nil),
			check: func(t *testing.T, err error) {
				var de *errors.DimensionError
				assert.True(t, errors.As(err, &de))
			},
		},
		{
			name: "infinite feature",
			rf:   NewRandomForestRegressor(WithNEstimators(2)),
			X: func() mat.Matrix {
				bad := mat.DenseCopyOf(X)
				bad.Set(0, 0, math.Inf(1))
				return bad
			}(),
			y: y,
			check: func(t *testing.T, err error) {
				var ne *errors.NumericalInstabilityError
				assert.True(t, errors.As(err, &ne))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rf.Fit(tt.X, tt.y)
			require.Error(t, err)
			tt.check(t, err)
			assert.False(t, tt.rf.IsFitted())
		})
	}

	t.Run("predict before fit", func(t *testing.T) {
		_, err := NewRandomForestRegressor().Predict(X)
		var nf *errors.NotFittedError
		assert.True(t, errors.As(err, &nf))
	})
}

func TestRandomForestRegressor_GetParams(t *testing.T) {
	rf := NewRandomForestRegressor(WithNEstimators(500), WithMaxDepth(5), WithMaxFeatures(0.5), WithRandomState(1234))
	p := rf.GetParams()
	assert.Equal(t, 500, p["n_estimators"])
	assert.Equal(t, 5, p["max_depth"])
	assert.Equal(t, 0.5, p["max_features"])
	assert.Equal(t, int64(1234), p["random_state"])
	assert.Equal(t, true, p["bootstrap"])
}
