package model_selection

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/collisionforest/pkg/errors"
)

func TestSplitSizes(t *testing.T) {
	tests := []struct {
		n                   int
		wantTrain, wantTest int
	}{
		{2, 1, 1},
		{5, 3, 2},
		{10, 6, 4},
		{11, 6, 5},
		{100, 60, 40},
	}
	for _, tt := range tests {
		nTrain, nTest, err := SplitSizes(tt.n, 0.4)
		require.NoError(t, err)
		assert.Equal(t, tt.wantTrain, nTrain, "n=%d", tt.n)
		assert.Equal(t, tt.wantTest, nTest, "n=%d", tt.n)
	}

	_, _, err := SplitSizes(1, 0.4)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	_, _, err = SplitSizes(10, 1.5)
	var vae *errors.ValidationError
	assert.True(t, errors.As(err, &vae))
}

func TestTrainTestSplit(t *testing.T) {
	n := 25
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.SetRow(i, []float64{float64(i), float64(i * 10)})
		y.Set(i, 0, float64(i*100))
	}

	s, err := TrainTestSplit(X, y, 0.4, 1234)
	require.NoError(t, err)
	assert.Len(t, s.TrainIdx, 15)
	assert.Len(t, s.TestIdx, 10)

	all := append(append([]int(nil), s.TrainIdx...), s.TestIdx...)
	sort.Ints(all)
	for i, v := range all {
		assert.Equal(t, i, v)
	}

	// rows stay aligned with their targets
	for i, r := range s.TrainIdx {
		assert.Equal(t, float64(r), s.XTrain.At(i, 0))
		assert.Equal(t, float64(r*10), s.XTrain.At(i, 1))
		assert.Equal(t, float64(r*100), s.YTrain.At(i, 0))
	}
	for i, r := range s.TestIdx {
		assert.Equal(t, float64(r*100), s.YTest.At(i, 0))
	}
}

func TestTrainTestSplit_Deterministic(t *testing.T) {
	X := mat.NewDense(30, 1, nil)
	y := mat.NewDense(30, 1, nil)
	a, err := TrainTestSplit(X, y, 0.4, 7)
	require.NoError(t, err)
	b, err := TrainTestSplit(X, y, 0.4, 7)
	require.NoError(t, err)
	assert.Equal(t, a.TrainIdx, b.TrainIdx)
	assert.Equal(t, a.TestIdx, b.TestIdx)

	c, err := TrainTestSplit(X, y, 0.4, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a.TrainIdx, c.TrainIdx)
}

func TestTrainTestSplit_DimensionMismatch(t *testing.T) {
	_, err := TrainTestSplit(mat.NewDense(4, 1, nil), mat.NewDense(3, 1, nil), 0.4, 1)
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}
