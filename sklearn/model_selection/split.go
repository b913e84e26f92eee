// Package model_selection provides train/test splitting helpers.
package model_selection

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/collisionforest/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Split holds the two partitions of a TrainTestSplit and the original row
// indices each partition was drawn from.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.Dense
	TrainIdx      []int
	TestIdx       []int
}

// SplitSizes returns the train and test sizes for n samples, sized like
// scikit-learn: nTest = ceil(testSize*n), nTrain = n - nTest.
func SplitSizes(n int, testSize float64) (nTrain, nTest int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return 0, 0, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nTest = int(math.Ceil(testSize * float64(n)))
	nTrain = n - nTest
	if nTrain < 1 || nTest < 1 {
		return 0, 0, errors.NewValueError("TrainTestSplit",
			"with n_samples and test_size the resulting train set or test set would be empty")
	}
	return nTrain, nTest, nil
}

// TrainTestSplit shuffles the rows of X and y with a permutation drawn from
// seed and splits them into train and test partitions. The partitions are
// disjoint and together cover every row.
func TrainTestSplit(X, y mat.Matrix, testSize float64, seed int64) (*Split, error) {
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows != yRows {
		return nil, errors.NewDimensionError("TrainTestSplit", rows, yRows, 0)
	}

	nTrain, _, err := SplitSizes(rows, testSize)
	if err != nil {
		return nil, err
	}

	perm := rand.New(rand.NewSource(seed)).Perm(rows)
	s := &Split{
		TrainIdx: perm[:nTrain],
		TestIdx:  perm[nTrain:],
	}
	s.XTrain = takeRows(X, s.TrainIdx, cols)
	s.XTest = takeRows(X, s.TestIdx, cols)
	s.YTrain = takeRows(y, s.TrainIdx, yCols)
	s.YTest = takeRows(y, s.TestIdx, yCols)
	return s, nil
}

func takeRows(m mat.Matrix, idx []int, cols int) *mat.Dense {
	out := mat.NewDense(len(idx), cols, nil)
	for i, r := range idx {
		for j := 0; j < cols; j++ {
			out.Set(i, j, m.At(r, j))
		}
	}
	return out
}
