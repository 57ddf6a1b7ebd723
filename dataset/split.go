package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	svrErrors "github.com/ezoic/svrdash/pkg/errors"
)

// DefaultTrainRatio is the share of leading rows used for training.
const DefaultTrainRatio = 0.8

// SplitIndex returns floor(ratio*n), the number of training rows.
func SplitIndex(n int, ratio float64) int {
	// 1e-9 absorbs products like 0.57*100 = 56.99999999999999.
	return int(math.Floor(ratio*float64(n) + 1e-9))
}

// TrainTestSplit cuts X and y by row position: the first SplitIndex rows
// train, the rest test. Rows are never shuffled, so a time-ordered table gives
// a forward-looking holdout. The returned matrices are copies.
func TrainTestSplit(X mat.Matrix, y *mat.VecDense, ratio float64) (XTrain, XTest *mat.Dense, yTrain, yTest *mat.VecDense, err error) {
	defer svrErrors.Recover(&err, "dataset.TrainTestSplit")

	if !(ratio > 0 && ratio < 1) {
		return nil, nil, nil, nil, svrErrors.NewValidationError("train_ratio", "must be between 0 and 1", ratio)
	}
	n, c := X.Dims()
	if y.Len() != n {
		return nil, nil, nil, nil, svrErrors.NewDimensionError("dataset.TrainTestSplit", n, y.Len(), 0)
	}
	k := SplitIndex(n, ratio)
	if k == 0 || k == n {
		return nil, nil, nil, nil, svrErrors.NewValueError("dataset.TrainTestSplit",
			fmt.Sprintf("%d rows give %d training and %d test rows; both must be non-empty", n, k, n-k))
	}

	dense := mat.DenseCopyOf(X)
	XTrain = mat.DenseCopyOf(dense.Slice(0, k, 0, c))
	XTest = mat.DenseCopyOf(dense.Slice(k, n, 0, c))
	yTrain = mat.VecDenseCopyOf(y.SliceVec(0, k))
	yTest = mat.VecDenseCopyOf(y.SliceVec(k, n))
	return XTrain, XTest, yTrain, yTest, nil
}
