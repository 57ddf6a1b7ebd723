package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/svrdash/core/model"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
)

// SimpleImputer replaces NaN entries with the mean of the non-missing entries
// of the same column, learned during Fit. It is a static fill: every gap in a
// column gets the same value regardless of its position in time.
type SimpleImputer struct {
	model.BaseEstimator

	// Statistics is the per-feature fill value
	Statistics []float64

	// NFeatures is the number of features seen during Fit
	NFeatures int
}

// NewSimpleImputer creates a mean imputer.
func NewSimpleImputer() *SimpleImputer {
	return &SimpleImputer{}
}

// Fit computes the NaN-skipping mean of each column.
//
// Errors:
//   - ErrEmptyData: if X has no rows or no columns
//   - ValueError: if a column has no observed values
func (imp *SimpleImputer) Fit(X mat.Matrix) (err error) {
	defer svrErrors.Recover(&err, "SimpleImputer.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return svrErrors.NewModelError("SimpleImputer.Fit", "empty data", svrErrors.ErrEmptyData)
	}

	stats := make([]float64, c)
	for j := 0; j < c; j++ {
		sum, n := 0.0, 0
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			return svrErrors.NewValueError("SimpleImputer.Fit",
				fmt.Sprintf("column %d has no observed values", j))
		}
		stats[j] = sum / float64(n)
	}

	imp.Statistics = stats
	imp.NFeatures = c
	imp.SetFitted()
	return nil
}

// Transform returns a copy of X with every NaN replaced by its column statistic.
func (imp *SimpleImputer) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer svrErrors.Recover(&err, "SimpleImputer.Transform")
	if !imp.IsFitted() {
		return nil, svrErrors.NewNotFittedError("SimpleImputer", "Transform")
	}

	r, c := X.Dims()
	if c != imp.NFeatures {
		return nil, svrErrors.NewDimensionError("SimpleImputer.Transform", imp.NFeatures, c, 1)
	}

	result := mat.DenseCopyOf(X)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(result.At(i, j)) {
				result.Set(i, j, imp.Statistics[j])
			}
		}
	}
	return result, nil
}

// FitTransform is Fit followed by Transform on the same data.
func (imp *SimpleImputer) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer svrErrors.Recover(&err, "SimpleImputer.FitTransform")
	if err := imp.Fit(X); err != nil {
		return nil, err
	}
	return imp.Transform(X)
}
