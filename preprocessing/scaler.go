// Package preprocessing provides the feature transforms used before fitting a
// regressor on price data.
//
//   - StandardScaler: removes the mean and scales each feature to unit variance
//   - SimpleImputer: replaces missing (NaN) values with the column mean
//
// Both follow the Fit / Transform / FitTransform pattern. A scaler is fitted on
// the training rows only and then reused, unchanged, for the held-out rows and
// for single-point predictions.
//
// Example usage:
//
//	scaler := preprocessing.NewStandardScalerDefault()
//	XTrainScaled, err := scaler.FitTransform(XTrain)
//	if err != nil {
//		log.Fatal(err)
//	}
//	XTestScaled, err := scaler.Transform(XTest)
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/svrdash/core/model"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/pkg/log"
)

var (
	_ model.Transformer = (*StandardScaler)(nil)
	_ model.Transformer = (*SimpleImputer)(nil)
)

// StandardScaler standardizes features to zero mean and unit variance.
type StandardScaler struct {
	model.BaseEstimator

	// Mean is the per-feature mean seen during Fit
	Mean []float64

	// Scale is the per-feature population standard deviation (1 for constant features)
	Scale []float64

	// NFeatures is the number of features seen during Fit
	NFeatures int

	// NSamples is the number of rows seen during Fit
	NSamples int

	// WithMean centers the data before scaling (default: true)
	WithMean bool

	// WithStd scales the data to unit variance (default: true)
	WithStd bool
}

// NewStandardScaler creates a new StandardScaler for feature standardization.
//
// Parameters:
//   - withMean: whether to center the data at zero by removing the mean
//   - withStd: whether to divide by the standard deviation
//
// Example:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(XTrain)
//	XScaled, err := scaler.Transform(XTest)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a scaler with centering and scaling enabled.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit computes the per-feature mean and standard deviation of X.
//
// The standard deviation is the population one (divide by n), so the
// transformed training data has sample variance exactly 1 when computed with
// the same convention. Features whose deviation is below 1e-8 get a scale of 1
// to avoid division by zero.
//
// Errors:
//   - ErrEmptyData: if X has no rows or no columns
//   - ValueError: if X contains NaN or Inf
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer svrErrors.Recover(&err, "StandardScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return svrErrors.NewModelError("StandardScaler.Fit", "empty data", svrErrors.ErrEmptyData)
	}
	if err := checkFinite("StandardScaler.Fit", X); err != nil {
		return err
	}

	s.NFeatures = c
	s.NSamples = r
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	if s.WithMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}
	}

	for j := 0; j < c; j++ {
		if !s.WithStd {
			s.Scale[j] = 1.0
			continue
		}
		sumSquares := 0.0
		for i := 0; i < r; i++ {
			diff := X.At(i, j) - s.Mean[j]
			sumSquares += diff * diff
		}
		s.Scale[j] = math.Sqrt(sumSquares / float64(r))
		if math.Abs(s.Scale[j]) < 1e-8 {
			s.Scale[j] = 1.0
		}
	}

	s.SetFitted()
	log.GetLoggerWithName("preprocessing").Debug("StandardScaler fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)
	return nil
}

// Transform applies (X - mean) / scale using the statistics learned by Fit.
//
// Errors:
//   - NotFittedError: if the scaler hasn't been fitted yet
//   - DimensionError: if X does not have NFeatures columns
func (s *StandardScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer svrErrors.Recover(&err, "StandardScaler.Transform")
	if !s.IsFitted() {
		return nil, svrErrors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, svrErrors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}

	return result, nil
}

// FitTransform is Fit followed by Transform on the same data.
func (s *StandardScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer svrErrors.Recover(&err, "StandardScaler.FitTransform")
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized data back: X * scale + mean.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer svrErrors.Recover(&err, "StandardScaler.InverseTransform")
	if !s.IsFitted() {
		return nil, svrErrors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, svrErrors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}

	return result, nil
}

// GetParams returns the scaler's hyperparameters.
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

func checkFinite(op string, X mat.Matrix) error {
	r, c := X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return svrErrors.NewValueError(op,
					fmt.Sprintf("input contains NaN or Inf at row %d, column %d", i, j))
			}
		}
	}
	return nil
}
