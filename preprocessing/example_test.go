package preprocessing_test

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/svrdash/preprocessing"
)

// ExampleStandardScaler fits on training rows and reuses the statistics for a
// held-out row.
func ExampleStandardScaler() {
	train := mat.NewDense(4, 2, []float64{
		1.0, 2.0,
		3.0, 4.0,
		5.0, 6.0,
		7.0, 8.0,
	})

	scaler := preprocessing.NewStandardScalerDefault()
	if err := scaler.Fit(train); err != nil {
		return
	}

	scaled, err := scaler.Transform(mat.NewDense(1, 2, []float64{4.0, 5.0}))
	if err != nil {
		return
	}

	fmt.Printf("Held-out row: [%.2f, %.2f]\n", scaled.At(0, 0), scaled.At(0, 1))

	// Output: Held-out row: [0.00, 0.00]
}

func ExampleSimpleImputer() {
	X := mat.NewDense(3, 1, []float64{100.0, math.NaN(), 104.0})

	filled, err := preprocessing.NewSimpleImputer().FitTransform(X)
	if err != nil {
		return
	}
	fmt.Printf("%.1f\n", filled.At(1, 0))

	// Output: 102.0
}
