package metrics_test

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/svrdash/metrics"
	"github.com/ezoic/svrdash/pkg/log"
)

func ExampleMSE() {
	yTrue := mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0})
	yPred := mat.NewVecDense(4, []float64{1.1, 1.9, 3.2, 3.8})

	mse, err := metrics.MSE(yTrue, yPred)
	if err != nil {
		log.LogError(err, "MSE failed")
		return
	}

	fmt.Printf("MSE: %.3f\n", mse)

	// Output: MSE: 0.025
}

func ExampleRMSE() {
	yTrue := mat.NewVecDense(3, []float64{10.0, 20.0, 30.0})
	yPred := mat.NewVecDense(3, []float64{12.0, 18.0, 32.0})

	rmse, err := metrics.RMSE(yTrue, yPred)
	if err != nil {
		log.LogError(err, "RMSE failed")
		return
	}

	fmt.Printf("RMSE: %.2f\n", rmse)

	// Output: RMSE: 2.00
}

func ExampleR2Score_imperfectPredictions() {
	yTrue := mat.NewVecDense(4, []float64{1.0, 3.0, 2.0, 4.0})
	yPred := mat.NewVecDense(4, []float64{1.2, 2.8, 2.1, 3.9})

	r2, err := metrics.R2Score(yTrue, yPred)
	if err != nil {
		log.LogError(err, "R2Score failed")
		return
	}

	fmt.Printf("R² Score: %.3f\n", r2)

	// Output: R² Score: 0.980
}

func ExampleEvaluate() {
	yTrue := mat.NewVecDense(4, []float64{100.0, 102.0, 101.0, 105.0})
	yPred := mat.NewVecDense(4, []float64{100.5, 101.0, 101.5, 104.0})

	report, err := metrics.Evaluate(yTrue, yPred)
	if err != nil {
		log.LogError(err, "Evaluate failed")
		return
	}
	for _, line := range report.Lines() {
		fmt.Println(line)
	}

	// Output: R-squared: 0.8214
	// Mean Absolute Error: 0.7500
	// Mean Squared Error: 0.6250
	// Root Mean Squared Error: 0.7906
}
