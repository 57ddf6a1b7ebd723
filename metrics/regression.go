// Package metrics computes regression evaluation metrics on held-out data.
//
// Metrics:
//   - MSE: Mean Squared Error
//   - RMSE: Root Mean Squared Error (square root of MSE)
//   - MAE: Mean Absolute Error
//   - R2Score: coefficient of determination
//   - MAPE: Mean Absolute Percentage Error
//   - ExplainedVarianceScore: variance explained, ignoring bias
//
// Evaluate bundles the four into a Report that formats each with four decimals,
// the way the dashboard prints them.
//
// Example usage:
//
//	report, err := metrics.Evaluate(yTest, yPred)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, line := range report.Lines() {
//		fmt.Println(line)
//	}
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	svrErrors "github.com/ezoic/svrdash/pkg/errors"
)

// MSE calculates the Mean Squared Error between true and predicted values.
//
// Returns:
//   - float64: MSE value (non-negative)
//   - error: ValueError for empty input, DimensionError for a length mismatch
//
// Example:
//
//	mse, err := metrics.MSE(yTrue, yPred)
//	fmt.Printf("MSE: %.4f\n", mse)
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// MSEMatrix calculates MSE for n×1 column matrices, the shape Predict returns.
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	a, err := ColumnVector("MSEMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	b, err := ColumnVector("MSEMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return MSE(a, b)
}

// RMSE is the square root of MSE, in the same units as the target.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE calculates the Mean Absolute Error between true and predicted values.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}

	return sum / float64(n), nil
}

// R2Score calculates the coefficient of determination.
//
// 1 means perfect predictions, 0 means no better than predicting the mean and
// negative values mean worse than the mean. A constant yTrue has no variance to
// explain and is reported as a ValueError.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)

		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	if tss == 0 {
		return 0, svrErrors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// MAPE is the Mean Absolute Percentage Error in percent. Rows where yTrue is
// zero are skipped; if every row is zero the result is a ValueError.
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	valid := 0
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		if t == 0 {
			continue
		}
		sum += math.Abs(t-yPred.AtVec(i)) / math.Abs(t)
		valid++
	}
	if valid == 0 {
		return 0, svrErrors.NewValueError("MAPE", "all yTrue values are zero")
	}
	return sum / float64(valid) * 100, nil
}

// ExplainedVarianceScore is 1 - Var(yTrue - yPred) / Var(yTrue). Unlike R² it
// ignores a constant offset in the predictions.
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	truth := mat.Col(nil, 0, yTrue)
	resid := make([]float64, n)
	for i := range resid {
		resid[i] = truth[i] - yPred.AtVec(i)
	}
	_, varTrue := stat.PopMeanVariance(truth, nil)
	if varTrue == 0 {
		return 0, svrErrors.NewValueError("ExplainedVarianceScore", "no variance in yTrue")
	}
	_, varResid := stat.PopMeanVariance(resid, nil)
	return 1 - varResid/varTrue, nil
}

// ColumnVector copies an n×1 matrix into a vector.
func ColumnVector(op string, m mat.Matrix) (*mat.VecDense, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, svrErrors.NewValueError(op, "empty matrix")
	}
	if c != 1 {
		return nil, svrErrors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	if v, ok := m.(*mat.VecDense); ok {
		return v, nil
	}
	return mat.NewVecDense(r, mat.Col(nil, 0, m)), nil
}

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, svrErrors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, svrErrors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// Report holds the four metrics shown after a fit.
type Report struct {
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
}

// Evaluate computes R², MAE, MSE and RMSE of yPred against yTrue.
func Evaluate(yTrue, yPred *mat.VecDense) (Report, error) {
	var (
		rep Report
		err error
	)
	if rep.R2, err = R2Score(yTrue, yPred); err != nil {
		return Report{}, err
	}
	if rep.MAE, err = MAE(yTrue, yPred); err != nil {
		return Report{}, err
	}
	if rep.MSE, err = MSE(yTrue, yPred); err != nil {
		return Report{}, err
	}
	rep.RMSE = math.Sqrt(rep.MSE)
	return rep, nil
}

// Lines formats the report with four decimals, one metric per line.
func (r Report) Lines() []string {
	return []string{
		fmt.Sprintf("R-squared: %.4f", r.R2),
		fmt.Sprintf("Mean Absolute Error: %.4f", r.MAE),
		fmt.Sprintf("Mean Squared Error: %.4f", r.MSE),
		fmt.Sprintf("Root Mean Squared Error: %.4f", r.RMSE),
	}
}

// Finite reports whether every metric is a finite number.
func (r Report) Finite() bool {
	for _, v := range []float64{r.R2, r.MAE, r.MSE, r.RMSE} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
