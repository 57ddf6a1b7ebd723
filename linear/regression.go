// Package linear provides a least squares linear regression used as a
// baseline next to the SVR.
//
// The model solves the (optionally L2 regularized) normal equations on
// centered data with a Cholesky factorization. The intercept is never
// penalized.
//
// Example usage:
//
//	lr := linear.NewLinearRegression()
//	lr.Alpha = 1e-3
//	if err := lr.Fit(X, y); err != nil {
//		log.Fatal(err)
//	}
//	predictions, err := lr.Predict(XTest)
package linear

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/svrdash/core/model"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/pkg/log"
)

// maxCondition is the largest condition number of XᵀX + αI accepted by Fit.
const maxCondition = 1e12

var _ model.Regressor = (*LinearRegression)(nil)

// LinearRegression is an ordinary least squares model with optional L2
// regularization strength Alpha.
type LinearRegression struct {
	State     *model.StateManager // Public for gob encoding
	Alpha     float64
	Weights   []float64
	Intercept float64
	NFeatures int
	logger    log.Logger
}

// NewLinearRegression creates an unfitted model with Alpha = 0.
func NewLinearRegression() *LinearRegression {
	lr := &LinearRegression{State: model.NewStateManager()}
	lr.logger = log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "LinearRegression",
		log.ComponentKey, "linear",
	)
	return lr
}

// Fit solves (XcᵀXc + αI)w = Xcᵀyc, where Xc and yc are centered.
//
// Errors:
//   - ErrEmptyData: if X is empty
//   - ErrDimensionMismatch: if X and y have different row counts
//   - ErrSingularMatrix: if the system is not positive definite, e.g.
//     collinear features with Alpha = 0
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer svrErrors.Recover(&err, "LinearRegression.Fit")

	start := time.Now()
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return svrErrors.NewModelError("LinearRegression.Fit", "empty data", svrErrors.ErrEmptyData)
	}
	if ry != r {
		return svrErrors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return svrErrors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	if lr.Alpha < 0 {
		return svrErrors.NewValidationError("alpha", "must be non-negative", lr.Alpha)
	}
	if lr.State == nil {
		lr.State = model.NewStateManager()
	}

	lr.getLogger().Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)

	xMean := make([]float64, c)
	for j := range xMean {
		xMean[j] = floats.Sum(mat.Col(nil, j, X)) / float64(r)
	}
	yCol := mat.Col(nil, 0, y)
	yMean := floats.Sum(yCol) / float64(r)

	Xc := mat.NewDense(r, c, nil)
	Xc.Apply(func(_, j int, v float64) float64 { return v - xMean[j] }, X)
	yc := mat.NewVecDense(r, nil)
	for i, v := range yCol {
		yc.SetVec(i, v-yMean)
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, Xc.T())
	for j := 0; j < c; j++ {
		xtx.SetSym(j, j, xtx.At(j, j)+lr.Alpha)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok || chol.Cond() > maxCondition {
		return svrErrors.NewModelError("LinearRegression.Fit", "singular matrix", svrErrors.ErrSingularMatrix)
	}
	var xty mat.VecDense
	xty.MulVec(Xc.T(), yc)
	w := mat.NewVecDense(c, nil)
	if err := chol.SolveVecTo(w, &xty); err != nil {
		return svrErrors.NewModelError("LinearRegression.Fit", "singular matrix", svrErrors.ErrSingularMatrix)
	}

	lr.Weights = mat.Col(nil, 0, w)
	lr.Intercept = yMean - floats.Dot(lr.Weights, xMean)
	lr.NFeatures = c
	lr.State.SetFitted()
	lr.State.SetDimensions(c, r)

	lr.getLogger().Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict returns an n×1 matrix of X·w + b.
func (lr *LinearRegression) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer svrErrors.Recover(&err, "LinearRegression.Predict")
	v, err := lr.PredictVec(X)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(v.Len(), 1, v.RawVector().Data), nil
}

// PredictVec is Predict returning a vector.
func (lr *LinearRegression) PredictVec(X mat.Matrix) (_ *mat.VecDense, err error) {
	defer svrErrors.Recover(&err, "LinearRegression.PredictVec")
	if !lr.IsFitted() {
		return nil, svrErrors.NewNotFittedError("LinearRegression", "Predict")
	}
	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, svrErrors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}
	if r == 0 {
		return nil, svrErrors.NewValueError("LinearRegression.Predict", "no rows to predict")
	}

	out := mat.NewVecDense(r, nil)
	out.MulVec(X, mat.NewVecDense(c, append([]float64(nil), lr.Weights...)))
	for i := 0; i < r; i++ {
		out.SetVec(i, out.AtVec(i)+lr.Intercept)
	}
	lr.getLogger().Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, r,
	)
	return out, nil
}

// IsFitted reports whether Fit has succeeded.
func (lr *LinearRegression) IsFitted() bool {
	return lr.State != nil && lr.State.IsFitted()
}

// GetParams returns the model's hyperparameters.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{"alpha": lr.Alpha}
}

func (lr *LinearRegression) String() string {
	if !lr.IsFitted() {
		return fmt.Sprintf("LinearRegression(alpha=%g)", lr.Alpha)
	}
	return fmt.Sprintf("LinearRegression(alpha=%g, n_features=%d, intercept=%.4f)", lr.Alpha, lr.NFeatures, lr.Intercept)
}

func (lr *LinearRegression) getLogger() log.Logger {
	if lr.logger == nil {
		lr.logger = log.GetLoggerWithName("linear").With(
			log.ModelNameKey, "LinearRegression",
			log.ComponentKey, "linear",
		)
	}
	return lr.logger
}
