// Package svm implements epsilon-insensitive Support Vector Regression.
//
// The dual problem is solved with Sequential Minimal Optimization using
// second-order working set selection. Kernel rows are cached, there is no
// shrinking. Supported kernels are rbf (default), linear, poly and sigmoid.
//
// Example usage:
//
//	svr := svm.NewSVR(svm.DefaultParams())
//	if err := svr.Fit(XTrain, yTrain); err != nil {
//		log.Fatal(err)
//	}
//	predictions, err := svr.Predict(XTest)
//
// Inputs should be standardized first (see preprocessing.StandardScaler); the
// rbf kernel and the gamma="scale" heuristic both assume comparable feature
// ranges.
package svm

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/svrdash/core/model"
	"github.com/ezoic/svrdash/metrics"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/pkg/log"
)

// Params holds SVR hyperparameters.
type Params struct {
	Kernel  KernelType `json:"kernel" mapstructure:"kernel"`
	C       float64    `json:"C" mapstructure:"c"`
	Epsilon float64    `json:"epsilon" mapstructure:"epsilon"`
	// Gamma is "scale", "auto" or a positive number; ignored by the linear kernel
	Gamma   string  `json:"gamma" mapstructure:"gamma"`
	Degree  int     `json:"degree" mapstructure:"degree"`
	Coef0   float64 `json:"coef0" mapstructure:"coef0"`
	Tol     float64 `json:"tol" mapstructure:"tol"`
	MaxIter int     `json:"max_iter" mapstructure:"max_iter"`
	// CacheSizeMB bounds the kernel row cache
	CacheSizeMB int `json:"cache_size_mb" mapstructure:"cache_size_mb"`
}

// DefaultParams returns rbf kernel, C=1, epsilon=0.1, gamma="scale".
func DefaultParams() Params {
	return Params{
		Kernel:      KernelRBF,
		C:           1.0,
		Epsilon:     0.1,
		Gamma:       GammaScale,
		Degree:      3,
		Coef0:       0.0,
		Tol:         1e-3,
		MaxIter:     10_000_000,
		CacheSizeMB: 200,
	}
}

// LinearParams returns the linear-kernel preset with C=100 and epsilon=0.1.
func LinearParams() Params {
	p := DefaultParams()
	p.Kernel = KernelLinear
	p.C = 100
	p.Epsilon = 0.1
	return p
}

// Preset returns the named parameter preset ("rbf" or "linear").
func Preset(name string) (Params, error) {
	switch name {
	case "", string(KernelRBF):
		return DefaultParams(), nil
	case string(KernelLinear):
		return LinearParams(), nil
	default:
		return Params{}, svrErrors.NewValidationError("preset", "must be rbf or linear", name)
	}
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if _, err := ParseKernel(string(p.Kernel)); err != nil {
		return err
	}
	if !(p.C > 0) || math.IsInf(p.C, 0) {
		return svrErrors.NewValidationError("C", "must be positive", p.C)
	}
	if !(p.Epsilon >= 0) || math.IsInf(p.Epsilon, 0) {
		return svrErrors.NewValidationError("epsilon", "must be non-negative", p.Epsilon)
	}
	if !(p.Tol > 0) {
		return svrErrors.NewValidationError("tol", "must be positive", p.Tol)
	}
	if p.MaxIter <= 0 {
		return svrErrors.NewValidationError("max_iter", "must be positive", p.MaxIter)
	}
	if p.Kernel == KernelPoly && p.Degree < 1 {
		return svrErrors.NewValidationError("degree", "must be at least 1", p.Degree)
	}
	switch p.Gamma {
	case "", GammaScale, GammaAuto:
	default:
		if _, err := resolveGamma(p.Gamma, mat.NewDense(1, 1, nil)); err != nil {
			return err
		}
	}
	return nil
}

var _ model.Regressor = (*SVR)(nil)

// SVR is an epsilon-insensitive support vector regressor.
type SVR struct {
	State  *model.StateManager // Public for gob encoding
	Params Params

	// SupportVectors are the training rows with a non-zero dual coefficient
	SupportVectors [][]float64
	// DualCoef holds alpha_i - alpha*_i for each support vector
	DualCoef []float64
	// Intercept is the bias term (-rho)
	Intercept float64
	// GammaValue is the resolved kernel coefficient
	GammaValue float64
	NFeatures  int
	// NIter is the number of SMO iterations of the last Fit
	NIter int

	logger log.Logger
}

// NewSVR creates an unfitted SVR with the given parameters.
func NewSVR(params Params) *SVR {
	return &SVR{
		State:  model.NewStateManager(),
		Params: params,
	}
}

// NewSVRDefault creates an SVR with DefaultParams.
func NewSVRDefault() *SVR {
	return NewSVR(DefaultParams())
}

// getLogger creates the model logger lazily; gob-decoded models arrive
// without one.
func (s *SVR) getLogger() log.Logger {
	if s.logger == nil {
		s.logger = log.GetLoggerWithName("svm").With(
			log.ModelNameKey, "SVR",
			log.ComponentKey, "svm",
		)
	}
	return s.logger
}

func (s *SVR) state() *model.StateManager {
	if s.State == nil {
		s.State = model.NewStateManager()
	}
	return s.State
}

// IsFitted reports whether Fit has completed.
func (s *SVR) IsFitted() bool {
	return s.state().IsFitted()
}

// Fit trains the model on X (n_samples × n_features) and y (n_samples × 1).
//
// Errors:
//   - ErrEmptyData: if X is empty
//   - DimensionError: if X and y have different row counts
//   - ValueError: if y is not a column or the data contains NaN or Inf
//   - ValidationError: if Params are out of range
//
// Reaching MaxIter is not an error; a ConvergenceWarning is emitted and the
// current solution is kept.
func (s *SVR) Fit(X, y mat.Matrix) (err error) {
	defer svrErrors.Recover(&err, "SVR.Fit")

	startTime := time.Now()
	r, c := X.Dims()
	ry, cy := y.Dims()

	s.getLogger().Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)

	if r == 0 || c == 0 {
		return svrErrors.NewModelError("SVR.Fit", "empty data", svrErrors.ErrEmptyData)
	}
	if ry != r {
		return svrErrors.NewDimensionError("SVR.Fit", r, ry, 0)
	}
	if cy != 1 {
		return svrErrors.NewValueError("SVR.Fit", "y must be a column vector")
	}
	if err := s.Params.Validate(); err != nil {
		return err
	}

	rows := make([][]float64, r)
	target := make([]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = mat.Row(nil, i, X)
		target[i] = y.At(i, 0)
		for j, v := range rows[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return svrErrors.NewValueError("SVR.Fit",
					fmt.Sprintf("X contains NaN or Inf at row %d, column %d", i, j))
			}
		}
		if math.IsNaN(target[i]) || math.IsInf(target[i], 0) {
			return svrErrors.NewValueError("SVR.Fit", fmt.Sprintf("y contains NaN or Inf at row %d", i))
		}
	}

	gamma := 0.0
	if s.Params.Kernel != KernelLinear {
		if gamma, err = resolveGamma(s.Params.Gamma, X); err != nil {
			return err
		}
	}
	k := s.kernel(gamma)

	sol := solveEpsilonSVR(rows, target, k, s.Params.C, s.Params.Epsilon,
		s.Params.Tol, s.Params.MaxIter, s.Params.CacheSizeMB)
	if !sol.converged {
		svrErrors.Warn(svrErrors.NewConvergenceWarning("SVR", sol.iter,
			"increase max_iter or scale the input data"))
	}

	s.SupportVectors = s.SupportVectors[:0]
	s.DualCoef = s.DualCoef[:0]
	for i, coef := range sol.coef {
		if coef != 0 {
			s.SupportVectors = append(s.SupportVectors, rows[i])
			s.DualCoef = append(s.DualCoef, coef)
		}
	}
	s.Intercept = -sol.rho
	s.GammaValue = gamma
	s.NFeatures = c
	s.NIter = sol.iter
	s.state().SetDimensions(c, r)
	s.state().SetFitted()

	s.getLogger().Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.IterationsKey, sol.iter,
		"support_vectors", len(s.DualCoef),
		log.DurationMsKey, time.Since(startTime).Milliseconds(),
	)
	return nil
}

func (s *SVR) kernel(gamma float64) kernel {
	return kernel{
		kind:   s.Params.Kernel,
		gamma:  gamma,
		coef0:  s.Params.Coef0,
		degree: s.Params.Degree,
	}
}

// Predict returns an n_samples × 1 matrix of predictions.
//
// Errors:
//   - NotFittedError: if the model hasn't been fitted yet
//   - DimensionError: if X does not have NFeatures columns
func (s *SVR) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer svrErrors.Recover(&err, "SVR.Predict")
	v, err := s.PredictVec(X)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(v.Len(), 1, v.RawVector().Data), nil
}

// PredictVec is Predict returning a vector.
func (s *SVR) PredictVec(X mat.Matrix) (_ *mat.VecDense, err error) {
	defer svrErrors.Recover(&err, "SVR.PredictVec")
	if !s.IsFitted() {
		return nil, svrErrors.NewNotFittedError("SVR", "Predict")
	}
	r, c := X.Dims()
	if r == 0 {
		return nil, svrErrors.NewValueError("SVR.Predict", "no rows to predict")
	}
	if c != s.NFeatures {
		return nil, svrErrors.NewDimensionError("SVR.Predict", s.NFeatures, c, 1)
	}

	k := s.kernel(s.GammaValue)
	out := mat.NewVecDense(r, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		sum := s.Intercept
		for t, sv := range s.SupportVectors {
			sum += s.DualCoef[t] * k.eval(sv, row)
		}
		out.SetVec(i, sum)
	}

	s.getLogger().Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, r,
	)
	return out, nil
}

// Score returns R² of the predictions on X against y.
func (s *SVR) Score(X, y mat.Matrix) (_ float64, err error) {
	defer svrErrors.Recover(&err, "SVR.Score")
	pred, err := s.PredictVec(X)
	if err != nil {
		return 0, err
	}
	truth, err := metrics.ColumnVector("SVR.Score", y)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(truth, pred)
}

// NSupport returns the number of support vectors.
func (s *SVR) NSupport() int {
	return len(s.DualCoef)
}

// GetParams returns the hyperparameters as a map.
func (s *SVR) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"kernel":   string(s.Params.Kernel),
		"C":        s.Params.C,
		"epsilon":  s.Params.Epsilon,
		"gamma":    s.Params.Gamma,
		"degree":   s.Params.Degree,
		"coef0":    s.Params.Coef0,
		"tol":      s.Params.Tol,
		"max_iter": s.Params.MaxIter,
	}
}

func (s *SVR) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("SVR(kernel=%s, C=%g, epsilon=%g)", s.Params.Kernel, s.Params.C, s.Params.Epsilon)
	}
	return fmt.Sprintf("SVR(kernel=%s, C=%g, epsilon=%g, n_features=%d, n_support=%d)",
		s.Params.Kernel, s.Params.C, s.Params.Epsilon, s.NFeatures, s.NSupport())
}
