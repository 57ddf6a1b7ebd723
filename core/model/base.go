// Package model provides the estimator building blocks shared by svrdash's
// preprocessing and regression packages.
//
//   - BaseEstimator: fitted-state tracking for transformers (StandardScaler, SimpleImputer)
//   - StateManager: fitted state plus training dimensions, used by composition (SVR)
//   - Persistence: gob save/load of fitted estimators and bundles
//   - Export: a versioned JSON envelope for inspecting fitted models
//
// Example usage:
//
//	type MyTransformer struct {
//		model.BaseEstimator
//		// transformer-specific fields
//	}
//
//	func (m *MyTransformer) Fit(X mat.Matrix) error {
//		// fitting logic
//		m.SetFitted()
//		return nil
//	}
package model

import "gonum.org/v1/gonum/mat"

// EstimatorState represents the learning state of a model
type EstimatorState int

const (
	// NotFitted indicates the model is not yet trained
	NotFitted EstimatorState = iota
	// Fitted indicates the model has been trained
	Fitted
)

// BaseEstimator is embedded by transformers. State is exported for gob encoding.
type BaseEstimator struct {
	State EstimatorState
}

// IsFitted returns whether the estimator has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted marks the estimator as fitted. Only called from Fit implementations.
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset returns the estimator to its unfitted state.
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}

// Transformer learns a transformation from X and applies it.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// Regressor learns a mapping from X to a single continuous target.
type Regressor interface {
	Fit(X, y mat.Matrix) error
	Predict(X mat.Matrix) (mat.Matrix, error)
	IsFitted() bool
}
