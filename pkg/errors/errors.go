// Package errors provides the error types used across svrdash.
//
// It wraps github.com/cockroachdb/errors so that every error carries a stack
// trace when printed with %+v, while the typed errors below keep working with
// the standard errors.Is / errors.As helpers:
//
//   - DimensionError: matrix or vector shapes do not agree
//   - NotFittedError: an estimator was used before Fit
//   - ValueError: an input value is invalid (empty data, unknown column, ...)
//   - ModelError: a failure inside an estimator, wrapping a sentinel cause
//   - ValidationError: a parameter failed validation
//   - ConvergenceWarning: a solver stopped before reaching its tolerance
//
// Example:
//
//	if err := scaler.Fit(X); err != nil {
//		var dimErr *errors.DimensionError
//		if errors.As(err, &dimErr) {
//			// handle shape mismatch
//		}
//	}
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors.
var (
	ErrNotImplemented    = errors.New("not implemented")
	ErrEmptyData         = errors.New("empty data")
	ErrSingularMatrix    = errors.New("singular matrix")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrNotFitted         = errors.New("not fitted")
	ErrInvalidInput      = errors.New("invalid input")
)

// New creates an error with a stack trace.
func New(msg string) error { return errors.New(msg) }

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

// Wrap annotates err with a message. Returns nil if err is nil.
func Wrap(err error, msg string) error { return errors.Wrap(err, msg) }

// Wrapf annotates err with a formatted message. Returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Unwrap returns the next error in err's chain.
func Unwrap(err error) error { return errors.Unwrap(err) }

// DimensionError reports a shape mismatch along an axis (0 = rows, 1 = columns).
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("svrdash: %s: dimension mismatch: expected %d, got %d (axis %d)",
		e.Op, e.Expected, e.Got, e.Axis)
}

// Unwrap lets errors.Is match ErrDimensionMismatch.
func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionError creates a DimensionError.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// NotFittedError reports that Method was called on an unfitted model.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("svrdash: %s: this instance is not fitted yet, call Fit before %s",
		e.ModelName, e.Method)
}

// Unwrap lets errors.Is match ErrNotFitted.
func (e *NotFittedError) Unwrap() error { return ErrNotFitted }

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// ValueError reports an invalid input value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("svrdash: %s: %s", e.Op, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValueError) Unwrap() error { return ErrInvalidInput }

// NewValueError creates a ValueError.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError is a failure inside an estimator. Err is usually one of the sentinels.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("svrdash: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError creates a ModelError.
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ValidationError reports a parameter that failed validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("svrdash: invalid %s: %s (got %v)", e.ParamName, e.Reason, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError creates a ValidationError.
func NewValidationError(paramName, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: paramName, Reason: reason, Value: value})
}

// ConvergenceWarning is emitted when an iterative solver stops at its iteration cap.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("svrdash: %s failed to converge after %d iterations: %s",
		w.Algorithm, w.Iterations, w.Message)
}

// NewConvergenceWarning creates a ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}
