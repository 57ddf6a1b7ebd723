package errors

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
)

// Recover converts a panic in the calling function into an error stored in *err.
// It must be deferred directly:
//
//	func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
//		defer errors.Recover(&err, "StandardScaler.Fit")
//		...
//	}
//
// gonum panics on shape mismatches (mat.ErrShape and friends), so every public
// estimator method defers Recover.
func Recover(err *error, op string) {
	r := recover()
	if r == nil {
		return
	}
	var cause error
	switch v := r.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("%v", v)
	}
	*err = errors.WithStack(&ModelError{Op: op, Kind: "panic recovered", Err: cause})
}

var (
	warnMu      sync.RWMutex
	warnHandler = defaultWarnHandler
)

func defaultWarnHandler(w error) {
	log.Warn().Err(w).Msg("warning")
}

// SetWarningHandler replaces the function Warn forwards to. Passing nil restores
// the default, which logs through the global zerolog logger.
func SetWarningHandler(h func(error)) {
	warnMu.Lock()
	defer warnMu.Unlock()
	if h == nil {
		h = defaultWarnHandler
	}
	warnHandler = h
}

// Warn reports a non-fatal condition such as a ConvergenceWarning.
func Warn(w error) {
	if w == nil {
		return
	}
	warnMu.RLock()
	h := warnHandler
	warnMu.RUnlock()
	h(w)
}
