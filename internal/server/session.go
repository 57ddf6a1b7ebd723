package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ezoic/svrdash/dataset"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/predictor"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = svrErrors.New("session not found")
	// ErrUploadTooLarge is returned when an upload exceeds the size limit.
	ErrUploadTooLarge = svrErrors.New("upload too large")
)

// Session is one uploaded dataset and everything derived from it. A session
// owns its frame, scaler and model; nothing is shared between sessions.
type Session struct {
	ID       string
	Filename string
	Frame    *dataset.Frame
	Cleaned  *dataset.CleanReport
	Created  time.Time

	// mu serializes pipeline runs and predictions within the session.
	mu         sync.Mutex
	options    predictor.Options
	result     *predictor.Result
	prediction *Prediction
	lastUsed   time.Time
}

// Prediction is the last single-point prediction of a session.
type Prediction struct {
	Target string             `json:"target"`
	Inputs map[string]float64 `json:"inputs"`
	Value  float64            `json:"prediction"`
}

// Store keeps sessions in memory. Sessions expire ttl after their last use.
// When the store is full the least recently used session is evicted.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore(ttl time.Duration, maxSessions int) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		max:      maxSessions,
		now:      time.Now,
	}
}

// Create registers a new session for frame.
// cleaned may be nil.
func (s *Store) Create(filename string, frame *dataset.Frame, cleaned *dataset.CleanReport, opts predictor.Options) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	if s.max > 0 && len(s.sessions) >= s.max {
		s.evictOldestLocked()
	}

	sess := &Session{
		ID:       uuid.NewString(),
		Filename: filename,
		Frame:    frame,
		Cleaned:  cleaned,
		Created:  now,
		options:  opts,
		lastUsed: now,
	}
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session with id and marks it as used.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, svrErrors.Wrapf(ErrSessionNotFound, "session %q", id)
	}
	now := s.now()
	if s.expired(sess, now) {
		delete(s.sessions, id)
		return nil, svrErrors.Wrapf(ErrSessionNotFound, "session %q expired", id)
	}
	sess.lastUsed = now
	return sess, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len is the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.lastUsed) > s.ttl
}

func (s *Store) sweepLocked(now time.Time) int {
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) evictOldestLocked() {
	var oldest *Session
	for _, sess := range s.sessions {
		if oldest == nil || sess.lastUsed.Before(oldest.lastUsed) {
			oldest = sess
		}
	}
	if oldest != nil {
		delete(s.sessions, oldest.ID)
	}
}

// Run re-derives the model from the frame with opts. On success the result
// replaces the previous one and the last prediction is cleared. On failure the
// previous result is kept.
func (sess *Session) Run(opts predictor.Options) (*predictor.Result, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.options = opts
	res, err := predictor.Run(sess.Frame, opts)
	if err != nil {
		return nil, err
	}
	sess.result = res
	sess.prediction = nil
	return res, nil
}

// Predict predicts the target from named feature values using the last
// result's fitted scaler and model.
func (sess *Session) Predict(values map[string]float64) (*Prediction, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.result == nil {
		return nil, svrErrors.NewNotFittedError("session", "Predict")
	}
	return sess.predictLocked(values)
}

// predictLocked requires sess.mu and a result.
func (sess *Session) predictLocked(values map[string]float64) (*Prediction, error) {
	v, err := sess.result.PredictNamed(values)
	if err != nil {
		return nil, err
	}
	sess.prediction = &Prediction{Target: sess.result.Selection.Target, Inputs: values, Value: v}
	return sess.prediction, nil
}

// Snapshot returns the current options, result and prediction.
func (sess *Session) Snapshot() (predictor.Options, *predictor.Result, *Prediction) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.options, sess.result, sess.prediction
}

// Result returns the last successful result or a NotFittedError.
func (sess *Session) Result() (*predictor.Result, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.result == nil {
		return nil, svrErrors.NewNotFittedError("session", "Result")
	}
	return sess.result, nil
}

// PredictRow is Predict with values in the order of the fitted features.
func (sess *Session) PredictRow(row []float64) (*Prediction, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.result == nil {
		return nil, svrErrors.NewNotFittedError("session", "PredictRow")
	}
	features := sess.result.Selection.Features
	if len(row) != len(features) {
		return nil, svrErrors.NewDimensionError("session.PredictRow", len(features), len(row), 1)
	}
	values := make(map[string]float64, len(row))
	for i, name := range features {
		values[name] = row[i]
	}
	return sess.predictLocked(values)
}
