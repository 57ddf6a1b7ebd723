package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ezoic/svrdash/dataset"
	"github.com/ezoic/svrdash/metrics"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/predictor"
	"github.com/ezoic/svrdash/svm"
)

type runRequest struct {
	Features   []string `json:"features"`
	Target     string   `json:"target"`
	TrainRatio float64  `json:"train_ratio" binding:"omitempty,gt=0,lt=1"`

	// Preset replaces the session's model settings before the fields below
	// are applied.
	Preset  string   `json:"preset" binding:"omitempty,oneof=rbf linear"`
	Kernel  string   `json:"kernel"`
	C       *float64 `json:"C" binding:"omitempty,gt=0"`
	Epsilon *float64 `json:"epsilon" binding:"omitempty,gte=0"`
	Gamma   string   `json:"gamma"`
}

type runResponse struct {
	Session      string             `json:"session"`
	Selection    dataset.Selection  `json:"selection"`
	Params       svm.Params         `json:"params"`
	TrainSize    int                `json:"train_size"`
	TestSize     int                `json:"test_size"`
	Metrics      metrics.Report     `json:"metrics"`
	Baseline     *metrics.Report    `json:"baseline,omitempty"`
	MetricLines  []string           `json:"metric_lines"`
	Warnings     []string           `json:"warnings"`
	Actual       []float64          `json:"actual"`
	Predicted    []float64          `json:"predicted"`
	FeatureMeans map[string]float64 `json:"feature_means"`
	NSupport     int                `json:"n_support"`
	DurationMs   int64              `json:"duration_ms"`
}

type predictRequest struct {
	Values map[string]float64 `json:"values"`
	Row    []float64          `json:"row"`
}

type predictResponse struct {
	Target     string             `json:"target"`
	Inputs     map[string]float64 `json:"inputs"`
	Prediction float64            `json:"prediction"`
	Formatted  string             `json:"formatted"`
}

type sessionResponse struct {
	ID               string                  `json:"id"`
	Filename         string                  `json:"filename"`
	Rows             int                     `json:"rows"`
	Columns          []string                `json:"columns"`
	NumericColumns   []string                `json:"numeric_columns"`
	DefaultSelection dataset.Selection       `json:"default_selection"`
	Summary          []dataset.ColumnSummary `json:"summary"`
	Cleaned          *dataset.CleanReport    `json:"cleaned,omitempty"`
	Fitted           bool                    `json:"fitted"`
}

func (s *Server) apiError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func (s *Server) apiSessionFor(c *gin.Context) (*Session, bool) {
	sess, err := s.store.Get(c.Param("id"))
	if err != nil {
		s.apiError(c, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) apiSession(c *gin.Context) {
	sess, ok := s.apiSessionFor(c)
	if !ok {
		return
	}
	_, res, _ := sess.Snapshot()
	f := sess.Frame
	c.JSON(http.StatusOK, sessionResponse{
		ID:               sess.ID,
		Filename:         sess.Filename,
		Rows:             f.Len(),
		Columns:          f.Columns(),
		NumericColumns:   f.NumericColumns(),
		DefaultSelection: f.DefaultSelection(),
		Summary:          f.Summary(),
		Cleaned:          sess.Cleaned,
		Fitted:           res != nil,
	})
}

func (s *Server) apiDelete(c *gin.Context) {
	if _, ok := s.apiSessionFor(c); !ok {
		return
	}
	s.store.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) apiRun(c *gin.Context) {
	sess, ok := s.apiSessionFor(c)
	if !ok {
		return
	}
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.apiError(c, svrErrors.NewValueError("api.run", err.Error()))
		return
	}
	base, _, _ := sess.Snapshot()
	opts, err := req.options(base)
	if err != nil {
		s.apiError(c, err)
		return
	}
	res, err := sess.Run(opts)
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRunResponse(sess.ID, res))
}

// options overlays the request on base.
func (r runRequest) options(base predictor.Options) (predictor.Options, error) {
	opts := base
	opts.Selection = dataset.Selection{Features: r.Features, Target: r.Target}
	if r.TrainRatio != 0 {
		opts.TrainRatio = r.TrainRatio
	}
	if r.Preset != "" {
		p, err := svm.Preset(r.Preset)
		if err != nil {
			return base, err
		}
		opts.Params = p
	}
	if r.Kernel != "" {
		k, err := svm.ParseKernel(r.Kernel)
		if err != nil {
			return base, err
		}
		opts.Params.Kernel = k
	}
	if r.C != nil {
		opts.Params.C = *r.C
	}
	if r.Epsilon != nil {
		opts.Params.Epsilon = *r.Epsilon
	}
	if r.Gamma != "" {
		opts.Params.Gamma = r.Gamma
	}
	return opts, opts.Params.Validate()
}

func newRunResponse(id string, res *predictor.Result) runResponse {
	means := make(map[string]float64, len(res.Selection.Features))
	for i, name := range res.Selection.Features {
		means[name] = res.FeatureMeans[i]
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return runResponse{
		Session:      id,
		Selection:    res.Selection,
		Params:       res.Model.Params,
		TrainSize:    res.TrainSize,
		TestSize:     res.TestSize,
		Metrics:      res.Metrics,
		Baseline:     res.Baseline,
		MetricLines:  res.Metrics.Lines(),
		Warnings:     warnings,
		Actual:       res.Actual,
		Predicted:    res.Predicted,
		FeatureMeans: means,
		NSupport:     res.Model.NSupport(),
		DurationMs:   res.Duration.Milliseconds(),
	}
}

func (s *Server) apiPredict(c *gin.Context) {
	sess, ok := s.apiSessionFor(c)
	if !ok {
		return
	}
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.apiError(c, svrErrors.NewValueError("api.predict", err.Error()))
		return
	}

	var (
		pred *Prediction
		err  error
	)
	switch {
	case len(req.Row) > 0 && len(req.Values) > 0:
		err = svrErrors.NewValueError("api.predict", "send either values or row, not both")
	case len(req.Row) > 0:
		pred, err = sess.PredictRow(req.Row)
	default:
		pred, err = sess.Predict(req.Values)
	}
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, predictResponse{
		Target:     pred.Target,
		Inputs:     pred.Inputs,
		Prediction: pred.Value,
		Formatted:  strconv.FormatFloat(pred.Value, 'f', 2, 64),
	})
}
