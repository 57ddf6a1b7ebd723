package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ezoic/svrdash/dataset"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/pkg/log"
	"github.com/ezoic/svrdash/plots"
	"github.com/ezoic/svrdash/predictor"
	"github.com/ezoic/svrdash/svm"
)

const pageTitle = "Stock Price Predictor"

type indexPage struct {
	Title       string
	Error       string
	Clean       bool
	DropColumn  string
	MaxUploadMB int64
}

type option struct {
	Name    string
	Checked bool
}

type inputField struct {
	Name  string
	Value string
}

type sessionPage struct {
	Title    string
	ID       string
	Filename string
	Error    string

	Rows    int
	Columns []string
	Preview dataset.Preview
	Summary []dataset.ColumnSummary
	Cleaned *dataset.CleanReport

	Features []option
	Targets  []option
	Kernels  []option
	C        float64
	Epsilon  float64

	Result      *predictor.Result
	MetricLines []string
	Inputs      []inputField
	Prediction  string
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.indexPage(""))
}

func (s *Server) indexPage(msg string) indexPage {
	return indexPage{
		Title:       pageTitle,
		Error:       msg,
		Clean:       s.cfg.Data.Clean,
		DropColumn:  s.cfg.Data.DropColumn,
		MaxUploadMB: s.cfg.Server.MaxUploadMB,
	}
}

func (s *Server) handleUpload(c *gin.Context) {
	sess, err := s.upload(c)
	if err != nil {
		_ = c.Error(err)
		c.HTML(statusFor(err), "index.html", s.indexPage(err.Error()))
		return
	}
	c.Redirect(http.StatusSeeOther, "/sessions/"+sess.ID)
}

// upload reads the multipart file field into a new session, cleaning it first
// when requested.
func (s *Server) upload(c *gin.Context) (*Session, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Server.MaxUploadMB<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if svrErrors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
			return nil, svrErrors.Wrapf(ErrUploadTooLarge, "file larger than %d MB", s.cfg.Server.MaxUploadMB)
		}
		return nil, svrErrors.NewValueError("upload", "choose a CSV file to upload")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		return nil, svrErrors.NewValueError("upload", fmt.Sprintf("%s is not a .csv file", fh.Filename))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, svrErrors.Wrap(err, "failed to open upload")
	}
	defer f.Close()

	frame, err := dataset.ReadCSV(f)
	if err != nil {
		return nil, err
	}

	clean := s.cfg.Data.Clean
	if v, ok := c.GetPostForm("clean"); ok {
		clean = v == "on" || v == "true" || v == "1"
	}
	var report *dataset.CleanReport
	if clean {
		cleaned, rep, err := frame.Clean(s.cfg.Data.CleanOptions)
		if err != nil {
			return nil, err
		}
		frame, report = cleaned, &rep
	}

	sess := s.store.Create(fh.Filename, frame, report, s.defaultOptions())
	s.logger.Info("Dataset uploaded",
		log.SessionKey, sess.ID,
		log.PhaseKey, log.PhaseIngestion,
		"file", fh.Filename,
		log.SamplesKey, frame.Len(),
		"columns", len(frame.Columns()),
		"cleaned", clean,
	)
	return sess, nil
}

// session resolves the :id parameter. On failure it has already written the
// error response.
func (s *Server) session(c *gin.Context) (*Session, bool) {
	sess, err := s.store.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return sess, true
}

// fail writes err as a plain-text response for non-page routes.
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.String(statusFor(err), err.Error())
}

func (s *Server) handleSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "session.html", s.sessionPage(sess, ""))
}

func (s *Server) renderSessionError(c *gin.Context, sess *Session, err error) {
	_ = c.Error(err)
	c.HTML(statusFor(err), "session.html", s.sessionPage(sess, err.Error()))
}

func (s *Server) handleRun(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	opts, _, _ := sess.Snapshot()
	opts, err := optionsFromForm(c, opts)
	if err == nil {
		_, err = sess.Run(opts)
	}
	if err != nil {
		s.renderSessionError(c, sess, err)
		return
	}
	c.HTML(http.StatusOK, "session.html", s.sessionPage(sess, ""))
}

// optionsFromForm overlays the submitted selection and model settings on base.
func optionsFromForm(c *gin.Context, base predictor.Options) (predictor.Options, error) {
	opts := base
	opts.Selection = dataset.Selection{
		Features: c.PostFormArray("features"),
		Target:   c.PostForm("target"),
	}
	if v := c.PostForm("kernel"); v != "" {
		k, err := svm.ParseKernel(v)
		if err != nil {
			return base, err
		}
		opts.Params.Kernel = k
	}
	var err error
	if opts.Params.C, err = formFloat(c, "c", opts.Params.C); err != nil {
		return base, err
	}
	if opts.Params.Epsilon, err = formFloat(c, "epsilon", opts.Params.Epsilon); err != nil {
		return base, err
	}
	return opts, nil
}

func formFloat(c *gin.Context, name string, def float64) (float64, error) {
	v := strings.TrimSpace(c.PostForm(name))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, svrErrors.NewValidationError(name, "must be a number", v)
	}
	return f, nil
}

func (s *Server) handlePredict(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	res, err := sess.Result()
	if err != nil {
		s.renderSessionError(c, sess, err)
		return
	}

	values := make(map[string]float64, len(res.Selection.Features))
	for _, name := range res.Selection.Features {
		v := strings.TrimSpace(c.PostForm(name))
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			s.renderSessionError(c, sess, svrErrors.NewValueError("predict",
				fmt.Sprintf("enter a number for %s", name)))
			return
		}
		values[name] = f
	}
	if _, err := sess.Predict(values); err != nil {
		s.renderSessionError(c, sess, err)
		return
	}
	c.HTML(http.StatusOK, "session.html", s.sessionPage(sess, ""))
}

// sessionPage builds the page model from the session's current state.
func (s *Server) sessionPage(sess *Session, msg string) sessionPage {
	opts, res, pred := sess.Snapshot()
	frame := sess.Frame

	// After a failed run the form keeps what the user submitted.
	sel := opts.Selection
	if msg == "" && res != nil {
		sel = res.Selection
	}
	if sel.Target == "" && len(sel.Features) == 0 {
		sel = frame.DefaultSelection()
	}
	chosen := make(map[string]bool, len(sel.Features))
	for _, f := range sel.Features {
		chosen[f] = true
	}

	numeric := frame.NumericColumns()
	page := sessionPage{
		Title:    pageTitle + " - " + sess.Filename,
		ID:       sess.ID,
		Filename: sess.Filename,
		Error:    msg,
		Rows:     frame.Len(),
		Columns:  frame.Columns(),
		Preview:  frame.Head(s.cfg.Data.PreviewRows),
		Summary:  frame.Summary(),
		Cleaned:  sess.Cleaned,
		C:        opts.Params.C,
		Epsilon:  opts.Params.Epsilon,
		Result:   res,
	}
	for _, name := range numeric {
		page.Features = append(page.Features, option{Name: name, Checked: chosen[name]})
		page.Targets = append(page.Targets, option{Name: name, Checked: name == sel.Target})
	}
	for _, k := range []svm.KernelType{svm.KernelRBF, svm.KernelLinear, svm.KernelPoly, svm.KernelSigmoid} {
		page.Kernels = append(page.Kernels, option{Name: string(k), Checked: k == opts.Params.Kernel})
	}

	if res != nil {
		page.MetricLines = res.Metrics.Lines()
		for i, name := range res.Selection.Features {
			v := res.FeatureMeans[i]
			if pred != nil {
				v = pred.Inputs[name]
			}
			page.Inputs = append(page.Inputs, inputField{Name: name, Value: strconv.FormatFloat(v, 'f', -1, 64)})
		}
	}
	if pred != nil {
		page.Prediction = strconv.FormatFloat(pred.Value, 'f', 2, 64)
	}
	return page
}

func (s *Server) handleCharts(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	res, err := sess.Result()
	if err != nil {
		s.fail(c, err)
		return
	}
	var buf bytes.Buffer
	title := sess.Filename + ": " + res.Selection.Target
	if err := plots.RenderPage(&buf, title, res.Actual, res.Predicted, s.cfg.Data.BarPairs); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleLinePNG(c *gin.Context) {
	s.servePNG(c, func(w io.Writer, res *predictor.Result) error {
		return plots.LinePNG(w, res.Actual, res.Predicted)
	})
}

func (s *Server) handleBarsPNG(c *gin.Context) {
	s.servePNG(c, func(w io.Writer, res *predictor.Result) error {
		return plots.BarPNG(w, res.Actual, res.Predicted, s.cfg.Data.BarPairs)
	})
}

func (s *Server) servePNG(c *gin.Context, draw func(io.Writer, *predictor.Result) error) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	res, err := sess.Result()
	if err != nil {
		s.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := draw(&buf, res); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handleModel(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	res, err := sess.Result()
	if err != nil {
		s.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := res.Bundle.Save(&buf); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="svr-model.gob"`)
	c.Data(http.StatusOK, "application/octet-stream", buf.Bytes())
}

// handleModelJSON serves the fitted SVR (support vectors, dual coefficients,
// intercept and parameters) as JSON.
func (s *Server) handleModelJSON(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	res, err := sess.Result()
	if err != nil {
		s.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := res.Model.ExportJSON(&buf); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="svr-model.json"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}
