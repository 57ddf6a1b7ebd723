package server

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/predictor"
)

const (
	predictionsSheet = "Predictions"
	metricsSheet     = "Metrics"
	modelSheet       = "Model"
)

func (s *Server) handleExport(c *gin.Context) {
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
	if err := writeWorkbook(&buf, res); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="predictions.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// writeWorkbook writes the held-out predictions, the metrics and the model
// settings as three sheets.
func writeWorkbook(buf *bytes.Buffer, res *predictor.Result) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = svrErrors.Wrap(cerr, "failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", predictionsSheet); err != nil {
		return svrErrors.Wrap(err, "failed to name sheet")
	}
	rows := [][]interface{}{{"Index", "Actual", "Predicted", "Residual"}}
	for i := range res.Actual {
		rows = append(rows, []interface{}{i, res.Actual[i], res.Predicted[i], res.Actual[i] - res.Predicted[i]})
	}
	if err := setRows(f, predictionsSheet, rows); err != nil {
		return err
	}

	m := res.Metrics
	metricRows := [][]interface{}{
		{"Metric", "Value"},
		{"R-squared", m.R2},
		{"Mean Absolute Error", m.MAE},
		{"Mean Squared Error", m.MSE},
		{"Root Mean Squared Error", m.RMSE},
		{"Train rows", res.TrainSize},
		{"Test rows", res.TestSize},
	}
	if b := res.Baseline; b != nil {
		metricRows = append(metricRows,
			[]interface{}{"Linear baseline R-squared", b.R2},
			[]interface{}{"Linear baseline RMSE", b.RMSE})
	}
	if _, err := f.NewSheet(metricsSheet); err != nil {
		return svrErrors.Wrap(err, "failed to add sheet")
	}
	if err := setRows(f, metricsSheet, metricRows); err != nil {
		return err
	}

	p := res.Model.Params
	modelRows := [][]interface{}{
		{"Setting", "Value"},
		{"Target", res.Selection.Target},
		{"Kernel", string(p.Kernel)},
		{"C", p.C},
		{"Epsilon", p.Epsilon},
		{"Gamma", p.Gamma},
		{"Support vectors", res.Model.NSupport()},
	}
	for i, name := range res.Selection.Features {
		modelRows = append(modelRows, []interface{}{"Feature " + name + " mean", res.FeatureMeans[i]})
	}
	if _, err := f.NewSheet(modelSheet); err != nil {
		return svrErrors.Wrap(err, "failed to add sheet")
	}
	if err := setRows(f, modelSheet, modelRows); err != nil {
		return err
	}

	if err := f.Write(buf); err != nil {
		return svrErrors.Wrap(err, "failed to write workbook")
	}
	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return svrErrors.Wrap(err, "invalid cell")
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return svrErrors.Wrapf(err, "failed to write %s row %d", sheet, i+1)
		}
	}
	return nil
}
