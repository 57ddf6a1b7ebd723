// Package plots draws actual-vs-predicted charts for the held-out rows.
//
// Interactive charts are built with go-echarts and rendered as a standalone
// HTML page. The same two plots are available as PNG images drawn with
// gonum/plot for the CLI and for download.
package plots

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	svrErrors "github.com/ezoic/svrdash/pkg/errors"
)

// DefaultBarPairs is the number of leading pairs drawn by the bar chart.
const DefaultBarPairs = 25

const (
	actualName    = "Actual"
	predictedName = "Predicted"
)

func checkSeries(op string, actual, predicted []float64) error {
	if len(actual) == 0 {
		return svrErrors.NewValueError(op, "no values to plot")
	}
	if len(predicted) != len(actual) {
		return svrErrors.NewDimensionError(op, len(actual), len(predicted), 0)
	}
	return nil
}

func indexAxis(n int) []int {
	x := make([]int, n)
	for i := range x {
		x[i] = i
	}
	return x
}

// ActualVsPredictedLine is a line chart of both series against the row index
// of the held-out rows.
func ActualVsPredictedLine(actual, predicted []float64) (*charts.Line, error) {
	if err := checkSeries("plots.ActualVsPredictedLine", actual, predicted); err != nil {
		return nil, err
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Actual vs Predicted"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Index"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price", Scale: opts.Bool(true)}),
	)

	actualData := make([]opts.LineData, 0, len(actual))
	predictedData := make([]opts.LineData, 0, len(predicted))
	for i := range actual {
		actualData = append(actualData, opts.LineData{Value: actual[i]})
		predictedData = append(predictedData, opts.LineData{Value: predicted[i]})
	}

	line.SetXAxis(indexAxis(len(actual))).
		AddSeries(actualName, actualData,
			charts.WithLineChartOpts(opts.LineChart{Symbol: "circle", ShowSymbol: opts.Bool(true)})).
		AddSeries(predictedName, predictedData,
			charts.WithLineChartOpts(opts.LineChart{Symbol: "triangle", ShowSymbol: opts.Bool(true)}))
	return line, nil
}

// ActualVsPredictedBars is a grouped bar chart of the first n pairs. A
// non-positive n means DefaultBarPairs.
func ActualVsPredictedBars(actual, predicted []float64, n int) (*charts.Bar, error) {
	if err := checkSeries("plots.ActualVsPredictedBars", actual, predicted); err != nil {
		return nil, err
	}
	n = barCount(len(actual), n)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Actual vs Predicted",
			Subtitle: fmt.Sprintf("first %d held-out rows", n),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price", Scale: opts.Bool(true)}),
	)

	actualData := make([]opts.BarData, n)
	predictedData := make([]opts.BarData, n)
	for i := 0; i < n; i++ {
		actualData[i] = opts.BarData{Value: actual[i]}
		predictedData[i] = opts.BarData{Value: predicted[i]}
	}

	bar.SetXAxis(indexAxis(n)).
		AddSeries(actualName, actualData).
		AddSeries(predictedName, predictedData)
	return bar, nil
}

func barCount(available, n int) int {
	if n <= 0 {
		n = DefaultBarPairs
	}
	if n > available {
		n = available
	}
	return n
}

// RenderPage writes an HTML page holding the line and bar charts.
func RenderPage(w io.Writer, title string, actual, predicted []float64, pairs int) error {
	line, err := ActualVsPredictedLine(actual, predicted)
	if err != nil {
		return err
	}
	bar, err := ActualVsPredictedBars(actual, predicted, pairs)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(line, bar)
	if err := page.Render(w); err != nil {
		return svrErrors.Wrap(err, "failed to render chart page")
	}
	return nil
}
