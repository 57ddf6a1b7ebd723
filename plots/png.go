package plots

import (
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	svrErrors "github.com/ezoic/svrdash/pkg/errors"
)

// PNG image size.
var (
	PNGWidth  = 8 * vg.Inch
	PNGHeight = 5 * vg.Inch
)

func indexXYs(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	return pts
}

// LinePNG draws both series against the row index as a PNG image. Each series
// gets its own color, dash pattern and glyph.
func LinePNG(w io.Writer, actual, predicted []float64) error {
	if err := checkSeries("plots.LinePNG", actual, predicted); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "Actual vs Predicted"
	p.X.Label.Text = "Index"
	p.Y.Label.Text = "Price"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	if err := plotutil.AddLinePoints(p,
		actualName, indexXYs(actual),
		predictedName, indexXYs(predicted),
	); err != nil {
		return svrErrors.Wrap(err, "failed to add line plot")
	}
	return writePNG(p, w)
}

// BarPNG draws the first n pairs as grouped bars. A non-positive n means
// DefaultBarPairs.
func BarPNG(w io.Writer, actual, predicted []float64, n int) error {
	if err := checkSeries("plots.BarPNG", actual, predicted); err != nil {
		return err
	}
	n = barCount(len(actual), n)

	width := vg.Points(8)
	actualBars, err := plotter.NewBarChart(plotter.Values(actual[:n]), width)
	if err != nil {
		return svrErrors.Wrap(err, "failed to build bar chart")
	}
	actualBars.LineStyle.Width = vg.Length(0)
	actualBars.Color = plotutil.Color(0)
	actualBars.Offset = -width / 2

	predictedBars, err := plotter.NewBarChart(plotter.Values(predicted[:n]), width)
	if err != nil {
		return svrErrors.Wrap(err, "failed to build bar chart")
	}
	predictedBars.LineStyle.Width = vg.Length(0)
	predictedBars.Color = plotutil.Color(1)
	predictedBars.Offset = width / 2

	p := plot.New()
	p.Title.Text = "Actual vs Predicted (first " + strconv.Itoa(n) + ")"
	p.Y.Label.Text = "Price"
	p.Legend.Top = true
	p.Add(actualBars, predictedBars)
	p.Legend.Add(actualName, actualBars)
	p.Legend.Add(predictedName, predictedBars)

	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}
	p.NominalX(labels...)
	return writePNG(p, w)
}

func writePNG(p *plot.Plot, w io.Writer) error {
	wt, err := p.WriterTo(PNGWidth, PNGHeight, "png")
	if err != nil {
		return svrErrors.Wrap(err, "failed to create PNG writer")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return svrErrors.Wrap(err, "failed to write PNG")
	}
	return nil
}
