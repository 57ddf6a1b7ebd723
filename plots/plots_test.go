package plots_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/svrdash/plots"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
)

func series(n int) (actual, predicted []float64) {
	actual = make([]float64, n)
	predicted = make([]float64, n)
	for i := 0; i < n; i++ {
		actual[i] = 100 + float64(i)
		predicted[i] = 100.5 + float64(i)
	}
	return actual, predicted
}

func TestRenderPage(t *testing.T) {
	actual, predicted := series(40)

	var buf bytes.Buffer
	require.NoError(t, plots.RenderPage(&buf, "AAPL", actual, predicted, 0))

	html := buf.String()
	assert.Contains(t, html, "<title>AAPL</title>")
	assert.Contains(t, html, "Actual")
	assert.Contains(t, html, "Predicted")
	assert.Contains(t, html, "first 25 held-out rows")
}

func TestActualVsPredictedBars_ClampsToAvailable(t *testing.T) {
	actual, predicted := series(3)

	bar, err := plots.ActualVsPredictedBars(actual, predicted, 25)
	require.NoError(t, err)
	require.Len(t, bar.MultiSeries, 2)
	assert.Len(t, bar.MultiSeries[0].Data, 3)
}

func TestPlots_InputErrors(t *testing.T) {
	_, err := plots.ActualVsPredictedLine(nil, nil)
	assert.True(t, svrErrors.Is(err, svrErrors.ErrInvalidInput))

	_, err = plots.ActualVsPredictedLine([]float64{1, 2}, []float64{1})
	assert.True(t, svrErrors.Is(err, svrErrors.ErrDimensionMismatch))

	var buf bytes.Buffer
	assert.Error(t, plots.LinePNG(&buf, []float64{1}, nil))
	assert.Error(t, plots.BarPNG(&buf, nil, nil, 5))
}

func TestPNGOutputDecodes(t *testing.T) {
	actual, predicted := series(30)

	tests := []struct {
		name string
		draw func(*bytes.Buffer) error
	}{
		{"line", func(b *bytes.Buffer) error { return plots.LinePNG(b, actual, predicted) }},
		{"bars", func(b *bytes.Buffer) error { return plots.BarPNG(b, actual, predicted, plots.DefaultBarPairs) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.draw(&buf))

			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.Greater(t, img.Bounds().Dx(), 0)
		})
	}
}
