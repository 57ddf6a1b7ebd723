package dataset_test

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/svrdash/dataset"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
)

const pricesCSV = `Date,Open,High,Low,Close,Adj Close,Volume
2023-01-02,100,102,99,101,101,1000
2023-01-03,101,NA,100,102,102,1100
2023-01-04,,104,101,103,103,
2023-01-05,103,105,102,104,104,1300
`

func readPrices(t *testing.T) *dataset.Frame {
	t.Helper()
	f, err := dataset.ReadCSV(strings.NewReader(pricesCSV))
	require.NoError(t, err)
	return f
}

func TestReadCSV(t *testing.T) {
	f := readPrices(t)

	assert.Equal(t, 4, f.Len())
	assert.Equal(t, []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}, f.Columns())
	assert.Equal(t, []string{"Open", "High", "Low", "Close", "Adj Close", "Volume"}, f.NumericColumns())
	assert.False(t, f.IsNumeric("Date"))
	assert.Equal(t, 1, f.Missing("Open"))
	assert.Equal(t, 1, f.Missing("High"))
	assert.Equal(t, 0, f.Missing("Close"))
}

func TestReadCSV_ByteOrderMark(t *testing.T) {
	in := "\ufeffDate,Open,Close\n2024-01-02,1,2\n2024-01-03,2,3\n"
	f, err := dataset.ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Open", "Close"}, f.Columns())
	assert.False(t, f.IsNumeric("Date"))

	cleaned, report, err := f.Clean(dataset.DefaultCleanOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, report.DatesNormalized)
	dates, err := cleaned.Strings("Date")
	require.NoError(t, err)
	assert.Equal(t, []string{"02-01-2024", "03-01-2024"}, dates)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"header only", "Open,Close\n"},
		{"ragged rows", "Open,Close\n1,2\n3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dataset.ReadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, svrErrors.Is(err, svrErrors.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestFrame_ColumnErrors(t *testing.T) {
	f := readPrices(t)

	_, err := f.Column("Price")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Price" not found`)

	_, err = f.Column("Date")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not numeric")

	_, err = f.Matrix([]string{"Open", "Close"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Open" has 1 missing values`)
}

func TestFrame_Clean(t *testing.T) {
	f := readPrices(t)

	openBefore, err := f.Mean("Open")
	require.NoError(t, err)
	volumeBefore, err := f.Mean("Volume")
	require.NoError(t, err)

	cleaned, report, err := f.Clean(dataset.DefaultCleanOptions())
	require.NoError(t, err)

	assert.Equal(t, "Adj Close", report.Dropped)
	assert.False(t, cleaned.HasColumn("Adj Close"))
	assert.True(t, f.HasColumn("Adj Close"), "the source frame is not modified")
	assert.Equal(t, 4, report.DatesNormalized)
	assert.Equal(t, map[string]int{"Open": 1, "High": 1, "Volume": 1}, report.Filled)

	dates, err := cleaned.Strings("Date")
	require.NoError(t, err)
	assert.Equal(t, []string{"02-01-2023", "03-01-2023", "04-01-2023", "05-01-2023"}, dates)

	for _, name := range []string{"Open", "High", "Low", "Close", "Volume"} {
		assert.Zero(t, cleaned.Missing(name), name)
	}

	open, err := cleaned.Column("Open")
	require.NoError(t, err)
	assert.InDelta(t, openBefore, open[2], 1e-9)
	assert.InDelta(t, (100.0+101+103)/3, open[2], 1e-9)

	volume, err := cleaned.Column("Volume")
	require.NoError(t, err)
	assert.InDelta(t, volumeBefore, volume[2], 1e-9)
	assert.InDelta(t, volumeBefore, report.FillValues["Volume"], 1e-9)
	assert.Equal(t, 1000.0, volume[0])
}

func TestFrame_CleanWithoutOptionalColumns(t *testing.T) {
	f, err := dataset.ReadCSV(strings.NewReader("Open,Close\n1,2\n,4\n3,6\n"))
	require.NoError(t, err)

	cleaned, report, err := f.Clean(dataset.DefaultCleanOptions())
	require.NoError(t, err)
	assert.Empty(t, report.Dropped)
	assert.Zero(t, report.DatesNormalized)

	open, err := cleaned.Column("Open")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, open)
}

func TestFrame_CleanKeepsUnparsedDates(t *testing.T) {
	f, err := dataset.ReadCSV(strings.NewReader("Date,Close\n2023-03-01,1\nsoon,2\n"))
	require.NoError(t, err)

	cleaned, report, err := f.Clean(dataset.DefaultCleanOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, report.DatesNormalized)
	assert.Equal(t, 1, report.DatesUnparsed)

	dates, err := cleaned.Strings("Date")
	require.NoError(t, err)
	assert.Equal(t, []string{"01-03-2023", "soon"}, dates)
}

func TestFrame_SummaryAndHead(t *testing.T) {
	f := readPrices(t)

	var closeSummary dataset.ColumnSummary
	for _, s := range f.Summary() {
		if s.Name == "Close" {
			closeSummary = s
		}
	}
	assert.Equal(t, 4, closeSummary.Count)
	assert.InDelta(t, 102.5, closeSummary.Mean, 1e-12)
	assert.InDelta(t, 102.5, closeSummary.Median, 1e-12)
	assert.Equal(t, 101.0, closeSummary.Min)
	assert.Equal(t, 104.0, closeSummary.Max)
	assert.InDelta(t, math.Sqrt(5.0/3.0), closeSummary.Std, 1e-12)

	head := f.Head(2)
	assert.Equal(t, f.Columns(), head.Columns)
	require.Len(t, head.Rows, 2)
	assert.Equal(t, "2023-01-02", head.Rows[0][0])
	assert.Equal(t, "NaN", head.Rows[1][2])

	assert.Len(t, f.Head(100).Rows, 4)
}

func TestDefaultSelection(t *testing.T) {
	sel := dataset.DefaultSelection([]string{"Open", "High", "Low", "Volume", "Close"})
	assert.Equal(t, "Close", sel.Target)
	assert.Equal(t, []string{"Open", "High", "Low", "Volume"}, sel.Features)

	assert.Equal(t, dataset.Selection{}, dataset.DefaultSelection(nil))

	f := readPrices(t)
	sel = f.DefaultSelection()
	assert.Equal(t, "Volume", sel.Target)
	assert.NotContains(t, sel.Features, "Date")
}

func TestSelection_Validate(t *testing.T) {
	f := readPrices(t)

	got, warnings, err := dataset.Selection{
		Features: []string{"Low", "Close", "Low"},
		Target:   "Close",
	}.Validate(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"Low"}, got.Features)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], `target "Close"`)

	_, _, err = dataset.Selection{Features: []string{"Close"}, Target: "Close"}.Validate(f)
	assert.Error(t, err)

	_, _, err = dataset.Selection{Features: []string{"Low"}, Target: "Date"}.Validate(f)
	assert.Error(t, err)

	_, _, err = dataset.Selection{Features: []string{"Bid"}, Target: "Close"}.Validate(f)
	assert.Error(t, err)

	_, _, err = dataset.Selection{Features: []string{"Low"}}.Validate(f)
	assert.Error(t, err)
}

func TestSplitIndex(t *testing.T) {
	assert.Equal(t, 8, dataset.SplitIndex(10, 0.8))
	assert.Equal(t, 4, dataset.SplitIndex(5, 0.8))
	assert.Equal(t, 5, dataset.SplitIndex(7, 0.8))
	assert.Equal(t, 57, dataset.SplitIndex(100, 0.57))
}

func TestTrainTestSplit_ReconstructsInput(t *testing.T) {
	for n := 5; n <= 60; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			X := mat.NewDense(n, 2, nil)
			y := mat.NewVecDense(n, nil)
			for i := 0; i < n; i++ {
				X.Set(i, 0, float64(i))
				X.Set(i, 1, float64(i*i))
				y.SetVec(i, float64(10*i))
			}

			XTrain, XTest, yTrain, yTest, err := dataset.TrainTestSplit(X, y, 0.8)
			require.NoError(t, err)

			k := int(math.Floor(0.8 * float64(n)))
			assert.Equal(t, k, yTrain.Len())
			assert.Equal(t, n-k, yTest.Len())

			rebuilt := append(mat.Col(nil, 0, yTrain), mat.Col(nil, 0, yTest)...)
			assert.Equal(t, mat.Col(nil, 0, y), rebuilt)

			var stacked mat.Dense
			stacked.Stack(XTrain, XTest)
			assert.True(t, mat.Equal(X, &stacked))
		})
	}
}

func TestTrainTestSplit_Errors(t *testing.T) {
	X := mat.NewDense(1, 1, []float64{1})
	y := mat.NewVecDense(1, []float64{1})
	_, _, _, _, err := dataset.TrainTestSplit(X, y, 0.8)
	assert.True(t, svrErrors.Is(err, svrErrors.ErrInvalidInput))

	X = mat.NewDense(3, 1, []float64{1, 2, 3})
	_, _, _, _, err = dataset.TrainTestSplit(X, y, 0.8)
	assert.True(t, svrErrors.Is(err, svrErrors.ErrDimensionMismatch))

	_, _, _, _, err = dataset.TrainTestSplit(X, mat.NewVecDense(3, nil), 1.5)
	assert.True(t, svrErrors.Is(err, svrErrors.ErrInvalidInput))
}

func TestFromColumns(t *testing.T) {
	f, err := dataset.FromColumns([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())

	X, err := f.Matrix([]string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, mat.Row(nil, 0, X))

	_, err = dataset.FromColumns([]string{"a"}, nil)
	assert.Error(t, err)
}
