package predictor_test

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/svrdash/dataset"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/predictor"
	"github.com/ezoic/svrdash/svm"
)

var features = []string{"Open", "High", "Low", "Volume"}

// risingPrices is a 10-row table whose Close rises by 2 each day.
func risingPrices(t *testing.T) *dataset.Frame {
	t.Helper()
	n := 10
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	volume := make([]float64, n)
	closing := make([]float64, n)
	for i := 0; i < n; i++ {
		c := 100 + 2*float64(i)
		closing[i] = c
		open[i] = c - 1
		high[i] = c + 1.5
		low[i] = c - 2
		volume[i] = 1000 + float64((i*37)%11)*10
	}
	f, err := dataset.FromColumns(
		[]string{"Open", "High", "Low", "Volume", "Close"},
		[][]float64{open, high, low, volume, closing},
	)
	require.NoError(t, err)
	return f
}

func TestRun_EndToEnd(t *testing.T) {
	frame := risingPrices(t)
	opts := predictor.DefaultOptions()
	opts.Selection = dataset.Selection{Features: features, Target: "Close"}

	res, err := predictor.Run(frame, opts)
	require.NoError(t, err)

	assert.Equal(t, 8, res.TrainSize)
	assert.Equal(t, 2, res.TestSize)
	assert.Equal(t, []float64{116, 118}, res.Actual)
	assert.Len(t, res.Predicted, 2)
	assert.True(t, res.Metrics.Finite())
	assert.GreaterOrEqual(t, res.Metrics.MSE, 0.0)
	assert.InDelta(t, math.Sqrt(res.Metrics.MSE), res.Metrics.RMSE, 1e-12)
	assert.Empty(t, res.Warnings)
	require.NotNil(t, res.Baseline)
	assert.True(t, res.Baseline.Finite())

	require.Len(t, res.FeatureMeans, 4)
	pred, err := res.PredictOne(res.FeatureMeans)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred, 100.0)
	assert.LessOrEqual(t, pred, 118.0)
}

func TestRun_ScalerSeesTrainingRowsOnly(t *testing.T) {
	frame := risingPrices(t)
	opts := predictor.DefaultOptions()
	opts.Selection = dataset.Selection{Features: []string{"Open"}, Target: "Close"}

	res, err := predictor.Run(frame, opts)
	require.NoError(t, err)

	// Open is 99, 101, ..., 113 on the first eight rows.
	assert.InDelta(t, 106.0, res.Scaler.Mean[0], 1e-12)
	assert.Equal(t, 8, res.Scaler.NSamples)
}

func TestRun_TargetAmongFeaturesIsDropped(t *testing.T) {
	frame := risingPrices(t)
	opts := predictor.DefaultOptions()
	opts.Selection = dataset.Selection{Features: []string{"Open", "Close"}, Target: "Close"}

	res, err := predictor.Run(frame, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Open"}, res.Selection.Features)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Close")
	assert.Equal(t, 1, res.Model.NFeatures)
}

func TestRun_DefaultSelection(t *testing.T) {
	res, err := predictor.Run(risingPrices(t), predictor.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Close", res.Selection.Target)
	assert.Equal(t, features, res.Selection.Features)
}

func TestRun_LinearPreset(t *testing.T) {
	opts := predictor.DefaultOptions()
	opts.Params = svm.LinearParams()
	opts.Selection = dataset.Selection{Features: []string{"Open"}, Target: "Close"}

	res, err := predictor.Run(risingPrices(t), opts)
	require.NoError(t, err)

	// Close = Open + 1 extrapolates exactly with a linear kernel.
	for i, want := range res.Actual {
		assert.InDelta(t, want, res.Predicted[i], 0.5)
	}
	assert.Greater(t, res.Metrics.R2, 0.0)

	require.NotNil(t, res.Baseline)
	assert.Greater(t, res.Baseline.R2, 0.99)
}

func TestRun_ConstantHeldOutTarget(t *testing.T) {
	f, err := dataset.FromColumns(
		[]string{"x", "y"},
		[][]float64{{1, 2, 3, 4, 5}, {1, 2, 3, 9, 9}},
	)
	require.NoError(t, err)

	opts := predictor.DefaultOptions()
	opts.TrainRatio = 0.6
	res, err := predictor.Run(f, opts)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Metrics.R2)
	assert.True(t, res.Metrics.Finite())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "R-squared is undefined")
}

func TestRun_Errors(t *testing.T) {
	frame := risingPrices(t)

	opts := predictor.DefaultOptions()
	opts.Selection = dataset.Selection{Features: []string{"Bid"}, Target: "Close"}
	_, err := predictor.Run(frame, opts)
	assert.True(t, svrErrors.Is(err, svrErrors.ErrInvalidInput))

	opts = predictor.DefaultOptions()
	opts.Params.C = -1
	_, err = predictor.Run(frame, opts)
	assert.True(t, svrErrors.Is(err, svrErrors.ErrInvalidInput))

	tiny, err := dataset.FromColumns([]string{"x", "y"}, [][]float64{{1}, {2}})
	require.NoError(t, err)
	_, err = predictor.Run(tiny, predictor.DefaultOptions())
	assert.Error(t, err)
}

func TestPredict_InputValidation(t *testing.T) {
	opts := predictor.DefaultOptions()
	opts.Selection = dataset.Selection{Features: features, Target: "Close"}
	res, err := predictor.Run(risingPrices(t), opts)
	require.NoError(t, err)

	_, err = res.PredictOne([]float64{1, 2})
	var dimErr *svrErrors.DimensionError
	require.True(t, svrErrors.As(err, &dimErr))
	assert.Equal(t, 4, dimErr.Expected)

	named := map[string]float64{}
	for i, name := range res.Selection.Features {
		named[name] = res.FeatureMeans[i]
	}
	byName, err := res.PredictNamed(named)
	require.NoError(t, err)
	byPosition, err := res.PredictOne(res.FeatureMeans)
	require.NoError(t, err)
	assert.Equal(t, byPosition, byName)

	delete(named, "Low")
	_, err = res.PredictNamed(named)
	assert.ErrorContains(t, err, `"Low"`)

	named["Low"] = 1
	named["Spread"] = 2
	_, err = res.PredictNamed(named)
	assert.ErrorContains(t, err, "Spread")

	_, err = (&predictor.Bundle{}).PredictOne([]float64{1})
	assert.True(t, svrErrors.Is(err, svrErrors.ErrNotFitted))
}

func TestBundle_SaveLoad(t *testing.T) {
	opts := predictor.DefaultOptions()
	opts.Selection = dataset.Selection{Features: features, Target: "Close"}
	res, err := predictor.Run(risingPrices(t), opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, res.Save(&buf))

	loaded, err := predictor.LoadBundle(&buf)
	require.NoError(t, err)
	assert.Equal(t, res.Selection, loaded.Selection)
	assert.Equal(t, res.Metrics, loaded.Metrics)

	want, err := res.PredictOne(res.FeatureMeans)
	require.NoError(t, err)
	got, err := loaded.PredictOne(loaded.FeatureMeans)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)

	path := filepath.Join(t.TempDir(), "bundle.gob")
	require.NoError(t, res.SaveFile(path))
	fromFile, err := predictor.LoadBundleFile(path)
	require.NoError(t, err)
	assert.Equal(t, res.Selection.Target, fromFile.Selection.Target)

	_, err = predictor.LoadBundle(bytes.NewReader([]byte("not gob")))
	assert.Error(t, err)
}
