package linear

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/svrdash/core/model"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
)

func TestLinearRegression_Fit(t *testing.T) {
	tests := []struct {
		name          string
		X             *mat.Dense
		y             *mat.VecDense
		wantWeights   []float64
		wantIntercept float64
	}{
		{
			name:          "simple linear relationship y = 2x + 1",
			X:             mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5}),
			y:             mat.NewVecDense(5, []float64{3, 5, 7, 9, 11}),
			wantWeights:   []float64{2},
			wantIntercept: 1,
		},
		{
			name: "multiple features y = x1 + 2*x2",
			X: mat.NewDense(5, 2, []float64{
				1, 2,
				2, 1,
				3, 4,
				4, 3,
				5, 5,
			}),
			y:             mat.NewVecDense(5, []float64{5, 4, 11, 10, 15}),
			wantWeights:   []float64{1, 2},
			wantIntercept: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLinearRegression()
			if err := lr.Fit(tt.X, tt.y); err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			for i, w := range tt.wantWeights {
				if math.Abs(lr.Weights[i]-w) > 1e-9 {
					t.Errorf("weight[%d] = %v, want %v", i, lr.Weights[i], w)
				}
			}
			if math.Abs(lr.Intercept-tt.wantIntercept) > 1e-9 {
				t.Errorf("intercept = %v, want %v", lr.Intercept, tt.wantIntercept)
			}
		})
	}
}

func TestLinearRegression_Predict(t *testing.T) {
	lr := NewLinearRegression()
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewVecDense(4, []float64{1, 3, 5, 7})
	require.NoError(t, lr.Fit(X, y))

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{10, -1}))
	require.NoError(t, err)
	assert.InDelta(t, 21, pred.At(0, 0), 1e-9)
	assert.InDelta(t, -1, pred.At(1, 0), 1e-9)
}

func TestLinearRegression_Errors(t *testing.T) {
	lr := NewLinearRegression()
	_, err := lr.Predict(mat.NewDense(1, 1, []float64{1}))
	assert.True(t, svrErrors.Is(err, svrErrors.ErrNotFitted))

	err = lr.Fit(&mat.Dense{}, &mat.VecDense{})
	assert.True(t, svrErrors.Is(err, svrErrors.ErrEmptyData))

	err = lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewVecDense(2, []float64{1, 2}))
	assert.True(t, svrErrors.Is(err, svrErrors.ErrDimensionMismatch))

	lr.Alpha = -1
	err = lr.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewVecDense(2, []float64{1, 2}))
	assert.True(t, svrErrors.Is(err, svrErrors.ErrInvalidInput))

	lr.Alpha = 0
	require.NoError(t, lr.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewVecDense(2, []float64{1, 2})))
	_, err = lr.Predict(mat.NewDense(1, 2, []float64{1, 2}))
	assert.True(t, svrErrors.Is(err, svrErrors.ErrDimensionMismatch))
}

func TestLinearRegression_CollinearFeatures(t *testing.T) {
	// the second column is the first plus a constant
	X := mat.NewDense(5, 2, []float64{
		1, 3,
		2, 4,
		3, 5,
		4, 6,
		5, 7,
	})
	y := mat.NewVecDense(5, []float64{2, 4, 6, 8, 10})

	lr := NewLinearRegression()
	err := lr.Fit(X, y)
	assert.True(t, svrErrors.Is(err, svrErrors.ErrSingularMatrix), "got %v", err)

	lr.Alpha = 1e-3
	require.NoError(t, lr.Fit(X, y))
	pred, err := lr.PredictVec(mat.NewDense(1, 2, []float64{6, 8}))
	require.NoError(t, err)
	assert.InDelta(t, 12, pred.AtVec(0), 1e-2)
}

func TestLinearRegression_GobRoundTrip(t *testing.T) {
	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewVecDense(3, []float64{2, 4, 6})))

	var buf bytes.Buffer
	require.NoError(t, model.SaveModelToWriter(lr, &buf))

	loaded := &LinearRegression{}
	require.NoError(t, model.LoadModelFromReader(loaded, &buf))
	assert.True(t, loaded.IsFitted())

	pred, err := loaded.PredictVec(mat.NewDense(1, 1, []float64{4}))
	require.NoError(t, err)
	assert.InDelta(t, 8, pred.AtVec(0), 1e-9)
}
