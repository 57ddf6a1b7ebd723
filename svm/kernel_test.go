package svm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestKernelEval(t *testing.T) {
	a := []float64{1, 2}
	b := []float64{3, 4}

	tests := []struct {
		name string
		k    kernel
		want float64
	}{
		{"linear", kernel{kind: KernelLinear}, 11},
		{"rbf", kernel{kind: KernelRBF, gamma: 0.5}, math.Exp(-0.5 * 8)},
		{"poly", kernel{kind: KernelPoly, gamma: 1, coef0: 1, degree: 2}, 144},
		{"sigmoid", kernel{kind: KernelSigmoid, gamma: 0.1, coef0: 0}, math.Tanh(1.1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.k.eval(a, b), 1e-12)
		})
	}

	assert.Equal(t, 1.0, kernel{kind: KernelRBF, gamma: 3}.eval(a, a))
}

func TestResolveGamma(t *testing.T) {
	tests := []struct {
		name    string
		setting string
		X       *mat.Dense
		want    float64
		wantErr bool
	}{
		{"scale one feature", GammaScale, mat.NewDense(2, 1, []float64{0, 2}), 1.0, false},
		{"scale two features", GammaScale, mat.NewDense(2, 2, []float64{0, 0, 2, 2}), 0.5, false},
		{"empty means scale", "", mat.NewDense(2, 1, []float64{0, 2}), 1.0, false},
		{"scale constant data", GammaScale, mat.NewDense(3, 2, []float64{5, 5, 5, 5, 5, 5}), 1.0, false},
		{"auto", GammaAuto, mat.NewDense(1, 4, nil), 0.25, false},
		{"number", "0.5", mat.NewDense(1, 4, nil), 0.5, false},
		{"negative", "-1", mat.NewDense(1, 1, nil), 0, true},
		{"garbage", "wide", mat.NewDense(1, 1, nil), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveGamma(tt.setting, tt.X)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestParseKernel(t *testing.T) {
	k, err := ParseKernel("poly")
	require.NoError(t, err)
	assert.Equal(t, KernelPoly, k)

	_, err = ParseKernel("laplacian")
	assert.Error(t, err)
}

func TestKernelCacheEvicts(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}, {4}}
	c := newKernelCache(X, kernel{kind: KernelLinear}, 0)
	require.Equal(t, 2, c.capacity)

	for i := range X {
		row := c.row(i)
		for j := range X {
			assert.Equal(t, float64(i*j), row[j])
		}
	}
	assert.Len(t, c.rows, 2)
	assert.Equal(t, []int{3, 4}, c.order)
}
