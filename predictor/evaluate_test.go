package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestEvaluate_ConstantTarget(t *testing.T) {
	tests := []struct {
		name     string
		pred     []float64
		wantR2   float64
		warnings int
	}{
		{"exact predictions", []float64{9, 9, 9}, 1, 0},
		{"off by one", []float64{8, 9, 10}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := mat.NewVecDense(3, []float64{9, 9, 9})
			report, warnings, err := evaluate(yTrue, mat.NewVecDense(3, tt.pred))
			require.NoError(t, err)
			assert.Equal(t, tt.wantR2, report.R2)
			assert.Len(t, warnings, tt.warnings)
			assert.True(t, report.Finite())
		})
	}
}
