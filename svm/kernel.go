package svm

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	svrErrors "github.com/ezoic/svrdash/pkg/errors"
)

// KernelType names a kernel function.
type KernelType string

const (
	// KernelRBF is exp(-gamma * |a-b|²)
	KernelRBF KernelType = "rbf"
	// KernelLinear is a·b
	KernelLinear KernelType = "linear"
	// KernelPoly is (gamma * a·b + coef0)^degree
	KernelPoly KernelType = "poly"
	// KernelSigmoid is tanh(gamma * a·b + coef0)
	KernelSigmoid KernelType = "sigmoid"
)

// Gamma modes accepted in Params.Gamma besides a positive number.
const (
	GammaScale = "scale"
	GammaAuto  = "auto"
)

// ParseKernel validates a kernel name.
func ParseKernel(s string) (KernelType, error) {
	switch k := KernelType(s); k {
	case KernelRBF, KernelLinear, KernelPoly, KernelSigmoid:
		return k, nil
	default:
		return "", svrErrors.NewValidationError("kernel", "must be one of rbf, linear, poly, sigmoid", s)
	}
}

type kernel struct {
	kind   KernelType
	gamma  float64
	coef0  float64
	degree int
}

func (k kernel) eval(a, b []float64) float64 {
	switch k.kind {
	case KernelLinear:
		return floats.Dot(a, b)
	case KernelPoly:
		return math.Pow(k.gamma*floats.Dot(a, b)+k.coef0, float64(k.degree))
	case KernelSigmoid:
		return math.Tanh(k.gamma*floats.Dot(a, b) + k.coef0)
	default:
		d := floats.Distance(a, b, 2)
		return math.Exp(-k.gamma * d * d)
	}
}

// resolveGamma turns the Gamma setting into a number for X.
//
// "scale" is 1 / (n_features * Var(X)) with the variance taken over every
// element of X, falling back to 1 when X is constant. "auto" is 1 / n_features.
func resolveGamma(setting string, X mat.Matrix) (float64, error) {
	r, c := X.Dims()
	switch setting {
	case "", GammaScale:
		n := float64(r * c)
		var sum, sumSq float64
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				v := X.At(i, j)
				sum += v
				sumSq += v * v
			}
		}
		mean := sum / n
		variance := sumSq/n - mean*mean
		if variance <= 0 {
			return 1.0, nil
		}
		return 1.0 / (float64(c) * variance), nil
	case GammaAuto:
		return 1.0 / float64(c), nil
	default:
		g, err := strconv.ParseFloat(setting, 64)
		if err != nil || g <= 0 || math.IsInf(g, 0) {
			return 0, svrErrors.NewValidationError("gamma",
				fmt.Sprintf("must be %q, %q or a positive number", GammaScale, GammaAuto), setting)
		}
		return g, nil
	}
}

// kernelCache keeps recently used kernel rows K(x_i, ·) of the training set.
// Rows are evicted first-in first-out once capacity is reached.
type kernelCache struct {
	X        [][]float64
	k        kernel
	rows     map[int][]float64
	order    []int
	capacity int
}

func newKernelCache(X [][]float64, k kernel, sizeMB int) *kernelCache {
	n := len(X)
	capacity := 2
	if n > 0 && sizeMB > 0 {
		if byMem := sizeMB * 1024 * 1024 / (8 * n); byMem > capacity {
			capacity = byMem
		}
	}
	if capacity > n {
		capacity = n
	}
	return &kernelCache{
		X:        X,
		k:        k,
		rows:     make(map[int][]float64, capacity),
		capacity: capacity,
	}
}

func (c *kernelCache) row(i int) []float64 {
	if r, ok := c.rows[i]; ok {
		return r
	}
	r := make([]float64, len(c.X))
	for j := range c.X {
		r[j] = c.k.eval(c.X[i], c.X[j])
	}
	if len(c.order) >= c.capacity {
		delete(c.rows, c.order[0])
		c.order = c.order[1:]
	}
	c.rows[i] = r
	c.order = append(c.order, i)
	return r
}
