package svm

import "math"

// tau replaces a non-positive curvature in the two-variable subproblem.
const tau = 1e-12

// smoSolver solves the epsilon-SVR dual
//
//	min 1/2 aᵀQa + pᵀa  s.t.  yᵀa = 0, 0 <= a_t <= C
//
// over 2n variables. The first n carry sign +1 with p_t = eps - y_t, the
// second n carry sign -1 with p_t = eps + y_t, and
// Q_st = sign_s * sign_t * K(x_{s mod n}, x_{t mod n}).
type smoSolver struct {
	n     int
	l     int
	sign  []float64
	alpha []float64
	grad  []float64
	qd    []float64
	c     float64
	tol   float64
	cache *kernelCache
}

type solution struct {
	coef      []float64
	rho       float64
	iter      int
	converged bool
}

func solveEpsilonSVR(X [][]float64, y []float64, k kernel, c, eps, tol float64, maxIter, cacheMB int) solution {
	n := len(X)
	s := &smoSolver{
		n:     n,
		l:     2 * n,
		sign:  make([]float64, 2*n),
		alpha: make([]float64, 2*n),
		grad:  make([]float64, 2*n),
		qd:    make([]float64, 2*n),
		c:     c,
		tol:   tol,
		cache: newKernelCache(X, k, cacheMB),
	}
	for i := 0; i < n; i++ {
		s.sign[i], s.sign[i+n] = 1, -1
		// alpha starts at zero so the gradient equals p.
		s.grad[i] = eps - y[i]
		s.grad[i+n] = eps + y[i]
		d := k.eval(X[i], X[i])
		s.qd[i], s.qd[i+n] = d, d
	}

	iter := 0
	converged := false
	for iter < maxIter {
		i, j, ok := s.selectWorkingSet()
		if !ok {
			converged = true
			break
		}
		s.update(i, j)
		iter++
	}

	coef := make([]float64, n)
	for i := 0; i < n; i++ {
		coef[i] = s.alpha[i] - s.alpha[i+n]
	}
	return solution{coef: coef, rho: s.rho(), iter: iter, converged: converged}
}

func (s *smoSolver) isUpper(t int) bool { return s.alpha[t] >= s.c }
func (s *smoSolver) isLower(t int) bool { return s.alpha[t] <= 0 }

// selectWorkingSet picks the maximal violating index i by first-order
// information and j by the second-order gain. ok is false once the KKT gap
// falls below tol.
func (s *smoSolver) selectWorkingSet() (int, int, bool) {
	gmax, gmax2 := math.Inf(-1), math.Inf(-1)
	i, j := -1, -1

	for t := 0; t < s.l; t++ {
		if s.sign[t] > 0 {
			if !s.isUpper(t) && -s.grad[t] >= gmax {
				gmax, i = -s.grad[t], t
			}
		} else if !s.isLower(t) && s.grad[t] >= gmax {
			gmax, i = s.grad[t], t
		}
	}

	var ki []float64
	if i != -1 {
		ki = s.cache.row(i % s.n)
	}
	objMin := math.Inf(1)
	for t := 0; t < s.l; t++ {
		var gradDiff float64
		if s.sign[t] > 0 {
			if s.isLower(t) {
				continue
			}
			if s.grad[t] >= gmax2 {
				gmax2 = s.grad[t]
			}
			gradDiff = gmax + s.grad[t]
		} else {
			if s.isUpper(t) {
				continue
			}
			if -s.grad[t] >= gmax2 {
				gmax2 = -s.grad[t]
			}
			gradDiff = gmax - s.grad[t]
		}
		if gradDiff <= 0 {
			continue
		}
		quad := s.qd[i] + s.qd[t] - 2*ki[t%s.n]
		if quad <= 0 {
			quad = tau
		}
		if obj := -(gradDiff * gradDiff) / quad; obj <= objMin {
			objMin, j = obj, t
		}
	}

	if gmax+gmax2 < s.tol || j == -1 {
		return -1, -1, false
	}
	return i, j, true
}

// update solves the two-variable subproblem on (i, j), clips it to the box and
// refreshes the gradient.
func (s *smoSolver) update(i, j int) {
	ki := s.cache.row(i % s.n)
	kj := s.cache.row(j % s.n)
	qij := s.sign[i] * s.sign[j] * ki[j%s.n]
	c := s.c
	oldI, oldJ := s.alpha[i], s.alpha[j]
	ai, aj := oldI, oldJ

	if s.sign[i] != s.sign[j] {
		quad := s.qd[i] + s.qd[j] + 2*qij
		if quad <= 0 {
			quad = tau
		}
		delta := (-s.grad[i] - s.grad[j]) / quad
		diff := ai - aj
		ai += delta
		aj += delta
		if diff > 0 {
			if aj < 0 {
				aj, ai = 0, diff
			}
			if ai > c {
				ai, aj = c, c-diff
			}
		} else {
			if ai < 0 {
				ai, aj = 0, -diff
			}
			if aj > c {
				aj, ai = c, c+diff
			}
		}
	} else {
		quad := s.qd[i] + s.qd[j] - 2*qij
		if quad <= 0 {
			quad = tau
		}
		delta := (s.grad[i] - s.grad[j]) / quad
		sum := ai + aj
		ai -= delta
		aj += delta
		if sum > c {
			if ai > c {
				ai, aj = c, sum-c
			}
			if aj > c {
				aj, ai = c, sum-c
			}
		} else {
			if aj < 0 {
				aj, ai = 0, sum
			}
			if ai < 0 {
				ai, aj = 0, sum
			}
		}
	}

	s.alpha[i], s.alpha[j] = ai, aj
	dI := (ai - oldI) * s.sign[i]
	dJ := (aj - oldJ) * s.sign[j]
	for t := 0; t < s.l; t++ {
		b := t % s.n
		s.grad[t] += s.sign[t] * (ki[b]*dI + kj[b]*dJ)
	}
}

// rho averages sign*grad over free variables. Without free variables it is
// the midpoint of the feasible interval.
func (s *smoSolver) rho() float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	sum, free := 0.0, 0
	for t := 0; t < s.l; t++ {
		yg := s.sign[t] * s.grad[t]
		switch {
		case s.isUpper(t):
			if s.sign[t] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case s.isLower(t):
			if s.sign[t] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			free++
			sum += yg
		}
	}
	if free > 0 {
		return sum / float64(free)
	}
	return (ub + lb) / 2
}
