// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package nmf factorizes a non-negative matrix V (n x m) into non-negative
// factors W (n x k) and H (k x m) such that W*H approximates V in the
// Frobenius norm. Two solvers are provided:
//
//	cd - coordinate descent over one latent component at a time (fast HALS)
//	mu - multiplicative updates by Lee and Seung
//
// Both stop when they converge within a tolerance or after a bounded number
// of iterations. Running out of iterations is not an error: the factors found
// so far are returned together with a ConvergenceWarning.
package nmf

import (
	"context"
	"fmt"
	"math"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	SolverCoordinateDescent    = "cd"
	SolverMultiplicativeUpdate = "mu"
)

const (
	DefaultComponents = 20
	DefaultMaxIter    = 200
	DefaultSeed       = 42
	DefaultTol        = 1e-4
)

// Params controls a factorization.
type Params struct {
	Components int     // number of latent components k
	MaxIter    int     // maximum number of iterations
	Seed       int64   // seed of random initialization
	Tol        float64 // tolerance of the stopping condition, 0 disables it
	Init       string  // initialization method, see Init* constants
}

// NewParams returns params with default values.
func NewParams() Params {
	return Params{
		Components: DefaultComponents,
		MaxIter:    DefaultMaxIter,
		Seed:       DefaultSeed,
		Tol:        DefaultTol,
		Init:       InitAuto,
	}
}

// Factors are the result of a factorization.
type Factors struct {
	W          *mat.Dense // n x k
	H          *mat.Dense // k x m
	Iterations int
	Converged  bool
	// Error is the Frobenius norm of V - W*H.
	Error float64
	// Warning is set if the solver did not converge within MaxIter iterations.
	Warning *ConvergenceWarning
}

// Reconstruct returns W*H.
func (f *Factors) Reconstruct() *mat.Dense {
	var p mat.Dense
	p.Mul(f.W, f.H)
	return &p
}

// Factorizer is a non-negative matrix factorization solver.
type Factorizer interface {
	// Name of the solver.
	Name() string
	// Factorize finds non-negative W and H such that W*H approximates v.
	Factorize(ctx context.Context, v mat.Matrix, params Params) (*Factors, error)
}

// ConvergenceWarning reports that a solver stopped at the iteration limit.
type ConvergenceWarning struct {
	Solver  string
	MaxIter int
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("%s: maximum number of iterations %d reached, increase it to improve convergence", w.Solver, w.MaxIter)
}

// New creates a solver by name.
func New(solver string) (Factorizer, error) {
	switch solver {
	case SolverCoordinateDescent:
		return NewCoordinateDescent(), nil
	case SolverMultiplicativeUpdate:
		return NewMultiplicativeUpdate(), nil
	default:
		return nil, errors.NotSupportedf("solver %s", solver)
	}
}

// Solvers lists the names accepted by New.
func Solvers() []string {
	return []string{SolverCoordinateDescent, SolverMultiplicativeUpdate}
}

func validate(v mat.Matrix, params Params) error {
	if params.Components <= 0 {
		return errors.NotValidf("number of components %d", params.Components)
	}
	if params.MaxIter <= 0 {
		return errors.NotValidf("maximum number of iterations %d", params.MaxIter)
	}
	if params.Tol < 0 {
		return errors.NotValidf("tolerance %v", params.Tol)
	}
	n, m := v.Dims()
	if n == 0 || m == 0 {
		return errors.NotValidf("empty matrix")
	}
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if x := v.At(i, j); x < 0 || math.IsNaN(x) {
				return errors.NotValidf("value %v at (%d, %d) of input matrix", x, i, j)
			}
		}
	}
	return nil
}

// reconstructionError returns ||V - W*H||_F.
func reconstructionError(v mat.Matrix, w, h *mat.Dense) float64 {
	var d mat.Dense
	d.Mul(w, h)
	d.Sub(v, &d)
	return mat.Norm(&d, 2)
}
