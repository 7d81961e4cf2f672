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

package nmf

import (
	"context"
	"fmt"
	"math"

	"github.com/gorse-io/nmfbench/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CoordinateDescent updates one latent component of W (then of H) at a time,
// each update being the exact minimizer projected onto the non-negative orthant.
// It stops when the projected gradient violation drops to Tol times the
// violation of the first iteration.
type CoordinateDescent struct{}

func NewCoordinateDescent() *CoordinateDescent {
	return &CoordinateDescent{}
}

func (cd *CoordinateDescent) Name() string {
	return SolverCoordinateDescent
}

func (cd *CoordinateDescent) Factorize(ctx context.Context, v mat.Matrix, params Params) (*Factors, error) {
	if err := validate(v, params); err != nil {
		return nil, errors.Trace(err)
	}
	w, h, err := initialize(v, params)
	if err != nil {
		return nil, errors.Trace(err)
	}
	// H is updated in transposed form so that both updates share one routine
	ht := mat.DenseCopyOf(h.T())

	result := &Factors{}
	var violationInit float64
	for iter := 1; iter <= params.MaxIter; iter++ {
		if err = ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		violation := updateCoordinates(w, ht, v)
		violation += updateCoordinates(ht, w, v.T())
		result.Iterations = iter
		if iter == 1 {
			violationInit = violation
		}
		if iter%10 == 0 {
			log.Logger().Debug(fmt.Sprintf("fit nmf %v/%v", iter, params.MaxIter),
				zap.String("solver", cd.Name()),
				zap.Float64("violation", violation))
		}
		if violationInit == 0 || violation/violationInit <= params.Tol {
			result.Converged = true
			break
		}
	}

	result.W = w
	result.H = mat.DenseCopyOf(ht.T())
	result.Error = reconstructionError(v, result.W, result.H)
	if !result.Converged && params.Tol > 0 {
		result.Warning = &ConvergenceWarning{Solver: cd.Name(), MaxIter: params.MaxIter}
	}
	return result, nil
}

// updateCoordinates runs one sweep of coordinate descent on w for
//
//	min ||X - w f^T||_F  s.t. w >= 0
//
// where X is n x m, w is n x k and f is m x k. It returns the sum of absolute
// projected gradients seen during the sweep.
func updateCoordinates(w, f *mat.Dense, x mat.Matrix) float64 {
	var ff, xf mat.Dense
	ff.Mul(f.T(), f) // k x k
	xf.Mul(x, f)     // n x k
	n, k := w.Dims()
	wRaw, ffRaw, xfRaw := w.RawMatrix(), ff.RawMatrix(), xf.RawMatrix()
	violation := 0.0
	for t := 0; t < k; t++ {
		// ff is symmetric so its row t is also its column t
		fft := ffRaw.Data[t*ffRaw.Stride : t*ffRaw.Stride+k]
		hess := fft[t]
		for i := 0; i < n; i++ {
			wi := wRaw.Data[i*wRaw.Stride : i*wRaw.Stride+k]
			grad := floats.Dot(wi, fft) - xfRaw.Data[i*xfRaw.Stride+t]
			projected := grad
			if wi[t] == 0 {
				projected = math.Min(grad, 0)
			}
			violation += math.Abs(projected)
			if hess != 0 {
				wi[t] = math.Max(wi[t]-grad/hess, 0)
			}
		}
	}
	return violation
}
