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

	"github.com/gorse-io/nmfbench/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// divEpsilon replaces zero denominators of multiplicative updates.
const divEpsilon = 1.1920929e-07

// MultiplicativeUpdate is the multiplicative update rule by Lee and Seung [1]:
//
//	W <- W .* (V H^T) ./ (W H H^T)
//	H <- H .* (W^T V) ./ (W^T W H)
//
// Every 10 iterations the reconstruction error is measured and the solver
// stops if it decreased by less than Tol times the initial error.
//
// [1] Lee, Daniel D., and H. Sebastian Seung. "Algorithms for non-negative
// matrix factorization." Advances in neural information processing systems. 2001.
type MultiplicativeUpdate struct{}

func NewMultiplicativeUpdate() *MultiplicativeUpdate {
	return &MultiplicativeUpdate{}
}

func (mu *MultiplicativeUpdate) Name() string {
	return SolverMultiplicativeUpdate
}

func (mu *MultiplicativeUpdate) Factorize(ctx context.Context, v mat.Matrix, params Params) (*Factors, error) {
	if err := validate(v, params); err != nil {
		return nil, errors.Trace(err)
	}
	w, h, err := initialize(v, params)
	if err != nil {
		return nil, errors.Trace(err)
	}

	result := &Factors{}
	errorAtInit := reconstructionError(v, w, h)
	previousError := errorAtInit
	var numerator, denominator, gram mat.Dense
	for iter := 1; iter <= params.MaxIter; iter++ {
		if err = ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		// update W
		numerator.Reset()
		numerator.Mul(v, h.T())
		gram.Reset()
		gram.Mul(h, h.T())
		denominator.Reset()
		denominator.Mul(w, &gram)
		multiplicativeStep(w, &numerator, &denominator)
		// update H
		numerator.Reset()
		numerator.Mul(w.T(), v)
		gram.Reset()
		gram.Mul(w.T(), w)
		denominator.Reset()
		denominator.Mul(&gram, h)
		multiplicativeStep(h, &numerator, &denominator)

		result.Iterations = iter
		if params.Tol > 0 && iter%10 == 0 {
			currentError := reconstructionError(v, w, h)
			log.Logger().Debug(fmt.Sprintf("fit nmf %v/%v", iter, params.MaxIter),
				zap.String("solver", mu.Name()),
				zap.Float64("error", currentError))
			if errorAtInit == 0 || (previousError-currentError)/errorAtInit < params.Tol {
				result.Converged = true
				break
			}
			previousError = currentError
		}
	}

	result.W = w
	result.H = h
	result.Error = reconstructionError(v, w, h)
	if !result.Converged && params.Tol > 0 {
		result.Warning = &ConvergenceWarning{Solver: mu.Name(), MaxIter: params.MaxIter}
	}
	return result, nil
}

// multiplicativeStep sets x <- x .* numerator ./ denominator.
func multiplicativeStep(x, numerator, denominator *mat.Dense) {
	x.Apply(func(i, j int, value float64) float64 {
		d := denominator.At(i, j)
		if d == 0 {
			d = divEpsilon
		}
		return value * numerator.At(i, j) / d
	}, x)
}
