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
	"testing"

	"github.com/gorse-io/nmfbench/base"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// sparseMatrix returns a random non-negative matrix with about a third of
// entries set to zero.
func sparseMatrix(n, m int, seed int64) *mat.Dense {
	rng := base.NewRandomGenerator(seed)
	data := rng.AbsNormalVector(n*m, 2)
	for i := range data {
		if rng.Intn(3) == 0 {
			data[i] = 0
		}
	}
	return mat.NewDense(n, m, data)
}

func rankOneMatrix() *mat.Dense {
	u := mat.NewVecDense(3, []float64{1, 2, 3})
	v := mat.NewVecDense(4, []float64{1, 1, 2, 4})
	var x mat.Dense
	x.Outer(1, u, v)
	return &x
}

func assertNonNegative(t *testing.T, x mat.Matrix) {
	n, m := x.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			assert.GreaterOrEqual(t, x.At(i, j), 0.0, "(%d, %d)", i, j)
		}
	}
}

func TestNew(t *testing.T) {
	for _, name := range Solvers() {
		solver, err := New(name)
		require.NoError(t, err)
		assert.Equal(t, name, solver.Name())
	}
	_, err := New("als")
	assert.True(t, errors.Is(err, errors.NotSupported))
}

func TestNewParams(t *testing.T) {
	params := NewParams()
	assert.Equal(t, 20, params.Components)
	assert.Equal(t, 200, params.MaxIter)
	assert.Equal(t, int64(42), params.Seed)
	assert.Equal(t, 1e-4, params.Tol)
	assert.Equal(t, InitAuto, params.Init)
}

func TestRankOneRecovery(t *testing.T) {
	v := rankOneMatrix()
	for _, name := range Solvers() {
		t.Run(name, func(t *testing.T) {
			solver, err := New(name)
			require.NoError(t, err)
			params := NewParams()
			params.Components = 1
			params.Init = InitNNDSVD
			factors, err := solver.Factorize(context.Background(), v, params)
			require.NoError(t, err)
			assert.InDelta(t, 0, factors.Error, 1e-8)
			assert.True(t, mat.EqualApprox(v, factors.Reconstruct(), 1e-8))
		})
	}
}

func TestFactorsShapeAndSign(t *testing.T) {
	v := sparseMatrix(12, 9, 0)
	for _, name := range Solvers() {
		for _, init := range Inits() {
			t.Run(name+"/"+init, func(t *testing.T) {
				solver, err := New(name)
				require.NoError(t, err)
				params := NewParams()
				params.Components = 4
				params.Init = init
				factors, err := solver.Factorize(context.Background(), v, params)
				require.NoError(t, err)
				n, k := factors.W.Dims()
				assert.Equal(t, 12, n)
				assert.Equal(t, 4, k)
				k, m := factors.H.Dims()
				assert.Equal(t, 4, k)
				assert.Equal(t, 9, m)
				assertNonNegative(t, factors.W)
				assertNonNegative(t, factors.H)
				assert.Less(t, factors.Error, mat.Norm(v, 2))
			})
		}
	}
}

func TestFactorizeDeterministic(t *testing.T) {
	v := sparseMatrix(10, 10, 1)
	params := NewParams()
	params.Components = 3
	params.Init = InitRandom
	a, err := NewCoordinateDescent().Factorize(context.Background(), v, params)
	require.NoError(t, err)
	b, err := NewCoordinateDescent().Factorize(context.Background(), v, params)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a.W, b.W))
	assert.True(t, mat.Equal(a.H, b.H))
}

func TestMultiplicativeUpdateDescent(t *testing.T) {
	v := sparseMatrix(15, 10, 2)
	params := NewParams()
	params.Components = 3
	params.Init = InitRandom
	params.Tol = 0
	errs := make([]float64, 0, 4)
	for _, maxIter := range []int{1, 10, 50, 100} {
		params.MaxIter = maxIter
		factors, err := NewMultiplicativeUpdate().Factorize(context.Background(), v, params)
		require.NoError(t, err)
		assert.Equal(t, maxIter, factors.Iterations)
		errs = append(errs, factors.Error)
	}
	for i := 1; i < len(errs); i++ {
		assert.LessOrEqual(t, errs[i], errs[i-1]+1e-12)
	}
}

func TestConvergenceWarning(t *testing.T) {
	v := sparseMatrix(10, 8, 3)
	for _, name := range Solvers() {
		t.Run(name, func(t *testing.T) {
			solver, err := New(name)
			require.NoError(t, err)
			params := NewParams()
			params.Components = 3
			params.Init = InitRandom
			params.MaxIter = 1
			factors, err := solver.Factorize(context.Background(), v, params)
			require.NoError(t, err)
			assert.False(t, factors.Converged)
			require.NotNil(t, factors.Warning)
			assert.Equal(t, name, factors.Warning.Solver)
			assert.Equal(t, 1, factors.Warning.MaxIter)
			assert.Contains(t, factors.Warning.Error(), "maximum number of iterations 1 reached")

			// no warning if the stopping condition is disabled
			params.Tol = 0
			factors, err = solver.Factorize(context.Background(), v, params)
			require.NoError(t, err)
			assert.Nil(t, factors.Warning)
		})
	}
}

func TestFactorizeInvalid(t *testing.T) {
	v := sparseMatrix(4, 4, 4)
	solver := NewCoordinateDescent()
	ctx := context.Background()

	params := NewParams()
	params.Components = 0
	_, err := solver.Factorize(ctx, v, params)
	assert.True(t, errors.Is(err, errors.NotValid))

	params = NewParams()
	params.MaxIter = 0
	_, err = solver.Factorize(ctx, v, params)
	assert.True(t, errors.Is(err, errors.NotValid))

	params = NewParams()
	params.Tol = -1
	_, err = solver.Factorize(ctx, v, params)
	assert.True(t, errors.Is(err, errors.NotValid))

	negative := mat.DenseCopyOf(v)
	negative.Set(1, 2, -1)
	_, err = solver.Factorize(ctx, negative, NewParams())
	assert.True(t, errors.Is(err, errors.NotValid))

	params = NewParams()
	params.Init = "svd"
	_, err = solver.Factorize(ctx, v, params)
	assert.True(t, errors.Is(err, errors.NotSupported))
}

func TestFactorizeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, name := range Solvers() {
		solver, err := New(name)
		require.NoError(t, err)
		_, err = solver.Factorize(ctx, sparseMatrix(5, 5, 5), NewParams())
		assert.ErrorIs(t, err, context.Canceled)
	}
}
