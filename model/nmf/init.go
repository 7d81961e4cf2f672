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
	"math"

	"github.com/gorse-io/nmfbench/base"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Entries of nndsvd factors below epsilon are treated as zeros.
const epsilon = 1e-6

// Initialization methods.
const (
	// InitAuto uses nndsvda if k <= min(n, m), otherwise random.
	InitAuto = ""
	// InitRandom draws |N(0,1)| scaled by sqrt(mean(V)/k).
	InitRandom = "random"
	// InitNNDSVD is non-negative double singular value decomposition by
	// Boutsidis and Gallopoulos. Zeros are kept, which suits sparse factors.
	InitNNDSVD = "nndsvd"
	// InitNNDSVDA is nndsvd with zeros filled by mean(V).
	InitNNDSVDA = "nndsvda"
)

// Inits lists the accepted initialization methods.
func Inits() []string {
	return []string{InitAuto, InitRandom, InitNNDSVD, InitNNDSVDA}
}

// initialize creates initial factors for v.
func initialize(v mat.Matrix, params Params) (w, h *mat.Dense, err error) {
	n, m := v.Dims()
	k := params.Components
	method := params.Init
	if method == InitAuto {
		if k <= min(n, m) {
			method = InitNNDSVDA
		} else {
			method = InitRandom
		}
	}
	switch method {
	case InitRandom:
		w, h = randomInit(v, k, params.Seed)
		return w, h, nil
	case InitNNDSVD, InitNNDSVDA:
		if k > min(n, m) {
			return nil, nil, errors.NotValidf("%s with %d components for a %dx%d matrix", method, k, n, m)
		}
		return nndsvd(v, k, method == InitNNDSVDA)
	default:
		return nil, nil, errors.NotSupportedf("initialization %s", method)
	}
}

func mean(v mat.Matrix) float64 {
	n, m := v.Dims()
	return mat.Sum(v) / float64(n*m)
}

func randomInit(v mat.Matrix, k int, seed int64) (w, h *mat.Dense) {
	n, m := v.Dims()
	scale := math.Sqrt(mean(v) / float64(k))
	rng := base.NewRandomGenerator(seed)
	h = mat.NewDense(k, m, rng.AbsNormalVector(k*m, scale))
	w = mat.NewDense(n, k, rng.AbsNormalVector(n*k, scale))
	return w, h
}

func nndsvd(v mat.Matrix, k int, fillZeros bool) (w, h *mat.Dense, err error) {
	n, m := v.Dims()
	var svd mat.SVD
	if ok := svd.Factorize(v, mat.SVDThin); !ok {
		return nil, nil, errors.New("failed to factorize input matrix by SVD")
	}
	s := svd.Values(nil)
	var u, vr mat.Dense
	svd.UTo(&u)
	svd.VTo(&vr)

	w = mat.NewDense(n, k, nil)
	h = mat.NewDense(k, m, nil)
	// the leading singular vectors of a non-negative matrix can be chosen non-negative
	w.SetCol(0, scaleAbs(mat.Col(nil, 0, &u), math.Sqrt(s[0])))
	h.SetRow(0, scaleAbs(mat.Col(nil, 0, &vr), math.Sqrt(s[0])))
	for j := 1; j < k; j++ {
		x, y := mat.Col(nil, j, &u), mat.Col(nil, j, &vr)
		xp, xn := splitSigns(x)
		yp, yn := splitSigns(y)
		xpNorm, ypNorm := floats.Norm(xp, 2), floats.Norm(yp, 2)
		xnNorm, ynNorm := floats.Norm(xn, 2), floats.Norm(yn, 2)
		mp, mn := xpNorm*ypNorm, xnNorm*ynNorm
		// keep the dominating sign pair
		var uj, vj []float64
		var sigma float64
		if mp > mn {
			uj, vj, sigma = normalize(xp, xpNorm), normalize(yp, ypNorm), mp
		} else {
			uj, vj, sigma = normalize(xn, xnNorm), normalize(yn, ynNorm), mn
		}
		lambda := math.Sqrt(s[j] * sigma)
		floats.Scale(lambda, uj)
		floats.Scale(lambda, vj)
		w.SetCol(j, uj)
		h.SetRow(j, vj)
	}

	fill := 0.0
	if fillZeros {
		fill = mean(v)
	}
	threshold := func(_, _ int, x float64) float64 {
		if x < epsilon {
			return fill
		}
		return x
	}
	w.Apply(threshold, w)
	h.Apply(threshold, h)
	return w, h, nil
}

func scaleAbs(x []float64, scale float64) []float64 {
	for i := range x {
		x[i] = math.Abs(x[i]) * scale
	}
	return x
}

// splitSigns returns the positive part and the magnitude of the negative part.
func splitSigns(x []float64) (pos, neg []float64) {
	pos, neg = make([]float64, len(x)), make([]float64, len(x))
	for i, xi := range x {
		if xi > 0 {
			pos[i] = xi
		} else {
			neg[i] = -xi
		}
	}
	return pos, neg
}

func normalize(x []float64, norm float64) []float64 {
	if norm > 0 {
		floats.Scale(1/norm, x)
	}
	return x
}
