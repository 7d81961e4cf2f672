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

package base

import (
	"math"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const randomEpsilon = 0.1

func TestRandomGenerator_AbsNormalVector(t *testing.T) {
	rng := NewRandomGenerator(0)
	vec := rng.AbsNormalVector(10000, 2)
	assert.GreaterOrEqual(t, floats.Min(vec), 0.0)
	// E|X| = sqrt(2/pi) for a standard normal X
	assert.InDelta(t, 2*math.Sqrt(2/math.Pi), stat.Mean(vec, nil), randomEpsilon)
}

func TestRandomGenerator_Sample(t *testing.T) {
	excludeSet := mapset.NewSet(0, 1, 2, 3, 4)
	rng := NewRandomGenerator(0)
	for i := 1; i <= 10; i++ {
		sampled := rng.Sample(0, 10, i, excludeSet)
		for j := range sampled {
			assert.False(t, excludeSet.Contains(sampled[j]))
		}
	}
}

func TestRandomGenerator_SampleDistinct(t *testing.T) {
	rng := NewRandomGenerator(42)
	sampled := rng.Sample(0, 1000, 500)
	assert.Len(t, sampled, 500)
	assert.Equal(t, 500, mapset.NewSet(sampled...).Cardinality())
	for _, v := range sampled {
		assert.True(t, v >= 0 && v < 1000)
	}
	// the whole interval is returned in order when n covers it
	assert.Equal(t, []int{3, 4, 5}, NewRandomGenerator(42).Sample(3, 6, 3))
}

func TestRandomGenerator_SampleDeterministic(t *testing.T) {
	a := NewRandomGenerator(42).Sample(0, 100, 20)
	b := NewRandomGenerator(42).Sample(0, 100, 20)
	c := NewRandomGenerator(7).Sample(0, 100, 20)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
