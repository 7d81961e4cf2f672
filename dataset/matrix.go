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

package dataset

import (
	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/mat"
)

// RatingMatrix is a dense user-movie rating matrix. Unrated cells hold 0.
type RatingMatrix struct {
	UserIndex  *FreqDict
	MovieIndex *FreqDict
	Ratings    *mat.Dense
	// Observed has bit i*M+j set if user i rated movie j.
	Observed *bitset.BitSet
}

// BuildMatrix indexes users and movies in first-seen order and fills the
// matrix. A later rating of the same (user, movie) pair overwrites the earlier one.
func BuildMatrix(ratings []Rating) (*RatingMatrix, error) {
	if len(ratings) == 0 {
		return nil, &InsufficientDataError{What: "ratings", Requested: 1, Available: 0}
	}
	m := &RatingMatrix{
		UserIndex:  NewFreqDict(),
		MovieIndex: NewFreqDict(),
	}
	userIndices := make([]int, len(ratings))
	movieIndices := make([]int, len(ratings))
	for i, rating := range ratings {
		userIndices[i] = m.UserIndex.Id(rating.UserId)
		movieIndices[i] = m.MovieIndex.Id(rating.MovieId)
	}
	nUsers, nMovies := m.UserIndex.Count(), m.MovieIndex.Count()
	m.Ratings = mat.NewDense(nUsers, nMovies, nil)
	m.Observed = bitset.New(uint(nUsers * nMovies))
	for i, rating := range ratings {
		m.Ratings.Set(userIndices[i], movieIndices[i], rating.Value)
		m.Observed.Set(uint(userIndices[i]*nMovies + movieIndices[i]))
	}
	return m, nil
}

// Dims returns the number of users and movies.
func (m *RatingMatrix) Dims() (int, int) {
	return m.Ratings.Dims()
}

func (m *RatingMatrix) IsObserved(userIndex, movieIndex int) bool {
	_, nMovies := m.Dims()
	return m.Observed.Test(uint(userIndex*nMovies + movieIndex))
}

// CountObserved returns the number of rated cells.
func (m *RatingMatrix) CountObserved() int {
	return int(m.Observed.Count())
}

// Density is the fraction of rated cells.
func (m *RatingMatrix) Density() float64 {
	nUsers, nMovies := m.Dims()
	return float64(m.CountObserved()) / float64(nUsers*nMovies)
}
