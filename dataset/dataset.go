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
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/nmfbench/base"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Rating is a rating given by a user to a movie.
type Rating struct {
	UserId  string
	MovieId string
	Value   float64
}

// UserIds returns distinct user ids in first-seen order.
func UserIds(ratings []Rating) []string {
	return lo.Uniq(lo.Map(ratings, func(r Rating, _ int) string { return r.UserId }))
}

// MovieIds returns distinct movie ids in first-seen order.
func MovieIds(ratings []Rating) []string {
	return lo.Uniq(lo.Map(ratings, func(r Rating, _ int) string { return r.MovieId }))
}

// Subset is the result of sampling users and movies from training ratings.
type Subset struct {
	Users   []string
	Movies  []string
	Ratings []Rating
}

// Sample draws nUsers distinct users and nMovies distinct movies uniformly
// without replacement and keeps the ratings between sampled users and sampled
// movies. Both draws use their own generator seeded with seed.
func Sample(ratings []Rating, nUsers, nMovies int, seed int64) (*Subset, error) {
	users, err := sampleIds(UserIds(ratings), nUsers, seed, "users")
	if err != nil {
		return nil, errors.Trace(err)
	}
	movies, err := sampleIds(MovieIds(ratings), nMovies, seed, "movies")
	if err != nil {
		return nil, errors.Trace(err)
	}
	userSet := mapset.NewThreadUnsafeSet(users...)
	movieSet := mapset.NewThreadUnsafeSet(movies...)
	return &Subset{
		Users:  users,
		Movies: movies,
		Ratings: lo.Filter(ratings, func(r Rating, _ int) bool {
			return userSet.Contains(r.UserId) && movieSet.Contains(r.MovieId)
		}),
	}, nil
}

func sampleIds(ids []string, n int, seed int64, what string) ([]string, error) {
	if n <= 0 {
		return nil, errors.NotValidf("sample size %d of %s", n, what)
	}
	if n > len(ids) {
		return nil, &InsufficientDataError{What: what, Requested: n, Available: len(ids)}
	}
	rng := base.NewRandomGenerator(seed)
	return lo.Map(rng.Sample(0, len(ids), n), func(i int, _ int) string {
		return ids[i]
	}), nil
}
