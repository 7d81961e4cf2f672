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

package model

import (
	"math"

	"github.com/gorse-io/nmfbench/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// EmptyEvaluationSetError means no test rating could be evaluated.
type EmptyEvaluationSetError struct {
	// Total is the number of test ratings before filtering.
	Total int
}

func (e *EmptyEvaluationSetError) Error() string {
	if e.Total == 0 {
		return "empty evaluation set: no test ratings"
	}
	return "empty evaluation set: none of the test ratings has both user and movie in the sampled matrix"
}

// Evaluation summarizes predictions against test ratings.
type Evaluation struct {
	RMSE      float64
	MAE       float64
	Evaluated int
	// Dropped counts test ratings whose user or movie is not in the matrix.
	Dropped int
}

// Evaluate looks up predictions of test ratings in a reconstructed matrix.
// Ratings of unknown users or movies are dropped.
func Evaluate(reconstruction mat.Matrix, userIndex, movieIndex *dataset.FreqDict, test []dataset.Rating) (*Evaluation, error) {
	actual := make([]float64, 0, len(test))
	predicted := make([]float64, 0, len(test))
	for _, rating := range test {
		userIdx, ok := userIndex.Index(rating.UserId)
		if !ok {
			continue
		}
		movieIdx, ok := movieIndex.Index(rating.MovieId)
		if !ok {
			continue
		}
		actual = append(actual, rating.Value)
		predicted = append(predicted, reconstruction.At(userIdx, movieIdx))
	}
	if len(actual) == 0 {
		return nil, &EmptyEvaluationSetError{Total: len(test)}
	}
	return &Evaluation{
		RMSE:      RMSE(actual, predicted),
		MAE:       MAE(actual, predicted),
		Evaluated: len(actual),
		Dropped:   len(test) - len(actual),
	}, nil
}

// ObservedRMSE is the RMSE of a reconstruction over rated cells of the
// training matrix.
func ObservedRMSE(matrix *dataset.RatingMatrix, reconstruction mat.Matrix) float64 {
	_, nMovies := matrix.Dims()
	actual := make([]float64, 0, matrix.CountObserved())
	predicted := make([]float64, 0, matrix.CountObserved())
	for i, ok := matrix.Observed.NextSet(0); ok; i, ok = matrix.Observed.NextSet(i + 1) {
		row, col := int(i)/nMovies, int(i)%nMovies
		actual = append(actual, matrix.Ratings.At(row, col))
		predicted = append(predicted, reconstruction.At(row, col))
	}
	if len(actual) == 0 {
		return 0
	}
	return RMSE(actual, predicted)
}

// RMSE is root mean square error.
func RMSE(actual, predicted []float64) float64 {
	return floats.Distance(actual, predicted, 2) / math.Sqrt(float64(len(actual)))
}

// MAE is mean absolute error.
func MAE(actual, predicted []float64) float64 {
	return floats.Distance(actual, predicted, 1) / float64(len(actual))
}
