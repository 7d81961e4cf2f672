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

package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/gorse-io/nmfbench/base/log"
	"github.com/gorse-io/nmfbench/config"
	"github.com/gorse-io/nmfbench/dataset"
	"github.com/gorse-io/nmfbench/model"
	"github.com/gorse-io/nmfbench/model/nmf"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Pipeline loads tables, samples a rating matrix, factorizes it and
// evaluates predictions on test ratings.
type Pipeline struct {
	Config     *config.Config
	Factorizer nmf.Factorizer
	// Progress shows progress bars while loading tables.
	Progress bool
}

// New creates a pipeline with the solver named by the config.
func New(cfg *config.Config) (*Pipeline, error) {
	factorizer, err := nmf.New(cfg.Model.Solver)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Pipeline{Config: cfg, Factorizer: factorizer}, nil
}

// Report is the outcome of a run.
type Report struct {
	RunId string

	NumMovies       int
	NumUsers        int
	NumTrainRatings int
	NumTestRatings  int

	SampledUsers   int
	SampledMovies  int
	SampledRatings int

	// shape of the rating matrix, which may be smaller than the sample if
	// some sampled users or movies have no rating in the sample
	MatrixUsers  int
	MatrixMovies int
	Density      float64

	Solver     string
	Components int
	Iterations int
	Converged  bool
	// TrainRMSE is measured over rated cells of the matrix.
	TrainRMSE float64

	Evaluation *model.Evaluation
	Duration   time.Duration
}

// String returns the test RMSE with four decimals.
func (r *Report) String() string {
	return fmt.Sprintf("RMSE: %.4f", r.Evaluation.RMSE)
}

// Render writes a summary table.
func (r *Report) Render(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header("Item", "Value")
	rows := [][]string{
		{"run id", r.RunId},
		{"movies", fmt.Sprint(r.NumMovies)},
		{"users", fmt.Sprint(r.NumUsers)},
		{"train ratings", fmt.Sprint(r.NumTrainRatings)},
		{"test ratings", fmt.Sprint(r.NumTestRatings)},
		{"sampled users", fmt.Sprint(r.SampledUsers)},
		{"sampled movies", fmt.Sprint(r.SampledMovies)},
		{"sampled ratings", fmt.Sprint(r.SampledRatings)},
		{"matrix", fmt.Sprintf("%d x %d", r.MatrixUsers, r.MatrixMovies)},
		{"density", fmt.Sprintf("%.5f", r.Density)},
		{"solver", r.Solver},
		{"components", fmt.Sprint(r.Components)},
		{"iterations", fmt.Sprint(r.Iterations)},
		{"converged", fmt.Sprint(r.Converged)},
		{"train RMSE", fmt.Sprintf("%.4f", r.TrainRMSE)},
		{"test RMSE", fmt.Sprintf("%.4f", r.Evaluation.RMSE)},
		{"test MAE", fmt.Sprintf("%.4f", r.Evaluation.MAE)},
		{"evaluated", fmt.Sprint(r.Evaluation.Evaluated)},
		{"dropped", fmt.Sprint(r.Evaluation.Dropped)},
		{"time", fmt.Sprintf("%d:%02d:%02d", int(r.Duration.Hours()), int(r.Duration.Minutes())%60, int(r.Duration.Seconds())%60)},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

// Run executes the pipeline once.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{RunId: uuid.NewString()}
	logger := log.Logger().With(zap.String("run_id", report.RunId))

	// load tables
	stepStart := time.Now()
	tables, err := dataset.LoadTables(p.Config.Paths(),
		dataset.WithSeparator(p.Config.Separator()),
		dataset.WithProgress(p.Progress))
	if err != nil {
		return nil, errors.Trace(err)
	}
	train, err := tables.Train.Ratings()
	if err != nil {
		return nil, errors.Trace(err)
	}
	test, err := tables.Test.Ratings()
	if err != nil {
		return nil, errors.Trace(err)
	}
	report.NumMovies = tables.Movies.Len()
	report.NumUsers = tables.Users.Len()
	report.NumTrainRatings = len(train)
	report.NumTestRatings = len(test)
	StepSecondsVec.WithLabelValues(StepLoadDataset).Set(time.Since(stepStart).Seconds())
	logger.Info("load dataset",
		zap.Int("n_movies", report.NumMovies),
		zap.Int("n_users", report.NumUsers),
		zap.Int("n_train", report.NumTrainRatings),
		zap.Int("n_test", report.NumTestRatings))

	// sample users and movies
	stepStart = time.Now()
	subset, err := dataset.Sample(train, p.Config.Sample.Users, p.Config.Sample.Movies, p.Config.Sample.Seed)
	if err != nil {
		return nil, errors.Trace(err)
	}
	report.SampledUsers = len(subset.Users)
	report.SampledMovies = len(subset.Movies)
	report.SampledRatings = len(subset.Ratings)
	StepSecondsVec.WithLabelValues(StepSample).Set(time.Since(stepStart).Seconds())
	logger.Info("sample dataset",
		zap.Int("n_users", report.SampledUsers),
		zap.Int("n_movies", report.SampledMovies),
		zap.Int("n_ratings", report.SampledRatings),
		zap.Int64("seed", p.Config.Sample.Seed))

	// build rating matrix
	stepStart = time.Now()
	matrix, err := dataset.BuildMatrix(subset.Ratings)
	if err != nil {
		return nil, errors.Trace(err)
	}
	report.MatrixUsers, report.MatrixMovies = matrix.Dims()
	report.Density = matrix.Density()
	StepSecondsVec.WithLabelValues(StepBuildMatrix).Set(time.Since(stepStart).Seconds())
	MatrixDensity.Set(report.Density)
	logger.Info("build rating matrix",
		zap.Int("n_users", report.MatrixUsers),
		zap.Int("n_movies", report.MatrixMovies),
		zap.Float64("density", report.Density))

	// factorize
	params := p.Config.Params()
	report.Solver = p.Factorizer.Name()
	report.Components = params.Components
	logger.Info("fit nmf",
		zap.String("solver", report.Solver),
		zap.Int("n_components", params.Components),
		zap.Int("max_iter", params.MaxIter),
		zap.Float64("tol", params.Tol),
		zap.String("init", params.Init))
	stepStart = time.Now()
	factors, err := p.Factorizer.Factorize(ctx, matrix.Ratings, params)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if factors.Warning != nil {
		logger.Warn("nmf did not converge", zap.Error(factors.Warning))
	}
	reconstruction := factors.Reconstruct()
	report.Iterations = factors.Iterations
	report.Converged = factors.Converged
	report.TrainRMSE = model.ObservedRMSE(matrix, reconstruction)
	logger.Info("fit nmf complete",
		zap.Int("n_iter", report.Iterations),
		zap.Bool("converged", report.Converged),
		zap.Float64("reconstruction_error", factors.Error),
		zap.Float64("train_rmse", report.TrainRMSE),
		zap.Duration("time", time.Since(stepStart)))
	StepSecondsVec.WithLabelValues(StepFit).Set(time.Since(stepStart).Seconds())
	FitIterations.Set(float64(report.Iterations))
	FitConverged.Set(lo.Ternary(report.Converged, 1.0, 0.0))
	TrainRMSE.Set(report.TrainRMSE)

	// evaluate
	stepStart = time.Now()
	report.Evaluation, err = model.Evaluate(reconstruction, matrix.UserIndex, matrix.MovieIndex, test)
	if err != nil {
		return nil, errors.Trace(err)
	}
	report.Duration = time.Since(start)
	StepSecondsVec.WithLabelValues(StepEvaluate).Set(time.Since(stepStart).Seconds())
	TotalSeconds.Set(report.Duration.Seconds())
	TestRMSE.Set(report.Evaluation.RMSE)
	TestMAE.Set(report.Evaluation.MAE)
	TestEvaluatedTotal.Set(float64(report.Evaluation.Evaluated))
	TestDroppedTotal.Set(float64(report.Evaluation.Dropped))
	logger.Info("evaluate",
		zap.Int("n_evaluated", report.Evaluation.Evaluated),
		zap.Int("n_dropped", report.Evaluation.Dropped),
		zap.Float64("rmse", report.Evaluation.RMSE),
		zap.Float64("mae", report.Evaluation.MAE))
	return report, nil
}
