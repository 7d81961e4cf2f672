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
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelStep = "step"

	StepLoadDataset = "load_dataset"
	StepSample      = "sample"
	StepBuildMatrix = "build_matrix"
	StepFit         = "fit"
	StepEvaluate    = "evaluate"
)

// Registry holds the metrics of the latest run.
var Registry = prometheus.NewRegistry()

var (
	StepSecondsVec = promauto.With(Registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nmfbench",
		Subsystem: "pipeline",
		Name:      "step_seconds",
	}, []string{LabelStep})
	TotalSeconds = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "nmfbench",
		Subsystem: "pipeline",
		Name:      "total_seconds",
	})
	MatrixDensity = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "nmfbench",
		Subsystem: "pipeline",
		Name:      "matrix_density",
	})
	FitIterations = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "nmfbench",
		Subsystem: "pipeline",
		Name:      "fit_iterations",
	})
	FitConverged = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "nmfbench",
		Subsystem: "pipeline",
		Name:      "fit_converged",
	})
	TrainRMSE = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "nmfbench",
		Subsystem: "pipeline",
		Name:      "train_rmse",
	})
	TestRMSE = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "nmfbench",
		Subsystem: "pipeline",
		Name:      "test_rmse",
	})
	TestMAE = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "nmfbench",
		Subsystem: "pipeline",
		Name:      "test_mae",
	})
	TestEvaluatedTotal = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "nmfbench",
		Subsystem: "pipeline",
		Name:      "test_evaluated_total",
	})
	TestDroppedTotal = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "nmfbench",
		Subsystem: "pipeline",
		Name:      "test_dropped_total",
	})
)

// WriteMetrics writes metrics in the text exposition format, which can be
// picked up by the textfile collector of node exporter.
func WriteMetrics(path string) error {
	return errors.Trace(prometheus.WriteToTextfile(path, Registry))
}
