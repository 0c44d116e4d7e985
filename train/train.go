// Copyright 2025 Pacaya Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train fits log-linear factor graph models by minimizing the
// expected-recall loss of belief propagation beliefs.
//
// Example:
//
//	cfg := train.DefaultConfig()
//	cfg.Epochs = 30
//	res, err := train.Train(ctx, examples, make([]float64, numParams), cfg, nil)
package train

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tianliuyang/pacaya/internal/factorgraph"
	"github.com/tianliuyang/pacaya/internal/parallel"
	"github.com/tianliuyang/pacaya/internal/train"
)

// Config holds training hyperparameters.
type Config = train.Config

// Result is the outcome of training.
type Result = train.Result

// Objective evaluates one example's loss and gradient.
type Objective = train.Objective

// BatchObjective sums the Objective over examples on parallel workers.
type BatchObjective = train.BatchObjective

// Metrics records training progress in Prometheus.
type Metrics = train.Metrics

// Workers controls how examples are spread over goroutines.
type Workers = parallel.Config

// Optimizer names.
const (
	OptimizerSGD  = train.OptimizerSGD
	OptimizerAdam = train.OptimizerAdam
)

// ErrParams reports a parameter vector that does not fit an example.
var ErrParams = train.ErrParams

// DefaultConfig returns full-batch SGD with momentum.
func DefaultConfig() Config {
	return train.DefaultConfig()
}

// DefaultWorkers returns one worker per CPU.
func DefaultWorkers() Workers {
	return parallel.DefaultConfig()
}

// NewMetrics registers the training metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return train.NewMetrics(reg)
}

// NewObjective creates an objective; bp must keep a tape.
func NewObjective(cfg Config, metrics *Metrics) (*Objective, error) {
	return train.NewObjective(cfg.BP, metrics)
}

// NewBatchObjective creates a batch objective over examples.
func NewBatchObjective(obj *Objective, examples []*factorgraph.LabeledExample, workers Workers) *BatchObjective {
	return train.NewBatchObjective(obj, examples, workers)
}

// Train minimizes the regularized loss of examples starting from init.
func Train(ctx context.Context, examples []*factorgraph.LabeledExample, init []float64, cfg Config, metrics *Metrics) (*Result, error) {
	return train.Train(ctx, examples, init, cfg, metrics)
}
