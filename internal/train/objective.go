// Package train fits the parameters of log-linear factor graphs by
// minimizing the expected-recall loss of approximate beliefs.
package train

import (
	"errors"
	"fmt"

	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/erma"
	"github.com/tianliuyang/pacaya/internal/factorgraph"
	"github.com/tianliuyang/pacaya/internal/parallel"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// ErrParams is returned when a parameter vector does not cover the
// features of an example.
var ErrParams = errors.New("invalid parameter vector")

// Objective evaluates the loss of one labeled example and its gradient
// with respect to the model parameters.
type Objective struct {
	bp      erma.Config
	metrics *Metrics
}

// NewObjective validates bp, which must keep a tape. metrics may be nil.
func NewObjective(bp erma.Config, metrics *Metrics) (*Objective, error) {
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	if !bp.KeepTape {
		return nil, fmt.Errorf("%w: training requires KeepTape", erma.ErrConfiguration)
	}
	return &Objective{bp: bp, metrics: metrics}, nil
}

// Example runs belief propagation on ex at params and returns the
// weighted expected-recall loss and its gradient. Observed variables are
// clamped to their gold states. params is not modified.
func (o *Objective) Example(ex *factorgraph.LabeledExample, params []float64) (loss float64, grad []float64, err error) {
	g := ex.FactorGraph()
	if len(params) == 0 {
		return 0, nil, fmt.Errorf("%w: empty", ErrParams)
	}
	if n := g.NumParams(); n > len(params) {
		return 0, nil, fmt.Errorf("%w: graph uses %d parameters, got %d", ErrParams, n, len(params))
	}

	theta := autodiff.NewIdentity(tensor.MustFromValues(semiring.Real, tensor.Shape{len(params)}, params))
	pots := erma.NewFactorsModule(g, theta, o.bp.Algebra())
	bp, err := erma.NewErmaBp(g, pots, o.bp)
	if err != nil {
		return 0, nil, err
	}
	if err := bp.WithEvidence(ex.Evidence()); err != nil {
		return 0, nil, err
	}
	recall, err := erma.NewExpectedRecall(bp, ex.Gold())
	if err != nil {
		return 0, nil, err
	}

	order := autodiff.NewTopoOrder(recall)
	w := ex.Weight()
	loss = w * order.Forward().Value(0)
	order.Backward()

	grad = make([]float64, len(params))
	for i, v := range theta.OutputAdj().Values() {
		grad[i] = w * v
	}
	o.metrics.observeExample(bp.Iterations())
	return loss, grad, nil
}

// BatchObjective sums the Objective over a fixed set of examples,
// evaluating them on parallel workers.
type BatchObjective struct {
	obj      *Objective
	examples []*factorgraph.LabeledExample
	workers  parallel.Config
}

// NewBatchObjective creates a batch objective over examples.
func NewBatchObjective(obj *Objective, examples []*factorgraph.LabeledExample, workers parallel.Config) *BatchObjective {
	return &BatchObjective{obj: obj, examples: examples, workers: workers}
}

// NumExamples returns the batch size.
func (b *BatchObjective) NumExamples() int { return len(b.examples) }

// Value returns the summed loss and gradient at params. Each worker builds
// its own module graphs, and the per-example results are reduced in
// example order once all workers finish, so the result does not depend on
// the number of workers.
func (b *BatchObjective) Value(params []float64) (float64, []float64, error) {
	losses := make([]float64, len(b.examples))
	grads := make([][]float64, len(b.examples))
	err := parallel.For(len(b.examples), func(i int) error {
		l, g, err := b.obj.Example(b.examples[i], params)
		if err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
		losses[i], grads[i] = l, g
		return nil
	}, b.workers)
	if err != nil {
		return 0, nil, err
	}

	loss := 0.0
	grad := make([]float64, len(params))
	for i := range b.examples {
		loss += losses[i]
		for j, v := range grads[i] {
			grad[j] += v
		}
	}
	return loss, grad, nil
}
