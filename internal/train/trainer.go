package train

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/tianliuyang/pacaya/internal/erma"
	"github.com/tianliuyang/pacaya/internal/factorgraph"
	"github.com/tianliuyang/pacaya/internal/optim"
	"github.com/tianliuyang/pacaya/internal/parallel"
)

// Optimizer names accepted by Config.
const (
	OptimizerSGD  = "sgd"
	OptimizerAdam = "adam"
)

// Config holds training hyperparameters.
type Config struct {
	Epochs    int
	Optimizer string  // "sgd" or "adam"
	LR        float64 // initial learning rate
	LRDecay   float64 // learning rate multiplier applied after each epoch
	Momentum  float64 // SGD only
	L2        float64 // L2 regularization
	BP        erma.Config
	Workers   parallel.Config
}

// DefaultConfig returns full-batch SGD with momentum over the default
// belief propagation configuration.
func DefaultConfig() Config {
	return Config{
		Epochs:    50,
		Optimizer: OptimizerSGD,
		LR:        0.5,
		LRDecay:   1,
		Momentum:  0.9,
		L2:        1e-3,
		BP:        erma.DefaultConfig(),
		Workers:   parallel.DefaultConfig(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Epochs < 1 {
		return fmt.Errorf("%w: Epochs must be at least 1, got %d", erma.ErrConfiguration, c.Epochs)
	}
	if c.Optimizer != OptimizerSGD && c.Optimizer != OptimizerAdam {
		return fmt.Errorf("%w: unknown optimizer %q", erma.ErrConfiguration, c.Optimizer)
	}
	if c.LR <= 0 || c.LRDecay <= 0 {
		return fmt.Errorf("%w: LR and LRDecay must be positive", erma.ErrConfiguration)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("%w: Momentum must be in [0, 1), got %g", erma.ErrConfiguration, c.Momentum)
	}
	if c.L2 < 0 {
		return fmt.Errorf("%w: negative L2 %g", erma.ErrConfiguration, c.L2)
	}
	return c.BP.Validate()
}

// Result is the outcome of training.
type Result struct {
	Params []float64
	Losses []float64 // regularized loss before each epoch's update
}

// Train minimizes the summed expected-recall loss of examples plus the L2
// penalty, starting from init, with one full-batch update per epoch.
// metrics may be nil. Training stops early with ctx's error if ctx is
// cancelled between epochs.
func Train(ctx context.Context, examples []*factorgraph.LabeledExample, init []float64, cfg Config, metrics *Metrics) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	obj, err := NewObjective(cfg.BP, metrics)
	if err != nil {
		return nil, err
	}
	batch := NewBatchObjective(obj, examples, cfg.Workers)

	params := append([]float64(nil), init...)
	var opt optim.Optimizer
	switch cfg.Optimizer {
	case OptimizerAdam:
		opt = optim.NewAdam(len(params), optim.AdamConfig{LR: cfg.LR})
	default:
		opt = optim.NewSGD(len(params), optim.SGDConfig{LR: cfg.LR, Momentum: cfg.Momentum})
	}

	res := &Result{Params: params}
	for epoch := range cfg.Epochs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		loss, grad, err := batch.Value(params)
		if err != nil {
			return res, fmt.Errorf("epoch %d: %w", epoch+1, err)
		}
		loss += regularize(params, grad, cfg.L2)
		gradNorm := norm(grad)

		res.Losses = append(res.Losses, loss)
		metrics.observeEpoch(loss, gradNorm)
		slog.Info("training epoch",
			"epoch", epoch+1,
			"loss", loss,
			"grad_norm", gradNorm,
			"lr", opt.LR(),
			"examples", batch.NumExamples())

		if err := opt.Step(params, grad); err != nil {
			return res, err
		}
		opt.SetLR(opt.LR() * cfg.LRDecay)
	}
	return res, nil
}

// regularize adds the gradient of (l2/2)·‖params‖² into grad and returns
// the penalty.
func regularize(params, grad []float64, l2 float64) float64 {
	if l2 == 0 {
		return 0
	}
	penalty := 0.0
	for i, p := range params {
		penalty += p * p
		grad[i] += l2 * p
	}
	return 0.5 * l2 * penalty
}

func norm(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}
