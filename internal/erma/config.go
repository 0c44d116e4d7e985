// Package erma implements belief propagation as a single differentiable
// module, and the losses and decoders built on its beliefs.
//
// The forward pass runs a fixed number of message-passing sweeps and
// records every overwritten message on a tape. The backward pass replays
// the tape in reverse, so the gradient is exact for the sweeps that were
// actually run rather than for a converged fixed point.
//
// Usage:
//
//	params := autodiff.NewIdentity(theta)
//	pots := erma.NewFactorsModule(fg, params, cfg.Algebra())
//	bp, err := erma.NewErmaBp(fg, pots, cfg)
//	loss, err := erma.NewExpectedRecall(bp, gold)
//	order := autodiff.NewTopoOrder(loss)
//	order.Forward()
//	order.Backward()
//	grad := params.OutputAdj()
package erma

import (
	"errors"
	"fmt"

	"github.com/tianliuyang/pacaya/internal/semiring"
)

// ErrConfiguration is returned (or panicked, wrapped) for invalid
// configurations and for backward passes that cannot be run.
var ErrConfiguration = errors.New("invalid belief propagation configuration")

// Schedule selects the order in which messages are sent within a sweep.
type Schedule int

const (
	// TreeLike sends messages leaves-to-root then root-to-leaves over a
	// breadth-first spanning forest. One sequential sweep is exact on a
	// tree. Messages on edges outside the forest are sent last.
	TreeLike Schedule = iota
	// Fixed sends, factor by factor, the variable-to-factor messages and
	// then the factor-to-variable messages.
	Fixed
	// Random sends every message once per sweep in a random order drawn
	// from Config.Seed.
	Random
)

func (s Schedule) String() string {
	switch s {
	case TreeLike:
		return "tree-like"
	case Fixed:
		return "fixed"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("Schedule(%d)", int(s))
	}
}

// ParseSchedule is the inverse of Schedule.String.
func ParseSchedule(s string) (Schedule, error) {
	for _, sc := range []Schedule{TreeLike, Fixed, Random} {
		if sc.String() == s {
			return sc, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown schedule %q", ErrConfiguration, s)
}

// UpdateOrder selects between in-place and synchronous updates.
type UpdateOrder int

const (
	// Sequential updates each message in place, so later messages in a
	// sweep read earlier ones.
	Sequential UpdateOrder = iota
	// Parallel computes every message of a sweep from the previous
	// sweep's messages.
	Parallel
)

func (o UpdateOrder) String() string {
	switch o {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	default:
		return fmt.Sprintf("UpdateOrder(%d)", int(o))
	}
}

// ParseUpdateOrder is the inverse of UpdateOrder.String.
func ParseUpdateOrder(s string) (UpdateOrder, error) {
	for _, o := range []UpdateOrder{Sequential, Parallel} {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown update order %q", ErrConfiguration, s)
}

// Config holds belief propagation parameters.
type Config struct {
	// MaxIterations is the number of sweeps.
	MaxIterations int
	Schedule      Schedule
	UpdateOrder   UpdateOrder
	// NormalizeMessages rescales every message to sum to one.
	NormalizeMessages bool
	// LogDomain runs message passing in the log algebra.
	LogDomain bool
	// MaxProduct runs max-product (Viterbi) message passing. It is
	// forward only.
	MaxProduct bool
	// KeepTape records overwritten messages so Backward can run.
	KeepTape bool
	// Seed drives the Random schedule.
	Seed uint64
	// ConvergenceThreshold stops early once no message changes by more
	// than this amount in a sweep. Zero disables it. It is ignored when
	// KeepTape is set, so that the unrolled computation has a fixed
	// depth.
	ConvergenceThreshold float64
}

// DefaultConfig returns a configuration suitable for training: ten
// sequential tree-like sweeps with normalized messages and a tape.
func DefaultConfig() Config {
	return Config{
		MaxIterations:     10,
		Schedule:          TreeLike,
		UpdateOrder:       Sequential,
		NormalizeMessages: true,
		KeepTape:          true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: MaxIterations must be at least 1, got %d", ErrConfiguration, c.MaxIterations)
	}
	if c.Schedule < TreeLike || c.Schedule > Random {
		return fmt.Errorf("%w: unknown schedule %v", ErrConfiguration, c.Schedule)
	}
	if c.UpdateOrder < Sequential || c.UpdateOrder > Parallel {
		return fmt.Errorf("%w: unknown update order %v", ErrConfiguration, c.UpdateOrder)
	}
	if c.MaxProduct && c.KeepTape {
		return fmt.Errorf("%w: max-product is not differentiable, KeepTape must be false", ErrConfiguration)
	}
	if c.MaxProduct && c.LogDomain {
		return fmt.Errorf("%w: max-product has no log-domain variant", ErrConfiguration)
	}
	if c.ConvergenceThreshold < 0 {
		return fmt.Errorf("%w: negative ConvergenceThreshold %g", ErrConfiguration, c.ConvergenceThreshold)
	}
	return nil
}

// Algebra returns the algebra messages are computed in.
func (c Config) Algebra() semiring.Algebra {
	switch {
	case c.MaxProduct:
		return semiring.Viterbi
	case c.LogDomain:
		return semiring.Log
	default:
		return semiring.Real
	}
}
