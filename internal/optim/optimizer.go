// Package optim implements first-order optimizers over a flat parameter
// vector.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Example usage:
//
//	optimizer := optim.NewSGD(len(theta), optim.SGDConfig{LR: 0.1, Momentum: 0.9})
//
//	for epoch := range epochs {
//	    loss, grad, err := batch.Value(theta)
//	    ...
//	    optimizer.Step(theta, grad)
//	}
package optim

import (
	"errors"
	"fmt"
)

// ErrDimension is returned when a parameter and gradient vector disagree
// in length with the optimizer state.
var ErrDimension = errors.New("dimension mismatch")

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers update parameters in place to minimize the objective whose
// gradient is given.
type Optimizer interface {
	// Step applies one update to params using grad. Both must have the
	// length the optimizer was created with.
	Step(params, grad []float64) error

	// LR returns the current learning rate.
	LR() float64

	// SetLR updates the learning rate, for schedules.
	SetLR(lr float64)
}

func checkDims(n int, params, grad []float64) error {
	if len(params) != n || len(grad) != n {
		return fmt.Errorf("%w: optimizer has %d parameters, got params=%d grad=%d",
			ErrDimension, n, len(params), len(grad))
	}
	return nil
}
