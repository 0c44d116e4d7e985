// Copyright 2025 Pacaya Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides first-order optimizers over flat parameter
// vectors.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	optimizer := optim.NewAdam(len(theta), optim.AdamConfig{LR: 0.01})
//	for range epochs {
//	    loss, grad, err := objective.Value(theta)
//	    ...
//	    if err := optimizer.Step(theta, grad); err != nil {
//	        return err
//	    }
//	}
package optim
