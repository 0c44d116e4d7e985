// Copyright 2025 Pacaya Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tianliuyang/pacaya/autodiff"
	"github.com/tianliuyang/pacaya/semiring"
	"github.com/tianliuyang/pacaya/tensor"
)

func TestExpSumGradient(t *testing.T) {
	x := autodiff.NewIdentity(tensor.MustFromValues(semiring.Real, tensor.Shape{3}, []float64{0, 1, 2}))
	loss := autodiff.Sum(autodiff.Exp(x))

	order := autodiff.NewTopoOrder(loss)
	assert.InDelta(t, 1+math.E+math.Exp(2), order.Forward().Value(0), 1e-12)
	order.Backward()
	assert.InDeltaSlice(t, []float64{1, math.E, math.Exp(2)}, x.OutputAdj().Values(), 1e-12)
}

func TestComposedOpsMatchFiniteDifferences(t *testing.T) {
	build := func(theta []float64) (*autodiff.Identity[*tensor.Tensor], *autodiff.TopoOrder) {
		x := autodiff.NewIdentity(tensor.MustFromValues(semiring.Real, tensor.Shape{2}, theta))
		y := autodiff.Add(autodiff.Mul(x, x), autodiff.Scale(autodiff.Log(x), 3))
		return x, autodiff.NewTopoOrder(autodiff.Sum(y))
	}
	theta := []float64{0.5, 2}
	x, order := build(theta)
	order.Forward()
	order.Backward()

	fd := autodiff.NumericalGradient(func(th []float64) float64 {
		_, o := build(th)
		return o.Forward().Value(0)
	}, theta, 1e-6)
	assert.InDeltaSlice(t, fd, x.OutputAdj().Values(), 1e-6)
}
