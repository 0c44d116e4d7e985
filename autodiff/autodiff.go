// Copyright 2025 Pacaya Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation over a
// DAG of modules.
//
// Each module owns its output and the adjoint of that output. A TopoOrder
// runs every module's Forward once in dependency order and the mirrored
// Backward sweep, accumulating adjoints into inputs.
//
// Example:
//
//	import (
//	    "github.com/tianliuyang/pacaya/autodiff"
//	    "github.com/tianliuyang/pacaya/semiring"
//	    "github.com/tianliuyang/pacaya/tensor"
//	)
//
//	func main() {
//	    x := autodiff.NewIdentity(tensor.MustFromValues(semiring.Real, tensor.Shape{3}, []float64{1, 2, 3}))
//	    loss := autodiff.Sum(autodiff.Exp(x))
//
//	    order := autodiff.NewTopoOrder(loss)
//	    order.Forward()
//	    order.Backward()
//	    grad := x.OutputAdj() // exp(x)
//	}
package autodiff

import (
	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/autodiff/ops"
)

// Node is the type-erased view of a module used by the scheduler.
type Node = autodiff.Node

// Module is a node whose output has type T.
type Module[T any] = autodiff.Module[T]

// Value is the constraint on module outputs.
type Value[T any] = autodiff.Value[T]

// Base implements the output and adjoint bookkeeping of a module.
type Base[T Value[T]] = autodiff.Base[T]

// TensorModule is a module producing a tensor.
type TensorModule = autodiff.TensorModule

// Identity is a leaf module holding a fixed value.
type Identity[T Value[T]] = autodiff.Identity[T]

// TopoOrder schedules a forward sweep and its mirrored backward sweep.
type TopoOrder = autodiff.TopoOrder

// ErrNotComputed is raised when an output is read before Forward.
var ErrNotComputed = autodiff.ErrNotComputed

// NewBase creates a Base; name is used in panic messages.
func NewBase[T Value[T]](name string) Base[T] {
	return autodiff.NewBase[T](name)
}

// NewIdentity creates a leaf module whose output is y.
func NewIdentity[T Value[T]](y T) *Identity[T] {
	return autodiff.NewIdentity(y)
}

// NewTopoOrder orders every module reachable from sink.
func NewTopoOrder(sink TensorModule) *TopoOrder {
	return autodiff.NewTopoOrder(sink)
}

// Exp returns a module computing the element-wise exponential.
func Exp(x TensorModule) TensorModule { return ops.NewExp(x) }

// Log returns a module computing the element-wise natural logarithm.
func Log(x TensorModule) TensorModule { return ops.NewLog(x) }

// Add returns a module computing a + b element-wise.
func Add(a, b TensorModule) TensorModule { return ops.NewAdd(a, b) }

// Mul returns a module computing a * b element-wise.
func Mul(a, b TensorModule) TensorModule { return ops.NewMul(a, b) }

// Scale returns a module computing c * x.
func Scale(x TensorModule, c float64) TensorModule { return ops.NewScale(x, c) }

// Sum returns a module computing the scalar sum of x.
func Sum(x TensorModule) TensorModule { return ops.NewSum(x) }

// NumericalGradient estimates the gradient of f at theta with centred
// finite differences.
func NumericalGradient(f func([]float64) float64, theta []float64, epsilon float64) []float64 {
	return autodiff.NumericalGradient(f, theta, epsilon)
}
