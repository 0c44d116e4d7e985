// Copyright 2025 Pacaya Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides dense n-dimensional arrays whose elements are
// encoded in an algebra.
//
// Example:
//
//	import (
//	    "github.com/tianliuyang/pacaya/semiring"
//	    "github.com/tianliuyang/pacaya/tensor"
//	)
//
//	func main() {
//	    t := tensor.MustFromValues(semiring.Real, tensor.Shape{2}, []float64{1, 3})
//	    l := t.Convert(semiring.Log)
//	    l.Normalize() // log(0.25), log(0.75)
//	}
package tensor

import (
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// Tensor is a dense row-major array of algebra-encoded values.
type Tensor = tensor.Tensor

// Shape is the size of each dimension.
type Shape = tensor.Shape

// ErrShapeMismatch is returned when operands have different shapes.
var ErrShapeMismatch = tensor.ErrShapeMismatch

// New creates a tensor with the given dimensions filled with alg's zero.
func New(alg semiring.Algebra, dims ...int) *Tensor {
	return tensor.New(alg, dims...)
}

// NewScalar creates a zero-dimensional tensor holding v.
func NewScalar(alg semiring.Algebra, v float64) *Tensor {
	return tensor.NewScalar(alg, v)
}

// FromValues creates a tensor with a copy of values.
func FromValues(alg semiring.Algebra, shape Shape, values []float64) (*Tensor, error) {
	return tensor.FromValues(alg, shape, values)
}

// MustFromValues is like FromValues but panics on error.
func MustFromValues(alg semiring.Algebra, shape Shape, values []float64) *Tensor {
	return tensor.MustFromValues(alg, shape, values)
}
