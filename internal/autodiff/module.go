// Package autodiff implements reverse-mode automatic differentiation over a
// DAG of modules.
//
// Architecture:
//   - Module: one computational step with Forward and Backward
//   - Base: output and adjoint bookkeeping embedded by every module
//   - TopoOrder: schedules a whole DAG for a forward sweep and the mirrored
//     backward sweep
//
// Each module exclusively owns its output and the adjoint of that output.
// During Backward a module reads its own adjoint and adds its local
// Jacobian-vector product into each input with AccumulateAdj. Accumulation
// is always +=, so a module consumed by several downstream modules receives
// the sum of their contributions.
//
// Usage:
//
//	x := autodiff.NewIdentity(xTensor)
//	y := ops.NewExp(x)
//	loss := ops.NewSum(y)
//
//	order := autodiff.NewTopoOrder(loss)
//	order.Forward()
//	order.Backward()
//	grad := x.OutputAdj() // dloss/dx
package autodiff

import (
	"errors"
	"fmt"

	"github.com/tianliuyang/pacaya/internal/tensor"
)

// ErrNotComputed is the panic value (wrapped) raised when a module's output
// or adjoint is requested before its Forward has run.
var ErrNotComputed = errors.New("output not computed: forward must run before backward")

// Value is the constraint on module outputs: it must be able to produce a
// zero adjoint of its own shape and to accumulate another adjoint into
// itself.
type Value[T any] interface {
	AdjointLike() T
	ElemAdd(other T) error
}

// Node is the type-erased view of a module used by the scheduler.
type Node interface {
	// Forward computes and caches the output from already-computed inputs.
	Forward()

	// Backward adds this module's contribution to the adjoint of every
	// input. Its own adjoint must be complete.
	Backward()

	// Inputs returns the modules this module reads, in declaration order.
	Inputs() []Node

	// ZeroOutputAdj resets the adjoint to zero.
	ZeroOutputAdj()
}

// Module is a node whose output has type T.
type Module[T any] interface {
	Node

	// Output returns the cached output. It panics if Forward has not run.
	Output() T

	// OutputAdj returns the adjoint of the output, allocating a zero
	// adjoint on first use. Callers must treat it as read-only.
	OutputAdj() T

	// AccumulateAdj adds delta into the output adjoint.
	AccumulateAdj(delta T)
}

// Base implements Output, OutputAdj, AccumulateAdj and ZeroOutputAdj.
// Modules embed it and call SetOutput from Forward.
type Base[T Value[T]] struct {
	name   string
	y      T
	yAdj   T
	hasY   bool
	hasAdj bool
}

// NewBase creates a Base. The name is used in panic messages.
func NewBase[T Value[T]](name string) Base[T] {
	return Base[T]{name: name}
}

// SetOutput caches the result of Forward and discards any previous adjoint.
func (b *Base[T]) SetOutput(y T) {
	b.y = y
	b.hasY = true
	b.hasAdj = false
}

// Computed reports whether Forward has produced an output.
func (b *Base[T]) Computed() bool {
	return b.hasY
}

// Output returns the cached output.
func (b *Base[T]) Output() T {
	if !b.hasY {
		panic(fmt.Errorf("%w (%s)", ErrNotComputed, b.name))
	}
	return b.y
}

// OutputAdj returns the output adjoint, allocating it lazily.
func (b *Base[T]) OutputAdj() T {
	if !b.hasAdj {
		b.yAdj = b.Output().AdjointLike()
		b.hasAdj = true
	}
	return b.yAdj
}

// AccumulateAdj adds delta into the output adjoint. A shape mismatch is a
// construction bug and panics.
func (b *Base[T]) AccumulateAdj(delta T) {
	if err := b.OutputAdj().ElemAdd(delta); err != nil {
		panic(fmt.Errorf("%s: accumulate adjoint: %w", b.name, err))
	}
}

// ZeroOutputAdj resets the adjoint. It is a no-op before Forward.
func (b *Base[T]) ZeroOutputAdj() {
	if !b.hasY {
		return
	}
	b.yAdj = b.y.AdjointLike()
	b.hasAdj = true
}

// TensorModule is a module producing a tensor.
type TensorModule = Module[*tensor.Tensor]
