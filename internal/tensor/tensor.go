// Package tensor implements dense float64 tensors tagged with a semiring
// algebra.
//
// The algebra records how the stored numbers are encoded (e.g. as
// log-probabilities) and supplies the arithmetic used by element-wise ops.
// Tensors carry no gradient state: adjoints are owned by the autodiff
// modules that produce tensors.
package tensor

import (
	"errors"
	"fmt"

	"github.com/tianliuyang/pacaya/internal/semiring"
)

// ErrShapeMismatch is returned when the shapes of two operands differ.
var ErrShapeMismatch = errors.New("shape mismatch")

// Tensor is a dense multi-dimensional buffer of values in an algebra.
//
// Example:
//
//	t := tensor.New(semiring.Real, 2, 3) // filled with Real.Zero()
//	t.Set(0.5, 1, 2)
type Tensor struct {
	shape  Shape
	values []float64
	alg    semiring.Algebra
}

// New creates a tensor of the given shape filled with alg.Zero().
// It panics on an invalid shape.
func New(alg semiring.Algebra, dims ...int) *Tensor {
	shape := Shape(dims).Clone()
	if err := shape.Validate(); err != nil {
		panic(err)
	}
	t := &Tensor{
		shape:  shape,
		values: make([]float64, shape.NumElements()),
		alg:    alg,
	}
	if z := alg.Zero(); z != 0 {
		t.Fill(z)
	}
	return t
}

// NewScalar creates a zero-dimensional tensor holding v.
func NewScalar(alg semiring.Algebra, v float64) *Tensor {
	return &Tensor{shape: Shape{}, values: []float64{v}, alg: alg}
}

// FromValues creates a tensor from a slice of encoded values.
// The slice is copied.
func FromValues(alg semiring.Algebra, shape Shape, values []float64) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(values) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d",
			ErrShapeMismatch, shape, shape.NumElements(), len(values))
	}
	v := make([]float64, len(values))
	copy(v, values)
	return &Tensor{shape: shape.Clone(), values: v, alg: alg}, nil
}

// MustFromValues is like FromValues but panics on error.
func MustFromValues(alg semiring.Algebra, shape Shape, values []float64) *Tensor {
	t, err := FromValues(alg, shape, values)
	if err != nil {
		panic(err)
	}
	return t
}

// Shape returns the tensor's shape. The result must not be modified.
func (t *Tensor) Shape() Shape { return t.shape }

// Size returns the number of elements.
func (t *Tensor) Size() int { return len(t.values) }

// Algebra returns the algebra the values are encoded in.
func (t *Tensor) Algebra() semiring.Algebra { return t.alg }

// Values returns the underlying buffer in row-major order.
func (t *Tensor) Values() []float64 { return t.values }

// Value returns the element at flat offset i.
func (t *Tensor) Value(i int) float64 { return t.values[i] }

// SetValue sets the element at flat offset i.
func (t *Tensor) SetValue(i int, v float64) { t.values[i] = v }

// AddValue combines v into the element at flat offset i with the algebra's plus.
func (t *Tensor) AddValue(i int, v float64) {
	t.values[i] = t.alg.Plus(t.values[i], v)
}

// Get returns the element at a multi-dimensional index.
func (t *Tensor) Get(idx ...int) float64 {
	i, err := t.shape.Ravel(idx...)
	if err != nil {
		panic(err)
	}
	return t.values[i]
}

// Set sets the element at a multi-dimensional index.
func (t *Tensor) Set(v float64, idx ...int) {
	i, err := t.shape.Ravel(idx...)
	if err != nil {
		panic(err)
	}
	t.values[i] = v
}

// Copy returns a deep copy of t.
func (t *Tensor) Copy() *Tensor {
	v := make([]float64, len(t.values))
	copy(v, t.values)
	return &Tensor{shape: t.shape, values: v, alg: t.alg}
}

// CopyFrom overwrites t's values with other's.
func (t *Tensor) CopyFrom(other *Tensor) error {
	if err := t.checkShape(other); err != nil {
		return err
	}
	copy(t.values, other.values)
	return nil
}

// AdjointLike returns a real-valued zero tensor of t's shape, suitable as
// an adjoint buffer for t.
func (t *Tensor) AdjointLike() *Tensor {
	return &Tensor{shape: t.shape, values: make([]float64, len(t.values)), alg: semiring.Real}
}

// Fill sets every element to v.
func (t *Tensor) Fill(v float64) {
	for i := range t.values {
		t.values[i] = v
	}
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(%s, shape=%v, values=%v)", t.alg.Name(), []int(t.shape), t.values)
}

func (t *Tensor) checkShape(other *Tensor) error {
	if !t.shape.Equal(other.shape) {
		return fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, []int(t.shape), []int(other.shape))
	}
	return nil
}
