package tensor

import "fmt"

// Shape represents the per-axis sizes of a tensor.
// An empty shape describes a scalar.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Ravel converts a multi-dimensional index into a flat row-major offset.
// The last axis varies fastest.
func (s Shape) Ravel(idx ...int) (int, error) {
	if len(idx) != len(s) {
		return 0, fmt.Errorf("index %v has %d axes, shape %v has %d", idx, len(idx), s, len(s))
	}
	flat := 0
	for i, k := range idx {
		if k < 0 || k >= s[i] {
			return 0, fmt.Errorf("index %v out of range for shape %v", idx, s)
		}
		flat = flat*s[i] + k
	}
	return flat, nil
}

// Unravel converts a flat row-major offset into a per-axis index, written
// into dst (which must have len(s) entries).
func (s Shape) Unravel(flat int, dst []int) {
	for i := len(s) - 1; i >= 0; i-- {
		dst[i] = flat % s[i]
		flat /= s[i]
	}
}
