// Package ops provides element-wise tensor modules for the autodiff DAG.
//
// Each op is a module with one or two tensor inputs. Ops compute on the
// stored numbers with ordinary float64 arithmetic and tag their outputs
// with the Real algebra; use them for parameter-side arithmetic (scores,
// potentials), not for semiring computations.
//
// Supported operations:
//   - Exp: y = exp(x) (dy/dx = y)
//   - Log: y = log(x) (dy/dx = 1/x)
//   - Add: y = a + b (dy/da = dy/db = 1)
//   - Mul: y = a * b (dy/da = b, dy/db = a)
//   - Scale: y = c * x for a constant c
//   - Sum: y = Σ x_i, a scalar
package ops

import (
	"fmt"

	"github.com/tianliuyang/pacaya/internal/tensor"
)

// mustMatch panics if a and b have different shapes.
func mustMatch(op string, a, b *tensor.Tensor) {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Errorf("%s: %w: %v vs %v", op, tensor.ErrShapeMismatch, []int(a.Shape()), []int(b.Shape())))
	}
}
