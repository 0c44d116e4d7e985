package ops

import (
	"math"

	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// Exp represents the exponential operation: y = exp(x).
//
// Backward pass:
//   - d(exp(x))/dx = exp(x) = y
//   - grad_input = grad_output * output
type Exp struct {
	autodiff.Base[*tensor.Tensor]
	x autodiff.TensorModule
}

// NewExp creates a new Exp module.
func NewExp(x autodiff.TensorModule) *Exp {
	return &Exp{Base: autodiff.NewBase[*tensor.Tensor]("Exp"), x: x}
}

// Forward computes y_i = exp(x_i).
func (m *Exp) Forward() {
	x := m.x.Output()
	y := tensor.New(semiring.Real, x.Shape()...)
	for i, v := range x.Values() {
		y.SetValue(i, math.Exp(v))
	}
	m.SetOutput(y)
}

// Backward adds yAdj_i * y_i into the input adjoint.
func (m *Exp) Backward() {
	y, yAdj := m.Output(), m.OutputAdj()
	delta := yAdj.AdjointLike()
	for i, g := range yAdj.Values() {
		delta.SetValue(i, g*y.Value(i))
	}
	m.x.AccumulateAdj(delta)
}

// Inputs returns [x].
func (m *Exp) Inputs() []autodiff.Node {
	return []autodiff.Node{m.x}
}
