package ops

import (
	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// Scale multiplies its input by a constant: y = c * x.
type Scale struct {
	autodiff.Base[*tensor.Tensor]
	x autodiff.TensorModule
	c float64
}

// NewScale creates a new Scale module.
func NewScale(x autodiff.TensorModule, c float64) *Scale {
	return &Scale{Base: autodiff.NewBase[*tensor.Tensor]("Scale"), x: x, c: c}
}

// Forward computes y = c * x.
func (m *Scale) Forward() {
	x := m.x.Output()
	y := tensor.New(semiring.Real, x.Shape()...)
	for i, v := range x.Values() {
		y.SetValue(i, m.c*v)
	}
	m.SetOutput(y)
}

// Backward adds c * yAdj into the input adjoint.
func (m *Scale) Backward() {
	delta := m.OutputAdj().Copy()
	for i, g := range delta.Values() {
		delta.SetValue(i, m.c*g)
	}
	m.x.AccumulateAdj(delta)
}

// Inputs returns [x].
func (m *Scale) Inputs() []autodiff.Node {
	return []autodiff.Node{m.x}
}
