package ops

import (
	"math"

	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// Log represents element-wise natural logarithm.
//
// Forward:
//
//	output = log(input)
//
// Backward:
//
//	∂L/∂input = ∂L/∂output * (1 / input)
//
// This assumes input > 0.
type Log struct {
	autodiff.Base[*tensor.Tensor]
	x autodiff.TensorModule
}

// NewLog creates a new Log module.
func NewLog(x autodiff.TensorModule) *Log {
	return &Log{Base: autodiff.NewBase[*tensor.Tensor]("Log"), x: x}
}

// Forward computes y_i = log(x_i).
func (m *Log) Forward() {
	x := m.x.Output()
	y := tensor.New(semiring.Real, x.Shape()...)
	for i, v := range x.Values() {
		y.SetValue(i, math.Log(v))
	}
	m.SetOutput(y)
}

// Backward adds yAdj_i / x_i into the input adjoint.
func (m *Log) Backward() {
	x, yAdj := m.x.Output(), m.OutputAdj()
	delta := yAdj.AdjointLike()
	for i, g := range yAdj.Values() {
		delta.SetValue(i, g/x.Value(i))
	}
	m.x.AccumulateAdj(delta)
}

// Inputs returns [x].
func (m *Log) Inputs() []autodiff.Node {
	return []autodiff.Node{m.x}
}
