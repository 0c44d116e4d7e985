package ops

import (
	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// Sum reduces its input to a scalar: y = Σ_i x_i.
//
// Backward pass: every input element contributes 1 to the output, so the
// scalar output gradient is broadcast back to each element.
type Sum struct {
	autodiff.Base[*tensor.Tensor]
	x autodiff.TensorModule
}

// NewSum creates a new Sum module.
func NewSum(x autodiff.TensorModule) *Sum {
	return &Sum{Base: autodiff.NewBase[*tensor.Tensor]("Sum"), x: x}
}

// Forward computes the sum of all elements.
func (m *Sum) Forward() {
	total := 0.0
	for _, v := range m.x.Output().Values() {
		total += v
	}
	m.SetOutput(tensor.NewScalar(semiring.Real, total))
}

// Backward broadcasts the scalar adjoint to every input element.
func (m *Sum) Backward() {
	g := m.OutputAdj().Value(0)
	delta := m.x.Output().AdjointLike()
	delta.Fill(g)
	m.x.AccumulateAdj(delta)
}

// Inputs returns [x].
func (m *Sum) Inputs() []autodiff.Node {
	return []autodiff.Node{m.x}
}
