package ops

import (
	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// Add represents element-wise addition: y = a + b.
//
// Backward pass:
//   - d(a+b)/da = 1
//   - d(a+b)/db = 1
//
// The output gradient flows unchanged to both inputs. When a and b are the
// same module it therefore receives twice the output gradient.
type Add struct {
	autodiff.Base[*tensor.Tensor]
	a, b autodiff.TensorModule
}

// NewAdd creates a new Add module.
func NewAdd(a, b autodiff.TensorModule) *Add {
	return &Add{Base: autodiff.NewBase[*tensor.Tensor]("Add"), a: a, b: b}
}

// Forward computes y = a + b.
func (m *Add) Forward() {
	a, b := m.a.Output(), m.b.Output()
	mustMatch("Add", a, b)
	y := tensor.New(semiring.Real, a.Shape()...)
	for i := range y.Values() {
		y.SetValue(i, a.Value(i)+b.Value(i))
	}
	m.SetOutput(y)
}

// Backward adds yAdj into both input adjoints.
func (m *Add) Backward() {
	yAdj := m.OutputAdj()
	m.a.AccumulateAdj(yAdj.Copy())
	m.b.AccumulateAdj(yAdj.Copy())
}

// Inputs returns [a, b].
func (m *Add) Inputs() []autodiff.Node {
	return []autodiff.Node{m.a, m.b}
}
