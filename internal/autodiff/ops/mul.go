package ops

import (
	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// Mul represents element-wise multiplication: y = a * b.
//
// Backward pass:
//   - d(a*b)/da = b
//   - d(a*b)/db = a
type Mul struct {
	autodiff.Base[*tensor.Tensor]
	a, b autodiff.TensorModule
}

// NewMul creates a new Mul module.
func NewMul(a, b autodiff.TensorModule) *Mul {
	return &Mul{Base: autodiff.NewBase[*tensor.Tensor]("Mul"), a: a, b: b}
}

// Forward computes y = a * b.
func (m *Mul) Forward() {
	a, b := m.a.Output(), m.b.Output()
	mustMatch("Mul", a, b)
	y := tensor.New(semiring.Real, a.Shape()...)
	for i := range y.Values() {
		y.SetValue(i, a.Value(i)*b.Value(i))
	}
	m.SetOutput(y)
}

// Backward adds yAdj*b into a's adjoint and yAdj*a into b's.
func (m *Mul) Backward() {
	a, b, yAdj := m.a.Output(), m.b.Output(), m.OutputAdj()
	da, db := yAdj.AdjointLike(), yAdj.AdjointLike()
	for i, g := range yAdj.Values() {
		da.SetValue(i, g*b.Value(i))
		db.SetValue(i, g*a.Value(i))
	}
	m.a.AccumulateAdj(da)
	m.b.AccumulateAdj(db)
}

// Inputs returns [a, b].
func (m *Mul) Inputs() []autodiff.Node {
	return []autodiff.Node{m.a, m.b}
}
