package erma

import (
	"slices"

	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/factorgraph"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// ExpectedRecall is the negated expected number of correctly labeled
// variables: -Σ_v b_v(gold_v) over the non-latent variables assigned in
// the gold configuration.
type ExpectedRecall struct {
	autodiff.Base[*tensor.Tensor]
	beliefs autodiff.Module[*Beliefs]
	gold    []goldState
}

type goldState struct {
	id, state int
}

// NewExpectedRecall creates the loss over the given beliefs. It returns
// factorgraph.ErrInvalidState for a gold state outside its variable's
// domain.
func NewExpectedRecall(beliefs autodiff.Module[*Beliefs], gold factorgraph.VarConfig) (*ExpectedRecall, error) {
	if err := gold.Validate(); err != nil {
		return nil, err
	}
	m := &ExpectedRecall{
		Base:    autodiff.NewBase[*tensor.Tensor]("ExpectedRecall"),
		beliefs: beliefs,
	}
	for v, s := range gold {
		if v.Type() != factorgraph.Latent {
			m.gold = append(m.gold, goldState{id: v.ID(), state: s})
		}
	}
	slices.SortFunc(m.gold, func(a, b goldState) int { return a.id - b.id })
	return m, nil
}

// Forward computes the loss as a scalar.
func (m *ExpectedRecall) Forward() {
	b := m.beliefs.Output()
	sum := 0.0
	for _, g := range m.gold {
		sum += b.Vars[g.id].Value(g.state)
	}
	m.SetOutput(tensor.NewScalar(semiring.Real, -sum))
}

// Backward adds -outAdj to each gold belief's adjoint.
func (m *ExpectedRecall) Backward() {
	g := m.OutputAdj().Value(0)
	delta := m.beliefs.Output().AdjointLike()
	for _, gs := range m.gold {
		delta.Vars[gs.id].AddValue(gs.state, -g)
	}
	m.beliefs.AccumulateAdj(delta)
}

// Inputs returns [beliefs].
func (m *ExpectedRecall) Inputs() []autodiff.Node {
	return []autodiff.Node{m.beliefs}
}
