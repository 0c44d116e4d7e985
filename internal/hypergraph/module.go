package hypergraph

import (
	"fmt"
	"math"

	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// InsideOutside wraps Forward and Backward as an autodiff module.
//
// The input is a vector of edge weights (shape [NumEdges]) and the output
// is the vector of node marginals (shape [NumNodes]), both in the input's
// algebra. Backward reruns the passes in semiring.LogSign, which holds the
// signed adjoints as log magnitudes, and maps the result back to the
// stored encoding, so the input adjoint is the gradient with respect to
// the stored weights. Log weights of any magnitude stay finite.
type InsideOutside struct {
	autodiff.Base[*tensor.Tensor]
	g       *Hypergraph
	weights autodiff.TensorModule
	scores  Scores
}

// NewInsideOutside creates the module. It returns an error if g is not a
// valid rooted DAG.
func NewInsideOutside(g *Hypergraph, weights autodiff.TensorModule) (*InsideOutside, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &InsideOutside{
		Base:    autodiff.NewBase[*tensor.Tensor]("InsideOutside"),
		g:       g,
		weights: weights,
	}, nil
}

// Scores returns the scores of the last Forward.
func (m *InsideOutside) Scores() *Scores {
	return &m.scores
}

// Forward runs inside-outside in the weights' algebra.
func (m *InsideOutside) Forward() {
	w := m.weights.Output()
	if w.Size() != m.g.NumEdges() {
		panic(fmt.Errorf("InsideOutside: %w: %d weights for %d edges",
			tensor.ErrShapeMismatch, w.Size(), m.g.NumEdges()))
	}
	s := w.Algebra()
	m.scores = Scores{}
	Forward(m.g, Weights(w.Values()), s, &m.scores)
	out, err := tensor.FromValues(s, tensor.Shape{m.g.NumNodes()}, m.scores.Marginal)
	if err != nil {
		panic(err)
	}
	m.SetOutput(out)
}

// Backward adds the gradient of the marginals with respect to the stored
// weights into the weights' adjoint.
func (m *InsideOutside) Backward() {
	w := m.weights.Output()
	s := w.Algebra()
	if !semiring.Differentiable(s) {
		panic(fmt.Errorf("InsideOutside: %w: %s", semiring.ErrNotDifferentiable, s.Name()))
	}
	ls := semiring.LogSign
	lw := make(Weights, w.Size())
	for i, v := range w.Values() {
		lw[i] = ls.FromLogProb(s.ToLogProb(v))
	}

	var sc Scores
	Forward(m.g, lw, ls, &sc)

	// The output adjoint is with respect to stored marginals; the real
	// marginal's adjoint divides it by DToReal(stored).
	y, yAdj := m.Output(), m.OutputAdj()
	sc.MarginalAdj = make([]float64, m.g.NumNodes())
	for i, g := range yAdj.Values() {
		d := s.LogDToReal(y.Value(i))
		if g == 0 || math.IsInf(d, -1) {
			sc.MarginalAdj[i] = ls.Zero()
			continue
		}
		sc.MarginalAdj[i] = semiring.FromSignedLog(math.Log(math.Abs(g))-d, g < 0)
	}
	Backward(m.g, lw, ls, &sc)

	delta := w.AdjointLike()
	for e, adj := range sc.WeightAdj {
		l, neg := semiring.SignedLog(adj)
		g := math.Exp(l + s.LogDToReal(w.Value(e)))
		if neg {
			g = -g
		}
		delta.SetValue(e, g)
	}
	m.weights.AccumulateAdj(delta)
}

// Inputs returns [weights].
func (m *InsideOutside) Inputs() []autodiff.Node {
	return []autodiff.Node{m.weights}
}
