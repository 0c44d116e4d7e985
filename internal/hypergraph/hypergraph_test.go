package hypergraph

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// forest builds a small parse forest with two derivations of the root:
//
//	root <- (ab, c)   ab <- (a, b)
//	root <- (a, b, c)
//
// plus one leaf edge for each of a, b and c. Edge ids:
// 0 leaf a, 1 leaf b, 2 leaf c, 3 ab, 4 root binary, 5 root ternary.
func forest(t *testing.T) *Hypergraph {
	g := New()
	a, b, c := g.AddNode("a"), g.AddNode("b"), g.AddNode("c")
	ab := g.AddNode("ab")
	root := g.AddNode("root")
	g.AddEdge("a", a)
	g.AddEdge("b", b)
	g.AddEdge("c", c)
	g.AddEdge("ab", ab, a, b)
	g.AddEdge("root2", root, ab, c)
	g.AddEdge("root3", root, a, b, c)
	g.SetRoot(root)
	require.NoError(t, g.Validate())
	return g
}

// chain builds a tree: root <- x <- y <- leaf.
func chain(t *testing.T) *Hypergraph {
	g := New()
	y := g.AddNode("y")
	x := g.AddNode("x")
	root := g.AddNode("root")
	g.AddEdge("leaf", y)
	g.AddEdge("xy", x, y)
	g.AddEdge("rx", root, x)
	g.SetRoot(root)
	require.NoError(t, g.Validate())
	return g
}

func TestTopoSortOrdersTailsFirst(t *testing.T) {
	g := forest(t)
	order, err := g.TopoSort()
	require.NoError(t, err)
	require.Len(t, order, g.NumEdges())

	seen := make(map[int]bool)
	for _, e := range order {
		for _, tail := range e.Tails() {
			for _, in := range tail.InEdges() {
				assert.True(t, seen[in.ID()], "edge %v visited before %v", e, in)
			}
		}
		seen[e.ID()] = true
	}

	var rev []int
	g.ApplyRevTopoSort(func(e *Hyperedge) { rev = append(rev, e.ID()) })
	for i, e := range order {
		assert.Equal(t, e.ID(), rev[len(rev)-1-i])
	}
}

func TestValidate(t *testing.T) {
	t.Run("NoRoot", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		assert.ErrorIs(t, g.Validate(), ErrNoRoot)
	})
	t.Run("Cycle", func(t *testing.T) {
		g := New()
		a, b := g.AddNode("a"), g.AddNode("b")
		g.AddEdge("ab", a, b)
		g.AddEdge("ba", b, a)
		g.SetRoot(a)
		assert.ErrorIs(t, g.Validate(), ErrCycle)
	})
	t.Run("Unreachable", func(t *testing.T) {
		g := New()
		a := g.AddNode("a")
		orphan := g.AddNode("orphan")
		g.AddEdge("a", a)
		g.AddEdge("orphan", orphan)
		g.SetRoot(a)
		err := g.Validate()
		assert.ErrorIs(t, err, ErrUnreachable)
		assert.Contains(t, err.Error(), "orphan")
	})
}

func TestForwardRealMatchesHandComputation(t *testing.T) {
	g := forest(t)
	w := RealWeights{2, 3, 0.5, 0.25, 4, 1}
	var sc Scores
	Forward(g, w, semiring.Real, &sc)

	betaAB := 0.25 * 2 * 3
	betaRoot := 4*betaAB*0.5 + 1*2*3*0.5
	assert.InDelta(t, betaRoot, sc.Beta[4], 1e-12)
	assert.InDelta(t, 1.0, sc.Marginal[4], 1e-12)
	assert.InDelta(t, 4*betaAB*0.5/betaRoot, sc.Marginal[3], 1e-12)
	// Every derivation uses a, b and c.
	for _, i := range []int{0, 1, 2} {
		assert.InDelta(t, 1.0, sc.Marginal[i], 1e-12)
	}
}

func TestRootMarginalIsOne(t *testing.T) {
	for _, s := range []semiring.Algebra{semiring.Real, semiring.Log, semiring.Viterbi} {
		t.Run(s.Name(), func(t *testing.T) {
			g := chain(t)
			var sc Scores
			Forward(g, RealWeights{0.3, 2, 5}, s, &sc)
			root := g.Root().ID()
			assert.InDelta(t, s.One(), sc.Marginal[root], 1e-12)
			assert.InDelta(t, s.One(), sc.Alpha[root], 1e-12)
			// In a tree every node lies on the single derivation.
			for i := range sc.Marginal {
				assert.InDelta(t, s.One(), sc.Marginal[i], 1e-12)
			}
		})
	}
}

func TestLogForwardAgreesWithReal(t *testing.T) {
	g := forest(t)
	w := RealWeights{2, 3, 0.5, 0.25, 4, 1}
	var r, l Scores
	Forward(g, w, semiring.Real, &r)
	Forward(g, w, semiring.Log, &l)
	for i := range r.Marginal {
		assert.InDelta(t, r.Beta[i], math.Exp(l.Beta[i]), 1e-9)
		assert.InDelta(t, r.Alpha[i], math.Exp(l.Alpha[i]), 1e-9)
		assert.InDelta(t, r.Marginal[i], math.Exp(l.Marginal[i]), 1e-9)
	}
}

func TestViterbiPicksBestDerivation(t *testing.T) {
	g := forest(t)
	var sc Scores
	Forward(g, RealWeights{2, 3, 0.5, 0.25, 4, 1}, semiring.Viterbi, &sc)
	// Binary derivation: 4*0.25*2*3*0.5 = 3; ternary: 2*3*0.5 = 3. Tie.
	assert.InDelta(t, 3.0, sc.Beta[4], 1e-12)
	Forward(g, RealWeights{2, 3, 0.5, 0.25, 8, 1}, semiring.Viterbi, &sc)
	assert.InDelta(t, 6.0, sc.Beta[4], 1e-12)
	assert.InDelta(t, 1.0, sc.Marginal[3], 1e-12)
}

// projectedMarginals is Σ_i r_i * marginal_i in the real algebra.
func projectedMarginals(g *Hypergraph, r []float64) autodiff.Function {
	return func(theta []float64) float64 {
		var sc Scores
		Forward(g, RealWeights(theta), semiring.Real, &sc)
		sum := 0.0
		for i, m := range sc.Marginal {
			sum += r[i] * m
		}
		return sum
	}
}

func TestBackwardMatchesFiniteDifferences(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for _, build := range []func(*testing.T) *Hypergraph{forest, chain} {
		g := build(t)
		theta := make([]float64, g.NumEdges())
		for i := range theta {
			theta[i] = 0.5 + rng.Float64()*1.5
		}
		r := make([]float64, g.NumNodes())
		for i := range r {
			r[i] = rng.Float64()*2 - 1
		}

		var sc Scores
		Forward(g, RealWeights(theta), semiring.Real, &sc)
		sc.MarginalAdj = r
		Backward(g, RealWeights(theta), semiring.Real, &sc)

		fd := autodiff.NumericalGradient(projectedMarginals(g, r), theta, 1e-6)
		assert.InDeltaSlice(t, fd, sc.WeightAdj, 1e-5)
	}
}

func TestAlphaSeedsMatchFiniteDifferences(t *testing.T) {
	g := forest(t)
	theta := []float64{1.5, 0.7, 1.1, 0.9, 1.3, 0.6}
	r := []float64{0.4, -1, 0.3, 0.8, 0.2}
	f := func(theta []float64) float64 {
		var sc Scores
		Forward(g, RealWeights(theta), semiring.Real, &sc)
		sum := 0.0
		for i, a := range sc.Alpha {
			sum += r[i] * a
		}
		return sum
	}

	var sc Scores
	Forward(g, RealWeights(theta), semiring.Real, &sc)
	sc.MarginalAdj = make([]float64, g.NumNodes())
	sc.AlphaAdj = append([]float64(nil), r...)
	Backward(g, RealWeights(theta), semiring.Real, &sc)

	fd := autodiff.NumericalGradient(f, theta, 1e-6)
	assert.InDeltaSlice(t, fd, sc.WeightAdj, 1e-5)

	sc.ResetAdjoints()
	assert.Nil(t, sc.AlphaAdj)
}

func TestRootUnderflowYieldsZeroMarginals(t *testing.T) {
	g := forest(t)
	w := RealWeights{2, 3, 0, 0.25, 4, 1} // c can never be derived
	for _, s := range []semiring.Algebra{semiring.Real, semiring.Log} {
		var sc Scores
		Forward(g, w, s, &sc)
		assert.True(t, sc.Diverged(g, s))
		for _, m := range sc.Marginal {
			assert.Equal(t, s.Zero(), m)
		}
	}

	var sc Scores
	Forward(g, w, semiring.Real, &sc)
	sc.MarginalAdj = []float64{1, 1, 1, 1, 1}
	Backward(g, w, semiring.Real, &sc)
	for _, v := range sc.WeightAdj {
		assert.False(t, math.IsNaN(v))
		assert.False(t, math.IsInf(v, 0))
	}
}

func TestInsideOutsideModuleGradients(t *testing.T) {
	g := forest(t)
	weights := []float64{1.5, 0.7, 1.1, 0.9, 1.3, 0.6}
	for _, s := range []semiring.Algebra{semiring.Real, semiring.Log} {
		t.Run(s.Name(), func(t *testing.T) {
			x := tensor.MustFromValues(semiring.Real, tensor.Shape{len(weights)}, weights).Convert(s)
			build := func(in autodiff.TensorModule) autodiff.TensorModule {
				m, err := NewInsideOutside(g, in)
				require.NoError(t, err)
				return m
			}
			rng := rand.New(rand.NewPCG(5, 6))
			ad, fd := autodiff.TensorModuleGradients(build, x, 1e-6, rng)
			assert.InDeltaSlice(t, fd, ad, 1e-4)
		})
	}
}

func TestInsideOutsideViterbiBackwardPanics(t *testing.T) {
	g := chain(t)
	w := autodiff.NewIdentity(tensor.MustFromValues(semiring.Viterbi, tensor.Shape{3}, []float64{1, 2, 3}))
	m, err := NewInsideOutside(g, w)
	require.NoError(t, err)
	m.Forward()
	assert.Panics(t, m.Backward)
}

func TestNewInsideOutsideRejectsInvalidGraph(t *testing.T) {
	g := New()
	g.AddNode("a")
	_, err := NewInsideOutside(g, autodiff.NewIdentity(tensor.New(semiring.Real, 1)))
	assert.ErrorIs(t, err, ErrNoRoot)
}

// balanced has two derivations of the root with two edges each, so adding
// a constant to every log weight leaves the marginals unchanged. Edge ids:
// 0 leaf x, 1 leaf y, 2 root <- x, 3 root <- y.
func balanced(t *testing.T) *Hypergraph {
	g := New()
	x, y := g.AddNode("x"), g.AddNode("y")
	root := g.AddNode("root")
	g.AddEdge("x", x)
	g.AddEdge("y", y)
	g.AddEdge("rx", root, x)
	g.AddEdge("ry", root, y)
	g.SetRoot(root)
	require.NoError(t, g.Validate())
	return g
}

func TestLogSignBackwardMatchesReal(t *testing.T) {
	g := forest(t)
	theta := RealWeights{1.5, 0.7, 1.1, 0.9, 1.3, 0.6}
	r := []float64{0.4, -1, 0.3, 0.8, -0.2}

	var want Scores
	Forward(g, theta, semiring.Real, &want)
	want.MarginalAdj = r
	Backward(g, theta, semiring.Real, &want)

	ls := semiring.LogSign
	var sc Scores
	Forward(g, theta, ls, &sc)
	sc.MarginalAdj = make([]float64, len(r))
	for i, v := range r {
		sc.MarginalAdj[i] = ls.FromReal(v)
	}
	Backward(g, theta, ls, &sc)
	for e, v := range sc.WeightAdj {
		assert.InDelta(t, want.WeightAdj[e], ls.ToReal(v), 1e-9, "edge %d", e)
	}
}

func TestInsideOutsideLargeLogWeights(t *testing.T) {
	g := balanced(t)
	logWeights := []float64{0.3, -0.4, 1.1, 0.2}
	r := tensor.MustFromValues(semiring.Real, tensor.Shape{3}, []float64{0.5, -1, 0.25})

	run := func(offset float64) (marginals, grad []float64) {
		w := make([]float64, len(logWeights))
		for i, l := range logWeights {
			w[i] = l + offset
		}
		in := autodiff.NewIdentity(tensor.MustFromValues(semiring.Log, tensor.Shape{len(w)}, w))
		m, err := NewInsideOutside(g, in)
		require.NoError(t, err)
		m.Forward()
		m.AccumulateAdj(r)
		m.Backward()
		return m.Output().Values(), in.OutputAdj().Values()
	}

	marginals, grad := run(0)
	for _, offset := range []float64{400, 5000} {
		gotMarginals, gotGrad := run(offset)
		for _, v := range gotGrad {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "offset %v grad %v", offset, gotGrad)
		}
		assert.InDeltaSlice(t, marginals, gotMarginals, 1e-9, "offset %v", offset)
		assert.InDeltaSlice(t, grad, gotGrad, 1e-9, "offset %v", offset)
	}

	x := tensor.MustFromValues(semiring.Log, tensor.Shape{4}, []float64{400.3, 399.6, 401.1, 400.2})
	build := func(in autodiff.TensorModule) autodiff.TensorModule {
		m, err := NewInsideOutside(g, in)
		require.NoError(t, err)
		return m
	}
	ad, fd := autodiff.TensorModuleGradients(build, x, 1e-6, rand.New(rand.NewPCG(7, 8)))
	assert.InDeltaSlice(t, fd, ad, 1e-4)
}
