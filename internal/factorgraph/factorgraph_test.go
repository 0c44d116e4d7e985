package factorgraph

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

func TestVarSetConfigIndexLastVarFastest(t *testing.T) {
	g := New()
	a := g.AddVar(Predicted, 2, "a")
	b := g.AddVar(Predicted, 3, "b")
	vs := NewVarSet(b, a, b)
	require.Len(t, vs, 2)
	assert.Equal(t, a, vs[0])
	assert.Equal(t, []int{2, 3}, vs.Dims())
	assert.Equal(t, 6, vs.NumConfigs())

	assert.Equal(t, 5, vs.Config([]int{1, 2}))
	states := make([]int, 2)
	vs.States(4, states)
	assert.Equal(t, []int{1, 1}, states)

	idx, ok := VarConfig{a: 1, b: 0}.ConfigIndex(vs)
	require.True(t, ok)
	assert.Equal(t, 3, idx)
	_, ok = VarConfig{a: 1}.ConfigIndex(vs)
	assert.False(t, ok)
	assert.Equal(t, "{a,b}", vs.String())
}

func TestExplicitFactor(t *testing.T) {
	g := New()
	a := g.AddVar(Predicted, 2, "a")
	_, err := NewExplicitFactor(NewVarSet(a), []float64{1, 2, 3})
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)

	f, err := NewExplicitFactor(NewVarSet(a), []float64{0.25, 0.75})
	require.NoError(t, err)
	lp := f.Potentials(nil, semiring.Log)
	assert.InDelta(t, math.Log(0.75), lp.Value(1), 1e-12)

	m := f.FactorModule(nil, semiring.Real)
	m.Forward()
	assert.Equal(t, []float64{0.25, 0.75}, m.Output().Values())
}

func TestExpFamPotentials(t *testing.T) {
	g := New()
	a := g.AddVar(Predicted, 2, "a")
	f, err := NewExpFamFactor(NewVarSet(a), []FeatureVector{
		{{Index: 0, Value: 1}},
		{{Index: 0, Value: 0.5}, {Index: 2, Value: -1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.MaxFeatureIndex())

	params := []float64{0.4, 9, 1.2}
	r := f.Potentials(params, semiring.Real)
	assert.InDelta(t, math.Exp(0.4), r.Value(0), 1e-12)
	assert.InDelta(t, math.Exp(0.2-1.2), r.Value(1), 1e-12)
	l := f.Potentials(params, semiring.Log)
	assert.InDelta(t, -1.0, l.Value(1), 1e-12)
}

func TestExpFamModuleGradients(t *testing.T) {
	g := New()
	a := g.AddVar(Predicted, 2, "a")
	b := g.AddVar(Predicted, 2, "b")
	vs := NewVarSet(a, b)
	feats := make([]FeatureVector, vs.NumConfigs())
	for c := range feats {
		feats[c] = FeatureVector{{Index: c % 3, Value: float64(c) - 1.5}, {Index: 3, Value: 0.5}}
	}
	f, err := NewExpFamFactor(vs, feats)
	require.NoError(t, err)

	params := tensor.MustFromValues(semiring.Real, tensor.Shape{4}, []float64{0.1, -0.3, 0.2, 0.7})
	for _, s := range []semiring.Algebra{semiring.Real, semiring.Log} {
		t.Run(s.Name(), func(t *testing.T) {
			build := func(in autodiff.TensorModule) autodiff.TensorModule { return f.FactorModule(in, s) }
			ad, fd := autodiff.TensorModuleGradients(build, params, 1e-6, rand.New(rand.NewPCG(1, 1)))
			assert.InDeltaSlice(t, fd, ad, 1e-5)
		})
	}
}

// TestExpFamModuleLargeLogScores checks that parameter gradients in the log
// algebra do not depend on the magnitude of the scores.
func TestExpFamModuleLargeLogScores(t *testing.T) {
	g := New()
	a := g.AddVar(Predicted, 3, "a")
	vs := NewVarSet(a)
	feats := []FeatureVector{
		{{Index: 0, Value: 1}},
		{{Index: 0, Value: 2}, {Index: 1, Value: -1}},
		{{Index: 1, Value: 3}},
	}
	f, err := NewExpFamFactor(vs, feats)
	require.NoError(t, err)

	grad := func(theta ...float64) []float64 {
		params := autodiff.NewIdentity(tensor.MustFromValues(semiring.Real, tensor.Shape{2}, theta))
		order := autodiff.NewTopoOrder(f.FactorModule(params, semiring.Log))
		order.Forward()
		order.Backward()
		return params.OutputAdj().Values()
	}
	small := grad(0.1, -0.2)
	large := grad(400, 300)
	for _, v := range large {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	assert.InDeltaSlice(t, small, large, 1e-12)
	assert.Equal(t, []float64{3, 2}, large)
}

func TestVarConfigValidate(t *testing.T) {
	g := New()
	a := g.AddVar(Predicted, 2, "a")
	b := g.AddVar(Predicted, 3, "b")
	require.NoError(t, VarConfig{a: 1, b: 2}.Validate())

	err := VarConfig{b: 3, a: -1}.Validate()
	require.ErrorIs(t, err, ErrInvalidState)
	msg := err.Error()
	assert.Contains(t, msg, "a=-1")
	assert.Contains(t, msg, "b=3")
	assert.Less(t, strings.Index(msg, "a=-1"), strings.Index(msg, "b=3"))
}

// exactlyOneMessages computes the outgoing messages by enumeration.
func exactlyOneMessages(in [][2]float64) [][2]float64 {
	out := make([][2]float64, len(in))
	for i := range in {
		// State 1 for i: all others off.
		on := 1.0
		for j := range in {
			if j != i {
				on *= in[j][0]
			}
		}
		// State 0 for i: exactly one other var on.
		off := 0.0
		for k := range in {
			if k == i {
				continue
			}
			p := in[k][1]
			for j := range in {
				if j != i && j != k {
					p *= in[j][0]
				}
			}
			off += p
		}
		out[i] = [2]float64{off, on}
	}
	return out
}

func exactlyOneFixture(t *testing.T) (*ExactlyOneFactor, [][2]float64) {
	g := New()
	vars := make([]*Var, 3)
	for i := range vars {
		vars[i] = g.AddVar(Predicted, 2, "y")
	}
	f, err := NewExactlyOneFactor(NewVarSet(vars...))
	require.NoError(t, err)
	_, err = g.AddFactor(f)
	require.NoError(t, err)
	return f, [][2]float64{{0.2, 0.9}, {0.6, 0.3}, {1.1, 0.5}}
}

func TestExactlyOneCreateMessages(t *testing.T) {
	f, in := exactlyOneFixture(t)
	want := exactlyOneMessages(in)
	for _, s := range []semiring.Algebra{semiring.Real, semiring.Log} {
		msgs := make([]*tensor.Tensor, len(in))
		for i, m := range in {
			msgs[i] = tensor.MustFromValues(semiring.Real, tensor.Shape{2}, m[:]).Convert(s)
		}
		out := f.CreateMessages(msgs, s)
		for i := range out {
			assert.InDelta(t, want[i][0], s.ToReal(out[i].Value(0)), 1e-12)
			assert.InDelta(t, want[i][1], s.ToReal(out[i].Value(1)), 1e-12)
		}
	}
	assert.Equal(t, 1.0, f.Potential([]int{0, 1, 0}))
	assert.Equal(t, 0.0, f.Potential([]int{1, 1, 0}))
	assert.Equal(t, 0.0, f.Potential([]int{0, 0, 0}))
}

func TestExactlyOneBackwardMessages(t *testing.T) {
	f, in := exactlyOneFixture(t)
	r := [][2]float64{{0.3, -1}, {0.7, 0.2}, {-0.4, 0.9}}

	objective := func(theta []float64) float64 {
		msgs := make([][2]float64, len(in))
		for i := range msgs {
			msgs[i] = [2]float64{theta[2*i], theta[2*i+1]}
		}
		sum := 0.0
		for i, m := range exactlyOneMessages(msgs) {
			sum += r[i][0]*m[0] + r[i][1]*m[1]
		}
		return sum
	}
	theta := make([]float64, 0, 2*len(in))
	msgs := make([]*tensor.Tensor, len(in))
	outAdj := make([]*tensor.Tensor, len(in))
	for i, m := range in {
		theta = append(theta, m[0], m[1])
		msgs[i] = tensor.MustFromValues(semiring.Real, tensor.Shape{2}, m[:])
		outAdj[i] = tensor.MustFromValues(semiring.Real, tensor.Shape{2}, r[i][:])
	}
	fd := autodiff.NumericalGradient(objective, theta, 1e-6)

	inAdj := f.BackwardMessages(msgs, outAdj)
	for i := range in {
		assert.InDelta(t, fd[2*i], inAdj[i].Value(0), 1e-6)
		assert.InDelta(t, fd[2*i+1], inAdj[i].Value(1), 1e-6)
	}
}

func TestNewExactlyOneRejectsNonBinary(t *testing.T) {
	g := New()
	v := g.AddVar(Predicted, 3, "v")
	_, err := NewExactlyOneFactor(NewVarSet(v))
	assert.Error(t, err)
}

type bareFactor struct{ vars VarSet }

func (f bareFactor) Vars() VarSet { return f.vars }

func TestAddFactorChecks(t *testing.T) {
	g := New()
	a := g.AddVar(Predicted, 2, "a")
	_, err := g.AddFactor(bareFactor{NewVarSet(a)})
	assert.ErrorIs(t, err, ErrUnsupportedFactor)

	other := New()
	foreign := other.AddVar(Predicted, 2, "foreign")
	f, err := NewExplicitFactor(NewVarSet(foreign), []float64{1, 1})
	require.NoError(t, err)
	g.AddVar(Predicted, 2, "b")
	_, err = g.AddFactor(f)
	assert.Error(t, err)
}

func TestFactorGraphEdgesAreFactorMajor(t *testing.T) {
	g := New()
	a := g.AddVar(Predicted, 2, "a")
	b := g.AddVar(Predicted, 2, "b")
	f1, _ := NewExplicitFactor(NewVarSet(a, b), []float64{1, 1, 1, 1})
	f2, _ := NewExplicitFactor(NewVarSet(b), []float64{1, 1})
	g.MustAddFactor(f1)
	g.MustAddFactor(f2)

	require.Equal(t, 3, g.NumEdges())
	assert.Equal(t, Edge{ID: 0, Factor: 0, Var: a, Pos: 0}, g.Edges()[0])
	assert.Equal(t, Edge{ID: 1, Factor: 0, Var: b, Pos: 1}, g.Edges()[1])
	assert.Equal(t, Edge{ID: 2, Factor: 1, Var: b, Pos: 0}, g.Edges()[2])
	assert.Equal(t, []int{1, 2}, g.VarEdges(b))
	assert.Equal(t, []int{0, 1}, g.FactorEdges(0))
}

func TestLabeledExampleMissingAssignment(t *testing.T) {
	g := New()
	a := g.AddVar(Predicted, 2, "a")
	b := g.AddVar(Observed, 2, "b")
	l := g.AddVar(Latent, 2, "l")
	c := g.AddVar(Predicted, 2, "c")
	f1, _ := NewExplicitFactor(NewVarSet(a, b), []float64{1, 1, 1, 1})
	f2, _ := NewExplicitFactor(NewVarSet(b, l), []float64{1, 1, 1, 1})
	g.MustAddFactor(f1)
	g.MustAddFactor(f2)

	_, err := NewLabeledExample(g, VarConfig{a: 0})
	require.ErrorIs(t, err, ErrMissingAssignment)
	msg := err.Error()
	assert.Contains(t, msg, "factor 0 over {a,b} lacks {b}")
	assert.Contains(t, msg, "factor 1 over {b,l} lacks {b}")
	assert.Contains(t, msg, "variable c")
	assert.NotContains(t, msg, "lacks {l}")

	_, err = NewLabeledExample(g, VarConfig{a: 0, b: 5, c: 1})
	assert.ErrorIs(t, err, ErrInvalidState)

	ex, err := NewLabeledExample(g, VarConfig{a: 0, b: 1, c: 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, ex.Weight())
	assert.Equal(t, VarConfig{b: 1}, ex.Evidence())
}

func TestBruteForce(t *testing.T) {
	g := New()
	a := g.AddVar(Predicted, 2, "a")
	b := g.AddVar(Predicted, 2, "b")
	fab, _ := NewExplicitFactor(NewVarSet(a, b), []float64{1, 2, 3, 4})
	fa, _ := NewExplicitFactor(NewVarSet(a), []float64{1, 0.5})
	g.MustAddFactor(fab)
	g.MustAddFactor(fa)

	ex, err := BruteForce(g, nil, nil)
	require.NoError(t, err)
	// Joint: (0,0)=1 (0,1)=2 (1,0)=1.5 (1,1)=2.
	assert.InDelta(t, 6.5, ex.Partition, 1e-12)
	assert.InDelta(t, 3/6.5, ex.VarMarginals[0].Value(0), 1e-12)
	assert.InDelta(t, 4/6.5, ex.VarMarginals[1].Value(1), 1e-12)
	assert.InDelta(t, 1.5/6.5, ex.FactorMarginals[0].Value(2), 1e-12)
	assert.Equal(t, 1, ex.MAP[b])

	clamped, err := BruteForce(g, nil, VarConfig{a: 1})
	require.NoError(t, err)
	assert.InDelta(t, 3.5, clamped.Partition, 1e-12)
	assert.InDelta(t, 1.0, clamped.VarMarginals[0].Value(1), 1e-12)
}
