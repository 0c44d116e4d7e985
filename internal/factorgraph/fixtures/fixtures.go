// Package fixtures builds small factor graphs with known structure for
// gradient checks, demos and tests.
//
// Every factor is log-linear with one indicator feature per configuration,
// so the parameters are the log potentials and a parameter gradient is
// the gradient with respect to the log potentials.
package fixtures

import (
	"fmt"
	"math"
	"math/rand/v2"

	fg "github.com/tianliuyang/pacaya/internal/factorgraph"
)

// Scenario is a labeled factor graph with parameters.
type Scenario struct {
	Name    string
	Example *fg.LabeledExample
	Params  []float64
}

// Graph returns the scenario's factor graph.
func (s *Scenario) Graph() *fg.FactorGraph { return s.Example.FactorGraph() }

// builder assigns consecutive parameter blocks to indicator factors.
type builder struct {
	g       *fg.FactorGraph
	nParams int
}

func (b *builder) indicator(vars ...*fg.Var) {
	vs := fg.NewVarSet(vars...)
	feats := make([]fg.FeatureVector, vs.NumConfigs())
	for c := range feats {
		feats[c] = fg.FeatureVector{{Index: b.nParams + c, Value: 1}}
	}
	b.nParams += len(feats)
	f, err := fg.NewExpFamFactor(vs, feats)
	if err != nil {
		panic(err)
	}
	b.g.MustAddFactor(f)
}

func (b *builder) scenario(name string, gold fg.VarConfig, params []float64) *Scenario {
	ex, err := fg.NewLabeledExample(b.g, gold)
	if err != nil {
		panic(err)
	}
	return &Scenario{Name: name, Example: ex, Params: params}
}

func randomParams(n int, rng *rand.Rand) []float64 {
	p := make([]float64, n)
	for i := range p {
		p[i] = rng.NormFloat64()
	}
	return p
}

// SingleVar is one binary variable with a unary factor whose potentials
// are [0.3, 0.7]. The gold state is 1.
func SingleVar() *Scenario {
	b := &builder{g: fg.New()}
	v := b.g.AddVar(fg.Predicted, 2, "v0", "N", "V")
	b.indicator(v)
	return b.scenario("single", fg.VarConfig{v: 1}, []float64{math.Log(0.3), math.Log(0.7)})
}

// Chain is three ternary variables x0 - x1 - x2 with unary and pairwise
// factors. It has no loops, so a tree-ordered schedule is exact.
func Chain(rng *rand.Rand) *Scenario {
	b := &builder{g: fg.New()}
	xs := chainVars(b.g)
	for _, x := range xs {
		b.indicator(x)
	}
	b.indicator(xs[0], xs[1])
	b.indicator(xs[1], xs[2])
	return b.scenario("chain", fg.VarConfig{xs[0]: 0, xs[1]: 2, xs[2]: 1}, randomParams(b.nParams, rng))
}

// Loopy is Chain with a factor between x0 and x2 closing a cycle.
func Loopy(rng *rand.Rand) *Scenario {
	b := &builder{g: fg.New()}
	xs := chainVars(b.g)
	for _, x := range xs {
		b.indicator(x)
	}
	b.indicator(xs[0], xs[1])
	b.indicator(xs[1], xs[2])
	b.indicator(xs[0], xs[2])
	return b.scenario("loopy", fg.VarConfig{xs[0]: 0, xs[1]: 2, xs[2]: 1}, randomParams(b.nParams, rng))
}

func chainVars(g *fg.FactorGraph) []*fg.Var {
	return []*fg.Var{
		g.AddVar(fg.Predicted, 3, "x0"),
		g.AddVar(fg.Predicted, 3, "x1"),
		g.AddVar(fg.Predicted, 3, "x2"),
	}
}

// ExactlyOne is four binary variables with unary factors, constrained by
// a global exactly-one factor. The latent variable l is attached to y0.
func ExactlyOne(rng *rand.Rand) *Scenario {
	b := &builder{g: fg.New()}
	ys := make([]*fg.Var, 4)
	for i := range ys {
		ys[i] = b.g.AddVar(fg.Predicted, 2, fmt.Sprintf("y%d", i))
		b.indicator(ys[i])
	}
	l := b.g.AddVar(fg.Latent, 2, "l")
	b.indicator(l, ys[0])
	f, err := fg.NewExactlyOneFactor(fg.NewVarSet(ys...))
	if err != nil {
		panic(err)
	}
	b.g.MustAddFactor(f)
	gold := fg.VarConfig{ys[0]: 0, ys[1]: 0, ys[2]: 1, ys[3]: 0}
	return b.scenario("exactly-one", gold, randomParams(b.nParams, rng))
}

// AgreementTask returns n examples of an observed binary variable x and a
// predicted binary variable y whose gold state equals x. All examples
// share the four parameters of the pairwise factor, indexed by the
// configuration (x, y).
func AgreementTask(n int, rng *rand.Rand) []*fg.LabeledExample {
	examples := make([]*fg.LabeledExample, n)
	for i := range examples {
		b := &builder{g: fg.New()}
		x := b.g.AddVar(fg.Observed, 2, "x")
		y := b.g.AddVar(fg.Predicted, 2, "y")
		b.indicator(x, y)
		s := rng.IntN(2)
		ex, err := fg.NewLabeledExample(b.g, fg.VarConfig{x: s, y: s})
		if err != nil {
			panic(err)
		}
		examples[i] = ex
	}
	return examples
}

// All returns every loss-bearing scenario built from rng.
func All(rng *rand.Rand) []*Scenario {
	return []*Scenario{SingleVar(), Chain(rng), Loopy(rng), ExactlyOne(rng)}
}

// Names lists the scenario names accepted by Lookup.
func Names() []string {
	return []string{"single", "chain", "loopy", "exactly-one"}
}

// Lookup builds the scenario with the given name.
func Lookup(name string, rng *rand.Rand) (*Scenario, error) {
	switch name {
	case "single":
		return SingleVar(), nil
	case "chain":
		return Chain(rng), nil
	case "loopy":
		return Loopy(rng), nil
	case "exactly-one":
		return ExactlyOne(rng), nil
	default:
		return nil, fmt.Errorf("unknown scenario %q, want one of %v", name, Names())
	}
}
