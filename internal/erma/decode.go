package erma

import (
	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/factorgraph"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// DecodeMbr returns the minimum Bayes risk labeling under per-variable
// accuracy: each variable takes the state with the highest belief. Ties
// go to the lowest state.
func DecodeMbr(g *factorgraph.FactorGraph, b *Beliefs) factorgraph.VarConfig {
	out := make(factorgraph.VarConfig, g.NumVars())
	for _, v := range g.Vars() {
		out[v] = b.Vars[v.ID()].ArgMax()
	}
	return out
}

// DecodeMap runs max-product belief propagation with the schedule of cfg
// and returns the state with the highest max-marginal for each variable.
// On a tree with enough sweeps this is a most probable joint assignment.
func DecodeMap(g *factorgraph.FactorGraph, cfg Config, potentials *Factors) (factorgraph.VarConfig, error) {
	cfg.MaxProduct = true
	cfg.LogDomain = false
	cfg.KeepTape = false
	bp, err := NewErmaBp(g, autodiff.NewIdentity(potentials), cfg)
	if err != nil {
		return nil, err
	}
	bp.Forward()
	return DecodeMbr(g, bp.Output()), nil
}

// Potentials evaluates every factor's table at params in the Real
// algebra, for use outside a module graph.
func Potentials(g *factorgraph.FactorGraph, params []float64) *Factors {
	f := &Factors{Tables: make([]*tensor.Tensor, g.NumFactors())}
	for a, fac := range g.Factors() {
		if af, ok := fac.(factorgraph.AutodiffFactor); ok {
			f.Tables[a] = af.Potentials(params, semiring.Real)
		}
	}
	return f
}
