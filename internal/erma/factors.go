package erma

import (
	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/factorgraph"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// FactorsModule gathers the potential tables of every factor of a graph.
// Each AutodiffFactor contributes its own module reading the parameter
// vector; global factors contribute a nil table.
type FactorsModule struct {
	autodiff.Base[*Factors]
	factors []autodiff.TensorModule // nil for global factors
}

// NewFactorsModule creates the module for g's factors with potentials
// encoded in alg.
func NewFactorsModule(g *factorgraph.FactorGraph, params autodiff.TensorModule, alg semiring.Algebra) *FactorsModule {
	m := &FactorsModule{
		Base:    autodiff.NewBase[*Factors]("Factors"),
		factors: make([]autodiff.TensorModule, g.NumFactors()),
	}
	for a, f := range g.Factors() {
		if af, ok := f.(factorgraph.AutodiffFactor); ok {
			m.factors[a] = af.FactorModule(params, alg)
		}
	}
	return m
}

// Forward collects the outputs of the per-factor modules.
func (m *FactorsModule) Forward() {
	out := &Factors{Tables: make([]*tensor.Tensor, len(m.factors))}
	for a, fm := range m.factors {
		if fm != nil {
			out.Tables[a] = fm.Output()
		}
	}
	m.SetOutput(out)
}

// Backward hands each table's adjoint to its factor module.
func (m *FactorsModule) Backward() {
	adj := m.OutputAdj()
	for a, fm := range m.factors {
		if fm != nil {
			fm.AccumulateAdj(adj.Tables[a])
		}
	}
}

// Inputs returns the per-factor modules.
func (m *FactorsModule) Inputs() []autodiff.Node {
	var in []autodiff.Node
	for _, fm := range m.factors {
		if fm != nil {
			in = append(in, fm)
		}
	}
	return in
}
