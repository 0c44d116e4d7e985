package hypergraph

import "github.com/tianliuyang/pacaya/internal/semiring"

// Hyperpotential assigns each edge a weight in an algebra. Implementations
// must be pure: Score is called many times per pass.
type Hyperpotential interface {
	Score(e *Hyperedge, s semiring.Algebra) float64
}

// PotentialFunc adapts a function to a Hyperpotential.
type PotentialFunc func(e *Hyperedge, s semiring.Algebra) float64

// Score calls f(e, s).
func (f PotentialFunc) Score(e *Hyperedge, s semiring.Algebra) float64 {
	return f(e, s)
}

// Weights is a Hyperpotential holding per-edge values already encoded in
// the algebra they will be used with.
type Weights []float64

// Score returns w[e.ID()].
func (w Weights) Score(e *Hyperedge, _ semiring.Algebra) float64 {
	return w[e.id]
}

// RealWeights is a Hyperpotential holding real per-edge weights; Score
// encodes them in the requested algebra.
type RealWeights []float64

// Score returns s.FromReal(w[e.ID()]).
func (w RealWeights) Score(e *Hyperedge, s semiring.Algebra) float64 {
	return s.FromReal(w[e.id])
}
