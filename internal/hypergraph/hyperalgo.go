package hypergraph

import (
	"log/slog"

	"github.com/tianliuyang/pacaya/internal/semiring"
)

// Scores holds the per-node and per-edge quantities of one inside-outside
// run. Node slices are indexed by node id, WeightAdj by edge id.
//
// Forward fills Beta, Alpha and Marginal. Backward requires MarginalAdj and
// fills AlphaAdj, BetaAdj and WeightAdj. If AlphaAdj or BetaAdj is non-nil
// when Backward starts, its values are taken as additional adjoint seeds
// for the outside or inside scores.
type Scores struct {
	Alpha    []float64
	Beta     []float64
	Marginal []float64

	AlphaAdj    []float64
	BetaAdj     []float64
	MarginalAdj []float64
	WeightAdj   []float64
}

// ResetAdjoints clears every adjoint so the Scores can be reused for
// another Backward without the previous results acting as seeds.
func (sc *Scores) ResetAdjoints() {
	sc.AlphaAdj = nil
	sc.BetaAdj = nil
	sc.MarginalAdj = nil
	sc.WeightAdj = nil
}

// Diverged reports whether the inside score of the root is the algebra's
// zero, in which case the marginals are undefined and were set to zero.
func (sc *Scores) Diverged(g *Hypergraph, s semiring.Algebra) bool {
	return sc.Beta[g.root.id] == s.Zero()
}

// Forward runs the inside, outside and marginal passes.
//
// The graph must have passed Validate. When the root's inside score is the
// algebra's zero every marginal is set to zero and a warning is logged.
func Forward(g *Hypergraph, w Hyperpotential, s semiring.Algebra, sc *Scores) {
	Inside(g, w, s, sc)
	Outside(g, w, s, sc)
	Marginals(g, s, sc)
}

// Backward runs the outside-adjoint, inside-adjoint and weight-adjoint
// passes. Adjoints are computed in s, so s must be able to represent
// negative numbers (use semiring.Real on real-converted weights).
func Backward(g *Hypergraph, w Hyperpotential, s semiring.Algebra, sc *Scores) {
	if sc.MarginalAdj == nil {
		panic("hypergraph: Backward requires Scores.MarginalAdj")
	}
	OutsideAdjoint(g, w, s, sc)
	InsideAdjoint(g, w, s, sc)
	WeightAdjoint(g, w, s, sc)
}

// Inside computes Beta:
//
//	beta[H(e)] += w_e * prod_{j in T(e)} beta[j]
func Inside(g *Hypergraph, w Hyperpotential, s semiring.Algebra, sc *Scores) {
	beta := filled(g.NumNodes(), s.Zero())
	g.ApplyTopoSort(func(e *Hyperedge) {
		prod := s.One()
		for _, j := range e.tails {
			prod = s.Times(prod, beta[j.id])
		}
		i := e.head.id
		beta[i] = s.Plus(beta[i], s.Times(w.Score(e, s), prod))
	})
	sc.Beta = beta
}

// Outside computes Alpha from Beta:
//
//	alpha[j] += alpha[H(e)] * w_e * prod_{k in T(e), k != j} beta[k]
func Outside(g *Hypergraph, w Hyperpotential, s semiring.Algebra, sc *Scores) {
	beta := sc.Beta
	alpha := filled(g.NumNodes(), s.Zero())
	alpha[g.root.id] = s.One()
	g.ApplyRevTopoSort(func(e *Hyperedge) {
		i := e.head.id
		we := w.Score(e, s)
		for jj, j := range e.tails {
			prod := s.Times(alpha[i], we)
			prod = s.Times(prod, leaveOut(s, e.tails, beta, jj, -1))
			alpha[j.id] = s.Plus(alpha[j.id], prod)
		}
	})
	sc.Alpha = alpha
}

// Marginals computes marginal[i] = alpha[i] * beta[i] / beta[root].
func Marginals(g *Hypergraph, s semiring.Algebra, sc *Scores) {
	n := g.NumNodes()
	root := g.root.id
	marginal := filled(n, s.Zero())
	if sc.Beta[root] == s.Zero() {
		slog.Warn("hypergraph: root inside score is zero, marginals set to zero",
			"algebra", s.Name(), "nodes", n, "edges", g.NumEdges())
		sc.Marginal = marginal
		return
	}
	for i := range marginal {
		marginal[i] = s.Divide(s.Times(sc.Alpha[i], sc.Beta[i]), sc.Beta[root])
	}
	sc.Marginal = marginal
}

// OutsideAdjoint computes AlphaAdj from MarginalAdj and Beta.
func OutsideAdjoint(g *Hypergraph, w Hyperpotential, s semiring.Algebra, sc *Scores) {
	beta := sc.Beta
	root := g.root.id
	alphaAdj := seeded(sc.AlphaAdj, g.NumNodes(), s.Zero())
	if beta[root] != s.Zero() {
		for i := range alphaAdj {
			// adj(alpha_i) += adj(p_i) * beta_i / beta_root
			prod := s.Divide(s.Times(sc.MarginalAdj[i], beta[i]), beta[root])
			alphaAdj[i] = s.Plus(alphaAdj[i], prod)
		}
	}
	g.ApplyTopoSort(func(e *Hyperedge) {
		i := e.head.id
		we := w.Score(e, s)
		for jj, j := range e.tails {
			// adj(alpha_i) += adj(alpha_j) * w_e * prod_{k != j} beta_k
			prod := s.Times(alphaAdj[j.id], we)
			prod = s.Times(prod, leaveOut(s, e.tails, beta, jj, -1))
			alphaAdj[i] = s.Plus(alphaAdj[i], prod)
		}
	})
	sc.AlphaAdj = alphaAdj
}

// InsideAdjoint computes BetaAdj from MarginalAdj, AlphaAdj, Alpha and
// Beta.
func InsideAdjoint(g *Hypergraph, w Hyperpotential, s semiring.Algebra, sc *Scores) {
	alpha, beta := sc.Alpha, sc.Beta
	alphaAdj, marginalAdj := sc.AlphaAdj, sc.MarginalAdj
	root := g.root.id
	betaAdj := seeded(sc.BetaAdj, g.NumNodes(), s.Zero())

	if beta[root] != s.Zero() {
		rootSq := s.Times(beta[root], beta[root])
		for j := range betaAdj {
			if j == root {
				continue
			}
			// adj(beta_root) -= adj(p_j) * alpha_j * beta_j / beta_root^2
			prod := s.Times(marginalAdj[j], alpha[j])
			prod = s.Times(prod, beta[j])
			betaAdj[root] = s.Minus(betaAdj[root], s.Divide(prod, rootSq))
		}
		for j := range betaAdj {
			if j == root {
				continue
			}
			// adj(beta_j) += adj(p_j) * alpha_j / beta_root
			prod := s.Divide(s.Times(marginalAdj[j], alpha[j]), beta[root])
			betaAdj[j] = s.Plus(betaAdj[j], prod)
		}
	}

	g.ApplyRevTopoSort(func(e *Hyperedge) {
		i := e.head.id
		we := w.Score(e, s)
		for jj, j := range e.tails {
			// Through the inside recurrence:
			// adj(beta_j) += adj(beta_H(e)) * w_e * prod_{k != j} beta_k
			prod := s.Times(betaAdj[i], we)
			prod = s.Times(prod, leaveOut(s, e.tails, beta, jj, -1))
			betaAdj[j.id] = s.Plus(betaAdj[j.id], prod)

			// Through the outside recurrence of every other tail k:
			// adj(beta_j) += adj(alpha_k) * w_e * alpha_H(e) * prod_{l != j,k} beta_l
			for kk, k := range e.tails {
				if kk == jj {
					continue
				}
				prod := s.Times(alphaAdj[k.id], we)
				prod = s.Times(prod, alpha[i])
				prod = s.Times(prod, leaveOut(s, e.tails, beta, jj, kk))
				betaAdj[j.id] = s.Plus(betaAdj[j.id], prod)
			}
		}
	})
	sc.BetaAdj = betaAdj
}

// WeightAdjoint computes WeightAdj from AlphaAdj, BetaAdj, Alpha and Beta.
func WeightAdjoint(g *Hypergraph, w Hyperpotential, s semiring.Algebra, sc *Scores) {
	alpha, beta := sc.Alpha, sc.Beta
	weightAdj := make([]float64, g.NumEdges())
	g.ApplyTopoSort(func(e *Hyperedge) {
		i := e.head.id
		// adj(w_e) += adj(beta_H(e)) * prod_{j in T(e)} beta_j
		adj := s.Times(sc.BetaAdj[i], leaveOut(s, e.tails, beta, -1, -1))
		for jj, j := range e.tails {
			// adj(w_e) += adj(alpha_j) * alpha_H(e) * prod_{k != j} beta_k
			prod := s.Times(sc.AlphaAdj[j.id], alpha[i])
			prod = s.Times(prod, leaveOut(s, e.tails, beta, jj, -1))
			adj = s.Plus(adj, prod)
		}
		weightAdj[e.id] = adj
	})
	sc.WeightAdj = weightAdj
}

// leaveOut returns the product of beta over tails, skipping the tails at
// positions skip1 and skip2. Positions are compared rather than node ids
// so that a node repeated in a tail list is counted once per occurrence.
func leaveOut(s semiring.Algebra, tails []*Hypernode, beta []float64, skip1, skip2 int) float64 {
	prod := s.One()
	for k, t := range tails {
		if k == skip1 || k == skip2 {
			continue
		}
		prod = s.Times(prod, beta[t.id])
	}
	return prod
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// seeded returns a copy of seed, or a slice filled with zero when seed is
// nil.
func seeded(seed []float64, n int, zero float64) []float64 {
	if seed == nil {
		return filled(n, zero)
	}
	return append([]float64(nil), seed...)
}
