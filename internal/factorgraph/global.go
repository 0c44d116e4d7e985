package factorgraph

import (
	"fmt"

	"github.com/tianliuyang/pacaya/internal/hypergraph"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// GlobalFactor is a factor whose potential table is never enumerated.
// Instead it computes the messages to its variables directly from the
// messages it receives.
type GlobalFactor interface {
	Factor

	// Potential returns the real potential of a full assignment to Vars().
	Potential(states []int) float64

	// CreateMessages returns the outgoing message to each variable given
	// the incoming message from each variable, in Vars() order. Messages
	// are encoded in alg.
	CreateMessages(in []*tensor.Tensor, alg semiring.Algebra) []*tensor.Tensor

	// BackwardMessages returns the adjoints of the incoming messages given
	// the adjoints of the outgoing ones. Everything is in the Real
	// algebra: in holds real-valued incoming messages.
	BackwardMessages(in, outAdj []*tensor.Tensor) []*tensor.Tensor
}

// ExactlyOneFactor is a hard constraint over binary variables: exactly one
// of them takes state 1.
//
// Messages are computed by inside-outside on a two-level hypergraph. Each
// variable i has leaf nodes off_i and on_i whose leaf edges carry the
// incoming message values. The root has one edge per variable k with tails
// on_k and off_j for every j != k. The outside score of a leaf node is then
// exactly the outgoing message for that state.
type ExactlyOneFactor struct {
	vars VarSet
	g    *hypergraph.Hypergraph
}

// NewExactlyOneFactor creates the constraint over vars, which must all be
// binary.
func NewExactlyOneFactor(vars VarSet) (*ExactlyOneFactor, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("exactly-one factor needs at least one variable")
	}
	for _, v := range vars {
		if v.numStates != 2 {
			return nil, fmt.Errorf("exactly-one factor: variable %s has %d states, want 2", v, v.numStates)
		}
	}

	n := len(vars)
	g := hypergraph.New()
	leaves := make([]*hypergraph.Hypernode, 2*n)
	for i, v := range vars {
		leaves[2*i] = g.AddNode(v.name + "=0")
		leaves[2*i+1] = g.AddNode(v.name + "=1")
		g.AddEdge(v.name+"=0", leaves[2*i])
		g.AddEdge(v.name+"=1", leaves[2*i+1])
	}
	root := g.AddNode("root")
	for k := range vars {
		tails := make([]*hypergraph.Hypernode, 0, n)
		for j := range vars {
			if j == k {
				tails = append(tails, leaves[2*j+1])
			} else {
				tails = append(tails, leaves[2*j])
			}
		}
		g.AddEdge(vars[k].name+" only", root, tails...)
	}
	g.SetRoot(root)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &ExactlyOneFactor{vars: vars, g: g}, nil
}

// Vars returns the constrained variables.
func (f *ExactlyOneFactor) Vars() VarSet { return f.vars }

// Potential returns 1 if exactly one state is 1, else 0.
func (f *ExactlyOneFactor) Potential(states []int) float64 {
	on := 0
	for _, s := range states {
		on += s
	}
	if on == 1 {
		return 1
	}
	return 0
}

// CreateMessages computes the outgoing messages in alg.
func (f *ExactlyOneFactor) CreateMessages(in []*tensor.Tensor, alg semiring.Algebra) []*tensor.Tensor {
	w := make(hypergraph.Weights, f.g.NumEdges())
	f.leafWeights(in, w)
	var sc hypergraph.Scores
	hypergraph.Inside(f.g, w, alg, &sc)
	hypergraph.Outside(f.g, w, alg, &sc)

	out := make([]*tensor.Tensor, len(f.vars))
	for i := range f.vars {
		out[i] = tensor.MustFromValues(alg, tensor.Shape{2}, []float64{sc.Alpha[2*i], sc.Alpha[2*i+1]})
	}
	return out
}

// BackwardMessages seeds the outside adjoints of the leaf nodes and reads
// the incoming-message adjoints off the leaf edge weights.
func (f *ExactlyOneFactor) BackwardMessages(in, outAdj []*tensor.Tensor) []*tensor.Tensor {
	w := make(hypergraph.Weights, f.g.NumEdges())
	f.leafWeights(in, w)
	var sc hypergraph.Scores
	hypergraph.Inside(f.g, w, semiring.Real, &sc)
	hypergraph.Outside(f.g, w, semiring.Real, &sc)

	sc.MarginalAdj = make([]float64, f.g.NumNodes())
	sc.AlphaAdj = make([]float64, f.g.NumNodes())
	for i, adj := range outAdj {
		sc.AlphaAdj[2*i] = adj.Value(0)
		sc.AlphaAdj[2*i+1] = adj.Value(1)
	}
	hypergraph.Backward(f.g, w, semiring.Real, &sc)

	inAdj := make([]*tensor.Tensor, len(f.vars))
	for i := range f.vars {
		inAdj[i] = tensor.MustFromValues(semiring.Real, tensor.Shape{2}, []float64{sc.WeightAdj[2*i], sc.WeightAdj[2*i+1]})
	}
	return inAdj
}

// leafWeights copies incoming message values onto the leaf edges. Root
// edges have weight one.
func (f *ExactlyOneFactor) leafWeights(in []*tensor.Tensor, w hypergraph.Weights) {
	one := 1.0
	if len(in) > 0 {
		one = in[0].Algebra().One()
	}
	for i := range w {
		w[i] = one
	}
	for i, m := range in {
		w[2*i] = m.Value(0)
		w[2*i+1] = m.Value(1)
	}
}
