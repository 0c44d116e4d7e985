package factorgraph

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFactor is returned when a factor provides neither the
// AutodiffFactor nor the GlobalFactor capability.
var ErrUnsupportedFactor = errors.New("factor has no potential table and no message rule")

// Edge connects a factor to one of its variables. Edges are numbered
// factor-major: all edges of factor 0 in VarSet order, then factor 1, and
// so on.
type Edge struct {
	ID     int
	Factor int  // factor index
	Var    *Var // the variable
	Pos    int  // position of Var in the factor's VarSet
}

// FactorGraph is a bipartite graph of variables and factors.
type FactorGraph struct {
	vars        []*Var
	factors     []Factor
	edges       []Edge
	varEdges    [][]int
	factorEdges [][]int
}

// New creates an empty factor graph.
func New() *FactorGraph {
	return &FactorGraph{}
}

// AddVar creates a variable in the graph.
func (fg *FactorGraph) AddVar(typ VarType, numStates int, name string, stateNames ...string) *Var {
	v := &Var{
		id:         len(fg.vars),
		typ:        typ,
		numStates:  numStates,
		name:       name,
		stateNames: stateNames,
	}
	fg.vars = append(fg.vars, v)
	fg.varEdges = append(fg.varEdges, nil)
	return v
}

// AddFactor appends a factor and its edges. The factor's variables must
// belong to fg, and the factor must provide a potential capability.
func (fg *FactorGraph) AddFactor(f Factor) (int, error) {
	switch f.(type) {
	case AutodiffFactor, GlobalFactor:
	default:
		return 0, fmt.Errorf("%w: %T over %v", ErrUnsupportedFactor, f, f.Vars())
	}
	for _, v := range f.Vars() {
		if v.id >= len(fg.vars) || fg.vars[v.id] != v {
			return 0, fmt.Errorf("factor over %v: variable %s is not in this graph", f.Vars(), v)
		}
	}

	a := len(fg.factors)
	fg.factors = append(fg.factors, f)
	fg.factorEdges = append(fg.factorEdges, nil)
	for pos, v := range f.Vars() {
		e := Edge{ID: len(fg.edges), Factor: a, Var: v, Pos: pos}
		fg.edges = append(fg.edges, e)
		fg.factorEdges[a] = append(fg.factorEdges[a], e.ID)
		fg.varEdges[v.id] = append(fg.varEdges[v.id], e.ID)
	}
	return a, nil
}

// MustAddFactor is like AddFactor but panics on error.
func (fg *FactorGraph) MustAddFactor(f Factor) int {
	a, err := fg.AddFactor(f)
	if err != nil {
		panic(err)
	}
	return a
}

// Vars returns the variables in id order.
func (fg *FactorGraph) Vars() VarSet { return fg.vars }

// Var returns variable i.
func (fg *FactorGraph) Var(i int) *Var { return fg.vars[i] }

// NumVars returns the number of variables.
func (fg *FactorGraph) NumVars() int { return len(fg.vars) }

// Factors returns the factors in insertion order.
func (fg *FactorGraph) Factors() []Factor { return fg.factors }

// Factor returns factor a.
func (fg *FactorGraph) Factor(a int) Factor { return fg.factors[a] }

// NumFactors returns the number of factors.
func (fg *FactorGraph) NumFactors() int { return len(fg.factors) }

// Edges returns all edges in id order.
func (fg *FactorGraph) Edges() []Edge { return fg.edges }

// NumEdges returns the number of edges.
func (fg *FactorGraph) NumEdges() int { return len(fg.edges) }

// VarEdges returns the ids of the edges incident to v.
func (fg *FactorGraph) VarEdges(v *Var) []int { return fg.varEdges[v.id] }

// FactorEdges returns the ids of the edges of factor a, in VarSet order.
func (fg *FactorGraph) FactorEdges(a int) []int { return fg.factorEdges[a] }

// NumParams returns one more than the largest parameter index used by an
// ExpFamFactor, or 0.
func (fg *FactorGraph) NumParams() int {
	n := 0
	for _, f := range fg.factors {
		if ef, ok := f.(*ExpFamFactor); ok {
			n = max(n, ef.MaxFeatureIndex()+1)
		}
	}
	return n
}
