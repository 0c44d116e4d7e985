// Package factorgraph defines the factor graphs consumed by the inference
// engine: variables, factors over sets of variables, variable
// assignments and labeled training examples.
//
// Configuration indices follow row-major order over a VarSet: the last
// variable (the one with the largest id) varies fastest. A factor's
// potential table therefore has the shape of its variables' state counts.
package factorgraph

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// VarType tells how a variable is treated during training.
type VarType int

const (
	// Observed variables are given at both training and test time.
	Observed VarType = iota
	// Predicted variables are given at training time only.
	Predicted
	// Latent variables are never given.
	Latent
)

func (t VarType) String() string {
	switch t {
	case Observed:
		return "observed"
	case Predicted:
		return "predicted"
	case Latent:
		return "latent"
	default:
		return fmt.Sprintf("VarType(%d)", int(t))
	}
}

// Var is a discrete random variable. Vars are created by
// FactorGraph.AddVar, which assigns their ids.
type Var struct {
	id         int
	typ        VarType
	numStates  int
	name       string
	stateNames []string
}

// ID returns the variable's id within its graph.
func (v *Var) ID() int { return v.id }

// Type returns the variable type.
func (v *Var) Type() VarType { return v.typ }

// NumStates returns the domain size.
func (v *Var) NumStates() int { return v.numStates }

// Name returns the variable name.
func (v *Var) Name() string { return v.name }

// StateName returns the name of state s, or its decimal index when the
// variable has no state names.
func (v *Var) StateName(s int) string {
	if s < len(v.stateNames) {
		return v.stateNames[s]
	}
	return fmt.Sprint(s)
}

func (v *Var) String() string { return v.name }

// VarSet is a set of variables ordered by id.
type VarSet []*Var

// NewVarSet returns the given variables sorted by id with duplicates
// removed.
func NewVarSet(vars ...*Var) VarSet {
	vs := VarSet(slices.Clone(vars))
	slices.SortFunc(vs, func(a, b *Var) int { return a.id - b.id })
	return slices.CompactFunc(vs, func(a, b *Var) bool { return a.id == b.id })
}

// Dims returns the state counts of the variables in order.
func (vs VarSet) Dims() []int {
	dims := make([]int, len(vs))
	for i, v := range vs {
		dims[i] = v.numStates
	}
	return dims
}

// NumConfigs returns the number of joint configurations.
func (vs VarSet) NumConfigs() int {
	n := 1
	for _, v := range vs {
		n *= v.numStates
	}
	return n
}

// IndexOf returns the position of v in vs, or -1.
func (vs VarSet) IndexOf(v *Var) int {
	for i, u := range vs {
		if u == v {
			return i
		}
	}
	return -1
}

// OfType returns the variables of type t, preserving order.
func (vs VarSet) OfType(t VarType) VarSet {
	var out VarSet
	for _, v := range vs {
		if v.typ == t {
			out = append(out, v)
		}
	}
	return out
}

// States decodes a configuration index into per-variable states.
func (vs VarSet) States(config int, dst []int) {
	for i := len(vs) - 1; i >= 0; i-- {
		n := vs[i].numStates
		dst[i] = config % n
		config /= n
	}
}

// Config returns the configuration index of the given per-variable states.
func (vs VarSet) Config(states []int) int {
	idx := 0
	for i, v := range vs {
		idx = idx*v.numStates + states[i]
	}
	return idx
}

func (vs VarSet) String() string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.name
	}
	return "{" + strings.Join(names, ",") + "}"
}

// VarConfig assigns states to variables.
type VarConfig map[*Var]int

// Put assigns state s to v.
func (c VarConfig) Put(v *Var, s int) {
	c[v] = s
}

// State returns the state of v and whether it is assigned.
func (c VarConfig) State(v *Var) (int, bool) {
	s, ok := c[v]
	return s, ok
}

// ConfigIndex returns the configuration index of vs under c. The boolean
// is false if some variable of vs is unassigned.
func (c VarConfig) ConfigIndex(vs VarSet) (int, bool) {
	idx := 0
	for _, v := range vs {
		s, ok := c[v]
		if !ok {
			return 0, false
		}
		idx = idx*v.numStates + s
	}
	return idx, true
}

// Missing returns the variables of vs that are unassigned and not latent.
func (c VarConfig) Missing(vs VarSet) VarSet {
	var out VarSet
	for _, v := range vs {
		if _, ok := c[v]; !ok && v.typ != Latent {
			out = append(out, v)
		}
	}
	return out
}

// Restrict returns the assignments of c to variables of type t.
func (c VarConfig) Restrict(t VarType) VarConfig {
	out := make(VarConfig)
	for v, s := range c {
		if v.typ == t {
			out[v] = s
		}
	}
	return out
}

// Validate reports every assignment outside its variable's domain, in
// variable id order, as ErrInvalidState.
func (c VarConfig) Validate() error {
	vars := make([]*Var, 0, len(c))
	for v := range c {
		vars = append(vars, v)
	}
	slices.SortFunc(vars, func(a, b *Var) int { return a.id - b.id })
	var errs []error
	for _, v := range vars {
		if s := c[v]; s < 0 || s >= v.numStates {
			errs = append(errs, fmt.Errorf("%w: %s=%d, domain size %d", ErrInvalidState, v, s, v.numStates))
		}
	}
	return errors.Join(errs...)
}
