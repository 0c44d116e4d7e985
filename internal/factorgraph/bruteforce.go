package factorgraph

import (
	"errors"
	"fmt"

	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// MaxBruteForceConfigs bounds the joint state space BruteForce enumerates.
const MaxBruteForceConfigs = 1 << 20

// ErrTooLarge is returned when a graph is too large to enumerate.
var ErrTooLarge = errors.New("factor graph too large for brute force")

// Exact holds the results of exhaustive enumeration.
type Exact struct {
	// Partition is the sum of the unnormalized joint over all
	// configurations consistent with the evidence.
	Partition float64
	// VarMarginals[i] is the real marginal of variable i.
	VarMarginals []*tensor.Tensor
	// FactorMarginals[a] is the real marginal over factor a's variables,
	// nil for global factors.
	FactorMarginals []*tensor.Tensor
	// MAP is a most probable joint assignment.
	MAP VarConfig
}

// BruteForce computes exact marginals by enumerating every joint
// configuration. It is meant for checking approximate inference on tiny
// graphs. Variables assigned in evidence are held at their given states.
func BruteForce(fg *FactorGraph, params []float64, evidence VarConfig) (*Exact, error) {
	vars := fg.Vars()
	if n := vars.NumConfigs(); n > MaxBruteForceConfigs {
		return nil, fmt.Errorf("%w: %d configurations", ErrTooLarge, n)
	}

	tables := make([]*tensor.Tensor, fg.NumFactors())
	for a, f := range fg.factors {
		if af, ok := f.(AutodiffFactor); ok {
			tables[a] = af.Potentials(params, semiring.Real)
		}
	}

	ex := &Exact{
		VarMarginals:    make([]*tensor.Tensor, len(vars)),
		FactorMarginals: make([]*tensor.Tensor, fg.NumFactors()),
		MAP:             make(VarConfig),
	}
	for i, v := range vars {
		ex.VarMarginals[i] = tensor.New(semiring.Real, v.numStates)
	}
	for a, f := range fg.factors {
		if tables[a] != nil {
			ex.FactorMarginals[a] = tensor.New(semiring.Real, f.Vars().Dims()...)
		}
	}

	states := make([]int, len(vars))
	local := make([]int, len(vars))
	best := -1.0
	for c := range vars.NumConfigs() {
		vars.States(c, states)
		if !consistent(vars, states, evidence) {
			continue
		}
		p := 1.0
		fcfg := make([]int, fg.NumFactors())
		for a, f := range fg.factors {
			fv := f.Vars()
			for k, v := range fv {
				local[k] = states[v.id]
			}
			if tables[a] != nil {
				fcfg[a] = fv.Config(local[:len(fv)])
				p *= tables[a].Value(fcfg[a])
			} else {
				p *= f.(GlobalFactor).Potential(local[:len(fv)])
			}
		}
		ex.Partition += p
		for i := range vars {
			ex.VarMarginals[i].AddValue(states[i], p)
		}
		for a := range fg.factors {
			if m := ex.FactorMarginals[a]; m != nil {
				m.AddValue(fcfg[a], p)
			}
		}
		if p > best {
			best = p
			for i, v := range vars {
				ex.MAP[v] = states[i]
			}
		}
	}

	for _, m := range ex.VarMarginals {
		m.Normalize()
	}
	for _, m := range ex.FactorMarginals {
		if m != nil {
			m.Normalize()
		}
	}
	return ex, nil
}

func consistent(vars VarSet, states []int, evidence VarConfig) bool {
	for i, v := range vars {
		if s, ok := evidence[v]; ok && s != states[i] {
			return false
		}
	}
	return true
}
