package factorgraph

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAssignment is returned when a gold configuration leaves a
	// non-latent variable unassigned.
	ErrMissingAssignment = errors.New("gold configuration is missing non-latent variables")

	// ErrInvalidState is returned when an assigned state is outside a
	// variable's domain.
	ErrInvalidState = errors.New("state out of range")
)

// LabeledExample is a factor graph together with its gold assignment.
type LabeledExample struct {
	fg     *FactorGraph
	gold   VarConfig
	weight float64
}

// NewLabeledExample checks that gold assigns every non-latent variable of
// fg a valid state. Missing assignments are reported once per offending
// factor, naming the factor's variables; variables outside every factor
// are reported on their own.
func NewLabeledExample(fg *FactorGraph, gold VarConfig) (*LabeledExample, error) {
	var errs []error
	if err := gold.Validate(); err != nil {
		errs = append(errs, err)
	}
	reported := make(map[*Var]bool)
	for a, f := range fg.factors {
		missing := gold.Missing(f.Vars())
		if len(missing) == 0 {
			continue
		}
		errs = append(errs, fmt.Errorf("%w: factor %d over %v lacks %v", ErrMissingAssignment, a, f.Vars(), missing))
		for _, v := range missing {
			reported[v] = true
		}
	}
	for _, v := range fg.vars {
		if _, ok := gold[v]; !ok && v.typ != Latent && !reported[v] {
			errs = append(errs, fmt.Errorf("%w: variable %s", ErrMissingAssignment, v))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &LabeledExample{fg: fg, gold: gold, weight: 1}, nil
}

// FactorGraph returns the example's graph.
func (ex *LabeledExample) FactorGraph() *FactorGraph { return ex.fg }

// Gold returns the gold assignment.
func (ex *LabeledExample) Gold() VarConfig { return ex.gold }

// Evidence returns the gold assignment of the observed variables.
func (ex *LabeledExample) Evidence() VarConfig { return ex.gold.Restrict(Observed) }

// Weight returns the example's weight in the training objective.
func (ex *LabeledExample) Weight() float64 { return ex.weight }

// SetWeight sets the example's weight.
func (ex *LabeledExample) SetWeight(w float64) { ex.weight = w }
