package erma

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/factorgraph"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// ErmaBp runs belief propagation over a factor graph as one module. Its
// input is the module producing the factors' potential tables and its
// output is the normalized beliefs in the Real algebra.
//
// Messages are kept in the configured algebra. Backward works on real
// values rescaled by each tensor's largest entry and converts the potential
// adjoints back to the encoding of the input tables.
type ErmaBp struct {
	autodiff.Base[*Beliefs]
	fg       *factorgraph.FactorGraph
	pots     autodiff.Module[*Factors]
	cfg      Config
	alg      semiring.Algebra
	evidence factorgraph.VarConfig

	msgs       []*tensor.Tensor // indexed by message id, encoded in alg
	tables     []*tensor.Tensor // potentials in alg, nil for global factors
	tape       []tapeEntry
	taped      bool // Forward recorded a tape that Backward has not consumed
	iterations int
	converged  bool
}

// tapeEntry records what one update overwrote. A sequential update stores
// a single message; a parallel sweep stores the whole message set.
type tapeEntry struct {
	msg   int
	old   *tensor.Tensor
	sweep []*tensor.Tensor
}

// NewErmaBp creates the module. It fails if cfg is invalid or asks for
// max-product on a graph with global factors.
func NewErmaBp(g *factorgraph.FactorGraph, pots autodiff.Module[*Factors], cfg Config) (*ErmaBp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxProduct {
		for a, f := range g.Factors() {
			if _, ok := f.(factorgraph.GlobalFactor); ok {
				return nil, fmt.Errorf("%w: max-product with global factor %d over %v", ErrConfiguration, a, f.Vars())
			}
		}
	}
	return &ErmaBp{
		Base: autodiff.NewBase[*Beliefs]("ErmaBp"),
		fg:   g,
		pots: pots,
		cfg:  cfg,
		alg:  cfg.Algebra(),
	}, nil
}

// WithEvidence clamps the given variables to their states: their messages
// and beliefs are restricted to the assigned state. It returns
// factorgraph.ErrInvalidState for a state outside its variable's domain
// and leaves the previous evidence in place.
func (m *ErmaBp) WithEvidence(ev factorgraph.VarConfig) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	m.evidence = ev
	return nil
}

// Iterations returns the number of sweeps run by the last Forward.
func (m *ErmaBp) Iterations() int { return m.iterations }

// Converged reports whether the last Forward stopped early on the
// convergence threshold.
func (m *ErmaBp) Converged() bool { return m.converged }

// Inputs returns [potentials].
func (m *ErmaBp) Inputs() []autodiff.Node {
	return []autodiff.Node{m.pots}
}

// Forward runs MaxIterations sweeps and computes the beliefs.
func (m *ErmaBp) Forward() {
	in := m.pots.Output()
	m.tables = make([]*tensor.Tensor, m.fg.NumFactors())
	for a, t := range in.Tables {
		if t != nil {
			m.tables[a] = t.Convert(m.alg)
		}
	}

	m.msgs = make([]*tensor.Tensor, 2*m.fg.NumEdges())
	for e, edge := range m.fg.Edges() {
		for _, id := range []int{varToFactor(e), factorToVar(e)} {
			msg := tensor.New(m.alg, edge.Var.NumStates())
			msg.Fill(m.alg.One())
			m.msgs[id] = msg
		}
	}

	m.tape = nil
	m.taped = m.cfg.KeepTape
	m.converged = false
	rng := rand.New(rand.NewPCG(m.cfg.Seed, m.cfg.Seed))
	for it := range m.cfg.MaxIterations {
		order := sweepOrder(m.fg, m.cfg.Schedule, rng)
		delta := 0.0
		if m.cfg.UpdateOrder == Parallel {
			next := make([]*tensor.Tensor, len(m.msgs))
			copy(next, m.msgs)
			for _, id := range order {
				next[id] = m.compute(id, m.msgs)
				delta = math.Max(delta, m.change(m.msgs[id], next[id]))
			}
			if m.cfg.KeepTape {
				m.tape = append(m.tape, tapeEntry{msg: -1, sweep: m.msgs})
			}
			m.msgs = next
		} else {
			for _, id := range order {
				msg := m.compute(id, m.msgs)
				delta = math.Max(delta, m.change(m.msgs[id], msg))
				if m.cfg.KeepTape {
					m.tape = append(m.tape, tapeEntry{msg: id, old: m.msgs[id]})
				}
				m.msgs[id] = msg
			}
		}
		m.iterations = it + 1
		if !m.cfg.KeepTape && m.cfg.ConvergenceThreshold > 0 && delta < m.cfg.ConvergenceThreshold {
			m.converged = true
			break
		}
	}

	m.SetOutput(m.beliefs())
	slog.Debug("erma: belief propagation finished",
		"algebra", m.alg.Name(),
		"iterations", m.iterations,
		"converged", m.converged,
		"messages", len(m.msgs),
		"tape", len(m.tape))
}

// compute returns the new value of message id given the message set msgs.
func (m *ErmaBp) compute(id int, msgs []*tensor.Tensor) *tensor.Tensor {
	edge := m.fg.Edges()[edgeOf(id)]
	var out *tensor.Tensor
	if isVarToFactor(id) {
		out = m.evidenceVector(edge.Var)
		for _, e := range m.fg.VarEdges(edge.Var) {
			if e != edge.ID {
				mustMul(out, msgs[factorToVar(e)])
			}
		}
	} else if gf, ok := m.fg.Factor(edge.Factor).(factorgraph.GlobalFactor); ok {
		out = gf.CreateMessages(m.incoming(edge.Factor, msgs), m.alg)[edge.Pos]
	} else {
		out = m.sumProduct(edge, msgs)
	}
	if m.cfg.NormalizeMessages {
		out.Normalize()
	}
	return out
}

// sumProduct marginalizes the factor table times the incoming messages
// from every other variable onto edge's variable.
func (m *ErmaBp) sumProduct(edge factorgraph.Edge, msgs []*tensor.Tensor) *tensor.Tensor {
	s := m.alg
	vars := m.fg.Factor(edge.Factor).Vars()
	edges := m.fg.FactorEdges(edge.Factor)
	table := m.tables[edge.Factor]
	out := tensor.New(s, edge.Var.NumStates())
	states := make([]int, len(vars))
	for c := range table.Size() {
		vars.States(c, states)
		p := table.Value(c)
		for k, e := range edges {
			if k != edge.Pos {
				p = s.Times(p, msgs[varToFactor(e)].Value(states[k]))
			}
		}
		out.AddValue(states[edge.Pos], p)
	}
	return out
}

// incoming returns the messages into factor a, in VarSet order.
func (m *ErmaBp) incoming(a int, msgs []*tensor.Tensor) []*tensor.Tensor {
	edges := m.fg.FactorEdges(a)
	in := make([]*tensor.Tensor, len(edges))
	for k, e := range edges {
		in[k] = msgs[varToFactor(e)]
	}
	return in
}

// evidenceVector returns One for every state of v, or an indicator of the
// clamped state.
func (m *ErmaBp) evidenceVector(v *factorgraph.Var) *tensor.Tensor {
	t := tensor.New(m.alg, v.NumStates())
	if s, ok := m.evidence.State(v); ok {
		t.SetValue(s, m.alg.One())
	} else {
		t.Fill(m.alg.One())
	}
	return t
}

// change returns the largest absolute difference between the real values
// of two messages.
func (m *ErmaBp) change(old, cur *tensor.Tensor) float64 {
	d := 0.0
	for i, v := range cur.Values() {
		d = math.Max(d, math.Abs(m.alg.ToReal(v)-m.alg.ToReal(old.Value(i))))
	}
	return d
}

// beliefs combines the current messages into Real beliefs that sum to
// one. Normalizing in alg keeps log beliefs finite; max-product beliefs,
// which alg scales to a maximum of one, are normalized again in Real.
func (m *ErmaBp) beliefs() *Beliefs {
	b := &Beliefs{
		Vars:    make([]*tensor.Tensor, m.fg.NumVars()),
		Factors: make([]*tensor.Tensor, m.fg.NumFactors()),
	}
	for _, v := range m.fg.Vars() {
		t := m.evidenceVector(v)
		for _, e := range m.fg.VarEdges(v) {
			mustMul(t, m.msgs[factorToVar(e)])
		}
		b.Vars[v.ID()] = m.realBelief(t)
	}
	for a, table := range m.tables {
		if table == nil {
			continue
		}
		vars := m.fg.Factor(a).Vars()
		edges := m.fg.FactorEdges(a)
		t := table.Copy()
		states := make([]int, len(vars))
		for c := range t.Size() {
			vars.States(c, states)
			p := t.Value(c)
			for k, e := range edges {
				p = m.alg.Times(p, m.msgs[varToFactor(e)].Value(states[k]))
			}
			t.SetValue(c, p)
		}
		b.Factors[a] = m.realBelief(t)
	}
	return b
}

func (m *ErmaBp) realBelief(t *tensor.Tensor) *tensor.Tensor {
	t.Normalize()
	r := t.Convert(semiring.Real)
	if m.cfg.MaxProduct {
		r.Normalize()
	}
	return r
}

func mustMul(dst, src *tensor.Tensor) {
	if err := dst.ElemMultiply(src); err != nil {
		panic(err)
	}
}
