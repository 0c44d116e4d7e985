package erma

import (
	"fmt"
	"math"

	"github.com/tianliuyang/pacaya/internal/factorgraph"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// Backward propagates the belief adjoints to the potential tables by
// replaying the tape in reverse. Each sequential entry restores the
// message it overwrote; each parallel entry restores a whole sweep. The
// tape is released afterwards, so a second Backward needs a new Forward.
//
// Message and table adjoints are held with respect to the scaled real
// values of tensor.ScaledReals, that is the real adjoint times exp(shift).
// Products and normalizers are then formed from values at most one, so
// log potentials of any magnitude backpropagate without overflow.
func (m *ErmaBp) Backward() {
	if !m.cfg.KeepTape {
		panic(fmt.Errorf("%w: Backward requires KeepTape", ErrConfiguration))
	}
	if !m.taped {
		panic(fmt.Errorf("%w: tape already consumed, run Forward again", ErrConfiguration))
	}

	msgAdj := m.zeroMessageAdjoints()
	potAdj := make([]*tensor.Tensor, len(m.tables))
	for a, t := range m.tables {
		if t != nil {
			potAdj[a] = t.AdjointLike()
		}
	}

	m.backwardBeliefs(m.OutputAdj(), msgAdj, potAdj)

	for i := len(m.tape) - 1; i >= 0; i-- {
		entry := m.tape[i]
		if entry.sweep != nil {
			prevAdj := m.zeroMessageAdjoints()
			for id, out := range m.msgs {
				m.backwardMessage(id, entry.sweep, out, msgAdj[id], prevAdj, potAdj)
			}
			m.msgs = entry.sweep
			msgAdj = prevAdj
			continue
		}
		// A message never reads itself, so restoring it first leaves the
		// inputs of the update as they were.
		out := m.msgs[entry.msg]
		m.msgs[entry.msg] = entry.old
		adj := msgAdj[entry.msg]
		msgAdj[entry.msg] = adj.AdjointLike()
		m.backwardMessage(entry.msg, m.msgs, out, adj, msgAdj, potAdj)
	}
	m.tape = nil
	m.taped = false

	in := m.pots.Output()
	delta := in.AdjointLike()
	for a, adj := range potAdj {
		if adj == nil {
			continue
		}
		_, shift := m.tables[a].ScaledReals()
		stored := in.Tables[a]
		s := stored.Algebra()
		for c, g := range adj.Values() {
			if g != 0 {
				delta.Tables[a].SetValue(c, g*math.Exp(s.LogDToReal(stored.Value(c))-shift))
			}
		}
	}
	m.pots.AccumulateAdj(delta)
}

func (m *ErmaBp) zeroMessageAdjoints() []*tensor.Tensor {
	adj := make([]*tensor.Tensor, len(m.msgs))
	for id, msg := range m.msgs {
		adj[id] = msg.AdjointLike()
	}
	return adj
}

// backwardBeliefs adds the contributions of the belief adjoints to the
// final messages and the potentials.
func (m *ErmaBp) backwardBeliefs(bAdj *Beliefs, msgAdj, potAdj []*tensor.Tensor) {
	for _, v := range m.fg.Vars() {
		edges := m.fg.VarEdges(v)
		ids := make([]int, len(edges))
		for k, e := range edges {
			ids[k] = factorToVar(e)
		}
		u, shift := m.varProduct(v, ids, m.msgs)
		m.backwardProduct(v, ids, m.msgs, scaledNormBackward(u, shift, bAdj.Vars[v.ID()].Values(), 0, true), msgAdj)
	}
	for a, t := range m.tables {
		if t == nil {
			continue
		}
		vars := m.fg.Factor(a).Vars()
		edges := m.fg.FactorEdges(a)
		table, shift := t.ScaledReals()
		in := make([][]float64, len(edges))
		for k, e := range edges {
			var sk float64
			in[k], sk = m.msgs[varToFactor(e)].ScaledReals()
			shift += sk
		}

		u := make([]float64, len(table))
		states := make([]int, len(vars))
		for c := range u {
			vars.States(c, states)
			u[c] = table[c] * leaveOut(in, states, -1, -1)
		}
		ubar := scaledNormBackward(u, shift, bAdj.Factors[a].Values(), 0, true)
		for c, g := range ubar {
			if g == 0 {
				continue
			}
			vars.States(c, states)
			potAdj[a].AddValue(c, g*leaveOut(in, states, -1, -1))
			for k, e := range edges {
				msgAdj[varToFactor(e)].AddValue(states[k], g*table[c]*leaveOut(in, states, k, -1))
			}
		}
	}
}

// backwardMessage propagates adj, the adjoint of out, the value of message
// id computed from msgs, into inAdj and potAdj.
func (m *ErmaBp) backwardMessage(id int, msgs []*tensor.Tensor, out, adj *tensor.Tensor, inAdj, potAdj []*tensor.Tensor) {
	_, outShift := out.ScaledReals()
	edge := m.fg.Edges()[edgeOf(id)]
	if isVarToFactor(id) {
		var ids []int
		for _, e := range m.fg.VarEdges(edge.Var) {
			if e != edge.ID {
				ids = append(ids, factorToVar(e))
			}
		}
		u, shift := m.varProduct(edge.Var, ids, msgs)
		m.backwardProduct(edge.Var, ids, msgs, m.messageNormBackward(u, shift, adj.Values(), outShift), inAdj)
		return
	}

	a := edge.Factor
	edges := m.fg.FactorEdges(a)
	if gf, ok := m.fg.Factor(a).(factorgraph.GlobalFactor); ok {
		// Each outgoing message is linear in every other incoming one, so
		// the global factor runs in Real on the scaled messages.
		in := make([]*tensor.Tensor, len(edges))
		shift := 0.0
		for k, e := range edges {
			r, sk := msgs[varToFactor(e)].ScaledReals()
			in[k] = tensor.MustFromValues(semiring.Real, tensor.Shape{len(r)}, r)
			if k != edge.Pos {
				shift += sk
			}
		}
		u := gf.CreateMessages(in, semiring.Real)[edge.Pos].Values()
		outAdj := make([]*tensor.Tensor, len(edges))
		for k := range edges {
			outAdj[k] = in[k].AdjointLike()
		}
		copy(outAdj[edge.Pos].Values(), m.messageNormBackward(u, shift, adj.Values(), outShift))
		for k, g := range gf.BackwardMessages(in, outAdj) {
			if err := inAdj[varToFactor(edges[k])].ElemAdd(g); err != nil {
				panic(err)
			}
		}
		return
	}

	vars := m.fg.Factor(a).Vars()
	table, shift := m.tables[a].ScaledReals()
	in := make([][]float64, len(edges))
	for k, e := range edges {
		var sk float64
		in[k], sk = msgs[varToFactor(e)].ScaledReals()
		if k != edge.Pos {
			shift += sk
		}
	}
	states := make([]int, len(vars))
	u := make([]float64, edge.Var.NumStates())
	for c := range table {
		vars.States(c, states)
		u[states[edge.Pos]] += table[c] * leaveOut(in, states, edge.Pos, -1)
	}
	ubar := m.messageNormBackward(u, shift, adj.Values(), outShift)
	for c := range table {
		vars.States(c, states)
		g := ubar[states[edge.Pos]]
		if g == 0 {
			continue
		}
		potAdj[a].AddValue(c, g*leaveOut(in, states, edge.Pos, -1))
		for k, e := range edges {
			if k == edge.Pos {
				continue
			}
			inAdj[varToFactor(e)].AddValue(states[k], g*table[c]*leaveOut(in, states, edge.Pos, k))
		}
	}
}

// varProduct returns the scaled real values of the evidence vector of v
// times the messages ids, and the sum of their shifts.
func (m *ErmaBp) varProduct(v *factorgraph.Var, ids []int, msgs []*tensor.Tensor) ([]float64, float64) {
	u, shift := m.evidenceVector(v).ScaledReals()
	for _, id := range ids {
		r, s := msgs[id].ScaledReals()
		for x := range u {
			u[x] *= r[x]
		}
		shift += s
	}
	return u, shift
}

// backwardProduct adds ubar times the product of every other factor into
// the adjoint of each message in ids.
func (m *ErmaBp) backwardProduct(v *factorgraph.Var, ids []int, msgs []*tensor.Tensor, ubar []float64, inAdj []*tensor.Tensor) {
	ev, _ := m.evidenceVector(v).ScaledReals()
	in := make([][]float64, len(ids))
	for k, id := range ids {
		in[k], _ = msgs[id].ScaledReals()
	}
	for k, id := range ids {
		for x, g := range ubar {
			p := g * ev[x]
			for j := range in {
				if j != k {
					p *= in[j][x]
				}
			}
			inAdj[id].AddValue(x, p)
		}
	}
}

func (m *ErmaBp) messageNormBackward(u []float64, shift float64, nbar []float64, outShift float64) []float64 {
	return scaledNormBackward(u, shift, nbar, outShift, m.cfg.NormalizeMessages)
}

// scaledNormBackward returns the adjoint of u, a product whose true value
// is u·exp(shift), given the adjoint nbar of the output scaled by
// exp(outShift). Both adjoints are scaled like their values. The output
// is u normalized when normalize is set and u has a non-zero sum, and u
// itself otherwise.
func scaledNormBackward(u []float64, shift float64, nbar []float64, outShift float64, normalize bool) []float64 {
	z := 0.0
	for _, v := range u {
		z += v
	}
	out := make([]float64, len(nbar))
	if normalize && z != 0 {
		f := math.Exp(-outShift)
		for i, g := range normBackward(u, z, nbar) {
			out[i] = g * f
		}
		return out
	}
	f := math.Exp(shift - outShift)
	for i, g := range nbar {
		out[i] = g * f
	}
	return out
}

// normBackward returns the adjoint of u given the adjoint nbar of u / z,
// where z = Σu is non-zero.
func normBackward(u []float64, z float64, nbar []float64) []float64 {
	dot := 0.0
	for i, g := range nbar {
		dot += g * u[i] / z
	}
	out := make([]float64, len(u))
	for i, g := range nbar {
		out[i] = (g - dot) / z
	}
	return out
}

// leaveOut returns the product over positions k of in[k][states[k]],
// skipping positions skip1 and skip2.
func leaveOut(in [][]float64, states []int, skip1, skip2 int) float64 {
	p := 1.0
	for k, msg := range in {
		if k != skip1 && k != skip2 {
			p *= msg[states[k]]
		}
	}
	return p
}
