// Copyright 2025 Pacaya Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package hypergraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tianliuyang/pacaya/hypergraph"
	"github.com/tianliuyang/pacaya/semiring"
)

func TestForwardBackward(t *testing.T) {
	g := hypergraph.New()
	a, b := g.AddNode("a"), g.AddNode("b")
	root := g.AddNode("root")
	g.AddEdge("a", a)
	g.AddEdge("b", b)
	g.AddEdge("root", root, a, b)
	g.SetRoot(root)
	require.NoError(t, g.Validate())

	w := hypergraph.Weights{0.5, 2, 3}
	var sc hypergraph.Scores
	hypergraph.Forward(g, w, semiring.Real, &sc)
	assert.InDelta(t, 3.0, sc.Beta[root.ID()], 1e-12)
	assert.InDelta(t, 1.0, sc.Marginal[a.ID()], 1e-12)

	// With a single derivation every marginal is one, so the weight
	// gradient of any marginal is zero.
	sc.MarginalAdj = []float64{1, 0, 0}
	hypergraph.Backward(g, w, semiring.Real, &sc)
	assert.InDeltaSlice(t, []float64{0, 0, 0}, sc.WeightAdj, 1e-12)
}

func TestValidateErrors(t *testing.T) {
	g := hypergraph.New()
	g.AddNode("x")
	require.ErrorIs(t, g.Validate(), hypergraph.ErrNoRoot)

	r := g.AddNode("r")
	g.SetRoot(r)
	require.ErrorIs(t, g.Validate(), hypergraph.ErrUnreachable)
}
