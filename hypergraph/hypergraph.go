// Copyright 2025 Pacaya Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package hypergraph provides directed acyclic hypergraphs and the generic
// inside-outside algorithm over them, with reverse-mode adjoints.
//
// Example:
//
//	g := hypergraph.New()
//	a, b := g.AddNode("a"), g.AddNode("b")
//	root := g.AddNode("root")
//	g.AddEdge("a", a)
//	g.AddEdge("b", b)
//	g.AddEdge("root", root, a, b)
//	g.SetRoot(root)
//
//	var sc hypergraph.Scores
//	hypergraph.Forward(g, hypergraph.Weights{0.5, 2, 1}, semiring.Real, &sc)
//	z := sc.Beta[root.ID()] // 1.0
package hypergraph

import (
	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/hypergraph"
	"github.com/tianliuyang/pacaya/internal/semiring"
)

// Hypergraph is a DAG whose edges have one head and any number of tails.
type Hypergraph = hypergraph.Hypergraph

// Hypernode is a node of a Hypergraph.
type Hypernode = hypergraph.Hypernode

// Hyperedge is an edge of a Hypergraph.
type Hyperedge = hypergraph.Hyperedge

// Hyperpotential scores hyperedges.
type Hyperpotential = hypergraph.Hyperpotential

// PotentialFunc adapts a function to Hyperpotential.
type PotentialFunc = hypergraph.PotentialFunc

// Weights are per-edge scores already encoded in the algebra.
type Weights = hypergraph.Weights

// RealWeights are per-edge real scores encoded on use.
type RealWeights = hypergraph.RealWeights

// Scores holds inside, outside and marginal scores and their adjoints.
type Scores = hypergraph.Scores

// InsideOutside is a differentiable module over edge weights.
type InsideOutside = hypergraph.InsideOutside

// Validation errors.
var (
	ErrCycle       = hypergraph.ErrCycle
	ErrUnreachable = hypergraph.ErrUnreachable
	ErrNoRoot      = hypergraph.ErrNoRoot
)

// New creates an empty hypergraph.
func New() *Hypergraph {
	return hypergraph.New()
}

// Forward runs the inside and outside passes and computes marginals.
func Forward(g *Hypergraph, w Hyperpotential, s semiring.Algebra, sc *Scores) {
	hypergraph.Forward(g, w, s, sc)
}

// Backward propagates sc.MarginalAdj (and any seeded alpha or beta
// adjoints) to the edge weights.
func Backward(g *Hypergraph, w Hyperpotential, s semiring.Algebra, sc *Scores) {
	hypergraph.Backward(g, w, s, sc)
}

// NewInsideOutside creates a module computing node marginals of g from the
// edge weights produced by weights.
func NewInsideOutside(g *Hypergraph, weights autodiff.TensorModule) (*InsideOutside, error) {
	return hypergraph.NewInsideOutside(g, weights)
}
