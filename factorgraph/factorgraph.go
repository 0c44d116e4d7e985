// Copyright 2025 Pacaya Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package factorgraph provides discrete factor graphs, their factors and
// labeled training examples.
//
// Example:
//
//	g := factorgraph.New()
//	x := g.AddVar(factorgraph.Observed, 2, "x")
//	y := g.AddVar(factorgraph.Predicted, 3, "y")
//	f, err := factorgraph.NewExplicitFactor(factorgraph.NewVarSet(x, y), values)
//	g.MustAddFactor(f)
//	ex, err := factorgraph.NewLabeledExample(g, factorgraph.VarConfig{x: 1, y: 2})
package factorgraph

import (
	"github.com/tianliuyang/pacaya/internal/factorgraph"
)

// FactorGraph is a bipartite graph of variables and factors.
type FactorGraph = factorgraph.FactorGraph

// Edge connects a factor to one of its variables.
type Edge = factorgraph.Edge

// Var is a discrete random variable.
type Var = factorgraph.Var

// VarType distinguishes observed, predicted and latent variables.
type VarType = factorgraph.VarType

// Variable types.
const (
	Observed  = factorgraph.Observed
	Predicted = factorgraph.Predicted
	Latent    = factorgraph.Latent
)

// VarSet is a set of variables sorted by id.
type VarSet = factorgraph.VarSet

// VarConfig assigns states to variables.
type VarConfig = factorgraph.VarConfig

// Factor is a function of the states of its variables.
type Factor = factorgraph.Factor

// AutodiffFactor is a factor with a potential table that can be built as
// a module of the model parameters.
type AutodiffFactor = factorgraph.AutodiffFactor

// GlobalFactor is a factor that computes its outgoing messages directly.
type GlobalFactor = factorgraph.GlobalFactor

// ExplicitFactor has a fixed potential table.
type ExplicitFactor = factorgraph.ExplicitFactor

// ExpFamFactor is a log-linear factor.
type ExpFamFactor = factorgraph.ExpFamFactor

// Feature is one sparse feature.
type Feature = factorgraph.Feature

// FeatureVector is a sparse feature vector.
type FeatureVector = factorgraph.FeatureVector

// ExactlyOneFactor constrains exactly one binary variable to be on.
type ExactlyOneFactor = factorgraph.ExactlyOneFactor

// LabeledExample is a factor graph with a gold configuration.
type LabeledExample = factorgraph.LabeledExample

// Exact holds exact marginals computed by enumeration.
type Exact = factorgraph.Exact

// Errors.
var (
	ErrMissingAssignment = factorgraph.ErrMissingAssignment
	ErrInvalidState      = factorgraph.ErrInvalidState
	ErrUnsupportedFactor = factorgraph.ErrUnsupportedFactor
	ErrTooLarge          = factorgraph.ErrTooLarge
)

// New creates an empty factor graph.
func New() *FactorGraph {
	return factorgraph.New()
}

// NewVarSet returns the sorted, deduplicated set of vars.
func NewVarSet(vars ...*Var) VarSet {
	return factorgraph.NewVarSet(vars...)
}

// NewExplicitFactor creates a factor with the given potential table,
// indexed with the last variable varying fastest.
func NewExplicitFactor(vars VarSet, values []float64) (*ExplicitFactor, error) {
	return factorgraph.NewExplicitFactor(vars, values)
}

// NewExpFamFactor creates a log-linear factor with one feature vector per
// configuration.
func NewExpFamFactor(vars VarSet, feats []FeatureVector) (*ExpFamFactor, error) {
	return factorgraph.NewExpFamFactor(vars, feats)
}

// NewExactlyOneFactor creates the exactly-one constraint over binary vars.
func NewExactlyOneFactor(vars VarSet) (*ExactlyOneFactor, error) {
	return factorgraph.NewExactlyOneFactor(vars)
}

// NewLabeledExample validates gold against g.
func NewLabeledExample(g *FactorGraph, gold VarConfig) (*LabeledExample, error) {
	return factorgraph.NewLabeledExample(g, gold)
}

// BruteForce computes exact marginals of a tiny graph by enumeration.
func BruteForce(g *FactorGraph, params []float64, evidence VarConfig) (*Exact, error) {
	return factorgraph.BruteForce(g, params, evidence)
}
