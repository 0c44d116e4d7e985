// Copyright 2025 Pacaya Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package erma provides belief propagation as a differentiable module,
// the expected-recall loss over its beliefs, and decoders.
//
// # Basic Usage
//
//	cfg := erma.DefaultConfig()
//	params := autodiff.NewIdentity(theta)
//	pots := erma.NewFactorsModule(g, params, cfg.Algebra())
//	bp, err := erma.NewErmaBp(g, pots, cfg)
//	err = bp.WithEvidence(ex.Evidence())
//	loss, err := erma.NewExpectedRecall(bp, ex.Gold())
//
//	order := autodiff.NewTopoOrder(loss)
//	order.Forward()
//	order.Backward()
//	grad := params.OutputAdj()
package erma

import (
	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/erma"
	"github.com/tianliuyang/pacaya/internal/factorgraph"
	"github.com/tianliuyang/pacaya/internal/semiring"
)

// Config holds belief propagation parameters.
type Config = erma.Config

// Schedule selects the message order within a sweep.
type Schedule = erma.Schedule

// UpdateOrder selects between in-place and synchronous updates.
type UpdateOrder = erma.UpdateOrder

// Schedules and update orders.
const (
	TreeLike   = erma.TreeLike
	Fixed      = erma.Fixed
	Random     = erma.Random
	Sequential = erma.Sequential
	Parallel   = erma.Parallel
)

// ErmaBp is the belief propagation module.
type ErmaBp = erma.ErmaBp

// Factors is the per-factor potential tables consumed by ErmaBp.
type Factors = erma.Factors

// Beliefs is the per-variable and per-factor beliefs produced by ErmaBp.
type Beliefs = erma.Beliefs

// FactorsModule builds the potential tables from model parameters.
type FactorsModule = erma.FactorsModule

// ExpectedRecall is the negated expected number of correct labels.
type ExpectedRecall = erma.ExpectedRecall

// ErrConfiguration reports an invalid configuration or an impossible
// backward pass.
var ErrConfiguration = erma.ErrConfiguration

// DefaultConfig returns a configuration suitable for training.
func DefaultConfig() Config {
	return erma.DefaultConfig()
}

// ParseSchedule parses a schedule name.
func ParseSchedule(s string) (Schedule, error) {
	return erma.ParseSchedule(s)
}

// ParseUpdateOrder parses an update order name.
func ParseUpdateOrder(s string) (UpdateOrder, error) {
	return erma.ParseUpdateOrder(s)
}

// NewFactorsModule creates the potential tables of g in alg from params.
func NewFactorsModule(g *factorgraph.FactorGraph, params autodiff.TensorModule, alg semiring.Algebra) *FactorsModule {
	return erma.NewFactorsModule(g, params, alg)
}

// NewErmaBp creates a belief propagation module over g.
func NewErmaBp(g *factorgraph.FactorGraph, pots autodiff.Module[*Factors], cfg Config) (*ErmaBp, error) {
	return erma.NewErmaBp(g, pots, cfg)
}

// NewExpectedRecall creates the loss of beliefs against gold.
func NewExpectedRecall(beliefs autodiff.Module[*Beliefs], gold factorgraph.VarConfig) (*ExpectedRecall, error) {
	return erma.NewExpectedRecall(beliefs, gold)
}

// DecodeMbr labels each variable with its highest-belief state.
func DecodeMbr(g *factorgraph.FactorGraph, b *Beliefs) factorgraph.VarConfig {
	return erma.DecodeMbr(g, b)
}

// DecodeMap decodes with max-product belief propagation.
func DecodeMap(g *factorgraph.FactorGraph, cfg Config, potentials *Factors) (factorgraph.VarConfig, error) {
	return erma.DecodeMap(g, cfg, potentials)
}

// Potentials evaluates the potential tables of g at params.
func Potentials(g *factorgraph.FactorGraph, params []float64) *Factors {
	return erma.Potentials(g, params)
}
