// Copyright 2025 Pacaya Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package semiring provides the algebras that messages, potentials and
// inside-outside scores are computed in.
//
// Every algebra stores a float64 encoding of a real number:
//   - Real: the number itself, sum-product
//   - Log: its natural logarithm, log-sum-exp
//   - Viterbi: the number itself, max-product (forward only)
//   - LogSign: log of its magnitude with the sign packed alongside, used
//     for adjoints of log-domain computations
package semiring

import "github.com/tianliuyang/pacaya/internal/semiring"

// Semiring is a set with addition, multiplication and their identities.
type Semiring = semiring.Semiring

// Algebra is a Semiring with inverses and conversion to the real and log
// domains.
type Algebra = semiring.Algebra

// The supported algebras.
var (
	Real    = semiring.Real
	Log     = semiring.Log
	Viterbi = semiring.Viterbi
	LogSign = semiring.LogSign
)

// ErrNotDifferentiable is raised when a backward pass is requested in an
// algebra without a usable derivative.
var ErrNotDifferentiable = semiring.ErrNotDifferentiable

// Equal reports whether two algebras are the same variant.
func Equal(a, b Algebra) bool {
	return semiring.Equal(a, b)
}

// Differentiable reports whether backward passes are supported in s.
func Differentiable(s Algebra) bool {
	return semiring.Differentiable(s)
}

// FromSignedLog encodes ±exp(l) in LogSign.
func FromSignedLog(l float64, negative bool) float64 {
	return semiring.FromSignedLog(l, negative)
}

// SignedLog decodes a LogSign value into its log magnitude and sign.
func SignedLog(x float64) (l float64, negative bool) {
	return semiring.SignedLog(x)
}
