// Package semiring defines the algebras that inference algorithms are
// parameterized by.
//
// A Semiring provides the four operations needed by dynamic programs
// (zero, one, plus, times). An Algebra extends a Semiring with the inverse
// operations needed for marginals and adjoints (minus, divide) and with
// conversions between its encoding and real-valued probabilities.
//
// Variants:
//   - Real: ordinary sum-product over non-negative reals
//   - Log: log-sum-exp and addition over log-probabilities
//   - Viterbi: max-product over non-negative reals
//   - LogSign: signed reals stored as log magnitudes, for adjoints of
//     log-domain computations
//
// All variants are stateless singletons and safe for concurrent use.
package semiring

import (
	"errors"
	"math"
)

// ErrNotDifferentiable is returned (or panicked, wrapped) when a backward
// pass is requested in an algebra whose plus has no usable derivative.
var ErrNotDifferentiable = errors.New("algebra is not differentiable")

// Semiring is a set with an addition-like and a multiplication-like
// operation and their identities.
type Semiring interface {
	Zero() float64
	One() float64
	Plus(a, b float64) float64
	Times(a, b float64) float64
}

// Algebra is a Semiring that also supports the inverse operations and
// conversion to and from the real and log domains.
type Algebra interface {
	Semiring

	Minus(a, b float64) float64
	Divide(a, b float64) float64

	// ToReal maps an encoded value to the real number it represents.
	ToReal(x float64) float64
	// FromReal encodes a real number.
	FromReal(r float64) float64
	// ToLogProb maps an encoded value to its natural logarithm.
	ToLogProb(x float64) float64
	// FromLogProb encodes the real number exp(l).
	FromLogProb(l float64) float64
	// DToReal is the derivative of ToReal at x.
	DToReal(x float64) float64
	// LogDToReal is log(DToReal(x)). It stays finite where DToReal
	// overflows.
	LogDToReal(x float64) float64
	// DFromLogProb is the derivative of FromLogProb at l, given
	// x = FromLogProb(l).
	DFromLogProb(x float64) float64

	Name() string
}

var (
	// Real is the sum-product algebra over the reals.
	Real Algebra = realAlgebra{}
	// Log is the log-sum-exp algebra over log-probabilities.
	Log Algebra = logAlgebra{}
	// Viterbi is the max-product algebra over non-negative reals.
	Viterbi Algebra = viterbiAlgebra{}
	// LogSign is the sum-product algebra over signed reals stored as
	// log magnitudes.
	LogSign Algebra = logSignAlgebra{}
)

// Equal reports whether two algebras are the same variant.
func Equal(a, b Algebra) bool {
	return a.Name() == b.Name()
}

type realAlgebra struct{}

func (realAlgebra) Zero() float64                  { return 0 }
func (realAlgebra) One() float64                   { return 1 }
func (realAlgebra) Plus(a, b float64) float64      { return a + b }
func (realAlgebra) Times(a, b float64) float64     { return a * b }
func (realAlgebra) Minus(a, b float64) float64     { return a - b }
func (realAlgebra) Divide(a, b float64) float64    { return a / b }
func (realAlgebra) ToReal(x float64) float64       { return x }
func (realAlgebra) FromReal(r float64) float64     { return r }
func (realAlgebra) ToLogProb(x float64) float64    { return math.Log(x) }
func (realAlgebra) FromLogProb(l float64) float64  { return math.Exp(l) }
func (realAlgebra) DToReal(float64) float64        { return 1 }
func (realAlgebra) LogDToReal(float64) float64     { return 0 }
func (realAlgebra) DFromLogProb(x float64) float64 { return x }
func (realAlgebra) Name() string                   { return "Real" }

type logAlgebra struct{}

func (logAlgebra) Zero() float64 { return math.Inf(-1) }
func (logAlgebra) One() float64  { return 0 }

// Plus computes log(exp(a) + exp(b)) without leaving the log domain.
func (logAlgebra) Plus(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	if math.IsInf(b, -1) {
		return a
	}
	return a + math.Log1p(math.Exp(b-a))
}

func (logAlgebra) Times(a, b float64) float64 {
	if math.IsInf(a, -1) || math.IsInf(b, -1) {
		return math.Inf(-1)
	}
	return a + b
}

// Minus computes log(exp(a) - exp(b)). The result is NaN when b > a.
func (logAlgebra) Minus(a, b float64) float64 {
	if math.IsInf(b, -1) {
		return a
	}
	if a < b {
		return math.NaN()
	}
	if a == b {
		return math.Inf(-1)
	}
	return a + math.Log1p(-math.Exp(b-a))
}

func (logAlgebra) Divide(a, b float64) float64 {
	if math.IsInf(a, -1) && !math.IsInf(b, -1) {
		return math.Inf(-1)
	}
	return a - b
}

func (logAlgebra) ToReal(x float64) float64      { return math.Exp(x) }
func (logAlgebra) FromReal(r float64) float64    { return math.Log(r) }
func (logAlgebra) ToLogProb(x float64) float64   { return x }
func (logAlgebra) FromLogProb(l float64) float64 { return l }
func (logAlgebra) DToReal(x float64) float64     { return math.Exp(x) }
func (logAlgebra) LogDToReal(x float64) float64  { return x }
func (logAlgebra) DFromLogProb(float64) float64  { return 1 }
func (logAlgebra) Name() string                  { return "Log" }

// viterbiAlgebra is max-product. Minus and Divide are the real operations;
// they exist so marginal ratios can be formed, but max has no inverse and
// gradients through it are not defined.
type viterbiAlgebra struct{}

func (viterbiAlgebra) Zero() float64                  { return 0 }
func (viterbiAlgebra) One() float64                   { return 1 }
func (viterbiAlgebra) Plus(a, b float64) float64      { return math.Max(a, b) }
func (viterbiAlgebra) Times(a, b float64) float64     { return a * b }
func (viterbiAlgebra) Minus(a, b float64) float64     { return a - b }
func (viterbiAlgebra) Divide(a, b float64) float64    { return a / b }
func (viterbiAlgebra) ToReal(x float64) float64       { return x }
func (viterbiAlgebra) FromReal(r float64) float64     { return r }
func (viterbiAlgebra) ToLogProb(x float64) float64    { return math.Log(x) }
func (viterbiAlgebra) FromLogProb(l float64) float64  { return math.Exp(l) }
func (viterbiAlgebra) DToReal(float64) float64        { return 1 }
func (viterbiAlgebra) LogDToReal(float64) float64     { return 0 }
func (viterbiAlgebra) DFromLogProb(x float64) float64 { return x }
func (viterbiAlgebra) Name() string                   { return "Viterbi" }

// Differentiable reports whether reverse-mode gradients through plus are
// well defined in s.
func Differentiable(s Algebra) bool {
	return !Equal(s, Viterbi)
}
