package tensor

import (
	"math"

	"github.com/tianliuyang/pacaya/internal/semiring"
)

// ElemAdd combines other into t element-wise with the algebra's plus.
func (t *Tensor) ElemAdd(other *Tensor) error {
	return t.zip(other, t.alg.Plus)
}

// ElemSubtract combines other into t element-wise with the algebra's minus.
func (t *Tensor) ElemSubtract(other *Tensor) error {
	return t.zip(other, t.alg.Minus)
}

// ElemMultiply combines other into t element-wise with the algebra's times.
func (t *Tensor) ElemMultiply(other *Tensor) error {
	return t.zip(other, t.alg.Times)
}

// ElemDivide combines other into t element-wise with the algebra's divide.
func (t *Tensor) ElemDivide(other *Tensor) error {
	return t.zip(other, t.alg.Divide)
}

func (t *Tensor) zip(other *Tensor, op func(a, b float64) float64) error {
	if err := t.checkShape(other); err != nil {
		return err
	}
	for i, v := range other.values {
		t.values[i] = op(t.values[i], v)
	}
	return nil
}

// Exp applies the natural exponential to each stored value.
//
// The algebra tag is left unchanged; the caller decides what encoding the
// result is in.
func (t *Tensor) Exp() {
	for i, v := range t.values {
		t.values[i] = math.Exp(v)
	}
}

// Log applies the natural logarithm to each stored value.
func (t *Tensor) Log() {
	for i, v := range t.values {
		t.values[i] = math.Log(v)
	}
}

// Scale multiplies every element by v with the algebra's times.
func (t *Tensor) Scale(v float64) {
	for i := range t.values {
		t.values[i] = t.alg.Times(t.values[i], v)
	}
}

// Sum reduces all elements with the algebra's plus.
func (t *Tensor) Sum() float64 {
	sum := t.alg.Zero()
	for _, v := range t.values {
		sum = t.alg.Plus(sum, v)
	}
	return sum
}

// Normalize divides every element by Sum and returns the sum.
// A tensor whose sum is the algebra's zero is left unchanged.
func (t *Tensor) Normalize() float64 {
	sum := t.Sum()
	if sum == t.alg.Zero() {
		return sum
	}
	for i := range t.values {
		t.values[i] = t.alg.Divide(t.values[i], sum)
	}
	return sum
}

// ArgMax returns the flat offset of the largest element. Ties go to the
// lowest offset. On non-negative values every encoding is monotone in the
// real value, so comparing stored numbers is sufficient.
func (t *Tensor) ArgMax() int {
	best := 0
	for i, v := range t.values {
		if v > t.values[best] {
			best = i
		}
	}
	return best
}

// Convert returns a copy of t re-encoded in alg.
func (t *Tensor) Convert(alg semiring.Algebra) *Tensor {
	out := t.Copy()
	out.alg = alg
	if semiring.Equal(t.alg, alg) {
		return out
	}
	for i, v := range t.values {
		out.values[i] = alg.FromLogProb(t.alg.ToLogProb(v))
	}
	return out
}

// ScaledReals returns the real values of t divided by exp(shift), and
// shift. Log tensors are shifted by their largest entry so that the result
// stays finite however large the log values are; other algebras use a
// shift of zero.
func (t *Tensor) ScaledReals() (reals []float64, shift float64) {
	reals = make([]float64, len(t.values))
	if !semiring.Equal(t.alg, semiring.Log) {
		for i, v := range t.values {
			reals[i] = t.alg.ToReal(v)
		}
		return reals, 0
	}
	shift = math.Inf(-1)
	for _, v := range t.values {
		shift = math.Max(shift, v)
	}
	if math.IsInf(shift, -1) {
		shift = 0
	}
	for i, v := range t.values {
		reals[i] = math.Exp(v - shift)
	}
	return reals, shift
}

// InfNorm returns the largest absolute stored value.
func (t *Tensor) InfNorm() float64 {
	norm := 0.0
	for _, v := range t.values {
		norm = math.Max(norm, math.Abs(v))
	}
	return norm
}
