package semiring

import "math"

// logSignAlgebra stores a real r as log|r| with the sign of r in the
// lowest mantissa bit. Zero is -Inf and always positive. The sign bit costs
// one bit of precision in the magnitude.
type logSignAlgebra struct{}

const signMask = 1

// FromSignedLog encodes the real number ±exp(l) in LogSign.
func FromSignedLog(l float64, negative bool) float64 {
	if math.IsInf(l, 0) || math.IsNaN(l) {
		return l
	}
	bits := math.Float64bits(l) &^ signMask
	if negative {
		bits |= signMask
	}
	return math.Float64frombits(bits)
}

// SignedLog decodes a LogSign value into log|r| and the sign of r.
func SignedLog(x float64) (l float64, negative bool) {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x, false
	}
	bits := math.Float64bits(x)
	return math.Float64frombits(bits &^ signMask), bits&signMask != 0
}

func (logSignAlgebra) Zero() float64 { return math.Inf(-1) }
func (logSignAlgebra) One() float64  { return 0 }

func (s logSignAlgebra) Plus(a, b float64) float64 {
	la, na := SignedLog(a)
	lb, nb := SignedLog(b)
	if math.IsInf(lb, -1) {
		return a
	}
	if math.IsInf(la, -1) {
		return b
	}
	if la < lb {
		la, lb = lb, la
		na, nb = nb, na
	}
	if na == nb {
		return FromSignedLog(la+math.Log1p(math.Exp(lb-la)), na)
	}
	if la == lb {
		return s.Zero()
	}
	return FromSignedLog(la+math.Log1p(-math.Exp(lb-la)), na)
}

func (s logSignAlgebra) Minus(a, b float64) float64 {
	lb, nb := SignedLog(b)
	return s.Plus(a, FromSignedLog(lb, !nb))
}

func (s logSignAlgebra) Times(a, b float64) float64 {
	la, na := SignedLog(a)
	lb, nb := SignedLog(b)
	if math.IsInf(la, -1) || math.IsInf(lb, -1) {
		return s.Zero()
	}
	return FromSignedLog(la+lb, na != nb)
}

func (s logSignAlgebra) Divide(a, b float64) float64 {
	la, na := SignedLog(a)
	lb, nb := SignedLog(b)
	if math.IsInf(la, -1) && !math.IsInf(lb, -1) {
		return s.Zero()
	}
	return FromSignedLog(la-lb, na != nb)
}

func (logSignAlgebra) ToReal(x float64) float64 {
	l, neg := SignedLog(x)
	if neg {
		return -math.Exp(l)
	}
	return math.Exp(l)
}

func (logSignAlgebra) FromReal(r float64) float64 {
	return FromSignedLog(math.Log(math.Abs(r)), r < 0)
}

// ToLogProb is NaN for negative values.
func (logSignAlgebra) ToLogProb(x float64) float64 {
	l, neg := SignedLog(x)
	if neg {
		return math.NaN()
	}
	return l
}

func (logSignAlgebra) FromLogProb(l float64) float64 { return FromSignedLog(l, false) }

func (s logSignAlgebra) DToReal(x float64) float64 { return s.ToReal(x) }

// LogDToReal is log|DToReal(x)|.
func (logSignAlgebra) LogDToReal(x float64) float64 {
	l, _ := SignedLog(x)
	return l
}

func (logSignAlgebra) DFromLogProb(float64) float64 { return 1 }
func (logSignAlgebra) Name() string                 { return "LogSign" }
