package autodiff

import (
	"math"
	"math/rand/v2"

	"github.com/tianliuyang/pacaya/internal/tensor"
)

// Function is a scalar function of a parameter vector.
type Function func(theta []float64) float64

// NumericalGradient estimates the gradient of f at theta with centred
// finite differences. theta is restored before returning.
func NumericalGradient(f Function, theta []float64, epsilon float64) []float64 {
	grad := make([]float64, len(theta))
	for i := range theta {
		orig := theta[i]
		theta[i] = orig + epsilon
		up := f(theta)
		theta[i] = orig - epsilon
		down := f(theta)
		theta[i] = orig
		grad[i] = (up - down) / (2 * epsilon)
	}
	return grad
}

// SPSAGradient estimates the gradient of f at theta by simultaneous
// perturbation: every coordinate is perturbed by ±epsilon at once and the
// estimate is averaged over numSamples draws.
func SPSAGradient(f Function, theta []float64, numSamples int, epsilon float64, rng *rand.Rand) []float64 {
	n := len(theta)
	grad := make([]float64, n)
	delta := make([]float64, n)
	plus := make([]float64, n)
	minus := make([]float64, n)
	for range numSamples {
		for i := range delta {
			delta[i] = 1
			if rng.IntN(2) == 0 {
				delta[i] = -1
			}
			plus[i] = theta[i] + epsilon*delta[i]
			minus[i] = theta[i] - epsilon*delta[i]
		}
		diff := f(plus) - f(minus)
		for i := range grad {
			grad[i] += diff / (2 * epsilon * delta[i])
		}
	}
	for i := range grad {
		grad[i] /= float64(numSamples)
	}
	return grad
}

// InfNormDiff returns max_i |a[i] - b[i]|.
func InfNormDiff(a, b []float64) float64 {
	norm := 0.0
	for i := range a {
		norm = math.Max(norm, math.Abs(a[i]-b[i]))
	}
	return norm
}

// TensorModuleGradients compares reverse-mode and finite-difference
// gradients of a module built on top of a single tensor input.
//
// The scalar objective is a fixed random projection of the module's
// output, so every output element contributes. build must construct a
// fresh module graph on each call; it receives an Identity wrapping the
// (possibly perturbed) input.
//
// Returns the automatic and numerical gradients with respect to the stored
// values of x.
func TensorModuleGradients(
	build func(in TensorModule) TensorModule,
	x *tensor.Tensor,
	epsilon float64,
	rng *rand.Rand,
) (ad, fd []float64) {
	in := NewIdentity(x.Copy())
	out := build(in)
	order := newOrderFor(out)
	order.forward()
	proj := make([]float64, out.Output().Size())
	for i := range proj {
		proj[i] = rng.Float64()*2 - 1
	}

	// Reverse mode: seed the output adjoint with the projection.
	order.zero()
	seed := out.Output().AdjointLike()
	copy(seed.Values(), proj)
	out.AccumulateAdj(seed)
	order.backward()
	ad = append([]float64(nil), in.OutputAdj().Values()...)

	objective := func(theta []float64) float64 {
		xt := x.Copy()
		copy(xt.Values(), theta)
		m := build(NewIdentity(xt))
		newOrderFor(m).forward()
		sum := 0.0
		for i, v := range m.Output().Values() {
			sum += proj[i] * v
		}
		return sum
	}
	theta := append([]float64(nil), x.Values()...)
	fd = NumericalGradient(objective, theta, epsilon)
	return ad, fd
}

// nodeOrder is a TopoOrder without a scalar sink.
type nodeOrder []Node

func newOrderFor(sink Node) nodeOrder {
	return sortFrom(sink)
}

func (o nodeOrder) forward() {
	for _, n := range o {
		n.Forward()
	}
}

func (o nodeOrder) zero() {
	for _, n := range o {
		n.ZeroOutputAdj()
	}
}

func (o nodeOrder) backward() {
	for i := len(o) - 1; i >= 0; i-- {
		o[i].Backward()
	}
}
