package ops

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

func TestOpGradients(t *testing.T) {
	x := tensor.MustFromValues(semiring.Real, tensor.Shape{2, 3}, []float64{0.3, 1.2, 2.0, 0.7, 0.1, 1.5})

	tests := []struct {
		name  string
		build func(in autodiff.TensorModule) autodiff.TensorModule
	}{
		{"Exp", func(in autodiff.TensorModule) autodiff.TensorModule { return NewExp(in) }},
		{"Log", func(in autodiff.TensorModule) autodiff.TensorModule { return NewLog(in) }},
		{"Scale", func(in autodiff.TensorModule) autodiff.TensorModule { return NewScale(in, -2.5) }},
		{"Sum", func(in autodiff.TensorModule) autodiff.TensorModule { return NewSum(in) }},
		{"AddSelf", func(in autodiff.TensorModule) autodiff.TensorModule { return NewAdd(in, in) }},
		{"MulSelf", func(in autodiff.TensorModule) autodiff.TensorModule { return NewMul(in, in) }},
		{"MulExp", func(in autodiff.TensorModule) autodiff.TensorModule { return NewMul(in, NewExp(in)) }},
		{"LogSumExp", func(in autodiff.TensorModule) autodiff.TensorModule { return NewLog(NewSum(NewExp(in))) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(7, 11))
			ad, fd := autodiff.TensorModuleGradients(tt.build, x, 1e-6, rng)
			assert.InDeltaSlice(t, fd, ad, 1e-5)
		})
	}
}

func TestAddShapeMismatchPanics(t *testing.T) {
	a := autodiff.NewIdentity(tensor.New(semiring.Real, 2))
	b := autodiff.NewIdentity(tensor.New(semiring.Real, 3))
	add := NewAdd(a, b)
	assert.PanicsWithError(t, "Add: shape mismatch: [2] vs [3]", add.Forward)
}

func TestOutputsAreReal(t *testing.T) {
	x := autodiff.NewIdentity(tensor.MustFromValues(semiring.Log, tensor.Shape{2}, []float64{-1, -2}))
	e := NewExp(x)
	e.Forward()
	assert.Equal(t, "Real", e.Output().Algebra().Name())
}
