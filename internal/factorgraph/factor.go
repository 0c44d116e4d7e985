package factorgraph

import (
	"fmt"

	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/semiring"
	"github.com/tianliuyang/pacaya/internal/tensor"
)

// Factor is a function over the joint states of a set of variables.
//
// A factor must also provide one of two capabilities, checked when it is
// added to a graph:
//   - AutodiffFactor: an enumerable potential table computed by a module
//     from the model parameters
//   - GlobalFactor: no table; the factor computes its own messages
type Factor interface {
	Vars() VarSet
}

// AutodiffFactor is a factor whose potential table is produced by a
// module reading the model parameters, so that gradients reach them.
type AutodiffFactor interface {
	Factor

	// Potentials returns the potential table for params encoded in alg,
	// shaped like Vars().Dims().
	Potentials(params []float64, alg semiring.Algebra) *tensor.Tensor

	// FactorModule returns a module computing Potentials from a parameter
	// vector module. The returned module's output is encoded in alg.
	FactorModule(params autodiff.TensorModule, alg semiring.Algebra) autodiff.TensorModule
}

// ExplicitFactor is a constant table of real potentials.
type ExplicitFactor struct {
	vars   VarSet
	values []float64
}

// NewExplicitFactor creates a factor over vars with the given real
// potentials, indexed by configuration.
func NewExplicitFactor(vars VarSet, values []float64) (*ExplicitFactor, error) {
	if len(values) != vars.NumConfigs() {
		return nil, fmt.Errorf("%w: %d potentials for %d configurations of %v",
			tensor.ErrShapeMismatch, len(values), vars.NumConfigs(), vars)
	}
	return &ExplicitFactor{vars: vars, values: append([]float64(nil), values...)}, nil
}

// Vars returns the factor's variables.
func (f *ExplicitFactor) Vars() VarSet { return f.vars }

// Potentials returns the table encoded in alg. params is ignored.
func (f *ExplicitFactor) Potentials(_ []float64, alg semiring.Algebra) *tensor.Tensor {
	t := tensor.New(alg, f.vars.Dims()...)
	for i, v := range f.values {
		t.SetValue(i, alg.FromReal(v))
	}
	return t
}

// FactorModule returns a constant module; no gradient reaches params.
func (f *ExplicitFactor) FactorModule(_ autodiff.TensorModule, alg semiring.Algebra) autodiff.TensorModule {
	return autodiff.NewIdentity(f.Potentials(nil, alg))
}

// Feature is one non-zero entry of a sparse feature vector.
type Feature struct {
	Index int
	Value float64
}

// FeatureVector is a sparse vector of parameter-indexed feature values.
type FeatureVector []Feature

// Dot returns the inner product with params.
func (fv FeatureVector) Dot(params []float64) float64 {
	sum := 0.0
	for _, f := range fv {
		sum += params[f.Index] * f.Value
	}
	return sum
}

// ExpFamFactor is a log-linear factor: the potential of configuration c is
// exp(θ · f(c)).
type ExpFamFactor struct {
	vars  VarSet
	feats []FeatureVector
}

// NewExpFamFactor creates a log-linear factor with one feature vector per
// configuration of vars.
func NewExpFamFactor(vars VarSet, feats []FeatureVector) (*ExpFamFactor, error) {
	if len(feats) != vars.NumConfigs() {
		return nil, fmt.Errorf("%w: %d feature vectors for %d configurations of %v",
			tensor.ErrShapeMismatch, len(feats), vars.NumConfigs(), vars)
	}
	return &ExpFamFactor{vars: vars, feats: feats}, nil
}

// Vars returns the factor's variables.
func (f *ExpFamFactor) Vars() VarSet { return f.vars }

// Features returns the feature vector of configuration c.
func (f *ExpFamFactor) Features(c int) FeatureVector { return f.feats[c] }

// MaxFeatureIndex returns the largest parameter index referenced, or -1.
func (f *ExpFamFactor) MaxFeatureIndex() int {
	maxIdx := -1
	for _, fv := range f.feats {
		for _, ft := range fv {
			maxIdx = max(maxIdx, ft.Index)
		}
	}
	return maxIdx
}

// Potentials returns exp(θ · f(c)) for every configuration, encoded in
// alg.
func (f *ExpFamFactor) Potentials(params []float64, alg semiring.Algebra) *tensor.Tensor {
	t := tensor.New(alg, f.vars.Dims()...)
	for c, fv := range f.feats {
		t.SetValue(c, alg.FromLogProb(fv.Dot(params)))
	}
	return t
}

// FactorModule returns the module computing Potentials from params.
func (f *ExpFamFactor) FactorModule(params autodiff.TensorModule, alg semiring.Algebra) autodiff.TensorModule {
	return &expFamModule{
		Base:   autodiff.NewBase[*tensor.Tensor]("ExpFamFactor"),
		f:      f,
		params: params,
		alg:    alg,
	}
}

// expFamModule computes y_c = FromLogProb(θ · f(c)). With score
// s_c = θ · f(c), d y_c / d s_c is DFromLogProb(y_c): y_c in the real
// algebra and 1 in the log algebra.
type expFamModule struct {
	autodiff.Base[*tensor.Tensor]
	f      *ExpFamFactor
	params autodiff.TensorModule
	alg    semiring.Algebra
}

func (m *expFamModule) Forward() {
	m.SetOutput(m.f.Potentials(m.params.Output().Values(), m.alg))
}

func (m *expFamModule) Backward() {
	y, yAdj := m.Output(), m.OutputAdj()
	delta := m.params.Output().AdjointLike()
	for c, fv := range m.f.feats {
		g := yAdj.Value(c)
		if g == 0 {
			continue
		}
		ds := g * m.alg.DFromLogProb(y.Value(c))
		for _, ft := range fv {
			delta.AddValue(ft.Index, ds*ft.Value)
		}
	}
	m.params.AccumulateAdj(delta)
}

func (m *expFamModule) Inputs() []autodiff.Node {
	return []autodiff.Node{m.params}
}
