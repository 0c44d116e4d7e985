package erma

import (
	"fmt"

	"github.com/tianliuyang/pacaya/internal/tensor"
)

// Factors holds one potential table per factor of a graph, shaped like the
// factor's variables. Global factors have a nil table.
type Factors struct {
	Tables []*tensor.Tensor
}

// AdjointLike returns zero Real tables of the same shapes.
func (f *Factors) AdjointLike() *Factors {
	return &Factors{Tables: adjointLike(f.Tables)}
}

// ElemAdd adds other's tables into f's.
func (f *Factors) ElemAdd(other *Factors) error {
	return elemAdd("factor", f.Tables, other.Tables)
}

// Beliefs holds normalized beliefs in the Real algebra: one per variable,
// indexed by variable id, and one per factor, nil for global factors.
type Beliefs struct {
	Vars    []*tensor.Tensor
	Factors []*tensor.Tensor
}

// AdjointLike returns zero beliefs of the same shapes.
func (b *Beliefs) AdjointLike() *Beliefs {
	return &Beliefs{Vars: adjointLike(b.Vars), Factors: adjointLike(b.Factors)}
}

// ElemAdd adds other's beliefs into b's.
func (b *Beliefs) ElemAdd(other *Beliefs) error {
	if err := elemAdd("variable belief", b.Vars, other.Vars); err != nil {
		return err
	}
	return elemAdd("factor belief", b.Factors, other.Factors)
}

func adjointLike(ts []*tensor.Tensor) []*tensor.Tensor {
	out := make([]*tensor.Tensor, len(ts))
	for i, t := range ts {
		if t != nil {
			out[i] = t.AdjointLike()
		}
	}
	return out
}

func elemAdd(what string, dst, src []*tensor.Tensor) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%w: %d vs %d %s tables", tensor.ErrShapeMismatch, len(dst), len(src), what)
	}
	for i, t := range dst {
		if t == nil || src[i] == nil {
			continue
		}
		if err := t.ElemAdd(src[i]); err != nil {
			return fmt.Errorf("%s %d: %w", what, i, err)
		}
	}
	return nil
}
