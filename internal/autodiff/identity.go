package autodiff

// Identity is a leaf module holding a fixed value. Its adjoint collects the
// gradient of the downstream objective with respect to that value.
type Identity[T Value[T]] struct {
	Base[T]
}

// NewIdentity creates a leaf module whose output is y.
func NewIdentity[T Value[T]](y T) *Identity[T] {
	m := &Identity[T]{Base: NewBase[T]("Identity")}
	m.SetOutput(y)
	return m
}

// Forward keeps the fixed value. The adjoint is left untouched so that a
// leaf may be re-run without losing an accumulated gradient.
func (m *Identity[T]) Forward() {}

// Backward has no inputs to propagate to.
func (m *Identity[T]) Backward() {}

// Inputs returns nil.
func (m *Identity[T]) Inputs() []Node { return nil }
