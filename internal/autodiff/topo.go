package autodiff

import (
	"fmt"

	"github.com/tianliuyang/pacaya/internal/tensor"
)

// TopoOrder is a global topological order over the modules reachable from
// a sink, used to run one forward sweep and its mirror-image backward
// sweep.
//
// Usage:
//
//	order := NewTopoOrder(loss)
//	order.Forward()  // each module's Forward exactly once, inputs first
//	order.Backward() // zero adjoints, seed loss adjoint to 1, reverse sweep
type TopoOrder struct {
	nodes []Node
	sink  TensorModule
}

// NewTopoOrder orders every module reachable from sink. Inputs are visited
// depth-first in declaration order, so ties are broken by insertion order.
// It panics if the inputs form a cycle.
func NewTopoOrder(sink TensorModule) *TopoOrder {
	return &TopoOrder{nodes: sortFrom(sink), sink: sink}
}

// sortFrom returns the modules reachable from sink in depth-first
// post-order.
func sortFrom(sink Node) []Node {
	var nodes []Node
	state := make(map[Node]int) // 0 unvisited, 1 on stack, 2 done
	var visit func(n Node)
	visit = func(n Node) {
		switch state[n] {
		case 1:
			panic(fmt.Sprintf("autodiff: cycle through module %T", n))
		case 2:
			return
		}
		state[n] = 1
		for _, in := range n.Inputs() {
			visit(in)
		}
		state[n] = 2
		nodes = append(nodes, n)
	}
	visit(sink)
	return nodes
}

// Nodes returns the modules in topological order (sources first).
func (o *TopoOrder) Nodes() []Node {
	return o.nodes
}

// NumNodes returns the number of scheduled modules.
func (o *TopoOrder) NumNodes() int {
	return len(o.nodes)
}

// Forward runs every module's Forward in topological order and returns the
// sink's output.
func (o *TopoOrder) Forward() *tensor.Tensor {
	for _, n := range o.nodes {
		n.Forward()
	}
	return o.sink.Output()
}

// Backward zeroes every adjoint, seeds each element of the sink's adjoint
// with 1 and runs Backward in reverse topological order.
func (o *TopoOrder) Backward() {
	for _, n := range o.nodes {
		n.ZeroOutputAdj()
	}
	seed := o.sink.Output().AdjointLike()
	seed.Fill(1)
	o.sink.AccumulateAdj(seed)
	for i := len(o.nodes) - 1; i >= 0; i-- {
		o.nodes[i].Backward()
	}
}
