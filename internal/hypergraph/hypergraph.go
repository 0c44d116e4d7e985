// Package hypergraph implements directed hypergraphs and the generic
// inside-outside algorithm over them.
//
// A Hyperedge connects one head node to an ordered list of tail nodes. An
// edge with no tails is a leaf edge and contributes its weight directly to
// its head. One node is designated the root; every derivation ends there.
//
// Node and edge ids are dense and assigned in insertion order, so per-node
// and per-edge quantities are stored in plain slices indexed by id.
package hypergraph

import (
	"errors"
	"fmt"
)

var (
	// ErrCycle is returned when the edges do not form a DAG.
	ErrCycle = errors.New("hypergraph contains a cycle")

	// ErrUnreachable is returned when a node cannot reach the root.
	ErrUnreachable = errors.New("hypergraph node cannot reach the root")

	// ErrNoRoot is returned when no root has been designated.
	ErrNoRoot = errors.New("hypergraph has no root")
)

// Hypernode is a node of a Hypergraph.
type Hypernode struct {
	id    int
	label string
	in    []*Hyperedge // edges with this node as head
	out   []*Hyperedge // edges with this node as a tail
}

// ID returns the node id.
func (n *Hypernode) ID() int { return n.id }

// Label returns the node label.
func (n *Hypernode) Label() string { return n.label }

// InEdges returns the edges whose head is n.
func (n *Hypernode) InEdges() []*Hyperedge { return n.in }

// OutEdges returns the edges that have n as a tail.
func (n *Hypernode) OutEdges() []*Hyperedge { return n.out }

func (n *Hypernode) String() string {
	return fmt.Sprintf("%d:%s", n.id, n.label)
}

// Hyperedge connects a head node to an ordered list of tail nodes.
type Hyperedge struct {
	id    int
	label string
	head  *Hypernode
	tails []*Hypernode
}

// ID returns the edge id.
func (e *Hyperedge) ID() int { return e.id }

// Label returns the edge label.
func (e *Hyperedge) Label() string { return e.label }

// Head returns the head node.
func (e *Hyperedge) Head() *Hypernode { return e.head }

// Tails returns the tail nodes in declaration order.
func (e *Hyperedge) Tails() []*Hypernode { return e.tails }

func (e *Hyperedge) String() string {
	return fmt.Sprintf("%d:%s", e.id, e.label)
}

// Hypergraph owns a set of nodes and edges and designates one root.
//
// Example:
//
//	g := hypergraph.New()
//	a := g.AddNode("a")
//	root := g.AddNode("root")
//	g.AddEdge("leaf", a)        // a has inside weight w(leaf)
//	g.AddEdge("top", root, a)   // root <- a
//	g.SetRoot(root)
//	if err := g.Validate(); err != nil { ... }
type Hypergraph struct {
	nodes []*Hypernode
	edges []*Hyperedge
	root  *Hypernode
	order []*Hyperedge // cached topological order, nil when stale
}

// New creates an empty hypergraph.
func New() *Hypergraph {
	return &Hypergraph{}
}

// AddNode appends a node and returns it.
func (g *Hypergraph) AddNode(label string) *Hypernode {
	n := &Hypernode{id: len(g.nodes), label: label}
	g.nodes = append(g.nodes, n)
	return n
}

// AddEdge appends an edge with the given head and tails and returns it.
// The nodes must belong to g.
func (g *Hypergraph) AddEdge(label string, head *Hypernode, tails ...*Hypernode) *Hyperedge {
	e := &Hyperedge{
		id:    len(g.edges),
		label: label,
		head:  head,
		tails: append([]*Hypernode(nil), tails...),
	}
	head.in = append(head.in, e)
	for _, t := range e.tails {
		t.out = append(t.out, e)
	}
	g.edges = append(g.edges, e)
	g.order = nil
	return e
}

// SetRoot designates the root node.
func (g *Hypergraph) SetRoot(n *Hypernode) {
	g.root = n
}

// Root returns the root node, or nil if none is set.
func (g *Hypergraph) Root() *Hypernode { return g.root }

// Nodes returns the nodes in id order.
func (g *Hypergraph) Nodes() []*Hypernode { return g.nodes }

// Edges returns the edges in id order.
func (g *Hypergraph) Edges() []*Hyperedge { return g.edges }

// NumNodes returns the number of nodes.
func (g *Hypergraph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of edges.
func (g *Hypergraph) NumEdges() int { return len(g.edges) }

// TopoSort returns the edges ordered so that each edge comes after every
// edge whose head is one of its tails. Nodes are finished depth-first in id
// order and a node's incoming edges are emitted in insertion order once the
// node is finished, so the result is deterministic.
func (g *Hypergraph) TopoSort() ([]*Hyperedge, error) {
	if g.order != nil {
		return g.order, nil
	}
	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, len(g.nodes))
	order := make([]*Hyperedge, 0, len(g.edges))
	var visit func(n *Hypernode) error
	visit = func(n *Hypernode) error {
		switch state[n.id] {
		case active:
			return fmt.Errorf("%w: through node %v", ErrCycle, n)
		case done:
			return nil
		}
		state[n.id] = active
		for _, e := range n.in {
			for _, t := range e.tails {
				if err := visit(t); err != nil {
					return err
				}
			}
		}
		state[n.id] = done
		order = append(order, n.in...)
		return nil
	}
	for _, n := range g.nodes {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	g.order = order
	return order, nil
}

// Validate checks that a root is set, the edges form a DAG and every node
// reaches the root.
func (g *Hypergraph) Validate() error {
	if g.root == nil {
		return ErrNoRoot
	}
	if _, err := g.TopoSort(); err != nil {
		return err
	}
	reach := make([]bool, len(g.nodes))
	reach[g.root.id] = true
	stack := []*Hypernode{g.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range n.in {
			for _, t := range e.tails {
				if !reach[t.id] {
					reach[t.id] = true
					stack = append(stack, t)
				}
			}
		}
	}
	for _, n := range g.nodes {
		if !reach[n.id] {
			return fmt.Errorf("%w: node %v", ErrUnreachable, n)
		}
	}
	return nil
}

// ApplyTopoSort calls fn on every edge in topological order.
// It panics if the graph has a cycle; call Validate first.
func (g *Hypergraph) ApplyTopoSort(fn func(e *Hyperedge)) {
	for _, e := range g.mustOrder() {
		fn(e)
	}
}

// ApplyRevTopoSort calls fn on every edge in reverse topological order.
func (g *Hypergraph) ApplyRevTopoSort(fn func(e *Hyperedge)) {
	order := g.mustOrder()
	for i := len(order) - 1; i >= 0; i-- {
		fn(order[i])
	}
}

func (g *Hypergraph) mustOrder() []*Hyperedge {
	order, err := g.TopoSort()
	if err != nil {
		panic(err)
	}
	return order
}
