package erma

import (
	"math/rand/v2"

	"github.com/tianliuyang/pacaya/internal/factorgraph"
)

// Message ids: edge e carries message 2e from its variable to its factor
// and message 2e+1 from its factor to its variable.
func varToFactor(e int) int { return 2 * e }
func factorToVar(e int) int { return 2*e + 1 }
func edgeOf(msg int) int    { return msg / 2 }

func isVarToFactor(msg int) bool { return msg%2 == 0 }

// sweepOrder returns the order in which messages are sent in one sweep.
// The Random schedule draws a fresh permutation on every call.
func sweepOrder(g *factorgraph.FactorGraph, s Schedule, rng *rand.Rand) []int {
	switch s {
	case TreeLike:
		return treeLikeOrder(g)
	case Random:
		order := fixedOrder(g)
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		return order
	default:
		return fixedOrder(g)
	}
}

func fixedOrder(g *factorgraph.FactorGraph) []int {
	order := make([]int, 0, 2*g.NumEdges())
	for a := range g.NumFactors() {
		for _, e := range g.FactorEdges(a) {
			order = append(order, varToFactor(e))
		}
		for _, e := range g.FactorEdges(a) {
			order = append(order, factorToVar(e))
		}
	}
	return order
}

// treeLikeOrder builds a breadth-first spanning forest of the bipartite
// graph, rooted at the lowest-id variable of each component. It sends
// every child-to-parent message in reverse discovery order, then every
// parent-to-child message in discovery order, then both messages of each
// edge outside the forest.
func treeLikeOrder(g *factorgraph.FactorGraph) []int {
	type node struct {
		factor bool
		id     int
	}
	varSeen := make([]bool, g.NumVars())
	facSeen := make([]bool, g.NumFactors())
	treeEdge := make([]bool, g.NumEdges())

	// up[i] is the message from the i-th discovered non-root node to its
	// parent; down[i] the reverse.
	var up, down []int
	visit := func(start node) {
		queue := []node{start}
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			var edges []int
			if n.factor {
				edges = g.FactorEdges(n.id)
			} else {
				edges = g.VarEdges(g.Var(n.id))
			}
			for _, e := range edges {
				edge := g.Edges()[e]
				if n.factor {
					v := edge.Var.ID()
					if varSeen[v] {
						continue
					}
					varSeen[v] = true
					treeEdge[e] = true
					up = append(up, varToFactor(e))
					down = append(down, factorToVar(e))
					queue = append(queue, node{id: v})
				} else {
					a := edge.Factor
					if facSeen[a] {
						continue
					}
					facSeen[a] = true
					treeEdge[e] = true
					up = append(up, factorToVar(e))
					down = append(down, varToFactor(e))
					queue = append(queue, node{factor: true, id: a})
				}
			}
		}
	}
	for v := range g.NumVars() {
		if !varSeen[v] {
			varSeen[v] = true
			visit(node{id: v})
		}
	}

	order := make([]int, 0, 2*g.NumEdges())
	for i := len(up) - 1; i >= 0; i-- {
		order = append(order, up[i])
	}
	order = append(order, down...)
	for e := range g.NumEdges() {
		if !treeEdge[e] {
			order = append(order, varToFactor(e), factorToVar(e))
		}
	}
	return order
}
