package msx

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"
)

// flowOrder computes the order in which nodes must be processed
// during a transport sub-step: a node is ready once every link that
// currently flows into it has ejected its head segment.
// Direction is taken from each link's signed flow for this sub-step.
//
// The fast path builds a directed graph from the current flow
// directions and asks lvlath's dfs.TopologicalSort for a linear order.
// Tanks routinely close flow loops (a tank both receives from and
// feeds the same junction across a day), which TopologicalSort
// correctly reports as dfs.ErrCycleDetected; when that happens we fall
// back to a bounded-revisit order instead of failing the step.
func (p *Project) flowOrder() ([]int, error) {
	g := core.NewGraph(core.WithDirected(true))
	for i, n := range p.Nodes {
		if n == nil {
			continue
		}
		if err := g.AddVertex(nodeVertexID(i)); err != nil {
			return nil, fmt.Errorf("msx: building flow graph: %w", err)
		}
	}
	for _, l := range p.Links {
		if l == nil || l.Flow == 0 {
			continue
		}
		from, to := l.N1, l.N2
		if l.Flow < 0 {
			from, to = l.N2, l.N1
		}
		if _, err := g.AddEdge(nodeVertexID(from), nodeVertexID(to), 1); err != nil {
			return nil, fmt.Errorf("msx: building flow graph: %w", err)
		}
	}

	order, err := dfs.TopologicalSort(g)
	if err == nil {
		return vertexIDsToIndices(order), nil
	}
	if errors.Is(err, dfs.ErrCycleDetected) {
		return p.boundedRevisitOrder(), nil
	}
	return nil, fmt.Errorf("msx: topological sort: %w", err)
}

func nodeVertexID(i int) string { return strconv.Itoa(i) }

func vertexIDsToIndices(ids []string) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		i, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		out = append(out, i)
	}
	return out
}

// boundedRevisitOrder breaks cycles (tanks) by repeatedly scanning
// nodes in adjacency order and emitting any node whose inflow links
// have all already been emitted, for a number of passes proportional
// to the node count; a node whose incoming links never all resolve
// (a true cycle) is emitted on its last eligible pass regardless, so
// every node appears exactly once.
func (p *Project) boundedRevisitOrder() []int {
	n := len(p.Nodes)
	done := make([]bool, n)
	inDegree := make([]int, n)
	for _, l := range p.Links {
		if l == nil || l.Flow == 0 {
			continue
		}
		to := l.N2
		if l.Flow < 0 {
			to = l.N1
		}
		inDegree[to]++
	}

	order := make([]int, 0, n-1)
	resolvedCount := make([]int, n)

	budget := n + 10
	for pass := 0; pass < budget && len(order) < n-1; pass++ {
		for i := 1; i < n; i++ {
			if p.Nodes[i] == nil || done[i] {
				continue
			}
			ready := resolvedCount[i] >= inDegree[i] || pass == budget-1
			if !ready {
				continue
			}
			done[i] = true
			order = append(order, i)
			for _, adj := range p.adjacency[i] {
				l := p.Links[adj.LinkIndex]
				if l == nil || l.Flow == 0 {
					continue
				}
				from := l.N1
				if l.Flow < 0 {
					from = l.N2
				}
				if from == i {
					resolvedCount[adj.NeighborIndex]++
				}
			}
		}
	}
	return order
}
