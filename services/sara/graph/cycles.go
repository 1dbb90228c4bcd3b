// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"slices"
	"strings"
)

// primarySuccessors returns the sorted targets of id's primary-direction
// edges.
func (g *KnowledgeGraph) primarySuccessors(id string) []string {
	var out []string
	for _, e := range g.nodes[id].Outgoing {
		if e.Kind.IsPrimary() {
			out = append(out, e.To)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// tarjanState holds the bookkeeping of one strongly-connected-components pass.
type tarjanState struct {
	index   int
	indices map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	sccs    [][]string
}

// findCycles runs Tarjan's algorithm over the primary edge set.
//
// Description:
//
//	Each component with more than one member is a cycle. A single-member
//	component is a cycle only if it has a self-loop. Only primary edges
//	are considered, so a link declared from both ends (A refines B and
//	B is_refined_by A) is never reported.
//
// Outputs:
//
//	[]Cycle - One entry per cyclic component, ordered by smallest member.
//
// Limitations:
//
//	Reports one representative chain per component even when the
//	component contains several distinct cycles.
func (g *KnowledgeGraph) findCycles() []Cycle {
	st := &tarjanState{
		indices: make(map[string]int, len(g.nodes)),
		lowlink: make(map[string]int, len(g.nodes)),
		onStack: make(map[string]bool),
	}

	for _, id := range g.ids {
		if _, visited := st.indices[id]; !visited {
			g.strongConnect(st, id)
		}
	}

	var cycles []Cycle
	for _, scc := range st.sccs {
		slices.Sort(scc)
		if len(scc) == 1 && !slices.Contains(g.primarySuccessors(scc[0]), scc[0]) {
			continue
		}
		cycles = append(cycles, Cycle{
			Members: scc,
			Chain:   g.cycleChain(scc),
		})
	}

	slices.SortFunc(cycles, func(a, b Cycle) int {
		return strings.Compare(a.Members[0], b.Members[0])
	})
	return cycles
}

func (g *KnowledgeGraph) strongConnect(st *tarjanState, v string) {
	st.indices[v] = st.index
	st.lowlink[v] = st.index
	st.index++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	for _, w := range g.primarySuccessors(v) {
		if _, visited := st.indices[w]; !visited {
			g.strongConnect(st, w)
			st.lowlink[v] = min(st.lowlink[v], st.lowlink[w])
		} else if st.onStack[w] {
			st.lowlink[v] = min(st.lowlink[v], st.indices[w])
		}
	}

	if st.lowlink[v] != st.indices[v] {
		return
	}

	var scc []string
	for {
		n := len(st.stack) - 1
		w := st.stack[n]
		st.stack = st.stack[:n]
		st.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	st.sccs = append(st.sccs, scc)
}

// cycleChain finds a closed walk from the smallest member back to itself,
// staying inside the component.
func (g *KnowledgeGraph) cycleChain(members []string) []string {
	start := members[0]
	inSCC := make(map[string]bool, len(members))
	for _, m := range members {
		inSCC[m] = true
	}

	// BFS with parent pointers gives the shortest way back to start.
	parent := map[string]string{}
	queue := []string{start}
	visited := map[string]bool{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.primarySuccessors(cur) {
			if !inSCC[next] {
				continue
			}
			if next == start {
				chain := []string{start}
				for at := cur; at != start; at = parent[at] {
					chain = append(chain, at)
				}
				slices.Reverse(chain[1:])
				return append(chain, start)
			}
			if !visited[next] {
				visited[next] = true
				parent[next] = cur
				queue = append(queue, next)
			}
		}
	}
	return append(slices.Clone(members), start)
}
