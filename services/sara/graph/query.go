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

	"github.com/AleutianAI/sara/services/sara/model"
)

// Len returns the number of items in the graph.
func (g *KnowledgeGraph) Len() int {
	return len(g.nodes)
}

// EdgeCount returns the number of normalized edges, inverses included.
func (g *KnowledgeGraph) EdgeCount() int {
	return len(g.edges)
}

// Get retrieves an item by identifier in O(1).
//
// Outputs:
//
//	*model.Item - The item if found, nil otherwise.
//	bool - True if the item was found.
func (g *KnowledgeGraph) Get(id string) (*model.Item, bool) {
	node, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return node.Item, true
}

// Contains reports whether id names an item.
func (g *KnowledgeGraph) Contains(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// IDs returns every identifier in sorted order.
func (g *KnowledgeGraph) IDs() []string {
	return slices.Clone(g.ids)
}

// Items returns every item in identifier order.
func (g *KnowledgeGraph) Items() []*model.Item {
	out := make([]*model.Item, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, g.nodes[id].Item)
	}
	return out
}

// ItemsByKind returns the items of one kind in identifier order.
func (g *KnowledgeGraph) ItemsByKind(kind model.Kind) []*model.Item {
	if kind < 0 || kind >= model.NumKinds {
		return nil
	}
	nodes := g.nodesByKind[kind]
	out := make([]*model.Item, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Item)
	}
	return out
}

// Edges returns a copy of every edge in insertion order.
func (g *KnowledgeGraph) Edges() []Edge {
	return copyEdges(g.edges)
}

// EdgesFrom returns the outgoing edges of id.
func (g *KnowledgeGraph) EdgesFrom(id string) []Edge {
	node, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return copyEdges(node.Outgoing)
}

// EdgesTo returns the incoming edges of id.
func (g *KnowledgeGraph) EdgesTo(id string) []Edge {
	node, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return copyEdges(node.Incoming)
}

// Children returns the items c with an edge id -kind-> c, in identifier order.
//
// Example:
//
//	// UC-1 refines SOL-1
//	g.Children("SOL-1", model.RelIsRefinedBy) // [UC-1]
func (g *KnowledgeGraph) Children(id string, kind model.RelationshipKind) []*model.Item {
	node, ok := g.nodes[id]
	if !ok {
		return nil
	}
	var out []*model.Item
	for _, e := range node.Outgoing {
		if e.Kind == kind {
			out = append(out, g.nodes[e.To].Item)
		}
	}
	return sortItems(out)
}

// Parents returns the items p with an edge p -kind-> id, in identifier order.
//
// Example:
//
//	// UC-1 refines SOL-1
//	g.Parents("SOL-1", model.RelRefines) // [UC-1]
func (g *KnowledgeGraph) Parents(id string, kind model.RelationshipKind) []*model.Item {
	node, ok := g.nodes[id]
	if !ok {
		return nil
	}
	var out []*model.Item
	for _, e := range node.Incoming {
		if e.Kind == kind {
			out = append(out, g.nodes[e.From].Item)
		}
	}
	return sortItems(out)
}

// Upstream returns the direct upstream neighbors of id: targets of its
// outgoing upstream-class edges.
func (g *KnowledgeGraph) Upstream(id string) []*model.Item {
	return g.neighbors(id, model.RelationshipKind.IsUpstream)
}

// Downstream returns the direct downstream neighbors of id.
func (g *KnowledgeGraph) Downstream(id string) []*model.Item {
	return g.neighbors(id, model.RelationshipKind.IsDownstream)
}

func (g *KnowledgeGraph) neighbors(id string, keep func(model.RelationshipKind) bool) []*model.Item {
	node, ok := g.nodes[id]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []*model.Item
	for _, e := range node.Outgoing {
		if keep(e.Kind) && !seen[e.To] {
			seen[e.To] = true
			out = append(out, g.nodes[e.To].Item)
		}
	}
	return sortItems(out)
}

// Orphans returns the items whose kind requires an upstream parent but
// which have no upstream edge to an item of that parent kind.
//
// Description:
//
//	Edges are normalized, so a parent declaring "is_refined_by" counts
//	the same as the child declaring "refines". Solutions and ADRs are
//	never orphans.
//
// Outputs:
//
//	[]*model.Item - Orphans in identifier order.
func (g *KnowledgeGraph) Orphans() []*model.Item {
	var out []*model.Item
	for _, id := range g.ids {
		node := g.nodes[id]
		parentKind, required := node.Item.Kind().RequiredParent()
		if !required {
			continue
		}
		if !g.hasParentOfKind(node, parentKind) {
			out = append(out, node.Item)
		}
	}
	return out
}

func (g *KnowledgeGraph) hasParentOfKind(node *Node, parentKind model.Kind) bool {
	for _, e := range node.Outgoing {
		if !e.Kind.IsUpstream() {
			continue
		}
		if g.nodes[e.To].Item.Kind() == parentKind {
			return true
		}
	}
	return false
}

// HasCycle reports whether the primary edge set (hierarchical and peer
// relationships in their declared direction) contains a cycle.
func (g *KnowledgeGraph) HasCycle() bool {
	return len(g.cycles) > 0
}

// Cycles returns every cycle found during Freeze, ordered by first member.
func (g *KnowledgeGraph) Cycles() []Cycle {
	out := make([]Cycle, len(g.cycles))
	for i, c := range g.cycles {
		out[i] = Cycle{Members: slices.Clone(c.Members), Chain: slices.Clone(c.Chain)}
	}
	return out
}

// Unresolved returns declared references whose targets are missing.
func (g *KnowledgeGraph) Unresolved() []UnresolvedReference {
	return slices.Clone(g.unresolved)
}

// Redundancies returns links declared from both ends, one per pair.
func (g *KnowledgeGraph) Redundancies() []Redundancy {
	return slices.Clone(g.redundancies)
}

// Duplicates returns identifiers that were declared more than once when
// the builder ran with fail-fast disabled.
func (g *KnowledgeGraph) Duplicates() []Duplicate {
	return slices.Clone(g.duplicates)
}

func copyEdges(edges []*Edge) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[i] = *e
	}
	return out
}

func sortItems(items []*model.Item) []*model.Item {
	slices.SortFunc(items, func(a, b *model.Item) int {
		return strings.Compare(a.ID(), b.ID())
	})
	return items
}
