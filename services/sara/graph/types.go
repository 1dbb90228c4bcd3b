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
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/AleutianAI/sara/services/sara/model"
)

// GraphState represents the lifecycle state of the graph.
type GraphState int

const (
	// GraphStateBuilding indicates the builder is still adding nodes and edges.
	GraphStateBuilding GraphState = iota

	// GraphStateReadOnly indicates the graph is frozen and read-only.
	GraphStateReadOnly
)

// String returns the string representation of the GraphState.
func (s GraphState) String() string {
	switch s {
	case GraphStateBuilding:
		return "building"
	case GraphStateReadOnly:
		return "readonly"
	default:
		return "unknown"
	}
}

// Edge is a directed, typed relationship between two items in the graph.
//
// Both endpoints of an edge always exist in the graph.
type Edge struct {
	// From is the source item identifier.
	From string

	// To is the target item identifier.
	To string

	// Kind is the relationship kind.
	Kind model.RelationshipKind

	// Declared is true when the source item wrote this relationship itself.
	// Inferred inverse edges have Declared false.
	Declared bool
}

// Relationship returns the edge as a model relationship.
func (e Edge) Relationship() model.Relationship {
	return model.Relationship{From: e.From, To: e.To, Kind: e.Kind}
}

// Node is an item together with its normalized edges.
type Node struct {
	// Item is the immutable item.
	Item *model.Item

	// Outgoing contains edges where this node is the source.
	Outgoing []*Edge

	// Incoming contains edges where this node is the target.
	Incoming []*Edge
}

// UnresolvedReference is a declared relationship whose target identifier
// is not in the graph.
type UnresolvedReference struct {
	// From is the declaring item.
	From string

	// To is the identifier that failed to resolve.
	To string

	// Kind is the declared relationship kind.
	Kind model.RelationshipKind

	// Location is where From was declared.
	Location model.SourceLocation
}

// Relationship returns the reference as a model relationship.
func (u UnresolvedReference) Relationship() model.Relationship {
	return model.Relationship{From: u.From, To: u.To, Kind: u.Kind}
}

// Redundancy records a link declared from both ends.
type Redundancy struct {
	// Link is the primary-direction form of the relationship.
	Link model.Relationship

	// FromLocation is where Link.From is declared.
	FromLocation model.SourceLocation

	// ToLocation is where Link.To is declared.
	ToLocation model.SourceLocation
}

// Duplicate records an identifier declared more than once. Only populated
// when the builder runs with fail-fast disabled.
type Duplicate struct {
	ID     string
	First  model.SourceLocation
	Second model.SourceLocation
}

// Cycle is one strongly connected component of the primary edge set.
type Cycle struct {
	// Members lists the identifiers in the component, sorted.
	Members []string

	// Chain is a closed walk through the component starting and ending at
	// the smallest member, e.g. [A, B, C, A].
	Chain []string
}

// String renders the chain as "A -> B -> A".
func (c Cycle) String() string {
	return strings.Join(c.Chain, " -> ")
}

type edgeKey struct {
	from string
	to   string
	kind model.RelationshipKind
}

// KnowledgeGraph is the built, queryable traceability graph.
//
// Thread Safety:
//
//	KnowledgeGraph is NOT safe for concurrent use while the Builder is
//	populating it. Build returns it frozen; after that every method is
//	read-only and safe for concurrent readers.
type KnowledgeGraph struct {
	// nodes maps identifier to node. Unexported to prevent direct access.
	nodes map[string]*Node

	// ids holds every identifier in sorted order after Freeze.
	ids []string

	// edges contains all edges in insertion order.
	edges []*Edge

	// edgeIndex makes edge insertion idempotent.
	edgeIndex map[edgeKey]*Edge

	// nodesByKind is a secondary index sorted by identifier after Freeze.
	nodesByKind [model.NumKinds][]*Node

	// edgesByKind is a secondary index for per-relationship statistics.
	edgesByKind [model.NumRelationshipKinds][]*Edge

	unresolved   []UnresolvedReference
	redundancies []Redundancy
	duplicates   []Duplicate

	// cycles is computed once during Freeze.
	cycles []Cycle

	state GraphState

	// BuiltAtMilli is the Unix timestamp in milliseconds when Freeze() was called.
	BuiltAtMilli int64
}

func newKnowledgeGraph(capacity int) *KnowledgeGraph {
	return &KnowledgeGraph{
		nodes:     make(map[string]*Node, capacity),
		edges:     make([]*Edge, 0, capacity*2),
		edgeIndex: make(map[edgeKey]*Edge, capacity*2),
		state:     GraphStateBuilding,
	}
}

// State returns the current lifecycle state of the graph.
func (g *KnowledgeGraph) State() GraphState {
	return g.state
}

// addNode registers an item.
//
// Errors:
//
//	ErrGraphFrozen - Graph has been frozen
//	ErrDuplicateIdentifier - An item with the same ID exists
func (g *KnowledgeGraph) addNode(item *model.Item) (*Node, error) {
	if g.state == GraphStateReadOnly {
		return nil, ErrGraphFrozen
	}
	if _, exists := g.nodes[item.ID()]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentifier, item.ID())
	}

	node := &Node{Item: item}
	g.nodes[item.ID()] = node
	g.nodesByKind[item.Kind()] = append(g.nodesByKind[item.Kind()], node)
	return node, nil
}

// addEdge inserts an edge unless the same (from, to, kind) already exists.
// A repeated insertion only upgrades Declared.
func (g *KnowledgeGraph) addEdge(from, to string, kind model.RelationshipKind, declared bool) error {
	if g.state == GraphStateReadOnly {
		return ErrGraphFrozen
	}

	key := edgeKey{from: from, to: to, kind: kind}
	if existing, ok := g.edgeIndex[key]; ok {
		existing.Declared = existing.Declared || declared
		return nil
	}

	fromNode, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("%w: source %s", ErrNodeNotFound, from)
	}
	toNode, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("%w: target %s", ErrNodeNotFound, to)
	}

	edge := &Edge{From: from, To: to, Kind: kind, Declared: declared}
	g.edgeIndex[key] = edge
	g.edges = append(g.edges, edge)
	fromNode.Outgoing = append(fromNode.Outgoing, edge)
	toNode.Incoming = append(toNode.Incoming, edge)
	if kind.Valid() {
		g.edgesByKind[kind] = append(g.edgesByKind[kind], edge)
	}
	return nil
}

// freeze sorts the secondary indexes, computes cycles and transitions the
// graph to read-only mode. Irreversible.
func (g *KnowledgeGraph) freeze() {
	g.ids = make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		g.ids = append(g.ids, id)
	}
	slices.Sort(g.ids)

	for k := range g.nodesByKind {
		slices.SortFunc(g.nodesByKind[k], func(a, b *Node) int {
			return strings.Compare(a.Item.ID(), b.Item.ID())
		})
	}

	g.cycles = g.findCycles()
	g.state = GraphStateReadOnly
	g.BuiltAtMilli = time.Now().UnixMilli()
}

// hasEdge reports whether from -kind-> to exists.
func (g *KnowledgeGraph) hasEdge(from, to string, kind model.RelationshipKind) (*Edge, bool) {
	e, ok := g.edgeIndex[edgeKey{from: from, to: to, kind: kind}]
	return e, ok
}
