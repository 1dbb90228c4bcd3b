// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package traverse

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
)

var tracer = otel.Tracer("sara.traverse")

// Direction selects which relationship class a traversal follows.
type Direction int

const (
	// Upstream walks toward root and justification kinds.
	Upstream Direction = iota

	// Downstream walks toward leaf and detailed-design kinds.
	Downstream
)

// String returns "upstream" or "downstream".
func (d Direction) String() string {
	switch d {
	case Upstream:
		return "upstream"
	case Downstream:
		return "downstream"
	default:
		return "unknown"
	}
}

// ParseDirection accepts "upstream"/"up" and "downstream"/"down".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "upstream", "up":
		return Upstream, nil
	case "downstream", "down":
		return Downstream, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

func (d Direction) follows(kind model.RelationshipKind) bool {
	if d == Upstream {
		return kind.IsUpstream()
	}
	return kind.IsDownstream()
}

// Options configures a traversal.
type Options struct {
	// MaxDepth limits hops from the origin. Negative means unbounded.
	MaxDepth int

	// Kinds restricts which items appear in the result. Items of other
	// kinds are still walked through. Empty means all kinds.
	Kinds []model.Kind

	// Limit caps the number of result entries, origin included.
	// Zero or negative means no cap.
	Limit int
}

// Option is a functional option for Traverse.
type Option func(*Options)

// WithMaxDepth limits the traversal to n hops. A negative n is unbounded.
func WithMaxDepth(n int) Option {
	return func(o *Options) {
		o.MaxDepth = n
	}
}

// WithKinds restricts the returned items to the given kinds.
func WithKinds(kinds ...model.Kind) Option {
	return func(o *Options) {
		o.Kinds = append(o.Kinds, kinds...)
	}
}

// WithLimit caps the number of returned entries.
func WithLimit(n int) Option {
	return func(o *Options) {
		o.Limit = n
	}
}

// Entry is one item reached by a traversal.
type Entry struct {
	// Item is the reached item.
	Item *model.Item `json:"-"`

	// ID is Item.ID(), duplicated for serialization.
	ID string `json:"id"`

	// Depth is the number of hops from the origin.
	Depth int `json:"depth"`

	// Via is the relationship kind of the edge that reached this item.
	// RelUnknown for the origin.
	Via model.RelationshipKind `json:"via,omitempty"`

	// Parent is the nearest ancestor on the walk that is itself in the
	// result. Empty for the origin.
	Parent string `json:"parent,omitempty"`
}

// Chain is the result of a traversal.
type Chain struct {
	// Origin is the starting identifier.
	Origin string `json:"origin"`

	// Direction is the walk direction.
	Direction Direction `json:"-"`

	// Entries lists reached items in breadth-first order. The origin is
	// always first.
	Entries []Entry `json:"entries"`

	// MaxDepth is the deepest depth among Entries.
	MaxDepth int `json:"max_depth"`

	// Truncated is true when Limit cut the result short.
	Truncated bool `json:"truncated,omitempty"`
}

// Len returns the number of entries.
func (c *Chain) Len() int {
	return len(c.Entries)
}

// IDs returns the entry identifiers in chain order.
func (c *Chain) IDs() []string {
	out := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.ID
	}
	return out
}

// ChildrenOf returns the entries whose Parent is id, in chain order.
func (c *Chain) ChildrenOf(id string) []Entry {
	var out []Entry
	for _, e := range c.Entries {
		if e.Parent == id && e.ID != c.Origin {
			out = append(out, e)
		}
	}
	return out
}

// queued is a BFS frontier entry.
type queued struct {
	id     string
	depth  int
	via    model.RelationshipKind
	parent string
}

// Traverse walks from start in the given direction.
//
// Description:
//
//	Breadth-first over the normalized edge set. Upstream follows outgoing
//	upstream-class edges; Downstream follows outgoing downstream-class
//	edges, which include the inverses of children's upstream
//	declarations. Each item is visited once, so cyclic graphs terminate.
//	Neighbors are expanded in identifier order.
//
// Inputs:
//
//	ctx - Checked once per BFS level.
//	g - A frozen knowledge graph.
//	start - Origin identifier.
//	direction - Upstream or Downstream.
//	opts - WithMaxDepth, WithKinds, WithLimit.
//
// Outputs:
//
//	*Chain - The origin followed by reached items.
//	error - *NotFoundError if start is unknown; ctx.Err() if cancelled.
func Traverse(ctx context.Context, g *graph.KnowledgeGraph, start string, direction Direction, opts ...Option) (*Chain, error) {
	if direction != Upstream && direction != Downstream {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, direction)
	}

	ctx, span := tracer.Start(ctx, "traverse.Traverse",
		trace.WithAttributes(
			attribute.String("traverse.start", start),
			attribute.String("traverse.direction", direction.String()),
		),
	)
	defer span.End()

	origin, err := LookupOrSuggest(g, start)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	options := Options{MaxDepth: -1}
	for _, opt := range opts {
		opt(&options)
	}

	chain := &Chain{
		Origin:    origin.ID(),
		Direction: direction,
		Entries:   []Entry{{Item: origin, ID: origin.ID()}},
	}

	visited := map[string]bool{origin.ID(): true}
	frontier := []queued{{id: origin.ID(), depth: 0}}
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var next []queued
		for _, cur := range frontier {
			if cur.depth > 0 {
				item, _ := g.Get(cur.id)
				if options.accepts(item.Kind()) {
					if options.Limit > 0 && len(chain.Entries) >= options.Limit {
						chain.Truncated = true
						return chain, nil
					}
					chain.Entries = append(chain.Entries, Entry{
						Item:   item,
						ID:     cur.id,
						Depth:  cur.depth,
						Via:    cur.via,
						Parent: cur.parent,
					})
					chain.MaxDepth = max(chain.MaxDepth, cur.depth)
				}
			}

			if options.MaxDepth >= 0 && cur.depth+1 > options.MaxDepth {
				continue
			}

			displayParent := cur.parent
			if cur.depth == 0 || options.acceptsID(g, cur.id) {
				displayParent = cur.id
			}
			for _, e := range sortedEdges(g.EdgesFrom(cur.id)) {
				if !direction.follows(e.Kind) || visited[e.To] {
					continue
				}
				visited[e.To] = true
				next = append(next, queued{id: e.To, depth: cur.depth + 1, via: e.Kind, parent: displayParent})
			}
		}
		frontier = next
	}

	return chain, nil
}

// UpstreamOf walks from id toward its roots.
func UpstreamOf(ctx context.Context, g *graph.KnowledgeGraph, id string, opts ...Option) (*Chain, error) {
	return Traverse(ctx, g, id, Upstream, opts...)
}

// DownstreamOf walks from id toward its leaves.
func DownstreamOf(ctx context.Context, g *graph.KnowledgeGraph, id string, opts ...Option) (*Chain, error) {
	return Traverse(ctx, g, id, Downstream, opts...)
}

func (o *Options) accepts(kind model.Kind) bool {
	return len(o.Kinds) == 0 || slices.Contains(o.Kinds, kind)
}

func (o *Options) acceptsID(g *graph.KnowledgeGraph, id string) bool {
	item, ok := g.Get(id)
	return ok && o.accepts(item.Kind())
}

func sortedEdges(edges []graph.Edge) []graph.Edge {
	slices.SortFunc(edges, func(a, b graph.Edge) int {
		if c := strings.Compare(a.To, b.To); c != 0 {
			return c
		}
		return int(a.Kind) - int(b.Kind)
	})
	return edges
}
