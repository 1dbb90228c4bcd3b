// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diff

import (
	"fmt"
	"slices"

	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
)

// Compute returns the structural difference from a to b.
//
// Description:
//
//	Items are matched by identifier. Items present in both graphs are
//	compared field by field and by their normalized outgoing edges.
//	Global relationship changes use primary-direction triples so a link
//	declared from either end counts once. Broken links are compared as
//	(from, to, kind) triples of the unresolved references each build
//	retained.
//
//	Compute(b, a) mirrors Compute(a, b): added and removed sets swap,
//	field changes swap old and new, and newly broken links become
//	repaired links.
//
// Inputs:
//
//	a - The earlier or baseline graph.
//	b - The later graph.
//
// Outputs:
//
//	*GraphDelta - Never nil; IsEmpty when a and b are structurally equal.
//
// Thread Safety:
//
//	Safe for concurrent use; both graphs are only read.
func Compute(a, b *graph.KnowledgeGraph) *GraphDelta {
	d := &GraphDelta{
		AddedItems:           []ItemSummary{},
		RemovedItems:         []ItemSummary{},
		ModifiedItems:        []ItemModification{},
		AddedRelationships:   []RelationshipChange{},
		RemovedRelationships: []RelationshipChange{},
		NewlyBrokenLinks:     []BrokenLink{},
		RepairedLinks:        []BrokenLink{},
	}

	for _, item := range b.Items() {
		if !a.Contains(item.ID()) {
			d.AddedItems = append(d.AddedItems, summarize(item))
		}
	}

	for _, old := range a.Items() {
		updated, ok := b.Get(old.ID())
		if !ok {
			d.RemovedItems = append(d.RemovedItems, summarize(old))
			continue
		}
		if mod, changed := compareItems(a, b, old, updated); changed {
			d.ModifiedItems = append(d.ModifiedItems, mod)
		}
	}

	aRels, bRels := canonicalRelationships(a), canonicalRelationships(b)
	d.AddedRelationships = setDifference(bRels, aRels)
	d.RemovedRelationships = setDifference(aRels, bRels)

	d.NewlyBrokenLinks = brokenDifference(b.Unresolved(), a.Unresolved())
	d.RepairedLinks = brokenDifference(a.Unresolved(), b.Unresolved())

	d.Stats = Stats{
		ItemsAdded:           len(d.AddedItems),
		ItemsRemoved:         len(d.RemovedItems),
		ItemsModified:        len(d.ModifiedItems),
		RelationshipsAdded:   len(d.AddedRelationships),
		RelationshipsRemoved: len(d.RemovedRelationships),
		NewlyBrokenLinks:     len(d.NewlyBrokenLinks),
		RepairedLinks:        len(d.RepairedLinks),
	}
	return d
}

// compareItems diffs one item present in both graphs.
func compareItems(a, b *graph.KnowledgeGraph, old, updated *model.Item) (ItemModification, bool) {
	mod := ItemModification{
		ID:     updated.ID(),
		Before: summarize(old),
		After:  summarize(updated),
	}

	oldSpec, _ := old.Specification()
	newSpec, _ := updated.Specification()
	fields := []FieldChange{
		{"name", old.Name(), updated.Name()},
		{"description", old.Description(), updated.Description()},
		{"specification", oldSpec, newSpec},
		{"file_path", old.Source().FilePath, updated.Source().FilePath},
		{"type", old.Kind().String(), updated.Kind().String()},
	}
	for _, f := range fields {
		if f.Old != f.New {
			mod.Changes = append(mod.Changes, f)
		}
	}

	oldOut := outgoing(a, old.ID())
	newOut := outgoing(b, updated.ID())
	mod.AddedRelationships = setDifference(newOut, oldOut)
	mod.RemovedRelationships = setDifference(oldOut, newOut)

	changed := len(mod.Changes) > 0 || len(mod.AddedRelationships) > 0 || len(mod.RemovedRelationships) > 0
	return mod, changed
}

type relSet map[RelationshipChange]struct{}

func outgoing(g *graph.KnowledgeGraph, id string) relSet {
	out := relSet{}
	for _, e := range g.EdgesFrom(id) {
		out[changeOf(e.Relationship())] = struct{}{}
	}
	return out
}

func canonicalRelationships(g *graph.KnowledgeGraph) relSet {
	out := relSet{}
	for _, e := range g.Edges() {
		out[changeOf(e.Relationship().Canonical())] = struct{}{}
	}
	return out
}

// setDifference returns the sorted members of x that are not in y.
func setDifference(x, y relSet) []RelationshipChange {
	out := []RelationshipChange{}
	for r := range x {
		if _, ok := y[r]; !ok {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, compareChanges)
	return out
}

// brokenDifference returns the unresolved references of x whose triple
// does not appear among the unresolved references of y.
func brokenDifference(x, y []graph.UnresolvedReference) []BrokenLink {
	seen := make(map[model.Relationship]bool, len(y))
	for _, u := range y {
		seen[u.Relationship()] = true
	}

	out := []BrokenLink{}
	emitted := make(map[model.Relationship]bool)
	for _, u := range x {
		rel := u.Relationship()
		if seen[rel] || emitted[rel] {
			continue
		}
		emitted[rel] = true
		out = append(out, brokenLinkOf(u))
	}
	slices.SortFunc(out, func(p, q BrokenLink) int {
		return compareChanges(
			RelationshipChange{From: p.From, To: p.To, Kind: p.Kind},
			RelationshipChange{From: q.From, To: q.To, Kind: q.Kind},
		)
	})
	return out
}

// Summary renders counts as "+2 -1 ~3 items, +4 -0 relationships, 1 newly broken".
func (d *GraphDelta) Summary() string {
	return fmt.Sprintf("+%d -%d ~%d items, +%d -%d relationships, %d newly broken",
		d.Stats.ItemsAdded, d.Stats.ItemsRemoved, d.Stats.ItemsModified,
		d.Stats.RelationshipsAdded, d.Stats.RelationshipsRemoved,
		d.Stats.NewlyBrokenLinks)
}
