// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diff compares two independently built knowledge graphs.
//
// Compute is a pure function of its two graphs. It never touches the
// sources the graphs were built from, so snapshots read from different
// git revisions can be compared after the repositories are gone.
package diff

import (
	"cmp"
	"strings"

	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
)

// ItemSummary identifies an added or removed item.
type ItemSummary struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Kind     model.Kind `json:"type"`
	FilePath string     `json:"file_path"`
}

func summarize(item *model.Item) ItemSummary {
	return ItemSummary{
		ID:       item.ID(),
		Name:     item.Name(),
		Kind:     item.Kind(),
		FilePath: item.Source().FilePath,
	}
}

// FieldChange is one changed scalar field of an item present in both graphs.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// RelationshipChange is a relationship triple present on one side only.
type RelationshipChange struct {
	From string                 `json:"from"`
	To   string                 `json:"to"`
	Kind model.RelationshipKind `json:"type"`
}

// String renders "FROM -kind-> TO".
func (r RelationshipChange) String() string {
	return model.Relationship{From: r.From, To: r.To, Kind: r.Kind}.String()
}

func changeOf(r model.Relationship) RelationshipChange {
	return RelationshipChange{From: r.From, To: r.To, Kind: r.Kind}
}

func compareChanges(a, b RelationshipChange) int {
	return cmp.Or(
		strings.Compare(a.From, b.From),
		strings.Compare(a.To, b.To),
		cmp.Compare(a.Kind, b.Kind),
	)
}

// ItemModification describes an item whose fields or outgoing
// relationships differ between the two graphs.
type ItemModification struct {
	ID string `json:"id"`

	// Before and After summarize the item in the first and second graph.
	Before ItemSummary `json:"before"`
	After  ItemSummary `json:"after"`

	// Changes lists changed fields in a fixed order: name, description,
	// specification, file_path, type.
	Changes []FieldChange `json:"changes,omitempty"`

	// AddedRelationships are outgoing edges present only in the second graph.
	AddedRelationships []RelationshipChange `json:"added_relationships,omitempty"`

	// RemovedRelationships are outgoing edges present only in the first graph.
	RemovedRelationships []RelationshipChange `json:"removed_relationships,omitempty"`
}

// BrokenLink is a declared relationship whose target does not resolve.
type BrokenLink struct {
	From     string                 `json:"from"`
	To       string                 `json:"to"`
	Kind     model.RelationshipKind `json:"type"`
	Location model.SourceLocation   `json:"location"`
}

func brokenLinkOf(u graph.UnresolvedReference) BrokenLink {
	return BrokenLink{From: u.From, To: u.To, Kind: u.Kind, Location: u.Location}
}

// Stats counts the entries of a GraphDelta.
type Stats struct {
	ItemsAdded           int `json:"items_added"`
	ItemsRemoved         int `json:"items_removed"`
	ItemsModified        int `json:"items_modified"`
	RelationshipsAdded   int `json:"relationships_added"`
	RelationshipsRemoved int `json:"relationships_removed"`
	NewlyBrokenLinks     int `json:"newly_broken_links"`
	RepairedLinks        int `json:"repaired_links"`
}

// GraphDelta is the structural difference from graph a to graph b.
//
// Every slice is sorted by identifier so two deltas of the same inputs
// compare equal.
type GraphDelta struct {
	// AddedItems are present in b and absent in a.
	AddedItems []ItemSummary `json:"added_items"`

	// RemovedItems are present in a and absent in b.
	RemovedItems []ItemSummary `json:"removed_items"`

	// ModifiedItems are present in both with differing fields or
	// outgoing relationships.
	ModifiedItems []ItemModification `json:"modified_items"`

	// AddedRelationships are primary-direction triples only in b.
	AddedRelationships []RelationshipChange `json:"added_relationships"`

	// RemovedRelationships are primary-direction triples only in a.
	RemovedRelationships []RelationshipChange `json:"removed_relationships"`

	// NewlyBrokenLinks are unresolved in b but were not unresolved in a.
	NewlyBrokenLinks []BrokenLink `json:"newly_broken_links"`

	// RepairedLinks were unresolved in a and are not unresolved in b.
	RepairedLinks []BrokenLink `json:"repaired_links"`

	Stats Stats `json:"stats"`
}

// IsEmpty reports whether the two graphs are structurally identical.
func (d *GraphDelta) IsEmpty() bool {
	return len(d.AddedItems) == 0 &&
		len(d.RemovedItems) == 0 &&
		len(d.ModifiedItems) == 0 &&
		len(d.AddedRelationships) == 0 &&
		len(d.RemovedRelationships) == 0 &&
		len(d.NewlyBrokenLinks) == 0 &&
		len(d.RepairedLinks) == 0
}
