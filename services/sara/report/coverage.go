// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report derives coverage and traceability-matrix views from a
// knowledge graph and renders those views, validation reports, graph
// deltas, and traversal chains as text, JSON, or CSV.
package report

import (
	"fmt"

	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
)

// Reasons attached to incomplete items.
const (
	ReasonNoDownstream = "No downstream items defined"
	ReasonNoUpstream   = "No upstream items defined"
)

// KindCoverage is the coverage of one item kind.
type KindCoverage struct {
	Kind       model.Kind `json:"type"`
	KindName   string     `json:"type_name"`
	Total      int        `json:"total"`
	Complete   int        `json:"complete"`
	Incomplete int        `json:"incomplete"`
	Percent    float64    `json:"coverage_percent"`
}

// IncompleteItem is an item lacking traceability in its expected direction.
type IncompleteItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	KindName string `json:"type"`
	Reason   string `json:"reason"`
}

// Coverage summarizes how much of the graph is traced.
type Coverage struct {
	// Overall is the percentage of complete items; 100 for an empty graph.
	Overall float64 `json:"overall_coverage"`

	// ByKind lists kinds with at least one item, in hierarchy order.
	ByKind []KindCoverage `json:"by_type"`

	// Incomplete lists incomplete items in kind order, then identifier.
	Incomplete []IncompleteItem `json:"incomplete_items"`

	TotalItems    int `json:"total_items"`
	CompleteItems int `json:"complete_items"`
}

// NewCoverage computes the coverage of g.
//
// Description:
//
//	A root item (Solution) is complete when anything refines it. Every
//	other item is complete when it has at least one upstream neighbor,
//	whether the link was declared on the item or on its parent.
func NewCoverage(g *graph.KnowledgeGraph) *Coverage {
	c := &Coverage{
		ByKind:     []KindCoverage{},
		Incomplete: []IncompleteItem{},
	}

	for _, kind := range model.AllKinds() {
		items := g.ItemsByKind(kind)
		if len(items) == 0 {
			continue
		}

		kc := KindCoverage{Kind: kind, KindName: kind.DisplayName(), Total: len(items)}
		for _, item := range items {
			if reason, ok := incompleteReason(g, item); ok {
				kc.Incomplete++
				c.Incomplete = append(c.Incomplete, IncompleteItem{
					ID:       item.ID(),
					Name:     item.Name(),
					KindName: kind.DisplayName(),
					Reason:   reason,
				})
				continue
			}
			kc.Complete++
		}
		kc.Percent = percent(kc.Complete, kc.Total)

		c.ByKind = append(c.ByKind, kc)
		c.TotalItems += kc.Total
		c.CompleteItems += kc.Complete
	}

	c.Overall = percent(c.CompleteItems, c.TotalItems)
	return c
}

func incompleteReason(g *graph.KnowledgeGraph, item *model.Item) (string, bool) {
	if item.Kind().IsRoot() {
		if len(g.Downstream(item.ID())) == 0 {
			return ReasonNoDownstream, true
		}
		return "", false
	}

	if len(g.Upstream(item.ID())) > 0 {
		return "", false
	}
	if parent, ok := item.Kind().RequiredParent(); ok {
		return fmt.Sprintf("Missing parent %s", parent.DisplayName()), true
	}
	return ReasonNoUpstream, true
}

func percent(part, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(part) / float64(total) * 100
}
