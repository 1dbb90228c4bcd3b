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

import "github.com/AleutianAI/sara/services/sara/model"

// Stats summarizes a built graph.
type Stats struct {
	ItemCount       int                            `json:"item_count"`
	EdgeCount       int                            `json:"edge_count"`
	ItemsByKind     map[model.Kind]int             `json:"items_by_kind"`
	EdgesByKind     map[model.RelationshipKind]int `json:"edges_by_kind"`
	OrphanCount     int                            `json:"orphan_count"`
	UnresolvedCount int                            `json:"unresolved_count"`
	RedundantCount  int                            `json:"redundant_count"`
	CycleCount      int                            `json:"cycle_count"`
}

// Stats returns counts over the frozen graph. Kinds with no items are
// omitted from the per-kind maps.
func (g *KnowledgeGraph) Stats() Stats {
	s := Stats{
		ItemCount:       len(g.nodes),
		EdgeCount:       len(g.edges),
		ItemsByKind:     make(map[model.Kind]int),
		EdgesByKind:     make(map[model.RelationshipKind]int),
		OrphanCount:     len(g.Orphans()),
		UnresolvedCount: len(g.unresolved),
		RedundantCount:  len(g.redundancies),
		CycleCount:      len(g.cycles),
	}
	for k, nodes := range g.nodesByKind {
		if len(nodes) > 0 {
			s.ItemsByKind[model.Kind(k)] = len(nodes)
		}
	}
	for k, edges := range g.edgesByKind {
		if len(edges) > 0 {
			s.EdgesByKind[model.RelationshipKind(k)] = len(edges)
		}
	}
	return s
}
