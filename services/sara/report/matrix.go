// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"cmp"
	"slices"
	"strings"

	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
)

// MatrixTarget is one related item in a matrix row.
type MatrixTarget struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	KindName     string `json:"target_type"`
	Relationship string `json:"relationship"`
}

// MatrixRow lists the hierarchical neighbors of one item.
type MatrixRow struct {
	SourceID   string         `json:"source_id"`
	SourceName string         `json:"source_name"`
	SourceKind string         `json:"source_type"`
	Targets    []MatrixTarget `json:"targets"`
}

// Matrix is the traceability matrix of a graph.
type Matrix struct {
	Rows               []MatrixRow `json:"rows"`
	Columns            []string    `json:"columns"`
	TotalRelationships int         `json:"total_relationships"`
}

// NewMatrix builds the traceability matrix of g.
//
// Rows are ordered by kind hierarchy, then identifier. Each row lists
// upstream targets before downstream ones; peer links are omitted.
func NewMatrix(g *graph.KnowledgeGraph) *Matrix {
	m := &Matrix{Rows: []MatrixRow{}}
	for _, kind := range model.AllKinds() {
		m.Columns = append(m.Columns, kind.DisplayName())
	}

	for _, kind := range model.AllKinds() {
		for _, item := range g.ItemsByKind(kind) {
			row := MatrixRow{
				SourceID:   item.ID(),
				SourceName: item.Name(),
				SourceKind: kind.DisplayName(),
				Targets:    matrixTargets(g, item.ID()),
			}
			m.TotalRelationships += len(row.Targets)
			m.Rows = append(m.Rows, row)
		}
	}
	return m
}

func matrixTargets(g *graph.KnowledgeGraph, id string) []MatrixTarget {
	edges := slices.DeleteFunc(g.EdgesFrom(id), func(e graph.Edge) bool {
		return e.Kind.IsPeer()
	})
	slices.SortFunc(edges, func(a, b graph.Edge) int {
		return cmp.Or(
			cmp.Compare(directionRank(a.Kind), directionRank(b.Kind)),
			cmp.Compare(a.Kind, b.Kind),
			strings.Compare(a.To, b.To),
		)
	})

	out := make([]MatrixTarget, 0, len(edges))
	for _, e := range edges {
		target, ok := g.Get(e.To)
		if !ok {
			continue
		}
		out = append(out, MatrixTarget{
			ID:           target.ID(),
			Name:         target.Name(),
			KindName:     target.Kind().DisplayName(),
			Relationship: e.Kind.FieldName(),
		})
	}
	return out
}

func directionRank(k model.RelationshipKind) int {
	if k.IsUpstream() {
		return 0
	}
	return 1
}
