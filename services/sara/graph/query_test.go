// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sara/services/sara/graph/graphtest"
	"github.com/AleutianAI/sara/services/sara/model"
)

func TestKnowledgeGraph_Orphans(t *testing.T) {
	g := graphtest.MustBuild(t,
		graphtest.Rec("SOL-1", "solution"),
		graphtest.Rec("ADR-1", "architecture_decision_record"),
		graphtest.Rec("UC-1", "use_case").Rel("refines", "SOL-1"),
		graphtest.Rec("UC-2", "use_case"),
		// parent-side declaration counts for the child
		graphtest.Rec("SCEN-1", "scenario"),
		graphtest.Rec("UC-3", "use_case").Rel("refines", "SOL-1").Rel("is_refined_by", "SCEN-1"),
		// wrong parent kind does not count
		graphtest.Rec("SCEN-2", "scenario").Rel("refines", "SOL-1"),
		// broken parent reference leaves the item orphaned
		graphtest.Rec("SCEN-3", "scenario").Rel("refines", "UC-404"),
	)

	assert.Equal(t, []string{"SCEN-2", "SCEN-3", "UC-2"}, itemIDs(g.Orphans()))
}

func TestKnowledgeGraph_ItemsByKindSorted(t *testing.T) {
	g := graphtest.MustBuild(t,
		graphtest.Rec("UC-b", "use_case"),
		graphtest.Rec("UC-a", "use_case"),
		graphtest.Rec("SOL-1", "solution"),
	)

	assert.Equal(t, []string{"UC-a", "UC-b"}, itemIDs(g.ItemsByKind(model.KindUseCase)))
	assert.Empty(t, g.ItemsByKind(model.KindScenario))
	assert.Nil(t, g.ItemsByKind(model.NumKinds))
	assert.Equal(t, []string{"SOL-1", "UC-a", "UC-b"}, g.IDs())

	_, ok := g.Get("UC-c")
	assert.False(t, ok)
	assert.Nil(t, g.Children("UC-c", model.RelRefines))
}

func TestKnowledgeGraph_Stats(t *testing.T) {
	g := graphtest.MustBuild(t,
		graphtest.Rec("SOL-1", "solution"),
		graphtest.Rec("UC-1", "use_case").Rel("refines", "SOL-1"),
		graphtest.Rec("UC-2", "use_case").Rel("refines", "SOL-2"),
	)

	stats := g.Stats()
	assert.Equal(t, 3, stats.ItemCount)
	assert.Equal(t, 2, stats.EdgeCount)
	assert.Equal(t, map[model.Kind]int{model.KindSolution: 1, model.KindUseCase: 2}, stats.ItemsByKind)
	assert.Equal(t, map[model.RelationshipKind]int{model.RelRefines: 1, model.RelIsRefinedBy: 1}, stats.EdgesByKind)
	assert.Equal(t, 1, stats.OrphanCount)
	assert.Equal(t, 1, stats.UnresolvedCount)
	assert.Equal(t, 0, stats.CycleCount)
}

func TestKnowledgeGraph_ConcurrentReaders(t *testing.T) {
	g := graphtest.MustBuild(t,
		graphtest.Rec("SOL-1", "solution"),
		graphtest.Rec("UC-1", "use_case").Rel("refines", "SOL-1"),
		graphtest.Rec("SCEN-1", "scenario").Rel("refines", "UC-1"),
	)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Orphans()
			_ = g.Children("SOL-1", model.RelIsRefinedBy)
			_ = g.Cycles()
			_ = g.Stats()
		}()
	}
	wg.Wait()

	item, ok := g.Get("SCEN-1")
	require.True(t, ok)
	assert.Equal(t, "SCEN-1 (Scenario)", item.String())
}
