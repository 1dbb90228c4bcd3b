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
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/graph/graphtest"
	"github.com/AleutianAI/sara/services/sara/model"
)

func itemIDs(items []*model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID()
	}
	return out
}

func edgeSet(g *graph.KnowledgeGraph) map[string]bool {
	out := map[string]bool{}
	for _, e := range g.Edges() {
		out[e.Relationship().String()] = true
	}
	return out
}

func TestBuilder_Build_SimpleRefinement(t *testing.T) {
	g := graphtest.MustBuild(t,
		graphtest.Rec("SOL-1", "solution"),
		graphtest.Rec("UC-1", "use_case").Rel("refines", "SOL-1"),
	)

	assert.Equal(t, graph.GraphStateReadOnly, g.State())
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 2, g.EdgeCount())

	assert.Equal(t, []string{"UC-1"}, itemIDs(g.Children("SOL-1", model.RelIsRefinedBy)))
	assert.Equal(t, []string{"UC-1"}, itemIDs(g.Parents("SOL-1", model.RelRefines)))
	assert.Equal(t, []string{"SOL-1"}, itemIDs(g.Children("UC-1", model.RelRefines)))
	assert.Empty(t, g.Orphans())
	assert.False(t, g.HasCycle())

	item, ok := g.Get("UC-1")
	require.True(t, ok)
	assert.Equal(t, model.KindUseCase, item.Kind())
}

func TestBuilder_Build_BrokenReferenceIsRetained(t *testing.T) {
	result, err := graph.NewBuilder().Build(context.Background(), graphtest.Records(
		graphtest.Rec("UC-2", "use_case").Rel("refines", "SOL-999"),
	))
	require.NoError(t, err)

	g := result.Graph
	assert.Equal(t, 0, g.EdgeCount())
	unresolved := g.Unresolved()
	require.Len(t, unresolved, 1)
	assert.Equal(t, "UC-2", unresolved[0].From)
	assert.Equal(t, "SOL-999", unresolved[0].To)
	assert.Equal(t, model.RelRefines, unresolved[0].Kind)
	assert.Equal(t, "UC-2.md", unresolved[0].Location.FilePath)

	assert.Equal(t, 1, result.Stats.UnresolvedReferences)
	assert.Equal(t, 1, result.Stats.DeclaredRelationships)
	assert.True(t, result.HasFindings())
}

func TestBuilder_Build_DuplicateIdentifier(t *testing.T) {
	a := graphtest.Rec("UC-3", "use_case").At("repo-a", "docs/uc3.md")
	b := graphtest.Rec("UC-3", "use_case").At("repo-b", "other/uc3.md")

	for _, order := range [][]*graphtest.RecordBuilder{{a, b}, {b, a}} {
		result, err := graph.NewBuilder().Build(context.Background(), graphtest.Records(order...))
		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, graph.ErrDuplicateIdentifier))

		var dupErr *graph.DuplicateIdentifierError
		require.True(t, errors.As(err, &dupErr))
		assert.Equal(t, "UC-3", dupErr.ID)
		assert.ElementsMatch(t,
			[]string{"docs/uc3.md", "other/uc3.md"},
			[]string{dupErr.First.FilePath, dupErr.Second.FilePath})
		assert.Contains(t, err.Error(), "repo-a")
		assert.Contains(t, err.Error(), "repo-b")
	}
}

func TestBuilder_Build_DuplicateExcludedWhenNotFailFast(t *testing.T) {
	result, err := graph.NewBuilder(graph.WithFailOnDuplicate(false)).Build(context.Background(), graphtest.Records(
		graphtest.Rec("SOL-1", "solution").Name("first"),
		graphtest.Rec("SOL-1", "solution").Name("second").At("repo", "dup.md"),
		graphtest.Rec("UC-1", "use_case").Rel("refines", "SOL-1"),
	))
	require.NoError(t, err)

	g := result.Graph
	item, ok := g.Get("SOL-1")
	require.True(t, ok)
	assert.Equal(t, "first", item.Name())

	dups := g.Duplicates()
	require.Len(t, dups, 1)
	assert.Equal(t, "dup.md", dups[0].Second.FilePath)
	assert.Equal(t, 1, result.Stats.DuplicatesSkipped)
	assert.Equal(t, []string{"UC-1"}, itemIDs(g.Children("SOL-1", model.RelIsRefinedBy)))
}

func TestBuilder_Build_MixedKindCycle(t *testing.T) {
	g := graphtest.MustBuild(t,
		graphtest.Rec("REQ-A", "system_requirement").Rel("derives_from", "REQ-B"),
		graphtest.Rec("REQ-B", "system_requirement").Rel("depends_on", "REQ-A"),
	)

	require.True(t, g.HasCycle())
	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"REQ-A", "REQ-B"}, cycles[0].Members)
	assert.Equal(t, []string{"REQ-A", "REQ-B", "REQ-A"}, cycles[0].Chain)
	assert.Equal(t, "REQ-A -> REQ-B -> REQ-A", cycles[0].String())
}

func TestBuilder_Build_ThreeNodeCycle(t *testing.T) {
	g := graphtest.MustBuild(t,
		graphtest.Rec("SWREQ-A", "software_requirement").Rel("depends_on", "SWREQ-B"),
		graphtest.Rec("SWREQ-B", "software_requirement").Rel("depends_on", "SWREQ-C"),
		graphtest.Rec("SWREQ-C", "software_requirement").Rel("depends_on", "SWREQ-A"),
	)

	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"SWREQ-A", "SWREQ-B", "SWREQ-C", "SWREQ-A"}, cycles[0].Chain)
}

func TestBuilder_Build_SelfLoopIsCycle(t *testing.T) {
	g := graphtest.MustBuild(t,
		graphtest.Rec("SYSREQ-1", "system_requirement").Rel("depends_on", "SYSREQ-1"),
	)
	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"SYSREQ-1", "SYSREQ-1"}, cycles[0].Chain)
}

func TestBuilder_Build_BidirectionalDeclarationIsNotACycle(t *testing.T) {
	g := graphtest.MustBuild(t,
		graphtest.Rec("SOL-1", "solution").Rel("is_refined_by", "UC-1"),
		graphtest.Rec("UC-1", "use_case").Rel("refines", "SOL-1"),
	)
	assert.False(t, g.HasCycle())
}

func TestBuilder_Build_InverseQueryable(t *testing.T) {
	type triple struct {
		from model.Kind
		rel  model.RelationshipKind
		to   model.Kind
	}
	var triples []triple
	for _, from := range model.AllKinds() {
		for _, rel := range model.AllRelationshipKinds() {
			if !rel.IsPrimary() {
				continue
			}
			for _, to := range model.ValidTargets(from, rel) {
				triples = append(triples, triple{from, rel, to})
			}
		}
	}
	require.NotEmpty(t, triples)

	for _, tt := range triples {
		t.Run(fmt.Sprintf("%s %s %s", tt.from, tt.rel, tt.to), func(t *testing.T) {
			fromID := tt.from.Prefix() + "-1"
			toID := tt.to.Prefix() + "-2"
			g := graphtest.MustBuild(t,
				graphtest.Rec(fromID, tt.from.String()).Rel(tt.rel.String(), toID),
				graphtest.Rec(toID, tt.to.String()),
			)
			backward := tt.rel.Inverse()

			assert.Equal(t, []string{toID}, itemIDs(g.Children(fromID, tt.rel)))
			assert.Equal(t, []string{fromID}, itemIDs(g.Parents(toID, tt.rel)))
			assert.Equal(t, []string{fromID}, itemIDs(g.Children(toID, backward)))
			assert.Equal(t, []string{toID}, itemIDs(g.Parents(fromID, backward)))

			for _, e := range g.EdgesFrom(fromID) {
				assert.True(t, e.Declared)
			}
			for _, e := range g.EdgesFrom(toID) {
				assert.False(t, e.Declared)
			}
		})
	}
}

func TestBuilder_Build_RedundantDeclaration(t *testing.T) {
	single := graphtest.MustBuild(t,
		graphtest.Rec("SOL-1", "solution"),
		graphtest.Rec("UC-1", "use_case").Rel("refines", "SOL-1"),
	)
	both := graphtest.MustBuild(t,
		graphtest.Rec("SOL-1", "solution").Rel("is_refined_by", "UC-1"),
		graphtest.Rec("UC-1", "use_case").Rel("refines", "SOL-1"),
	)

	assert.Empty(t, single.Redundancies())
	redundancies := both.Redundancies()
	require.Len(t, redundancies, 1)
	assert.Equal(t, model.Relationship{From: "UC-1", To: "SOL-1", Kind: model.RelRefines}, redundancies[0].Link)
	assert.Equal(t, "UC-1.md", redundancies[0].FromLocation.FilePath)
	assert.Equal(t, "SOL-1.md", redundancies[0].ToLocation.FilePath)

	assert.Equal(t, edgeSet(single), edgeSet(both))
}

func TestBuilder_Build_Idempotent(t *testing.T) {
	records := graphtest.Records(
		graphtest.Rec("SOL-1", "solution"),
		graphtest.Rec("UC-1", "use_case").Rel("refines", "SOL-1"),
		graphtest.Rec("SCEN-1", "scenario").Rel("refines", "UC-1"),
		graphtest.Rec("SYSREQ-1", "system_requirement").Rel("derives_from", "SCEN-1", "SCEN-404"),
	)

	g1, err := graph.Build(context.Background(), records)
	require.NoError(t, err)
	g2, err := graph.Build(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, g1.IDs(), g2.IDs())
	assert.Equal(t, edgeSet(g1), edgeSet(g2))
	assert.Equal(t, g1.Unresolved(), g2.Unresolved())
}

func TestBuilder_Build_CrossContainerResolution(t *testing.T) {
	g := graphtest.MustBuild(t,
		graphtest.Rec("SOL-1", "solution").At("product-docs", "sol.md"),
		graphtest.Rec("UC-1", "use_case").At("team-docs", "uc.md").Rel("refines", "SOL-1"),
	)
	assert.Equal(t, []string{"SOL-1"}, itemIDs(g.Upstream("UC-1")))
	assert.Equal(t, []string{"UC-1"}, itemIDs(g.Downstream("SOL-1")))
}

func TestBuilder_Build_FatalErrors(t *testing.T) {
	t.Run("empty source set when required", func(t *testing.T) {
		_, err := graph.NewBuilder(graph.WithRequireItems(true)).Build(context.Background(), nil)
		assert.ErrorIs(t, err, graph.ErrEmptySourceSet)
	})

	t.Run("empty source set allowed by default", func(t *testing.T) {
		result, err := graph.NewBuilder().Build(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Graph.Len())
	})

	t.Run("requirement without specification", func(t *testing.T) {
		_, err := graph.NewBuilder().Build(context.Background(), graphtest.Records(
			graphtest.Rec("SOL-1", "solution"),
			graphtest.Rec("SYSREQ-1", "system_requirement").NoAttr(model.FieldSpecification),
		))
		require.Error(t, err)
		assert.ErrorIs(t, err, graph.ErrMalformedRecord)
		assert.ErrorIs(t, err, model.ErrMissingField)

		var malformed *graph.MalformedRecordError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "SYSREQ-1", malformed.ID)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := graph.NewBuilder().Build(context.Background(), graphtest.Records(graphtest.Rec("X-1", "epic")))
		assert.ErrorIs(t, err, model.ErrUnknownKind)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := graph.NewBuilder().Build(ctx, graphtest.Records(graphtest.Rec("SOL-1", "solution")))
		assert.ErrorIs(t, err, graph.ErrBuildCancelled)
	})
}

func TestBuilder_Build_ProgressCallback(t *testing.T) {
	var phases []graph.ProgressPhase
	_, err := graph.NewBuilder(
		graph.WithWorkerCount(1),
		graph.WithProgressCallback(func(p graph.BuildProgress) {
			phases = append(phases, p.Phase)
		}),
	).Build(context.Background(), graphtest.Records(graphtest.Rec("SOL-1", "solution")))
	require.NoError(t, err)

	assert.Equal(t, []graph.ProgressPhase{
		graph.ProgressPhaseCollecting,
		graph.ProgressPhaseResolving,
		graph.ProgressPhaseFinalizing,
	}, phases)
}
