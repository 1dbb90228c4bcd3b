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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/graph/graphtest"
	"github.com/AleutianAI/sara/services/sara/model"
)

func hierarchy(t *testing.T) *graph.KnowledgeGraph {
	t.Helper()
	return graphtest.MustBuild(t,
		graphtest.Rec("SOL-1", "solution"),
		graphtest.Rec("UC-1", "use_case").Rel("refines", "SOL-1"),
		graphtest.Rec("UC-2", "use_case").Rel("refines", "SOL-1"),
		graphtest.Rec("SCEN-1", "scenario").Rel("refines", "UC-1"),
		// declared from the parent side
		graphtest.Rec("SYSREQ-1", "system_requirement").Rel("is_satisfied_by", "SYSARCH-1"),
		graphtest.Rec("SCEN-2", "scenario").Rel("refines", "UC-2").Rel("derives", "SYSREQ-1"),
		graphtest.Rec("SYSARCH-1", "system_architecture"),
		graphtest.Rec("ADR-1", "architecture_decision_record").Rel("justifies", "SYSARCH-1"),
	)
}

func TestTraverse_Upstream(t *testing.T) {
	g := hierarchy(t)

	chain, err := Traverse(context.Background(), g, "SYSARCH-1", Upstream)
	require.NoError(t, err)

	assert.Equal(t, []string{"SYSARCH-1", "SYSREQ-1", "SCEN-2", "UC-2", "SOL-1"}, chain.IDs())
	assert.Equal(t, 4, chain.MaxDepth)
	assert.Equal(t, "SYSARCH-1", chain.Origin)
	assert.Equal(t, model.RelSatisfies, chain.Entries[1].Via)
	assert.Equal(t, "SYSARCH-1", chain.Entries[1].Parent)
	assert.Equal(t, model.RelDerivesFrom, chain.Entries[2].Via)
}

func TestTraverse_Downstream(t *testing.T) {
	g := hierarchy(t)

	chain, err := Traverse(context.Background(), g, "SOL-1", Downstream)
	require.NoError(t, err)

	assert.Equal(t, []string{"SOL-1", "UC-1", "UC-2", "SCEN-1", "SCEN-2", "SYSREQ-1", "SYSARCH-1", "ADR-1"}, chain.IDs())
	assert.Equal(t, []string{"UC-1", "UC-2"}, (&Chain{Origin: "SOL-1", Entries: chain.ChildrenOf("SOL-1")}).IDs())
	assert.Equal(t, model.RelIsJustifiedBy, chain.Entries[7].Via)

	// A decision record points upstream at what it justifies.
	chain, err = DownstreamOf(context.Background(), g, "ADR-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ADR-1"}, chain.IDs())

	chain, err = UpstreamOf(context.Background(), g, "ADR-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ADR-1", "SYSARCH-1", "SYSREQ-1", "SCEN-2", "UC-2", "SOL-1"}, chain.IDs())
}

func TestTraverse_MaxDepth(t *testing.T) {
	g := hierarchy(t)

	tests := []struct {
		depth int
		want  []string
	}{
		{0, []string{"SOL-1"}},
		{1, []string{"SOL-1", "UC-1", "UC-2"}},
		{2, []string{"SOL-1", "UC-1", "UC-2", "SCEN-1", "SCEN-2"}},
		{-1, []string{"SOL-1", "UC-1", "UC-2", "SCEN-1", "SCEN-2", "SYSREQ-1", "SYSARCH-1", "ADR-1"}},
	}

	for _, tt := range tests {
		chain, err := Traverse(context.Background(), g, "SOL-1", Downstream, WithMaxDepth(tt.depth))
		require.NoError(t, err)
		assert.Equal(t, tt.want, chain.IDs(), "depth %d", tt.depth)
	}
}

func TestTraverse_KindFilterWalksThrough(t *testing.T) {
	g := hierarchy(t)

	chain, err := Traverse(context.Background(), g, "SOL-1", Downstream,
		WithKinds(model.KindScenario, model.KindSystemArchitecture))
	require.NoError(t, err)

	assert.Equal(t, []string{"SOL-1", "SCEN-1", "SCEN-2", "SYSARCH-1"}, chain.IDs())
	// Filtered-out use cases are skipped when assigning display parents.
	assert.Equal(t, "SOL-1", chain.Entries[1].Parent)
	assert.Equal(t, "SCEN-2", chain.Entries[3].Parent)
	assert.Equal(t, 4, chain.Entries[3].Depth)
}

func TestTraverse_Limit(t *testing.T) {
	g := hierarchy(t)

	chain, err := Traverse(context.Background(), g, "SOL-1", Downstream, WithLimit(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"SOL-1", "UC-1", "UC-2"}, chain.IDs())
	assert.True(t, chain.Truncated)
}

func TestTraverse_CycleTerminates(t *testing.T) {
	g := graphtest.MustBuild(t,
		graphtest.Rec("SWREQ-A", "software_requirement").Rel("derives_from", "SWREQ-B"),
		graphtest.Rec("SWREQ-B", "software_requirement").Rel("derives_from", "SWREQ-A"),
	)

	chain, err := Traverse(context.Background(), g, "SWREQ-A", Upstream)
	require.NoError(t, err)
	assert.Equal(t, []string{"SWREQ-A", "SWREQ-B"}, chain.IDs())
}

func TestTraverse_Errors(t *testing.T) {
	g := hierarchy(t)

	_, err := Traverse(context.Background(), g, "SOL-X", Upstream)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []string{"SOL-1"}, nf.Suggestions)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Traverse(context.Background(), g, "SOL-1", Direction(7))
	assert.ErrorIs(t, err, ErrInvalidDirection)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Traverse(ctx, g, "SOL-1", Downstream)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("UP")
	require.NoError(t, err)
	assert.Equal(t, Upstream, d)

	d, err = ParseDirection("downstream")
	require.NoError(t, err)
	assert.Equal(t, Downstream, d)

	_, err = ParseDirection("sideways")
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestLookupOrSuggest(t *testing.T) {
	g := graphtest.MustBuild(t,
		graphtest.Rec("SOL-1", "solution"),
		graphtest.Rec("UC-1", "use_case").Rel("refines", "SOL-1"),
		graphtest.Rec("UC-2", "use_case").Rel("refines", "SOL-1"),
		graphtest.Rec("UC-12", "use_case").Rel("refines", "SOL-1"),
	)

	item, err := LookupOrSuggest(g, "UC-1")
	require.NoError(t, err)
	assert.Equal(t, "UC-1", item.ID())

	tests := []struct {
		query string
		want  []string
	}{
		{"SOL-X", []string{"SOL-1"}},
		{"sol-1", []string{"SOL-1"}},
		{"UC-3", []string{"UC-1", "UC-2", "UC-12"}},
		{"COMPLETELY-DIFFERENT", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := LookupOrSuggest(g, tt.query)
			var nf *NotFoundError
			require.True(t, errors.As(err, &nf))
			assert.Equal(t, tt.query, nf.ID)
			assert.Equal(t, tt.want, nf.Suggestions)
		})
	}
}

func TestNotFoundError_Message(t *testing.T) {
	assert.Equal(t, "item not found: X", (&NotFoundError{ID: "X"}).Error())
	assert.Equal(t, "item not found: X (did you mean: A, B?)",
		(&NotFoundError{ID: "X", Suggestions: []string{"A", "B"}}).Error())
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"sol-x", "sol-1", 1},
		{"uc-3", "uc-12", 2},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestSuggestionThreshold(t *testing.T) {
	assert.Equal(t, 2, SuggestionThreshold("UC"))
	assert.Equal(t, 2, SuggestionThreshold("SOL-X"))
	assert.Equal(t, 4, SuggestionThreshold("SYSREQ-12345"))
}

func TestSuggest_Limit(t *testing.T) {
	candidates := []string{"UC-1", "UC-2", "UC-12"}

	assert.Equal(t, []string{"UC-1"}, Suggest(candidates, "UC-3", 1))
	assert.Empty(t, Suggest(candidates, "UC-3", 0))
	assert.NotPanics(t, func() {
		assert.Empty(t, Suggest(candidates, "UC-3", -1))
	})
}
