// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package authoring

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
	"github.com/AleutianAI/sara/services/sara/parser"
	"github.com/AleutianAI/sara/services/sara/repository"
)

// =============================================================================
// HELPERS
// =============================================================================

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

// load scans root and builds its graph.
func load(t *testing.T, root string) *graph.KnowledgeGraph {
	t.Helper()
	scanner, err := repository.NewScanner()
	require.NoError(t, err)
	records, err := scanner.Scan(context.Background(), root)
	require.NoError(t, err)
	res, err := graph.NewBuilder().Build(context.Background(), records)
	require.NoError(t, err)
	return res.Graph
}

func ptr(s string) *string { return &s }

// =============================================================================
// INIT
// =============================================================================

func TestInit_NewFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "reqs", "SYSREQ-001.md")

	res, err := Init(path, Draft{
		Kind: model.KindSystemRequirement,
		ID:   "SYSREQ-001",
		Name: "Latency",
		Relationships: map[model.RelationshipKind][]string{
			model.RelDerivesFrom: {"SCEN-1"},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, []string{model.FieldSpecification}, res.Placeholders)

	rec, err := parser.ParseFile(os.DirFS(root), "reqs/SYSREQ-001.md", root, "")
	require.NoError(t, err)
	assert.Equal(t, "SYSREQ-001", rec.ID)
	assert.Equal(t, "system_requirement", rec.Kind)
	assert.Equal(t, "Latency", rec.Name)
	assert.Equal(t, []string{"SCEN-1"}, rec.Relationships["derives_from"])
	assert.Equal(t, []string{PlaceholderSpecification}, rec.Attributes[model.FieldSpecification])
	assert.Contains(t, read(t, path), "\n# Latency\n")
}

func TestInit_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.md")
	write(t, path, "# Login flow\n\nUsers sign in.\n")

	res, err := Init(path, Draft{Kind: model.KindUseCase, ID: "UC-4"})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "Login flow", res.Name, "name falls back to the first heading")

	content := read(t, path)
	assert.True(t, parser.HasFrontmatter([]byte(content)))
	assert.Contains(t, content, "---\n# Login flow\n\nUsers sign in.\n")

	t.Run("refuses existing frontmatter", func(t *testing.T) {
		_, err := Init(path, Draft{Kind: model.KindUseCase, ID: "UC-5"})
		assert.ErrorIs(t, err, ErrFrontmatterExists)
		assert.Contains(t, read(t, path), "id: UC-4", "file untouched")
	})

	t.Run("force replaces frontmatter and keeps the body", func(t *testing.T) {
		res, err := Init(path, Draft{Kind: model.KindUseCase, ID: "UC-5"}, WithForce(true))
		require.NoError(t, err)
		assert.True(t, res.Replaced)

		content := read(t, path)
		assert.Contains(t, content, "id: UC-5")
		assert.NotContains(t, content, "UC-4")
		assert.Contains(t, content, "Users sign in.")
	})
}

func TestInit_NameFromFileStem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billing.md")
	write(t, path, "No heading here.\n")

	res, err := Init(path, Draft{Kind: model.KindSolution, ID: "SOL-2"})
	require.NoError(t, err)
	assert.Equal(t, "billing", res.Name)
}

func TestInit_Decision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ADR-001.md")

	res, err := Init(path, Draft{Kind: model.KindArchitectureDecisionRecord, ID: "ADR-001"})
	require.NoError(t, err)
	assert.Equal(t, []string{model.FieldDeciders}, res.Placeholders)

	rec, err := parser.Parse([]byte(read(t, path)), model.SourceLocation{FilePath: "ADR-001.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"proposed"}, rec.Attributes[model.FieldStatus])
	assert.Equal(t, []string{PlaceholderDecider}, rec.Attributes[model.FieldDeciders])
}

func TestInit_Rejects(t *testing.T) {
	tests := []struct {
		name string
		d    Draft
		want error
	}{
		{"unknown kind", Draft{ID: "X-1"}, model.ErrUnknownKind},
		{"bad id", Draft{Kind: model.KindSolution, ID: "SOL 1"}, model.ErrInvalidID},
		{"specification on solution", Draft{Kind: model.KindSolution, ID: "SOL-1", Specification: "It SHALL."}, ErrNotApplicable},
		{"platform on requirement", Draft{Kind: model.KindSoftwareRequirement, ID: "SWREQ-1", Platform: "arm"}, ErrNotApplicable},
		{"status on use case", Draft{Kind: model.KindUseCase, ID: "UC-1", Status: "accepted"}, ErrNotApplicable},
		{"bad status", Draft{Kind: model.KindArchitectureDecisionRecord, ID: "ADR-1", Status: "maybe"}, model.ErrInvalidStatus},
		{
			"refines on requirement",
			Draft{Kind: model.KindSystemRequirement, ID: "SYSREQ-1", Relationships: map[model.RelationshipKind][]string{model.RelRefines: {"UC-1"}}},
			ErrNotApplicable,
		},
		{
			"inverse field",
			Draft{Kind: model.KindSolution, ID: "SOL-1", Relationships: map[model.RelationshipKind][]string{model.RelIsRefinedBy: {"UC-1"}}},
			ErrNotApplicable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "doc.md")
			_, err := Init(path, tt.d)
			assert.ErrorIs(t, err, tt.want)
			assert.NoFileExists(t, path)
		})
	}
}

func TestDeclarableRelationships(t *testing.T) {
	assert.Empty(t, DeclarableRelationships(model.KindSolution))
	assert.Equal(t, []model.RelationshipKind{model.RelRefines}, DeclarableRelationships(model.KindUseCase))
	assert.Equal(t,
		[]model.RelationshipKind{model.RelJustifies, model.RelDependsOn, model.RelSupersedes},
		DeclarableRelationships(model.KindArchitectureDecisionRecord))
}

// =============================================================================
// EDIT
// =============================================================================

func TestEdit(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "SOL-1.md"), "---\nid: SOL-1\ntype: solution\nname: Platform\n---\n# Platform\n")
	write(t, filepath.Join(root, "SOL-2.md"), "---\nid: SOL-2\ntype: solution\nname: Billing\n---\n# Billing\n")
	ucPath := filepath.Join(root, "uc", "UC-1.md")
	write(t, ucPath, "---\nid: UC-1\ntype: use_case\nname: Sign in\nrefines: SOL-1\nowner: identity-team\n---\n# Sign in\n\nSteps.\n")

	g := load(t, root)
	item, ok := g.Get("UC-1")
	require.True(t, ok)

	res, err := Edit(item, Changes{
		Name:          ptr("Sign in with SSO"),
		Description:   ptr("Single sign-on"),
		Relationships: map[model.RelationshipKind][]string{model.RelRefines: {"SOL-2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, ucPath, res.Path)
	assert.Equal(t, []FieldChange{
		{Field: "name", Old: "Sign in", New: "Sign in with SSO"},
		{Field: "description", Old: "", New: "Single sign-on"},
		{Field: "refines", Old: "SOL-1", New: "SOL-2"},
	}, res.Changes)

	content := read(t, ucPath)
	assert.Contains(t, content, "owner: identity-team", "custom fields survive")
	assert.Contains(t, content, "# Sign in\n\nSteps.\n", "body survives")

	edited, ok := load(t, root).Get("UC-1")
	require.True(t, ok)
	assert.Equal(t, "Sign in with SSO", edited.Name())
	assert.Equal(t, []string{"SOL-2"}, declaredTargets(edited, model.RelRefines))
}

func TestEdit_NoOpLeavesFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "SOL-1.md")
	original := "---\nid: SOL-1\ntype: solution\nname:   Platform\n---\n"
	write(t, path, original)

	item, ok := load(t, root).Get("SOL-1")
	require.True(t, ok)

	res, err := Edit(item, Changes{Name: ptr("Platform")})
	require.NoError(t, err)
	assert.Empty(t, res.Changes)
	assert.Equal(t, original, read(t, path))
}

func TestEdit_Rejects(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "SOL-1.md"), "---\nid: SOL-1\ntype: solution\nname: Platform\n---\n")
	item, ok := load(t, root).Get("SOL-1")
	require.True(t, ok)

	tests := []struct {
		name string
		c    Changes
		want error
	}{
		{"nothing", Changes{}, ErrNoChanges},
		{"empty name", Changes{Name: ptr(" ")}, ErrEmptyValue},
		{"specification", Changes{Specification: ptr("It SHALL work.")}, ErrNotApplicable},
		{"platform", Changes{Platform: ptr("x86")}, ErrNotApplicable},
		{"deciders", Changes{Deciders: []string{"Alice"}}, ErrNotApplicable},
		{"derives_from", Changes{Relationships: map[model.RelationshipKind][]string{model.RelDerivesFrom: {"X"}}}, ErrNotApplicable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Edit(item, tt.c)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDocumentPath_GitRevision(t *testing.T) {
	item, err := model.NewItem(model.ItemSpec{
		ID:     "SOL-1",
		Kind:   model.KindSolution,
		Name:   "Platform",
		Source: model.SourceLocation{Repository: "/repo", FilePath: "SOL-1.md", GitRef: "HEAD"},
	})
	require.NoError(t, err)

	_, err = DocumentPath(item)
	assert.ErrorIs(t, err, ErrNotWorkingTree)
}

// =============================================================================
// IDS
// =============================================================================

func TestNextID(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		kind model.Kind
		want string
	}{
		{"empty", nil, model.KindSolution, "SOL-001"},
		{"highest plus one", []string{"UC-001", "UC-7", "SOL-12"}, model.KindUseCase, "UC-008"},
		{"ignores other shapes", []string{"SYSREQ-A", "SYSREQ-2-b", "SYSREQ-3"}, model.KindSystemRequirement, "SYSREQ-004"},
		{"prefix is exact", []string{"SYSARCH-9"}, model.KindSystemRequirement, "SYSREQ-001"},
		{"wide numbers", []string{"ADR-1234"}, model.KindArchitectureDecisionRecord, "ADR-1235"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextID(tt.ids, tt.kind))
		})
	}
}
