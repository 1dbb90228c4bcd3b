// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sara/services/sara/model"
)

// =============================================================================
// HARNESS
// =============================================================================

type result struct {
	code   int
	stdout string
	stderr string
}

// sara runs the CLI in-process with the record cache disabled.
func sara(t *testing.T, args ...string) result {
	t.Helper()
	t.Setenv("SARA_CACHE_ENABLED", "false")
	t.Setenv("SARA_PERSONALITY", "machine")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func doc(id, kind string, rels ...string) string {
	s := "---\nid: " + id + "\ntype: " + kind + "\nname: " + id + " name\n"
	for i := 0; i+1 < len(rels); i += 2 {
		s += rels[i] + ": " + rels[i+1] + "\n"
	}
	return s + "---\n# " + id + "\n"
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

// hierarchy writes SOL-1 <- UC-1 <- SCEN-1 and returns the root.
func hierarchy(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"SOL-1.md":            doc("SOL-1", "solution"),
		"use-cases/UC-1.md":   doc("UC-1", "use_case", "refines", "SOL-1"),
		"scenarios/SCEN-1.md": doc("SCEN-1", "scenario", "refines", "UC-1"),
	})
	return root
}

// =============================================================================
// ROOT
// =============================================================================

func TestRun_Help(t *testing.T) {
	res := sara(t, "--help")
	assert.Equal(t, exitOK, res.code)
	for _, sub := range []string{"parse", "validate", "query", "report", "diff", "init", "edit", "cache"} {
		assert.Contains(t, res.stdout, sub)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	root := hierarchy(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"validate", "--bogus", root}},
		{"missing query id", []string{"query", "-r", root}},
		{"unknown format", []string{"parse", "--format", "xml", root}},
		{"unknown type filter", []string{"query", "UC-1", "-r", root, "--upstream", "--type", "epic"}},
		{"bad log level", []string{"parse", "--log-level", "loud", root}},
		{"missing config", []string{"parse", "--config", filepath.Join(root, "absent.yaml"), root}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := sara(t, tt.args...)
			assert.Equal(t, exitUsage, res.code, "stderr: %s", res.stderr)
		})
	}
}

// =============================================================================
// PARSE / VALIDATE
// =============================================================================

func TestRun_Parse(t *testing.T) {
	res := sara(t, "parse", "--format", "json", hierarchy(t))
	require.Equal(t, exitOK, res.code, res.stderr)

	var stats struct {
		ItemCount int `json:"item_count"`
		EdgeCount int `json:"edge_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &stats))
	assert.Equal(t, 3, stats.ItemCount)
	assert.Equal(t, 4, stats.EdgeCount, "two declared links and their inverses")
}

func TestRun_Parse_DuplicateIsFatal(t *testing.T) {
	root := hierarchy(t)
	writeTree(t, root, map[string]string{"copy/UC-1.md": doc("UC-1", "use_case", "refines", "SOL-1")})

	res := sara(t, "parse", root)
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "UC-1")
}

func TestRun_Validate_Clean(t *testing.T) {
	res := sara(t, "validate", hierarchy(t))
	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Validation passed")
}

func TestRun_Validate_BrokenReference(t *testing.T) {
	root := hierarchy(t)
	writeTree(t, root, map[string]string{"use-cases/UC-2.md": doc("UC-2", "use_case", "refines", "SOL-9")})

	res := sara(t, "validate", "--format", "json", root)
	assert.Equal(t, exitFailure, res.code)

	var rep struct {
		Findings []struct {
			Severity string `json:"severity"`
			Message  string `json:"message"`
		} `json:"findings"`
		ItemsChecked int `json:"items_checked"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &rep))
	assert.Equal(t, 4, rep.ItemsChecked)
	require.NotEmpty(t, rep.Findings)
	assert.Contains(t, rep.Findings[0].Message, "SOL-9")
	assert.Equal(t, "error", rep.Findings[0].Severity)
}

func TestRun_Validate_StrictOrphans(t *testing.T) {
	root := hierarchy(t)
	writeTree(t, root, map[string]string{"use-cases/UC-2.md": doc("UC-2", "use_case")})

	assert.Equal(t, exitOK, sara(t, "validate", root).code, "orphans are warnings by default")
	assert.Equal(t, exitFailure, sara(t, "validate", "--strict-orphans", root).code)
}

func TestRun_Validate_Duplicate(t *testing.T) {
	root := hierarchy(t)
	writeTree(t, root, map[string]string{"copy/UC-1.md": doc("UC-1", "use_case", "refines", "SOL-1")})

	for _, args := range [][]string{
		{"validate", root},
		{"validate", "--keep-going", root},
	} {
		res := sara(t, args...)
		assert.Equal(t, exitFailure, res.code, "%v", args)
		assert.Contains(t, res.stdout, "Duplicate identifier: UC-1", "%v", args)
	}
}

func TestRun_Validate_RepositoryFlag(t *testing.T) {
	res := sara(t, "validate", "-r", hierarchy(t), "--format", "csv")
	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Severity,Code,Message")
}

// =============================================================================
// QUERY / REPORT
// =============================================================================

func TestRun_Query_Upstream(t *testing.T) {
	res := sara(t, "query", "SCEN-1", "--upstream", "--format", "json", "-r", hierarchy(t))
	require.Equal(t, exitOK, res.code, res.stderr)

	var chain struct {
		Origin string `json:"origin"`
		Items  []struct {
			ID    string `json:"id"`
			Depth int    `json:"depth"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &chain))
	assert.Equal(t, "SCEN-1", chain.Origin)
	require.Len(t, chain.Items, 3)
	assert.Equal(t, "SOL-1", chain.Items[2].ID)
	assert.Equal(t, 2, chain.Items[2].Depth)
}

func TestRun_Query_DepthAndType(t *testing.T) {
	root := hierarchy(t)

	res := sara(t, "query", "SOL-1", "--downstream", "--depth", "1", "-r", root)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "UC-1")
	assert.NotContains(t, res.stdout, "SCEN-1")

	res = sara(t, "query", "SOL-1", "--downstream", "--type", "Scenario", "-r", root)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "SCEN-1")
}

func TestRun_Query_Details(t *testing.T) {
	res := sara(t, "query", "UC-1", "--format", "json", "-r", hierarchy(t))
	require.Equal(t, exitOK, res.code, res.stderr)

	var v itemView
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &v))
	assert.Equal(t, "UC-1", v.ID)
	assert.Equal(t, model.KindUseCase, v.Kind)
	assert.Len(t, v.Relationships, 2)
}

func TestRun_Query_Suggestions(t *testing.T) {
	res := sara(t, "query", "UC-3", "-r", hierarchy(t))
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "Item not found: UC-3")
	assert.Contains(t, res.stdout, "Did you mean: UC-1?")
}

func TestRun_Report(t *testing.T) {
	root := hierarchy(t)

	res := sara(t, "report", "coverage", "--format", "json", root)
	require.Equal(t, exitOK, res.code, res.stderr)
	var cov struct {
		Overall float64 `json:"overall_coverage"`
		Total   int     `json:"total_items"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &cov))
	assert.Equal(t, 3, cov.Total)
	assert.InDelta(t, 100.0, cov.Overall, 0.001)

	res = sara(t, "report", "matrix", "--format", "csv", root)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "SCEN-1")
}

// =============================================================================
// DIFF
// =============================================================================

func commitAll(t *testing.T, repo *git.Repository, msg string) {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	_, err = wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "sara", Email: "sara@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
}

func TestRun_Diff(t *testing.T) {
	root := hierarchy(t)
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	commitAll(t, repo, "baseline")

	writeTree(t, root, map[string]string{"use-cases/UC-2.md": doc("UC-2", "use_case", "refines", "SOL-9")})
	commitAll(t, repo, "add UC-2")

	res := sara(t, "diff", "HEAD~1", "HEAD", "--format", "json", "-r", root)
	require.Equal(t, exitOK, res.code, res.stderr)

	var delta struct {
		AddedItems []struct {
			ID string `json:"id"`
		} `json:"added_items"`
		NewlyBrokenLinks []struct {
			To string `json:"to"`
		} `json:"newly_broken_links"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &delta))
	require.Len(t, delta.AddedItems, 1)
	assert.Equal(t, "UC-2", delta.AddedItems[0].ID)
	require.Len(t, delta.NewlyBrokenLinks, 1)

	assert.Equal(t, exitFailure, sara(t, "diff", "HEAD~1", "HEAD", "--exit-code", "-r", root).code)
	assert.Equal(t, exitOK, sara(t, "diff", "HEAD", "HEAD", "--exit-code", "-r", root).code)

	res = sara(t, "diff", "HEAD~1", "HEAD", "--stat", "-r", root)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "+1 -0 ~0 items")
}

func TestRun_Diff_NotARepository(t *testing.T) {
	res := sara(t, "diff", "HEAD~1", "HEAD", "-r", hierarchy(t))
	assert.Equal(t, exitFailure, res.code)
}

// =============================================================================
// INIT / CACHE
// =============================================================================

func TestRun_InitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "sara.yaml")

	res := sara(t, "init", "config", "--config", path)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.FileExists(t, path)

	res = sara(t, "init", "config", "--config", path)
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "already exists")

	res = sara(t, "parse", "--config", path, hierarchy(t))
	assert.Equal(t, exitOK, res.code, "generated config must load: %s", res.stderr)
}

func TestRun_InitItem(t *testing.T) {
	root := hierarchy(t)

	res := sara(t, "init", "use-case", filepath.Join(root, "use-cases", "UC-2.md"),
		"-r", root, "--name", "Reset password", "--refines", "SOL-1")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "UC-002")

	res = sara(t, "init", "sysreq", filepath.Join(root, "reqs", "latency.md"),
		"-r", root, "--id", "SYSREQ-1", "--derives-from", "SCEN-1",
		"--specification", "The system SHALL answer within 200ms.")
	require.Equal(t, exitOK, res.code, res.stderr)

	res = sara(t, "query", "SYSREQ-1", "-r", root, "--format", "json")
	require.Equal(t, exitOK, res.code, res.stderr)
	var view struct {
		Name          string `json:"name"`
		Specification string `json:"specification"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &view))
	assert.Equal(t, "latency", view.Name, "name falls back to the file stem")
	assert.Equal(t, "The system SHALL answer within 200ms.", view.Specification)

	res = sara(t, "validate", "-r", root)
	assert.Equal(t, exitOK, res.code, "initialized documents must validate: %s", res.stderr)
}

func TestRun_InitItem_Errors(t *testing.T) {
	root := hierarchy(t)

	t.Run("existing frontmatter", func(t *testing.T) {
		res := sara(t, "init", "uc", filepath.Join(root, "use-cases", "UC-1.md"), "-r", root, "--id", "UC-9")
		assert.Equal(t, exitFailure, res.code)
		assert.Contains(t, res.stderr, "--force")

		content, err := os.ReadFile(filepath.Join(root, "use-cases", "UC-1.md"))
		require.NoError(t, err)
		assert.Contains(t, string(content), "id: UC-1")
	})

	t.Run("force keeps the body", func(t *testing.T) {
		path := filepath.Join(root, "use-cases", "UC-1.md")
		res := sara(t, "init", "uc", path, "-r", root, "--id", "UC-1", "--name", "Renamed", "--refines", "SOL-1", "--force")
		require.Equal(t, exitOK, res.code, res.stderr)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "name: Renamed")
		assert.Contains(t, string(content), "# UC-1")
	})

	t.Run("bad status", func(t *testing.T) {
		res := sara(t, "init", "adr", filepath.Join(root, "ADR-1.md"), "-r", root, "--status", "maybe")
		assert.Equal(t, exitUsage, res.code)
		assert.NoFileExists(t, filepath.Join(root, "ADR-1.md"))
	})

	t.Run("flag of another type", func(t *testing.T) {
		res := sara(t, "init", "solution", filepath.Join(root, "SOL-2.md"), "-r", root, "--refines", "SOL-1")
		assert.Equal(t, exitUsage, res.code)
	})

	t.Run("no type without a terminal", func(t *testing.T) {
		res := sara(t, "init", "-r", root)
		assert.Equal(t, exitUsage, res.code)
	})
}

func TestRun_Edit(t *testing.T) {
	root := hierarchy(t)
	writeTree(t, root, map[string]string{"SOL-2.md": doc("SOL-2", "solution")})

	res := sara(t, "edit", "UC-1", "-r", root, "--name", "Sign in", "--refines", "SOL-2", "-d", "Login flow")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Updated UC-1")

	res = sara(t, "query", "UC-1", "-r", root, "--format", "json")
	require.Equal(t, exitOK, res.code, res.stderr)
	var view struct {
		Name          string `json:"name"`
		Description   string `json:"description"`
		Relationships []struct {
			Kind   string `json:"kind"`
			Target string `json:"target"`
		} `json:"relationships"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &view))
	assert.Equal(t, "Sign in", view.Name)
	assert.Equal(t, "Login flow", view.Description)
	require.NotEmpty(t, view.Relationships)
	for _, rel := range view.Relationships {
		if rel.Kind == "refines" {
			assert.Equal(t, "SOL-2", rel.Target)
		}
	}

	content, err := os.ReadFile(filepath.Join(root, "use-cases", "UC-1.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "# UC-1\n", "body is kept")
}

func TestRun_Edit_Errors(t *testing.T) {
	root := hierarchy(t)
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"specification on use case", []string{"edit", "UC-1", "--specification", "It SHALL work."}, exitUsage},
		{"no flags without a terminal", []string{"edit", "UC-1"}, exitUsage},
		{"empty name", []string{"edit", "UC-1", "--name", ""}, exitUsage},
		{"unknown id", []string{"edit", "UC-7", "--name", "x"}, exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := sara(t, append(tt.args, "-r", root)...)
			assert.Equal(t, tt.code, res.code, "stderr: %s", res.stderr)
		})
	}

	content, err := os.ReadFile(filepath.Join(root, "use-cases", "UC-1.md"))
	require.NoError(t, err)
	assert.Equal(t, doc("UC-1", "use_case", "refines", "SOL-1"), string(content))
}

func TestRun_Cache(t *testing.T) {
	root := hierarchy(t)
	cacheDir := t.TempDir()
	t.Setenv("SARA_PERSONALITY", "machine")
	t.Setenv("SARA_CACHE_PATH", cacheDir)

	exec := func(args ...string) result {
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), args, &stdout, &stderr)
		return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
	}

	require.Equal(t, exitOK, exec("parse", root).code)

	res := exec("cache", "info")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Entries: 3")

	require.Equal(t, exitOK, exec("cache", "clear").code)
	assert.Contains(t, exec("cache", "info").stdout, "Entries: 0")

	res = exec("cache", "info", "--no-cache")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, errCacheUnavailable.Error())
}

// =============================================================================
// HELPERS
// =============================================================================

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
	assert.Equal(t, exitUsage, exitCode(usageError(errors.New("bad flag"))))
	assert.Equal(t, exitFailure, exitCode(&ExitError{Code: exitFailure, Err: errSilent}))
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds([]string{"system_requirement", "Use Case", "software-detailed-design"})
	require.NoError(t, err)
	assert.Equal(t, []model.Kind{model.KindSystemRequirement, model.KindUseCase, model.KindSoftwareDetailedDesign}, kinds)

	_, err = parseKinds([]string{"epic"})
	assert.ErrorIs(t, err, model.ErrUnknownKind)
}
