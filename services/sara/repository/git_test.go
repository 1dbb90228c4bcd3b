// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSignature = &object.Signature{
	Name:  "Test",
	Email: "test@example.com",
	When:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
}

// commitTree writes files into the worktree, stages everything and commits.
func commitTree(t *testing.T, repo *git.Repository, dir string, files map[string]string, remove ...string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)

	writeTree(t, dir, files)
	for _, rel := range remove {
		_, err := wt.Remove(rel)
		require.NoError(t, err)
	}
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))

	hash, err := wt.Commit("update", &git.CommitOptions{Author: testSignature})
	require.NoError(t, err)
	return hash
}

// newHistory builds a repository with two commits, a lightweight tag
// "v1" and an annotated tag "v1-annotated" on the first commit.
func newHistory(t *testing.T) (dir string, first, second plumbing.Hash) {
	t.Helper()
	dir = t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	first = commitTree(t, repo, dir, map[string]string{
		"docs/SOL-1.md":  doc("SOL-1", "solution"),
		"docs/UC-1.md":   doc("UC-1", "use_case", "refines", "SOL-1"),
		"docs/UC-OLD.md": doc("UC-OLD", "use_case", "refines", "SOL-1"),
		"main.go":        "package main\n",
	})
	_, err = repo.CreateTag("v1", first, nil)
	require.NoError(t, err)
	_, err = repo.CreateTag("v1-annotated", first, &git.CreateTagOptions{Tagger: testSignature, Message: "release"})
	require.NoError(t, err)

	second = commitTree(t, repo, dir, map[string]string{
		"docs/UC-2.md": doc("UC-2", "use_case", "refines", "SOL-1"),
	}, "docs/UC-OLD.md")
	return dir, first, second
}

func TestParseGitRef(t *testing.T) {
	tests := []struct {
		in   string
		want GitRef
	}{
		{"HEAD", GitRef{Kind: RefHead, Name: "HEAD"}},
		{" head ", GitRef{Kind: RefHead, Name: "HEAD"}},
		{"refs/heads/main", GitRef{Kind: RefBranch, Name: "main"}},
		{"refs/tags/v1.0", GitRef{Kind: RefTag, Name: "v1.0"}},
		{"abc1234", GitRef{Kind: RefCommit, Name: "abc1234"}},
		{"abc12", GitRef{Kind: RefBranch, Name: "abc12"}},
		{"feature/x", GitRef{Kind: RefBranch, Name: "feature/x"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseGitRef(tt.in))
		})
	}
}

func TestGitReader_ResolveRef(t *testing.T) {
	dir, first, second := newHistory(t)
	r, err := OpenGit(dir)
	require.NoError(t, err)

	head, err := r.repo.Head()
	require.NoError(t, err)
	branch := head.Name().Short()

	tests := []struct {
		ref  string
		want plumbing.Hash
	}{
		{"HEAD", second},
		{branch, second},
		{"refs/heads/" + branch, second},
		{"v1", first},
		{"refs/tags/v1", first},
		{"v1-annotated", first},
		{first.String(), first},
		{first.String()[:8], first},
		{"HEAD~1", first},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			commit, err := r.ResolveRef(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, commit.Hash)
		})
	}

	_, err = r.ResolveRef("no-such-branch")
	assert.ErrorIs(t, err, ErrRefNotFound)
}

func TestGitReader_Records(t *testing.T) {
	dir, _, _ := newHistory(t)
	r, err := OpenGit(dir)
	require.NoError(t, err)
	ctx := context.Background()

	old, err := r.Records(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, old, 3)
	assert.Equal(t, "SOL-1", old[0].ID)
	assert.Equal(t, "UC-1", old[1].ID)
	assert.Equal(t, "UC-OLD", old[2].ID)
	assert.Equal(t, "v1", old[1].Source.GitRef)
	assert.Equal(t, "docs/UC-1.md", old[1].Source.FilePath)
	assert.Equal(t, dir, old[1].Source.Repository)

	current, err := r.Records(ctx, "HEAD")
	require.NoError(t, err)
	ids := make([]string, len(current))
	for i, rec := range current {
		ids[i] = rec.ID
	}
	assert.Equal(t, []string{"SOL-1", "UC-1", "UC-2"}, ids)
}

func TestGitReader_FilterAndCache(t *testing.T) {
	dir, _, _ := newHistory(t)
	cache := newMemoryCache()
	r, err := OpenGit(dir, WithGitFilter(Filter{Exclude: []string{"**/UC-OLD.md"}}), WithGitCache(cache))
	require.NoError(t, err)

	commit, err := r.ResolveRef("v1")
	require.NoError(t, err)
	files, err := r.MarkdownFiles(commit)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/SOL-1.md", "docs/UC-1.md"}, files)

	_, err = r.Records(context.Background(), "v1")
	require.NoError(t, err)

	// SOL-1 and UC-1 are unchanged between v1 and HEAD.
	recs, err := r.Records(context.Background(), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, 2, cache.hits)
	for _, rec := range recs {
		assert.Equal(t, "HEAD", rec.Source.GitRef)
	}
}

func TestOpenGit_NotARepository(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenGit(dir)
	assert.ErrorIs(t, err, ErrNotGitRepository)
	assert.False(t, IsGitRepository(dir))
}

func TestDiscoverGit(t *testing.T) {
	dir, _, _ := newHistory(t)
	sub := filepath.Join(dir, "docs")
	require.DirExists(t, sub)

	r, err := DiscoverGit(sub)
	require.NoError(t, err)
	assert.Equal(t, dir, r.Root())
	assert.True(t, IsGitRepository(sub))

	_, err = os.Stat(filepath.Join(r.Root(), ".git"))
	assert.NoError(t, err)
}
