// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sara/services/sara/model"
)

func openTestCache(t *testing.T) *RecordCache {
	t.Helper()
	c, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleRecord() model.Record {
	return model.Record{
		ID:   "UC-1",
		Kind: "use_case",
		Name: "Checkout",
		Source: model.SourceLocation{
			Repository: "/repo",
			FilePath:   "docs/UC-1.md",
			Line:       1,
		},
		Relationships: map[string][]string{"refines": {"SOL-1"}},
		CustomFields:  []string{"owner"},
	}
}

func TestKey(t *testing.T) {
	content := []byte("---\nid: UC-1\n---\n")

	k := Key("/repo", "docs/UC-1.md", content)
	assert.Equal(t, k, Key("/repo", "docs/UC-1.md", content))
	assert.Len(t, k, len(keyPrefix)+64)
	assert.Equal(t, keyPrefix, k[:len(keyPrefix)])

	assert.NotEqual(t, k, Key("/repo", "docs/UC-1.md", []byte("changed")))
	assert.NotEqual(t, k, Key("/other", "docs/UC-1.md", content))
	assert.NotEqual(t, Key("a", "bc", nil), Key("ab", "c", nil))
}

func TestRecordCache_PutGet(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	content := []byte("v1")

	_, ok := c.Get(ctx, "/repo", "docs/UC-1.md", content)
	assert.False(t, ok)

	rec := sampleRecord()
	require.NoError(t, c.Put(ctx, "/repo", "docs/UC-1.md", content, rec))

	got, ok := c.Get(ctx, "/repo", "docs/UC-1.md", content)
	require.True(t, ok)
	assert.Equal(t, rec, got)

	_, ok = c.Get(ctx, "/repo", "docs/UC-1.md", []byte("v2"))
	assert.False(t, ok, "edited content must miss")

	assert.Equal(t, Stats{Hits: 1, Misses: 2, Writes: 1}, c.Stats())
}

func TestRecordCache_InvalidateAll(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	require.NoError(t, c.Put(ctx, "/repo", "a.md", []byte("a"), sampleRecord()))
	require.NoError(t, c.Put(ctx, "/repo", "b.md", []byte("b"), sampleRecord()))

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, c.InvalidateAll(ctx))

	n, err = c.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, ok := c.Get(ctx, "/repo", "a.md", []byte("a"))
	assert.False(t, ok)
}

func TestRecordCache_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, "/repo", "a.md", []byte("a"), sampleRecord()))
	require.NoError(t, c.Close())

	c2, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer c2.Close()

	got, ok := c2.Get(ctx, "/repo", "a.md", []byte("a"))
	require.True(t, ok)
	assert.Equal(t, "UC-1", got.ID)
}

func TestRecordCache_Closed(t *testing.T) {
	ctx := context.Background()
	c, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Put(ctx, "/repo", "a.md", nil, sampleRecord()), ErrClosed)
	assert.ErrorIs(t, c.InvalidateAll(ctx), ErrClosed)
	_, ok := c.Get(ctx, "/repo", "a.md", nil)
	assert.False(t, ok)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(Config{})
	assert.ErrorIs(t, err, ErrPathRequired)

	cfg := DefaultConfig(t.TempDir())
	cfg.GCDiscardRatio = 2
	_, err = Open(cfg)
	assert.Error(t, err)
}
