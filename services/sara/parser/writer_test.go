// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFrontmatter(t *testing.T) {
	out, err := RenderFrontmatter([]Field{
		ScalarField("id", "SWREQ-007"),
		ScalarField("type", "software_requirement"),
		ScalarField("name", "Retry budget"),
		ListField("derives_from", "SYSARCH-1", "SYSARCH-2"),
		ScalarField("specification", "The service SHALL retry 3 times."),
		ListField("deciders", "123"),
		RemoveField("platform"),
	})
	require.NoError(t, err)

	assert.Equal(t, `---
id: SWREQ-007
type: software_requirement
name: Retry budget
derives_from:
  - SYSARCH-1
  - SYSARCH-2
specification: The service SHALL retry 3 times.
deciders:
  - "123"
---
`, string(out))

	rec, err := Parse(out, src("SWREQ-007.md"))
	require.NoError(t, err)
	assert.Equal(t, "SWREQ-007", rec.ID)
	assert.Equal(t, []string{"SYSARCH-1", "SYSARCH-2"}, rec.Relationships["derives_from"])
	assert.Equal(t, []string{"123"}, rec.Attributes["deciders"])
}

func TestWithFrontmatter(t *testing.T) {
	fields := []Field{ScalarField("id", "UC-2"), ScalarField("type", "use_case")}

	t.Run("prepends to a plain document", func(t *testing.T) {
		out, err := WithFrontmatter([]byte("# Login\n\nBody.\n"), fields)
		require.NoError(t, err)
		assert.Equal(t, "---\nid: UC-2\ntype: use_case\n---\n# Login\n\nBody.\n", string(out))
	})

	t.Run("replaces existing frontmatter", func(t *testing.T) {
		out, err := WithFrontmatter([]byte("---\nid: OLD-1\nowner: me\n---\n# Login"), fields)
		require.NoError(t, err)
		assert.Equal(t, "---\nid: UC-2\ntype: use_case\n---\n# Login\n", string(out))
	})
}

func TestUpdateFrontmatter(t *testing.T) {
	out, err := UpdateFrontmatter([]byte(solutionMD), []Field{
		ScalarField("name", "Renamed"),
		RemoveField("description"),
		ListField("is_refined_by", "UC-001", "UC-002"),
		ScalarField("status", "draft"),
	})
	require.NoError(t, err)

	rec, err := Parse(out, src("SOL-001.md"))
	require.NoError(t, err)
	assert.Equal(t, "SOL-001", rec.ID)
	assert.Equal(t, "Renamed", rec.Name)
	assert.Empty(t, rec.Description)
	assert.Equal(t, []string{"UC-001", "UC-002"}, rec.Relationships["is_refined_by"])
	assert.Contains(t, rec.CustomFields, "owner", "untouched keys are kept")

	fm, err := ExtractFrontmatter(out)
	require.NoError(t, err)
	assert.Equal(t, "# Test Solution\n\nThis is the body content.", fm.Body)
	assert.Regexp(t, `(?s)^id: .*\ntype: .*\nname: Renamed\n`, fm.YAML, "existing keys keep their order")
}

func TestUpdateFrontmatter_Errors(t *testing.T) {
	_, err := UpdateFrontmatter([]byte("# No frontmatter\n"), []Field{ScalarField("name", "x")})
	assert.ErrorIs(t, err, ErrNoFrontmatter)

	_, err = UpdateFrontmatter([]byte("---\n- a\n- b\n---\n"), []Field{ScalarField("name", "x")})
	assert.ErrorIs(t, err, ErrInvalidYAML)
}
