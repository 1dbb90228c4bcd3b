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
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/AleutianAI/sara/services/sara/parser"
)

// Filter selects which files of a repository are read.
//
// Paths are slash-separated and relative to the repository root. A file
// is selected when it has a Markdown extension, no path segment is
// hidden, it matches at least one Include pattern (or Include is empty)
// and it matches no Exclude pattern.
type Filter struct {
	// Include lists doublestar patterns, e.g. "docs/**/*.md".
	Include []string

	// Exclude lists doublestar patterns, e.g. "**/drafts/**".
	Exclude []string
}

// Validate checks every pattern's syntax.
func (f Filter) Validate() error {
	for _, p := range append(append([]string(nil), f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, p)
		}
	}
	return nil
}

// Match reports whether the file at rel is selected.
func (f Filter) Match(rel string) bool {
	if !parser.IsMarkdown(rel) || isHiddenPath(rel) {
		return false
	}
	if len(f.Include) > 0 && !matchAny(f.Include, rel) {
		return false
	}
	return !matchAny(f.Exclude, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// isHiddenPath reports whether any directory segment of rel starts with ".".
func isHiddenPath(rel string) bool {
	dir := path.Dir(rel)
	if dir == "." {
		return false
	}
	for seg := range strings.SplitSeq(dir, "/") {
		if isHidden(seg) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".") && name != ".."
}
