// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package repository reads item records out of document repositories.
//
// It provides three sources: a Scanner for working-tree directories, a
// GitReader for committed snapshots at any ref, and a Watcher that reports
// Markdown changes so callers can rebuild.
package repository

import "errors"

var (
	// ErrInvalidPattern indicates a malformed include or exclude pattern.
	ErrInvalidPattern = errors.New("invalid file pattern")

	// ErrAllFilesFailed indicates every candidate file failed to parse.
	// It wraps the first parse error.
	ErrAllFilesFailed = errors.New("no file could be parsed")

	// ErrNotGitRepository indicates the path is not inside a git repository.
	ErrNotGitRepository = errors.New("not a git repository")

	// ErrRefNotFound indicates a ref resolved to no commit.
	ErrRefNotFound = errors.New("git ref not found")
)
