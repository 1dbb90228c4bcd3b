// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package authoring writes and rewrites item frontmatter in Markdown
// documents.
//
// Init turns a new or existing file into an item document; Edit
// rewrites selected fields of a document the graph already knows. Both
// go through the parser's YAML node writer, so keys they do not touch,
// custom ones included, survive unchanged.
package authoring

import "errors"

var (
	// ErrFrontmatterExists is returned by Init when the file already
	// declares frontmatter and overwriting was not requested.
	ErrFrontmatterExists = errors.New("file already has frontmatter")

	// ErrNotApplicable is returned when a field is given for an item
	// type that cannot carry it, e.g. a specification on a solution.
	ErrNotApplicable = errors.New("field does not apply to this item type")

	// ErrNoChanges is returned by Edit when no field was given.
	ErrNoChanges = errors.New("no changes given")

	// ErrEmptyValue is returned when a required field is set to "".
	ErrEmptyValue = errors.New("value must not be empty")

	// ErrNotWorkingTree is returned by Edit for an item read from a git
	// revision rather than from files on disk.
	ErrNotWorkingTree = errors.New("item was not read from the working tree")
)
