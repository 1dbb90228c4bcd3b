// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package parser turns Markdown documents with YAML frontmatter into raw
// item records for the graph builder.
package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFrontmatter indicates the document does not start with "---".
	// Scanners skip such files.
	ErrNoFrontmatter = errors.New("no frontmatter")

	// ErrUnterminatedFrontmatter indicates a missing closing "---".
	ErrUnterminatedFrontmatter = errors.New("missing closing --- delimiter")

	// ErrInvalidYAML indicates the frontmatter is not a YAML mapping.
	ErrInvalidYAML = errors.New("invalid frontmatter yaml")

	// ErrInvalidValue indicates a field holds a value of the wrong shape,
	// e.g. a mapping where a string or list is expected.
	ErrInvalidValue = errors.New("invalid field value")
)

// ParseError locates a parse failure in a file.
type ParseError struct {
	// Path is the file path relative to its repository.
	Path string

	// Line is the 1-indexed line the failure is attributed to.
	Line int

	// Field is the offending key, if any.
	Field string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s:%d: field %q: %v", e.Path, e.Line, e.Field, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ParseError) Unwrap() error {
	return e.Err
}
