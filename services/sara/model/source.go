// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

import (
	"fmt"
	"regexp"
)

// SourceLocation records where an item was declared.
//
// It exists purely for diagnostics and never participates in identity.
type SourceLocation struct {
	// Repository is the container the file was read from (a directory
	// root or a git repository path).
	Repository string `json:"repository"`

	// FilePath is the path of the file relative to Repository.
	FilePath string `json:"file_path"`

	// Line is the 1-based line of the frontmatter start.
	Line int `json:"line"`

	// GitRef is the revision the file was read at. Empty for working tree reads.
	GitRef string `json:"git_ref,omitempty"`
}

// String returns "path:line".
func (l SourceLocation) String() string {
	return fmt.Sprintf("%s:%d", l.FilePath, l.Line)
}

// Full returns "repo:path:line" with " (at ref)" appended when a ref is set.
func (l SourceLocation) Full() string {
	s := fmt.Sprintf("%s:%s:%d", l.Repository, l.FilePath, l.Line)
	if l.GitRef != "" {
		s += fmt.Sprintf(" (at %s)", l.GitRef)
	}
	return s
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateID checks the identifier rules.
//
// Outputs:
//
//	error - ErrInvalidID wrapped with a reason, nil if valid.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: identifier is empty", ErrInvalidID)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q may only contain letters, digits, '-' and '_'", ErrInvalidID, id)
	}
	return nil
}
