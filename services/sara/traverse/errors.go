// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package traverse walks traceability chains through a knowledge graph
// and suggests identifiers for failed lookups.
package traverse

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an identifier names no item.
	ErrNotFound = errors.New("item not found")

	// ErrInvalidDirection is returned for a direction other than Upstream
	// or Downstream.
	ErrInvalidDirection = errors.New("invalid traversal direction")
)

// NotFoundError reports a missed lookup together with close identifiers.
type NotFoundError struct {
	// ID is the identifier that was queried.
	ID string

	// Suggestions holds up to three similar identifiers, closest first.
	Suggestions []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("item not found: %s", e.ID)
	}
	return fmt.Sprintf("item not found: %s (did you mean: %s?)", e.ID, strings.Join(e.Suggestions, ", "))
}

// Unwrap returns ErrNotFound for errors.Is support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
