// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package model provides the item and relationship vocabulary of the
// traceability knowledge graph.
//
// The model package contains types for representing documentation items
// (solutions, use cases, requirements, architecture, detailed designs and
// decision records) and the typed, directed relationships between them.
// It has no graph behavior of its own; the graph package builds on it.
//
// # Immutability
//
// Items are immutable once constructed:
//   - NewItem copies the relationship slice it is given
//   - Accessors return copies or values, never internal slices
//   - Edits to the underlying documents require a full rebuild
//
// # Tagged Attributes
//
// Kind-specific data is carried by one Attributes variant per kind family
// (plain, requirement, architecture, decision). NewItem rejects a variant
// that does not belong to the item's kind, so a Solution with a
// specification cannot be represented.
package model

import "errors"

// Sentinel errors for model construction.
var (
	// ErrInvalidID is returned when an identifier is empty or contains
	// characters other than letters, digits, '-' and '_'.
	ErrInvalidID = errors.New("invalid item identifier")

	// ErrUnknownKind is returned when a kind string does not name one of
	// the ten item kinds.
	ErrUnknownKind = errors.New("unknown item kind")

	// ErrUnknownRelationship is returned when a field name does not name a
	// relationship kind.
	ErrUnknownRelationship = errors.New("unknown relationship field")

	// ErrAttributeMismatch is returned when an attribute variant does not
	// belong to the item's kind family.
	ErrAttributeMismatch = errors.New("attributes do not match item kind")

	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidStatus is returned when an ADR status is not one of
	// proposed, accepted, deprecated or superseded.
	ErrInvalidStatus = errors.New("invalid decision status")
)
