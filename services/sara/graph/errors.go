// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the traceability knowledge graph and its builder.
//
// The graph package turns parsed item records into a directed, typed graph
// where nodes are documentation items and edges are relationships
// (refines, derives, satisfies, justifies, depends-on, supersedes and their
// inverses).
//
// # Edge Normalization
//
// Every resolved relationship is stored in both directions: the declared
// edge and its statically known inverse. Queries never infer inverses
// lazily. Relationship targets that do not resolve are not materialized as
// edges; they are retained as UnresolvedReference values for the
// validator and the diff engine.
//
// # Thread Safety
//
// KnowledgeGraph is only mutated by the Builder during a single Build call.
// After Build returns, the graph is frozen and can be read from any number
// of goroutines without coordination.
//
// # Lifecycle
//
// A typical graph lifecycle:
//  1. Create a Builder with NewBuilder(opts...)
//  2. Call Build(ctx, records)
//  3. Query the returned KnowledgeGraph
//  4. Discard it; a changed document set requires a new Build
package graph

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/sara/services/sara/model"
)

// Sentinel errors for graph operations.
var (
	// ErrGraphFrozen is returned when attempting to modify a frozen graph.
	ErrGraphFrozen = errors.New("graph is frozen and cannot be modified")

	// ErrDuplicateIdentifier is returned when two records share an identifier.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrMalformedRecord is returned when a record is missing a required
	// field or carries an invalid value.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrEmptySourceSet is returned when no records were supplied and the
	// builder was configured to require at least one.
	ErrEmptySourceSet = errors.New("no items supplied")

	// ErrNodeNotFound is returned when an edge references a missing node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrBuildCancelled is returned when a build is cancelled via context.
	ErrBuildCancelled = errors.New("build cancelled")
)

// DuplicateIdentifierError names both declarations of a reused identifier.
type DuplicateIdentifierError struct {
	// ID is the conflicting identifier.
	ID string

	// First is where the identifier was first declared.
	First model.SourceLocation

	// Second is the later, conflicting declaration.
	Second model.SourceLocation
}

// Error implements the error interface.
func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("duplicate identifier %s: declared in %s and %s", e.ID, e.First.Full(), e.Second.Full())
}

// Unwrap returns ErrDuplicateIdentifier for errors.Is support.
func (e *DuplicateIdentifierError) Unwrap() error {
	return ErrDuplicateIdentifier
}

// MalformedRecordError reports a record that could not become an item.
type MalformedRecordError struct {
	// ID is the record identifier, possibly empty.
	ID string

	// Source is where the record was read from.
	Source model.SourceLocation

	// Err is the underlying model error, usually a *model.FieldError.
	Err error
}

// Error implements the error interface.
func (e *MalformedRecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("malformed record at %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("malformed record %s at %s: %v", e.ID, e.Source, e.Err)
}

// Unwrap returns both ErrMalformedRecord and the underlying error.
func (e *MalformedRecordError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}
