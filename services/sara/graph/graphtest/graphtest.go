// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graphtest provides record fixtures and build helpers for tests
// of packages that consume a knowledge graph.
package graphtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
)

// RecordBuilder assembles a model.Record fluently.
type RecordBuilder struct {
	rec model.Record
}

// Rec starts a record with the given identifier and kind value. The name
// defaults to the identifier and the file path to "<id>.md". Requirement
// kinds get a valid specification and decision records get accepted
// status with one decider, so the record builds unless overridden.
func Rec(id, kind string) *RecordBuilder {
	b := &RecordBuilder{rec: model.Record{
		ID:   id,
		Kind: kind,
		Name: id,
		Source: model.SourceLocation{
			Repository: "repo",
			FilePath:   id + ".md",
			Line:       1,
		},
	}}
	if k, err := model.ParseKind(kind); err == nil {
		switch k.Family() {
		case model.FamilyRequirement:
			b.Attr(model.FieldSpecification, "The system SHALL behave.")
		case model.FamilyDecision:
			b.Attr(model.FieldStatus, string(model.StatusAccepted))
			b.Attr(model.FieldDeciders, "Alice")
		}
	}
	return b
}

// Name sets the display name.
func (b *RecordBuilder) Name(name string) *RecordBuilder {
	b.rec.Name = name
	return b
}

// Description sets the description.
func (b *RecordBuilder) Description(d string) *RecordBuilder {
	b.rec.Description = d
	return b
}

// Rel appends relationship targets under a frontmatter field name.
func (b *RecordBuilder) Rel(field string, targets ...string) *RecordBuilder {
	if b.rec.Relationships == nil {
		b.rec.Relationships = map[string][]string{}
	}
	b.rec.Relationships[field] = append(b.rec.Relationships[field], targets...)
	return b
}

// Attr replaces the values of an attribute.
func (b *RecordBuilder) Attr(key string, values ...string) *RecordBuilder {
	if b.rec.Attributes == nil {
		b.rec.Attributes = map[string][]string{}
	}
	b.rec.Attributes[key] = values
	return b
}

// NoAttr removes an attribute.
func (b *RecordBuilder) NoAttr(key string) *RecordBuilder {
	delete(b.rec.Attributes, key)
	return b
}

// Custom appends custom frontmatter keys.
func (b *RecordBuilder) Custom(keys ...string) *RecordBuilder {
	b.rec.CustomFields = append(b.rec.CustomFields, keys...)
	return b
}

// At sets the source repository and file path.
func (b *RecordBuilder) At(repo, path string) *RecordBuilder {
	b.rec.Source.Repository = repo
	b.rec.Source.FilePath = path
	return b
}

// Record returns the assembled record.
func (b *RecordBuilder) Record() model.Record {
	return b.rec
}

// Records collects several builders.
func Records(builders ...*RecordBuilder) []model.Record {
	out := make([]model.Record, len(builders))
	for i, b := range builders {
		out[i] = b.Record()
	}
	return out
}

// MustBuild builds a graph and fails the test on a fatal error.
func MustBuild(t testing.TB, builders ...*RecordBuilder) *graph.KnowledgeGraph {
	t.Helper()
	g, err := graph.Build(context.Background(), Records(builders...))
	require.NoError(t, err)
	return g
}
