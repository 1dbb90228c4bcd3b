// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package authoring

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/sara/services/sara/model"
	"github.com/AleutianAI/sara/services/sara/parser"
)

// Placeholder values written when a required attribute is not given.
const (
	PlaceholderSpecification = "The system SHALL <describe the requirement>."
	PlaceholderDecider       = "TBD"
)

// =============================================================================
// OPTIONS
// =============================================================================

type options struct {
	force  bool
	logger *slog.Logger
}

// Option configures Init and Edit.
type Option func(*options)

// WithForce lets Init replace frontmatter that is already present.
func WithForce(force bool) Option {
	return func(o *options) { o.force = force }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// =============================================================================
// DRAFT
// =============================================================================

// Draft describes the frontmatter of a new item document.
type Draft struct {
	// Kind is the item type. Required.
	Kind model.Kind

	// ID is the identifier. Required; see NextID.
	ID string

	// Name is the display name. When empty, the first heading of an
	// existing file is used, then the file name without extension.
	Name string

	// Description is optional.
	Description string

	// Relationships maps primary relationship kinds to target
	// identifiers. Each kind must be declarable by Kind.
	Relationships map[model.RelationshipKind][]string

	// Specification applies to requirement kinds. Empty writes
	// PlaceholderSpecification.
	Specification string

	// Platform applies to system architecture.
	Platform string

	// Status applies to decision records. Empty means proposed.
	Status string

	// Deciders applies to decision records. Empty writes
	// PlaceholderDecider.
	Deciders []string
}

// InitResult describes the document Init wrote.
type InitResult struct {
	// Path is the file written.
	Path string

	// ID, Name and Kind are the values written.
	ID   string
	Name string
	Kind model.Kind

	// Created is true when the file did not exist before.
	Created bool

	// Replaced is true when existing frontmatter was overwritten.
	Replaced bool

	// Placeholders lists the fields that received placeholder values.
	Placeholders []string
}

// CanDeclare reports whether an item of kind may declare rel in its
// frontmatter.
func CanDeclare(kind model.Kind, rel model.RelationshipKind) bool {
	return rel.IsPrimary() && len(model.ValidTargets(kind, rel)) > 0
}

// DeclarableRelationships returns the primary relationship kinds kind
// may declare, in field order.
func DeclarableRelationships(kind model.Kind) []model.RelationshipKind {
	var out []model.RelationshipKind
	for _, rel := range model.AllRelationshipKinds() {
		if CanDeclare(kind, rel) {
			out = append(out, rel)
		}
	}
	return out
}

// =============================================================================
// INIT
// =============================================================================

// Init writes item frontmatter into the Markdown file at path.
//
// Description:
//
//	A missing file is created, along with its parent directories, holding
//	the frontmatter and a "# Name" heading. An existing file without
//	frontmatter gets it prepended. An existing file with frontmatter is
//	refused unless WithForce(true) is given, in which case only the
//	frontmatter is replaced and the body kept.
//
// Inputs:
//
//	path - The document to write.
//	d - The item to declare. Kind and ID are required.
//	opts - WithForce, WithLogger.
//
// Outputs:
//
//	InitResult - What was written.
//	error - ErrFrontmatterExists, ErrNotApplicable, model.ErrInvalidID,
//	        model.ErrUnknownKind, model.ErrInvalidStatus or an I/O error.
//
// Example:
//
//	res, err := authoring.Init("docs/UC-3.md", authoring.Draft{
//	    Kind:          model.KindUseCase,
//	    ID:            "UC-3",
//	    Relationships: map[model.RelationshipKind][]string{model.RelRefines: {"SOL-1"}},
//	})
func Init(path string, d Draft, opts ...Option) (InitResult, error) {
	o := newOptions(opts)

	if !d.Kind.Valid() {
		return InitResult{}, fmt.Errorf("%w: %s", model.ErrUnknownKind, d.Kind)
	}
	if err := model.ValidateID(d.ID); err != nil {
		return InitResult{}, err
	}
	if err := checkDraft(d); err != nil {
		return InitResult{}, err
	}

	res := InitResult{Path: path, ID: d.ID, Kind: d.Kind}
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		res.Created = true
	case err != nil:
		return InitResult{}, fmt.Errorf("reading %s: %w", path, err)
	case parser.HasFrontmatter(content) && !o.force:
		return InitResult{}, fmt.Errorf("%w: %s", ErrFrontmatterExists, path)
	case parser.HasFrontmatter(content):
		res.Replaced = true
	}

	res.Name = resolveName(d.Name, path, content)
	fields, placeholders := d.fields(res.Name)
	res.Placeholders = placeholders

	var out []byte
	if res.Created {
		header, err := parser.RenderFrontmatter(fields)
		if err != nil {
			return InitResult{}, err
		}
		out = append(header, "# "+res.Name+"\n"...)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return InitResult{}, fmt.Errorf("creating directory for %s: %w", path, err)
		}
	} else {
		out, err = parser.WithFrontmatter(content, fields)
		if err != nil {
			return InitResult{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return InitResult{}, fmt.Errorf("writing %s: %w", path, err)
	}
	o.logger.Info("item document initialized",
		slog.String("path", path),
		slog.String("id", d.ID),
		slog.String("type", d.Kind.String()),
		slog.Bool("created", res.Created),
		slog.Bool("replaced", res.Replaced))
	return res, nil
}

// checkDraft rejects fields the kind cannot carry.
func checkDraft(d Draft) error {
	for rel, targets := range d.Relationships {
		if len(targets) > 0 && !CanDeclare(d.Kind, rel) {
			return notApplicable(rel.FieldName(), d.Kind)
		}
	}
	if d.Specification != "" && !d.Kind.IsRequirement() {
		return notApplicable(model.FieldSpecification, d.Kind)
	}
	if d.Platform != "" && d.Kind.Family() != model.FamilyArchitecture {
		return notApplicable(model.FieldPlatform, d.Kind)
	}
	if d.Kind.Family() != model.FamilyDecision {
		if d.Status != "" {
			return notApplicable(model.FieldStatus, d.Kind)
		}
		if len(d.Deciders) > 0 {
			return notApplicable(model.FieldDeciders, d.Kind)
		}
		return nil
	}
	if d.Status != "" {
		if _, err := model.ParseDecisionStatus(d.Status); err != nil {
			return err
		}
	}
	return nil
}

func notApplicable(field string, kind model.Kind) error {
	return fmt.Errorf("%w: %s on %s", ErrNotApplicable, field, kind.DisplayName())
}

// fields orders the draft as id, type, name, description, relationships,
// then kind attributes.
func (d Draft) fields(name string) ([]parser.Field, []string) {
	fields := []parser.Field{
		parser.ScalarField("id", d.ID),
		parser.ScalarField("type", d.Kind.String()),
		parser.ScalarField("name", name),
	}
	if d.Description != "" {
		fields = append(fields, parser.ScalarField("description", d.Description))
	}
	for _, rel := range model.AllRelationshipKinds() {
		if targets := d.Relationships[rel]; len(targets) > 0 {
			fields = append(fields, parser.ListField(rel.FieldName(), targets...))
		}
	}

	var placeholders []string
	switch d.Kind.Family() {
	case model.FamilyRequirement:
		spec := d.Specification
		if spec == "" {
			spec = PlaceholderSpecification
			placeholders = append(placeholders, model.FieldSpecification)
		}
		fields = append(fields, parser.ScalarField(model.FieldSpecification, spec))
	case model.FamilyArchitecture:
		if d.Platform != "" {
			fields = append(fields, parser.ScalarField(model.FieldPlatform, d.Platform))
		}
	case model.FamilyDecision:
		status := d.Status
		if status == "" {
			status = string(model.StatusProposed)
		}
		deciders := d.Deciders
		if len(deciders) == 0 {
			deciders = []string{PlaceholderDecider}
			placeholders = append(placeholders, model.FieldDeciders)
		}
		fields = append(fields,
			parser.ScalarField(model.FieldStatus, status),
			parser.ListField(model.FieldDeciders, deciders...))
	}
	return fields, placeholders
}

// resolveName picks the explicit name, then the first heading of
// content, then the file stem.
func resolveName(name, path string, content []byte) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	body := string(content)
	if fm, err := parser.ExtractFrontmatter(content); err == nil {
		body = fm.Body
	}
	if heading, ok := parser.FirstHeading(body); ok {
		return heading
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
