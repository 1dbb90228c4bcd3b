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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/AleutianAI/sara/services/sara/model"
	"github.com/AleutianAI/sara/services/sara/parser"
)

// Changes lists the fields Edit rewrites.
//
// Nil pointers, nil slices and relationship kinds absent from the map
// are left untouched. An empty relationship list removes the field.
type Changes struct {
	Name          *string
	Description   *string
	Relationships map[model.RelationshipKind][]string
	Specification *string
	Platform      *string
	Status        *string
	Deciders      []string
}

// Empty reports whether c rewrites nothing.
func (c Changes) Empty() bool {
	return c.Name == nil && c.Description == nil && len(c.Relationships) == 0 &&
		c.Specification == nil && c.Platform == nil && c.Status == nil && c.Deciders == nil
}

// FieldChange records one rewritten field.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// EditResult describes what Edit rewrote.
type EditResult struct {
	Path    string        `json:"path"`
	ID      string        `json:"id"`
	Changes []FieldChange `json:"changes"`
}

// DocumentPath returns the file an item was read from.
//
// Outputs:
//
//	string - Repository joined with the relative file path.
//	error - ErrNotWorkingTree for items read at a git revision.
func DocumentPath(item *model.Item) (string, error) {
	src := item.Source()
	if src.GitRef != "" {
		return "", fmt.Errorf("%w: %s is at %s", ErrNotWorkingTree, item.ID(), src.GitRef)
	}
	return filepath.Join(src.Repository, filepath.FromSlash(src.FilePath)), nil
}

// Edit rewrites selected frontmatter fields of item's document.
//
// Description:
//
//	The document is located with DocumentPath. Every change is checked
//	against the item's kind before the file is touched. Fields whose new
//	value equals the current one are not reported. Keys not named by c
//	keep their value and position.
//
// Inputs:
//
//	item - The item as built from the working tree.
//	c - The fields to rewrite.
//	opts - WithLogger.
//
// Outputs:
//
//	EditResult - The file and the fields that changed.
//	error - ErrNoChanges, ErrNotApplicable, ErrEmptyValue,
//	        ErrNotWorkingTree, model.ErrInvalidStatus or an I/O error.
func Edit(item *model.Item, c Changes, opts ...Option) (EditResult, error) {
	o := newOptions(opts)

	if c.Empty() {
		return EditResult{}, ErrNoChanges
	}
	if err := checkChanges(item.Kind(), c); err != nil {
		return EditResult{}, err
	}
	path, err := DocumentPath(item)
	if err != nil {
		return EditResult{}, err
	}

	fields, changes := diffFields(item, c)
	res := EditResult{Path: path, ID: item.ID(), Changes: changes}
	if len(changes) == 0 {
		return res, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return EditResult{}, fmt.Errorf("reading %s: %w", path, err)
	}
	out, err := parser.UpdateFrontmatter(content, fields)
	if err != nil {
		return EditResult{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return EditResult{}, fmt.Errorf("writing %s: %w", path, err)
	}

	o.logger.Info("item document edited",
		slog.String("path", path),
		slog.String("id", item.ID()),
		slog.Int("fields", len(changes)))
	return res, nil
}

func checkChanges(kind model.Kind, c Changes) error {
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		return fmt.Errorf("%w: name", ErrEmptyValue)
	}
	for rel := range c.Relationships {
		if !CanDeclare(kind, rel) {
			return notApplicable(rel.FieldName(), kind)
		}
	}
	if c.Specification != nil {
		if !kind.IsRequirement() {
			return notApplicable(model.FieldSpecification, kind)
		}
		if strings.TrimSpace(*c.Specification) == "" {
			return fmt.Errorf("%w: %s", ErrEmptyValue, model.FieldSpecification)
		}
	}
	if c.Platform != nil && kind.Family() != model.FamilyArchitecture {
		return notApplicable(model.FieldPlatform, kind)
	}
	if c.Status != nil || c.Deciders != nil {
		if kind.Family() != model.FamilyDecision {
			field := model.FieldStatus
			if c.Status == nil {
				field = model.FieldDeciders
			}
			return notApplicable(field, kind)
		}
		if c.Status != nil {
			if _, err := model.ParseDecisionStatus(*c.Status); err != nil {
				return err
			}
		}
		if c.Deciders != nil && len(c.Deciders) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyValue, model.FieldDeciders)
		}
	}
	return nil
}

// diffFields turns c into frontmatter writes, dropping no-op changes.
func diffFields(item *model.Item, c Changes) ([]parser.Field, []FieldChange) {
	var (
		fields  []parser.Field
		changes []FieldChange
	)
	scalar := func(key, old string, next *string, removeEmpty bool) {
		if next == nil {
			return
		}
		value := strings.TrimSpace(*next)
		if value == old {
			return
		}
		changes = append(changes, FieldChange{Field: key, Old: old, New: value})
		if value == "" && removeEmpty {
			fields = append(fields, parser.RemoveField(key))
			return
		}
		fields = append(fields, parser.ScalarField(key, value))
	}

	scalar("name", item.Name(), c.Name, false)
	scalar("description", item.Description(), c.Description, true)

	for _, rel := range model.AllRelationshipKinds() {
		next, ok := c.Relationships[rel]
		if !ok {
			continue
		}
		old := declaredTargets(item, rel)
		if slices.Equal(old, next) {
			continue
		}
		changes = append(changes, FieldChange{
			Field: rel.FieldName(),
			Old:   strings.Join(old, ", "),
			New:   strings.Join(next, ", "),
		})
		if len(next) == 0 {
			fields = append(fields, parser.RemoveField(rel.FieldName()))
			continue
		}
		fields = append(fields, parser.ListField(rel.FieldName(), next...))
	}

	spec, _ := item.Specification()
	scalar(model.FieldSpecification, spec, c.Specification, false)
	scalar(model.FieldPlatform, item.Platform(), c.Platform, true)

	decision, _ := item.Decision()
	scalar(model.FieldStatus, string(decision.Status), c.Status, false)
	if c.Deciders != nil && !slices.Equal(decision.Deciders, c.Deciders) {
		changes = append(changes, FieldChange{
			Field: model.FieldDeciders,
			Old:   strings.Join(decision.Deciders, ", "),
			New:   strings.Join(c.Deciders, ", "),
		})
		fields = append(fields, parser.ListField(model.FieldDeciders, c.Deciders...))
	}
	return fields, changes
}

// declaredTargets returns the targets item declares under rel, in
// declaration order.
func declaredTargets(item *model.Item, rel model.RelationshipKind) []string {
	var out []string
	for _, r := range item.Declared() {
		if r.Kind == rel {
			out = append(out, r.To)
		}
	}
	return out
}
