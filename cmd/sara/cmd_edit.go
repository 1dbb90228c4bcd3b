// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sara/pkg/ux"
	"github.com/AleutianAI/sara/services/sara/authoring"
	"github.com/AleutianAI/sara/services/sara/model"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type editFlags struct {
	name          string
	description   string
	relationships map[model.RelationshipKind]*[]string
	specification string
	platform      string
	status        string
	deciders      []string
}

// changes collects the flags the user set. Unset flags are left nil so
// Edit leaves their fields alone.
func (f *editFlags) changes(cmd *cobra.Command) authoring.Changes {
	set := cmd.Flags().Changed
	var c authoring.Changes
	if set("name") {
		c.Name = &f.name
	}
	if set("description") {
		c.Description = &f.description
	}
	for rel, targets := range f.relationships {
		if set(flagName(rel)) {
			if c.Relationships == nil {
				c.Relationships = map[model.RelationshipKind][]string{}
			}
			c.Relationships[rel] = cleanList(*targets)
		}
	}
	if set(model.FieldSpecification) {
		c.Specification = &f.specification
	}
	if set(model.FieldPlatform) {
		c.Platform = &f.platform
	}
	if set(model.FieldStatus) {
		c.Status = &f.status
	}
	if set(model.FieldDeciders) {
		c.Deciders = cleanList(f.deciders)
		if c.Deciders == nil {
			c.Deciders = []string{}
		}
	}
	return c
}

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// newEditCommand creates "sara edit".
func newEditCommand(a *app) *cobra.Command {
	flags := editFlags{relationships: map[model.RelationshipKind]*[]string{}}

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of an existing item",
		Long: `Rewrite frontmatter fields of the document that declares ID. Only
the fields given are changed; a relationship flag replaces every target
of that relationship, and an empty value removes it. Other keys and the
document body are kept.

Without flags on a terminal, each field is asked for with its current
value filled in.

Examples:
  sara edit UC-003 --name "Sign in with SSO"
  sara edit SWREQ-010 --specification "The service SHALL retry twice."
  sara edit SYSARCH-002 --satisfies SYSREQ-001,SYSREQ-004`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, a, &flags, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.name, "name", "", "New display name")
	f.StringVarP(&flags.description, "description", "d", "", "New description, empty to remove")
	for _, rel := range model.AllRelationshipKinds() {
		if !rel.IsPrimary() {
			continue
		}
		targets := new([]string)
		flags.relationships[rel] = targets
		f.StringSliceVar(targets, flagName(rel), nil, fmt.Sprintf("Replace %s targets", rel.FieldName()))
	}
	f.StringVar(&flags.specification, model.FieldSpecification, "", "New requirement statement (requirements only)")
	f.StringVar(&flags.platform, model.FieldPlatform, "", "New platform (system architecture only)")
	f.StringVar(&flags.status, model.FieldStatus, "", "New decision status (decision records only)")
	f.StringSliceVar(&flags.deciders, model.FieldDeciders, nil, "Replace deciders (decision records only)")
	return cmd
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runEdit(cmd *cobra.Command, a *app, flags *editFlags, id string) error {
	ctx := cmd.Context()
	g, err := a.loadGraph(ctx, nil)
	if err != nil {
		return err
	}
	item, err := a.lookup(g, id)
	if err != nil {
		return err
	}

	changes := flags.changes(cmd)
	if changes.Empty() {
		if !ux.IsInteractive(a.stdin, a.stdout) {
			return usageError(errors.New("no changes given; pass at least one field flag or run on a terminal"))
		}
		if changes, err = promptEdit(ctx, a, item); err != nil {
			return promptError(err)
		}
	}

	res, err := authoring.Edit(item, changes, authoring.WithLogger(a.log()))
	switch {
	case errors.Is(err, authoring.ErrNotApplicable),
		errors.Is(err, authoring.ErrEmptyValue),
		errors.Is(err, authoring.ErrNoChanges),
		errors.Is(err, model.ErrInvalidStatus):
		return usageError(err)
	case err != nil:
		return err
	}

	if len(res.Changes) == 0 {
		a.printer.Info(fmt.Sprintf("%s already has these values", res.ID))
		return nil
	}
	a.printer.Success(fmt.Sprintf("Updated %s in %s", res.ID, res.Path))
	for _, c := range res.Changes {
		a.printer.Info(fmt.Sprintf("  %s: %q -> %q", c.Field, c.Old, c.New))
	}
	return nil
}

// promptEdit asks for every field the item's kind can carry, prefilled
// with the current values. Edit drops the answers left unchanged.
func promptEdit(ctx context.Context, a *app, item *model.Item) (authoring.Changes, error) {
	kind := item.Kind()
	name, description := item.Name(), item.Description()
	form := ux.NewForm(a.stdin, a.stdout).
		Text("Name", "", &name, nil).
		Text("Description", "Empty removes it", &description, nil)

	rels := map[model.RelationshipKind]*string{}
	for _, rel := range authoring.DeclarableRelationships(kind) {
		var targets []string
		for _, r := range item.Declared() {
			if r.Kind == rel {
				targets = append(targets, r.To)
			}
		}
		text := strings.Join(targets, ", ")
		rels[rel] = &text
		form.Text(rel.FieldName(), "Comma separated identifiers, empty removes it", &text, nil)
	}

	spec, _ := item.Specification()
	platform := item.Platform()
	decision, _ := item.Decision()
	status, deciders := string(decision.Status), strings.Join(decision.Deciders, ", ")
	switch kind.Family() {
	case model.FamilyRequirement:
		form.Text(model.FieldSpecification, "", &spec, nil)
	case model.FamilyArchitecture:
		form.Text(model.FieldPlatform, "", &platform, nil)
	case model.FamilyDecision:
		form.Select(model.FieldStatus, statusOptions(), &status)
		form.Text(model.FieldDeciders, "Comma separated names", &deciders, nil)
	}

	if err := form.Run(ctx); err != nil {
		return authoring.Changes{}, err
	}

	c := authoring.Changes{
		Name:          &name,
		Description:   &description,
		Relationships: map[model.RelationshipKind][]string{},
	}
	for rel, text := range rels {
		c.Relationships[rel] = splitList(*text)
	}
	switch kind.Family() {
	case model.FamilyRequirement:
		c.Specification = &spec
	case model.FamilyArchitecture:
		c.Platform = &platform
	case model.FamilyDecision:
		c.Status = &status
		c.Deciders = splitList(deciders)
	}
	return c, nil
}
