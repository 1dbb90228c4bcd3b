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
	"io/fs"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sara/pkg/ux"
	"github.com/AleutianAI/sara/services/sara/authoring"
	"github.com/AleutianAI/sara/services/sara/config"
	"github.com/AleutianAI/sara/services/sara/model"
	"github.com/AleutianAI/sara/services/sara/parser"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type initFlags struct {
	id            string
	name          string
	description   string
	force         bool
	relationships map[model.RelationshipKind]*[]string
	specification string
	platform      string
	status        string
	deciders      []string
}

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// newInitCommand creates "sara init" and its subcommands.
func newInitCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create item documents or a default sara.yaml",
		Long: `Add item frontmatter to a Markdown file, creating the file when it
does not exist. Each item type has its own subcommand with flags for the
fields and relationships that type can declare. Without --id the next
free PREFIX-NNN identifier in the configured repositories is used.

Run without a subcommand on a terminal to be asked for each field.

Examples:
  sara init use-case docs/UC-003.md --refines SOL-001
  sara init sysreq docs/reqs/latency.md --derives-from SCEN-002 \
      --specification "The system SHALL answer within 200ms."
  sara init adr docs/adr/0007.md --justifies SYSARCH-001 --deciders Alice,Bob
  sara init config`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInitInteractive(cmd, a)
		},
	}

	cmd.AddCommand(newInitConfigCommand(a))
	for _, kind := range model.AllKinds() {
		cmd.AddCommand(newInitItemCommand(a, kind))
	}
	return cmd
}

// newInitConfigCommand creates "sara init config".
//
// It replaces the root setup: the file it creates may be the one
// --config names, so loading it first would fail.
func newInitConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Write a default sara.yaml",
		Long: `Write the default configuration to ./sara.yaml, or to the path
given with --config. An existing file is never overwritten.`,
		Args: exactArgs(0),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			ux.InitPersonality(!a.flags.noColor, !a.flags.noEmoji)
			a.printer = ux.NewPrinter(a.stdout, a.stderr, ux.GetPersonality())
			return nil
		},
		RunE: func(*cobra.Command, []string) error {
			path := a.flags.configPath
			if path == "" {
				path = config.DefaultFileName
			}
			if err := config.WriteDefault(path); err != nil {
				if errors.Is(err, fs.ErrExist) {
					return fmt.Errorf("%s already exists", path)
				}
				return err
			}
			a.printer.Success(fmt.Sprintf("Wrote %s", path))
			return nil
		},
	}
}

// newInitItemCommand creates "sara init <type>" for one item kind.
func newInitItemCommand(a *app, kind model.Kind) *cobra.Command {
	flags := initFlags{relationships: map[model.RelationshipKind]*[]string{}}

	aliases := []string{strings.ToLower(kind.Prefix())}
	if commandName(kind) != kind.String() {
		aliases = append(aliases, kind.String())
	}
	cmd := &cobra.Command{
		Use:     commandName(kind) + " FILE",
		Aliases: aliases,
		Short:   fmt.Sprintf("Create a %s document", kind.DisplayName()),
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitItem(cmd, a, kind, &flags, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.id, "id", "", fmt.Sprintf("Identifier (default: next free %s-NNN)", kind.Prefix()))
	f.StringVar(&flags.name, "name", "", "Display name (default: first heading, then file name)")
	f.StringVarP(&flags.description, "description", "d", "", "Short description")
	f.BoolVar(&flags.force, "force", false, "Replace frontmatter the file already has")
	for _, rel := range authoring.DeclarableRelationships(kind) {
		targets := new([]string)
		flags.relationships[rel] = targets
		f.StringSliceVar(targets, flagName(rel), nil, relationshipUsage(kind, rel))
	}

	switch kind.Family() {
	case model.FamilyRequirement:
		f.StringVar(&flags.specification, model.FieldSpecification, "", "Requirement statement using an RFC 2119 keyword")
	case model.FamilyArchitecture:
		f.StringVar(&flags.platform, model.FieldPlatform, "", "Target platform")
	case model.FamilyDecision:
		f.StringVar(&flags.status, model.FieldStatus, string(model.StatusProposed), "proposed, accepted, deprecated or superseded")
		f.StringSliceVar(&flags.deciders, model.FieldDeciders, nil, "People who made the decision, comma separated")
	}
	return cmd
}

// commandName is the kind's frontmatter value with dashes.
func commandName(kind model.Kind) string {
	return strings.ReplaceAll(kind.String(), "_", "-")
}

func flagName(rel model.RelationshipKind) string {
	return strings.ReplaceAll(rel.FieldName(), "_", "-")
}

func relationshipUsage(kind model.Kind, rel model.RelationshipKind) string {
	var targets []string
	for _, k := range model.ValidTargets(kind, rel) {
		targets = append(targets, k.Prefix())
	}
	return fmt.Sprintf("%s targets (%s), repeatable or comma separated", rel.FieldName(), strings.Join(targets, ", "))
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runInitItem(cmd *cobra.Command, a *app, kind model.Kind, flags *initFlags, file string) error {
	d := authoring.Draft{
		Kind:          kind,
		ID:            strings.TrimSpace(flags.id),
		Name:          flags.name,
		Description:   strings.TrimSpace(flags.description),
		Relationships: map[model.RelationshipKind][]string{},
		Specification: strings.TrimSpace(flags.specification),
		Platform:      strings.TrimSpace(flags.platform),
		Status:        strings.TrimSpace(flags.status),
		Deciders:      cleanList(flags.deciders),
	}
	for rel, targets := range flags.relationships {
		if list := cleanList(*targets); len(list) > 0 {
			d.Relationships[rel] = list
		}
	}
	if d.ID == "" {
		d.ID = a.suggestID(cmd.Context(), kind)
	}
	return a.initItem(file, d, flags.force)
}

// initItem writes d to file and reports the result.
func (a *app) initItem(file string, d authoring.Draft, force bool) error {
	res, err := authoring.Init(file, d, authoring.WithForce(force), authoring.WithLogger(a.log()))
	switch {
	case errors.Is(err, authoring.ErrFrontmatterExists):
		return fmt.Errorf("%s already has frontmatter; use --force to overwrite", file)
	case errors.Is(err, authoring.ErrNotApplicable),
		errors.Is(err, model.ErrInvalidID),
		errors.Is(err, model.ErrInvalidStatus):
		return usageError(err)
	case err != nil:
		return err
	}

	verb := "Created"
	switch {
	case res.Replaced:
		verb = "Replaced frontmatter of"
	case !res.Created:
		verb = "Added frontmatter to"
	}
	a.printer.Success(fmt.Sprintf("%s %s: %s %s (%s)", verb, res.Path, res.Kind.DisplayName(), res.ID, res.Name))
	for _, field := range res.Placeholders {
		a.printer.Warning(fmt.Sprintf("%s has a placeholder %s; edit it before validating", res.ID, field))
	}
	return nil
}

// suggestID returns the next free identifier for kind in the configured
// repositories. A graph that cannot be loaded is treated as empty.
func (a *app) suggestID(ctx context.Context, kind model.Kind) string {
	g, err := a.loadGraph(ctx, nil)
	if err != nil {
		a.log().Warn("cannot load graph for id suggestion", slog.String("error", err.Error()))
		return authoring.NextID(nil, kind)
	}
	return authoring.NextID(g.IDs(), kind)
}

// cleanList trims entries and drops empty ones.
func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// =============================================================================
// INTERACTIVE
// =============================================================================

// runInitInteractive asks for the item type, file and fields.
func runInitInteractive(cmd *cobra.Command, a *app) error {
	if !ux.IsInteractive(a.stdin, a.stdout) {
		return usageError(errors.New("choose an item type, e.g. \"sara init use-case FILE\", or run on a terminal"))
	}
	ctx := cmd.Context()

	var kindValue, file string
	options := make([]ux.PromptOption, 0, len(model.AllKinds()))
	for _, k := range model.AllKinds() {
		options = append(options, ux.PromptOption{Label: k.DisplayName(), Description: k.Prefix(), Value: k.String()})
	}
	err := ux.NewForm(a.stdin, a.stdout).
		Select("Item type", options, &kindValue).
		Text("File", "Markdown file to create or annotate", &file, requireMarkdown).
		Run(ctx)
	if err != nil {
		return promptError(err)
	}
	kind, err := model.ParseKind(kindValue)
	if err != nil {
		return usageError(err)
	}

	d := authoring.Draft{Kind: kind, ID: a.suggestID(ctx, kind)}
	answers := newDraftAnswers(kind)
	form := ux.NewForm(a.stdin, a.stdout).
		Text("Identifier", "", &d.ID, model.ValidateID).
		Text("Name", "Leave empty to use the first heading or file name", &d.Name, nil).
		Text("Description", "", &d.Description, nil)
	answers.addTo(form)
	if err := form.Run(ctx); err != nil {
		return promptError(err)
	}
	answers.apply(&d)
	return a.initItem(strings.TrimSpace(file), d, false)
}

// draftAnswers holds the kind-specific prompt values as text.
type draftAnswers struct {
	kind          model.Kind
	relationships map[model.RelationshipKind]*string
	specification string
	platform      string
	status        string
	deciders      string
}

func newDraftAnswers(kind model.Kind) *draftAnswers {
	ans := &draftAnswers{
		kind:          kind,
		relationships: map[model.RelationshipKind]*string{},
		status:        string(model.StatusProposed),
	}
	for _, rel := range authoring.DeclarableRelationships(kind) {
		ans.relationships[rel] = new(string)
	}
	return ans
}

// addTo appends the kind's fields to form.
func (ans *draftAnswers) addTo(form *ux.Form) {
	for _, rel := range authoring.DeclarableRelationships(ans.kind) {
		form.Text(rel.FieldName(), "Comma separated identifiers", ans.relationships[rel], nil)
	}
	switch ans.kind.Family() {
	case model.FamilyRequirement:
		form.Text(model.FieldSpecification, "e.g. The system SHALL ...", &ans.specification, nil)
	case model.FamilyArchitecture:
		form.Text(model.FieldPlatform, "", &ans.platform, nil)
	case model.FamilyDecision:
		form.Select(model.FieldStatus, statusOptions(), &ans.status)
		form.Text(model.FieldDeciders, "Comma separated names", &ans.deciders, nil)
	}
}

func (ans *draftAnswers) apply(d *authoring.Draft) {
	d.Relationships = map[model.RelationshipKind][]string{}
	for rel, text := range ans.relationships {
		if list := splitList(*text); len(list) > 0 {
			d.Relationships[rel] = list
		}
	}
	d.Specification = strings.TrimSpace(ans.specification)
	d.Platform = strings.TrimSpace(ans.platform)
	if ans.kind.Family() == model.FamilyDecision {
		d.Status = ans.status
		d.Deciders = splitList(ans.deciders)
	}
}

func statusOptions() []ux.PromptOption {
	var out []ux.PromptOption
	for _, s := range []model.DecisionStatus{model.StatusProposed, model.StatusAccepted, model.StatusDeprecated, model.StatusSuperseded} {
		out = append(out, ux.PromptOption{Label: string(s), Value: string(s)})
	}
	return out
}

func requireMarkdown(path string) error {
	if !parser.IsMarkdown(strings.TrimSpace(path)) {
		return errors.New("must end in .md or .markdown")
	}
	return nil
}

// splitList parses a comma separated answer.
func splitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

// promptError maps an aborted form to a quiet failure.
func promptError(err error) error {
	if errors.Is(err, ux.ErrPromptAborted) {
		return &ExitError{Code: exitFailure, Err: errors.New("cancelled")}
	}
	return err
}
