// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
)

var tracer = otel.Tracer("sara.validate")

// Option configures a Validator.
type Option func(*Validator)

// WithConfig sets the rule configuration.
func WithConfig(cfg Config) Option {
	return func(v *Validator) {
		v.config = cfg
	}
}

// WithRules replaces the rule set. Rules report in the given order.
func WithRules(rules ...Rule) Option {
	return func(v *Validator) {
		v.rules = rules
	}
}

// WithParallelism bounds the number of rules running at once.
func WithParallelism(n int) Option {
	return func(v *Validator) {
		v.parallelism = n
	}
}

// Validator runs a fixed set of rules over a knowledge graph.
//
// Thread Safety:
//
//	Validator is immutable after New and safe for concurrent use.
type Validator struct {
	config      Config
	rules       []Rule
	parallelism int
}

// New creates a Validator with DefaultRules and permissive orphan handling.
func New(opts ...Option) *Validator {
	v := &Validator{
		rules:       DefaultRules(),
		parallelism: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.parallelism <= 0 {
		v.parallelism = 1
	}
	return v
}

// Config returns the rule configuration.
func (v *Validator) Config() Config {
	return v.config
}

// Validate runs every rule against g and aggregates the findings.
//
// Description:
//
//	Rules run concurrently; each writes only its own result slot, and the
//	slots are concatenated in rule order so the report is deterministic.
//	The graph is read-only, so no locking is involved.
//
// Inputs:
//
//	ctx - Carries the trace span. Rules are CPU-bound and not interrupted.
//	g - A frozen knowledge graph.
//
// Outputs:
//
//	*Report - Never nil.
func (v *Validator) Validate(ctx context.Context, g *graph.KnowledgeGraph) *Report {
	ctx, span := tracer.Start(ctx, "Validator.Validate",
		trace.WithAttributes(
			attribute.Int("sara.item_count", g.Len()),
			attribute.Int("sara.rule_count", len(v.rules)),
		),
	)
	defer span.End()

	start := time.Now()
	results := make([][]Finding, len(v.rules))

	var eg errgroup.Group
	eg.SetLimit(v.parallelism)
	for i, rule := range v.rules {
		eg.Go(func() error {
			results[i] = rule.Check(g, v.config)
			return nil
		})
	}
	// Rules never return errors.
	_ = eg.Wait()

	report := &Report{
		RunID:       uuid.NewString(),
		Findings:    []Finding{},
		ItemsByKind: make(map[model.Kind]int),
	}
	for _, findings := range results {
		report.Findings = append(report.Findings, findings...)
	}
	for _, item := range g.Items() {
		report.ItemsChecked++
		report.ItemsByKind[item.Kind()]++
		report.RelationshipsChecked += len(item.Declared())
	}
	report.DurationMicro = time.Since(start).Microseconds()

	span.SetAttributes(
		attribute.Int("sara.error_count", report.ErrorCount()),
		attribute.Int("sara.warning_count", report.WarningCount()),
	)
	recordValidateMetrics(ctx, report)

	slog.Debug("validation completed",
		slog.String("run_id", report.RunID),
		slog.Int("items", report.ItemsChecked),
		slog.Int("errors", report.ErrorCount()),
		slog.Int("warnings", report.WarningCount()),
		slog.Duration("duration", time.Since(start)),
	)

	return report
}

// Validate is a convenience wrapper for New(WithConfig(...)).Validate.
func Validate(ctx context.Context, g *graph.KnowledgeGraph, strictOrphans bool) *Report {
	return New(WithConfig(Config{StrictOrphans: strictOrphans})).Validate(ctx, g)
}

// FindingFromBuildError converts a fatal build error into a finding.
//
// Outputs:
//
//	Finding - Error-severity finding describing err.
//	bool - False if err is not a duplicate or malformed-record error.
func FindingFromBuildError(err error) (Finding, bool) {
	var dup *graph.DuplicateIdentifierError
	if errors.As(err, &dup) {
		return duplicateFinding(dup.ID, dup.First, dup.Second), true
	}

	var malformed *graph.MalformedRecordError
	if !errors.As(err, &malformed) {
		return Finding{}, false
	}

	f := Finding{
		Severity: SeverityError,
		Location: locationPtr(malformed.Source),
	}
	if malformed.ID != "" {
		f.Related = []string{malformed.ID}
	}

	var fieldErr *model.FieldError
	field := ""
	if errors.As(malformed.Err, &fieldErr) {
		field = fieldErr.Field
	}

	switch {
	case errors.Is(malformed.Err, model.ErrInvalidID):
		f.Code = CodeInvalidID
		f.Message = fmt.Sprintf("Invalid item ID '%s': %v", malformed.ID, malformed.Err)
	case errors.Is(malformed.Err, model.ErrMissingField):
		f.Code = CodeMissingField
		f.Message = fmt.Sprintf("Missing required field '%s' in %s", field, malformed.Source.FilePath)
	default:
		f.Code = CodeInvalidMetadata
		f.Message = fmt.Sprintf("Invalid metadata in %s: %v", malformed.Source.FilePath, malformed.Err)
	}
	return f, true
}
