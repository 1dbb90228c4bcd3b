// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/sara/services/sara/model"
)

// ProgressPhase indicates which phase of building is in progress.
type ProgressPhase int

const (
	// ProgressPhaseCollecting indicates records are being turned into nodes.
	ProgressPhaseCollecting ProgressPhase = iota

	// ProgressPhaseResolving indicates relationships are being resolved.
	ProgressPhaseResolving

	// ProgressPhaseFinalizing indicates the graph is being frozen.
	ProgressPhaseFinalizing
)

// String returns the string representation of the ProgressPhase.
func (p ProgressPhase) String() string {
	switch p {
	case ProgressPhaseCollecting:
		return "collecting"
	case ProgressPhaseResolving:
		return "resolving"
	case ProgressPhaseFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// BuildProgress contains progress information during a build.
type BuildProgress struct {
	// Phase is the current build phase.
	Phase ProgressPhase

	// RecordsTotal is the total number of records.
	RecordsTotal int

	// NodesCreated is the number of items added so far.
	NodesCreated int

	// EdgesCreated is the number of edges added so far.
	EdgesCreated int
}

// ProgressFunc is a callback function for build progress updates.
type ProgressFunc func(progress BuildProgress)

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// WorkerCount is the number of parallel workers used within a phase.
	// Default: runtime.NumCPU()
	WorkerCount int

	// FailOnDuplicate aborts the build on the first reused identifier.
	// When false the later record is excluded and recorded as a Duplicate.
	// Default: true
	FailOnDuplicate bool

	// RequireItems makes an empty record set a fatal ErrEmptySourceSet.
	// Default: false
	RequireItems bool

	// ProgressCallback is called at the end of each phase. May be nil.
	ProgressCallback ProgressFunc

	// Logger receives debug output. Default: slog.Default()
	Logger *slog.Logger
}

// DefaultBuilderOptions returns sensible defaults.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		WorkerCount:     runtime.NumCPU(),
		FailOnDuplicate: true,
	}
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*BuilderOptions)

// WithWorkerCount sets the number of parallel workers.
func WithWorkerCount(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.WorkerCount = n
	}
}

// WithFailOnDuplicate controls duplicate identifier handling.
func WithFailOnDuplicate(fail bool) BuilderOption {
	return func(o *BuilderOptions) {
		o.FailOnDuplicate = fail
	}
}

// WithRequireItems makes an empty record set fatal.
func WithRequireItems(require bool) BuilderOption {
	return func(o *BuilderOptions) {
		o.RequireItems = require
	}
}

// WithProgressCallback sets the progress callback function.
func WithProgressCallback(fn ProgressFunc) BuilderOption {
	return func(o *BuilderOptions) {
		o.ProgressCallback = fn
	}
}

// WithLogger sets the builder's logger.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(o *BuilderOptions) {
		o.Logger = l
	}
}

// Builder constructs knowledge graphs from parsed item records.
//
// The builder holds only configuration. Each Build() call owns its own
// identifier registry and graph, so repeated or concurrent builds never
// share state.
//
// Thread Safety:
//
//	Builder is safe for concurrent use.
type Builder struct {
	options BuilderOptions
}

// NewBuilder creates a new Builder with the given options.
//
// Example:
//
//	builder := NewBuilder(
//	    WithWorkerCount(4),
//	    WithRequireItems(true),
//	)
func NewBuilder(opts ...BuilderOption) *Builder {
	options := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if options.WorkerCount <= 0 {
		options.WorkerCount = runtime.NumCPU()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Builder{
		options: options,
	}
}

// buildState holds mutable state during a single build operation.
type buildState struct {
	graph     *KnowledgeGraph
	stats     BuildStats
	items     []*model.Item
	startTime time.Time
}

// resolution is the outcome of resolving one declared relationship.
type resolution struct {
	rel      model.Relationship
	resolved bool
}

// Build constructs a knowledge graph from the given records.
//
// Description:
//
//	Runs two sequential phases. The node pass converts every record into
//	an item and registers it by identifier; the edge pass resolves each
//	declared relationship against the complete node index and inserts
//	the declared edge together with its inverse. Work inside each phase
//	is spread over a worker pool; results are merged in record order so
//	the output does not depend on scheduling.
//
// Inputs:
//
//	ctx - Context for cancellation. Checked between phases and per record.
//	records - Parsed item records from any number of source containers.
//
// Outputs:
//
//	*BuildResult - The frozen graph and build statistics.
//	error - Non-nil for fatal errors only; no partial graph is returned.
//
// Errors:
//
//	*MalformedRecordError - A record failed conversion (wraps ErrMalformedRecord)
//	*DuplicateIdentifierError - Identifier reused and FailOnDuplicate is set
//	ErrEmptySourceSet - No records and RequireItems is set
//	ErrBuildCancelled - Context cancelled (wraps ctx.Err())
//
// Build Phases:
//
//  1. COLLECT: Convert records to items and register nodes
//  2. RESOLVE: Resolve relationship targets, insert edges and inverses
//  3. FINALIZE: Record redundancies, freeze graph, compute cycles
func (b *Builder) Build(ctx context.Context, records []model.Record) (result *BuildResult, err error) {
	ctx, span := startBuildSpan(ctx, len(records))
	defer span.End()

	state := &buildState{
		graph:     newKnowledgeGraph(len(records)),
		startTime: time.Now(),
	}
	state.stats.RecordsProcessed = len(records)

	defer func() {
		duration := time.Since(state.startTime)
		state.stats.DurationMilli = duration.Milliseconds()
		state.stats.DurationMicro = duration.Microseconds()
		if result != nil {
			result.Stats = state.stats
		}
		setBuildSpanResult(span, state.stats, err)
		recordBuildMetrics(ctx, duration, state.stats, err == nil)
	}()

	if len(records) == 0 && b.options.RequireItems {
		return nil, ErrEmptySourceSet
	}

	// Phase 1: Collect records as nodes
	if err := b.collectPhase(ctx, state, records); err != nil {
		return nil, err
	}

	// Phase 2: Resolve relationships
	if err := b.resolvePhase(ctx, state); err != nil {
		return nil, err
	}

	// Phase 3: Finalize
	b.finalizePhase(state)

	b.options.Logger.Debug("knowledge graph built",
		slog.Int("items", state.stats.NodesCreated),
		slog.Int("edges", state.stats.EdgesCreated),
		slog.Int("unresolved", state.stats.UnresolvedReferences),
		slog.Int("redundant", state.stats.RedundantPairs),
	)

	return &BuildResult{Graph: state.graph}, nil
}

// collectPhase converts records in parallel, then registers nodes in
// record order so the first declaration of an identifier wins.
func (b *Builder) collectPhase(ctx context.Context, state *buildState, records []model.Record) error {
	items := make([]*model.Item, len(records))
	convErrs := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.options.WorkerCount)
	for i := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i], convErrs[i] = records[i].ToItem()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrBuildCancelled, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrBuildCancelled, err)
	}

	for i, convErr := range convErrs {
		if convErr != nil {
			return &MalformedRecordError{ID: records[i].ID, Source: records[i].Source, Err: convErr}
		}
	}

	state.items = make([]*model.Item, 0, len(items))
	for _, item := range items {
		if existing, ok := state.graph.nodes[item.ID()]; ok {
			dup := Duplicate{ID: item.ID(), First: existing.Item.Source(), Second: item.Source()}
			if b.options.FailOnDuplicate {
				return &DuplicateIdentifierError{ID: dup.ID, First: dup.First, Second: dup.Second}
			}
			b.options.Logger.Warn("duplicate identifier excluded",
				slog.String("id", dup.ID),
				slog.String("first", dup.First.Full()),
				slog.String("second", dup.Second.Full()),
			)
			state.graph.duplicates = append(state.graph.duplicates, dup)
			state.stats.DuplicatesSkipped++
			continue
		}
		if _, err := state.graph.addNode(item); err != nil {
			return err
		}
		state.items = append(state.items, item)
		state.stats.NodesCreated++
	}

	b.reportProgress(state, ProgressPhaseCollecting)
	return nil
}

// resolvePhase resolves every declared relationship of every registered
// item. Unresolvable targets are retained, not materialized.
func (b *Builder) resolvePhase(ctx context.Context, state *buildState) error {
	resolved := make([][]resolution, len(state.items))

	// The node index is complete and no longer written, so workers only read it.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.options.WorkerCount)
	for i, item := range state.items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			declared := item.Declared()
			out := make([]resolution, len(declared))
			for j, rel := range declared {
				out[j] = resolution{rel: rel, resolved: state.graph.Contains(rel.To)}
			}
			resolved[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrBuildCancelled, err)
	}

	for i, item := range state.items {
		for _, r := range resolved[i] {
			state.stats.DeclaredRelationships++
			if !r.resolved {
				state.graph.unresolved = append(state.graph.unresolved, UnresolvedReference{
					From:     r.rel.From,
					To:       r.rel.To,
					Kind:     r.rel.Kind,
					Location: item.Source(),
				})
				state.stats.UnresolvedReferences++
				continue
			}
			if err := state.graph.addEdge(r.rel.From, r.rel.To, r.rel.Kind, true); err != nil {
				return err
			}
			inv := r.rel.Inverse()
			if err := state.graph.addEdge(inv.From, inv.To, inv.Kind, false); err != nil {
				return err
			}
		}
	}

	state.stats.EdgesCreated = len(state.graph.edges)
	b.reportProgress(state, ProgressPhaseResolving)
	return nil
}

// finalizePhase queues one redundancy note per link declared from both
// ends, then freezes the graph.
func (b *Builder) finalizePhase(state *buildState) {
	seen := make(map[model.Relationship]bool)
	for _, item := range state.items {
		for _, rel := range item.Declared() {
			inv := rel.Inverse()
			back, ok := state.graph.hasEdge(inv.From, inv.To, inv.Kind)
			if !ok || !back.Declared {
				continue
			}
			link := rel.Canonical()
			if seen[link] {
				continue
			}
			seen[link] = true

			fromItem, _ := state.graph.Get(link.From)
			toItem, _ := state.graph.Get(link.To)
			state.graph.redundancies = append(state.graph.redundancies, Redundancy{
				Link:         link,
				FromLocation: fromItem.Source(),
				ToLocation:   toItem.Source(),
			})
		}
	}
	state.stats.RedundantPairs = len(state.graph.redundancies)

	state.graph.freeze()
	b.reportProgress(state, ProgressPhaseFinalizing)
}

func (b *Builder) reportProgress(state *buildState, phase ProgressPhase) {
	if b.options.ProgressCallback == nil {
		return
	}
	b.options.ProgressCallback(BuildProgress{
		Phase:        phase,
		RecordsTotal: state.stats.RecordsProcessed,
		NodesCreated: state.stats.NodesCreated,
		EdgesCreated: len(state.graph.edges),
	})
}

// Build is a convenience wrapper around NewBuilder(opts...).Build.
func Build(ctx context.Context, records []model.Record, opts ...BuilderOption) (*KnowledgeGraph, error) {
	result, err := NewBuilder(opts...).Build(ctx, records)
	if err != nil {
		return nil, err
	}
	return result.Graph, nil
}
