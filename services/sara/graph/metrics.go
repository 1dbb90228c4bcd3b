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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for graph operations.
var (
	tracer = otel.Tracer("sara.graph")
	meter  = otel.Meter("sara.graph")
)

// Metrics for graph building operations.
var (
	buildLatency    metric.Float64Histogram
	buildTotal      metric.Int64Counter
	nodesCreated    metric.Int64Histogram
	edgesCreated    metric.Int64Histogram
	unresolvedTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"sara_graph_build_duration_seconds",
			metric.WithDescription("Duration of knowledge graph builds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"sara_graph_build_total",
			metric.WithDescription("Total number of knowledge graph builds"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesCreated, err = meter.Int64Histogram(
			"sara_graph_items",
			metric.WithDescription("Number of items per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesCreated, err = meter.Int64Histogram(
			"sara_graph_edges",
			metric.WithDescription("Number of normalized edges per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		unresolvedTotal, err = meter.Int64Counter(
			"sara_graph_unresolved_references_total",
			metric.WithDescription("Declared relationships whose target did not resolve"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordBuildMetrics records metrics for a build operation.
func recordBuildMetrics(ctx context.Context, duration time.Duration, stats BuildStats, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))

	buildLatency.Record(ctx, duration.Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)

	if success {
		nodesCreated.Record(ctx, int64(stats.NodesCreated))
		edgesCreated.Record(ctx, int64(stats.EdgesCreated))
		unresolvedTotal.Add(ctx, int64(stats.UnresolvedReferences))
	}
}

// startBuildSpan creates a span for a build operation.
func startBuildSpan(ctx context.Context, recordCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder.Build",
		trace.WithAttributes(
			attribute.Int("sara.record_count", recordCount),
		),
	)
}

// setBuildSpanResult sets the result attributes on a build span.
func setBuildSpanResult(span trace.Span, stats BuildStats, err error) {
	span.SetAttributes(
		attribute.Int("sara.node_count", stats.NodesCreated),
		attribute.Int("sara.edge_count", stats.EdgesCreated),
		attribute.Int("sara.unresolved_count", stats.UnresolvedReferences),
	)
	if err != nil {
		span.RecordError(err)
	}
}
