// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires the OpenTelemetry SDK for the sara CLI.
//
// The engine packages only use the otel API (otel.Tracer, otel.Meter).
// Setup installs global providers behind them:
//
//   - Traces go to a stdout exporter writing to stderr when enabled.
//   - Metrics are always collected by the otel Prometheus exporter into a
//     private registry. A short-lived CLI has nothing to scrape it, so on
//     Shutdown the registry is written to a node_exporter textfile when a
//     path is configured, and optionally printed by the stdout exporter.
//
// # Usage
//
//	p, err := telemetry.Setup(ctx, telemetry.Config{Trace: true})
//	if err != nil {
//	    return err
//	}
//	defer p.Shutdown(context.Background())
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ErrNilContext is returned by Setup when ctx is nil.
var ErrNilContext = errors.New("telemetry: nil context")

// Config controls telemetry.
type Config struct {
	// ServiceName identifies the process in spans and metrics.
	ServiceName string

	// ServiceVersion is the build version.
	ServiceVersion string

	// Trace enables the stdout span exporter.
	Trace bool

	// StdoutMetrics prints collected metrics on Shutdown.
	StdoutMetrics bool

	// MetricsTextfile, when set, receives the registry in Prometheus text
	// format on Shutdown.
	MetricsTextfile string

	// Writer receives stdout exporter output. Default: os.Stderr.
	Writer io.Writer
}

// Provider owns the installed SDK providers.
type Provider struct {
	cfg      Config
	tp       *sdktrace.TracerProvider
	mp       *sdkmetric.MeterProvider
	registry *prometheus.Registry
}

// Setup installs global tracer and meter providers.
//
// Description:
//
//	Builds a resource from the service identity, a meter provider reading
//	through the Prometheus exporter into a private registry (plus a
//	stdout reader when StdoutMetrics is set), and a tracer provider with
//	a synchronous stdout exporter when Trace is set. With tracing off the
//	global tracer provider is left as the no-op default.
//
// Inputs:
//
//	ctx - Must not be nil.
//	cfg - Telemetry configuration.
//
// Outputs:
//
//	*Provider - Call Shutdown on exit.
//	error - ErrNilContext or an exporter construction failure.
//
// Thread Safety: Call once at process startup.
func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "sara"
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	p := &Provider{cfg: cfg, registry: prometheus.NewRegistry()}

	exporter, err := promexporter.New(promexporter.WithRegisterer(p.registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	readers := []sdkmetric.Option{sdkmetric.WithResource(res), sdkmetric.WithReader(exporter)}

	if cfg.StdoutMetrics {
		me, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.Writer), stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(me)))
	}
	p.mp = sdkmetric.NewMeterProvider(readers...)
	otel.SetMeterProvider(p.mp)

	if cfg.Trace {
		te, err := stdouttrace.New(stdouttrace.WithWriter(cfg.Writer), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		// Syncer, not batcher: the CLI exits right after its work.
		p.tp = sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(te),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		otel.SetTracerProvider(p.tp)
	}

	return p, nil
}

// Registry returns the Prometheus registry backing the meter provider.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// WriteTextfile writes the current metrics to path in the Prometheus text
// format. The write goes through a temp file and rename, as the
// node_exporter textfile collector expects.
func (p *Provider) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

// Shutdown flushes and stops the providers.
//
// Spans are flushed first, then the metrics textfile is written while the
// meter provider can still be collected, then the meter provider stops.
// All errors are joined.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.tp != nil {
		if err := p.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if p.cfg.MetricsTextfile != "" {
		if err := p.WriteTextfile(p.cfg.MetricsTextfile); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.mp.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter provider: %w", err))
	}
	return errors.Join(errs...)
}

// TraceID returns the hex trace ID in ctx, or "" without a valid span.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
