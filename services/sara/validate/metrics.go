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
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("sara.validate")

var (
	runsTotal     metric.Int64Counter
	findingsTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runsTotal, err = meter.Int64Counter(
			"sara_validate_runs_total",
			metric.WithDescription("Total number of validation runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		findingsTotal, err = meter.Int64Counter(
			"sara_validate_findings_total",
			metric.WithDescription("Findings reported, by code and severity"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

func recordValidateMetrics(ctx context.Context, report *Report) {
	if err := initMetrics(); err != nil {
		return
	}

	runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("valid", report.IsValid())))

	type findingKey struct {
		code     Code
		severity Severity
	}
	counts := make(map[findingKey]int64)
	for _, f := range report.Findings {
		counts[findingKey{code: f.Code, severity: f.Severity}]++
	}
	for key, n := range counts {
		findingsTotal.Add(ctx, n, metric.WithAttributes(
			attribute.String("code", string(key.code)),
			attribute.String("severity", key.severity.String()),
		))
	}
}
