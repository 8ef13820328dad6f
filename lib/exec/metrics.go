package exec

import (
	"context"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metrics instruments for host command execution.
type Metrics struct {
	runsTotal metric.Int64Counter
	duration  metric.Float64Histogram
}

// ExecMetrics is the global metrics instance for the exec package.
// Set this via SetMetrics() during application initialization.
var ExecMetrics *Metrics

// SetMetrics sets the global metrics instance.
func SetMetrics(m *Metrics) {
	ExecMetrics = m
}

// NewMetrics creates exec metrics instruments.
// If meter is nil, returns nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		return nil, nil
	}

	runsTotal, err := meter.Int64Counter(
		"appliancectl_command_runs_total",
		metric.WithDescription("Total number of host command invocations"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"appliancectl_command_duration_seconds",
		metric.WithDescription("Host command duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		runsTotal: runsTotal,
		duration:  duration,
	}, nil
}

// RecordRun records metrics for a finished command.
// exitCode -1 means the program never produced an exit status.
func (m *Metrics) RecordRun(ctx context.Context, program string, start time.Time, exitCode int) {
	if m == nil {
		return
	}

	status := "success"
	switch {
	case exitCode < 0:
		status = "failed"
	case exitCode != 0:
		status = "nonzero"
	}
	attrs := metric.WithAttributes(
		attribute.String("program", filepath.Base(program)),
		attribute.String("status", status),
	)

	m.runsTotal.Add(ctx, 1, attrs)
	m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
}
