package switcher

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metrics instruments for mode transitions.
type Metrics struct {
	transitionsTotal   metric.Int64Counter
	transitionDuration metric.Float64Histogram
}

// SwitcherMetrics is the global metrics instance for the switcher package.
// Set this via SetMetrics() during application initialization.
var SwitcherMetrics *Metrics

// SetMetrics sets the global metrics instance.
func SetMetrics(m *Metrics) {
	SwitcherMetrics = m
}

// NewMetrics creates switcher metrics instruments.
// If meter is nil, returns nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		return nil, nil
	}

	transitionsTotal, err := meter.Int64Counter(
		"appliancectl_transitions_total",
		metric.WithDescription("Total number of network mode transitions"),
	)
	if err != nil {
		return nil, err
	}

	transitionDuration, err := meter.Float64Histogram(
		"appliancectl_transition_duration_seconds",
		metric.WithDescription("Time to complete a network mode transition"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		transitionsTotal:   transitionsTotal,
		transitionDuration: transitionDuration,
	}, nil
}

// RecordTransition records one GoOffline/GoOnline call.
// result is "changed", "noop", "aborted" or "failed".
func (m *Metrics) RecordTransition(ctx context.Context, target Mode, result string, start time.Time) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("target", string(target)),
		attribute.String("result", result),
	)
	m.transitionsTotal.Add(ctx, 1, attrs)
	m.transitionDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}
