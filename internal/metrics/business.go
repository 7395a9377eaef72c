package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics records control-plane operation outcomes. Domains map to
// the internal packages (auth, session, revocation, capability, webhook,
// ratelimit); status is "success" or "error".
type BusinessMetrics interface {
	RecordOperation(ctx context.Context, domain, operation, status string)
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)
}

type businessMetrics struct {
	ops     metric.Int64Counter
	latency metric.Float64Histogram
}

// NewBusinessMetrics builds the operation counter and latency histogram
// under the given namespace prefix.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	ops, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Control-plane operations by domain, operation and status"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	latency, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Control-plane operation latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &businessMetrics{ops: ops, latency: latency}, nil
}

func operationAttrs(domain, operation, status string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.ops.Add(ctx, 1, operationAttrs(domain, operation, status))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.latency.Record(ctx, duration.Seconds(), operationAttrs(domain, operation, status))
}

// NoOpBusinessMetrics discards all measurements. Used when metrics are
// disabled in the configuration.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics returns a recorder that discards everything.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
}

func (n *NoOpBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
}
