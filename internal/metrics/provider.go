// Package metrics wires OpenTelemetry instruments to a Prometheus exporter
// for the control-plane API and its admit/verify pipelines.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Provider owns the meter provider and the Prometheus registry it exports
// into. One Provider lives for the whole process.
type Provider struct {
	meterProvider *metric.MeterProvider
	exporter      *promexporter.Exporter
	registry      *prometheus.Registry
}

// NewProvider builds a Provider backed by a dedicated Prometheus registry,
// keeping the process's default registry free of application metrics.
func NewProvider(namespace string) (*Provider, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	return &Provider{
		meterProvider: metric.NewMeterProvider(metric.WithReader(exporter)),
		exporter:      exporter,
		registry:      registry,
	}, nil
}

// Handler serves the registry in Prometheus exposition format. Mounted at
// /metrics on the internal metrics listener, not the public API.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// MeterProvider exposes the underlying provider for creating meters.
func (p *Provider) MeterProvider() *metric.MeterProvider {
	return p.meterProvider
}

// Shutdown flushes pending measurements. Safe on a zero-value Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}
