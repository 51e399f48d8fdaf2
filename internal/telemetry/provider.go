package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Provider bundles a meter provider with the HTTP handler exposing it.
type Provider struct {
	MeterProvider metric.MeterProvider
	Handler       http.Handler
	shutdown      func() error
}

// NewProvider returns a Prometheus-backed meter provider when enabled and a
// no-op provider otherwise. Handler is nil when metrics are disabled.
func NewProvider(enabled bool) (*Provider, error) {
	if !enabled {
		return &Provider{
			MeterProvider: noop.NewMeterProvider(),
			shutdown:      func() error { return nil },
		}, nil
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return &Provider{
		MeterProvider: mp,
		Handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		shutdown: func() error {
			return mp.Shutdown(context.Background())
		},
	}, nil
}

// Shutdown flushes and releases the meter provider.
func (p *Provider) Shutdown() error {
	return p.shutdown()
}
