// Package telemetry provides OpenTelemetry instrumentation for media sync runs.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"media_sync/internal/domain"
)

// SyncMetricsMeterName is the name used for the sync metrics meter
const SyncMetricsMeterName = "media_sync/sync"

// SyncMetrics holds the OpenTelemetry instruments for sync runs.
// A nil *SyncMetrics records nothing.
type SyncMetrics struct {
	kindDuration metric.Float64Histogram
	items        metric.Int64Counter
	rejected     metric.Int64Counter
}

// NewSyncMetrics creates the sync instruments on provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	kindDuration, err := meter.Float64Histogram(
		"media_sync_kind_duration_seconds",
		metric.WithDescription("Duration of a single kind sync in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	items, err := meter.Int64Counter(
		"media_sync_items_total",
		metric.WithDescription("Upstream items reconciled, by outcome"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	rejected, err := meter.Int64Counter(
		"media_sync_runs_rejected_total",
		metric.WithDescription("Sync triggers rejected because a run was in progress"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		kindDuration: kindDuration,
		items:        items,
		rejected:     rejected,
	}, nil
}

// RecordKindSync records the duration and item outcomes of one kind sync.
func (m *SyncMetrics) RecordKindSync(ctx context.Context, result domain.SyncRunResult) {
	if m == nil {
		return
	}

	kind := attribute.String("kind", result.Kind.String())

	m.kindDuration.Record(ctx, result.Duration.Seconds(), metric.WithAttributes(
		kind,
		attribute.Bool("success", result.Err == nil),
	))

	outcomes := map[string]int{
		"inserted": result.Inserted,
		"updated":  result.Updated,
		"error":    result.Errors,
	}
	for outcome, n := range outcomes {
		if n == 0 {
			continue
		}
		m.items.Add(ctx, int64(n), metric.WithAttributes(kind, attribute.String("outcome", outcome)))
	}
}

// RecordRejectedRun counts a trigger that hit the run lock.
func (m *SyncMetrics) RecordRejectedRun(ctx context.Context) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1)
}
