package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"media_sync/internal/domain"
)

func TestNewSyncMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewSyncMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("nil metrics are a no-op", func(t *testing.T) {
		t.Parallel()

		var metrics *SyncMetrics
		// Should not panic
		metrics.RecordKindSync(context.Background(), domain.SyncRunResult{Kind: domain.KindAudio})
		metrics.RecordRejectedRun(context.Background())
	})
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != SyncMetricsMeterName {
			continue
		}
		for _, m := range scope.Metrics {
			found[m.Name] = m
		}
	}
	return found
}

func TestSyncMetrics_RecordKindSync(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewSyncMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordKindSync(ctx, domain.SyncRunResult{
		Kind:      domain.KindAudio,
		Processed: 5,
		Inserted:  2,
		Updated:   2,
		Errors:    1,
		Duration:  1500 * time.Millisecond,
	})
	metrics.RecordKindSync(ctx, domain.SyncRunResult{
		Kind:     domain.KindVideo,
		Duration: 10 * time.Millisecond,
		Err:      errors.New("fetch failed"),
	})

	found := collect(t, reader)

	duration, ok := found["media_sync_kind_duration_seconds"]
	require.True(t, ok)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 2)
	for _, dp := range hist.DataPoints {
		kind, _ := dp.Attributes.Value(attribute.Key("kind"))
		success, _ := dp.Attributes.Value(attribute.Key("success"))
		switch kind.AsString() {
		case "audio":
			assert.True(t, success.AsBool())
			assert.InDelta(t, 1.5, dp.Sum, 0.001)
		case "video":
			assert.False(t, success.AsBool())
		default:
			t.Fatalf("unexpected kind %q", kind.AsString())
		}
	}

	items, ok := found["media_sync_items_total"]
	require.True(t, ok)
	sum, ok := items.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byOutcome := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
		byOutcome[outcome.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{"inserted": 2, "updated": 2, "error": 1}, byOutcome)
}

func TestSyncMetrics_RecordRejectedRun(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewSyncMetrics(mp)
	require.NoError(t, err)

	metrics.RecordRejectedRun(context.Background())
	metrics.RecordRejectedRun(context.Background())

	rejected, ok := collect(t, reader)["media_sync_runs_rejected_total"]
	require.True(t, ok)
	sum, ok := rejected.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}

func TestNewProvider(t *testing.T) {
	t.Run("disabled uses a no-op provider", func(t *testing.T) {
		p, err := NewProvider(false)
		require.NoError(t, err)
		assert.Nil(t, p.Handler)
		assert.NoError(t, p.Shutdown())
	})

	t.Run("enabled exposes prometheus metrics", func(t *testing.T) {
		p, err := NewProvider(true)
		require.NoError(t, err)
		defer func() { _ = p.Shutdown() }()
		require.NotNil(t, p.Handler)

		metrics, err := NewSyncMetrics(p.MeterProvider)
		require.NoError(t, err)
		metrics.RecordRejectedRun(context.Background())

		rec := httptest.NewRecorder()
		p.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "media_sync_runs_rejected")
	})
}
