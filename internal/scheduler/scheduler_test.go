package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media_sync/internal/domain"
)

type fakeSyncer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeSyncer) SyncAll(ctx context.Context) (*domain.RunSummary, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("missing run deadline")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.RunSummary{RunID: "run"}, nil
}

type fakeMaintainer struct {
	calls atomic.Int32
}

func (f *fakeMaintainer) Maintain(context.Context) error {
	f.calls.Add(1)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestScheduler_StartSyncsImmediately(t *testing.T) {
	syncer := &fakeSyncer{}
	s := NewScheduler(syncer, nil, Config{
		Frequent: "0 0 1 1 *",
		Hourly:   "0 0 1 1 *",
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return syncer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_RunsCadences(t *testing.T) {
	syncer := &fakeSyncer{}
	maintainer := &fakeMaintainer{}
	s := NewScheduler(syncer, maintainer, Config{
		Frequent:    "@every 1s",
		Maintenance: "@every 1s",
		RunTimeout:  time.Second,
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Start(ctx) }()

	require.Eventually(t, func() bool {
		return syncer.calls.Load() >= 2 && maintainer.calls.Load() >= 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(&fakeSyncer{}, nil, Config{Hourly: "every hour"}, testLogger())

	err := s.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule hourly")
}

func TestScheduler_TriggerSync(t *testing.T) {
	syncer := &fakeSyncer{}
	s := NewScheduler(syncer, nil, Config{}, testLogger())

	summary, err := s.TriggerSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run", summary.RunID)

	syncer.err = domain.ErrSyncInProgress
	_, err = s.TriggerSync(context.Background())
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)
	assert.Equal(t, int32(2), syncer.calls.Load())
}

func TestScheduler_SkipsOverlappingRun(t *testing.T) {
	syncer := &fakeSyncer{err: domain.ErrSyncInProgress}
	s := NewScheduler(syncer, nil, Config{}, testLogger())

	// Should not panic or block
	s.runSync(context.Background(), "frequent")

	assert.Equal(t, int32(1), syncer.calls.Load())
}
