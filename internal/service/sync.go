package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"media_sync/internal/config"
	"media_sync/internal/domain"
	"media_sync/internal/telemetry"
)

type SyncService struct {
	source    Source
	media     MediaStore
	syncState SyncStateStore
	errorLog  ErrorLogStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	config    config.SyncConfig
	metrics   *telemetry.SyncMetrics
	now       func() time.Time

	// running holds a token while a SyncAll is in flight.
	running chan struct{}
}

type Option func(*SyncService)

// WithMetrics records per-kind sync metrics.
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(s *SyncService) {
		s.metrics = m
	}
}

// WithClock replaces time.Now for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SyncService) {
		s.now = now
	}
}

// NewSyncService wires the sync engine. publisher and errorLog may be nil.
func NewSyncService(
	source Source,
	media MediaStore,
	syncState SyncStateStore,
	errorLog ErrorLogStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
	opts ...Option,
) *SyncService {
	s := &SyncService{
		source:    source,
		media:     media,
		syncState: syncState,
		errorLog:  errorLog,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("source", source.ID()),
		config:    cfg,
		now:       time.Now,
		running:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// kinds returns the configured kinds without duplicates, so each kind has
// at most one synchronizer per run.
func (s *SyncService) kinds() []domain.Kind {
	if len(s.config.Kinds) == 0 {
		return domain.AllKinds()
	}

	seen := make(map[domain.Kind]bool, len(s.config.Kinds))
	kinds := make([]domain.Kind, 0, len(s.config.Kinds))
	for _, kind := range s.config.Kinds {
		if seen[kind] {
			continue
		}
		seen[kind] = true
		kinds = append(kinds, kind)
	}
	return kinds
}

// SyncAll runs one sync of every configured kind concurrently. A kind's
// failure is reported in its result and never stops the other kinds. Only
// one run may be in flight; an overlapping call returns
// domain.ErrSyncInProgress without doing any work.
func (s *SyncService) SyncAll(ctx context.Context) (*domain.RunSummary, error) {
	select {
	case s.running <- struct{}{}:
	default:
		s.metrics.RecordRejectedRun(ctx)
		return nil, domain.ErrSyncInProgress
	}
	defer func() { <-s.running }()

	startTime := time.Now()
	summary := &domain.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
		Results:   make(map[domain.Kind]domain.SyncRunResult),
	}
	logger := s.logger.With("run_id", summary.RunID)

	kinds := s.kinds()
	logger.Info("starting sync", "source_name", s.source.Name(), "kinds", kinds)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, kind := range kinds {
		wg.Go(func() {
			result := s.SyncKind(ctx, kind)
			s.metrics.RecordKindSync(ctx, result)

			mu.Lock()
			summary.Results[kind] = result
			mu.Unlock()
		})
	}
	wg.Wait()

	summary.Duration = time.Since(startTime)

	logger.Info("sync completed",
		"processed", summary.Processed(),
		"inserted", summary.Inserted(),
		"updated", summary.Updated(),
		"errors", summary.Errors(),
		"failed_kinds", summary.FailedKinds(),
		"duration", summary.Duration,
	)

	return summary, nil
}

// SyncKind fetches one kind from upstream and reconciles every item in
// envelope order. Item failures are counted and logged; a fetch failure
// aborts the kind and is returned in the result's Err.
func (s *SyncService) SyncKind(ctx context.Context, kind domain.Kind) domain.SyncRunResult {
	startTime := time.Now()
	logger := s.logger.With("kind", kind)
	result := domain.SyncRunResult{Kind: kind}

	envelope, err := s.source.Fetch(ctx, kind)
	if err != nil {
		logger.Error("failed to fetch from upstream", "error", err)
		s.recordError(ctx, kind, "fetch", err)
		result.Err = err
		result.Duration = time.Since(startTime)
		return result
	}

	if len(envelope.Data) == 0 {
		logger.Warn("upstream returned no items", "status", envelope.Status)
		result.Duration = time.Since(startTime)
		return result
	}

	logger.Info("fetched items from upstream", "count", len(envelope.Data))

	for i := range envelope.Data {
		if err := ctx.Err(); err != nil {
			logger.Warn("sync interrupted", "processed", result.Processed, "remaining", len(envelope.Data)-i)
			result.Err = err
			break
		}

		item := &envelope.Data[i]
		result.Processed++

		outcome, rec, err := s.Reconcile(ctx, kind, item)
		if err != nil {
			result.Errors++
			logger.Error("failed to reconcile item", "item_id", item.ID, "error", err)
			s.recordError(ctx, kind, "reconcile", err)
			continue
		}

		isNew := outcome == domain.OutcomeInserted
		if isNew {
			result.Inserted++
		} else {
			result.Updated++
		}

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, kind, rec, isNew); err != nil {
				logger.Warn("failed to publish change", "media_id", rec.MediaID, "error", err)
			} else {
				result.Published++
			}
		}
	}

	if err := s.updateSyncState(ctx, kind, result); err != nil {
		logger.Error("failed to update sync state", "error", err)
	}

	result.Duration = time.Since(startTime)

	logger.Info("kind sync completed",
		"processed", result.Processed,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"errors", result.Errors,
		"published", result.Published,
		"duration", result.Duration,
	)

	return result
}

func (s *SyncService) updateSyncState(ctx context.Context, kind domain.Kind, result domain.SyncRunResult) error {
	state, err := s.syncState.Get(ctx, kind)
	if err != nil {
		return fmt.Errorf("get sync state: %w", err)
	}

	state.Kind = kind
	state.LastSyncedAt = s.now()
	state.TotalSynced += int64(result.Total())

	return s.syncState.Update(ctx, state)
}

// recordError persists a failure to the error log. It is best effort.
func (s *SyncService) recordError(ctx context.Context, kind domain.Kind, event string, cause error) {
	if s.errorLog == nil {
		return
	}

	entry := &domain.ErrorLogEntry{
		PageName:         kind.String(),
		EventName:        event,
		ErrorInformation: cause.Error(),
		CreatedBy:        s.config.Actor,
		CreatedDate:      s.now(),
	}
	if err := s.errorLog.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("failed to record error log entry", "kind", kind, "event", event, "error", err)
	}
}
