package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"media_sync/internal/domain"
)

// PurgeAll deletes the records of every kind concurrently. The first
// failing kind is returned as a *domain.PurgeError.
func (s *SyncService) PurgeAll(ctx context.Context) (*domain.PurgeResult, error) {
	result := &domain.PurgeResult{PerKind: make(map[domain.Kind]int64)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range domain.AllKinds() {
		g.Go(func() error {
			deleted, err := s.PurgeKind(gctx, kind)
			if err != nil {
				return err
			}

			mu.Lock()
			result.PerKind[kind] = deleted
			result.Total += deleted
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("purge failed", "error", err)
		return nil, err
	}

	s.logger.Info("purge completed", "deleted", result.Total)
	return result, nil
}

// PurgeKind deletes every record of kind and resets its sync state in one
// transaction.
func (s *SyncService) PurgeKind(ctx context.Context, kind domain.Kind) (int64, error) {
	var deleted int64
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		n, err := s.media.DeleteAll(txCtx, kind)
		if err != nil {
			return fmt.Errorf("delete records: %w", err)
		}
		deleted = n

		if err := s.syncState.Reset(txCtx, kind); err != nil {
			return fmt.Errorf("reset sync state: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, &domain.PurgeError{Kind: kind, Err: err}
	}

	s.logger.Info("purged kind", "kind", kind, "deleted", deleted)
	return deleted, nil
}
