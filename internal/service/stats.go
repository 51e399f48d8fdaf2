package service

import (
	"context"
	"fmt"

	"media_sync/internal/domain"
)

// Stats reports record counts per kind and the most recent successful sync.
func (s *SyncService) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{PerKind: make(map[domain.Kind]int64)}

	for _, kind := range domain.AllKinds() {
		count, err := s.media.Count(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", kind, err)
		}
		stats.PerKind[kind] = count
		stats.Total += count

		state, err := s.syncState.Get(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("get %s sync state: %w", kind, err)
		}
		if state.LastSyncedAt.IsZero() {
			continue
		}
		if stats.LastSync == nil || state.LastSyncedAt.After(*stats.LastSync) {
			last := state.LastSyncedAt
			stats.LastSync = &last
		}
	}

	return stats, nil
}
