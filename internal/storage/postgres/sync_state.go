package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"media_sync/internal/domain"
)

type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

func (s *SyncStateStore) Get(ctx context.Context, kind domain.Kind) (*domain.SyncState, error) {
	var state domain.SyncState
	query := `
		SELECT id, kind, last_synced_at, total_synced
		FROM sync_state
		WHERE kind = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, kind)
	if errors.Is(err, sql.ErrNoRows) {
		// Return empty state for kinds that never synced
		return &domain.SyncState{
			Kind:         kind,
			LastSyncedAt: time.Time{},
			TotalSynced:  0,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *SyncStateStore) Update(ctx context.Context, state *domain.SyncState) error {
	query := `
		INSERT INTO sync_state (kind, last_synced_at, total_synced)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind) DO UPDATE SET
			last_synced_at = EXCLUDED.last_synced_at,
			total_synced = EXCLUDED.total_synced`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.Kind,
		state.LastSyncedAt,
		state.TotalSynced,
	)
	return err
}

// Reset forgets the bookkeeping of kind.
func (s *SyncStateStore) Reset(ctx context.Context, kind domain.Kind) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, "DELETE FROM sync_state WHERE kind = $1", kind)
	return err
}
