package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"media_sync/internal/domain"
)

// SyncTrigger starts a sync run on demand.
type SyncTrigger interface {
	TriggerSync(ctx context.Context) (*domain.RunSummary, error)
}

// MediaService exposes the operator actions on the mirrored records.
type MediaService interface {
	PurgeAll(ctx context.Context) (*domain.PurgeResult, error)
	PurgeKind(ctx context.Context, kind domain.Kind) (int64, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

type HealthChecker interface {
	PingContext(ctx context.Context) error
}
