package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"media_sync/internal/domain"
)

type MediaStore interface {
	FindByLink(ctx context.Context, kind domain.Kind, link string) (*domain.MediaRecord, error)
	Upsert(ctx context.Context, kind domain.Kind, rec *domain.MediaRecord) (domain.Outcome, *domain.MediaRecord, error)
	DeleteAll(ctx context.Context, kind domain.Kind) (int64, error)
	Count(ctx context.Context, kind domain.Kind) (int64, error)
}

type SyncStateStore interface {
	Get(ctx context.Context, kind domain.Kind) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
	Reset(ctx context.Context, kind domain.Kind) error
}

type ErrorLogStore interface {
	Record(ctx context.Context, entry *domain.ErrorLogEntry) error
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Source interface {
	ID() string
	Name() string
	Fetch(ctx context.Context, kind domain.Kind) (*domain.Envelope, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, kind domain.Kind, rec *domain.MediaRecord, isNew bool) error
	Close() error
}
