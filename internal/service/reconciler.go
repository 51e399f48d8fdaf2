package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"media_sync/internal/domain"
)

// Reconcile writes one upstream item into the kind's store, keyed by its
// link. Every failure is returned as a *domain.ReconcileError.
func (s *SyncService) Reconcile(ctx context.Context, kind domain.Kind, item *domain.ExternalItem) (domain.Outcome, *domain.MediaRecord, error) {
	fail := func(err error) (domain.Outcome, *domain.MediaRecord, error) {
		return 0, nil, &domain.ReconcileError{Kind: kind, ExternalID: item.ID, Err: err}
	}

	mediaID, err := strconv.ParseInt(item.ID, 10, 64)
	if err != nil {
		return fail(fmt.Errorf("%w: %q", domain.ErrInvalidMediaID, item.ID))
	}
	if item.Link == "" {
		return fail(domain.ErrMissingLink)
	}

	now := s.now()
	rec := &domain.MediaRecord{
		MediaID:      mediaID,
		MediaLink:    item.Link,
		Title:        item.Title,
		Description:  item.Description,
		MediaImage:   item.Image,
		Author:       item.Author,
		Language:     item.Language,
		Type:         kind.String(),
		Categories:   item.Categories,
		CreatedBy:    s.config.Actor,
		CreatedDate:  now,
		ModifiedBy:   s.config.Actor,
		ModifiedDate: now,
	}

	outcome, stored, err := s.media.Upsert(ctx, kind, rec)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.logConflict(ctx, kind, rec)
		}
		return fail(err)
	}

	return outcome, stored, nil
}

func (s *SyncService) logConflict(ctx context.Context, kind domain.Kind, rec *domain.MediaRecord) {
	logger := s.logger.With("kind", kind, "media_id", rec.MediaID, "media_link", rec.MediaLink)

	existing, err := s.media.FindByLink(ctx, kind, rec.MediaLink)
	if err != nil {
		logger.Warn("identity conflict, lookup of existing record failed", "error", err)
		return
	}
	if existing == nil {
		logger.Warn("identity conflict on media id held by another link")
		return
	}
	logger.Warn("identity conflict on media link held by another media id",
		"existing_media_id", existing.MediaID,
	)
}
