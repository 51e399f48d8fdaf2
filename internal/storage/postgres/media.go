package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"media_sync/internal/domain"
)

const uniqueViolation = "23505"

var mediaTables = map[domain.Kind]string{
	domain.KindAudio:   "audio_media_information",
	domain.KindVideo:   "video_media_information",
	domain.KindPodcast: "podcast_media_information",
}

// TableFor returns the table holding records of kind.
func TableFor(kind domain.Kind) (string, error) {
	table, ok := mediaTables[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	return table, nil
}

type mediaRow struct {
	domain.MediaRecord
	Categories pq.StringArray `db:"categories"`
	Inserted   bool           `db:"inserted"`
}

func (r *mediaRow) record() *domain.MediaRecord {
	rec := r.MediaRecord
	rec.Categories = []string(r.Categories)
	if rec.Categories == nil {
		rec.Categories = []string{}
	}
	return &rec
}

const mediaColumns = `id, media_id, media_link, title, description, media_image, author,
	language, type, categories, created_by, created_date, modified_by, modified_date`

// MediaStore keeps one table per kind.
type MediaStore struct {
	db *sqlx.DB
}

func NewMediaStore(db *sqlx.DB) *MediaStore {
	return &MediaStore{db: db}
}

// FindByLink returns the record of kind with the given link, or nil when
// there is none.
func (s *MediaStore) FindByLink(ctx context.Context, kind domain.Kind, link string) (*domain.MediaRecord, error) {
	table, err := TableFor(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE media_link = $1`, mediaColumns, table)

	var row mediaRow
	err = sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, link)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.record(), nil
}

// Upsert inserts rec or, when a record with the same media link exists,
// overwrites its descriptive fields in a single statement. The created
// columns are only written on insert. A link already held by a different
// media id, or a media id already held by a different link, is reported as
// domain.ErrConflict and leaves the table untouched.
func (s *MediaStore) Upsert(ctx context.Context, kind domain.Kind, rec *domain.MediaRecord) (domain.Outcome, *domain.MediaRecord, error) {
	table, err := TableFor(kind)
	if err != nil {
		return 0, nil, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %[1]s (
			media_id, media_link, title, description, media_image, author,
			language, type, categories, created_by, created_date, modified_by, modified_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		ON CONFLICT (media_link) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			media_image = EXCLUDED.media_image,
			author = EXCLUDED.author,
			language = EXCLUDED.language,
			type = EXCLUDED.type,
			categories = EXCLUDED.categories,
			modified_by = EXCLUDED.modified_by,
			modified_date = EXCLUDED.modified_date
		WHERE %[1]s.media_id = EXCLUDED.media_id
		RETURNING %[2]s, (xmax = 0) AS inserted`, table, mediaColumns)

	categories := rec.Categories
	if categories == nil {
		categories = []string{}
	}

	var row mediaRow
	err = sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query,
		rec.MediaID,
		rec.MediaLink,
		rec.Title,
		rec.Description,
		rec.MediaImage,
		rec.Author,
		rec.Language,
		rec.Type,
		pq.StringArray(categories),
		rec.CreatedBy,
		rec.CreatedDate,
		rec.ModifiedBy,
		rec.ModifiedDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, fmt.Errorf("%w: link %q belongs to another media id", domain.ErrConflict, rec.MediaLink)
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, nil, fmt.Errorf("%w: media id %d belongs to another link", domain.ErrConflict, rec.MediaID)
		}
		return 0, nil, err
	}

	outcome := domain.OutcomeUpdated
	if row.Inserted {
		outcome = domain.OutcomeInserted
	}
	return outcome, row.record(), nil
}

// DeleteAll removes every record of kind and returns how many were deleted.
func (s *MediaStore) DeleteAll(ctx context.Context, kind domain.Kind) (int64, error) {
	table, err := TableFor(kind)
	if err != nil {
		return 0, err
	}

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, "DELETE FROM "+table)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *MediaStore) Count(ctx context.Context, kind domain.Kind) (int64, error) {
	table, err := TableFor(kind)
	if err != nil {
		return 0, err
	}

	var count int64
	err = sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count, "SELECT COUNT(*) FROM "+table)
	return count, err
}
