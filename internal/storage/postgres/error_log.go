package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"media_sync/internal/domain"
)

type ErrorLogStore struct {
	db *sqlx.DB
}

func NewErrorLogStore(db *sqlx.DB) *ErrorLogStore {
	return &ErrorLogStore{db: db}
}

func (s *ErrorLogStore) Record(ctx context.Context, entry *domain.ErrorLogEntry) error {
	query := `
		INSERT INTO error_log_information (page_name, event_name, error_information, created_by, created_date)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		entry.PageName,
		entry.EventName,
		entry.ErrorInformation,
		entry.CreatedBy,
		entry.CreatedDate,
	)
	return err
}

func (s *ErrorLogStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM error_log_information WHERE created_date < $1",
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
