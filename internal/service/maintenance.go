package service

import (
	"context"
	"fmt"
)

// Maintain prunes error log entries older than the configured retention.
func (s *SyncService) Maintain(ctx context.Context) error {
	if s.errorLog == nil || s.config.ErrorLogRetention <= 0 {
		return nil
	}

	cutoff := s.now().Add(-s.config.ErrorLogRetention)
	pruned, err := s.errorLog.PruneBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune error log: %w", err)
	}

	s.logger.Info("maintenance completed", "pruned_error_logs", pruned, "cutoff", cutoff)
	return nil
}
