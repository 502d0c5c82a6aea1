package usecase

import (
	"context"
	"log/slog"
	"time"
)

// StartCleanupSweeper runs the periodic purge of expired challenges and
// refresh tokens until the parent context is canceled.
func (s *Usecase) StartCleanupSweeper(ctx context.Context) {
	interval := s.cfg.GetMinute("modules.account.cleanup_interval_minutes")

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	})
}

func (s *Usecase) sweep(ctx context.Context) {
	ctx, span := s.startSpan(ctx, "CleanupSweep")
	defer span.End()

	purged, err := s.repoDB.PurgeExpiredChallenges(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to purge expired challenges", "error", err)
	} else if purged > 0 {
		slog.InfoContext(ctx, "purged expired challenges", "count", purged)
	}

	deleted, err := s.repoDB.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete expired refresh tokens", "error", err)
	} else if deleted > 0 {
		slog.InfoContext(ctx, "deleted expired refresh tokens", "count", deleted)
	}
}
