package delivery

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const retryBatchSize = 50

// RunRetryWorker polls for FAILED entries whose backoff has elapsed and
// re-attempts them. It stops when the context is cancelled.
func (l *Ledger) RunRetryWorker(ctx context.Context, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zerolog.Ctx(ctx).Info().Msg("delivery retry worker exiting")

			return
		case <-ticker.C:
			l.retryDue(ctx)
		}
	}
}

func (l *Ledger) retryDue(ctx context.Context) {
	entries, err := l.repo.ListDueDeliveries(ctx, l.now().UnixMilli(), retryBatchSize)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to list due deliveries")

		return
	}

	for _, entry := range entries {
		if _, err = l.Retry(ctx, entry.ID); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).
				Str("entry", entry.ID).
				Msg("delivery retry failed")
		}
	}
}
