package syncer

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/ikanisa/momo-relay/pkg/database"
)

type Repo interface {
	ListPendingTransactions(ctx context.Context) ([]*database.Transaction, error)
	MarkSyncing(ctx context.Context, ids []string) error
	MarkSynced(ctx context.Context, id string, remoteID string) error
	MarkSyncFailed(ctx context.Context, id string, reason string) error
}

type Uploader interface {
	UploadTransaction(ctx context.Context, tx *database.Transaction) (string, error)
}

type Config struct {
	SweepInterval time.Duration
	BackoffBase   time.Duration
	BackoffMax    time.Duration
}

// Coordinator owns the upload-to-backend schedule. Triggers collapse
// into a single-slot channel, so any number of appended transactions
// while an attempt is in flight produce at most one follow-up attempt
// covering them all.
type Coordinator struct {
	repo     Repo
	uploader Uploader
	cfg      Config
	trigger  chan struct{}
}

func NewCoordinator(repo Repo, uploader Uploader, cfg Config) *Coordinator {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 15 * time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 10 * time.Minute
	}

	return &Coordinator{
		repo:     repo,
		uploader: uploader,
		cfg:      cfg,
		trigger:  make(chan struct{}, 1),
	}
}

func (c *Coordinator) EnqueueNow() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

func (c *Coordinator) OnTransactionAppended(_ string) {
	c.EnqueueNow()
}

// Run loops until ctx is cancelled, uploading on trigger and on a
// periodic sweep that picks up records left over from crashes or
// earlier failures. Consecutive failed attempts widen the gap between
// attempts exponentially up to BackoffMax.
func (c *Coordinator) Run(ctx context.Context) {
	logger := zerolog.Ctx(ctx)

	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	failures := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.trigger:
		case <-ticker.C:
		}

		if err := c.SyncOnce(ctx); err != nil {
			failures += 1

			delay := c.backoff(failures)
			logger.Warn().Err(err).
				Dur("retryIn", delay).
				Msg("sync attempt failed")

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				c.EnqueueNow()
			}

			continue
		}

		failures = 0
	}
}

// SyncOnce uploads every pending transaction once. Per-record
// failures are written back as FAILED with the reason and reported
// together; a record failing never blocks the rest of the batch.
func (c *Coordinator) SyncOnce(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	pending, err := c.repo.ListPendingTransactions(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list pending transactions")
	}

	if len(pending) == 0 {
		return nil
	}

	ids := lo.Map(pending, func(tx *database.Transaction, _ int) string {
		return tx.ID
	})

	if err = c.repo.MarkSyncing(ctx, ids); err != nil {
		return errors.Wrap(err, "failed to mark transactions as syncing")
	}

	var uploadErrs []error

	for _, tx := range pending {
		remoteID, uploadErr := c.uploader.UploadTransaction(ctx, tx)
		if uploadErr != nil {
			uploadErrs = append(uploadErrs, uploadErr)

			if markErr := c.repo.MarkSyncFailed(ctx, tx.ID, uploadErr.Error()); markErr != nil {
				logger.Error().Err(markErr).
					Str("transactionID", tx.ID).
					Msg("failed to record sync failure")
			}

			continue
		}

		if markErr := c.repo.MarkSynced(ctx, tx.ID, remoteID); markErr != nil {
			logger.Error().Err(markErr).
				Str("transactionID", tx.ID).
				Msg("failed to record sync success")
		}
	}

	if len(uploadErrs) > 0 {
		return errors.Join(uploadErrs...)
	}

	logger.Info().Int("count", len(pending)).Msg("synced transactions")

	return nil
}

func (c *Coordinator) backoff(failures int) time.Duration {
	delay := c.cfg.BackoffBase << uint(failures-1)
	if delay > c.cfg.BackoffMax || delay <= 0 {
		delay = c.cfg.BackoffMax
	}

	return delay
}
