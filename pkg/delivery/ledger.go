// Package delivery is the audit trail: one ledger entry per
// (webhook, event), mutated in place as attempts are made.
package delivery

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ikanisa/momo-relay/pkg/common"
	"github.com/ikanisa/momo-relay/pkg/database"
	"github.com/ikanisa/momo-relay/pkg/webhook"
)

type Repo interface {
	CreateDeliveryLog(ctx context.Context, entry *database.DeliveryLog) error
	UpdateDeliveryLog(ctx context.Context, entry *database.DeliveryLog) error
	GetDeliveryLog(ctx context.Context, id string) (*database.DeliveryLog, error)
	FindDeliveryLog(ctx context.Context, webhookID, eventID string) (*database.DeliveryLog, error)
	ListDeliveriesByStatus(ctx context.Context, status database.DeliveryStatus) ([]*database.DeliveryLog, error)
	ListDeliveriesByWebhook(ctx context.Context, webhookID string) ([]*database.DeliveryLog, error)
	ListDueDeliveries(ctx context.Context, nowEpochMs int64, limit int) ([]*database.DeliveryLog, error)
	PendingDeliveryCount(ctx context.Context) (int64, error)
	GetWebhook(ctx context.Context, id string) (*database.WebhookConfig, error)
}

type Sender interface {
	Send(ctx context.Context, cfg *database.WebhookConfig, eventID string, payload webhook.Payload) webhook.Outcome
	DeviceID() string
}

type Config struct {
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

type Ledger struct {
	repo   Repo
	sender Sender
	cfg    Config
	now    func() time.Time
}

func NewLedger(repo Repo, sender Sender, cfg Config) *Ledger {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 30 * time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = time.Hour
	}

	return &Ledger{
		repo:   repo,
		sender: sender,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Record logs the outcome of one dispatch attempt. The first attempt
// for a (webhook, event) pair creates the entry; later attempts mutate
// it. RetryCount counts attempts made, monotonically.
func (l *Ledger) Record(
	ctx context.Context,
	cfg *database.WebhookConfig,
	ev webhook.Event,
	outcome webhook.Outcome,
) {
	entry, err := l.repo.FindDeliveryLog(ctx, cfg.ID, ev.EventID)
	if errors.Is(err, common.ErrNotFound) {
		entry = &database.DeliveryLog{
			ID:               uuid.NewString(),
			WebhookID:        cfg.ID,
			EventID:          ev.EventID,
			TransactionRef:   ev.TransactionRef,
			Sender:           ev.Sender,
			Message:          ev.Message,
			EventTimestampMs: ev.Timestamp,
			Status:           database.DeliveryStatusPending,
			CreatedAtEpochMs: l.now().UnixMilli(),
		}

		if createErr := l.repo.CreateDeliveryLog(ctx, entry); createErr != nil {
			zerolog.Ctx(ctx).Error().Err(createErr).
				Str("webhook", cfg.ID).Str("event", ev.EventID).
				Msg("failed to create delivery log entry")

			return
		}
	} else if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("webhook", cfg.ID).Str("event", ev.EventID).
			Msg("failed to look up delivery log entry")

		return
	}

	l.complete(ctx, entry, outcome)
}

// Retry re-attempts a logical entry against its webhook. Manual retries
// ignore the automatic cap; an operator can always retry a FAILED entry.
func (l *Ledger) Retry(ctx context.Context, entryID string) (*webhook.Outcome, error) {
	entry, err := l.repo.GetDeliveryLog(ctx, entryID)
	if err != nil {
		return nil, err
	}

	cfg, err := l.repo.GetWebhook(ctx, entry.WebhookID)
	if err != nil {
		return nil, errors.Wrapf(err, "webhook %s for delivery %s", entry.WebhookID, entryID)
	}

	entry.Status = database.DeliveryStatusSent
	entry.UpdatedAtEpochMs = l.now().UnixMilli()
	if err = l.repo.UpdateDeliveryLog(ctx, entry); err != nil {
		return nil, err
	}

	outcome := l.sender.Send(ctx, cfg, entry.EventID, webhook.Payload{
		Sender:    entry.Sender,
		Message:   entry.Message,
		Timestamp: entry.EventTimestampMs,
		DeviceID:  l.sender.DeviceID(),
	})

	l.complete(ctx, entry, outcome)

	return &outcome, nil
}

func (l *Ledger) complete(
	ctx context.Context,
	entry *database.DeliveryLog,
	outcome webhook.Outcome,
) {
	entry.RetryCount++
	entry.Status = outcome.Status
	entry.ResponseCode = outcome.ResponseCode
	entry.ResponseBody = outcome.ResponseBody
	entry.UpdatedAtEpochMs = l.now().UnixMilli()
	entry.NextAttemptAtMs = 0

	if outcome.Status == database.DeliveryStatusFailed &&
		outcome.Retryable && entry.RetryCount < l.cfg.MaxRetries {
		entry.NextAttemptAtMs = l.now().Add(l.backoff(entry.RetryCount)).UnixMilli()
	}

	if err := l.repo.UpdateDeliveryLog(ctx, entry); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("entry", entry.ID).
			Msg("failed to update delivery log entry")
	}
}

func (l *Ledger) backoff(attempts int) time.Duration {
	delay := l.cfg.BackoffBase << uint(attempts-1)
	if delay > l.cfg.BackoffMax || delay <= 0 {
		delay = l.cfg.BackoffMax
	}

	return delay
}

func (l *Ledger) ListByStatus(
	ctx context.Context,
	status database.DeliveryStatus,
) ([]*database.DeliveryLog, error) {
	return l.repo.ListDeliveriesByStatus(ctx, status)
}

func (l *Ledger) ListByWebhook(
	ctx context.Context,
	webhookID string,
) ([]*database.DeliveryLog, error) {
	return l.repo.ListDeliveriesByWebhook(ctx, webhookID)
}

func (l *Ledger) PendingCount(ctx context.Context) (int64, error) {
	return l.repo.PendingDeliveryCount(ctx)
}

