package repo

import (
	"context"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"

	"github.com/ikanisa/momo-relay/pkg/common"
	"github.com/ikanisa/momo-relay/pkg/database"
)

func (g *Gorm) CreateDeliveryLog(ctx context.Context, entry *database.DeliveryLog) error {
	return errors.Wrap(g.db.WithContext(ctx).Create(entry).Error,
		"failed to create delivery log")
}

// UpdateDeliveryLog saves an entry in place. Retries mutate the same
// logical entry rather than creating siblings, so the audit trail stays
// one row per (webhook, event).
func (g *Gorm) UpdateDeliveryLog(ctx context.Context, entry *database.DeliveryLog) error {
	return errors.Wrap(g.db.WithContext(ctx).Save(entry).Error,
		"failed to update delivery log")
}

func (g *Gorm) GetDeliveryLog(ctx context.Context, id string) (*database.DeliveryLog, error) {
	var entry database.DeliveryLog

	err := g.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delivery log")
	}

	return &entry, nil
}

func (g *Gorm) FindDeliveryLog(
	ctx context.Context,
	webhookID string,
	eventID string,
) (*database.DeliveryLog, error) {
	var entry database.DeliveryLog

	err := g.db.WithContext(ctx).
		First(&entry, "webhook_id = ? AND event_id = ?", webhookID, eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find delivery log")
	}

	return &entry, nil
}

func (g *Gorm) ListDeliveriesByStatus(
	ctx context.Context,
	status database.DeliveryStatus,
) ([]*database.DeliveryLog, error) {
	var entries []*database.DeliveryLog

	err := g.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at_epoch_ms desc").
		Find(&entries).Error

	return entries, errors.Wrap(err, "failed to list deliveries by status")
}

func (g *Gorm) ListDeliveriesByWebhook(
	ctx context.Context,
	webhookID string,
) ([]*database.DeliveryLog, error) {
	var entries []*database.DeliveryLog

	err := g.db.WithContext(ctx).
		Where("webhook_id = ?", webhookID).
		Order("created_at_epoch_ms desc").
		Find(&entries).Error

	return entries, errors.Wrap(err, "failed to list deliveries by webhook")
}

// ListDueDeliveries returns FAILED entries whose scheduled retry time
// has passed. Entries with no schedule (terminal 4xx, exhausted caps)
// carry a zero NextAttemptAtMs and are excluded.
func (g *Gorm) ListDueDeliveries(
	ctx context.Context,
	nowEpochMs int64,
	limit int,
) ([]*database.DeliveryLog, error) {
	var entries []*database.DeliveryLog

	err := g.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at_ms > 0 AND next_attempt_at_ms <= ?",
			database.DeliveryStatusFailed, nowEpochMs).
		Order("next_attempt_at_ms asc").
		Limit(limit).
		Find(&entries).Error

	return entries, errors.Wrap(err, "failed to list due deliveries")
}

func (g *Gorm) PendingDeliveryCount(ctx context.Context) (int64, error) {
	var count int64

	err := g.db.WithContext(ctx).
		Model(&database.DeliveryLog{}).
		Where("status IN ?", []database.DeliveryStatus{
			database.DeliveryStatusPending,
			database.DeliveryStatusSent,
			database.DeliveryStatusFailed,
		}).
		Count(&count).Error

	return count, errors.Wrap(err, "failed to count pending deliveries")
}
