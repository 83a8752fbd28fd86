package repo

import (
	"context"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"

	"github.com/ikanisa/momo-relay/pkg/common"
	"github.com/ikanisa/momo-relay/pkg/database"
)

// SaveWebhook creates or replaces a webhook config. Non-https URLs are
// rejected unless the target is loopback or the operator explicitly
// overrides.
func (g *Gorm) SaveWebhook(
	ctx context.Context,
	cfg *database.WebhookConfig,
	allowInsecure bool,
) error {
	if err := validateWebhookURL(cfg.URL, allowInsecure); err != nil {
		return err
	}

	return errors.Wrap(g.db.WithContext(ctx).Save(cfg).Error, "failed to save webhook")
}

func validateWebhookURL(raw string, allowInsecure bool) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid webhook url %q", raw)
	}

	switch parsed.Scheme {
	case "https":
		return nil
	case "http":
		host := parsed.Hostname()
		if host == "localhost" || strings.HasPrefix(host, "127.") || host == "::1" {
			return nil
		}

		if allowInsecure {
			return nil
		}

		return errors.Wrapf(common.ErrInsecureURL, "url %q", raw)
	default:
		return errors.Newf("unsupported webhook url scheme %q", parsed.Scheme)
	}
}

func (g *Gorm) GetWebhook(ctx context.Context, id string) (*database.WebhookConfig, error) {
	var cfg database.WebhookConfig

	err := g.db.WithContext(ctx).First(&cfg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get webhook")
	}

	return &cfg, nil
}

func (g *Gorm) ListWebhooks(ctx context.Context) ([]*database.WebhookConfig, error) {
	var configs []*database.WebhookConfig

	err := g.db.WithContext(ctx).
		Order("created_at_epoch_ms asc").
		Find(&configs).Error

	return configs, errors.Wrap(err, "failed to list webhooks")
}

func (g *Gorm) ListActiveWebhooks(ctx context.Context) ([]*database.WebhookConfig, error) {
	var configs []*database.WebhookConfig

	err := g.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at_epoch_ms asc").
		Find(&configs).Error

	return configs, errors.Wrap(err, "failed to list active webhooks")
}

func (g *Gorm) SetWebhookActive(ctx context.Context, id string, active bool) error {
	result := g.db.WithContext(ctx).
		Model(&database.WebhookConfig{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to toggle webhook")
	}

	if result.RowsAffected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (g *Gorm) DeleteWebhook(ctx context.Context, id string) error {
	result := g.db.WithContext(ctx).Delete(&database.WebhookConfig{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete webhook")
	}

	if result.RowsAffected == 0 {
		return common.ErrNotFound
	}

	return nil
}
