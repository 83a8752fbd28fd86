package parser

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ikanisa/momo-relay/pkg/database"
)

var tierConfidence = map[database.ParserTier]float64{
	database.TierPrimaryAI:   0.96,
	database.TierSecondaryAI: 0.94,
	database.TierRegex:       0.70,
	database.TierNone:        0.0,
}

// Chain runs tiers strictly in priority order with short-circuit on the
// first result. A tier failure is absorbed and logged; it never stops
// the tiers behind it. The terminal fallback guarantees that every
// accepted SMS yields exactly one transaction.
type Chain struct {
	tiers           []Tier
	defaultCurrency string
	now             func() time.Time
}

func NewChain(defaultCurrency string, tiers ...Tier) *Chain {
	return &Chain{
		tiers:           tiers,
		defaultCurrency: defaultCurrency,
		now:             time.Now,
	}
}

func (c *Chain) Parse(ctx context.Context, sender, body string) *database.Transaction {
	for _, tier := range c.tiers {
		tx, err := tier.Parse(ctx, sender, body)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).
				Str("tier", string(tier.Tier())).
				Msg("parser tier failed, falling back")

			continue
		}

		if tx == nil {
			continue
		}

		c.finalize(tx, sender, body, tier.Tier())

		return tx
	}

	// Terminal fallback: keep the raw message for manual
	// reconciliation instead of dropping it.
	tx := &database.Transaction{
		Direction:    database.DirectionUnknown,
		CurrencyCode: c.defaultCurrency,
		Provider:     database.ProviderUnknown,
	}
	c.finalize(tx, sender, body, database.TierNone)
	tx.SyncState = database.SyncStateFailed

	return tx
}

func (c *Chain) finalize(
	tx *database.Transaction,
	sender string,
	body string,
	tier database.ParserTier,
) {
	tx.ID = uuid.NewString()
	tx.Sender = sender
	tx.RawMessage = body
	tx.ParsedBy = tier
	tx.Confidence = tierConfidence[tier]
	tx.CreatedAtEpochMs = c.now().UnixMilli()
	tx.SyncState = database.SyncStatePending

	if tx.CurrencyCode == "" {
		tx.CurrencyCode = c.defaultCurrency
	}
}
