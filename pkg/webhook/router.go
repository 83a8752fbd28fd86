// Package webhook fans one event out to every configured endpoint that
// matches it, independently and concurrently.
package webhook

import (
	"context"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/ikanisa/momo-relay/pkg/database"
)

const defaultFanOutPoolSize = 8

// Event is one raw-SMS occurrence being delivered. EventID doubles as
// the idempotency key receivers can use to collapse duplicates.
type Event struct {
	EventID        string
	TransactionRef string
	Phone          string
	Sender         string
	Message        string
	Timestamp      int64
}

type ConfigSource interface {
	ListActiveWebhooks(ctx context.Context) ([]*database.WebhookConfig, error)
}

type Ledger interface {
	Record(ctx context.Context, cfg *database.WebhookConfig, ev Event, outcome Outcome)
}

type Router struct {
	configs  ConfigSource
	sender   *Sender
	ledger   Ledger
	poolSize int
}

func NewRouter(configs ConfigSource, sender *Sender, ledger Ledger) *Router {
	return &Router{
		configs:  configs,
		sender:   sender,
		ledger:   ledger,
		poolSize: defaultFanOutPoolSize,
	}
}

// Matches implements the routing rule: an empty or wildcard pattern
// matches everything, otherwise the pattern must equal the phone number
// exactly. The device number is often unknown and passed as "", which
// only wildcard-configured webhooks see.
func Matches(pattern, phone string) bool {
	return pattern == "" || pattern == "*" || pattern == phone
}

// Dispatch delivers the event to each active, matching webhook. One
// endpoint's failure never blocks or fails the others; every attempt is
// recorded in the ledger.
func (r *Router) Dispatch(ctx context.Context, ev Event) []Outcome {
	hooks, err := r.configs.ListActiveWebhooks(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to list webhooks for dispatch")

		return nil
	}

	matching := lo.Filter(hooks, func(cfg *database.WebhookConfig, _ int) bool {
		return Matches(cfg.PhoneMatchPattern, ev.Phone)
	})

	if len(matching) == 0 {
		return nil
	}

	payload := Payload{
		Sender:    ev.Sender,
		Message:   ev.Message,
		Timestamp: ev.Timestamp,
		DeviceID:  r.sender.DeviceID(),
	}

	pool := workerpool.New(r.poolSize)

	var mu sync.Mutex
	outcomes := make([]Outcome, 0, len(matching))

	for _, hook := range matching {
		cfg := hook

		pool.Submit(func() {
			outcome := r.sender.Send(ctx, cfg, ev.EventID, payload)

			r.ledger.Record(ctx, cfg, ev, outcome)

			if outcome.Err != nil {
				zerolog.Ctx(ctx).Warn().Err(outcome.Err).
					Str("webhook", cfg.ID).
					Str("event", ev.EventID).
					Bool("retryable", outcome.Retryable).
					Msg("webhook delivery failed")
			}

			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
		})
	}

	pool.StopWait()

	return outcomes
}
