package processor

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/ikanisa/momo-relay/pkg/database"
	"github.com/ikanisa/momo-relay/pkg/ingest"
	"github.com/ikanisa/momo-relay/pkg/webhook"
)

// Processor ties the pipeline together: every accepted SMS is parsed
// into exactly one transaction, appended to the local ledger, queued
// for backend sync and fanned out to the configured webhooks.
type Processor struct {
	repo        Repo
	parser      Parser
	syncer      Syncer
	dispatcher  Dispatcher
	devicePhone string
}

func NewProcessor(
	repo Repo,
	parser Parser,
	syncer Syncer,
	dispatcher Dispatcher,
	devicePhone string,
) *Processor {
	return &Processor{
		repo:        repo,
		parser:      parser,
		syncer:      syncer,
		dispatcher:  dispatcher,
		devicePhone: devicePhone,
	}
}

func (p *Processor) HandleMessage(
	ctx context.Context,
	msg ingest.Message,
) error {
	tx := p.parser.Parse(ctx, msg.Sender, msg.Body)

	if err := p.repo.AppendTransaction(ctx, tx); err != nil {
		return errors.Wrap(err, "failed to append transaction")
	}

	p.syncer.OnTransactionAppended(tx.ID)

	timestamp := msg.ReceivedAtEpochMs
	if timestamp == 0 {
		timestamp = tx.CreatedAtEpochMs
	}

	ref := ""
	if tx.TransactionReference != nil {
		ref = *tx.TransactionReference
	}

	outcomes := p.dispatcher.Dispatch(ctx, webhook.Event{
		EventID:        tx.ID,
		TransactionRef: ref,
		Phone:          p.devicePhone,
		Sender:         msg.Sender,
		Message:        msg.Body,
		Timestamp:      timestamp,
	})

	delivered := 0
	for _, outcome := range outcomes {
		if outcome.Status == database.DeliveryStatusDelivered {
			delivered += 1
		}
	}

	zerolog.Ctx(ctx).Info().
		Str("transactionID", tx.ID).
		Str("parsedBy", string(tx.ParsedBy)).
		Int("webhooks", len(outcomes)).
		Int("delivered", delivered).
		Msg("processed message")

	return nil
}
