package processor

import (
	"context"

	"github.com/ikanisa/momo-relay/pkg/database"
	"github.com/ikanisa/momo-relay/pkg/webhook"
)

//go:generate mockgen -destination interfaces_mocks_test.go -package processor_test -source=interfaces.go

type Repo interface {
	AppendTransaction(ctx context.Context, tx *database.Transaction) error
}

type Parser interface {
	Parse(ctx context.Context, sender, body string) *database.Transaction
}

type Syncer interface {
	OnTransactionAppended(id string)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev webhook.Event) []webhook.Outcome
}
