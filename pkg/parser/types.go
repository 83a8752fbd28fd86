package parser

import (
	"context"

	"github.com/ikanisa/momo-relay/pkg/database"
)

// Tier is one parsing strategy in the fallback chain. A (nil, nil)
// return is a soft miss: the tier could not extract a transaction and
// the next tier should run. Errors are transport/auth level failures,
// logged by the chain but treated the same way.
type Tier interface {
	Parse(ctx context.Context, sender, body string) (*database.Transaction, error)
	Tier() database.ParserTier
}
