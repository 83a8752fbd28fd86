package parser

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/davecgh/go-spew/spew"

	"github.com/ikanisa/momo-relay/pkg/currency"
	"github.com/ikanisa/momo-relay/pkg/database"
	"github.com/ikanisa/momo-relay/pkg/patterns"
)

// RegexTier is the cheapest tier: provider rules from the registry
// applied to one message. It never talks to the network.
type RegexTier struct {
	registry    *patterns.Registry
	countryCode string
}

func NewRegexTier(registry *patterns.Registry, countryCode string) *RegexTier {
	return &RegexTier{
		registry:    registry,
		countryCode: countryCode,
	}
}

func (t *RegexTier) Tier() database.ParserTier {
	return database.TierRegex
}

func (t *RegexTier) Parse(
	_ context.Context,
	sender string,
	body string,
) (*database.Transaction, error) {
	rules := t.registry.DetectProvider(t.countryCode, sender)
	if rules == nil {
		return nil, nil
	}

	type attempt struct {
		pattern   *patterns.MessagePattern
		direction database.Direction
	}

	for _, a := range []attempt{
		{rules.Received, database.DirectionReceived},
		{rules.Sent, database.DirectionSent},
	} {
		if a.pattern == nil {
			continue
		}

		matches := a.pattern.Regexp.FindStringSubmatch(body)
		if matches == nil {
			continue
		}

		tx, err := t.extract(rules, a.pattern, a.direction, matches, body)
		if err != nil {
			return nil, err
		}

		return tx, nil
	}

	return nil, nil
}

func (t *RegexTier) extract(
	rules *patterns.ProviderRules,
	pattern *patterns.MessagePattern,
	direction database.Direction,
	matches []string,
	body string,
) (*database.Transaction, error) {
	if pattern.AmountGroup <= 0 || pattern.AmountGroup >= len(matches) {
		return nil, errors.Newf("amount group %d out of range for matches %v",
			pattern.AmountGroup, spew.Sdump(matches))
	}

	amount, err := currency.ParseAmount(matches[pattern.AmountGroup], rules.CurrencyCode)
	if err != nil {
		return nil, err
	}

	tx := &database.Transaction{
		AmountMinorUnits: amount,
		CurrencyCode:     rules.CurrencyCode,
		Direction:        direction,
		Provider:         rules.Provider,
	}

	if pattern.PartyGroup > 0 {
		if pattern.PartyGroup >= len(matches) {
			return nil, errors.Newf("party group %d out of range for matches %v",
				pattern.PartyGroup, spew.Sdump(matches))
		}

		if party := matches[pattern.PartyGroup]; party != "" {
			tx.CounterpartyPhone = &party
		}
	}

	if rules.TransactionID != nil {
		if m := rules.TransactionID.FindStringSubmatch(body); len(m) == 2 {
			tx.TransactionReference = &m[1]
		}
	}

	if rules.Balance != nil {
		if m := rules.Balance.FindStringSubmatch(body); len(m) == 2 {
			balance, balErr := currency.ParseAmount(m[1], rules.CurrencyCode)
			if balErr == nil {
				tx.BalanceMinorUnits = &balance
			}
		}
	}

	return tx, nil
}
