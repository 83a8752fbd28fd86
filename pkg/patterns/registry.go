// Package patterns holds the per-country, per-provider rule sets used to
// recognize mobile-money senders and extract transaction fields from
// message bodies.
package patterns

import (
	"regexp"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/ikanisa/momo-relay/pkg/database"
)

// MessagePattern is one direction's extraction rule. Capture group
// indices are explicit per rule: sentence structure differs by locale,
// so amount and counterparty do not sit in fixed groups.
type MessagePattern struct {
	Regexp      *regexp.Regexp
	AmountGroup int
	PartyGroup  int
}

type ProviderRules struct {
	Provider     database.Provider
	CurrencyCode string

	// SenderKeywords are case-insensitive substrings matched against
	// the SMS sender identity.
	SenderKeywords []string

	Received *MessagePattern
	Sent     *MessagePattern

	// Balance and TransactionID capture their value in group 1.
	Balance       *regexp.Regexp
	TransactionID *regexp.Regexp
}

// Registry is keyed by (country, provider). Ambiguous sender matches
// within a country resolve first-registered-wins, so registration order
// matters when adding locales.
type Registry struct {
	mu      sync.RWMutex
	ordered map[string][]*ProviderRules
	byKey   map[string]map[database.Provider]*ProviderRules
}

func NewRegistry() *Registry {
	return &Registry{
		ordered: map[string][]*ProviderRules{},
		byKey:   map[string]map[database.Provider]*ProviderRules{},
	}
}

func (r *Registry) Register(countryCode string, rules *ProviderRules) error {
	if rules.Received == nil && rules.Sent == nil {
		return errors.Newf("provider %s has no message patterns", rules.Provider)
	}

	country := strings.ToUpper(countryCode)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[country][rules.Provider]; ok {
		return errors.Newf("provider %s already registered for %s", rules.Provider, country)
	}

	if r.byKey[country] == nil {
		r.byKey[country] = map[database.Provider]*ProviderRules{}
	}

	r.byKey[country][rules.Provider] = rules
	r.ordered[country] = append(r.ordered[country], rules)

	return nil
}

// DetectProvider finds the first registered rule set whose sender
// keywords match the given sender identity. Nil means unknown sender.
func (r *Registry) DetectProvider(countryCode, sender string) *ProviderRules {
	lower := strings.ToLower(sender)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rules := range r.ordered[strings.ToUpper(countryCode)] {
		for _, keyword := range rules.SenderKeywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				return rules
			}
		}
	}

	return nil
}

func (r *Registry) Rules(countryCode string, provider database.Provider) *ProviderRules {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.byKey[strings.ToUpper(countryCode)][provider]
}

// KnownSender reports whether any registered rule set, in any country,
// claims the sender. The ingest gate uses this alongside its keyword
// list.
func (r *Registry) KnownSender(sender string) bool {
	lower := strings.ToLower(sender)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rulesets := range r.ordered {
		for _, rules := range rulesets {
			for _, keyword := range rules.SenderKeywords {
				if strings.Contains(lower, strings.ToLower(keyword)) {
					return true
				}
			}
		}
	}

	return false
}

func (r *Registry) Countries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	countries := make([]string, 0, len(r.ordered))
	for country := range r.ordered {
		countries = append(countries, country)
	}

	return countries
}
