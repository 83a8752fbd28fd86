package patterns

import (
	"regexp"

	"github.com/ikanisa/momo-relay/pkg/database"
)

// DefaultRegistry returns the built-in rule table. Registration order is
// the ambiguity-resolution order within each country, so broadly-worded
// sender keywords must come last.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	mustRegister(r, "GH", mtnGhana())
	mustRegister(r, "RW", mtnRwanda())
	mustRegister(r, "RW", airtelRwanda())
	mustRegister(r, "KE", mpesaKenya())
	mustRegister(r, "CM", orangeCameroon())

	return r
}

func mustRegister(r *Registry, country string, rules *ProviderRules) {
	if err := r.Register(country, rules); err != nil {
		panic(err)
	}
}

func mtnGhana() *ProviderRules {
	return &ProviderRules{
		Provider:       database.ProviderMTN,
		CurrencyCode:   "GHS",
		SenderKeywords: []string{"mtn momo", "mtnmomo", "mobilemoney"},
		Received: &MessagePattern{
			Regexp:      regexp.MustCompile(`(?i)you have received GHS\s*([\d,]+(?:\.\d+)?)\s+from\s+(?:[A-Za-z .'-]*\s)?(0\d{9})`),
			AmountGroup: 1,
			PartyGroup:  2,
		},
		Sent: &MessagePattern{
			Regexp:      regexp.MustCompile(`(?i)you have sent GHS\s*([\d,]+(?:\.\d+)?)\s+to\s+(?:[A-Za-z .'-]*\s)?(0\d{9})`),
			AmountGroup: 1,
			PartyGroup:  2,
		},
		Balance:       regexp.MustCompile(`(?i)(?:new|current) balance(?:\sis)?:?\s*GHS\s*([\d,]+(?:\.\d+)?)`),
		TransactionID: regexp.MustCompile(`(?i)transaction id:?\s*([A-Za-z0-9]+)`),
	}
}

func mtnRwanda() *ProviderRules {
	return &ProviderRules{
		Provider:       database.ProviderMTN,
		CurrencyCode:   "RWF",
		SenderKeywords: []string{"m-money", "mtn mobile money", "y'ello"},
		Received: &MessagePattern{
			Regexp:      regexp.MustCompile(`(?i)you have received\s+([\d,]+)\s*RWF\s+from\s+[A-Za-z .'-]*\(?\**(250\d{9}|07\d{8})\)?`),
			AmountGroup: 1,
			PartyGroup:  2,
		},
		Sent: &MessagePattern{
			Regexp:      regexp.MustCompile(`(?i)your payment of\s+([\d,]+)\s*RWF\s+to\s+[A-Za-z .'-]*\(?\**(250\d{9}|07\d{8})?\)?`),
			AmountGroup: 1,
			PartyGroup:  2,
		},
		Balance:       regexp.MustCompile(`(?i)(?:new|current) balance:?\s*([\d,]+)\s*RWF`),
		TransactionID: regexp.MustCompile(`(?i)(?:txid|transaction id|financial transaction id):?\s*(\d+)`),
	}
}

// Airtel's sent wording puts the recipient before the amount, which is
// why group indices stay configurable per rule.
func airtelRwanda() *ProviderRules {
	return &ProviderRules{
		Provider:       database.ProviderAirtel,
		CurrencyCode:   "RWF",
		SenderKeywords: []string{"airtel money", "airtelmoney"},
		Received: &MessagePattern{
			Regexp:      regexp.MustCompile(`(?i)you have received\s+Rwf\s*([\d,]+)\s+from\s+(250\d{9}|07\d{8})`),
			AmountGroup: 1,
			PartyGroup:  2,
		},
		Sent: &MessagePattern{
			Regexp:      regexp.MustCompile(`(?i)sent to\s+(250\d{9}|07\d{8}),?\s+amount\s+Rwf\s*([\d,]+)`),
			AmountGroup: 2,
			PartyGroup:  1,
		},
		Balance:       regexp.MustCompile(`(?i)balance:?\s*Rwf\s*([\d,]+)`),
		TransactionID: regexp.MustCompile(`(?i)TID:?\s*([A-Za-z0-9.]+)`),
	}
}

func mpesaKenya() *ProviderRules {
	return &ProviderRules{
		Provider:       database.ProviderMpesa,
		CurrencyCode:   "KES",
		SenderKeywords: []string{"mpesa", "m-pesa"},
		Received: &MessagePattern{
			Regexp:      regexp.MustCompile(`(?i)you have received\s+Ksh\s*([\d,]+(?:\.\d+)?)\s+from\s+[A-Z .'-]*\s?(254\d{9}|07\d{8})`),
			AmountGroup: 1,
			PartyGroup:  2,
		},
		Sent: &MessagePattern{
			Regexp:      regexp.MustCompile(`(?i)Ksh\s*([\d,]+(?:\.\d+)?)\s+sent to\s+[A-Z .'-]*\s?(254\d{9}|07\d{8})`),
			AmountGroup: 1,
			PartyGroup:  2,
		},
		Balance:       regexp.MustCompile(`(?i)balance (?:is|was)\s+Ksh\s*([\d,]+(?:\.\d+)?)`),
		TransactionID: regexp.MustCompile(`\b([A-Z0-9]{10})\s+Confirmed`),
	}
}

func orangeCameroon() *ProviderRules {
	return &ProviderRules{
		Provider:       database.ProviderOrange,
		CurrencyCode:   "XAF",
		SenderKeywords: []string{"orange money", "orangemoney", "om cameroun"},
		Received: &MessagePattern{
			Regexp:      regexp.MustCompile(`(?i)vous avez re[cç]u\s+([\d\s,]+)\s*FCFA\s+de\s+(?:[A-Za-z .'-]*\s)?(6\d{8})`),
			AmountGroup: 1,
			PartyGroup:  2,
		},
		Sent: &MessagePattern{
			Regexp:      regexp.MustCompile(`(?i)vous avez envoy[eé]\s+([\d\s,]+)\s*FCFA\s+[aà]\s+(?:[A-Za-z .'-]*\s)?(6\d{8})`),
			AmountGroup: 1,
			PartyGroup:  2,
		},
		Balance:       regexp.MustCompile(`(?i)solde:?\s*([\d\s,]+)\s*FCFA`),
		TransactionID: regexp.MustCompile(`(?i)trans(?:action)? id:?\s*([A-Za-z0-9.]+)`),
	}
}
