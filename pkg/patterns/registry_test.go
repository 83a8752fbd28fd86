package patterns_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ikanisa/momo-relay/pkg/database"
	"github.com/ikanisa/momo-relay/pkg/patterns"
)

func TestDetectProvider(t *testing.T) {
	r := patterns.DefaultRegistry()

	rules := r.DetectProvider("GH", "MTN MoMo")
	assert.NotNil(t, rules)
	assert.Equal(t, database.ProviderMTN, rules.Provider)
	assert.Equal(t, "GHS", rules.CurrencyCode)

	assert.Nil(t, r.DetectProvider("GH", "SomeRandomSender"))
	assert.Nil(t, r.DetectProvider("ZZ", "MTN MoMo"))
}

func TestDetectProviderIsCaseInsensitive(t *testing.T) {
	r := patterns.DefaultRegistry()

	assert.NotNil(t, r.DetectProvider("KE", "MPESA"))
	assert.NotNil(t, r.DetectProvider("KE", "mPeSa"))
}

func TestRulesLookupByExplicitKey(t *testing.T) {
	r := patterns.DefaultRegistry()

	assert.NotNil(t, r.Rules("RW", database.ProviderMTN))
	assert.NotNil(t, r.Rules("RW", database.ProviderAirtel))
	assert.Nil(t, r.Rules("RW", database.ProviderMpesa))
}

func TestRegisterRejectsDuplicateProvider(t *testing.T) {
	r := patterns.NewRegistry()

	rules := &patterns.ProviderRules{
		Provider:       database.ProviderMTN,
		CurrencyCode:   "GHS",
		SenderKeywords: []string{"mtn"},
		Received: &patterns.MessagePattern{
			Regexp:      regexp.MustCompile(`received ([\d.]+) from (\d+)`),
			AmountGroup: 1,
			PartyGroup:  2,
		},
	}

	assert.NoError(t, r.Register("GH", rules))
	assert.Error(t, r.Register("GH", rules))
}

func TestRegisterRejectsRuleWithoutPatterns(t *testing.T) {
	r := patterns.NewRegistry()

	err := r.Register("GH", &patterns.ProviderRules{
		Provider:       database.ProviderMTN,
		SenderKeywords: []string{"mtn"},
	})
	assert.Error(t, err)
}

func TestAmbiguousSenderResolvesFirstRegistered(t *testing.T) {
	r := patterns.NewRegistry()

	pattern := &patterns.MessagePattern{
		Regexp:      regexp.MustCompile(`received ([\d.]+) from (\d+)`),
		AmountGroup: 1,
		PartyGroup:  2,
	}

	assert.NoError(t, r.Register("RW", &patterns.ProviderRules{
		Provider:       database.ProviderMTN,
		CurrencyCode:   "RWF",
		SenderKeywords: []string{"money"},
		Received:       pattern,
	}))
	assert.NoError(t, r.Register("RW", &patterns.ProviderRules{
		Provider:       database.ProviderAirtel,
		CurrencyCode:   "RWF",
		SenderKeywords: []string{"airtel money"},
		Received:       pattern,
	}))

	// "Airtel Money" contains both keywords; first registered wins.
	detected := r.DetectProvider("RW", "Airtel Money")
	assert.NotNil(t, detected)
	assert.Equal(t, database.ProviderMTN, detected.Provider)
}

func TestKnownSenderAcrossCountries(t *testing.T) {
	r := patterns.DefaultRegistry()

	assert.True(t, r.KnownSender("MTN MoMo"))
	assert.True(t, r.KnownSender("M-PESA"))
	assert.True(t, r.KnownSender("Orange Money CM"))
	assert.False(t, r.KnownSender("PROMO-SPAM"))
}

// One extraction test per built-in rule keeps the per-locale capture
// group configuration honest.
func TestBuiltinRuleCaptureGroups(t *testing.T) {
	r := patterns.DefaultRegistry()

	cases := []struct {
		name    string
		country string
		provider database.Provider
		body    string
		sent    bool
		amount  string
		party   string
	}{
		{
			name:     "GH MTN received",
			country:  "GH",
			provider: database.ProviderMTN,
			body:     "You have received GHS 50.00 from 0244123456. Transaction ID: MP123456789",
			amount:   "50.00",
			party:    "0244123456",
		},
		{
			name:     "GH MTN sent",
			country:  "GH",
			provider: database.ProviderMTN,
			body:     "You have sent GHS 20.00 to Ama Mensah 0201234567. Current balance: GHS 30.00",
			sent:     true,
			amount:   "20.00",
			party:    "0201234567",
		},
		{
			name:     "RW MTN received",
			country:  "RW",
			provider: database.ProviderMTN,
			body:     "You have received 5,000 RWF from John Doe (250788123456) on your mobile money account.",
			amount:   "5,000",
			party:    "250788123456",
		},
		{
			name:     "RW Airtel sent has party before amount",
			country:  "RW",
			provider: database.ProviderAirtel,
			body:     "TID: 77812. Sent to 250738123456, amount Rwf 2,000. Balance: Rwf 8,000",
			sent:     true,
			amount:   "2,000",
			party:    "250738123456",
		},
		{
			name:     "KE MPESA received",
			country:  "KE",
			provider: database.ProviderMpesa,
			body:     "ABC1DE2FG3 Confirmed. You have received Ksh500.00 from JOHN DOE 254722000000 on 1/2/25",
			amount:   "500.00",
			party:    "254722000000",
		},
		{
			name:     "CM Orange received",
			country:  "CM",
			provider: database.ProviderOrange,
			body:     "Vous avez recu 5 000 FCFA de 698123456. Trans ID: OM.4521",
			amount:   "5 000",
			party:    "698123456",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rules := r.Rules(c.country, c.provider)
			assert.NotNil(t, rules)

			pattern := rules.Received
			if c.sent {
				pattern = rules.Sent
			}

			matches := pattern.Regexp.FindStringSubmatch(c.body)
			assert.NotNil(t, matches, "pattern did not match %q", c.body)
			assert.Equal(t, c.amount, matches[pattern.AmountGroup])
			assert.Equal(t, c.party, matches[pattern.PartyGroup])
		})
	}
}
