package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ikanisa/momo-relay/pkg/database"
)

// Both AI tiers share one extraction contract: the same instruction, the
// same user content shape and the same response JSON. Only the transport
// differs.
const extractionPrompt = `You extract structured mobile money transactions from SMS notifications.
Reply with a single JSON object and nothing else, using exactly these keys:
amount_in_minor_units (integer, required; the amount in the currency's smallest unit),
currency (ISO 4217 code),
sender_phone (string or null),
recipient_phone (string or null),
transaction_id (string or null),
transaction_type (one of RECEIVED, SENT, PAYMENT, WITHDRAWAL, DEPOSIT, AIRTIME, CASH_OUT, UNKNOWN),
provider (one of MTN, AIRTEL, ORANGE, MPESA, UNKNOWN),
balance_in_minor_units (integer or null),
timestamp (ISO-8601 string or null).
If the message is not a money transaction, or the amount cannot be determined, set amount_in_minor_units to -1.`

func userContent(sender, body string) string {
	return fmt.Sprintf("SMS Sender: %s\nSMS Body: %s", sender, body)
}

type llmTransaction struct {
	AmountInMinorUnits  *int64  `json:"amount_in_minor_units"`
	Currency            string  `json:"currency"`
	SenderPhone         *string `json:"sender_phone"`
	RecipientPhone      *string `json:"recipient_phone"`
	TransactionID       *string `json:"transaction_id"`
	TransactionType     string  `json:"transaction_type"`
	Provider            string  `json:"provider"`
	BalanceInMinorUnits *int64  `json:"balance_in_minor_units"`
	Timestamp           *string `json:"timestamp"`
}

// stripCodeFence removes markdown fencing that models wrap around JSON
// despite instructions.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)

	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}

// decodeLLMResponse turns a model reply into a transaction. A nil result
// with nil error is a soft miss: empty reply, garbled JSON, or a reply
// that signals "could not extract" via a missing/negative amount.
func decodeLLMResponse(raw, defaultCurrency string) *database.Transaction {
	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return nil
	}

	var decoded llmTransaction
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil
	}

	if decoded.AmountInMinorUnits == nil || *decoded.AmountInMinorUnits < 0 {
		return nil
	}

	code := strings.ToUpper(strings.TrimSpace(decoded.Currency))
	if code == "" {
		code = defaultCurrency
	}

	direction := parseDirection(decoded.TransactionType)

	tx := &database.Transaction{
		AmountMinorUnits:     *decoded.AmountInMinorUnits,
		CurrencyCode:         code,
		Direction:            direction,
		Provider:             parseProvider(decoded.Provider),
		TransactionReference: emptyToNil(decoded.TransactionID),
		BalanceMinorUnits:    decoded.BalanceInMinorUnits,
	}

	// The counterparty is whoever is on the other side of the money.
	if direction == database.DirectionReceived {
		tx.CounterpartyPhone = emptyToNil(decoded.SenderPhone)
	} else {
		tx.CounterpartyPhone = emptyToNil(decoded.RecipientPhone)
	}

	return tx
}

func parseDirection(raw string) database.Direction {
	switch database.Direction(strings.ToUpper(strings.TrimSpace(raw))) {
	case database.DirectionReceived:
		return database.DirectionReceived
	case database.DirectionSent:
		return database.DirectionSent
	case database.DirectionPayment:
		return database.DirectionPayment
	case database.DirectionWithdrawal:
		return database.DirectionWithdrawal
	case database.DirectionDeposit:
		return database.DirectionDeposit
	case database.DirectionAirtime:
		return database.DirectionAirtime
	case database.DirectionCashOut:
		return database.DirectionCashOut
	default:
		return database.DirectionUnknown
	}
}

func parseProvider(raw string) database.Provider {
	switch database.Provider(strings.ToUpper(strings.TrimSpace(raw))) {
	case database.ProviderMTN:
		return database.ProviderMTN
	case database.ProviderAirtel:
		return database.ProviderAirtel
	case database.ProviderOrange:
		return database.ProviderOrange
	case database.ProviderMpesa:
		return database.ProviderMpesa
	default:
		return database.ProviderUnknown
	}
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}

	return s
}
