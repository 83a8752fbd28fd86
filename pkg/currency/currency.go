// Package currency converts between display amounts and ISO 4217 minor
// units. Amounts are stored as int64 minor units; decimals only exist at
// the parse boundary.
package currency

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// Decimal places are a property of the currency, not of the provider
// that happens to quote it.
var decimalPlaces = map[string]int32{
	"BIF": 0,
	"CDF": 0,
	"GNF": 0,
	"KMF": 0,
	"RWF": 0,
	"TZS": 0,
	"UGX": 0,
	"XAF": 0,
	"XOF": 0,

	"GHS": 2,
	"KES": 2,
	"MWK": 2,
	"NGN": 2,
	"ZAR": 2,
	"ZMW": 2,
	"EUR": 2,
	"USD": 2,

	"BHD": 3,
	"TND": 3,
}

const defaultDecimals = int32(2)

func Decimals(code string) int32 {
	if d, ok := decimalPlaces[strings.ToUpper(code)]; ok {
		return d
	}

	return defaultDecimals
}

// ToMinorUnits shifts an amount into the currency's smallest unit,
// e.g. GHS 50.00 -> 5000, RWF 5000 -> 5000.
func ToMinorUnits(amount decimal.Decimal, code string) (int64, error) {
	if amount.IsNegative() {
		return 0, errors.Newf("negative amount %s", amount)
	}

	shifted := amount.Shift(Decimals(code))
	if !shifted.IsInteger() {
		return 0, errors.Newf("amount %s has more precision than %s allows", amount, code)
	}

	return shifted.IntPart(), nil
}

func FromMinorUnits(minor int64, code string) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-Decimals(code))
}

// CleanAmount strips thousands separators and stray whitespace from an
// amount captured out of a message body, e.g. "1,250.50" -> "1250.50".
func CleanAmount(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	return cleaned
}

// ParseAmount parses a captured amount string straight to minor units.
func ParseAmount(raw, code string) (int64, error) {
	amount, err := decimal.NewFromString(CleanAmount(raw))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse amount %q", raw)
	}

	return ToMinorUnits(amount, code)
}
