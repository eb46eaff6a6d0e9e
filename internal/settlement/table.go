package settlement

import (
	"github.com/shopspring/decimal"

	"OptionPulse/internal/domain/models"
)

// PayoutTable is versioned data, not logic: the multipliers are the product's
// priced economics and must be reproduced exactly across releases.
type PayoutTable struct {
	Version     string
	Premium     decimal.Decimal
	multipliers map[models.ExpiryClass]map[float64]decimal.Decimal
}

// TableVersion identifies the current multiplier schedule.
const TableVersion = "2024-07"

// rawMultipliers holds the total return per winning contract, as strings so
// the decimal values are exact. Shorter expiry and wider strike both pay
// more: the move is harder to achieve.
var rawMultipliers = map[models.ExpiryClass]map[float64]string{
	models.Expiry5s:  {5: "1.80", 10: "1.95", 20: "2.25", 50: "3.50"},
	models.Expiry10s: {5: "1.70", 10: "1.85", 20: "2.05", 50: "3.00"},
	models.Expiry15s: {5: "1.65", 10: "1.78", 20: "1.95", 50: "2.70"},
}

// DefaultTable returns the current payout schedule. One contract costs one
// unit of premium.
func DefaultTable() *PayoutTable {
	m := make(map[models.ExpiryClass]map[float64]decimal.Decimal, len(rawMultipliers))
	for expiry, row := range rawMultipliers {
		parsed := make(map[float64]decimal.Decimal, len(row))
		for offset, mult := range row {
			parsed[offset] = decimal.RequireFromString(mult)
		}
		m[expiry] = parsed
	}
	return &PayoutTable{
		Version:     TableVersion,
		Premium:     decimal.NewFromInt(1),
		multipliers: m,
	}
}

// Multiplier looks up the win multiplier for an (expiry, offset) pair.
func (t *PayoutTable) Multiplier(expiry models.ExpiryClass, offset float64) (decimal.Decimal, bool) {
	row, ok := t.multipliers[expiry]
	if !ok {
		return decimal.Decimal{}, false
	}
	m, ok := row[offset]
	return m, ok
}
