// Package settlement decides, for one trade and one final price, whether the
// holder won and what is paid out. The core is a pure function over the
// versioned payout table: same inputs, bit-identical result.
package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"OptionPulse/internal/domain/models"
)

// Engine settles trades against one payout table.
type Engine struct {
	table *PayoutTable
}

// NewEngine creates an engine over the given table.
func NewEngine(table *PayoutTable) *Engine {
	if table == nil {
		table = DefaultTable()
	}
	return &Engine{table: table}
}

// TableVersion reports which multiplier schedule is in force.
func (e *Engine) TableVersion() string { return e.table.Version }

// Settle computes the outcome for a trade at its final price. A call wins
// strictly above the strike, a put strictly below; exact equality settles as
// a loss for the holder. No side effects, safe to call any number of times.
func (e *Engine) Settle(p models.TradeParameters, finalPrice float64) (models.SettlementResult, error) {
	mult, ok := e.table.Multiplier(p.Expiry, p.StrikeOffset)
	if !ok {
		return models.SettlementResult{}, fmt.Errorf("no payout entry for expiry=%s offset=%v", p.Expiry, p.StrikeOffset)
	}

	won := (p.Side == models.SideCall && finalPrice > p.StrikePrice) ||
		(p.Side == models.SidePut && finalPrice < p.StrikePrice)

	premium := decimal.NewFromInt(int64(p.Contracts)).Mul(e.table.Premium)
	res := models.SettlementResult{
		Outcome:    models.OutcomeLoss,
		FinalPrice: finalPrice,
		Payout:     decimal.Zero,
		Profit:     premium.Neg(),
	}
	if won {
		res.Outcome = models.OutcomeWin
		res.Payout = decimal.NewFromInt(int64(p.Contracts)).Mul(mult)
		res.Profit = res.Payout.Sub(premium)
	}
	return res, nil
}

// EarlyClose settles a manually closed trade: the premium is forfeited and
// nothing is paid out, regardless of where the price sits.
func (e *Engine) EarlyClose(p models.TradeParameters, closePrice float64) models.SettlementResult {
	premium := decimal.NewFromInt(int64(p.Contracts)).Mul(e.table.Premium)
	return models.SettlementResult{
		Outcome:    models.OutcomeLoss,
		FinalPrice: closePrice,
		Payout:     decimal.Zero,
		Profit:     premium.Neg(),
		EarlyClose: true,
	}
}
