package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side of a binary option position.
type Side string

const (
	SideCall Side = "call"
	SidePut  Side = "put"
)

// Valid reports whether the side is one of the enumerated values.
func (s Side) Valid() bool { return s == SideCall || s == SidePut }

// ExpiryClass is one of the fixed ultra-short contract durations.
type ExpiryClass string

const (
	Expiry5s  ExpiryClass = "5s"
	Expiry10s ExpiryClass = "10s"
	Expiry15s ExpiryClass = "15s"
)

// ExpiryClasses lists all supported durations, shortest first.
var ExpiryClasses = []ExpiryClass{Expiry5s, Expiry10s, Expiry15s}

// Valid reports whether the expiry class is supported.
func (e ExpiryClass) Valid() bool {
	switch e {
	case Expiry5s, Expiry10s, Expiry15s:
		return true
	}
	return false
}

// Duration returns the contract lifetime for the class.
func (e ExpiryClass) Duration() time.Duration {
	switch e {
	case Expiry5s:
		return 5 * time.Second
	case Expiry10s:
		return 10 * time.Second
	case Expiry15s:
		return 15 * time.Second
	}
	return 0
}

// StrikeOffsets is the fixed set of dollar distances between entry and strike.
var StrikeOffsets = []float64{5, 10, 20, 50}

// ValidStrikeOffset reports whether the offset is in the enumerated set.
func ValidStrikeOffset(offset float64) bool {
	for _, o := range StrikeOffsets {
		if o == offset {
			return true
		}
	}
	return false
}

// TradeParameters captures everything fixed at placement time.
// Immutable after creation; the strike is derived from entry and offset.
type TradeParameters struct {
	Side         Side        `json:"side"`
	StrikeOffset float64     `json:"strike_offset"`
	Expiry       ExpiryClass `json:"expiry"`
	Contracts    int         `json:"contracts"`
	EntryPrice   float64     `json:"entry_price"`
	StrikePrice  float64     `json:"strike_price"`
}

// NewTradeParameters validates the request fields and derives the strike.
// A call must finish above entry+offset, a put below entry-offset.
func NewTradeParameters(side Side, offset float64, expiry ExpiryClass, contracts int, entryPrice float64) (TradeParameters, error) {
	if !side.Valid() {
		return TradeParameters{}, fmt.Errorf("%w: side %q", ErrInvalidTradeRequest, side)
	}
	if !ValidStrikeOffset(offset) {
		return TradeParameters{}, fmt.Errorf("%w: strike offset %v", ErrInvalidTradeRequest, offset)
	}
	if !expiry.Valid() {
		return TradeParameters{}, fmt.Errorf("%w: expiry %q", ErrInvalidTradeRequest, expiry)
	}
	if contracts <= 0 {
		return TradeParameters{}, fmt.Errorf("%w: contracts %d", ErrInvalidTradeRequest, contracts)
	}
	if entryPrice <= 0 {
		return TradeParameters{}, fmt.Errorf("%w: entry price %v", ErrInvalidTradeRequest, entryPrice)
	}

	strike := entryPrice + offset
	if side == SidePut {
		strike = entryPrice - offset
	}
	return TradeParameters{
		Side:         side,
		StrikeOffset: offset,
		Expiry:       expiry,
		Contracts:    contracts,
		EntryPrice:   entryPrice,
		StrikePrice:  strike,
	}, nil
}

// Phase of the trade lifecycle state machine.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhasePlacing  Phase = "placing"
	PhaseActive   Phase = "active"
	PhaseSettling Phase = "settling"
	PhaseSettled  Phase = "settled"
	PhaseFailed   Phase = "failed"
)

// Terminal reports whether the phase allows a new placement.
func (p Phase) Terminal() bool {
	return p == PhaseIdle || p == PhaseSettled || p == PhaseFailed
}

// Outcome of a settled trade.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// SettlementResult is the authoritative, locally computed outcome of a trade.
// Profit is always payout minus the total premium paid.
type SettlementResult struct {
	Outcome    Outcome         `json:"outcome"`
	FinalPrice float64         `json:"final_price"`
	Payout     decimal.Decimal `json:"payout"`
	Profit     decimal.Decimal `json:"profit"`
	EarlyClose bool            `json:"early_close,omitempty"`
}

// TradeState is the single in-flight trade owned by the lifecycle controller.
type TradeState struct {
	TradeID    string            `json:"trade_id,omitempty"`
	Params     TradeParameters   `json:"params"`
	Phase      Phase             `json:"phase"`
	StartedAt  time.Time         `json:"started_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
	Settlement *SettlementResult `json:"settlement,omitempty"`
	FailReason string            `json:"fail_reason,omitempty"`
}
