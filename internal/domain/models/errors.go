package models

import "errors"

// Trade-path errors are returned as values so the lifecycle controller can
// always reset cleanly. Feed connectivity is a status flag, never an error
// inside trade logic.
var (
	// ErrInvalidTradeRequest marks malformed placement parameters, rejected
	// before any state mutation.
	ErrInvalidTradeRequest = errors.New("invalid trade request")

	// ErrDuplicatePlacement is returned when a placement arrives while a
	// non-terminal trade exists. The existing trade is untouched.
	ErrDuplicatePlacement = errors.New("trade already in flight")

	// ErrLedgerRejected is returned when the external ledger refuses a
	// placement. The session resets to idle.
	ErrLedgerRejected = errors.New("ledger rejected placement")

	// ErrSettlementStale is returned when no fresh price arrives within the
	// settlement wait bound. Surfaced distinctly from a loss.
	ErrSettlementStale = errors.New("no fresh price at expiry")

	// ErrFeedUnavailable is returned when an operation needs a live price and
	// the feed has none.
	ErrFeedUnavailable = errors.New("price feed unavailable")

	// ErrNoActiveTrade is returned by early close when nothing is active.
	ErrNoActiveTrade = errors.New("no active trade")
)
