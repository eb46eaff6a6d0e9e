package repository

import (
	"context"

	"OptionPulse/internal/domain/models"
)

// MarketStream is one persistent streaming connection to a single external
// tick source. Reconnect policy is owned by the feed connector, not here.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Close() error
	IsConnected() bool
}

// PlacementResult is the ledger's answer to a placement request.
type PlacementResult struct {
	Accepted bool   `json:"accepted"`
	TradeID  string `json:"trade_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Ledger is the external trade-record collaborator. Settlement recording is
// fire-and-forget from the caller's perspective: failures are logged, never
// rolled back into the user-facing outcome.
type Ledger interface {
	PlaceTrade(ctx context.Context, params models.TradeParameters) (PlacementResult, error)
	RecordSettlement(ctx context.Context, tradeID string, res models.SettlementResult) error
	FetchStatistics(ctx context.Context) ([]models.StatBucket, error)
}

// Metrics records operational counters for the engine.
type Metrics interface {
	RecordTick(symbol string, price float64)
	RecordError(kind string)
	RecordReconnect()
	RecordSettlement(outcome string)
	RecordLatency(op string, seconds float64)
}
