package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"OptionPulse/internal/domain/models"
	domrepo "OptionPulse/internal/domain/repository"
	pkghttp "OptionPulse/pkg/http"
	applogger "OptionPulse/pkg/logger"
)

// HTTPLedger talks to the external trade ledger over its JSON API.
// The ledger owns persistence and account balances; this service only
// places trades, reports settlements, and reads win/loss aggregates.
type HTTPLedger struct {
	baseURL string
	client  *pkghttp.Client
	log     *applogger.Logger
}

var _ domrepo.Ledger = (*HTTPLedger)(nil)

// NewHTTPLedger creates a ledger client for the given base URL.
func NewHTTPLedger(baseURL string, client *pkghttp.Client, log *applogger.Logger) *HTTPLedger {
	return &HTTPLedger{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log,
	}
}

type placeTradeBody struct {
	Side         models.Side        `json:"side"`
	StrikeOffset float64            `json:"strike_offset"`
	Expiry       models.ExpiryClass `json:"expiry"`
	Contracts    int                `json:"contracts"`
	EntryPrice   float64            `json:"entry_price"`
	StrikePrice  float64            `json:"strike_price"`
	PlacedAt     time.Time          `json:"placed_at"`
}

func (l *HTTPLedger) PlaceTrade(ctx context.Context, params models.TradeParameters) (domrepo.PlacementResult, error) {
	start := time.Now()
	var res domrepo.PlacementResult
	err := l.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    l.baseURL + "/trades",
		Body: placeTradeBody{
			Side:         params.Side,
			StrikeOffset: params.StrikeOffset,
			Expiry:       params.Expiry,
			Contracts:    params.Contracts,
			EntryPrice:   params.EntryPrice,
			StrikePrice:  params.StrikePrice,
			PlacedAt:     time.Now().UTC(),
		},
	}, &res)
	if err != nil {
		l.log.Error("ledger place trade failed",
			applogger.String("side", string(params.Side)),
			applogger.String("expiry", string(params.Expiry)),
			applogger.Duration("duration_ms", time.Since(start)),
			applogger.Error(err),
		)
		return domrepo.PlacementResult{}, fmt.Errorf("place trade: %w", err)
	}
	return res, nil
}

type settlementBody struct {
	Outcome    models.Outcome `json:"outcome"`
	FinalPrice float64        `json:"final_price"`
	Payout     string         `json:"payout"`
	Profit     string         `json:"profit"`
	EarlyClose bool           `json:"early_close"`
	SettledAt  time.Time      `json:"settled_at"`
}

func (l *HTTPLedger) RecordSettlement(ctx context.Context, tradeID string, res models.SettlementResult) error {
	err := l.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    fmt.Sprintf("%s/trades/%s/settlement", l.baseURL, tradeID),
		Body: settlementBody{
			Outcome:    res.Outcome,
			FinalPrice: res.FinalPrice,
			Payout:     res.Payout.String(),
			Profit:     res.Profit.String(),
			EarlyClose: res.EarlyClose,
			SettledAt:  time.Now().UTC(),
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("record settlement: %w", err)
	}
	return nil
}

type statisticsResponse struct {
	Buckets []models.StatBucket `json:"buckets"`
}

func (l *HTTPLedger) FetchStatistics(ctx context.Context) ([]models.StatBucket, error) {
	var res statisticsResponse
	err := l.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    l.baseURL + "/statistics",
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("fetch statistics: %w", err)
	}
	return res.Buckets, nil
}
