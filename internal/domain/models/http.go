package models

// PlaceTradeRequest is the inbound placement payload from the session surface.
type PlaceTradeRequest struct {
	Side         string  `json:"side" validate:"required,oneof=call put"`
	StrikeOffset float64 `json:"strike_offset" validate:"required,gt=0"`
	Expiry       string  `json:"expiry" validate:"required,oneof=5s 10s 15s"`
	Contracts    int     `json:"contracts" default:"1" validate:"gte=1"`
}

// PriceResponse reports the latest known price and connectivity.
type PriceResponse struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price,omitempty"`
	HasPrice  bool    `json:"has_price"`
	Connected bool    `json:"connected"`
}

// StatusResponse is the service health snapshot.
type StatusResponse struct {
	Connected     bool    `json:"connected"`
	VolatilityPct float64 `json:"volatility_pct"`
	ActiveTrade   bool    `json:"active_trade"`
	PayoutVersion string  `json:"payout_version"`
}
