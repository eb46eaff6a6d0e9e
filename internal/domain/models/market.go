package models

import "time"

// Tick is a normalized trade tick from the market stream, enriched with the
// change against the previous tick on the same instrument.
type Tick struct {
	Symbol       string    `json:"symbol"`
	Price        float64   `json:"price"`
	Volume       float64   `json:"volume"`
	At           time.Time `json:"at"`
	ChangeAmount float64   `json:"change_amount"`
	ChangePct    float64   `json:"change_pct"`
}

// PriceSample is one point retained in the estimation window.
// Immutable once created.
type PriceSample struct {
	Price float64   `json:"price"`
	At    time.Time `json:"at"`
}
