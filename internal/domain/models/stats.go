package models

// StatKey identifies one (expiry, strike offset, side) aggregate.
type StatKey struct {
	Expiry ExpiryClass `json:"expiry"`
	Offset float64     `json:"offset"`
	Side   Side        `json:"side"`
}

// StatBucket is a cached win/loss aggregate sourced from the external ledger.
// Read-only from this service's perspective.
type StatBucket struct {
	Key         StatKey `json:"key"`
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`
}

// RateSource tags where a base win rate came from, so confidence and penalty
// logic operates on an explicit variant rather than inferred sample ranges.
type RateSource string

const (
	// RateSourceReal: enough samples to trust the empirical rate directly.
	RateSourceReal RateSource = "real"
	// RateSourceSmoothed: small sample, Laplace-smoothed counts.
	RateSourceSmoothed RateSource = "smoothed"
	// RateSourceDefault: no usable data, hard-coded default table.
	RateSourceDefault RateSource = "default"
)
