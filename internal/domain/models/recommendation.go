package models

// TrendDirection is the detected short-window direction.
type TrendDirection string

const (
	TrendUp      TrendDirection = "up"
	TrendDown    TrendDirection = "down"
	TrendNeutral TrendDirection = "neutral"
)

// TrendSnapshot is recomputed fresh on each query from the current sample
// window; it is never persisted.
type TrendSnapshot struct {
	Direction     TrendDirection `json:"direction"`
	Strength      float64        `json:"strength"`
	Confidence    float64        `json:"confidence"`
	VolatilityPct float64        `json:"volatility_pct"`
	WeightedAvg   float64        `json:"weighted_avg"`
	Samples       int            `json:"samples"`
}

// ConfidenceLevel buckets how much the recommendation should be trusted.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// RateBreakdown records each adjustment applied to the base win rate so a
// recommendation can be audited term by term.
type RateBreakdown struct {
	BaseRate       float64    `json:"base_rate"`
	Source         RateSource `json:"source"`
	VolatilityAdj  float64    `json:"volatility_adj"`
	TrendBonus     float64    `json:"trend_bonus"`
	DefaultPenalty float64    `json:"default_penalty"`
	Capped         bool       `json:"capped"`
}

// Recommendation is the best-scoring (side, offset, expiry) combination.
type Recommendation struct {
	Side            Side            `json:"side"`
	StrikeOffset    float64         `json:"strike_offset"`
	Expiry          ExpiryClass     `json:"expiry"`
	WinRateEstimate float64         `json:"win_rate_estimate"`
	Confidence      ConfidenceLevel `json:"confidence"`
	SampleSize      int             `json:"sample_size"`
	Score           float64         `json:"score"`
	Breakdown       RateBreakdown   `json:"breakdown"`
}
