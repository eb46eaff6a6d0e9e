package analytics

import (
	"math"

	"OptionPulse/internal/domain/models"
)

// TrendConfig tunes the short-window direction detector.
type TrendConfig struct {
	// Window is the number of recent samples examined.
	Window int
	// MinSamples below which the snapshot is neutral with zero confidence.
	MinSamples int
	// ThresholdFloorPct is the minimum percent move to call a direction.
	ThresholdFloorPct float64
	// VolThresholdScale scales current volatility into the threshold.
	VolThresholdScale float64
	// StrengthScalePct is the percent move mapping to full strength.
	StrengthScalePct float64
}

// DefaultTrendConfig matches the product's 15-sample short window.
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		Window:            15,
		MinSamples:        5,
		ThresholdFloorPct: 0.01,
		VolThresholdScale: 0.5,
		StrengthScalePct:  0.05,
	}
}

// Trend computes directional strength and confidence over the most recent
// fixed-size window. Snapshots are recomputed fresh on every call.
type Trend struct {
	window *Window
	vol    *Volatility
	cfg    TrendConfig
}

// NewTrend creates an analyzer over the shared sample window.
func NewTrend(window *Window, vol *Volatility, cfg TrendConfig) *Trend {
	if cfg.Window <= 0 {
		cfg = DefaultTrendConfig()
	}
	return &Trend{window: window, vol: vol, cfg: cfg}
}

// Analyze returns the current trend snapshot. The direction threshold is
// dynamic: a fixed floor plus a volatility-scaled term, so noisy tape needs a
// larger move before a direction is called.
func (t *Trend) Analyze() models.TrendSnapshot {
	volPct := t.vol.CurrentVolatilityPct()
	samples := t.window.Last(t.cfg.Window)
	snap := models.TrendSnapshot{
		Direction:     models.TrendNeutral,
		VolatilityPct: volPct,
		Samples:       len(samples),
	}
	if len(samples) < t.cfg.MinSamples {
		return snap
	}

	snap.WeightedAvg = weightedAverage(samples)

	first, last := samples[0].Price, samples[len(samples)-1].Price
	if first <= 0 {
		return snap
	}
	pctChange := (last - first) / first * 100

	threshold := t.cfg.ThresholdFloorPct + t.cfg.VolThresholdScale*volPct
	if math.Abs(pctChange) <= threshold {
		return snap
	}

	if pctChange > 0 {
		snap.Direction = models.TrendUp
	} else {
		snap.Direction = models.TrendDown
	}
	snap.Strength = math.Min(math.Abs(pctChange)/t.cfg.StrengthScalePct, 1)
	snap.Confidence = agreement(samples, snap.Direction)
	return snap
}

// weightedAverage is a linearly weighted moving average favoring recent
// samples. It smooths the window but is not itself the trend signal.
func weightedAverage(samples []models.PriceSample) float64 {
	var sum, weights float64
	for i, s := range samples {
		w := float64(i + 1)
		sum += s.Price * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

// agreement is the fraction of consecutive moves whose sign matches the
// detected direction.
func agreement(samples []models.PriceSample, dir models.TrendDirection) float64 {
	moves := len(samples) - 1
	if moves <= 0 {
		return 0
	}
	agreeing := 0
	for i := 1; i < len(samples); i++ {
		d := samples[i].Price - samples[i-1].Price
		if (dir == models.TrendUp && d > 0) || (dir == models.TrendDown && d < 0) {
			agreeing++
		}
	}
	return float64(agreeing) / float64(moves)
}
