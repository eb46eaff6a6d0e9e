package usecase

import (
	"context"
	"math"

	"OptionPulse/internal/analytics"
	"OptionPulse/internal/domain/models"
	"OptionPulse/internal/service/stats"
	"OptionPulse/pkg/logger"
)

// RecommenderConfig tunes the scoring model.
type RecommenderConfig struct {
	// ReliableSamples at or above which an empirical rate is used directly.
	ReliableSamples int
	// MinSamples at or above which Laplace smoothing applies; below it the
	// default table is used.
	MinSamples int
	// Cap bounds the advertised win rate below certainty.
	Cap float64
	// LowVolPct under which predictability earns a small boost.
	LowVolPct float64
	// LowVolBoost added in calm tape.
	LowVolBoost float64
	// HighVolPct above which the rate is penalized.
	HighVolPct float64
	// HighVolPenalty subtracted in noisy tape. Larger than the boost:
	// predictability degrades faster than it improves.
	HighVolPenalty float64
	// TrendBonusMax scales the trend strength/confidence bonus.
	TrendBonusMax float64
	// DefaultPenalty subtracted when the base rate came from defaults.
	DefaultPenalty float64
}

// DefaultRecommenderConfig returns the production scoring constants.
func DefaultRecommenderConfig() RecommenderConfig {
	return RecommenderConfig{
		ReliableSamples: 30,
		MinSamples:      5,
		Cap:             0.72,
		LowVolPct:       0.05,
		LowVolBoost:     0.03,
		HighVolPct:      0.20,
		HighVolPenalty:  0.08,
		TrendBonusMax:   0.04,
		DefaultPenalty:  0.05,
	}
}

// defaultRates is the fallback win-rate table used when a bucket has no
// usable history. Wider strikes are harder to reach, so defaults fall off
// with the offset; longer expiries give the move more room.
var defaultRates = map[models.ExpiryClass]map[float64]float64{
	models.Expiry5s:  {5: 0.51, 10: 0.47, 20: 0.41, 50: 0.30},
	models.Expiry10s: {5: 0.52, 10: 0.49, 20: 0.44, 50: 0.34},
	models.Expiry15s: {5: 0.53, 10: 0.50, 20: 0.46, 50: 0.37},
}

var confidenceWeights = map[models.ConfidenceLevel]float64{
	models.ConfidenceHigh:   1.0,
	models.ConfidenceMedium: 0.85,
	models.ConfidenceLow:    0.7,
}

// Recommender scores every (expiry, strike offset) combination for the side
// implied by the current trend and returns the best one.
type Recommender struct {
	stats *stats.Source
	trend *analytics.Trend
	log   *logger.Logger
	cfg   RecommenderConfig
}

// NewRecommender creates a recommendation engine.
func NewRecommender(statsSrc *stats.Source, trend *analytics.Trend, log *logger.Logger, cfg RecommenderConfig) *Recommender {
	if cfg.Cap <= 0 {
		cfg = DefaultRecommenderConfig()
	}
	return &Recommender{stats: statsSrc, trend: trend, log: log, cfg: cfg}
}

// Recommend returns the best-scoring combination under current market
// conditions, with the adjustment breakdown attached for audit.
func (r *Recommender) Recommend(ctx context.Context) (models.Recommendation, error) {
	snap := r.trend.Analyze()

	side := models.SideCall // fixed default when the trend is neutral
	if snap.Direction == models.TrendDown {
		side = models.SidePut
	}

	var best models.Recommendation
	bestScore := math.Inf(-1)
	for _, expiry := range models.ExpiryClasses {
		for _, offset := range models.StrikeOffsets {
			rec := r.score(ctx, expiry, offset, side, snap)
			if rec.Score > bestScore {
				bestScore = rec.Score
				best = rec
			}
		}
	}

	r.log.Debug("recommendation computed",
		logger.String("side", string(best.Side)),
		logger.String("expiry", string(best.Expiry)),
		logger.Float64("offset", best.StrikeOffset),
		logger.Float64("rate", best.WinRateEstimate))
	return best, nil
}

func (r *Recommender) score(ctx context.Context, expiry models.ExpiryClass, offset float64, side models.Side, snap models.TrendSnapshot) models.Recommendation {
	bucket, found := r.stats.Get(ctx, models.StatKey{Expiry: expiry, Offset: offset, Side: side})
	base, source, samples := r.baseRate(bucket, found, expiry, offset)

	breakdown := models.RateBreakdown{BaseRate: base, Source: source}

	// 1. volatility: calm tape helps a little, noisy tape hurts more
	switch {
	case snap.VolatilityPct < r.cfg.LowVolPct:
		breakdown.VolatilityAdj = r.cfg.LowVolBoost
	case snap.VolatilityPct > r.cfg.HighVolPct:
		breakdown.VolatilityAdj = -r.cfg.HighVolPenalty
	}

	// 2. trend alignment, bounded and small
	if snap.Direction != models.TrendNeutral {
		breakdown.TrendBonus = r.cfg.TrendBonusMax * snap.Strength * snap.Confidence
	}

	// 3. synthetic data is worth less
	if source == models.RateSourceDefault {
		breakdown.DefaultPenalty = -r.cfg.DefaultPenalty
	}

	rate := base + breakdown.VolatilityAdj + breakdown.TrendBonus + breakdown.DefaultPenalty
	if rate > r.cfg.Cap {
		rate = r.cfg.Cap
		breakdown.Capped = true
	}
	if rate < 0 {
		rate = 0
	}

	confidence := r.confidence(source, samples)
	return models.Recommendation{
		Side:            side,
		StrikeOffset:    offset,
		Expiry:          expiry,
		WinRateEstimate: rate,
		Confidence:      confidence,
		SampleSize:      samples,
		Score:           rate * confidenceWeights[confidence],
		Breakdown:       breakdown,
	}
}

// baseRate resolves the empirical, smoothed, or default base win rate and
// tags which it was.
func (r *Recommender) baseRate(bucket models.StatBucket, found bool, expiry models.ExpiryClass, offset float64) (float64, models.RateSource, int) {
	samples := 0
	if found {
		samples = bucket.Wins + bucket.Losses
	}
	switch {
	case found && samples >= r.cfg.ReliableSamples:
		return bucket.WinRate, models.RateSourceReal, samples
	case found && samples >= r.cfg.MinSamples:
		smoothed := float64(bucket.Wins+1) / float64(bucket.Wins+bucket.Losses+2)
		return smoothed, models.RateSourceSmoothed, samples
	default:
		return defaultRates[expiry][offset], models.RateSourceDefault, samples
	}
}

func (r *Recommender) confidence(source models.RateSource, samples int) models.ConfidenceLevel {
	switch source {
	case models.RateSourceReal:
		if samples >= 100 {
			return models.ConfidenceHigh
		}
		return models.ConfidenceMedium
	case models.RateSourceSmoothed:
		if samples >= 15 {
			return models.ConfidenceMedium
		}
		return models.ConfidenceLow
	default:
		return models.ConfidenceLow
	}
}
