package analytics

import (
	"math"
	"sync"
)

const (
	// DefaultLambda is the EWMA decay constant for sub-minute horizons.
	DefaultLambda = 0.94
	// DefaultVolatilityPct is reported before two samples exist.
	DefaultVolatilityPct = 0.1
)

// Volatility maintains an exponentially weighted variance of log returns.
// Updates happen only on the tick-processing path; reads are snapshot reads.
type Volatility struct {
	mu          sync.RWMutex
	lambda      float64
	defaultPct  float64
	variance    float64
	prevPrice   float64
	initialized bool
}

// NewVolatility creates an estimator. Lambda outside (0,1) falls back to the
// default decay.
func NewVolatility(lambda, defaultPct float64) *Volatility {
	if lambda <= 0 || lambda >= 1 {
		lambda = DefaultLambda
	}
	if defaultPct <= 0 {
		defaultPct = DefaultVolatilityPct
	}
	return &Volatility{lambda: lambda, defaultPct: defaultPct}
}

// OnSample folds one price into the EWMA variance. Non-positive prices are
// ignored.
func (v *Volatility) OnSample(price float64) {
	if price <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.prevPrice == 0 {
		v.prevPrice = price
		return
	}
	r := math.Log(price / v.prevPrice)
	v.variance = v.lambda*v.variance + (1-v.lambda)*r*r
	v.prevPrice = price
	v.initialized = true
}

// CurrentVolatilityPct returns sqrt(variance) in percent units. These are
// sub-minute horizons, so the figure is deliberately not annualized.
func (v *Volatility) CurrentVolatilityPct() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.initialized {
		return v.defaultPct
	}
	return math.Sqrt(v.variance) * 100
}

// Initialized reports whether at least one return has been observed.
func (v *Volatility) Initialized() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialized
}

// Reset clears the state. Only called on explicit session reset.
func (v *Volatility) Reset() {
	v.mu.Lock()
	v.variance, v.prevPrice, v.initialized = 0, 0, false
	v.mu.Unlock()
}
