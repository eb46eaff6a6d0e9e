package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"OptionPulse/internal/domain/models"
	drepo "OptionPulse/internal/domain/repository"
	"OptionPulse/internal/settlement"
	"OptionPulse/pkg/logger"
)

// LifecycleConfig tunes lifecycle timing.
type LifecycleConfig struct {
	// SettleWait bounds how long settlement waits for a price timestamped at
	// or after expiry before failing the trade as unresolved.
	SettleWait time.Duration
	// DisplayReset is how long a settled or failed trade stays visible
	// before the session returns to idle.
	DisplayReset time.Duration
	// Countdown is the interval of the display countdown ticker. It is
	// scheduled independently of the expiry timer.
	Countdown time.Duration
}

// DefaultLifecycleConfig returns production timing.
func DefaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		SettleWait:   3 * time.Second,
		DisplayReset: 5 * time.Second,
		Countdown:    time.Second,
	}
}

// Lifecycle owns the state machine for the single in-flight trade of a
// session: Idle -> Placing -> Active -> Settling -> {Settled|Failed} -> Idle.
// It is the only writer of TradeState; settlement happens at most once.
type Lifecycle struct {
	feed    *FeedConnector
	engine  *settlement.Engine
	ledger  drepo.Ledger
	metrics drepo.Metrics
	log     *logger.Logger
	cfg     LifecycleConfig

	mu    sync.Mutex
	state *models.TradeState
	// seq increments per placement; timer callbacks carry the sequence they
	// were armed for and bail if the trade has moved on.
	seq           int
	expiryTimer   *time.Timer
	resetTimer    *time.Timer
	countdownStop chan struct{}

	remainingMs atomic.Int64
}

// NewLifecycle creates the controller.
func NewLifecycle(feed *FeedConnector, engine *settlement.Engine, ledger drepo.Ledger, metrics drepo.Metrics, log *logger.Logger, cfg LifecycleConfig) *Lifecycle {
	def := DefaultLifecycleConfig()
	if cfg.SettleWait <= 0 {
		cfg.SettleWait = def.SettleWait
	}
	if cfg.DisplayReset <= 0 {
		cfg.DisplayReset = def.DisplayReset
	}
	if cfg.Countdown <= 0 {
		cfg.Countdown = def.Countdown
	}
	return &Lifecycle{feed: feed, engine: engine, ledger: ledger, metrics: metrics, log: log, cfg: cfg}
}

// Place opens a trade. A second placement while one is non-terminal is
// rejected, not queued; the existing trade is untouched.
func (l *Lifecycle) Place(ctx context.Context, side models.Side, offset float64, expiry models.ExpiryClass, contracts int) (models.TradeState, error) {
	price, ok := l.feed.CurrentPrice()
	if !ok {
		return models.TradeState{}, models.ErrFeedUnavailable
	}

	// Validated before any state mutation.
	params, err := models.NewTradeParameters(side, offset, expiry, contracts, price)
	if err != nil {
		return models.TradeState{}, err
	}

	l.mu.Lock()
	if l.state != nil && !l.state.Phase.Terminal() {
		l.mu.Unlock()
		return models.TradeState{}, models.ErrDuplicatePlacement
	}
	l.clearTimersLocked()
	l.seq++
	mine := l.seq
	l.state = &models.TradeState{Params: params, Phase: models.PhasePlacing}
	l.mu.Unlock()

	placeStart := time.Now()
	placement, err := l.ledger.PlaceTrade(ctx, params)
	l.metrics.RecordLatency("ledger_place", time.Since(placeStart).Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seq != mine || l.state == nil {
		// reset raced the placement; nothing to finalize
		return models.TradeState{}, models.ErrNoActiveTrade
	}
	if err != nil {
		l.state = nil
		l.metrics.RecordError("ledger_place")
		return models.TradeState{}, fmt.Errorf("%w: %v", models.ErrLedgerRejected, err)
	}
	if !placement.Accepted {
		l.state = nil
		l.metrics.RecordError("ledger_place")
		return models.TradeState{}, fmt.Errorf("%w: %s", models.ErrLedgerRejected, placement.Reason)
	}

	// Entry price is the price observed at the moment placement was
	// accepted, so the entry line matches what the chart showed.
	if entry, ok := l.feed.CurrentPrice(); ok && entry != params.EntryPrice {
		if reparams, rerr := models.NewTradeParameters(side, offset, expiry, contracts, entry); rerr == nil {
			params = reparams
		}
	}

	now := time.Now()
	dur := expiry.Duration()
	l.state.TradeID = placement.TradeID
	l.state.Params = params
	l.state.Phase = models.PhaseActive
	l.state.StartedAt = now
	l.state.ExpiresAt = now.Add(dur)

	// One expiry timer per trade. The countdown ticker below is display
	// plumbing only and is owned separately: stopping either never moves
	// the other's fire time. Remaining must be correct before the first
	// tick, so seed it with the full window.
	l.remainingMs.Store(dur.Milliseconds())
	l.expiryTimer = time.AfterFunc(dur, func() { l.settleExpired(mine) })
	l.countdownStop = make(chan struct{})
	go l.runCountdown(l.state.ExpiresAt, l.countdownStop)

	l.log.Info("trade active",
		logger.String("trade_id", placement.TradeID),
		logger.String("side", string(side)),
		logger.String("expiry", string(expiry)),
		logger.Float64("entry", params.EntryPrice),
		logger.Float64("strike", params.StrikePrice))
	return *l.state, nil
}

// CloseEarly cancels the expiry timer and settles immediately with zero
// payout; the holder forfeits the premium.
func (l *Lifecycle) CloseEarly(ctx context.Context) (models.TradeState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == nil || l.state.Phase != models.PhaseActive {
		return models.TradeState{}, models.ErrNoActiveTrade
	}
	if l.expiryTimer != nil {
		l.expiryTimer.Stop()
		l.expiryTimer = nil
	}
	l.stopCountdownLocked()

	price, _ := l.feed.CurrentPrice()
	res := l.engine.EarlyClose(l.state.Params, price)
	l.state.Settlement = &res
	l.state.Phase = models.PhaseSettled
	l.metrics.RecordSettlement("early_close")
	l.scheduleResetLocked(l.seq)

	go l.record(l.state.TradeID, res)
	l.log.Info("trade closed early", logger.String("trade_id", l.state.TradeID))
	return *l.state, nil
}

// settleExpired runs once when the expiry timer fires.
func (l *Lifecycle) settleExpired(mine int) {
	fired := time.Now()
	l.mu.Lock()
	if l.seq != mine || l.state == nil || l.state.Phase != models.PhaseActive {
		l.mu.Unlock()
		return
	}
	l.state.Phase = models.PhaseSettling
	params := l.state.Params
	expiresAt := l.state.ExpiresAt
	tradeID := l.state.TradeID
	l.stopCountdownLocked()
	l.mu.Unlock()

	// Settlement never uses a price older than the expiry instant. If the
	// feed is down, wait for the next tick up to the bound.
	price, perr := l.freshPrice(expiresAt)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seq != mine || l.state == nil || l.state.Phase != models.PhaseSettling {
		return
	}
	l.metrics.RecordLatency("settlement", time.Since(fired).Seconds())
	if perr != nil {
		l.state.Phase = models.PhaseFailed
		l.state.FailReason = models.ErrSettlementStale.Error()
		l.metrics.RecordError("settlement_stale")
		l.log.Error("trade unresolved", logger.String("trade_id", tradeID), logger.Error(perr))
		l.scheduleResetLocked(mine)
		return
	}

	res, err := l.engine.Settle(params, price)
	if err != nil {
		l.state.Phase = models.PhaseFailed
		l.state.FailReason = err.Error()
		l.metrics.RecordError("settle")
		l.scheduleResetLocked(mine)
		return
	}
	l.state.Settlement = &res
	l.state.Phase = models.PhaseSettled
	l.metrics.RecordSettlement(string(res.Outcome))
	l.scheduleResetLocked(mine)

	go l.record(tradeID, res)
	l.log.Info("trade settled",
		logger.String("trade_id", tradeID),
		logger.String("outcome", string(res.Outcome)),
		logger.Float64("final", res.FinalPrice),
		logger.String("profit", res.Profit.String()))
}

// freshPrice waits for a tick timestamped at or after the expiry instant.
func (l *Lifecycle) freshPrice(expiresAt time.Time) (float64, error) {
	sub := l.feed.Subscribe()
	defer sub.Unsubscribe()

	if t, ok := l.feed.LastTick(); ok && !t.At.Before(expiresAt) {
		return t.Price, nil
	}
	deadline := time.NewTimer(l.cfg.SettleWait)
	defer deadline.Stop()
	for {
		select {
		case t, ok := <-sub.C:
			if !ok {
				return 0, models.ErrSettlementStale
			}
			if !t.At.Before(expiresAt) {
				return t.Price, nil
			}
		case <-deadline.C:
			return 0, models.ErrSettlementStale
		}
	}
}

// record reports the settlement to the ledger. Failures are logged only; the
// locally computed outcome is authoritative and never rolled back.
func (l *Lifecycle) record(tradeID string, res models.SettlementResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.ledger.RecordSettlement(ctx, tradeID, res); err != nil {
		l.metrics.RecordError("ledger_record")
		l.log.Warn("settlement record failed", logger.String("trade_id", tradeID), logger.Error(err))
	}
}

func (l *Lifecycle) runCountdown(expiresAt time.Time, stop chan struct{}) {
	ticker := time.NewTicker(l.cfg.Countdown)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			rem := expiresAt.Sub(now)
			if rem < 0 {
				rem = 0
			}
			l.remainingMs.Store(rem.Milliseconds())
			if rem == 0 {
				return
			}
		}
	}
}

// Remaining returns the display countdown for the active trade.
func (l *Lifecycle) Remaining() time.Duration {
	return time.Duration(l.remainingMs.Load()) * time.Millisecond
}

// State returns a copy of the current trade state, or false when idle.
func (l *Lifecycle) State() (models.TradeState, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == nil {
		return models.TradeState{}, false
	}
	st := *l.state
	if l.state.Settlement != nil {
		s := *l.state.Settlement
		st.Settlement = &s
	}
	return st, true
}

// Active reports whether a non-terminal trade exists.
func (l *Lifecycle) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state != nil && !l.state.Phase.Terminal()
}

// Reset clears the session: timers stopped, selections cleared, back to
// idle. Used on unrecoverable errors and explicit session resets.
func (l *Lifecycle) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.clearTimersLocked()
	l.state = nil
	l.remainingMs.Store(0)
}

func (l *Lifecycle) scheduleResetLocked(mine int) {
	l.resetTimer = time.AfterFunc(l.cfg.DisplayReset, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.seq == mine && l.state != nil && l.state.Phase.Terminal() {
			l.state = nil
			l.remainingMs.Store(0)
		}
	})
}

func (l *Lifecycle) stopCountdownLocked() {
	if l.countdownStop != nil {
		close(l.countdownStop)
		l.countdownStop = nil
	}
}

func (l *Lifecycle) clearTimersLocked() {
	if l.expiryTimer != nil {
		l.expiryTimer.Stop()
		l.expiryTimer = nil
	}
	if l.resetTimer != nil {
		l.resetTimer.Stop()
		l.resetTimer = nil
	}
	l.stopCountdownLocked()
}
