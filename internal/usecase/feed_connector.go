package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"OptionPulse/internal/analytics"
	"OptionPulse/internal/domain/models"
	drepo "OptionPulse/internal/domain/repository"
	"OptionPulse/pkg/logger"
)

// FeedConfig tunes reconnect and fan-out behavior.
type FeedConfig struct {
	// BackoffBase is the first reconnect delay; it doubles per attempt.
	BackoffBase time.Duration
	// MaxReconnects is the attempt ceiling. Past it the connector reports
	// permanently disconnected and stops until externally restarted.
	MaxReconnects int
	// SubscriberBuffer is the per-subscriber channel depth.
	SubscriberBuffer int
}

// DefaultFeedConfig returns production reconnect settings.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		BackoffBase:      500 * time.Millisecond,
		MaxReconnects:    6,
		SubscriberBuffer: 16,
	}
}

// Subscription delivers normalized ticks to one consumer over a buffered
// channel. A slow consumer drops ticks instead of blocking the tick path.
type Subscription struct {
	C      <-chan models.Tick
	cancel func()
}

// Unsubscribe detaches the subscription and closes its channel.
func (s *Subscription) Unsubscribe() { s.cancel() }

// FeedConnector owns the market stream: it drives reconnection with
// exponential backoff, feeds the estimation pipeline synchronously on the
// tick path, and fans ticks out to subscribers. Ticks are not buffered while
// disconnected; the stream resumes from whatever the source sends next.
type FeedConnector struct {
	stream  drepo.MarketStream
	window  *analytics.Window
	vol     *analytics.Volatility
	metrics drepo.Metrics
	log     *logger.Logger
	cfg     FeedConfig

	mu        sync.RWMutex
	subs      map[int]chan models.Tick
	nextSubID int
	lastTick  *models.Tick
	permDown  bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewFeedConnector creates a connector over the given stream and shared
// estimation state.
func NewFeedConnector(stream drepo.MarketStream, window *analytics.Window, vol *analytics.Volatility, metrics drepo.Metrics, log *logger.Logger, cfg FeedConfig) *FeedConnector {
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultFeedConfig().BackoffBase
	}
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = DefaultFeedConfig().MaxReconnects
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = DefaultFeedConfig().SubscriberBuffer
	}
	return &FeedConnector{
		stream:  stream,
		window:  window,
		vol:     vol,
		metrics: metrics,
		log:     log,
		cfg:     cfg,
		subs:    make(map[int]chan models.Tick),
	}
}

// Start connects, subscribes, and launches the tick loop. An initial
// connection failure goes straight into the backoff schedule.
func (c *FeedConnector) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.permDown = false
	c.done = make(chan struct{})
	c.mu.Unlock()

	if err := c.connect(ctx); err != nil {
		if rerr := c.reconnect(ctx); rerr != nil {
			cancel()
			close(c.done)
			return rerr
		}
	}
	go c.run(ctx)
	return nil
}

// Restart clears a permanent disconnect and starts over.
func (c *FeedConnector) Restart(ctx context.Context) error {
	c.Stop()
	return c.Start(ctx)
}

// Stop cancels the tick loop and closes the stream. Pending backoff timers
// are cancelled immediately.
func (c *FeedConnector) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	_ = c.stream.Close()
	if done != nil {
		<-done
	}
}

func (c *FeedConnector) connect(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		_ = c.stream.Close()
		return err
	}
	return nil
}

func (c *FeedConnector) run(ctx context.Context) {
	defer close(c.done)
	for {
		ticks, errs := c.stream.Read(ctx)
	read:
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errs:
				if !ok {
					break read
				}
				if err != nil {
					c.metrics.RecordError("stream")
					c.log.Warn("feed stream error", logger.Error(err))
					break read
				}
			case t, ok := <-ticks:
				if !ok {
					break read
				}
				if t != nil {
					c.handleTick(t)
				}
			}
		}
		if ctx.Err() != nil {
			return
		}
		if err := c.reconnect(ctx); err != nil {
			c.log.Error("feed reconnect gave up", logger.Error(err))
			return
		}
	}
}

// handleTick runs on the single tick-processing goroutine: the estimator
// update completes before the next tick is read, so volatility and window
// state never see overlapping writes.
func (c *FeedConnector) handleTick(t *models.Tick) {
	c.mu.Lock()
	if prev := c.lastTick; prev != nil && prev.Price > 0 {
		t.ChangeAmount = t.Price - prev.Price
		t.ChangePct = t.ChangeAmount / prev.Price * 100
	}
	c.lastTick = t
	c.mu.Unlock()

	c.window.Append(models.PriceSample{Price: t.Price, At: t.At})
	c.vol.OnSample(t.Price)
	c.metrics.RecordTick(t.Symbol, t.Price)

	c.mu.RLock()
	for _, ch := range c.subs {
		select {
		case ch <- *t:
		default:
			// slow subscriber, drop
		}
	}
	c.mu.RUnlock()
}

// reconnect retries with exponential backoff up to the attempt ceiling.
func (c *FeedConnector) reconnect(ctx context.Context) error {
	_ = c.stream.Close()
	for attempt := 1; attempt <= c.cfg.MaxReconnects; attempt++ {
		delay := c.backoffDelay(attempt)
		c.log.Info("feed reconnecting",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if err := c.connect(ctx); err != nil {
			c.metrics.RecordError("reconnect")
			continue
		}
		c.metrics.RecordReconnect()
		return nil
	}
	c.mu.Lock()
	c.permDown = true
	c.mu.Unlock()
	c.metrics.RecordError("feed_permanent")
	return fmt.Errorf("feed permanently disconnected after %d attempts", c.cfg.MaxReconnects)
}

// backoffDelay returns the delay before the given attempt. The base doubles
// each attempt: base, 2x, 4x, ...
func (c *FeedConnector) backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return c.cfg.BackoffBase << (attempt - 1)
}

// Subscribe registers a tick consumer and returns its subscription handle.
func (c *FeedConnector) Subscribe() *Subscription {
	ch := make(chan models.Tick, c.cfg.SubscriberBuffer)
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return &Subscription{
		C: ch,
		cancel: func() {
			once.Do(func() {
				c.mu.Lock()
				delete(c.subs, id)
				c.mu.Unlock()
				close(ch)
			})
		},
	}
}

// CurrentPrice returns the latest normalized price, if any tick has arrived.
func (c *FeedConnector) CurrentPrice() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastTick == nil {
		return 0, false
	}
	return c.lastTick.Price, true
}

// LastTick returns a copy of the latest tick.
func (c *FeedConnector) LastTick() (models.Tick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastTick == nil {
		return models.Tick{}, false
	}
	return *c.lastTick, true
}

// IsConnected reports live connectivity.
func (c *FeedConnector) IsConnected() bool {
	c.mu.RLock()
	down := c.permDown
	c.mu.RUnlock()
	return !down && c.stream.IsConnected()
}

// PermanentlyDisconnected reports whether the attempt ceiling was hit.
func (c *FeedConnector) PermanentlyDisconnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.permDown
}
