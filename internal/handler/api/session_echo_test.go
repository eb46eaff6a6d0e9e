package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"OptionPulse/internal/analytics"
	"OptionPulse/internal/domain/models"
	drepo "OptionPulse/internal/domain/repository"
	"OptionPulse/internal/service/stats"
	"OptionPulse/internal/settlement"
	"OptionPulse/internal/usecase"
	"OptionPulse/pkg/logger"
)

type stubStream struct {
	mu        sync.Mutex
	connected bool
	ticks     chan *models.Tick
	errs      chan error
}

func newStubStream() *stubStream {
	return &stubStream{ticks: make(chan *models.Tick, 16), errs: make(chan error, 1)}
}

func (s *stubStream) Connect(ctx context.Context) error {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	return nil
}
func (s *stubStream) Subscribe(ctx context.Context) error { return nil }
func (s *stubStream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	return s.ticks, s.errs
}
func (s *stubStream) Close() error {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	return nil
}
func (s *stubStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

type stubLedger struct{}

func (stubLedger) PlaceTrade(ctx context.Context, params models.TradeParameters) (drepo.PlacementResult, error) {
	return drepo.PlacementResult{Accepted: true, TradeID: "t-100"}, nil
}
func (stubLedger) RecordSettlement(ctx context.Context, tradeID string, res models.SettlementResult) error {
	return nil
}
func (stubLedger) FetchStatistics(ctx context.Context) ([]models.StatBucket, error) {
	return nil, nil
}

type stubMetrics struct{}

func (stubMetrics) RecordTick(string, float64)    {}
func (stubMetrics) RecordError(string)            {}
func (stubMetrics) RecordReconnect()              {}
func (stubMetrics) RecordSettlement(string)       {}
func (stubMetrics) RecordLatency(string, float64) {}

type apiFixture struct {
	e      *echo.Echo
	stream *stubStream
	feed   *usecase.FeedConnector
	stop   func()
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	log := logger.Nop()
	stream := newStubStream()
	window := analytics.NewWindow(50)
	vol := analytics.NewVolatility(0.94, 0.1)
	trend := analytics.NewTrend(window, vol, analytics.DefaultTrendConfig())
	feed := usecase.NewFeedConnector(stream, window, vol, stubMetrics{}, log, usecase.FeedConfig{})

	engine := settlement.NewEngine(nil)
	ledger := stubLedger{}
	lc := usecase.NewLifecycle(feed, engine, ledger, stubMetrics{}, log, usecase.DefaultLifecycleConfig())
	src := stats.NewSource(ledger, nil, time.Minute, log)
	rec := usecase.NewRecommender(src, trend, log, usecase.DefaultRecommenderConfig())

	h := NewSessionEchoHandler(log, feed, lc, rec, engine, vol, "BINANCE:BTCUSDT")
	e := echo.New()
	h.RegisterRoutes(e)

	ctx, cancel := context.WithCancel(context.Background())
	if err := feed.Start(ctx); err != nil {
		cancel()
		t.Fatalf("feed start: %v", err)
	}
	return &apiFixture{e: e, stream: stream, feed: feed, stop: func() {
		feed.Stop()
		cancel()
	}}
}

// pushTick delivers a tick through the stream and waits for it to land.
func (f *apiFixture) pushTick(t *testing.T, price float64) {
	t.Helper()
	f.stream.ticks <- &models.Tick{Symbol: "BINANCE:BTCUSDT", Price: price, At: time.Now()}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if p, ok := f.feed.CurrentPrice(); ok && p == price {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("tick not processed")
}

func (f *apiFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	f.e.ServeHTTP(w, r)
	return w
}

func TestPlaceTradeEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	defer f.stop()
	f.pushTick(t, 100000)

	w := f.do(http.MethodPost, "/api/trade", `{"side":"call","strike_offset":5,"expiry":"5s"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body)
	}

	var resp struct {
		Data struct {
			TradeID string `json:"trade_id"`
			Phase   string `json:"phase"`
			Params  struct {
				StrikePrice float64 `json:"strike_price"`
				Contracts   int     `json:"contracts"`
			} `json:"params"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.TradeID != "t-100" {
		t.Fatalf("trade id = %s", resp.Data.TradeID)
	}
	if resp.Data.Phase != "active" {
		t.Fatalf("phase = %s", resp.Data.Phase)
	}
	if resp.Data.Params.StrikePrice != 100005 {
		t.Fatalf("strike = %v", resp.Data.Params.StrikePrice)
	}
	if resp.Data.Params.Contracts != 1 {
		t.Fatalf("contracts = %d, want defaulted 1", resp.Data.Params.Contracts)
	}

	// Second placement conflicts while the first is active.
	w = f.do(http.MethodPost, "/api/trade", `{"side":"put","strike_offset":10,"expiry":"10s"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", w.Code)
	}
}

func TestPlaceTradeWithoutFeed(t *testing.T) {
	f := newAPIFixture(t)
	defer f.stop()

	w := f.do(http.MethodPost, "/api/trade", `{"side":"call","strike_offset":5,"expiry":"5s"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestPlaceTradeValidation(t *testing.T) {
	f := newAPIFixture(t)
	defer f.stop()
	f.pushTick(t, 100000)

	w := f.do(http.MethodPost, "/api/trade", `{"side":"sideways","strike_offset":5,"expiry":"5s"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCloseEarlyEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	defer f.stop()
	f.pushTick(t, 100000)

	if w := f.do(http.MethodPost, "/api/trade", `{"side":"call","strike_offset":5,"expiry":"15s"}`); w.Code != http.StatusCreated {
		t.Fatalf("place status = %d", w.Code)
	}

	w := f.do(http.MethodPost, "/api/trade/close", "")
	if w.Code != http.StatusOK {
		t.Fatalf("close status = %d: %s", w.Code, w.Body)
	}
	var resp struct {
		Data struct {
			Phase      string `json:"phase"`
			Settlement *struct {
				EarlyClose bool   `json:"early_close"`
				Outcome    string `json:"outcome"`
			} `json:"settlement"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Phase != "settled" {
		t.Fatalf("phase = %s", resp.Data.Phase)
	}
	if resp.Data.Settlement == nil || !resp.Data.Settlement.EarlyClose {
		t.Fatalf("settlement = %+v", resp.Data.Settlement)
	}

	// No active trade left to close.
	if w := f.do(http.MethodPost, "/api/trade/close", ""); w.Code != http.StatusNotFound {
		t.Fatalf("second close status = %d, want 404", w.Code)
	}
}

func TestTradeStateNotFound(t *testing.T) {
	f := newAPIFixture(t)
	defer f.stop()

	if w := f.do(http.MethodGet, "/api/trade", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestPriceEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	defer f.stop()

	w := f.do(http.MethodGet, "/api/price", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data models.PriceResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.HasPrice {
		t.Fatal("has_price should be false before any tick")
	}

	f.pushTick(t, 100250.5)
	w = f.do(http.MethodGet, "/api/price", "")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Data.HasPrice || resp.Data.Price != 100250.5 {
		t.Fatalf("price = %+v", resp.Data)
	}
	if resp.Data.Symbol != "BINANCE:BTCUSDT" {
		t.Fatalf("symbol = %s", resp.Data.Symbol)
	}
}

func TestStatusEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	defer f.stop()

	w := f.do(http.MethodGet, "/api/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data models.StatusResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Data.Connected {
		t.Fatal("expected connected")
	}
	if resp.Data.ActiveTrade {
		t.Fatal("no trade should be active")
	}
	if resp.Data.PayoutVersion != settlement.TableVersion {
		t.Fatalf("payout version = %s", resp.Data.PayoutVersion)
	}
	if resp.Data.VolatilityPct != 0.1 {
		t.Fatalf("volatility = %v, want default 0.1", resp.Data.VolatilityPct)
	}
}

func TestRecommendationEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	defer f.stop()

	w := f.do(http.MethodGet, "/api/recommendation", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var resp struct {
		Data models.Recommendation `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Side != models.SideCall {
		t.Fatalf("side = %s, want call on neutral tape", resp.Data.Side)
	}
	if resp.Data.WinRateEstimate <= 0 {
		t.Fatalf("rate = %v", resp.Data.WinRateEstimate)
	}
}
