package usecase

import (
	"context"
	"errors"
	"sync"

	"OptionPulse/internal/domain/models"
	drepo "OptionPulse/internal/domain/repository"
)

// fakeStream is a scriptable MarketStream.
type fakeStream struct {
	mu         sync.Mutex
	connectErr error
	connects   int
	connected  bool
	ticks      chan *models.Tick
	errs       chan error
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		ticks: make(chan *models.Tick, 16),
		errs:  make(chan error, 1),
	}
}

func (s *fakeStream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = true
	return nil
}

func (s *fakeStream) Subscribe(ctx context.Context) error { return nil }

func (s *fakeStream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	return s.ticks, s.errs
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeStream) connectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

var _ drepo.MarketStream = (*fakeStream)(nil)

// fakeLedger records calls and returns scripted results.
type fakeLedger struct {
	mu          sync.Mutex
	placeResult drepo.PlacementResult
	placeErr    error
	places      int
	settlements map[string]models.SettlementResult
	stats       []models.StatBucket
	statsErr    error
	fetches     int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		placeResult: drepo.PlacementResult{Accepted: true, TradeID: "t-1"},
		settlements: make(map[string]models.SettlementResult),
	}
}

func (f *fakeLedger) PlaceTrade(ctx context.Context, params models.TradeParameters) (drepo.PlacementResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.places++
	if f.placeErr != nil {
		return drepo.PlacementResult{}, f.placeErr
	}
	return f.placeResult, nil
}

func (f *fakeLedger) RecordSettlement(ctx context.Context, tradeID string, res models.SettlementResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settlements[tradeID] = res
	return nil
}

func (f *fakeLedger) FetchStatistics(ctx context.Context) ([]models.StatBucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeLedger) recorded(tradeID string) (models.SettlementResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.settlements[tradeID]
	return res, ok
}

var _ drepo.Ledger = (*fakeLedger)(nil)

var errConnectRefused = errors.New("connection refused")

// nopMetrics satisfies the Metrics interface for tests.
type nopMetrics struct{}

func (nopMetrics) RecordTick(string, float64) {}

func (nopMetrics) RecordError(string) {}

func (nopMetrics) RecordReconnect() {}

func (nopMetrics) RecordSettlement(string) {}

func (nopMetrics) RecordLatency(string, float64) {}

var _ drepo.Metrics = nopMetrics{}

// spyMetrics counts latency observations by operation.
type spyMetrics struct {
	nopMetrics
	mu      sync.Mutex
	latency map[string]int
}

func newSpyMetrics() *spyMetrics {
	return &spyMetrics{latency: make(map[string]int)}
}

func (s *spyMetrics) RecordLatency(op string, _ float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency[op]++
}

func (s *spyMetrics) latencyCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latency[op]
}

var _ drepo.Metrics = (*spyMetrics)(nil)
