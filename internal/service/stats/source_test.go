package stats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"OptionPulse/internal/domain/models"
	drepo "OptionPulse/internal/domain/repository"
	"OptionPulse/pkg/cache"
	"OptionPulse/pkg/logger"
)

type stubLedger struct {
	mu      sync.Mutex
	stats   []models.StatBucket
	err     error
	fetches int
}

func (s *stubLedger) PlaceTrade(ctx context.Context, params models.TradeParameters) (drepo.PlacementResult, error) {
	return drepo.PlacementResult{}, errors.New("not implemented")
}

func (s *stubLedger) RecordSettlement(ctx context.Context, tradeID string, res models.SettlementResult) error {
	return errors.New("not implemented")
}

func (s *stubLedger) FetchStatistics(ctx context.Context) ([]models.StatBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

func testBucket(offset float64, wins, losses int) models.StatBucket {
	return models.StatBucket{
		Key:     models.StatKey{Expiry: models.Expiry5s, Offset: offset, Side: models.SideCall},
		Wins:    wins,
		Losses:  losses,
		WinRate: float64(wins) / float64(wins+losses),
	}
}

func TestSourceFetchesOncePerTTL(t *testing.T) {
	ledger := &stubLedger{stats: []models.StatBucket{testBucket(5, 10, 10)}}
	src := NewSource(ledger, nil, time.Minute, logger.Nop())

	key := models.StatKey{Expiry: models.Expiry5s, Offset: 5, Side: models.SideCall}
	for i := 0; i < 5; i++ {
		b, ok := src.Get(context.Background(), key)
		if !ok {
			t.Fatal("bucket missing")
		}
		if b.Wins != 10 {
			t.Fatalf("wins = %d, want 10", b.Wins)
		}
	}
	if ledger.fetches != 1 {
		t.Fatalf("fetches = %d, want 1", ledger.fetches)
	}
}

func TestSourceRefreshAfterTTL(t *testing.T) {
	ledger := &stubLedger{stats: []models.StatBucket{testBucket(5, 10, 10)}}
	src := NewSource(ledger, nil, 10*time.Millisecond, logger.Nop())

	key := models.StatKey{Expiry: models.Expiry5s, Offset: 5, Side: models.SideCall}
	src.Get(context.Background(), key)

	ledger.mu.Lock()
	ledger.stats = []models.StatBucket{testBucket(5, 20, 10)}
	ledger.mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	b, ok := src.Get(context.Background(), key)
	if !ok {
		t.Fatal("bucket missing")
	}
	if b.Wins != 20 {
		t.Fatalf("wins = %d, want 20 after refresh", b.Wins)
	}
	if ledger.fetches != 2 {
		t.Fatalf("fetches = %d, want 2", ledger.fetches)
	}
}

func TestSourceKeepsStaleOnFetchError(t *testing.T) {
	ledger := &stubLedger{stats: []models.StatBucket{testBucket(5, 10, 10)}}
	src := NewSource(ledger, nil, 10*time.Millisecond, logger.Nop())

	key := models.StatKey{Expiry: models.Expiry5s, Offset: 5, Side: models.SideCall}
	src.Get(context.Background(), key)

	ledger.mu.Lock()
	ledger.err = errors.New("ledger down")
	ledger.mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	b, ok := src.Get(context.Background(), key)
	if !ok {
		t.Fatal("stale bucket should survive a failed refresh")
	}
	if b.Wins != 10 {
		t.Fatalf("wins = %d, want stale 10", b.Wins)
	}
}

func TestSourceWarmsFromSharedCache(t *testing.T) {
	shared := cache.NewMemoryCache()
	defer shared.Close()

	// Seed the shared snapshot as a previous process would have.
	seed := []models.StatBucket{testBucket(10, 30, 10)}
	if err := shared.Set(context.Background(), "stats:buckets", seed, time.Minute); err != nil {
		t.Fatalf("seed shared: %v", err)
	}

	ledger := &stubLedger{err: errors.New("ledger down")}
	src := NewSource(ledger, shared, time.Minute, logger.Nop())

	key := models.StatKey{Expiry: models.Expiry5s, Offset: 10, Side: models.SideCall}
	b, ok := src.Get(context.Background(), key)
	if !ok {
		t.Fatal("expected bucket from shared cache")
	}
	if b.Wins != 30 {
		t.Fatalf("wins = %d, want 30", b.Wins)
	}
}

func TestSourceWritesSharedCache(t *testing.T) {
	shared := cache.NewMemoryCache()
	defer shared.Close()

	ledger := &stubLedger{stats: []models.StatBucket{testBucket(20, 5, 5)}}
	src := NewSource(ledger, shared, time.Minute, logger.Nop())

	key := models.StatKey{Expiry: models.Expiry5s, Offset: 20, Side: models.SideCall}
	if _, ok := src.Get(context.Background(), key); !ok {
		t.Fatal("bucket missing")
	}

	var snap []models.StatBucket
	if err := shared.Get(context.Background(), "stats:buckets", &snap); err != nil {
		t.Fatalf("shared snapshot: %v", err)
	}
	if len(snap) != 1 || snap[0].Wins != 5 {
		t.Fatalf("snapshot = %+v", snap)
	}
}
