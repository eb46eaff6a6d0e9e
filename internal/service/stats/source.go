// Package stats caches win/loss aggregates fetched from the external ledger
// on a time-to-live, so recommendation scoring never hammers the ledger.
package stats

import (
	"context"
	"sync"
	"time"

	"OptionPulse/internal/domain/models"
	drepo "OptionPulse/internal/domain/repository"
	"OptionPulse/pkg/cache"
	"OptionPulse/pkg/logger"
)

const snapshotKey = "stats:buckets"

// Source serves StatBuckets from memory, refreshing from the ledger when the
// snapshot is older than the TTL. An optional shared cache layer (Redis)
// warms cold starts and survives restarts.
type Source struct {
	ledger drepo.Ledger
	shared cache.Service // may be nil
	ttl    time.Duration
	log    *logger.Logger

	mu        sync.RWMutex
	buckets   map[models.StatKey]models.StatBucket
	fetchedAt time.Time
}

// NewSource creates a stats source with the given refresh TTL.
func NewSource(ledger drepo.Ledger, shared cache.Service, ttl time.Duration, log *logger.Logger) *Source {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Source{
		ledger:  ledger,
		shared:  shared,
		ttl:     ttl,
		log:     log,
		buckets: make(map[models.StatKey]models.StatBucket),
	}
}

// Get returns the bucket for a key, refreshing the snapshot if stale.
func (s *Source) Get(ctx context.Context, key models.StatKey) (models.StatBucket, bool) {
	s.refreshIfStale(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buckets[key]
	return b, ok
}

// Age returns how old the current snapshot is.
func (s *Source) Age() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fetchedAt.IsZero() {
		return time.Duration(1<<62 - 1)
	}
	return time.Since(s.fetchedAt)
}

func (s *Source) refreshIfStale(ctx context.Context) {
	s.mu.RLock()
	stale := s.fetchedAt.IsZero() || time.Since(s.fetchedAt) > s.ttl
	s.mu.RUnlock()
	if !stale {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fetchedAt.IsZero() && time.Since(s.fetchedAt) <= s.ttl {
		return
	}

	list, err := s.ledger.FetchStatistics(ctx)
	if err != nil {
		s.log.Warn("statistics fetch failed", logger.Error(err))
		// cold start: fall back to the shared snapshot if one exists
		if len(s.buckets) == 0 && s.shared != nil {
			var cached []models.StatBucket
			if cerr := s.shared.Get(ctx, snapshotKey, &cached); cerr == nil {
				s.storeLocked(cached)
				s.log.Info("statistics warmed from shared cache", logger.Int("buckets", len(cached)))
			}
		}
		return
	}

	s.storeLocked(list)
	if s.shared != nil {
		// keep the shared copy around well past the local TTL
		if cerr := s.shared.Set(ctx, snapshotKey, list, 6*s.ttl); cerr != nil {
			s.log.Warn("statistics shared cache write failed", logger.Error(cerr))
		}
	}
}

func (s *Source) storeLocked(list []models.StatBucket) {
	m := make(map[models.StatKey]models.StatBucket, len(list))
	for _, b := range list {
		m[b.Key] = b
	}
	s.buckets = m
	s.fetchedAt = time.Now()
}
