package pools

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type snapshot struct {
	metrics   []PoolMetrics
	bySymbol  map[string]int
	updatedAt time.Time
}

func newSnapshot(list []PoolMetrics, at time.Time) *snapshot {
	s := &snapshot{metrics: clone(list), bySymbol: make(map[string]int, len(list)), updatedAt: at}
	for i, m := range s.metrics {
		if _, dup := s.bySymbol[m.Symbol]; !dup {
			s.bySymbol[m.Symbol] = i
		}
	}
	return s
}

// Store serves the current pool metrics. Readers never block; Refresh swaps
// the whole list in a single atomic store, or leaves it untouched on failure.
type Store struct {
	source  Source
	current atomic.Pointer[snapshot]
	group   singleflight.Group
	log     zerolog.Logger
	now     func() time.Time
}

// NewStore creates a store seeded with initial, which may be empty.
func NewStore(source Source, initial []PoolMetrics, log zerolog.Logger) *Store {
	s := &Store{source: source, log: log, now: time.Now}
	s.current.Store(newSnapshot(initial, s.now()))
	return s
}

// Load creates a store and performs the first fetch from source.
func Load(ctx context.Context, source Source, log zerolog.Logger) (*Store, error) {
	s := NewStore(source, nil, log)
	if _, err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// All returns a copy of the current list.
func (s *Store) All() []PoolMetrics {
	return clone(s.current.Load().metrics)
}

// Lookup finds the metrics for an exact tokenized symbol.
func (s *Store) Lookup(symbol string) (PoolMetrics, bool) {
	snap := s.current.Load()
	i, ok := snap.bySymbol[symbol]
	if !ok {
		return PoolMetrics{}, false
	}
	return clone(snap.metrics[i : i+1])[0], true
}

// UpdatedAt is the time of the last successful load.
func (s *Store) UpdatedAt() time.Time {
	return s.current.Load().updatedAt
}

// SourceName names the source the store refreshes from.
func (s *Store) SourceName() string {
	return s.source.Name()
}

// Refresh replaces the full list with a fresh fetch from the source.
// Concurrent callers share one fetch.
func (s *Store) Refresh(ctx context.Context) ([]PoolMetrics, error) {
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		fetched, err := s.source.FetchPools(ctx)
		if err != nil {
			return nil, fmt.Errorf("refresh from %s: %w", s.source.Name(), err)
		}
		valid := s.keepValid(fetched)
		if len(valid) == 0 {
			return nil, fmt.Errorf("refresh from %s: %w", s.source.Name(), ErrNoPools)
		}
		snap := newSnapshot(valid, s.now())
		s.current.Store(snap)
		s.log.Info().
			Str("source", s.source.Name()).
			Int("pools", len(valid)).
			Msg("pool metrics replaced")
		return snap, nil
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("pool refresh failed, keeping previous metrics")
		return nil, err
	}
	return clone(v.(*snapshot).metrics), nil
}

func (s *Store) keepValid(list []PoolMetrics) []PoolMetrics {
	out := make([]PoolMetrics, 0, len(list))
	for _, m := range list {
		if err := m.Validate(); err != nil {
			s.log.Warn().Err(err).Str("symbol", m.Symbol).Msg("skipping pool")
			continue
		}
		out = append(out, m)
	}
	return out
}
