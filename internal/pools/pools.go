// Package pools holds the liquidity-pool metrics of every tradable tokenized
// stock and the store that serves them to the comparison engine.
package pools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	ErrNoPools       = errors.New("no valid pool metrics")
	ErrInvalidMetric = errors.New("invalid pool metric")
)

// PoolMetrics is the immutable record of one tokenized asset's pool.
type PoolMetrics struct {
	Symbol    string   `json:"symbol"`
	PoolTVL   float64  `json:"poolTVL"`
	Fees24h   float64  `json:"fees24h"`
	Volume24h float64  `json:"volume24h"`
	Fees30d   float64  `json:"fees30d"`
	Volume30d float64  `json:"volume30d"`
	APR       *float64 `json:"apr"` // nil when the pool does not advertise one
}

// Source supplies a complete list of pool metrics.
type Source interface {
	Name() string
	FetchPools(ctx context.Context) ([]PoolMetrics, error)
}

// Validate checks that every figure is finite and non-negative.
func (m PoolMetrics) Validate() error {
	if strings.TrimSpace(m.Symbol) == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidMetric)
	}
	figures := []struct {
		name  string
		value float64
	}{
		{"poolTVL", m.PoolTVL},
		{"fees24h", m.Fees24h},
		{"volume24h", m.Volume24h},
		{"fees30d", m.Fees30d},
		{"volume30d", m.Volume30d},
	}
	for _, f := range figures {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s %s is not finite", ErrInvalidMetric, m.Symbol, f.name)
		}
		if f.value < 0 {
			return fmt.Errorf("%w: %s %s is negative: %f", ErrInvalidMetric, m.Symbol, f.name, f.value)
		}
	}
	if m.APR != nil && (math.IsNaN(*m.APR) || math.IsInf(*m.APR, 0)) {
		return fmt.Errorf("%w: %s apr is not finite", ErrInvalidMetric, m.Symbol)
	}
	return nil
}

// SortByTVL orders metrics by descending pool TVL, then symbol.
func SortByTVL(list []PoolMetrics) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].PoolTVL != list[j].PoolTVL {
			return list[i].PoolTVL > list[j].PoolTVL
		}
		return list[i].Symbol < list[j].Symbol
	})
}

func clone(list []PoolMetrics) []PoolMetrics {
	out := make([]PoolMetrics, len(list))
	for i, m := range list {
		if m.APR != nil {
			apr := *m.APR
			m.APR = &apr
		}
		out[i] = m
	}
	return out
}

func ptr(v float64) *float64 { return &v }
