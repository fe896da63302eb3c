// Package compare runs one tokenized-vs-traditional comparison: it validates
// the request, fetches prices of the underlying stock and applies the
// finance model to the pool figures.
package compare

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tokenizedCompare/internal/finance"
	"tokenizedCompare/internal/marketdata"
	"tokenizedCompare/internal/pools"
)

// MinInvestment is the smallest amount a comparison accepts, in USD.
const MinInvestment = 1.0

var (
	ErrNoSymbol         = errors.New("select a tokenized stock")
	ErrInvestmentTooLow = fmt.Errorf("investment must be at least $%.0f", MinInvestment)
	ErrUnknownSymbol    = errors.New("unknown tokenized stock")
	ErrUnknownPeriod    = errors.New("unknown period")
	ErrEmptySeries      = errors.New("no price data for the period")
)

// ValidationError marks a request rejected before any data was fetched.
type ValidationError struct{ Err error }

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error) error { return &ValidationError{Err: err} }

// PoolLookup is the read side of the pool store.
type PoolLookup interface {
	Lookup(symbol string) (pools.PoolMetrics, bool)
}

// Request is one user comparison.
type Request struct {
	Symbol string         `json:"symbol"`
	Amount float64        `json:"investmentAmount"`
	Period finance.Period `json:"period"`
}

// Validate rejects requests the model cannot price.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return invalid(ErrNoSymbol)
	}
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) || r.Amount < MinInvestment {
		return invalid(ErrInvestmentTooLow)
	}
	if _, ok := finance.ParsePeriod(string(r.Period)); !ok {
		return invalid(fmt.Errorf("%w %q", ErrUnknownPeriod, r.Period))
	}
	return nil
}

// Comparison is everything a UI needs to show one result.
type Comparison struct {
	Symbol            string                   `json:"symbol"`
	TraditionalSymbol string                   `json:"traditionalSymbol"`
	Period            finance.Period           `json:"period"`
	Investment        float64                  `json:"investmentAmount"`
	Result            finance.ComparisonResult `json:"calculationResult"`
	Series            []finance.ChartPoint     `json:"chartData"`
	EffectiveAPR      *float64                 `json:"apr"`
	PoolAPR           *float64                 `json:"poolApr"`
	PoolTVL           float64                  `json:"poolTVL"`
	VolumeForPeriod   float64                  `json:"volumeForPeriod"`
	FeesForPeriod     float64                  `json:"feesForPeriod"`
	StartPrice        float64                  `json:"startPrice"`
	CurrentPrice      float64                  `json:"currentPrice"`
	Advantage         float64                  `json:"advantage"`
	FeeMultiple       *float64                 `json:"feeMultiple,omitempty"`
	Stats             *finance.SeriesStats     `json:"stats,omitempty"` // nil for short series
	From              time.Time                `json:"from"`
	To                time.Time                `json:"to"`
}

// Service wires pool figures and price history into comparisons. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	pools  PoolLookup
	market marketdata.Provider
	now    func() time.Time
	log    zerolog.Logger
}

func NewService(p PoolLookup, market marketdata.Provider, log zerolog.Logger) *Service {
	return &Service{pools: p, market: market, now: time.Now, log: log}
}

// Compare validates req, fetches the price history and computes the result.
func (s *Service) Compare(ctx context.Context, req Request) (*Comparison, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	period, _ := finance.ParsePeriod(string(req.Period))
	symbol := strings.TrimSpace(req.Symbol)

	pool, ok := s.pools.Lookup(symbol)
	if !ok {
		return nil, invalid(fmt.Errorf("%w %q", ErrUnknownSymbol, symbol))
	}

	traditional := finance.TokenizedToTraditional(symbol)
	from, to := finance.Window(period, s.now())
	prices, err := s.market.History(ctx, marketdata.Request{Symbol: traditional, Start: from, End: to})
	if err != nil {
		return nil, fmt.Errorf("price history for %s: %w", traditional, err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%s %s: %w", traditional, period, ErrEmptySeries)
	}
	start, end := prices[0].Price, prices[len(prices)-1].Price
	if !(start > 0) {
		return nil, fmt.Errorf("%s start price %v: %w", traditional, start, ErrEmptySeries)
	}

	fees := finance.FeesForPeriod(pool, period)
	result := finance.ComputeReturns(req.Amount, pool.PoolTVL, fees, start, end)
	series := finance.GenerateSeries(prices, req.Amount, pool.PoolTVL, fees, start)

	c := &Comparison{
		Symbol:            symbol,
		TraditionalSymbol: traditional,
		Period:            period,
		Investment:        req.Amount,
		Result:            result,
		Series:            series,
		EffectiveAPR:      finance.EffectiveAPR(req.Amount, pool.PoolTVL, pool.APR),
		PoolAPR:           pool.APR,
		PoolTVL:           pool.PoolTVL,
		VolumeForPeriod:   finance.VolumeForPeriod(pool, period),
		FeesForPeriod:     fees,
		StartPrice:        start,
		CurrentPrice:      end,
		Advantage:         finance.Advantage(series),
		From:              prices[0].Time,
		To:                prices[len(prices)-1].Time,
	}
	if m, ok := finance.FeeMultiple(result); ok {
		c.FeeMultiple = &m
	}
	if stats, err := finance.ComputeSeriesStats(series); err == nil {
		c.Stats = &stats
	}

	s.log.Info().
		Str("symbol", symbol).
		Str("period", string(period)).
		Float64("amount", req.Amount).
		Int("points", len(prices)).
		Float64("fees_claimed", result.FeesClaimed).
		Msg("comparison computed")
	return c, nil
}

// Chart renders the comparison's value series as a PNG.
func (c *Comparison) Chart() ([]byte, error) {
	return finance.MakeComparisonChart(c.Series, finance.ChartOptions{
		Symbol:     c.Symbol,
		Period:     c.Period,
		Investment: c.Investment,
	})
}
