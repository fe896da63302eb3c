// Package marketdata fetches daily (or hourly) close prices of traditional
// stocks from public providers and tries them in order.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tokenizedCompare/internal/finance"
	"tokenizedCompare/internal/httpx"
)

// Failure kinds. Every provider error matches exactly one of them with errors.Is.
var (
	ErrUpstream    = errors.New("upstream error")
	ErrRateLimited = errors.New("rate limited")
	ErrNoData      = errors.New("no price data")
	ErrMalformed   = errors.New("malformed payload")
)

// Request asks for closes of one traditional symbol between Start and End.
type Request struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

func (r Request) span() time.Duration { return r.End.Sub(r.Start) }

// Provider returns closes ascending by time for trading days only.
type Provider interface {
	Name() string
	History(ctx context.Context, req Request) ([]finance.PricePoint, error)
}

// FetchError is a classified provider failure.
type FetchError struct {
	Provider   string
	Kind       error
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := e.Provider + ": " + e.Kind.Error()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func fetchErr(provider string, kind error, format string, args ...any) *FetchError {
	return &FetchError{Provider: provider, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// classify maps transport and decoding errors into the failure kinds.
func classify(provider string, err error) error {
	var ferr *FetchError
	if errors.As(err, &ferr) {
		return err
	}
	if serr, ok := httpx.IsStatus(err); ok {
		kind := ErrUpstream
		if serr.Code == 429 {
			kind = ErrRateLimited
		}
		return &FetchError{Provider: provider, Kind: kind, StatusCode: serr.Code, Err: err}
	}
	var derr *httpx.DecodeError
	if errors.As(err, &derr) {
		return &FetchError{Provider: provider, Kind: ErrMalformed, Err: err}
	}
	return &FetchError{Provider: provider, Kind: ErrUpstream, Err: err}
}

// Attempt records one provider's failure inside a chain.
type Attempt struct {
	Provider string
	Err      error
}

// ChainError is returned when every provider failed.
type ChainError struct {
	Symbol   string
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	if len(e.Attempts) == 0 {
		return "no market data providers configured"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Err.Error()
	}
	return fmt.Sprintf("all providers failed for %s: %s", e.Symbol, strings.Join(parts, "; "))
}

func (e *ChainError) Unwrap() []error {
	out := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		out[i] = a.Err
	}
	return out
}

// Chain tries providers in order until one returns data.
type Chain struct {
	providers []Provider
	log       zerolog.Logger
}

func NewChain(log zerolog.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, log: log}
}

func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Providers lists the configured provider names in order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

func (c *Chain) History(ctx context.Context, req Request) ([]finance.PricePoint, error) {
	cerr := &ChainError{Symbol: req.Symbol}
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		points, err := p.History(ctx, req)
		if err == nil {
			c.log.Debug().
				Str("provider", p.Name()).
				Str("symbol", req.Symbol).
				Int("points", len(points)).
				Msg("price history fetched")
			return points, nil
		}
		err = classify(p.Name(), err)
		c.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", req.Symbol).Msg("provider failed, trying next")
		cerr.Attempts = append(cerr.Attempts, Attempt{Provider: p.Name(), Err: err})
	}
	return nil, cerr
}
