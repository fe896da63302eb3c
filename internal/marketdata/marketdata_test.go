package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenizedCompare/internal/finance"
	"tokenizedCompare/internal/httpx"
)

func testClient() *httpx.Client {
	c := httpx.New(2*time.Second, 2, zerolog.Nop())
	c.NewBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func serve(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func monthRequest() Request {
	end := time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC)
	return Request{Symbol: "NVDA", Start: end.AddDate(0, 0, -30), End: end}
}

func TestYahooChart(t *testing.T) {
	base := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/NVDA", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(`{"chart":{"result":[{"timestamp":[1711929600,1711843200,1711756800],
			"indicators":{"quote":[{"close":[903.5,null,880.1]}]}}],"error":null}}`))
	})
	y := NewYahoo(testClient(), zerolog.Nop())
	y.Hosts = []string{base}

	points, err := y.History(context.Background(), monthRequest())
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.True(t, points[0].Time.Before(points[1].Time))
	assert.InDelta(t, 880.1, points[0].Price, 1e-9)
}

func TestYahooHourlyForShortWindows(t *testing.T) {
	req := monthRequest()
	req.Start = req.End.Add(-24 * time.Hour)
	assert.Equal(t, "1h", yahooInterval(req))
	assert.Equal(t, "1d", yahooInterval(monthRequest()))
}

func TestYahooFallsBackToSecondHostThenSpark(t *testing.T) {
	var chartCalls atomic.Int32
	bad := serve(t, func(w http.ResponseWriter, r *http.Request) {
		chartCalls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	sparkHost := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v8/") {
			chartCalls.Add(1)
			_, _ = w.Write([]byte(`<html>`))
			return
		}
		assert.Equal(t, "/v7/finance/spark", r.URL.Path)
		_, _ = w.Write([]byte(`{"spark":{"result":[{"symbol":"NVDA","response":[{"timestamp":[1711756800,1711843200],
			"indicators":{"quote":[{"close":[880.1,890.2]}]}}]}]}}`))
	})
	y := NewYahoo(testClient(), zerolog.Nop())
	y.Hosts = []string{sparkHost, bad}

	points, err := y.History(context.Background(), monthRequest())
	require.NoError(t, err)
	assert.Len(t, points, 2)
	assert.GreaterOrEqual(t, chartCalls.Load(), int32(3))
}

func TestYahooUnknownSymbol(t *testing.T) {
	base := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	})
	y := NewYahoo(testClient(), zerolog.Nop())
	y.Hosts = []string{base}

	_, err := y.History(context.Background(), monthRequest())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestYahooWithoutHostsFails(t *testing.T) {
	y := NewYahoo(testClient(), zerolog.Nop())
	y.Hosts = nil

	points, err := y.History(context.Background(), monthRequest())
	require.Error(t, err)
	assert.Nil(t, points)
	assert.ErrorIs(t, err, ErrUpstream)
}

func alphaBody() string {
	return `{"Meta Data":{"2. Symbol":"NVDA"},"Time Series (Daily)":{
		"2024-03-28":{"1. open":"900","4. close":"903.56"},
		"2024-03-27":{"1. open":"890","4. close":"902.50"},
		"2024-01-02":{"1. open":"480","4. close":"481.68"}}}`
}

func TestAlphaVantage(t *testing.T) {
	base := serve(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "TIME_SERIES_DAILY", q.Get("function"))
		assert.Equal(t, "NVDA", q.Get("symbol"))
		assert.Equal(t, "key", q.Get("apikey"))
		assert.Equal(t, "compact", q.Get("outputsize"))
		_, _ = w.Write([]byte(alphaBody()))
	})
	a := NewAlphaVantage("key", testClient(), zerolog.Nop())
	a.BaseURL = base

	points, err := a.History(context.Background(), monthRequest())
	require.NoError(t, err)
	require.Len(t, points, 2, "closes before the window are dropped")
	assert.InDelta(t, 902.50, points[0].Price, 1e-9)
	assert.InDelta(t, 903.56, points[1].Price, 1e-9)
}

func TestAlphaVantageSignals(t *testing.T) {
	cases := map[string]error{
		`{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`: ErrRateLimited,
		`{"Error Message":"Invalid API call."}`: ErrUpstream,
		`{"Meta Data":{}}`:                      ErrMalformed,
		`not json`:                              ErrMalformed,
		`{"Time Series (Daily)":{"2020-01-02":{"4. close":"1.0"}}}`: ErrNoData,
	}
	for body, want := range cases {
		base := serve(t, func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(body)) })
		a := NewAlphaVantage("key", testClient(), zerolog.Nop())
		a.BaseURL = base
		_, err := a.History(context.Background(), monthRequest())
		assert.ErrorIs(t, err, want, body)
	}
}

func TestStockData(t *testing.T) {
	base := serve(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "tok", q.Get("api_token"))
		assert.Equal(t, "NVDA", q.Get("symbols"))
		assert.Equal(t, "day", q.Get("interval"))
		assert.Equal(t, "asc", q.Get("sort"))
		assert.Equal(t, "2024-03-01", q.Get("date_from"))
		assert.Equal(t, "2024-03-31", q.Get("date_to"))
		_, _ = w.Write([]byte(`{"data":[
			{"date":"2024-03-28T00:00:00.000Z","close":903.56},
			{"date":"2024-03-26T00:00:00.000Z","close":"0"},
			{"date":"2024-03-27T00:00:00.000Z","close":"902.50"}]}`))
	})
	s := NewStockData("tok", testClient(), zerolog.Nop())
	s.BaseURL = base

	points, err := s.History(context.Background(), monthRequest())
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 27, points[0].Time.Day())
	assert.Equal(t, 28, points[1].Time.Day())
}

func TestStockDataWidensDayWindow(t *testing.T) {
	end := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	base := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-03-29", r.URL.Query().Get("date_from"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	s := NewStockData("tok", testClient(), zerolog.Nop())
	s.BaseURL = base

	_, err := s.History(context.Background(), Request{Symbol: "NVDA", Start: end.Add(-24 * time.Hour), End: end})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestStockDataRateLimit(t *testing.T) {
	var calls atomic.Int32
	base := serve(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})
	s := NewStockData("tok", testClient(), zerolog.Nop())
	s.BaseURL = base

	_, err := s.History(context.Background(), monthRequest())
	assert.ErrorIs(t, err, ErrRateLimited)
	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, http.StatusTooManyRequests, ferr.StatusCode)
	assert.Equal(t, int32(2), calls.Load(), "429 is retried up to the attempt limit")
}

type stubProvider struct {
	name   string
	points []finance.PricePoint
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) History(context.Context, Request) ([]finance.PricePoint, error) {
	s.calls++
	return s.points, s.err
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	first := &stubProvider{name: "a", err: fetchErr("a", ErrRateLimited, "slow down")}
	second := &stubProvider{name: "b", points: []finance.PricePoint{{Time: time.Now(), Price: 1}}}
	third := &stubProvider{name: "c"}

	chain := NewChain(zerolog.Nop(), first, second, third)
	points, err := chain.History(context.Background(), monthRequest())
	require.NoError(t, err)
	assert.Len(t, points, 1)
	assert.Equal(t, 0, third.calls)
	assert.Equal(t, []string{"a", "b", "c"}, chain.Providers())
}

func TestChainKeepsEveryFailure(t *testing.T) {
	chain := NewChain(zerolog.Nop(),
		&stubProvider{name: "a", err: fetchErr("a", ErrRateLimited, "slow down")},
		&stubProvider{name: "b", err: errors.New("dial tcp: refused")},
	)
	_, err := chain.History(context.Background(), monthRequest())

	var cerr *ChainError
	require.ErrorAs(t, err, &cerr)
	require.Len(t, cerr.Attempts, 2)
	assert.Equal(t, "a", cerr.Attempts[0].Provider)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "refused")
}

func TestChainEmpty(t *testing.T) {
	_, err := NewChain(zerolog.Nop()).History(context.Background(), monthRequest())
	var cerr *ChainError
	require.ErrorAs(t, err, &cerr)
	assert.Empty(t, cerr.Attempts)
}

func TestClean(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []finance.PricePoint{
		{Time: t0.AddDate(0, 0, 2), Price: 3},
		{Time: t0, Price: 1},
		{Time: t0.AddDate(0, 0, 1), Price: -1},
		{Time: t0.AddDate(0, 0, 3), Price: 0},
	}
	out := clean(in, time.Time{}, time.Time{})
	require.Len(t, out, 2)
	assert.Equal(t, t0, out[0].Time)

	one := 5.0
	pts := fromArrays([]int64{1, 2, 3}, []*float64{&one, nil})
	require.Len(t, pts, 1)
	assert.InDelta(t, 5, pts[0].Price, 1e-9)
}
