package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"tokenizedCompare/internal/compare"
	"tokenizedCompare/internal/finance"
	"tokenizedCompare/internal/marketdata"
	"tokenizedCompare/internal/pools"
)

// Comparer runs one comparison.
type Comparer interface {
	Compare(ctx context.Context, req compare.Request) (*compare.Comparison, error)
}

// PoolStore is the part of pools.Store the API exposes.
type PoolStore interface {
	All() []pools.PoolMetrics
	UpdatedAt() time.Time
	SourceName() string
	Refresh(ctx context.Context) ([]pools.PoolMetrics, error)
}

type API struct {
	Compare       Comparer
	Pools         PoolStore
	Webhook       http.HandlerFunc // nil when the bot is disabled
	DefaultPeriod finance.Period
	DefaultAmount float64
	Log           zerolog.Logger
}

func NewHTTPMux(api API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(api.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	if api.Webhook != nil {
		r.Post("/telegram/webhook", api.Webhook)
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/pools", api.listPools)
		r.Post("/pools/refresh", api.refreshPools)
		r.Get("/compare", api.compare)
		r.Get("/compare/chart.png", api.compareChart)
	})
	return r
}

func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (a API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.Log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

type poolsResponse struct {
	Source    string              `json:"source"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Pools     []pools.PoolMetrics `json:"pools"`
}

func (a API) listPools(w http.ResponseWriter, _ *http.Request) {
	list := a.Pools.All()
	pools.SortByTVL(list)
	writeJSON(w, http.StatusOK, poolsResponse{Source: a.Pools.SourceName(), UpdatedAt: a.Pools.UpdatedAt(), Pools: list})
}

func (a API) refreshPools(w http.ResponseWriter, r *http.Request) {
	list, err := a.Pools.Refresh(r.Context())
	if err != nil {
		a.Log.Warn().Err(err).Msg("pool refresh failed")
		writeMessage(w, http.StatusBadGateway, "pool refresh failed, previous pools kept")
		return
	}
	pools.SortByTVL(list)
	writeJSON(w, http.StatusOK, poolsResponse{Source: a.Pools.SourceName(), UpdatedAt: a.Pools.UpdatedAt(), Pools: list})
}

func (a API) compare(w http.ResponseWriter, r *http.Request) {
	c, ok := a.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a API) compareChart(w http.ResponseWriter, r *http.Request) {
	c, ok := a.run(w, r)
	if !ok {
		return
	}
	img, err := c.Chart()
	if err != nil {
		a.Log.Error().Err(err).Str("symbol", c.Symbol).Msg("chart failed")
		writeMessage(w, http.StatusInternalServerError, "chart rendering failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=60")
	_, _ = w.Write(img)
}

// run parses the query and executes the comparison, writing the error
// response itself when it fails.
func (a API) run(w http.ResponseWriter, r *http.Request) (*compare.Comparison, bool) {
	req, err := a.parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	c, err := a.Compare.Compare(r.Context(), req)
	if err != nil {
		status := StatusFor(err)
		if status >= 500 {
			a.Log.Error().Err(err).Str("symbol", req.Symbol).Msg("comparison failed")
		} else {
			a.Log.Debug().Err(err).Str("symbol", req.Symbol).Msg("comparison rejected")
		}
		writeMessage(w, status, PublicMessage(status, err))
		return nil, false
	}
	return c, true
}

func (a API) parseRequest(r *http.Request) (compare.Request, error) {
	q := r.URL.Query()
	req := compare.Request{
		Symbol: q.Get("symbol"),
		Amount: a.DefaultAmount,
		Period: a.DefaultPeriod,
	}
	if s := q.Get("amount"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return req, errors.New("amount must be a number")
		}
		req.Amount = v
	}
	if p := q.Get("period"); p != "" {
		req.Period = finance.Period(p)
		if parsed, ok := finance.ParsePeriod(p); ok {
			req.Period = parsed
		}
	}
	return req, nil
}

// StatusFor maps a comparison error to an HTTP status.
func StatusFor(err error) int {
	var verr *compare.ValidationError
	switch {
	case errors.Is(err, compare.ErrUnknownSymbol):
		return http.StatusNotFound
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, marketdata.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, compare.ErrEmptySeries), errors.Is(err, marketdata.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// PublicMessage is the error text shown to API callers. Only input errors are
// echoed; upstream failures get a fixed message so provider details stay in the logs.
func PublicMessage(status int, err error) string {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound:
		return err.Error()
	case http.StatusTooManyRequests:
		return "market data providers are rate limiting, try again later"
	case http.StatusUnprocessableEntity:
		return "no price data for the period"
	case http.StatusGatewayTimeout:
		return "market data request timed out"
	default:
		return "market data unavailable"
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeMessage(w, status, err.Error())
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
