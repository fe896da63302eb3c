package marketdata

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tokenizedCompare/internal/finance"
	"tokenizedCompare/internal/httpx"
)

const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

// AlphaVantage reads TIME_SERIES_DAILY. The free tier only serves end-of-day
// closes, so short windows are widened to two days.
type AlphaVantage struct {
	BaseURL string
	APIKey  string
	Client  *httpx.Client
	Log     zerolog.Logger
}

func NewAlphaVantage(apiKey string, client *httpx.Client, log zerolog.Logger) *AlphaVantage {
	return &AlphaVantage{BaseURL: DefaultAlphaVantageURL, APIKey: apiKey, Client: client, Log: log}
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

func (a *AlphaVantage) History(ctx context.Context, req Request) ([]finance.PricePoint, error) {
	req = dailyWindow(req)

	// compact holds the last 100 sessions
	outputSize := "compact"
	if req.span() > 100*24*time.Hour {
		outputSize = "full"
	}
	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", strings.ToUpper(req.Symbol))
	q.Set("apikey", a.APIKey)
	q.Set("outputsize", outputSize)
	q.Set("datatype", "json")

	body, err := a.Client.Get(ctx, a.BaseURL+"?"+q.Encode())
	if err != nil {
		return nil, classify(a.Name(), err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fetchErr(a.Name(), ErrMalformed, "decode: %w", err)
	}
	if raw, ok := doc["Error Message"]; ok {
		return nil, fetchErr(a.Name(), ErrUpstream, "%s", unquote(raw))
	}
	if raw, ok := doc["Note"]; ok {
		return nil, fetchErr(a.Name(), ErrRateLimited, "%s", unquote(raw))
	}
	if raw, ok := doc["Information"]; ok {
		return nil, fetchErr(a.Name(), ErrRateLimited, "%s", unquote(raw))
	}

	var series map[string]map[string]string
	for key, raw := range doc {
		if strings.Contains(key, "Time Series") {
			if err := json.Unmarshal(raw, &series); err != nil {
				return nil, fetchErr(a.Name(), ErrMalformed, "decode %q: %w", key, err)
			}
			break
		}
	}
	if series == nil {
		return nil, fetchErr(a.Name(), ErrMalformed, "no time series in response")
	}

	points := make([]finance.PricePoint, 0, len(series))
	for day, values := range series {
		t, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, fetchErr(a.Name(), ErrMalformed, "date %q: %w", day, err)
		}
		closeStr, ok := values["4. close"]
		if !ok {
			return nil, fetchErr(a.Name(), ErrMalformed, "%s has no close", day)
		}
		v, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			return nil, fetchErr(a.Name(), ErrMalformed, "close %q: %w", closeStr, err)
		}
		points = append(points, finance.PricePoint{Time: t, Price: v})
	}

	points = clean(points, startOfDay(req.Start), req.End)
	if len(points) == 0 {
		return nil, fetchErr(a.Name(), ErrNoData, "no closes for %s since %s", req.Symbol, req.Start.Format("2006-01-02"))
	}
	return points, nil
}

func unquote(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}
