package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tokenizedCompare/internal/finance"
	"tokenizedCompare/internal/httpx"
)

const DefaultStockDataURL = "https://api.stockdata.org/v1/data/eod"

type stockDataResp struct {
	Data []struct {
		Date  string          `json:"date"`
		Close json.RawMessage `json:"close"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// StockData reads end-of-day closes from StockData.org.
type StockData struct {
	BaseURL  string
	APIToken string
	Client   *httpx.Client
	Log      zerolog.Logger
}

func NewStockData(token string, client *httpx.Client, log zerolog.Logger) *StockData {
	return &StockData{BaseURL: DefaultStockDataURL, APIToken: token, Client: client, Log: log}
}

func (s *StockData) Name() string { return "stockdata" }

func (s *StockData) History(ctx context.Context, req Request) ([]finance.PricePoint, error) {
	req = dailyWindow(req)

	q := url.Values{}
	q.Set("api_token", s.APIToken)
	q.Set("symbols", strings.ToUpper(req.Symbol))
	q.Set("interval", "day")
	q.Set("sort", "asc")
	q.Set("date_from", req.Start.UTC().Format("2006-01-02"))
	q.Set("date_to", req.End.UTC().Format("2006-01-02"))

	body, err := s.Client.Get(ctx, s.BaseURL+"?"+q.Encode())
	if err != nil {
		return nil, classify(s.Name(), err)
	}
	var resp stockDataResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fetchErr(s.Name(), ErrMalformed, "decode: %w", err)
	}
	if resp.Error != nil {
		kind := ErrUpstream
		if strings.Contains(resp.Error.Code, "limit") {
			kind = ErrRateLimited
		}
		return nil, fetchErr(s.Name(), kind, "%s: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Data) == 0 {
		return nil, fetchErr(s.Name(), ErrNoData, "no rows for %s", req.Symbol)
	}

	points := make([]finance.PricePoint, 0, len(resp.Data))
	for _, row := range resp.Data {
		if row.Date == "" || len(row.Close) == 0 {
			continue
		}
		t, err := parseStockDataDate(row.Date)
		if err != nil {
			return nil, fetchErr(s.Name(), ErrMalformed, "date %q: %w", row.Date, err)
		}
		v, err := parseLooseFloat(row.Close)
		if err != nil {
			continue
		}
		points = append(points, finance.PricePoint{Time: t, Price: v})
	}
	points = clean(points, time.Time{}, time.Time{})
	if len(points) == 0 {
		return nil, fetchErr(s.Name(), ErrNoData, "no valid closes for %s", req.Symbol)
	}
	return points, nil
}

func parseStockDataDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date")
}

// parseLooseFloat accepts a JSON number or a numeric string.
func parseLooseFloat(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
