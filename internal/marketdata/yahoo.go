package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tokenizedCompare/internal/finance"
	"tokenizedCompare/internal/httpx"
)

var DefaultYahooHosts = []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"}

// yahooChartResp mirrors Yahoo v8 chart response (trimmed to needed fields)
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooSparkResp mirrors Yahoo v7 spark fallback (trimmed)
type yahooSparkResp struct {
	Spark struct {
		Result []struct {
			Symbol   string `json:"symbol"`
			Response []struct {
				Timestamp []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Close []*float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"response"`
		} `json:"result"`
	} `json:"spark"`
}

// Yahoo reads the public chart endpoint, falling back to spark when every
// host fails.
type Yahoo struct {
	Hosts  []string
	Client *httpx.Client
	Log    zerolog.Logger
}

func NewYahoo(client *httpx.Client, log zerolog.Logger) *Yahoo {
	return &Yahoo{Hosts: DefaultYahooHosts, Client: client, Log: log}
}

func (y *Yahoo) Name() string { return "yahoo" }

// interval is hourly for windows of two days or less, daily otherwise.
func yahooInterval(req Request) string {
	if req.span() <= 48*time.Hour {
		return "1h"
	}
	return "1d"
}

func (y *Yahoo) History(ctx context.Context, req Request) ([]finance.PricePoint, error) {
	symbol := strings.ToUpper(req.Symbol)
	interval := yahooInterval(req)

	var lastErr error
	for _, host := range y.Hosts {
		q := url.Values{}
		q.Set("period1", fmt.Sprint(req.Start.Unix()))
		q.Set("period2", fmt.Sprint(req.End.Unix()))
		q.Set("interval", interval)
		q.Set("events", "history")
		addr := fmt.Sprintf("%s/v8/finance/chart/%s?%s", host, url.PathEscape(symbol), q.Encode())

		points, err := y.chart(ctx, addr, req)
		if err == nil {
			return points, nil
		}
		// a symbol Yahoo does not know stays unknown on the other host
		if errors.Is(err, ErrNoData) {
			return nil, err
		}
		lastErr = err
		y.Log.Debug().Err(err).Str("host", host).Msg("yahoo chart failed")
	}

	points, err := y.spark(ctx, symbol, interval, req)
	if err != nil {
		y.Log.Debug().Err(err).Msg("yahoo spark failed")
		if lastErr == nil {
			return nil, err
		}
		return nil, lastErr
	}
	return points, nil
}

func (y *Yahoo) chart(ctx context.Context, addr string, req Request) ([]finance.PricePoint, error) {
	body, err := y.Client.Get(ctx, addr)
	if err != nil {
		if serr, ok := httpx.IsStatus(err); ok && serr.Code == 404 {
			return nil, &FetchError{Provider: y.Name(), Kind: ErrNoData, StatusCode: 404, Err: fmt.Errorf("unknown symbol %s", req.Symbol)}
		}
		return nil, classify(y.Name(), err)
	}
	if strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return nil, fetchErr(y.Name(), ErrRateLimited, "edge throttled")
	}
	var yc yahooChartResp
	if err := json.Unmarshal(body, &yc); err != nil {
		return nil, fetchErr(y.Name(), ErrMalformed, "decode chart: %w", err)
	}
	if yc.Chart.Error != nil {
		return nil, fetchErr(y.Name(), ErrNoData, "%s: %s", yc.Chart.Error.Code, yc.Chart.Error.Description)
	}
	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fetchErr(y.Name(), ErrNoData, "no result for %s", req.Symbol)
	}
	r := yc.Chart.Result[0]
	points := clean(fromArrays(r.Timestamp, r.Indicators.Quote[0].Close), time.Time{}, time.Time{})
	if len(points) == 0 {
		return nil, fetchErr(y.Name(), ErrNoData, "no valid closes for %s", req.Symbol)
	}
	return points, nil
}

func sparkRange(req Request) string {
	days := req.span().Hours() / 24
	switch {
	case days <= 1:
		return "1d"
	case days <= 5:
		return "5d"
	case days <= 31:
		return "1mo"
	case days <= 92:
		return "3mo"
	case days <= 183:
		return "6mo"
	default:
		return "1y"
	}
}

func (y *Yahoo) spark(ctx context.Context, symbol, interval string, req Request) ([]finance.PricePoint, error) {
	if len(y.Hosts) == 0 {
		return nil, fetchErr(y.Name(), ErrUpstream, "no hosts configured")
	}
	q := url.Values{}
	q.Set("symbols", symbol)
	q.Set("range", sparkRange(req))
	q.Set("interval", interval)
	addr := fmt.Sprintf("%s/v7/finance/spark?%s", y.Hosts[0], q.Encode())

	var sp yahooSparkResp
	if err := y.Client.GetJSON(ctx, addr, &sp); err != nil {
		return nil, classify(y.Name(), err)
	}
	if len(sp.Spark.Result) == 0 || len(sp.Spark.Result[0].Response) == 0 ||
		len(sp.Spark.Result[0].Response[0].Indicators.Quote) == 0 {
		return nil, fetchErr(y.Name(), ErrNoData, "no spark result for %s", symbol)
	}
	r := sp.Spark.Result[0].Response[0]
	points := clean(fromArrays(r.Timestamp, r.Indicators.Quote[0].Close), req.Start, req.End)
	if len(points) == 0 {
		return nil, fetchErr(y.Name(), ErrNoData, "no valid spark closes for %s", symbol)
	}
	return points, nil
}
