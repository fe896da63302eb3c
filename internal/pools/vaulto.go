package pools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"

	"tokenizedCompare/internal/httpx"
)

const (
	DefaultVaultoURL = "https://stake.vaulto.ai"
	vaultoPoolsPath  = "/api/cache/tokenized-stock-pools"
)

// VaultoSource reads live pool figures from the Vaulto pool cache endpoint.
type VaultoSource struct {
	BaseURL string
	Client  *httpx.Client
	Log     zerolog.Logger
}

func NewVaultoSource(baseURL string, client *httpx.Client, log zerolog.Logger) *VaultoSource {
	if baseURL == "" {
		baseURL = DefaultVaultoURL
	}
	return &VaultoSource{BaseURL: strings.TrimRight(baseURL, "/"), Client: client, Log: log}
}

func (v *VaultoSource) Name() string { return "vaulto" }

func (v *VaultoSource) FetchPools(ctx context.Context) ([]PoolMetrics, error) {
	body, err := v.Client.Get(ctx, v.BaseURL+vaultoPoolsPath)
	if err != nil {
		return nil, fmt.Errorf("vaulto: %w", err)
	}
	return v.parse(body)
}

func (v *VaultoSource) parse(body []byte) ([]PoolMetrics, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("vaulto: decode: %w", err)
	}
	jval, err := jsonpath.Get("$.pools", doc)
	if err != nil {
		return nil, fmt.Errorf("vaulto: response missing pools: %w", err)
	}
	raw, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("vaulto: pools is %T, not a list", jval)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("vaulto: %w", ErrNoPools)
	}

	out := make([]PoolMetrics, 0, len(raw))
	for _, p := range raw {
		pool, ok := p.(map[string]any)
		if !ok {
			continue
		}
		m, err := poolFromJSON(pool)
		if err != nil {
			v.Log.Warn().Err(err).Interface("hash", pool["hash"]).Msg("skipping vaulto pool")
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("vaulto: %w", ErrNoPools)
	}
	return out, nil
}

func poolFromJSON(pool map[string]any) (PoolMetrics, error) {
	symbol := tokenizedSymbol(pool)
	if symbol == "" {
		return PoolMetrics{}, fmt.Errorf("%w: no non-USDC token", ErrInvalidMetric)
	}
	m := PoolMetrics{Symbol: symbol}
	fields := []struct {
		key string
		dst *float64
	}{
		{"tvl", &m.PoolTVL},
		{"fees24h", &m.Fees24h},
		{"volume24h", &m.Volume24h},
		{"fees30d", &m.Fees30d},
		{"volume30d", &m.Volume30d},
	}
	for _, f := range fields {
		val, err := number(pool[f.key])
		if err != nil {
			return PoolMetrics{}, fmt.Errorf("%w: %s %s: %v", ErrInvalidMetric, symbol, f.key, err)
		}
		*f.dst = val
	}
	if raw, present := pool["apr"]; present && raw != nil {
		if s, ok := raw.(string); ok {
			apr, ok := ParsePercentage(s)
			if ok {
				m.APR = &apr
			}
		} else {
			apr, err := number(raw)
			if err != nil {
				return PoolMetrics{}, fmt.Errorf("%w: %s apr: %v", ErrInvalidMetric, symbol, err)
			}
			m.APR = &apr
		}
	}
	return m, nil
}

// tokenizedSymbol picks whichever side of the pair is not USDC, keeping its case.
func tokenizedSymbol(pool map[string]any) string {
	for _, key := range []string{"$.token0.symbol", "$.token1.symbol"} {
		jval, err := jsonpath.Get(key, pool)
		if err != nil {
			continue
		}
		s, _ := jval.(string)
		if s != "" && !strings.EqualFold(s, "USDC") {
			return s
		}
	}
	return ""
}

// number accepts JSON numbers and the dashboard's currency strings. A missing
// figure counts as zero.
func number(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case string:
		return ParseCurrency(x)
	default:
		return 0, fmt.Errorf("unexpected %T", v)
	}
}

// ParseCurrency reads strings like "$657.46K", "$3.24M", "$1,200.50" or "$-4.08".
// Empty input and the "NA", "N/A" and "-" placeholders are zero.
func ParseCurrency(s string) (float64, error) {
	text := strings.TrimSpace(s)
	text = strings.ReplaceAll(text, "$", "")
	text = strings.ReplaceAll(text, ",", "")
	text = strings.TrimSpace(text)
	switch strings.ToUpper(text) {
	case "", "NA", "N/A", "-":
		return 0, nil
	}
	negative := strings.HasPrefix(text, "-")
	text = strings.TrimPrefix(text, "-")

	multiplier := 1.0
	switch {
	case strings.HasSuffix(text, "K"):
		multiplier = 1e3
	case strings.HasSuffix(text, "M"):
		multiplier = 1e6
	case strings.HasSuffix(text, "B"):
		multiplier = 1e9
	}
	if multiplier != 1 {
		text = text[:len(text)-1]
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("parse currency %q: %w", s, err)
	}
	v *= multiplier
	if negative {
		v = -v
	}
	return v, nil
}

// ParsePercentage reads "59.11%". "NA", "N/A" and empty strings have no value.
func ParsePercentage(s string) (float64, bool) {
	text := strings.ToUpper(strings.TrimSpace(s))
	if text == "" || text == "NA" || text == "N/A" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(text, "%")), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
