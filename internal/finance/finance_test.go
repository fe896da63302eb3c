package finance

import (
	"bytes"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenizedCompare/internal/pools"
)

func TestComputeReturnsScenario(t *testing.T) {
	r := ComputeReturns(1000, 10000, 100, 50, 55)
	assert.InDelta(t, 100, r.TraditionalReturn, 1e-9)
	assert.InDelta(t, 10, r.TraditionalReturnPercentage, 1e-9)
	assert.InDelta(t, 0.10, r.UserTVLFraction, 1e-12)
	assert.InDelta(t, 10, r.FeesClaimed, 1e-9)
	assert.InDelta(t, 110, r.TokenizedReturn, 1e-9)
	assert.InDelta(t, 11.0, r.TokenizedReturnPercentage, 1e-9)
	assert.InDelta(t, 1110, r.TotalTokenizedValue, 1e-9)
}

func TestComputeReturnsFlatPrice(t *testing.T) {
	for _, price := range []float64{0.01, 1, 55.5, 1e6} {
		r := ComputeReturns(1234, 5000, 42, price, price)
		assert.Equal(t, 0.0, r.TraditionalReturn, "price %v", price)
	}
}

func TestComputeReturnsFractionCap(t *testing.T) {
	cases := []struct{ amount, tvl float64 }{{1000, 1000}, {5000, 1000}, {1e9, 0.5}}
	for _, c := range cases {
		r := ComputeReturns(c.amount, c.tvl, 10, 100, 120)
		assert.Equal(t, 1.0, r.UserTVLFraction)
		assert.InDelta(t, 10, r.FeesClaimed, 1e-9)
	}
}

func TestComputeReturnsZeroTVL(t *testing.T) {
	r := ComputeReturns(1000, 0, 500, 100, 110)
	for _, v := range []float64{r.FeesClaimed, r.TokenizedReturn, r.UserTVLFraction, r.TotalTokenizedValue} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	assert.Equal(t, 0.0, r.FeesClaimed)
	assert.Equal(t, 0.0, r.UserTVLFraction)
	assert.InDelta(t, 100, r.TraditionalReturn, 1e-9)
	assert.InDelta(t, 100, r.TokenizedReturn, 1e-9)
}

func TestComputeReturnsLossIsSigned(t *testing.T) {
	r := ComputeReturns(1000, 10000, 0, 100, 50)
	assert.InDelta(t, -500, r.TraditionalReturn, 1e-9)
	assert.InDelta(t, -50, r.TokenizedReturnPercentage, 1e-9)
	assert.InDelta(t, 500, r.TotalTokenizedValue, 1e-9)
}

func TestEffectiveAPR(t *testing.T) {
	apr := 20.0
	got := EffectiveAPR(500, 1000, &apr)
	require.NotNil(t, got)
	assert.InDelta(t, 10.0, *got, 1e-9)

	assert.Nil(t, EffectiveAPR(500, 0, &apr))
	assert.Nil(t, EffectiveAPR(500, 1000, nil))

	capped := EffectiveAPR(5000, 1000, &apr)
	require.NotNil(t, capped)
	assert.InDelta(t, 20.0, *capped, 1e-9)
}

func pricesAt(start time.Time, prices ...float64) []PricePoint {
	out := make([]PricePoint, len(prices))
	for i, p := range prices {
		out[i] = PricePoint{Time: start.AddDate(0, 0, i), Price: p}
	}
	return out
}

func TestGenerateSeriesEmpty(t *testing.T) {
	assert.Empty(t, GenerateSeries(nil, 1000, 100, 10, 50))
	assert.NotNil(t, GenerateSeries([]PricePoint{}, 1000, 100, 10, 50))
}

func TestGenerateSeriesShape(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	prices := pricesAt(start, 50, 52, 51, 55)
	series := GenerateSeries(prices, 1000, 10000, 100, 50)

	require.Len(t, series, len(prices))
	for i := range prices {
		assert.Equal(t, prices[i].Time, series[i].Time)
	}

	// fees step evenly, the last point carries the whole share
	assert.InDelta(t, 1000, series[0].TraditionalValue, 1e-9)
	assert.InDelta(t, 1002.5, series[0].TokenizedValue, 1e-9)
	assert.InDelta(t, 1040, series[1].TraditionalValue, 1e-9)
	assert.InDelta(t, 1045, series[1].TokenizedValue, 1e-9)
	assert.InDelta(t, 1100, series[3].TraditionalValue, 1e-9)
	assert.InDelta(t, 1110, series[3].TokenizedValue, 1e-9)

	r := ComputeReturns(1000, 10000, 100, 50, 55)
	assert.InDelta(t, r.TotalTokenizedValue, series[3].TokenizedValue, 1e-9)
	assert.InDelta(t, 10, Advantage(series), 1e-9)
}

func TestGenerateSeriesFloorsAtZero(t *testing.T) {
	prices := pricesAt(time.Now(), 100, -5)
	series := GenerateSeries(prices, 1000, 0, 0, 250)
	for _, p := range series {
		assert.GreaterOrEqual(t, p.TraditionalValue, 0.0)
		assert.GreaterOrEqual(t, p.TokenizedValue, 0.0)
	}
	assert.InDelta(t, 400, series[0].TraditionalValue, 1e-9)
	assert.Equal(t, 0.0, series[1].TraditionalValue)
}

func TestGenerateSeriesZeroTVL(t *testing.T) {
	series := GenerateSeries(pricesAt(time.Now(), 10, 11), 1000, 0, 500, 10)
	for _, p := range series {
		assert.Equal(t, p.TraditionalValue, p.TokenizedValue)
		assert.False(t, math.IsNaN(p.TokenizedValue))
	}
}

func TestFeeMultiple(t *testing.T) {
	m, ok := FeeMultiple(ComputeReturns(1000, 10000, 100, 50, 55))
	require.True(t, ok)
	assert.InDelta(t, 1.1, m, 1e-9)

	_, ok = FeeMultiple(ComputeReturns(1000, 10000, 100, 50, 50))
	assert.False(t, ok)
}

func TestPeriodDays(t *testing.T) {
	want := map[Period]int{Period24h: 1, Period7d: 7, Period30d: 30, Period3m: 90, Period6m: 180, Period1y: 365, Period("2w"): 1}
	for p, d := range want {
		assert.Equal(t, d, p.Days(), string(p))
	}
}

func TestPeriodScaling(t *testing.T) {
	m := pools.PoolMetrics{Symbol: "Xon", Fees24h: 2, Fees30d: 300, Volume24h: 200, Volume30d: 30000}

	fees := map[Period]float64{Period24h: 2, Period7d: 14, Period30d: 300, Period3m: 900, Period6m: 1800, Period1y: 3650, Period("bogus"): 2}
	for p, want := range fees {
		assert.InDelta(t, want, FeesForPeriod(m, p), 1e-9, string(p))
	}
	volume := map[Period]float64{Period24h: 200, Period7d: 1400, Period30d: 30000, Period6m: 180000, Period("bogus"): 200}
	for p, want := range volume {
		assert.InDelta(t, want, VolumeForPeriod(m, p), 1e-9, string(p))
	}
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{"24h": Period24h, "1W": Period7d, " 30d ": Period30d, "3mo": Period3m, "6m": Period6m, "year": Period1y} {
		got, ok := ParsePeriod(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParsePeriod("2w")
	assert.False(t, ok)
}

func TestSymbolMapping(t *testing.T) {
	assert.Equal(t, "NVDA", TokenizedToTraditional("NVDAon"))
	assert.Equal(t, "GOOGL", TokenizedToTraditional("GOOGLon"))
	assert.Equal(t, "AAPL", TokenizedToTraditional("AAPL"))
	assert.Equal(t, "Bon", TokenizedToTraditional("Bonon"))
	assert.Equal(t, "TSLAon", TraditionalToTokenized("TSLA"))
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "$1,234.56", FormatCurrency(1234.56))
	assert.Equal(t, "$0.00", FormatCurrency(0))
	assert.Equal(t, "-$50.25", FormatCurrency(-50.25))
	assert.Equal(t, "+1.23%", FormatPercentage(1.2345))
	assert.Equal(t, "+0.00%", FormatPercentage(0))
	assert.Equal(t, "-0.50%", FormatPercentage(-0.5))
	assert.Equal(t, "2.50x", FormatMultiple(2.5))
	assert.Equal(t, "NA", FormatAPR(nil))
	apr := 59.11
	assert.Equal(t, "59.11%", FormatAPR(&apr))

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Jan 2", FormatDate(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "Jan 2, 2024", FormatDate(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "Dec 31", FormatDateCompact(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestChartCache(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cacheNow = func() time.Time { return now }
	t.Cleanup(func() { cacheNow = time.Now })

	cacheSet("k", []byte{1, 2, 3})
	img, ok := cacheGet("k")
	require.True(t, ok)
	img[0] = 9
	again, _ := cacheGet("k")
	assert.Equal(t, byte(1), again[0])

	now = now.Add(chartCacheTTL)
	_, ok = cacheGet("k")
	assert.False(t, ok)
}

func TestMakeComparisonChart(t *testing.T) {
	_, err := MakeComparisonChart(nil, ChartOptions{Symbol: "NVDAon"})
	assert.ErrorIs(t, err, ErrNoChartData)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	series := GenerateSeries(pricesAt(start, 50, 52, 51, 55, 54), 1000, 10000, 100, 50)
	img, err := MakeComparisonChart(series, ChartOptions{Symbol: "NVDAon", Period: Period7d, Investment: 1000})
	require.NoError(t, err)
	require.Greater(t, len(img), 8)
	assert.Equal(t, []byte("\x89PNG"), img[:4])
}

func TestChartCacheKeyCoversValuesAndSize(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	prices := pricesAt(start, 50, 52, 51, 55, 54)
	opt := ChartOptions{Symbol: "NVDAon", Period: Period7d, Investment: 1000, Width: 600, Height: 400}

	lowFees := GenerateSeries(prices, 1000, 10000, 10, 50)
	highFees := GenerateSeries(prices, 1000, 10000, 500, 50)
	assert.NotEqual(t, chartCacheKey(lowFees, opt), chartCacheKey(highFees, opt))
	assert.Equal(t, chartCacheKey(lowFees, opt), chartCacheKey(GenerateSeries(prices, 1000, 10000, 10, 50), opt))

	a, err := MakeComparisonChart(lowFees, opt)
	require.NoError(t, err)
	b, err := MakeComparisonChart(highFees, opt)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	for _, height := range []int{300, 800} {
		opt.Height = height
		img, err := MakeComparisonChart(lowFees, opt)
		require.NoError(t, err)
		cfg, err := png.DecodeConfig(bytes.NewReader(img))
		require.NoError(t, err)
		assert.Equal(t, height, cfg.Height)
	}
}

func TestComputeSeriesStats(t *testing.T) {
	series := []ChartPoint{
		{TraditionalValue: 100, TokenizedValue: 100},
		{TraditionalValue: 120, TokenizedValue: 125},
		{TraditionalValue: 90, TokenizedValue: 100},
		{TraditionalValue: 110, TokenizedValue: 130},
	}
	s, err := ComputeSeriesStats(series)
	require.NoError(t, err)
	assert.InDelta(t, 10, s.Traditional.TotalReturn, 1e-9)
	assert.InDelta(t, 25, s.Traditional.MaxDrawdown, 1e-9)
	assert.InDelta(t, 30, s.Tokenized.TotalReturn, 1e-9)
	assert.InDelta(t, 20, s.Tokenized.MaxDrawdown, 1e-9)
	assert.Greater(t, s.Traditional.Volatility, 0.0)

	_, err = ComputeSeriesStats(series[:2])
	assert.Error(t, err)

	flat := []ChartPoint{{TraditionalValue: 0}, {TraditionalValue: 1}, {TraditionalValue: 2}}
	_, err = ComputeSeriesStats(flat)
	assert.Error(t, err)
}

func TestMaxDrawdownNeverRecovers(t *testing.T) {
	assert.InDelta(t, 0.5, maxDrawdown([]float64{10, 8, 5}), 1e-9)
	assert.Equal(t, 0.0, maxDrawdown([]float64{1, 2, 3}))
}
