package finance

import (
	"strings"

	"tokenizedCompare/internal/pools"
)

// Period selects the historical window of a comparison.
type Period string

const (
	Period24h Period = "24h"
	Period7d  Period = "7d"
	Period30d Period = "30d"
	Period3m  Period = "3m"
	Period6m  Period = "6m"
	Period1y  Period = "1y"
)

// Periods lists every supported period, shortest first.
var Periods = []Period{Period24h, Period7d, Period30d, Period3m, Period6m, Period1y}

// ParsePeriod accepts the canonical identifiers plus a few spoken aliases.
func ParsePeriod(s string) (Period, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "24h", "1d", "day":
		return Period24h, true
	case "7d", "1w", "week":
		return Period7d, true
	case "30d", "1mo", "month":
		return Period30d, true
	case "3m", "3mo", "90d":
		return Period3m, true
	case "6m", "6mo", "180d":
		return Period6m, true
	case "1y", "12m", "year", "365d":
		return Period1y, true
	}
	return "", false
}

// Days is the length of the period used for market-data requests. Months are
// fixed 30-day approximations. Unknown periods count as one day.
func (p Period) Days() int {
	switch p {
	case Period24h:
		return 1
	case Period7d:
		return 7
	case Period30d:
		return 30
	case Period3m:
		return 90
	case Period6m:
		return 180
	case Period1y:
		return 365
	default:
		return 1
	}
}

func (p Period) String() string { return string(p) }

// FeesForPeriod scales the pool's fee statistics to the period.
func FeesForPeriod(m pools.PoolMetrics, p Period) float64 {
	return scale(m.Fees24h, m.Fees30d, p)
}

// VolumeForPeriod scales the pool's volume statistics to the period.
func VolumeForPeriod(m pools.PoolMetrics, p Period) float64 {
	return scale(m.Volume24h, m.Volume30d, p)
}

// scale extrapolates the daily figure up to a week and the 30-day figure
// beyond a month.
func scale(daily, monthly float64, p Period) float64 {
	switch p {
	case Period24h:
		return daily
	case Period7d:
		return daily * 7
	case Period30d:
		return monthly
	case Period3m, Period6m, Period1y:
		return monthly / 30 * float64(p.Days())
	default:
		return daily
	}
}
