// Package finance is the comparison model: period scaling, returns, the
// value-over-time series and its chart.
package finance

import "math"

// PoolFraction is the investor's share of the pool, capped at the whole pool.
// An empty pool yields no share.
func PoolFraction(investment, poolTVL float64) float64 {
	if poolTVL <= 0 {
		return 0
	}
	return math.Min(investment/poolTVL, 1.0)
}

// ComputeReturns compares holding the stock against holding the tokenized
// pool position between two prices. investment must be at least 1 and
// startPrice positive.
func ComputeReturns(investment, poolTVL, periodFees, startPrice, endPrice float64) ComparisonResult {
	change := (endPrice - startPrice) / startPrice
	traditional := change * investment

	fraction := PoolFraction(investment, poolTVL)
	fees := periodFees * fraction
	tokenized := traditional + fees

	return ComparisonResult{
		TraditionalReturn:           traditional,
		TraditionalReturnPercentage: change * 100,
		TokenizedReturn:             tokenized,
		TokenizedReturnPercentage:   tokenized / investment * 100,
		FeesClaimed:                 fees,
		UserTVLFraction:             fraction,
		TotalTokenizedValue:         math.Max(0, investment+tokenized),
	}
}

// EffectiveAPR is the investor's pro-rata share of the pool's advertised APR.
// It is nil when the pool has no APR or no liquidity.
func EffectiveAPR(investment, poolTVL float64, apr *float64) *float64 {
	if apr == nil || poolTVL <= 0 {
		return nil
	}
	v := PoolFraction(investment, poolTVL) * *apr
	return &v
}
