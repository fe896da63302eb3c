package finance

import "math"

// GenerateSeries values both holdings at every price sample. Fees accrue in
// equal steps per sample, not per elapsed day; the last sample carries the
// full period fee share.
func GenerateSeries(prices []PricePoint, investment, poolTVL, periodFees, startPrice float64) []ChartPoint {
	if len(prices) == 0 {
		return []ChartPoint{}
	}
	fraction := PoolFraction(investment, poolTVL)
	feesPerPoint := periodFees / float64(len(prices))

	out := make([]ChartPoint, len(prices))
	for i, p := range prices {
		change := (p.Price - startPrice) / startPrice
		traditional := investment + change*investment
		accumulated := feesPerPoint * float64(i+1) * fraction
		out[i] = ChartPoint{
			Time:             p.Time,
			TraditionalValue: math.Max(0, traditional),
			TokenizedValue:   math.Max(0, traditional+accumulated),
		}
	}
	return out
}

// Advantage is how far the tokenized holding ends above the traditional one.
func Advantage(series []ChartPoint) float64 {
	if len(series) == 0 {
		return 0
	}
	last := series[len(series)-1]
	return last.TokenizedValue - last.TraditionalValue
}

// FeeMultiple is tokenized return over traditional return. ok is false when
// the traditional return is zero.
func FeeMultiple(r ComparisonResult) (float64, bool) {
	if r.TraditionalReturn == 0 || math.IsNaN(r.TraditionalReturn) {
		return 0, false
	}
	return r.TokenizedReturn / r.TraditionalReturn, true
}
