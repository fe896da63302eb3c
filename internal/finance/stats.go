package finance

import (
	"fmt"
	"math"
)

// LineStats summarizes one value line of a comparison series.
type LineStats struct {
	Initial     float64 `json:"initial"`
	Final       float64 `json:"final"`
	TotalReturn float64 `json:"totalReturn"` // percentage
	Volatility  float64 `json:"volatility"`  // sample stdev of step returns, percentage
	MaxDrawdown float64 `json:"maxDrawdown"` // largest peak-to-trough decline, percentage
}

// SeriesStats holds the statistics of both lines.
type SeriesStats struct {
	Traditional LineStats `json:"traditional"`
	Tokenized   LineStats `json:"tokenized"`
}

// ComputeSeriesStats needs at least three points so that two step returns exist.
func ComputeSeriesStats(series []ChartPoint) (SeriesStats, error) {
	traditional := make([]float64, len(series))
	tokenized := make([]float64, len(series))
	for i, p := range series {
		traditional[i] = p.TraditionalValue
		tokenized[i] = p.TokenizedValue
	}
	t, err := lineStats(traditional)
	if err != nil {
		return SeriesStats{}, fmt.Errorf("traditional: %w", err)
	}
	k, err := lineStats(tokenized)
	if err != nil {
		return SeriesStats{}, fmt.Errorf("tokenized: %w", err)
	}
	return SeriesStats{Traditional: t, Tokenized: k}, nil
}

func lineStats(values []float64) (LineStats, error) {
	if len(values) < 3 {
		return LineStats{}, fmt.Errorf("insufficient data: %d points", len(values))
	}
	initial, final := values[0], values[len(values)-1]
	if initial <= 0 {
		return LineStats{}, fmt.Errorf("initial value %f is not positive", initial)
	}

	// step returns; a step from zero has no defined return
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			returns = append(returns, (values[i]-values[i-1])/values[i-1])
		}
	}
	if len(returns) < 2 {
		return LineStats{}, fmt.Errorf("need at least 2 return observations")
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	stats := LineStats{
		Initial:     initial,
		Final:       final,
		TotalReturn: (final - initial) / initial * 100,
		Volatility:  math.Sqrt(variance) * 100,
		MaxDrawdown: maxDrawdown(values) * 100,
	}
	for _, v := range []float64{stats.TotalReturn, stats.Volatility, stats.MaxDrawdown} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return LineStats{}, fmt.Errorf("non-finite statistic")
		}
	}
	return stats, nil
}

// maxDrawdown is the largest peak-to-trough decline as a fraction of the peak.
func maxDrawdown(values []float64) float64 {
	worst := 0.0
	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 && v >= 0 {
			if dd := (peak - v) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
