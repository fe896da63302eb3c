package marketdata

import (
	"math"
	"sort"
	"time"

	"tokenizedCompare/internal/finance"
)

// fromArrays pairs unix timestamps with closes, dropping null, non-finite and
// non-positive closes and keeping the arrays aligned.
func fromArrays(ts []int64, cl []*float64) []finance.PricePoint {
	n := len(ts)
	if len(cl) < n {
		n = len(cl)
	}
	out := make([]finance.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		if cl[i] == nil {
			continue
		}
		out = append(out, finance.PricePoint{Time: time.Unix(ts[i], 0).UTC(), Price: *cl[i]})
	}
	return out
}

// clean keeps positive finite closes inside [start, end] and sorts ascending.
// A zero start or end leaves that side open.
func clean(points []finance.PricePoint, start, end time.Time) []finance.PricePoint {
	out := make([]finance.PricePoint, 0, len(points))
	for _, p := range points {
		if !(p.Price > 0) || math.IsInf(p.Price, 0) {
			continue
		}
		if !start.IsZero() && p.Time.Before(start) {
			continue
		}
		if !end.IsZero() && p.Time.After(end) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// dailyWindow widens windows shorter than two days for providers that only
// publish end-of-day closes, so a 24h request still sees a price change.
func dailyWindow(req Request) Request {
	if req.span() < 48*time.Hour {
		req.Start = req.End.AddDate(0, 0, -2)
	}
	return req
}

// startOfDay truncates to midnight UTC, the resolution of daily providers.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
