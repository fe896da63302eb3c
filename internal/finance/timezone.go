package finance

import (
	"sync"
	"time"
)

var easternOnce = sync.OnceValue(func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*3600)
	}
	return loc
})

// getEasternTime returns the US market timezone, falling back to fixed EST
// when tzdata is missing.
func getEasternTime() *time.Location {
	return easternOnce()
}

// Window returns the [start, end] range of a period ending at now.
func Window(p Period, now time.Time) (time.Time, time.Time) {
	return now.AddDate(0, 0, -p.Days()), now
}
