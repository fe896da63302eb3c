package finance

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatCurrency renders a USD amount with two decimals, like $1,234.56.
func FormatCurrency(v float64) string {
	cents := decimal.NewFromFloat(v).Round(2).Shift(2).IntPart()
	return money.New(cents, money.USD).Display()
}

// FormatPercentage renders a signed percentage, like +1.23% or -0.50%.
func FormatPercentage(v float64) string {
	d := decimal.NewFromFloat(v)
	s := d.StringFixed(2) + "%"
	if !d.IsNegative() {
		s = "+" + s
	}
	return s
}

// FormatMultiple renders a ratio like 2.50x.
func FormatMultiple(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "x"
}

// FormatAPR renders an optional APR, NA when absent.
func FormatAPR(apr *float64) string {
	if apr == nil {
		return "NA"
	}
	return decimal.NewFromFloat(*apr).StringFixed(2) + "%"
}

// FormatDate renders "Jan 2", adding the year when t is not in the year of now.
func FormatDate(t, now time.Time) string {
	if t.Year() != now.Year() {
		return t.Format("Jan 2, 2006")
	}
	return t.Format("Jan 2")
}

// FormatDateCompact renders "Jan 2" for chart labels.
func FormatDateCompact(t time.Time) string {
	return t.Format("Jan 2")
}
