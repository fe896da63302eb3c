package compare

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	md "github.com/nao1215/markdown"

	"tokenizedCompare/internal/finance"
	"tokenizedCompare/internal/pools"
)

// Markdown renders the comparison as a report with summary and pool tables.
func (c *Comparison) Markdown(now time.Time) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("%s vs %s", c.Symbol, c.TraditionalSymbol))
	doc.PlainText(fmt.Sprintf("%s invested over %s, %s to %s.",
		finance.FormatCurrency(c.Investment), c.Period,
		finance.FormatDate(c.From, now), finance.FormatDate(c.To, now)))

	r := c.Result
	doc.H2("Returns")
	doc.Table(md.TableSet{
		Header: []string{"", md.Bold("Traditional"), md.Bold("Tokenized")},
		Rows: [][]string{
			{"Return", finance.FormatCurrency(r.TraditionalReturn), finance.FormatCurrency(r.TokenizedReturn)},
			{"Return %", finance.FormatPercentage(r.TraditionalReturnPercentage), finance.FormatPercentage(r.TokenizedReturnPercentage)},
			{"Final value", finance.FormatCurrency(c.Investment + r.TraditionalReturn), finance.FormatCurrency(r.TotalTokenizedValue)},
		},
	})

	doc.H2("Pool")
	rows := [][]string{
		{"Pool TVL", finance.FormatCurrency(c.PoolTVL)},
		{"Your pool share", pct(r.UserTVLFraction * 100)},
		{"Fees for period", finance.FormatCurrency(c.FeesForPeriod)},
		{"Fees claimed", finance.FormatCurrency(r.FeesClaimed)},
		{"Volume for period", finance.FormatCurrency(c.VolumeForPeriod)},
		{"Pool APR", finance.FormatAPR(c.PoolAPR)},
		{"Effective APR", finance.FormatAPR(c.EffectiveAPR)},
		{"Start price", finance.FormatCurrency(c.StartPrice)},
		{"Current price", finance.FormatCurrency(c.CurrentPrice)},
	}
	if c.FeeMultiple != nil {
		rows = append(rows, []string{"Tokenized / traditional", finance.FormatMultiple(*c.FeeMultiple)})
	}
	doc.Table(md.TableSet{Header: []string{"Metric", "Value"}, Rows: rows})

	if s := c.Stats; s != nil {
		doc.H2("Risk")
		doc.Table(md.TableSet{
			Header: []string{"", md.Bold("Traditional"), md.Bold("Tokenized")},
			Rows: [][]string{
				{"Total return", finance.FormatPercentage(s.Traditional.TotalReturn), finance.FormatPercentage(s.Tokenized.TotalReturn)},
				{"Volatility per step", pct(s.Traditional.Volatility), pct(s.Tokenized.Volatility)},
				{"Max drawdown", pct(s.Traditional.MaxDrawdown), pct(s.Tokenized.MaxDrawdown)},
			},
		})
	}

	return doc.String()
}

// Summary is a short plain-text caption, suitable for chat messages.
func (c *Comparison) Summary() string {
	r := c.Result
	var b strings.Builder
	fmt.Fprintf(&b, "%s vs %s • %s • %s\n", c.Symbol, c.TraditionalSymbol, c.Period, finance.FormatCurrency(c.Investment))
	fmt.Fprintf(&b, "Traditional: %s (%s)\n", finance.FormatCurrency(r.TraditionalReturn), finance.FormatPercentage(r.TraditionalReturnPercentage))
	fmt.Fprintf(&b, "Tokenized: %s (%s)\n", finance.FormatCurrency(r.TokenizedReturn), finance.FormatPercentage(r.TokenizedReturnPercentage))
	fmt.Fprintf(&b, "Fees claimed: %s, pool share %s\n", finance.FormatCurrency(r.FeesClaimed), pct(r.UserTVLFraction*100))
	fmt.Fprintf(&b, "Effective APR: %s", finance.FormatAPR(c.EffectiveAPR))
	return b.String()
}

// PoolsMarkdown lists pools by TVL.
func PoolsMarkdown(list []pools.PoolMetrics, updated time.Time) string {
	sorted := make([]pools.PoolMetrics, len(list))
	copy(sorted, list)
	pools.SortByTVL(sorted)

	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Tokenized stock pools")
	if !updated.IsZero() {
		doc.PlainText("Last updated " + updated.UTC().Format("2006-01-02 15:04 MST"))
	}
	rows := make([][]string, 0, len(sorted))
	for _, m := range sorted {
		rows = append(rows, []string{
			m.Symbol,
			finance.TokenizedToTraditional(m.Symbol),
			finance.FormatCurrency(m.PoolTVL),
			finance.FormatCurrency(m.Fees24h),
			finance.FormatCurrency(m.Volume30d),
			finance.FormatAPR(m.APR),
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Symbol", "Stock", "TVL", "Fees 24h", "Volume 30d", "APR"},
		Rows:   rows,
	})
	return doc.String()
}

// pct renders an unsigned percentage.
func pct(v float64) string { return finance.FormatAPR(&v) }
