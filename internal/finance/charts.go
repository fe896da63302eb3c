package finance

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/vicanso/go-charts/v2"
)

var ErrNoChartData = errors.New("not enough data points")

// ChartOptions describes one comparison chart.
type ChartOptions struct {
	Symbol     string
	Period     Period
	Investment float64
	Width      int
	Height     int
}

// MakeComparisonChart draws the traditional and tokenized value lines as a PNG.
func MakeComparisonChart(series []ChartPoint, opt ChartOptions) ([]byte, error) {
	if len(series) < 2 {
		return nil, ErrNoChartData
	}
	if opt.Width <= 0 {
		opt.Width = 900
	}
	if opt.Height <= 0 {
		opt.Height = 500
	}

	cacheKey := chartCacheKey(series, opt)
	if img, ok := cacheGet(cacheKey); ok {
		return img, nil
	}

	// build labels and y-range
	et := getEasternTime()
	labels := make([]string, len(series))
	traditional := make([]float64, len(series))
	tokenized := make([]float64, len(series))
	yMin, yMax := series[0].TraditionalValue, series[0].TraditionalValue
	for i, p := range series {
		tt := p.Time.In(et)
		if opt.Period == Period24h {
			labels[i] = tt.Format("15:04")
		} else {
			labels[i] = FormatDateCompact(tt)
		}
		traditional[i] = p.TraditionalValue
		tokenized[i] = p.TokenizedValue
		for _, v := range []float64{p.TraditionalValue, p.TokenizedValue} {
			if v < yMin {
				yMin = v
			}
			if v > yMax {
				yMax = v
			}
		}
	}
	pad := (yMax - yMin) * 0.05
	if pad < yMax*0.002 {
		pad = yMax * 0.002
	}
	yMin -= pad
	if yMin < 0 {
		yMin = 0
	}
	yMax += pad

	split := 10
	if len(labels) < split {
		split = len(labels)
	}
	traditionalName := TokenizedToTraditional(opt.Symbol)
	names := []string{traditionalName + " (traditional)", opt.Symbol + " (tokenized)"}

	painter, err := charts.LineRender([][]float64{traditional, tokenized},
		charts.TitleTextOptionFunc(
			fmt.Sprintf("%s vs %s • %s", opt.Symbol, traditionalName, strings.ToUpper(string(opt.Period))),
			FormatCurrency(opt.Investment)+" invested",
		),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names, Left: charts.PositionRight}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(opt.Width),
		charts.HeightOptionFunc(opt.Height),
	)
	if err != nil {
		return nil, err
	}
	img, err := painter.Bytes()
	if err != nil {
		return nil, err
	}
	cacheSet(cacheKey, img)
	return img, nil
}

// chartCacheKey covers everything drawn: the options and every plotted value.
func chartCacheKey(series []ChartPoint, opt ChartOptions) string {
	h := fnv.New64a()
	var buf [8]byte
	for _, p := range series {
		for _, v := range []uint64{uint64(p.Time.Unix()), math.Float64bits(p.TraditionalValue), math.Float64bits(p.TokenizedValue)} {
			binary.LittleEndian.PutUint64(buf[:], v)
			_, _ = h.Write(buf[:])
		}
	}
	return fmt.Sprintf("%s|%s|%.2f|%dx%d|%d|%x", strings.ToUpper(opt.Symbol), opt.Period,
		opt.Investment, opt.Width, opt.Height, len(series), h.Sum64())
}
