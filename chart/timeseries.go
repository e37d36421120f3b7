package chart

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type timePoint struct {
	t time.Time
	v float64
}

// renderTimeSeries 时间序列折线图交给 go-chart，时间轴刻度比 gonum 友好
func renderTimeSeries(spec *Spec) ([]byte, error) {
	n := len(spec.Times)
	if len(spec.Ys) < n {
		n = len(spec.Ys)
	}
	points := make([]timePoint, n)
	for i := 0; i < n; i++ {
		points[i] = timePoint{t: spec.Times[i], v: spec.Ys[i]}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].t.Before(points[j].t) })

	if n < 2 || !points[0].t.Before(points[n-1].t) {
		return nil, fmt.Errorf("%w: time series needs at least two distinct timestamps", ErrEmptySpec)
	}

	xs := make([]time.Time, n)
	ys := make([]float64, n)
	for i, p := range points {
		xs[i] = p.t
		ys[i] = p.v
	}

	c := paletteColor(0)
	ch := gochart.Chart{
		Title:  spec.Title,
		Width:  1024,
		Height: 576,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: gochart.XAxis{
			Name:           spec.XLabel,
			ValueFormatter: gochart.TimeValueFormatterWithFormat(timeFormat(xs[0], xs[n-1])),
		},
		YAxis: gochart.YAxis{
			Name: spec.YLabel,
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    spec.YLabel,
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeColor: drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A},
					StrokeWidth: 2,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render time series: %w", err)
	}
	return buf.Bytes(), nil
}

// timeFormat 按时间跨度选择刻度格式
func timeFormat(from, to time.Time) string {
	span := to.Sub(from)
	switch {
	case span <= 24*time.Hour:
		return "15:04"
	case span <= 31*24*time.Hour:
		return "01-02 15:04"
	default:
		return "2006-01-02"
	}
}
