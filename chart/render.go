package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	defaultWidth  = 10 * vg.Inch
	defaultHeight = 6 * vg.Inch
)

// viridis 与 plotly 的 px.colors.sequential.Viridis 一致
var viridis = []color.RGBA{
	{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
	{R: 0x48, G: 0x28, B: 0x78, A: 0xff},
	{R: 0x3e, G: 0x4a, B: 0x89, A: 0xff},
	{R: 0x31, G: 0x68, B: 0x8e, A: 0xff},
	{R: 0x26, G: 0x82, B: 0x8e, A: 0xff},
	{R: 0x1f, G: 0x9e, B: 0x89, A: 0xff},
	{R: 0x35, G: 0xb7, B: 0x79, A: 0xff},
	{R: 0x6e, G: 0xce, B: 0x58, A: 0xff},
	{R: 0xb5, G: 0xde, B: 0x2b, A: 0xff},
	{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
}

func paletteColor(i int) color.RGBA {
	return viridis[i%len(viridis)]
}

// Render 将图表渲染为 PNG
func Render(spec *Spec) ([]byte, error) {
	if spec == nil || spec.empty() {
		return nil, ErrEmptySpec
	}
	if spec.Kind == KindLine && len(spec.Times) > 0 {
		return renderTimeSeries(spec)
	}

	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel

	var err error
	switch spec.Kind {
	case KindBar:
		err = addBars(p, spec)
	case KindHistogram:
		err = addHistogram(p, spec)
	case KindBox:
		err = addBoxes(p, spec)
	case KindScatter:
		err = addScatter(p, spec)
	case KindLine:
		err = addLine(p, spec)
	default:
		err = fmt.Errorf("unsupported chart kind %q", spec.Kind)
	}
	if err != nil {
		return nil, err
	}
	p.Add(plotter.NewGrid())

	wt, err := p.WriterTo(defaultWidth, defaultHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", spec.Kind, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func finite(vs []float64) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func addBars(p *plot.Plot, spec *Spec) error {
	// 类别较多时收窄柱宽
	width := vg.Points(40)
	if n := len(spec.Values); n > 10 {
		width = vg.Points(math.Max(6, 400/float64(n)))
	}
	bars, err := plotter.NewBarChart(plotter.Values(spec.Values), width)
	if err != nil {
		return err
	}
	bars.Color = paletteColor(0)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(spec.Categories...)
	return nil
}

func addHistogram(p *plot.Plot, spec *Spec) error {
	vals := finite(spec.Values)
	if len(vals) == 0 {
		return ErrEmptySpec
	}
	// bins <= 0 时由 gonum 按样本数选择
	h, err := plotter.NewHist(plotter.Values(vals), spec.Bins)
	if err != nil {
		return err
	}
	h.FillColor = paletteColor(0)
	p.Add(h)
	if p.Y.Label.Text == "" {
		p.Y.Label.Text = "count"
	}
	return nil
}

func addBoxes(p *plot.Plot, spec *Spec) error {
	names := make([]string, 0, len(spec.Groups))
	for i, g := range spec.Groups {
		vals := finite(g.Values)
		if len(vals) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(30), float64(len(names)), plotter.Values(vals))
		if err != nil {
			return err
		}
		box.FillColor = paletteColor(i)
		p.Add(box)
		names = append(names, g.Name)
	}
	if len(names) == 0 {
		return ErrEmptySpec
	}
	p.NominalX(names...)
	return nil
}

func addScatter(p *plot.Plot, spec *Spec) error {
	pts := make(plotter.XYs, 0, len(spec.Ys))
	var nominal []string

	if len(spec.Categories) > 0 {
		// 类别型 x 轴：每个类别映射到一个整数位置
		pos := make(map[string]int)
		for i, cat := range spec.Categories {
			if i >= len(spec.Ys) {
				break
			}
			idx, ok := pos[cat]
			if !ok {
				idx = len(nominal)
				pos[cat] = idx
				nominal = append(nominal, cat)
			}
			pts = append(pts, plotter.XY{X: float64(idx), Y: spec.Ys[i]})
		}
	} else {
		for i := range spec.Ys {
			if i >= len(spec.Xs) {
				break
			}
			pts = append(pts, plotter.XY{X: spec.Xs[i], Y: spec.Ys[i]})
		}
	}
	if len(pts) == 0 {
		return ErrEmptySpec
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.GlyphStyle.Color = paletteColor(0)
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(s)
	if nominal != nil {
		p.NominalX(nominal...)
	}
	return nil
}

func addLine(p *plot.Plot, spec *Spec) error {
	n := len(spec.Ys)
	if len(spec.Xs) < n {
		n = len(spec.Xs)
	}
	if n == 0 {
		return ErrEmptySpec
	}
	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i] = plotter.XY{X: spec.Xs[i], Y: spec.Ys[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = paletteColor(0)
	p.Add(line)
	return nil
}
