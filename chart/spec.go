package chart

import (
	"errors"
	"time"
)

// Kind 图表类型
type Kind string

const (
	KindBar       Kind = "bar"
	KindHistogram Kind = "histogram"
	KindBox       Kind = "box"
	KindScatter   Kind = "scatter"
	KindLine      Kind = "line"
)

var ErrEmptySpec = errors.New("chart has no data")

// BoxGroup 箱线图中的一组数据
type BoxGroup struct {
	Name   string
	Values []float64
}

// Spec 描述一张待渲染的图表，按 Kind 使用对应字段：
//   - bar: Categories + Values
//   - histogram: Values + Bins
//   - box: Groups
//   - scatter: Xs + Ys，或 Categories(每个点一个) + Ys
//   - line: Times + Ys，或 Xs + Ys
type Spec struct {
	Kind       Kind
	Title      string
	XLabel     string
	YLabel     string
	Categories []string
	Values     []float64
	Bins       int
	Groups     []BoxGroup
	Xs         []float64
	Ys         []float64
	Times      []time.Time
}

func (s *Spec) empty() bool {
	switch s.Kind {
	case KindBar:
		return len(s.Values) == 0 || len(s.Categories) != len(s.Values)
	case KindHistogram:
		return len(s.Values) == 0
	case KindBox:
		return len(s.Groups) == 0
	case KindScatter, KindLine:
		return len(s.Ys) == 0
	}
	return true
}
