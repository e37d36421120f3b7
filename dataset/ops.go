package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Count 值计数结果
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Group 分组聚合结果
type Group struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Aggregation 分组聚合方式
type Aggregation string

const (
	AggMean  Aggregation = "mean"
	AggSum   Aggregation = "sum"
	AggCount Aggregation = "count"
	AggMin   Aggregation = "min"
	AggMax   Aggregation = "max"
)

// ColumnStats 单列描述统计，对应 describe()
type ColumnStats struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// keyOf 将任意类型的列值转换为分组键
func keyOf(c *Column, i int) string {
	return c.Format(i)
}

func valueCounts(c *Column) []Count {
	counts := make(map[string]int)
	order := make([]string, 0)
	for i := 0; i < c.Len(); i++ {
		if !c.Valid[i] {
			continue
		}
		k := keyOf(c, i)
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	out := make([]Count, 0, len(order))
	for _, k := range order {
		out = append(out, Count{Value: k, Count: counts[k]})
	}
	// 计数相同保持首次出现的顺序
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// ValueCounts 按出现次数降序
func (f *Frame) ValueCounts(col string) ([]Count, error) {
	c, err := f.Column(col)
	if err != nil {
		return nil, err
	}
	return valueCounts(c), nil
}

// GroupBy 按 by 分组并对 value 列聚合，结果按分组键排序
func (f *Frame) GroupBy(by, value string, agg Aggregation) ([]Group, error) {
	key, err := f.Column(by)
	if err != nil {
		return nil, err
	}
	val, err := f.Column(value)
	if err != nil {
		return nil, err
	}
	if val.Kind != KindNumber && agg != AggCount {
		return nil, fmt.Errorf("column %s is %s, %s needs a numeric column", value, val.Kind, agg)
	}

	buckets := make(map[string][]float64)
	for i := 0; i < f.rows; i++ {
		if !key.Valid[i] || !val.Valid[i] {
			continue
		}
		k := keyOf(key, i)
		var v float64
		if val.Kind == KindNumber {
			v = val.Numbers[i]
		}
		buckets[k] = append(buckets[k], v)
	}

	out := make([]Group, 0, len(buckets))
	for k, vs := range buckets {
		g := Group{Key: k, Count: len(vs)}
		switch agg {
		case AggMean:
			g.Value = stat.Mean(vs, nil)
		case AggSum:
			for _, v := range vs {
				g.Value += v
			}
		case AggCount:
			g.Value = float64(len(vs))
		case AggMin:
			g.Value = math.Inf(1)
			for _, v := range vs {
				g.Value = math.Min(g.Value, v)
			}
		case AggMax:
			g.Value = math.Inf(-1)
			for _, v := range vs {
				g.Value = math.Max(g.Value, v)
			}
		default:
			return nil, fmt.Errorf("unknown aggregation %q", agg)
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// GroupMean 等价于 groupby(by)[value].mean()
func (f *Frame) GroupMean(by, value string) ([]Group, error) {
	return f.GroupBy(by, value, AggMean)
}

// NLargest 取聚合值最大的 n 组
func NLargest(groups []Group, n int) []Group {
	sorted := append([]Group(nil), groups...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// GroupValues 按分组收集原始数值，用于箱线图
func (f *Frame) GroupValues(by, value string) (map[string][]float64, []string, error) {
	key, err := f.Column(by)
	if err != nil {
		return nil, nil, err
	}
	val, err := f.Column(value)
	if err != nil {
		return nil, nil, err
	}
	if val.Kind != KindNumber {
		return nil, nil, fmt.Errorf("column %s is %s, want number", value, val.Kind)
	}
	out := make(map[string][]float64)
	for i := 0; i < f.rows; i++ {
		if !key.Valid[i] || !val.Valid[i] {
			continue
		}
		k := keyOf(key, i)
		out[k] = append(out[k], val.Numbers[i])
	}
	keys := make([]string, 0, len(out))
	for k := range out {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return out, keys, nil
}

// Filter 返回 col == value 的行组成的新数据集，文本比较忽略大小写
func (f *Frame) Filter(col, value string) (*Frame, error) {
	c, err := f.Column(col)
	if err != nil {
		return nil, err
	}
	keep := make([]int, 0)
	for i := 0; i < f.rows; i++ {
		if c.Valid[i] && strings.EqualFold(keyOf(c, i), value) {
			keep = append(keep, i)
		}
	}
	return f.take(keep), nil
}

func (f *Frame) take(rows []int) *Frame {
	cols := make([]*Column, len(f.Columns))
	for ci, c := range f.Columns {
		nc := &Column{Name: c.Name, Kind: c.Kind, Valid: make([]bool, len(rows))}
		switch c.Kind {
		case KindNumber:
			nc.Numbers = make([]float64, len(rows))
		case KindTime:
			nc.Times = make([]time.Time, len(rows))
		default:
			nc.Strings = make([]string, len(rows))
		}
		for ri, r := range rows {
			nc.Valid[ri] = c.Valid[r]
			switch c.Kind {
			case KindNumber:
				nc.Numbers[ri] = c.Numbers[r]
			case KindTime:
				nc.Times[ri] = c.Times[r]
			default:
				nc.Strings[ri] = c.Strings[r]
			}
		}
		cols[ci] = nc
	}
	out, _ := NewFrame(cols)
	return out
}

// Stats 计算数值列的描述统计
func (f *Frame) Stats(col string) (*ColumnStats, error) {
	c, err := f.Column(col)
	if err != nil {
		return nil, err
	}
	if c.Kind != KindNumber {
		return nil, fmt.Errorf("column %s is %s, want number", col, c.Kind)
	}
	vals := c.ValidNumbers()
	if len(vals) == 0 {
		return &ColumnStats{Name: col}, nil
	}
	sort.Float64s(vals)
	mean := stat.Mean(vals, nil)
	s := &ColumnStats{
		Name:   col,
		Count:  len(vals),
		Mean:   mean,
		Min:    vals[0],
		Q1:     quantile(0.25, vals),
		Median: quantile(0.5, vals),
		Q3:     quantile(0.75, vals),
		Max:    vals[len(vals)-1],
	}
	if len(vals) > 1 {
		s.StdDev = stat.StdDev(vals, nil)
	}
	return s, nil
}

// Describe 所有数值列的描述统计
func (f *Frame) Describe() []*ColumnStats {
	out := make([]*ColumnStats, 0)
	for _, c := range f.Columns {
		if c.Kind != KindNumber {
			continue
		}
		s, err := f.Stats(c.Name)
		if err == nil {
			out = append(out, s)
		}
	}
	return out
}

// quantile 线性插值分位数（与 pandas 默认一致），sorted 必须已排序
func quantile(p float64, sorted []float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return sorted[int(lo)]
	}
	return sorted[int(lo)] + (sorted[int(hi)]-sorted[int(lo)])*(pos-lo)
}
