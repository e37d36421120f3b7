package visual

import (
	"fmt"
	"strings"

	"data-agent/chart"
	"data-agent/dataset"
)

// mentioned 返回查询中提到的列，下划线可写作空格
func mentioned(q string, f *dataset.Frame) []*dataset.Column {
	var out []*dataset.Column
	for _, c := range f.Columns {
		name := strings.ToLower(c.Name)
		if strings.Contains(q, name) || strings.Contains(q, strings.ReplaceAll(name, "_", " ")) {
			out = append(out, c)
		}
	}
	return out
}

func firstOf(cols []*dataset.Column, kind dataset.Kind) *dataset.Column {
	for _, c := range cols {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// Recommend 根据查询提到的列推荐图表类型，找不到合适组合时返回 nil
//   - 时间列 + 数值列: 折线图
//   - 分类列 + 数值列: 分组均值柱状图
//   - 两个数值列: 散点图
//   - 单个数值列: 直方图
//   - 单个分类列: 计数柱状图
func Recommend(q string, f *dataset.Frame) *chart.Spec {
	cols := mentioned(strings.ToLower(q), f)
	if len(cols) == 0 {
		return nil
	}
	var numeric []*dataset.Column
	for _, c := range cols {
		if c.Kind == dataset.KindNumber {
			numeric = append(numeric, c)
		}
	}
	ts := firstOf(cols, dataset.KindTime)
	cat := firstOf(cols, dataset.KindString)

	switch {
	case ts != nil && len(numeric) > 0:
		return lineOf(f, ts, numeric[0])
	case cat != nil && len(numeric) > 0:
		groups, err := f.GroupMean(cat.Name, numeric[0].Name)
		if err != nil || len(groups) == 0 {
			return nil
		}
		return groupsToBar(groups, fmt.Sprintf("Average %s by %s", numeric[0].Name, cat.Name), cat.Name, numeric[0].Name)
	case len(numeric) >= 2:
		spec, err := scatterOf(f, numeric[0].Name, numeric[1].Name,
			fmt.Sprintf("%s vs %s", numeric[1].Name, numeric[0].Name))
		if err != nil {
			return nil
		}
		return spec
	case len(numeric) == 1:
		spec, err := histogramOf(f, numeric[0].Name, fmt.Sprintf("Distribution of %s", numeric[0].Name), 0)
		if err != nil {
			return nil
		}
		return spec
	case cat != nil:
		counts, err := f.ValueCounts(cat.Name)
		if err != nil || len(counts) == 0 {
			return nil
		}
		return countsToBar(counts, fmt.Sprintf("Distribution of %s", cat.Name), cat.Name)
	}
	return nil
}

func lineOf(f *dataset.Frame, ts, value *dataset.Column) *chart.Spec {
	spec := &chart.Spec{
		Kind:   chart.KindLine,
		Title:  fmt.Sprintf("%s over %s", value.Name, ts.Name),
		XLabel: ts.Name,
		YLabel: value.Name,
	}
	for i := 0; i < f.Len(); i++ {
		if !ts.Valid[i] || !value.Valid[i] {
			continue
		}
		spec.Times = append(spec.Times, ts.Times[i])
		spec.Ys = append(spec.Ys, value.Numbers[i])
	}
	return spec
}
