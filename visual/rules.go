package visual

import (
	"fmt"
	"strings"

	"data-agent/chart"
	"data-agent/dataset"
)

const (
	colApp       = dataset.ColApplicationType
	colSignal    = dataset.ColSignalStrength
	colLatency   = dataset.ColLatency
	colResource  = dataset.ColResourceAllocation
	colRequired  = dataset.ColRequiredBandwidth
	colAllocated = dataset.ColAllocatedBandwidth
)

// Rule 一条查询到图表模板的映射
type Rule struct {
	Name string
	// Description 用于 BM25 模糊匹配
	Description string
	// Columns 规则依赖的列，缺失时跳过该规则
	Columns []string
	Match   func(q string) bool
	Build   func(f *dataset.Frame) (*chart.Spec, error)
}

func containsAll(q string, subs ...string) bool {
	for _, s := range subs {
		if !strings.Contains(q, s) {
			return false
		}
	}
	return true
}

func containsAny(q string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(q, s) {
			return true
		}
	}
	return false
}

func groupsToBar(groups []dataset.Group, title, x, y string) *chart.Spec {
	spec := &chart.Spec{Kind: chart.KindBar, Title: title, XLabel: x, YLabel: y}
	for _, g := range groups {
		spec.Categories = append(spec.Categories, g.Key)
		spec.Values = append(spec.Values, g.Value)
	}
	return spec
}

func countsToBar(counts []dataset.Count, title, x string) *chart.Spec {
	spec := &chart.Spec{Kind: chart.KindBar, Title: title, XLabel: x, YLabel: "Count"}
	for _, c := range counts {
		spec.Categories = append(spec.Categories, c.Value)
		spec.Values = append(spec.Values, float64(c.Count))
	}
	return spec
}

func histogramOf(f *dataset.Frame, col, title string, bins int) (*chart.Spec, error) {
	c, err := f.Column(col)
	if err != nil {
		return nil, err
	}
	return &chart.Spec{Kind: chart.KindHistogram, Title: title, XLabel: col, Values: c.ValidNumbers(), Bins: bins}, nil
}

func meanBy(f *dataset.Frame, value, title string) (*chart.Spec, error) {
	groups, err := f.GroupMean(colApp, value)
	if err != nil {
		return nil, err
	}
	return groupsToBar(groups, title, colApp, value), nil
}

// DefaultRules 内置的图表模板，顺序即优先级
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        "gaming_bandwidth",
			Description: "average bandwidth requirement online gaming bar",
			Columns:     []string{colApp, colRequired},
			Match: func(q string) bool {
				return containsAll(q, "average bandwidth requirement", "online gaming") ||
					strings.Contains(q, "plot a bar chart of the average bandwidth requirement for online gaming")
			},
			Build: func(f *dataset.Frame) (*chart.Spec, error) {
				gaming, err := f.Filter(colApp, "Online Gaming")
				if err != nil {
					return nil, err
				}
				groups, err := gaming.GroupMean(colApp, colRequired)
				if err != nil {
					return nil, err
				}
				return groupsToBar(groups, "Average Bandwidth Requirement for Online Gaming", colApp, colRequired), nil
			},
		},
		{
			Name:        "signal_histogram",
			Description: "histogram signal strength",
			Columns:     []string{colSignal},
			Match:       func(q string) bool { return strings.Contains(q, "histogram") },
			Build: func(f *dataset.Frame) (*chart.Spec, error) {
				return histogramOf(f, colSignal, "Histogram of Signal Strength Distribution", 0)
			},
		},
		{
			Name:        "latency_by_app",
			Description: "average latency application type highest",
			Columns:     []string{colApp, colLatency},
			Match: func(q string) bool {
				return containsAll(q, "average latency", "application") ||
					strings.Contains(q, "applications using the highest latency")
			},
			Build: func(f *dataset.Frame) (*chart.Spec, error) {
				return meanBy(f, colLatency, "Average Latency by Application Type")
			},
		},
		{
			Name:        "max_latency_app",
			Description: "maximum average latency worst application",
			Columns:     []string{colApp, colLatency},
			Match:       func(q string) bool { return strings.Contains(q, "maximum average latency") },
			Build: func(f *dataset.Frame) (*chart.Spec, error) {
				groups, err := f.GroupMean(colApp, colLatency)
				if err != nil {
					return nil, err
				}
				top := dataset.NLargest(groups, 1)
				if len(top) == 0 {
					return nil, ErrNoChart
				}
				return groupsToBar(top, fmt.Sprintf("Maximum Average Latency: %s", top[0].Key), colApp, colLatency), nil
			},
		},
		{
			Name:        "latency_box",
			Description: "latency distribution application type spread box",
			Columns:     []string{colApp, colLatency},
			Match: func(q string) bool {
				return containsAny(q, "latency distribution by application type", "visualize latency by application type")
			},
			Build: func(f *dataset.Frame) (*chart.Spec, error) {
				values, keys, err := f.GroupValues(colApp, colLatency)
				if err != nil {
					return nil, err
				}
				spec := &chart.Spec{Kind: chart.KindBox, Title: "Latency Distribution by Application Type", XLabel: colApp, YLabel: colLatency}
				for _, k := range keys {
					spec.Groups = append(spec.Groups, chart.BoxGroup{Name: k, Values: values[k]})
				}
				return spec, nil
			},
		},
		{
			Name:        "top_latency_apps",
			Description: "top applications high latency",
			Columns:     []string{colApp, colLatency},
			Match:       func(q string) bool { return strings.Contains(q, "top applications with high latency") },
			Build: func(f *dataset.Frame) (*chart.Spec, error) {
				groups, err := f.GroupMean(colApp, colLatency)
				if err != nil {
					return nil, err
				}
				return groupsToBar(dataset.NLargest(groups, 7), "Top Applications with High Latency", colApp, colLatency), nil
			},
		},
		{
			Name:        "resource_by_app",
			Description: "average resource allocation application type",
			Columns:     []string{colApp, colResource},
			Match:       func(q string) bool { return containsAll(q, "average resource allocation", "application") },
			Build: func(f *dataset.Frame) (*chart.Spec, error) {
				return meanBy(f, colResource, "Average Resource Allocation by Application Type")
			},
		},
		{
			Name:        "resource_histogram",
			Description: "distribution resource allocation",
			Columns:     []string{colResource},
			Match:       func(q string) bool { return strings.Contains(q, "distribution of resource allocation") },
			Build: func(f *dataset.Frame) (*chart.Spec, error) {
				return histogramOf(f, colResource, "Distribution of Resource Allocation", 0)
			},
		},
		{
			Name:        "signal_distribution",
			Description: "distribution signal strength",
			Columns:     []string{colSignal},
			Match:       func(q string) bool { return strings.Contains(q, "distribution of signal strength") },
			Build: func(f *dataset.Frame) (*chart.Spec, error) {
				return histogramOf(f, colSignal, "Distribution of Signal Strength", 20)
			},
		},
		{
			Name:        "signal_by_app",
			Description: "signal strength application type scatter",
			Columns:     []string{colApp, colSignal},
			Match:       func(q string) bool { return strings.Contains(q, "visualize signal strength by application type") },
			Build: func(f *dataset.Frame) (*chart.Spec, error) {
				app, err := f.Column(colApp)
				if err != nil {
					return nil, err
				}
				sig, err := f.Column(colSignal)
				if err != nil {
					return nil, err
				}
				spec := &chart.Spec{Kind: chart.KindScatter, Title: "Signal Strength by Application Type", XLabel: colApp, YLabel: colSignal}
				for i := 0; i < f.Len(); i++ {
					if !app.Valid[i] || !sig.Valid[i] {
						continue
					}
					spec.Categories = append(spec.Categories, app.Format(i))
					spec.Ys = append(spec.Ys, sig.Numbers[i])
				}
				return spec, nil
			},
		},
		{
			Name:        "app_distribution",
			Description: "distribution application types count",
			Columns:     []string{colApp},
			Match: func(q string) bool {
				return containsAny(q, "distribution of application types", "visualize distribution of application types")
			},
			Build: func(f *dataset.Frame) (*chart.Spec, error) {
				counts, err := f.ValueCounts(colApp)
				if err != nil {
					return nil, err
				}
				return countsToBar(counts, "Distribution of Application Types", colApp), nil
			},
		},
		{
			Name:        "common_apps",
			Description: "most commonly used application types popular",
			Columns:     []string{colApp},
			Match:       func(q string) bool { return strings.Contains(q, "most commonly used application types") },
			Build: func(f *dataset.Frame) (*chart.Spec, error) {
				counts, err := f.ValueCounts(colApp)
				if err != nil {
					return nil, err
				}
				return countsToBar(counts, "Most Commonly Used Application Types", colApp), nil
			},
		},
		{
			Name:        "bandwidth_relationship",
			Description: "relationship allocated required bandwidth scatter",
			Columns:     []string{colRequired, colAllocated},
			Match: func(q string) bool {
				return containsAny(q,
					"relationship between allocated and required bandwidth",
					"visualize the relationship between allocated bandwidth and required bandwidth")
			},
			Build: func(f *dataset.Frame) (*chart.Spec, error) {
				return scatterOf(f, colRequired, colAllocated, "Relationship Between Allocated and Required Bandwidth")
			},
		},
	}
}

func scatterOf(f *dataset.Frame, x, y, title string) (*chart.Spec, error) {
	xc, err := f.Column(x)
	if err != nil {
		return nil, err
	}
	yc, err := f.Column(y)
	if err != nil {
		return nil, err
	}
	spec := &chart.Spec{Kind: chart.KindScatter, Title: title, XLabel: x, YLabel: y}
	for i := 0; i < f.Len(); i++ {
		if !xc.Valid[i] || !yc.Valid[i] {
			continue
		}
		spec.Xs = append(spec.Xs, xc.Numbers[i])
		spec.Ys = append(spec.Ys, yc.Numbers[i])
	}
	return spec, nil
}
