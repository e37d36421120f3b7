package visual

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"data-agent/algorithm"
	"data-agent/chart"
	"data-agent/dataset"
)

var ErrNoChart = errors.New("No relevant plot found for this query.")

// 触发可视化的关键词
var vizKeywords = []string{"visualize", "chart", "plot", "graph", "bar", "scatter", "histogram"}

// NeedsVisualization 判断查询是否要求出图
func NeedsVisualization(query string) bool {
	return containsAny(strings.ToLower(query), vizKeywords...)
}

// 模糊匹配的最低得分，大致相当于命中两个描述词
const defaultMinScore = 2.0

type Dispatcher struct {
	rules    []Rule
	bm       *algorithm.BM25
	minScore float64
}

func NewDispatcher(rules []Rule) *Dispatcher {
	docs := make([][]string, len(rules))
	for i, r := range rules {
		docs[i] = algorithm.Tokenize(r.Description)
	}
	return &Dispatcher{rules: rules, bm: algorithm.NewBM25(docs), minScore: defaultMinScore}
}

// Default 使用内置规则
func Default() *Dispatcher {
	return NewDispatcher(DefaultRules())
}

// applicable 规则所需列都存在，且除应用类型外均为数值列
func applicable(r Rule, f *dataset.Frame) bool {
	for _, c := range r.Columns {
		if !f.Has(c) {
			return false
		}
		if c != colApp && !f.HasKind(c, dataset.KindNumber) {
			return false
		}
	}
	return true
}

// Select 为查询挑选图表：先按顺序匹配规则，再 BM25 模糊匹配，最后按查询提到的列推荐
func (d *Dispatcher) Select(query string, f *dataset.Frame) (*chart.Spec, error) {
	return d.Dispatch(query, query, f)
}

// Dispatch 规则表只匹配用户原话；模糊匹配与列推荐先用改写后的问题，再用原话
func (d *Dispatcher) Dispatch(query, question string, f *dataset.Frame) (*chart.Spec, error) {
	spec, err := d.MatchRule(query, f)
	if !errors.Is(err, ErrNoChart) {
		return spec, err
	}
	candidates := []string{question}
	if question != query {
		candidates = append(candidates, query)
	}
	for _, q := range candidates {
		if q == "" {
			continue
		}
		spec, err := d.Fallback(q, f)
		if !errors.Is(err, ErrNoChart) {
			return spec, err
		}
	}
	return nil, ErrNoChart
}

// MatchRule 按顺序匹配子串规则
func (d *Dispatcher) MatchRule(query string, f *dataset.Frame) (*chart.Spec, error) {
	if f == nil || f.Len() == 0 {
		return nil, ErrNoChart
	}
	q := strings.ToLower(query)
	for _, r := range d.rules {
		if !applicable(r, f) || !r.Match(q) {
			continue
		}
		zap.L().Debug("chart rule matched", zap.String("rule", r.Name))
		return r.Build(f)
	}
	return nil, ErrNoChart
}

// Fallback BM25 模糊匹配规则描述，仍未命中时按查询提到的列推荐
func (d *Dispatcher) Fallback(query string, f *dataset.Frame) (*chart.Spec, error) {
	if f == nil || f.Len() == 0 {
		return nil, ErrNoChart
	}
	q := strings.ToLower(query)

	for _, ranked := range d.bm.Rank(algorithm.Tokenize(q)) {
		if ranked.Score < d.minScore {
			break
		}
		r := d.rules[ranked.Index]
		if !applicable(r, f) {
			continue
		}
		zap.L().Debug("chart rule matched by similarity",
			zap.String("rule", r.Name), zap.Float64("score", ranked.Score))
		return r.Build(f)
	}

	if spec := Recommend(q, f); spec != nil {
		zap.L().Debug("chart recommended from columns", zap.String("kind", string(spec.Kind)))
		return spec, nil
	}
	return nil, ErrNoChart
}
