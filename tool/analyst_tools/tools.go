package analyst_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"data-agent/dataset"
)

const (
	defaultHeadRows = 5
	maxHeadRows     = 50
	defaultTopN     = 20
)

// ColumnInfo 列的基本信息
type ColumnInfo struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Nulls int    `json:"nulls"`
}

// DatasetInfo describe_dataset 的输出
type DatasetInfo struct {
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

type HeadInput struct {
	N int `json:"n"`
}

type HeadOutput struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type ColumnInput struct {
	Column string `json:"column"`
}

type GroupInput struct {
	By    string `json:"by"`
	Value string `json:"value"`
	Agg   string `json:"agg"`
}

type CountsInput struct {
	Column string `json:"column"`
	Top    int    `json:"top"`
}

type FilterInput struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

type FilterOutput struct {
	Column string `json:"column"`
	Value  string `json:"value"`
	Count  int    `json:"count"`
	Total  int    `json:"total"`
}

func stringParam(desc string, required bool) *schema.ParameterInfo {
	return &schema.ParameterInfo{Type: schema.String, Desc: desc, Required: required}
}

func intParam(desc string) *schema.ParameterInfo {
	return &schema.ParameterInfo{Type: schema.Integer, Desc: desc}
}

// toolError 工具出错时把错误作为结果交还给模型，由模型修正参数后重试
func toolError(_ context.Context, err error) string {
	return fmt.Sprintf(`{"error": %q}`, err.Error())
}

// NewDatasetTools 基于当前数据集构建供智能体调用的工具集
func NewDatasetTools(f *dataset.Frame) []tool.BaseTool {
	tools := datasetTools(f)
	for i, t := range tools {
		tools[i] = utils.WrapToolWithErrorHandler(t, toolError)
	}
	return tools
}

func datasetTools(f *dataset.Frame) []tool.BaseTool {
	return []tool.BaseTool{
		utils.NewTool(&schema.ToolInfo{
			Name: "describe_dataset",
			Desc: "List the dataset's row count and its columns with type and null count.",
		}, func(ctx context.Context, _ struct{}) (*DatasetInfo, error) {
			return Describe(f), nil
		}),

		utils.NewTool(&schema.ToolInfo{
			Name: "head_rows",
			Desc: "Return the first n rows of the dataset.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"n": intParam(fmt.Sprintf("number of rows, default %d, at most %d", defaultHeadRows, maxHeadRows)),
			}),
		}, func(ctx context.Context, in HeadInput) (*HeadOutput, error) {
			return Head(f, in.N), nil
		}),

		utils.NewTool(&schema.ToolInfo{
			Name: "column_stats",
			Desc: "Descriptive statistics (count, mean, std, min, quartiles, max) of a numeric column. Leave column empty to describe every numeric column.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"column": stringParam("numeric column name", false),
			}),
		}, func(ctx context.Context, in ColumnInput) ([]*dataset.ColumnStats, error) {
			if in.Column == "" {
				return f.Describe(), nil
			}
			s, err := f.Stats(in.Column)
			if err != nil {
				return nil, err
			}
			return []*dataset.ColumnStats{s}, nil
		}),

		utils.NewTool(&schema.ToolInfo{
			Name: "group_aggregate",
			Desc: "Group rows by one column and aggregate another column. agg is one of mean, sum, count, min, max.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"by":    stringParam("column to group by", true),
				"value": stringParam("column to aggregate", true),
				"agg": {
					Type: schema.String,
					Desc: "aggregation",
					Enum: []string{"mean", "sum", "count", "min", "max"},
				},
			}),
		}, func(ctx context.Context, in GroupInput) ([]dataset.Group, error) {
			agg := dataset.Aggregation(strings.ToLower(in.Agg))
			if agg == "" {
				agg = dataset.AggMean
			}
			return f.GroupBy(in.By, in.Value, agg)
		}),

		utils.NewTool(&schema.ToolInfo{
			Name: "value_counts",
			Desc: "Count occurrences of each distinct value in a column, most frequent first.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"column": stringParam("column name", true),
				"top":    intParam(fmt.Sprintf("keep only the top values, default %d", defaultTopN)),
			}),
		}, func(ctx context.Context, in CountsInput) ([]dataset.Count, error) {
			counts, err := f.ValueCounts(in.Column)
			if err != nil {
				return nil, err
			}
			top := in.Top
			if top <= 0 {
				top = defaultTopN
			}
			if top < len(counts) {
				counts = counts[:top]
			}
			return counts, nil
		}),

		utils.NewTool(&schema.ToolInfo{
			Name: "filter_count",
			Desc: "Count rows whose column equals the given value (case-insensitive).",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"column": stringParam("column name", true),
				"value":  stringParam("value to match", true),
			}),
		}, func(ctx context.Context, in FilterInput) (*FilterOutput, error) {
			sub, err := f.Filter(in.Column, in.Value)
			if err != nil {
				return nil, err
			}
			return &FilterOutput{Column: in.Column, Value: in.Value, Count: sub.Len(), Total: f.Len()}, nil
		}),
	}
}

// Describe 数据集结构
func Describe(f *dataset.Frame) *DatasetInfo {
	info := &DatasetInfo{Rows: f.Len()}
	for _, c := range f.Columns {
		info.Columns = append(info.Columns, ColumnInfo{Name: c.Name, Kind: c.Kind.String(), Nulls: c.NullCount()})
	}
	return info
}

// Head 前 n 行，n 超出范围时取默认值或上限
func Head(f *dataset.Frame, n int) *HeadOutput {
	if n <= 0 {
		n = defaultHeadRows
	}
	if n > maxHeadRows {
		n = maxHeadRows
	}
	return &HeadOutput{Columns: f.Names(), Rows: f.Head(n)}
}
