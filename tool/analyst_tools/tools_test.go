package analyst_tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"data-agent/dataset"
)

const sampleCSV = `Application_Type,Latency,Signal_Strength
Streaming,25,-85
Online Gaming,40,-70
Online Gaming,50,-72
Voice_Call,20,-80
`

func sampleFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	f, err := dataset.LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return f
}

func toolsByName(t *testing.T, f *dataset.Frame) map[string]tool.InvokableTool {
	t.Helper()
	out := make(map[string]tool.InvokableTool)
	for _, bt := range NewDatasetTools(f) {
		info, err := bt.Info(context.Background())
		require.NoError(t, err)
		it, ok := bt.(tool.InvokableTool)
		require.True(t, ok)
		out[info.Name] = it
	}
	return out
}

func run(t *testing.T, it tool.InvokableTool, args string, out any) {
	t.Helper()
	res, err := it.InvokableRun(context.Background(), args)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(res), out))
}

func TestDatasetToolNames(t *testing.T) {
	tools := toolsByName(t, sampleFrame(t))
	for _, name := range []string{"describe_dataset", "head_rows", "column_stats", "group_aggregate", "value_counts", "filter_count"} {
		assert.Contains(t, tools, name)
	}
}

func TestDatasetTools(t *testing.T) {
	tools := toolsByName(t, sampleFrame(t))

	var info DatasetInfo
	run(t, tools["describe_dataset"], `{}`, &info)
	assert.Equal(t, 4, info.Rows)
	assert.Equal(t, ColumnInfo{Name: "Latency", Kind: "number"}, info.Columns[1])

	var head HeadOutput
	run(t, tools["head_rows"], `{"n": 2}`, &head)
	assert.Len(t, head.Rows, 2)
	assert.Equal(t, "Streaming", head.Rows[0][0])

	var groups []dataset.Group
	run(t, tools["group_aggregate"], `{"by":"Application_Type","value":"Latency","agg":"max"}`, &groups)
	require.Len(t, groups, 3)
	assert.Equal(t, dataset.Group{Key: "Online Gaming", Value: 50, Count: 2}, groups[0])

	var counts []dataset.Count
	run(t, tools["value_counts"], `{"column":"Application_Type","top":1}`, &counts)
	assert.Equal(t, []dataset.Count{{Value: "Online Gaming", Count: 2}}, counts)

	var filtered FilterOutput
	run(t, tools["filter_count"], `{"column":"Application_Type","value":"online gaming"}`, &filtered)
	assert.Equal(t, 2, filtered.Count)
	assert.Equal(t, 4, filtered.Total)

	var stats []*dataset.ColumnStats
	run(t, tools["column_stats"], `{"column":"Latency"}`, &stats)
	require.Len(t, stats, 1)
	assert.InDelta(t, 33.75, stats[0].Mean, 1e-9)
}

func TestDatasetToolErrors(t *testing.T) {
	tools := toolsByName(t, sampleFrame(t))
	var out struct {
		Error string `json:"error"`
	}
	run(t, tools["column_stats"], `{"column":"missing"}`, &out)
	assert.Contains(t, out.Error, "column not found")

	run(t, tools["group_aggregate"], `{"by":"Application_Type","value":"Latency","agg":"median"}`, &out)
	assert.Contains(t, out.Error, "unknown aggregation")
}

func TestHeadBounds(t *testing.T) {
	f := sampleFrame(t)
	assert.Len(t, Head(f, 0).Rows, 4)
	assert.Len(t, Head(f, 1000).Rows, 4)
}

type echoModel struct {
	got []*schema.Message
}

func (m *echoModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.got = input
	return schema.AssistantMessage("explained", nil), nil
}

func (m *echoModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage("explained", nil)}), nil
}

func TestDetailedResponse(t *testing.T) {
	cm := &echoModel{}
	long := strings.Repeat("é", 1500)

	out, err := GenerateDetailedResponse(context.Background(), cm, long, true)
	require.NoError(t, err)
	assert.Equal(t, "explained", out)

	prompt := cm.got[0].Content
	assert.Contains(t, prompt, "include necessary visualizations")
	assert.Contains(t, prompt, strings.Repeat("é", 1000)+".")
	assert.NotContains(t, prompt, strings.Repeat("é", 1001))

	assert.Contains(t, DetailedResponsePrompt("short", false), "without including visualizations")
	assert.Contains(t, DetailedResponsePrompt("short", false), "350 words")
}

func TestAgentSystemPrompt(t *testing.T) {
	p := AgentSystemPrompt(sampleFrame(t))
	assert.Contains(t, p, "- Latency (number, nulls=0)")
}
