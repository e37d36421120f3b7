package flow

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"data-agent/chart"
	"data-agent/dataset"
	"data-agent/tool/analyst_tools"
	"data-agent/tool/memory"
	"data-agent/visual"
)

// scriptedModel 按提示词内容返回固定回复的假模型
type scriptedModel struct {
	mu         sync.Mutex
	agentCalls int
	loopTools  bool
	rewrites   map[string]string
	tools      []*schema.ToolInfo
	inputs     [][]*schema.Message
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.tools = tools
	return m, nil
}

func toolCall(name, args string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       "call_" + name,
		Type:     "function",
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}})
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, input)

	first := input[0]
	last := input[len(input)-1]
	switch {
	case first.Role == schema.System && strings.Contains(first.Content, "Dataset schema"):
		m.agentCalls++
		if m.loopTools || last.Role != schema.Tool {
			return toolCall("group_aggregate", `{"by":"Application_Type","value":"Latency","agg":"mean"}`), nil
		}
		return schema.AssistantMessage("Online Gaming has the highest average latency.", nil), nil
	case strings.HasPrefix(last.Content, "Analyze the data"):
		return schema.AssistantMessage("detailed explanation", nil), nil
	case strings.Contains(last.Content, "Standalone question"):
		// 默认原样返回用户问题
		q := last.Content[strings.Index(last.Content, "User question: ")+len("User question: "):]
		q = q[:strings.Index(q, "\n")]
		if rewritten, ok := m.rewrites[q]; ok {
			return schema.AssistantMessage(rewritten, nil), nil
		}
		return schema.AssistantMessage(q, nil), nil
	default:
		return schema.AssistantMessage("hello", nil), nil
	}
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

const networkCSV = `Application_Type,Signal_Strength,Latency
Streaming,-85,25
Online Gaming,-70,40
Online Gaming,-72,50
Voice_Call,-80,20
`

func networkFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	f, err := dataset.LoadCSV(strings.NewReader(networkCSV))
	require.NoError(t, err)
	return f
}

func TestAnalystAgent(t *testing.T) {
	ctx := context.Background()
	cm := &scriptedModel{}
	f := networkFrame(t)

	agent, err := BuildAnalystAgent(ctx, AgentConfig{
		Model:         cm,
		Tools:         analyst_tools.NewDatasetTools(f),
		SystemPrompt:  analyst_tools.AgentSystemPrompt(f),
		MaxIterations: 5,
	})
	require.NoError(t, err)
	assert.Len(t, cm.tools, 6)

	answer, err := agent.Answer(ctx, "Which application has the highest latency?")
	require.NoError(t, err)
	assert.Equal(t, "Online Gaming has the highest average latency.", answer)
	assert.Equal(t, 2, cm.agentCalls)

	// 第二次调用模型时应带上工具结果
	second := cm.inputs[1]
	require.Len(t, second, 4)
	assert.Equal(t, schema.Tool, second[3].Role)
	assert.Contains(t, second[3].Content, `"key":"Online Gaming"`)
}

func TestAnalystAgentIterationLimit(t *testing.T) {
	ctx := context.Background()
	cm := &scriptedModel{loopTools: true}
	f := networkFrame(t)

	agent, err := BuildAnalystAgent(ctx, AgentConfig{
		Model:         cm,
		Tools:         analyst_tools.NewDatasetTools(f),
		SystemPrompt:  analyst_tools.AgentSystemPrompt(f),
		MaxIterations: 3,
	})
	require.NoError(t, err)

	answer, err := agent.Answer(ctx, "loop forever")
	require.NoError(t, err)
	assert.Equal(t, IterationLimitAnswer, answer)
	assert.Equal(t, 3, cm.agentCalls)
}

func TestAnalystAgentWithoutTools(t *testing.T) {
	ctx := context.Background()
	agent, err := BuildAnalystAgent(ctx, AgentConfig{Model: &scriptedModel{}, MaxIterations: 2})
	require.NoError(t, err)

	answer, err := agent.Answer(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", answer)

	_, err = BuildAnalystAgent(ctx, AgentConfig{})
	assert.Error(t, err)
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *mapCache) Get(ctx context.Context, fingerprint, query string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[fingerprint+"|"+query]
	return v, ok
}

func (c *mapCache) Set(ctx context.Context, fingerprint, query, answer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[fingerprint+"|"+query] = answer
	return nil
}

func TestQueryFlow(t *testing.T) {
	ctx := context.Background()
	cm := &scriptedModel{}
	store, err := chart.NewStore(t.TempDir())
	require.NoError(t, err)
	mem := memory.NewMemoryStore()
	cache := &mapCache{data: map[string]string{}}

	runner, err := BuildQueryFlow(ctx, QueryDeps{
		Model:         cm,
		Frame:         networkFrame(t),
		Charts:        store,
		Cache:         cache,
		Memory:        mem,
		MaxIterations: 5,
	})
	require.NoError(t, err)

	query := "Plot the average latency for each application type"
	res, err := runner.Invoke(ctx, &QueryRequest{SessionID: "s1", Query: query})
	require.NoError(t, err)

	assert.Equal(t, query, res.Query)
	assert.Equal(t, query, res.Question)
	assert.True(t, res.NeedsVisualization)
	assert.False(t, res.Cached)
	assert.Equal(t, "Online Gaming has the highest average latency.", res.AgentAnswer)
	assert.Equal(t, "detailed explanation", res.Response)
	require.NotNil(t, res.Chart)
	assert.Equal(t, "Average Latency by Application Type", res.Chart.Title)
	_, err = os.Stat(res.Chart.Path)
	require.NoError(t, err)

	sess, err := mem.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sess.History, 2)
	assert.Equal(t, "detailed explanation", sess.History[1].Content)

	// 同一问题第二次命中缓存，不再运行智能体
	calls := cm.agentCalls
	res, err = runner.Invoke(ctx, &QueryRequest{SessionID: "s1", Query: query})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, calls, cm.agentCalls)
}

func TestQueryFlowWithoutChart(t *testing.T) {
	ctx := context.Background()
	store, err := chart.NewStore(t.TempDir())
	require.NoError(t, err)

	runner, err := BuildQueryFlow(ctx, QueryDeps{
		Model:         &scriptedModel{},
		Frame:         networkFrame(t),
		Charts:        store,
		MaxIterations: 5,
	})
	require.NoError(t, err)

	res, err := runner.Invoke(ctx, &QueryRequest{Query: "plot something unrelated"})
	require.NoError(t, err)
	assert.True(t, res.NeedsVisualization)
	assert.Nil(t, res.Chart)
	assert.Equal(t, visual.ErrNoChart.Error(), res.ChartNote)
	assert.Equal(t, "detailed explanation", res.Response)

	res, err = runner.Invoke(ctx, &QueryRequest{Query: "What is the mean latency?"})
	require.NoError(t, err)
	assert.False(t, res.NeedsVisualization)
	assert.Empty(t, res.ChartNote)

	_, err = runner.Invoke(ctx, &QueryRequest{Query: ""})
	assert.Error(t, err)
}

func TestQueryFlowDispatchesOnUserWording(t *testing.T) {
	ctx := context.Background()
	cm := &scriptedModel{rewrites: map[string]string{
		"show a histogram":   "Plot the average latency for each application type",
		"what about gaming?": "Plot the latency of Online Gaming",
		"plot that again":    "chart the spread of latency across apps",
	}}
	store, err := chart.NewStore(t.TempDir())
	require.NoError(t, err)
	mem := memory.NewMemoryStore()
	require.NoError(t, Remember(ctx, mem, nil, "s1", "earlier question", "earlier answer"))

	runner, err := BuildQueryFlow(ctx, QueryDeps{
		Model:         cm,
		Frame:         networkFrame(t),
		Charts:        store,
		Memory:        mem,
		MaxIterations: 5,
	})
	require.NoError(t, err)

	// 规则表匹配用户原话，而不是改写后的问题
	res, err := runner.Invoke(ctx, &QueryRequest{SessionID: "s1", Query: "show a histogram"})
	require.NoError(t, err)
	assert.Equal(t, "Plot the average latency for each application type", res.Question)
	require.NotNil(t, res.Chart)
	assert.Equal(t, "Histogram of Signal Strength Distribution", res.Chart.Title)

	// 是否出图只看用户原话
	res, err = runner.Invoke(ctx, &QueryRequest{SessionID: "s1", Query: "what about gaming?"})
	require.NoError(t, err)
	assert.False(t, res.NeedsVisualization)
	assert.Nil(t, res.Chart)

	// 原话没有命中规则时，模糊匹配使用改写后的问题
	res, err = runner.Invoke(ctx, &QueryRequest{SessionID: "s1", Query: "plot that again"})
	require.NoError(t, err)
	require.NotNil(t, res.Chart)
	assert.Equal(t, "Latency Distribution by Application Type", res.Chart.Title)
}

func TestChatFlow(t *testing.T) {
	ctx := context.Background()
	cm := &scriptedModel{}
	mem := memory.NewMemoryStore()

	runner, err := BuildChatFlow(ctx, mem, cm)
	require.NoError(t, err)

	require.NoError(t, Remember(ctx, mem, nil, "s1", "earlier question", "earlier answer"))

	out, err := runner.Invoke(ctx, ChatInput{SessionID: "s1", Query: "hi", DatasetSummary: "rows: 4"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Content)

	input := cm.inputs[len(cm.inputs)-1]
	require.Len(t, input, 4)
	assert.Contains(t, input[0].Content, "rows: 4")
	assert.Equal(t, "earlier answer", input[2].Content)
	assert.Equal(t, "hi", input[3].Content)
}
