package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"go.uber.org/zap"

	"data-agent/chart"
	"data-agent/dataset"
	"data-agent/tool/analyst_tools"
	"data-agent/tool/memory"
	"data-agent/tool/rewriter"
	"data-agent/visual"
)

const (
	PrepareNode   = "Prepare"
	AnalyzeNode   = "Analyze"
	ExplainNode   = "Explain"
	VisualizeNode = "Visualize"
	RememberNode  = "Remember"
)

// 后台压缩对话记忆的超时
const compressTimeout = time.Minute

type QueryRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type QueryResult struct {
	Query              string          `json:"query"`
	Question           string          `json:"question"`
	AgentAnswer        string          `json:"agent_answer"`
	Response           string          `json:"response"`
	NeedsVisualization bool            `json:"needs_visualization"`
	Chart              *chart.Artifact `json:"chart,omitempty"`
	ChartNote          string          `json:"chart_note,omitempty"`
	Cached             bool            `json:"cached"`
}

// AnswerCache 智能体回答缓存
type AnswerCache interface {
	Get(ctx context.Context, fingerprint, query string) (string, bool)
	Set(ctx context.Context, fingerprint, query, answer string) error
}

// QueryDeps 查询流程依赖；Cache、Memory、Summarizer 可为空
type QueryDeps struct {
	Model         model.ToolCallingChatModel
	Frame         *dataset.Frame
	Dispatcher    *visual.Dispatcher
	Charts        *chart.Store
	Cache         AnswerCache
	Memory        memory.Store
	Summarizer    *memory.Summarizer
	MaxIterations int
	Timeout       time.Duration
}

// QueryState 查询流程状态
type QueryState struct {
	SessionID string
	Result    *QueryResult
}

// BuildQueryFlow 构建查询流程：改写追问 → 智能体分析 → 生成解释 → 出图 → 写入记忆
func BuildQueryFlow(ctx context.Context, deps QueryDeps) (compose.Runnable[*QueryRequest, *QueryResult], error) {
	if deps.Frame == nil {
		return nil, dataset.ErrEmpty
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = visual.Default()
	}

	agent, err := BuildAnalystAgent(ctx, AgentConfig{
		Model:         deps.Model,
		Tools:         analyst_tools.NewDatasetTools(deps.Frame),
		SystemPrompt:  analyst_tools.AgentSystemPrompt(deps.Frame),
		MaxIterations: deps.MaxIterations,
		Timeout:       deps.Timeout,
	})
	if err != nil {
		return nil, err
	}
	qr := &rewriter.QueryRewriter{Model: deps.Model}
	fingerprint := deps.Frame.Fingerprint()

	g := compose.NewGraph[*QueryRequest, *QueryResult](
		compose.WithGenLocalState(func(ctx context.Context) *QueryState {
			return &QueryState{Result: &QueryResult{}}
		}),
	)

	// 结合对话记忆改写追问
	_ = g.AddLambdaNode(PrepareNode, compose.InvokableLambda(func(ctx context.Context, req *QueryRequest) (string, error) {
		if req == nil || req.Query == "" {
			return "", fmt.Errorf("query is empty")
		}
		question := req.Query
		if deps.Memory != nil {
			sess, err := deps.Memory.Get(ctx, req.SessionID)
			if err != nil {
				zap.L().Warn("load conversation memory", zap.Error(err))
			} else if !sess.Empty() {
				if rewritten, err := qr.Rephrase(ctx, sess.Summary, sess.History, req.Query); err != nil {
					zap.L().Warn("rewrite query", zap.Error(err))
				} else {
					question = rewritten
				}
			}
		}

		err := compose.ProcessState[*QueryState](ctx, func(ctx context.Context, state *QueryState) error {
			state.SessionID = req.SessionID
			state.Result.Query = req.Query
			state.Result.Question = question
			state.Result.NeedsVisualization = visual.NeedsVisualization(req.Query)
			return nil
		})
		return question, err
	}))

	// 命中缓存直接返回，否则运行智能体
	_ = g.AddLambdaNode(AnalyzeNode, compose.InvokableLambda(func(ctx context.Context, question string) (string, error) {
		var cached bool
		answer, ok := "", false
		if deps.Cache != nil {
			answer, ok = deps.Cache.Get(ctx, fingerprint, question)
		}
		if ok {
			cached = true
		} else {
			var err error
			if answer, err = agent.Answer(ctx, question); err != nil {
				return "", err
			}
			if deps.Cache != nil && answer != IterationLimitAnswer {
				if err := deps.Cache.Set(ctx, fingerprint, question, answer); err != nil {
					zap.L().Warn("cache agent answer", zap.Error(err))
				}
			}
		}

		err := compose.ProcessState[*QueryState](ctx, func(ctx context.Context, state *QueryState) error {
			state.Result.AgentAnswer = answer
			state.Result.Cached = cached
			return nil
		})
		return answer, err
	}))

	_ = g.AddLambdaNode(ExplainNode, compose.InvokableLambda(func(ctx context.Context, answer string) (string, error) {
		var needsViz bool
		_ = compose.ProcessState[*QueryState](ctx, func(ctx context.Context, state *QueryState) error {
			needsViz = state.Result.NeedsVisualization
			return nil
		})

		response, err := analyst_tools.GenerateDetailedResponse(ctx, deps.Model, answer, needsViz)
		if err != nil {
			return "", err
		}

		err = compose.ProcessState[*QueryState](ctx, func(ctx context.Context, state *QueryState) error {
			state.Result.Response = response
			return nil
		})
		return response, err
	}))

	// 出图失败不影响文字回答，原因记录在 ChartNote
	_ = g.AddLambdaNode(VisualizeNode, compose.InvokableLambda(func(ctx context.Context, _ string) (*QueryResult, error) {
		var result *QueryResult
		_ = compose.ProcessState[*QueryState](ctx, func(ctx context.Context, state *QueryState) error {
			result = state.Result
			return nil
		})
		if !result.NeedsVisualization {
			return result, nil
		}

		spec, err := deps.Dispatcher.Dispatch(result.Query, result.Question, deps.Frame)
		if err != nil {
			result.ChartNote = chartNote(err)
			return result, nil
		}
		if deps.Charts == nil {
			result.ChartNote = "Chart storage is not configured."
			return result, nil
		}
		art, err := deps.Charts.RenderAndSave(spec)
		if err != nil {
			result.ChartNote = chartNote(err)
			return result, nil
		}
		result.Chart = art
		return result, nil
	}))

	// 写入对话记忆并在后台压缩
	_ = g.AddLambdaNode(RememberNode, compose.InvokableLambda(func(ctx context.Context, result *QueryResult) (*QueryResult, error) {
		if deps.Memory == nil {
			return result, nil
		}
		var sessionID string
		_ = compose.ProcessState[*QueryState](ctx, func(ctx context.Context, state *QueryState) error {
			sessionID = state.SessionID
			return nil
		})

		if err := Remember(ctx, deps.Memory, deps.Summarizer, sessionID, result.Question, result.Response); err != nil {
			zap.L().Warn("save conversation memory", zap.Error(err))
		}
		return result, nil
	}))

	_ = g.AddEdge(compose.START, PrepareNode)
	_ = g.AddEdge(PrepareNode, AnalyzeNode)
	_ = g.AddEdge(AnalyzeNode, ExplainNode)
	_ = g.AddEdge(ExplainNode, VisualizeNode)
	_ = g.AddEdge(VisualizeNode, RememberNode)
	_ = g.AddEdge(RememberNode, compose.END)

	return g.Compile(ctx, compose.WithGraphName("QueryFlow"))
}

func chartNote(err error) string {
	if errors.Is(err, visual.ErrNoChart) {
		return visual.ErrNoChart.Error()
	}
	zap.L().Warn("generate chart", zap.Error(err))
	return fmt.Sprintf("Failed to generate chart: %v", err)
}
