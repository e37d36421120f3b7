package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

const (
	PrepareMessagesNode = "PrepareMessages"
	AgentNode           = "Agent"
	ToolsNode           = "Tools"
	FinishNode          = "Finish"
)

// IterationLimitAnswer 智能体超出迭代次数或超时时的固定回答
const IterationLimitAnswer = "Agent stopped due to iteration limit or time limit."

// AgentState ReAct 循环的状态
type AgentState struct {
	Messages   []*schema.Message
	Iterations int
	Exhausted  bool
}

type AgentConfig struct {
	Model         model.ToolCallingChatModel
	Tools         []tool.BaseTool
	SystemPrompt  string
	MaxIterations int
	Timeout       time.Duration
}

// Agent 工具调用型数据分析智能体
type Agent struct {
	runnable compose.Runnable[string, string]
	timeout  time.Duration
}

// BuildAnalystAgent 构建 ReAct 图：模型节点与工具节点交替，直到模型不再调用工具或达到迭代上限
func BuildAnalystAgent(ctx context.Context, cfg AgentConfig) (*Agent, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("agent model is nil")
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 1
	}

	infos := make([]*schema.ToolInfo, 0, len(cfg.Tools))
	for _, t := range cfg.Tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	cm := cfg.Model
	if len(infos) > 0 {
		var err error
		if cm, err = cm.WithTools(infos); err != nil {
			return nil, err
		}
	}

	g := compose.NewGraph[string, string](
		compose.WithGenLocalState(func(ctx context.Context) *AgentState {
			return &AgentState{}
		}),
	)

	_ = g.AddLambdaNode(PrepareMessagesNode, compose.InvokableLambda(func(ctx context.Context, question string) ([]*schema.Message, error) {
		msgs := []*schema.Message{schema.UserMessage(question)}
		if cfg.SystemPrompt != "" {
			msgs = append([]*schema.Message{schema.SystemMessage(cfg.SystemPrompt)}, msgs...)
		}
		err := compose.ProcessState[*AgentState](ctx, func(ctx context.Context, state *AgentState) error {
			state.Messages = msgs
			return nil
		})
		return msgs, err
	}))

	_ = g.AddChatModelNode(AgentNode, cm,
		compose.WithStatePreHandler(func(ctx context.Context, in []*schema.Message, state *AgentState) ([]*schema.Message, error) {
			return state.Messages, nil
		}),
		compose.WithStatePostHandler(func(ctx context.Context, out *schema.Message, state *AgentState) (*schema.Message, error) {
			state.Messages = append(state.Messages, out)
			state.Iterations++
			return out, nil
		}),
	)

	if len(cfg.Tools) > 0 {
		toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{Tools: cfg.Tools})
		if err != nil {
			return nil, err
		}
		_ = g.AddToolsNode(ToolsNode, toolsNode,
			compose.WithStatePostHandler(func(ctx context.Context, out []*schema.Message, state *AgentState) ([]*schema.Message, error) {
				state.Messages = append(state.Messages, out...)
				return out, nil
			}),
		)
	}

	_ = g.AddLambdaNode(FinishNode, compose.InvokableLambda(func(ctx context.Context, out *schema.Message) (string, error) {
		var exhausted bool
		_ = compose.ProcessState[*AgentState](ctx, func(ctx context.Context, state *AgentState) error {
			exhausted = state.Exhausted
			return nil
		})
		if exhausted {
			return IterationLimitAnswer, nil
		}
		return out.Content, nil
	}))

	_ = g.AddEdge(compose.START, PrepareMessagesNode)
	_ = g.AddEdge(PrepareMessagesNode, AgentNode)

	if len(cfg.Tools) > 0 {
		// 模型调用工具且未超限时进入工具节点
		_ = g.AddBranch(AgentNode, compose.NewGraphBranch(func(ctx context.Context, out *schema.Message) (string, error) {
			if len(out.ToolCalls) == 0 {
				return FinishNode, nil
			}
			next := ToolsNode
			_ = compose.ProcessState[*AgentState](ctx, func(ctx context.Context, state *AgentState) error {
				if state.Iterations >= maxIterations {
					state.Exhausted = true
					next = FinishNode
				}
				return nil
			})
			return next, nil
		}, map[string]bool{ToolsNode: true, FinishNode: true}))
		_ = g.AddEdge(ToolsNode, AgentNode)
	} else {
		_ = g.AddEdge(AgentNode, FinishNode)
	}
	_ = g.AddEdge(FinishNode, compose.END)

	runnable, err := g.Compile(ctx,
		compose.WithGraphName("AnalystAgent"),
		compose.WithMaxRunSteps(2*maxIterations+10),
	)
	if err != nil {
		return nil, err
	}
	return &Agent{runnable: runnable, timeout: cfg.Timeout}, nil
}

// Answer 运行智能体；超时或超出运行步数时返回 IterationLimitAnswer
func (a *Agent) Answer(ctx context.Context, question string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	out, err := a.runnable.Invoke(ctx, question)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, compose.ErrExceedMaxSteps) {
			zap.L().Warn("agent stopped early", zap.Error(err))
			return IterationLimitAnswer, nil
		}
		return "", err
	}
	return out, nil
}
