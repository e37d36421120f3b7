package analyst_tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"data-agent/dataset"
)

// 传给解释模型的智能体回答最多保留的字符数
const maxAgentAnswerRunes = 1000

const agentSystemPrompt = `You are a data analyst working with a tabular dataset loaded in memory.
Answer the user's question by calling the dataset tools; never guess numbers you have not computed.
Prefer one aggregate call over scanning rows. When the question cannot be answered from the data, say so.

Dataset schema:
%s`

const vizResponsePrompt = `Analyze the data based on the following query: %s.
Provide a clear and relevant explanation related to the dataset, and include necessary visualizations to support your findings.
Make sure to include descriptions of the visualizations and explain how they address the query.
Limit your explanation to 350 words for clarity and focus.`

const textResponsePrompt = `Analyze the data based on the following query: %s.
Provide a clear and relevant explanation based on the dataset without including visualizations.
Focus on delivering insights and answering the query directly, while keeping your response to 350 words to maintain brevity.`

// AgentSystemPrompt 智能体系统提示词，附带数据集结构
func AgentSystemPrompt(f *dataset.Frame) string {
	return fmt.Sprintf(agentSystemPrompt, f.SchemaSummary())
}

// Truncate 按字符截断
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// DetailedResponsePrompt 根据是否需要出图选择解释提示词
func DetailedResponsePrompt(agentAnswer string, needsVisualization bool) string {
	answer := Truncate(agentAnswer, maxAgentAnswerRunes)
	if needsVisualization {
		return fmt.Sprintf(vizResponsePrompt, answer)
	}
	return fmt.Sprintf(textResponsePrompt, answer)
}

// GenerateDetailedResponse 让模型把智能体的简短回答展开成面向用户的解释
func GenerateDetailedResponse(ctx context.Context, cm model.BaseChatModel, agentAnswer string, needsVisualization bool) (string, error) {
	messages := []*schema.Message{
		schema.UserMessage(DetailedResponsePrompt(agentAnswer, needsVisualization)),
	}

	response, err := cm.Generate(ctx, messages)
	if err != nil {
		return "", err
	}

	return response.Content, nil
}
