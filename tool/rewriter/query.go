package rewriter

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"data-agent/tool/memory"
)

type QueryRewriter struct {
	Model model.BaseChatModel
}

const RewritePrompt = `Using the background summary and the recent conversation below, rewrite the user's last question into a standalone question about the dataset.
Keep column names, values and any request for a chart, plot or visualization exactly as the user wrote them.
If the question is already standalone, return it unchanged.
Background summary: %s
Recent conversation: %s
User question: %s
Standalone question (output the question only): `

// Rephrase 结合对话记忆把追问改写成独立问题；没有记忆时原样返回
func (qr *QueryRewriter) Rephrase(ctx context.Context, summary string, history []*schema.Message, query string) (string, error) {
	if summary == "" && len(history) == 0 {
		return query, nil
	}

	finalPrompt := fmt.Sprintf(RewritePrompt, summary, memory.FormatHistory(history), query)

	resp, err := qr.Model.Generate(ctx, []*schema.Message{
		schema.UserMessage(finalPrompt),
	})
	if err != nil {
		return "", err
	}

	rewritten := strings.TrimSpace(resp.Content)
	if rewritten == "" {
		return query, nil
	}
	return rewritten, nil
}
