package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino-ext/callbacks/langsmith"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"data-agent/flow"
)

// ChatRequest 闲聊请求，带上会话中已上传数据集的概要
type ChatRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatResponse struct {
	Query     string `json:"query"`
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

func (s *Server) chatInput(ctx context.Context, sid, query string) flow.ChatInput {
	in := flow.ChatInput{SessionID: sid, Query: query}
	if ws, err := s.deps.Workspaces.Get(ctx, sid); err == nil {
		in.DatasetSummary = ws.Frame.SchemaSummary()
	}
	return in
}

func chatContext(c *gin.Context, sid string) context.Context {
	return langsmith.SetTrace(c.Request.Context(),
		langsmith.WithSessionName("DataAgent-Chat"),
		langsmith.AddTag("session:"+sid),
	)
}

// ChatGenerate 聊天模型的常规输出
func (s *Server) ChatGenerate(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if req.Query = strings.TrimSpace(req.Query); req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No query provided"})
		return
	}
	sid := sessionID(c, req.SessionID)
	ctx := chatContext(c, sid)

	msg, err := s.chat.Invoke(ctx, s.chatInput(ctx, sid, req.Query))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate answer: " + err.Error()})
		return
	}
	if err := flow.Remember(ctx, s.deps.Memory, s.deps.Summarizer, sid, req.Query, msg.Content); err != nil {
		zap.L().Warn("save conversation memory", zap.Error(err))
	}

	c.JSON(http.StatusOK, ChatResponse{Query: req.Query, Answer: msg.Content, SessionID: sid})
}

// ChatStream 以 SSE 推送聊天模型的增量输出
func (s *Server) ChatStream(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if req.Query = strings.TrimSpace(req.Query); req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No query provided"})
		return
	}
	sid := sessionID(c, req.SessionID)
	ctx := chatContext(c, sid)

	stream, err := s.chat.Stream(ctx, s.chatInput(ctx, sid, req.Query))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer stream.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	c.SSEvent("message", gin.H{"type": "start", "content": ""})
	c.Writer.Flush()

	var answer strings.Builder
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			c.SSEvent("error", gin.H{"error": err.Error()})
			c.Writer.Flush()
			return
		}
		if msg != nil && msg.Content != "" {
			answer.WriteString(msg.Content)
			c.SSEvent("message", gin.H{"type": "data", "content": msg.Content})
			c.Writer.Flush()
		}
	}

	// 流结束后完整回答才写入记忆
	if err := flow.Remember(ctx, s.deps.Memory, s.deps.Summarizer, sid, req.Query, answer.String()); err != nil {
		zap.L().Warn("save conversation memory", zap.Error(err))
	}
	c.SSEvent("message", gin.H{"type": "end", "content": ""})
	c.Writer.Flush()
}
