package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cloudwego/eino-ext/callbacks/langsmith"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"data-agent/flow"
	"data-agent/tool/storage"
	"data-agent/workspace"
)

type QueryRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
}

type QueryResponse struct {
	Query              string `json:"query"`
	Question           string `json:"question"`
	Response           string `json:"response"`
	AgentAnswer        string `json:"agent_answer"`
	NeedsVisualization bool   `json:"needs_visualization"`
	ChartURL           string `json:"chart_url,omitempty"`
	ChartTitle         string `json:"chart_title,omitempty"`
	ChartNote          string `json:"chart_note,omitempty"`
	Cached             bool   `json:"cached"`
	SessionID          string `json:"session_id"`
}

func chartURL(name string) string {
	return "/plots/" + name
}

// Query 运行会话的查询流程，并把结果追加到历史
func (s *Server) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No query provided"})
		return
	}
	sid := sessionID(c, req.SessionID)

	ws, err := s.deps.Workspaces.Get(c.Request.Context(), sid)
	if err != nil {
		if errors.Is(err, workspace.ErrNoDataset) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please upload a dataset first"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx := langsmith.SetTrace(c.Request.Context(),
		langsmith.WithSessionName("DataAgent-Query"),
		langsmith.AddTag("session:"+sid),
	)
	res, err := ws.Flow.Invoke(ctx, &flow.QueryRequest{SessionID: sid, Query: req.Query})
	if err != nil {
		zap.L().Error("query flow failed", zap.String("session", sid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer query: " + err.Error()})
		return
	}

	resp := QueryResponse{
		Query:              res.Query,
		Question:           res.Question,
		Response:           res.Response,
		AgentAnswer:        res.AgentAnswer,
		NeedsVisualization: res.NeedsVisualization,
		ChartNote:          res.ChartNote,
		Cached:             res.Cached,
		SessionID:          sid,
	}
	entry := storage.Entry{Query: res.Query, Response: res.Response}
	if res.Chart != nil {
		resp.ChartURL = chartURL(res.Chart.Name)
		resp.ChartTitle = res.Chart.Title
		entry.ChartPath = res.Chart.Path
		entry.ChartURL = resp.ChartURL
	}

	// 没有生成图表时也记录，文字回答同样进入报告
	if err := s.deps.History.Append(c.Request.Context(), sid, entry); err != nil {
		zap.L().Warn("append history", zap.String("session", sid), zap.Error(err))
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ServeChart(c *gin.Context) {
	if s.deps.Charts == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "chart storage is not configured"})
		return
	}
	path, err := s.deps.Charts.Open(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "chart not found"})
		return
	}
	c.File(path)
}
