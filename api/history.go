package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"data-agent/tool/storage"
)

type HistoryResponse struct {
	SessionID string          `json:"session_id"`
	Mode      string          `json:"mode"`
	History   []storage.Entry `json:"history"`
}

func (s *Server) GetHistory(c *gin.Context) {
	sid := sessionID(c, "")
	entries, err := s.deps.History.List(c.Request.Context(), sid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []storage.Entry{}
	}
	c.JSON(http.StatusOK, HistoryResponse{SessionID: sid, Mode: s.deps.History.Mode(), History: entries})
}

func (s *Server) ClearHistory(c *gin.Context) {
	sid := sessionID(c, "")
	if err := s.deps.History.Clear(c.Request.Context(), sid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// 对话记忆一并清除，之后的追问不再参考旧上下文
	if err := s.deps.Memory.Delete(c.Request.Context(), sid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sid, "status": "cleared"})
}
