package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"data-agent/report"
	"data-agent/tool/storage"
)

type ReportResponse struct {
	Name    string        `json:"name"`
	Format  report.Format `json:"format"`
	URL     string        `json:"url"`
	Entries int           `json:"entries"`
}

func reportEntries(history []storage.Entry) []report.Entry {
	entries := make([]report.Entry, 0, len(history))
	for _, h := range history {
		entries = append(entries, report.Entry{Query: h.Query, Response: h.Response, ImagePath: h.ChartPath})
	}
	return entries
}

// CreateReport 把会话历史导出为 PDF 或 XLSX
func (s *Server) CreateReport(c *gin.Context) {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.deps.Reports == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report storage is not configured"})
		return
	}

	sid := sessionID(c, "")
	history, err := s.deps.History.List(c.Request.Context(), sid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	file, err := s.deps.Reports.Generate(reportEntries(history), format)
	if err != nil {
		if errors.Is(err, report.ErrEmptyHistory) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, ReportResponse{
		Name:    file.Name,
		Format:  file.Format,
		URL:     "/api/report/" + file.Name,
		Entries: len(history),
	})
}

func (s *Server) DownloadReport(c *gin.Context) {
	if s.deps.Reports == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	name := c.Param("name")
	path, err := s.deps.Reports.Open(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.FileAttachment(path, name)
}
