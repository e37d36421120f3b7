package api

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"data-agent/dataset"
	"data-agent/flow"
	"data-agent/tool/analyst_tools"
	"data-agent/workspace"
)

const previewRows = 5

type DatasetResponse struct {
	FileName      string                     `json:"file_name"`
	Rows          int                        `json:"rows"`
	Columns       []analyst_tools.ColumnInfo `json:"columns"`
	PreviewBefore *analyst_tools.HeadOutput  `json:"preview_before"`
	PreviewAfter  *analyst_tools.HeadOutput  `json:"preview_after"`
	Report        *dataset.PreprocessReport  `json:"report"`
}

func newDatasetResponse(ws *workspace.Workspace) DatasetResponse {
	return DatasetResponse{
		FileName:      ws.FileName,
		Rows:          ws.Frame.Len(),
		Columns:       analyst_tools.Describe(ws.Frame).Columns,
		PreviewBefore: analyst_tools.Head(ws.Raw, previewRows),
		PreviewAfter:  analyst_tools.Head(ws.Frame, previewRows),
		Report:        ws.Report,
	}
}

// UploadDataset 解析上传文件，预处理后为会话编译查询流程
func (s *Server) UploadDataset(c *gin.Context) {
	if s.deps.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.deps.MaxUploadBytes)
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file part: " + err.Error()})
		return
	}
	if header.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
		return
	}
	sid := sessionID(c, c.PostForm("session_id"))

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	raw, err := dataset.Load(header.Filename, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to load dataset: " + err.Error()})
		return
	}
	frame, rep := dataset.Preprocess(raw)

	runner, err := flow.BuildQueryFlow(c.Request.Context(), flow.QueryDeps{
		Model:         s.deps.Model,
		Frame:         frame,
		Charts:        s.deps.Charts,
		Cache:         s.deps.Cache,
		Memory:        s.deps.Memory,
		Summarizer:    s.deps.Summarizer,
		MaxIterations: s.deps.MaxIterations,
		Timeout:       s.deps.Timeout,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build query flow: " + err.Error()})
		return
	}

	if s.deps.UploadDir != "" {
		dst := filepath.Join(s.deps.UploadDir, filepath.Base(header.Filename))
		if err := c.SaveUploadedFile(header, dst); err != nil {
			zap.L().Warn("save uploaded file", zap.String("dst", dst), zap.Error(err))
		}
	}

	ws := &workspace.Workspace{
		FileName: header.Filename,
		Raw:      raw,
		Frame:    frame,
		Report:   rep,
		Flow:     runner,
	}
	s.deps.Workspaces.Set(c.Request.Context(), sid, ws)
	zap.L().Info("dataset loaded",
		zap.String("session", sid),
		zap.String("file", header.Filename),
		zap.Int("rows", frame.Len()),
		zap.Int("warnings", len(rep.Warnings)),
	)

	c.JSON(http.StatusOK, newDatasetResponse(ws))
}

func (s *Server) GetDataset(c *gin.Context) {
	ws, err := s.deps.Workspaces.Get(c.Request.Context(), sessionID(c, ""))
	if err != nil {
		if errors.Is(err, workspace.ErrNoDataset) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newDatasetResponse(ws))
}
