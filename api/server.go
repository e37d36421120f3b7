package api

import (
	"context"
	"embed"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"data-agent/chart"
	"data-agent/flow"
	"data-agent/report"
	"data-agent/tool/memory"
	"data-agent/tool/storage"
	"data-agent/workspace"
)

//go:embed static/index.html
var staticFS embed.FS

const defaultSessionID = "default-session"

// Deps 服务依赖；Cache、Summarizer 可为空
type Deps struct {
	Model          model.ToolCallingChatModel
	Workspaces     *workspace.Registry
	History        *storage.HistoryStore
	Cache          flow.AnswerCache
	Memory         memory.Store
	Summarizer     *memory.Summarizer
	Charts         *chart.Store
	Reports        *report.Generator
	MaxIterations  int
	Timeout        time.Duration
	MaxUploadBytes int64
	UploadDir      string
}

type Server struct {
	deps Deps
	chat compose.Runnable[flow.ChatInput, *schema.Message]
}

func NewServer(ctx context.Context, deps Deps) (*Server, error) {
	if deps.Workspaces == nil {
		deps.Workspaces = workspace.NewRegistry()
	}
	if deps.History == nil {
		deps.History = storage.NewHistoryStore(nil)
	}
	if deps.Memory == nil {
		deps.Memory = memory.NewMemoryStore()
	}
	chat, err := flow.BuildChatFlow(ctx, deps.Memory, deps.Model)
	if err != nil {
		return nil, err
	}
	return &Server{deps: deps, chat: chat}, nil
}

// Router 注册全部路由
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", s.Index)
	r.GET("/plots/:name", s.ServeChart)

	g := r.Group("/api")
	{
		g.POST("/dataset", s.UploadDataset)
		g.GET("/dataset", s.GetDataset)
		g.POST("/query", s.Query)
		g.GET("/history", s.GetHistory)
		g.DELETE("/history", s.ClearHistory)
		g.POST("/report", s.CreateReport)
		g.GET("/report/:name", s.DownloadReport)
		g.POST("/chat", s.ChatGenerate)
		g.POST("/chat/stream", s.ChatStream)
	}
	return r
}

// Run 启动 HTTP 服务，阻塞直到出错
func Run(s *Server, addr string) error {
	zap.L().Info("server listening", zap.String("addr", addr))
	return s.Router().Run(addr)
}

func (s *Server) Index(c *gin.Context) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zap.L().Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// sessionID 依次取请求头、查询参数、请求体中的会话 ID
func sessionID(c *gin.Context, fromBody string) string {
	if id := c.GetHeader("X-Session-ID"); id != "" {
		return id
	}
	if id := c.Query("session_id"); id != "" {
		return id
	}
	if fromBody != "" {
		return fromBody
	}
	return defaultSessionID
}
