package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"

	"data-agent/dataset"
	"data-agent/flow"
)

var ErrNoDataset = errors.New("no dataset uploaded for this session")

// Workspace 一个会话上传的数据集及其编译好的查询流程
type Workspace struct {
	FileName string
	Raw      *dataset.Frame
	Frame    *dataset.Frame
	Report   *dataset.PreprocessReport
	Flow     compose.Runnable[*flow.QueryRequest, *flow.QueryResult]
	LoadedAt time.Time
}

// Registry 按会话保存工作区，仅在内存中
type Registry struct {
	mu   sync.RWMutex
	data map[string]*Workspace
}

func NewRegistry() *Registry {
	return &Registry{data: make(map[string]*Workspace)}
}

func (r *Registry) Get(ctx context.Context, sessionID string) (*Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.data[sessionID]
	if !ok {
		return nil, ErrNoDataset
	}
	return ws, nil
}

// Set 替换会话的数据集
func (r *Registry) Set(ctx context.Context, sessionID string, ws *Workspace) {
	if ws.LoadedAt.IsZero() {
		ws.LoadedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[sessionID] = ws
}

func (r *Registry) Delete(ctx context.Context, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, sessionID)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
