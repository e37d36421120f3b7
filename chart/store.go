package chart

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Artifact 已落盘的图表文件
type Artifact struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Title string `json:"title"`
	Kind  Kind   `json:"kind"`
}

// Store 将图表保存到 plots 目录
type Store struct {
	Dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create plots dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Save 以 plot_<uuid>.png 命名写入
func (s *Store) Save(spec *Spec, png []byte) (*Artifact, error) {
	name := fmt.Sprintf("plot_%s.png", uuid.New().String())
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, png, 0644); err != nil {
		return nil, fmt.Errorf("write chart: %w", err)
	}
	return &Artifact{Name: name, Path: path, Title: spec.Title, Kind: spec.Kind}, nil
}

// RenderAndSave 渲染并保存
func (s *Store) RenderAndSave(spec *Spec) (*Artifact, error) {
	png, err := Render(spec)
	if err != nil {
		return nil, err
	}
	return s.Save(spec, png)
}

// Open 按文件名定位图表，拒绝目录穿越
func (s *Store) Open(name string) (string, error) {
	if name != filepath.Base(name) {
		return "", fmt.Errorf("invalid chart name %q", name)
	}
	path := filepath.Join(s.Dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
