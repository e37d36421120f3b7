package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrEmptyHistory = errors.New("No queries to include in the report.")

// Entry 报告中的一条查询
type Entry struct {
	Query     string
	Response  string
	ImagePath string
}

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat 空字符串视为 pdf
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported report format %q", s)
}

// Write 按格式把报告写入 w
func Write(w io.Writer, entries []Entry, format Format) error {
	switch format {
	case FormatPDF:
		return WritePDF(w, entries)
	case FormatXLSX:
		return WriteXLSX(w, entries)
	}
	return fmt.Errorf("unsupported report format %q", format)
}

// File 已生成的报告文件
type File struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Format Format `json:"format"`
}

// Generator 把报告写入 reports 目录
type Generator struct {
	Dir string
}

func NewGenerator(dir string) (*Generator, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &Generator{Dir: dir}, nil
}

// Generate 以 report_<uuid>.<ext> 命名生成报告
func (g *Generator) Generate(entries []Entry, format Format) (*File, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyHistory
	}
	name := fmt.Sprintf("report_%s.%s", uuid.New().String(), format)
	path := filepath.Join(g.Dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	// 写入失败或中途 panic 时不留下残缺文件
	done := false
	defer func() {
		if !done {
			_ = f.Close()
			_ = os.Remove(path)
		}
	}()
	if err := Write(f, entries, format); err != nil {
		return nil, err
	}
	done = true
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	zap.L().Info("report generated", zap.String("name", name), zap.Int("entries", len(entries)))
	return &File{Name: name, Path: path, Format: format}, nil
}

// Open 按文件名定位报告，拒绝目录穿越
func (g *Generator) Open(name string) (string, error) {
	if name != filepath.Base(name) {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	path := filepath.Join(g.Dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
