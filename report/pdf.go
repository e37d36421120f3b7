package report

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
)

// pdfSurface 基于 fpdf 的绘制面，关闭自动分页由版式引擎控制
type pdfSurface struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newPDFSurface() *pdfSurface {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	return &pdfSurface{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (s *pdfSurface) AddPage() {
	s.pdf.AddPage()
}

func (s *pdfSurface) SetFont(style string, size float64) {
	s.pdf.SetFont("Arial", style, size)
}

// SplitLines 在 cp1252 编码后的字节上按词折行；fpdf 的 SplitText 按 rune 查宽度表，遇到非 ASCII 会越界
func (s *pdfSurface) SplitLines(text string, width float64) []string {
	maxWidth := width - 2*s.pdf.GetCellMargin()
	var lines []string
	for _, para := range strings.Split(s.tr(text), "\n") {
		lines = append(lines, s.wrap(strings.TrimRight(para, "\r"), maxWidth)...)
	}
	return lines
}

func (s *pdfSurface) wrap(para string, maxWidth float64) []string {
	var lines []string
	line := ""
	for _, word := range strings.Split(para, " ") {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if s.pdf.GetStringWidth(candidate) <= maxWidth {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
		// 单词本身超宽时按字节截断
		for s.pdf.GetStringWidth(word) > maxWidth {
			n := 1
			for n < len(word) && s.pdf.GetStringWidth(word[:n+1]) <= maxWidth {
				n++
			}
			lines = append(lines, word[:n])
			word = word[n:]
		}
		line = word
	}
	return append(lines, line)
}

func (s *pdfSurface) Text(x, y, w, h float64, text, align string) {
	s.pdf.SetXY(x, y)
	s.pdf.CellFormat(w, h, text, "", 0, align, false, 0, "")
}

func (s *pdfSurface) ImageSize(path string) (float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

func (s *pdfSurface) Image(path string, x, y, w, h float64) error {
	s.pdf.ImageOptions(path, x, y, w, h, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	return s.pdf.Error()
}

// WritePDF 生成 PDF 报告
func WritePDF(w io.Writer, entries []Entry) error {
	s := newPDFSurface()
	if err := NewLayout(s).Render(entries); err != nil {
		return err
	}
	if err := s.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
