package report

import (
	"fmt"

	"go.uber.org/zap"
)

// 页面几何，单位 mm
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	margin       = 10.0
	contentWidth = pageWidth - 2*margin

	headerTitle  = "Data Analysis Report"
	headerHeight = 10.0
	footerOffset = 15.0
	// 正文不超过该位置，下方留给页脚
	bodyBottom = pageHeight - 20.0
	bodyTop    = margin + headerHeight

	bodyFontSize = 12.0
	lineHeight   = 10.0
	gap          = 10.0
	imageX       = 10.0
	imageWidth   = 180.0
)

// Surface 版式引擎驱动的绘制面
type Surface interface {
	AddPage()
	SetFont(style string, size float64)
	// SplitLines 按宽度折行，返回的行可直接传给 Text
	SplitLines(text string, width float64) []string
	Text(x, y, w, h float64, text, align string)
	// ImageSize 图片像素尺寸
	ImageSize(path string) (w, h float64, err error)
	Image(path string, x, y, w, h float64) error
}

// Layout 手动分页：每写一行或一张图之前检查剩余空间
type Layout struct {
	s    Surface
	y    float64
	page int
}

func NewLayout(s Surface) *Layout {
	return &Layout{s: s}
}

// Render 排版全部条目
func (l *Layout) Render(entries []Entry) error {
	if len(entries) == 0 {
		return ErrEmptyHistory
	}
	l.newPage()
	for _, e := range entries {
		l.paragraph("Query: " + e.Query)
		l.paragraph("Response: " + e.Response)
		l.y += gap

		if e.ImagePath == "" {
			continue
		}
		if err := l.image(e.ImagePath); err != nil {
			zap.L().Warn("skip report image", zap.String("path", e.ImagePath), zap.Error(err))
			continue
		}
		l.y += gap
	}
	return nil
}

func (l *Layout) Pages() int {
	return l.page
}

func (l *Layout) newPage() {
	l.s.AddPage()
	l.page++

	l.s.SetFont("B", 16)
	l.s.Text(margin, margin, contentWidth, headerHeight, headerTitle, "C")

	l.s.SetFont("I", 8)
	l.s.Text(margin, pageHeight-footerOffset, contentWidth, 10, fmt.Sprintf("Page %d", l.page), "C")

	l.s.SetFont("", bodyFontSize)
	l.y = bodyTop
}

func (l *Layout) paragraph(text string) {
	l.s.SetFont("", bodyFontSize)
	for _, line := range l.s.SplitLines(text, contentWidth) {
		if l.y+lineHeight > bodyBottom {
			l.newPage()
		}
		l.s.Text(margin, l.y, contentWidth, lineHeight, line, "L")
		l.y += lineHeight
	}
}

func (l *Layout) image(path string) error {
	pw, ph, err := l.s.ImageSize(path)
	if err != nil {
		return err
	}
	if pw <= 0 || ph <= 0 {
		return fmt.Errorf("image %s has no size", path)
	}

	w := imageWidth
	h := w * ph / pw
	// 比一整页还高的图片等比缩小
	if maxHeight := bodyBottom - bodyTop; h > maxHeight {
		w = w * maxHeight / h
		h = maxHeight
	}
	if l.y+h > bodyBottom {
		l.newPage()
	}
	if err := l.s.Image(path, imageX, l.y, w, h); err != nil {
		return err
	}
	l.y += h
	return nil
}
