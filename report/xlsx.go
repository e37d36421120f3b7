package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	xlsxSheet     = "Report"
	xlsxRowHeight = 160.0
	// 图表约 1000x600 像素，缩放后放进一行
	xlsxImageScale = 0.35
)

// WriteXLSX 生成 Excel 报告：每条查询一行，图表嵌在行尾
func WriteXLSX(w io.Writer, entries []Entry) error {
	if len(entries) == 0 {
		return ErrEmptyHistory
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}

	headers := []string{"#", "Query", "Response", "Chart"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(xlsxSheet, cell, h); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	if err != nil {
		return err
	}
	_ = f.SetCellStyle(xlsxSheet, "A1", "D1", bold)

	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return err
	}
	_ = f.SetColWidth(xlsxSheet, "A", "A", 5)
	_ = f.SetColWidth(xlsxSheet, "B", "B", 40)
	_ = f.SetColWidth(xlsxSheet, "C", "C", 80)
	_ = f.SetColWidth(xlsxSheet, "D", "D", 60)

	for i, e := range entries {
		row := i + 2
		values := []any{i + 1, e.Query, e.Response}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(xlsxSheet, cell, v); err != nil {
				return err
			}
		}
		_ = f.SetCellStyle(xlsxSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), wrap)
		_ = f.SetRowHeight(xlsxSheet, row, xlsxRowHeight)

		if e.ImagePath == "" {
			continue
		}
		if err := addPicture(f, fmt.Sprintf("D%d", row), e.ImagePath); err != nil {
			zap.L().Warn("skip report image", zap.String("path", e.ImagePath), zap.Error(err))
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func addPicture(f *excelize.File, cell, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return f.AddPictureFromBytes(xlsxSheet, cell, &excelize.Picture{
		Extension: strings.ToLower(filepath.Ext(path)),
		File:      data,
		Format: &excelize.GraphicOptions{
			ScaleX:      xlsxImageScale,
			ScaleY:      xlsxImageScale,
			OffsetX:     5,
			OffsetY:     5,
			Positioning: "oneCell",
		},
	})
}
