package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Load 根据文件扩展名解析上传的数据集
func Load(name string, r io.Reader) (*Frame, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return LoadCSV(r)
	case ".xlsx", ".xlsm":
		return LoadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// LoadCSV 读取带表头的 CSV
func LoadCSV(r io.Reader) (*Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	// 去掉 UTF-8 BOM
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return fromRecords(records)
}

// LoadXLSX 读取工作簿第一个工作表，第一行为表头
func LoadXLSX(r io.Reader) (*Frame, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return fromRecords(rows)
}

func fromRecords(records [][]string) (*Frame, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmpty
	}

	header := records[0]
	body := records[1:]
	cols := make([]*Column, 0, len(header))
	used := make(map[string]bool, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		// 重名列依次加 _1、_2 后缀，跳过已被占用的名字
		for base, n := name, 1; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[name] = true

		values := make([]string, len(body))
		for r, rec := range body {
			if i < len(rec) {
				values[r] = strings.TrimSpace(rec[i])
			}
		}
		cols = append(cols, InferColumn(name, values))
	}
	return NewFrame(cols)
}

// InferColumn 非空值全部可解析为数字时生成数值列，否则为字符串列
func InferColumn(name string, values []string) *Column {
	valid := make([]bool, len(values))
	numbers := make([]float64, len(values))
	numeric := true
	nonEmpty := 0
	for i, v := range values {
		if isNull(v) {
			continue
		}
		valid[i] = true
		nonEmpty++
		if !numeric {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			numeric = false
			continue
		}
		numbers[i] = n
	}

	if numeric && nonEmpty > 0 {
		return &Column{Name: name, Kind: KindNumber, Numbers: numbers, Valid: valid}
	}

	strs := make([]string, len(values))
	for i, v := range values {
		if valid[i] {
			strs[i] = v
		}
	}
	return &Column{Name: name, Kind: KindString, Strings: strs, Valid: valid}
}

func isNull(v string) bool {
	switch strings.ToLower(v) {
	case "", "na", "n/a", "nan", "null", "none":
		return true
	}
	return false
}
