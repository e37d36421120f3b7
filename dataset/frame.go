package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrEmpty             = errors.New("dataset is empty")
	ErrNoColumn          = errors.New("column not found")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// Kind 列的数据类型
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "string"
	}
}

// Column 单列数据，Valid[i] 为 false 表示该行为空值
type Column struct {
	Name    string
	Kind    Kind
	Strings []string
	Numbers []float64
	Times   []time.Time
	Valid   []bool
}

func (c *Column) Len() int {
	return len(c.Valid)
}

// Format 以字符串形式返回第 i 行的值，空值返回 ""
func (c *Column) Format(i int) string {
	if !c.Valid[i] {
		return ""
	}
	switch c.Kind {
	case KindNumber:
		return strconv.FormatFloat(c.Numbers[i], 'f', -1, 64)
	case KindTime:
		return c.Times[i].Format(time.DateTime)
	default:
		return c.Strings[i]
	}
}

// NullCount 空值数量
func (c *Column) NullCount() int {
	n := 0
	for _, ok := range c.Valid {
		if !ok {
			n++
		}
	}
	return n
}

// ValidNumbers 返回数值列中的非空值
func (c *Column) ValidNumbers() []float64 {
	out := make([]float64, 0, len(c.Numbers))
	for i, v := range c.Numbers {
		if c.Valid[i] {
			out = append(out, v)
		}
	}
	return out
}

func (c *Column) clone() *Column {
	cp := &Column{Name: c.Name, Kind: c.Kind, Valid: append([]bool(nil), c.Valid...)}
	cp.Strings = append([]string(nil), c.Strings...)
	cp.Numbers = append([]float64(nil), c.Numbers...)
	cp.Times = append([]time.Time(nil), c.Times...)
	return cp
}

// Frame 表格数据集
type Frame struct {
	Columns []*Column
	rows    int
	index   map[string]int
}

// NewFrame 由列构建数据集，所有列长度必须一致
func NewFrame(cols []*Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), f.rows)
		}
		if _, dup := f.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		f.index[c.Name] = i
	}
	f.Columns = cols
	return f, nil
}

func (f *Frame) Len() int {
	return f.rows
}

func (f *Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column 按列名取列
func (f *Frame) Column(name string) (*Column, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, name)
	}
	return f.Columns[i], nil
}

// HasKind 判断列存在且类型匹配
func (f *Frame) HasKind(name string, kind Kind) bool {
	c, err := f.Column(name)
	return err == nil && c.Kind == kind
}

// Head 返回前 n 行的字符串表示
func (f *Frame) Head(n int) [][]string {
	if n > f.rows || n < 0 {
		n = f.rows
	}
	out := make([][]string, n)
	for r := 0; r < n; r++ {
		row := make([]string, len(f.Columns))
		for i, c := range f.Columns {
			row[i] = c.Format(r)
		}
		out[r] = row
	}
	return out
}

// Clone 深拷贝，预处理在副本上进行
func (f *Frame) Clone() *Frame {
	cols := make([]*Column, len(f.Columns))
	for i, c := range f.Columns {
		cols[i] = c.clone()
	}
	cp, _ := NewFrame(cols)
	return cp
}

// Replace 用新列替换同名列，不存在则追加
func (f *Frame) Replace(c *Column) error {
	if f.rows != c.Len() && len(f.Columns) > 0 {
		return fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), f.rows)
	}
	if i, ok := f.index[c.Name]; ok {
		f.Columns[i] = c
		return nil
	}
	f.index[c.Name] = len(f.Columns)
	f.Columns = append(f.Columns, c)
	if len(f.Columns) == 1 {
		f.rows = c.Len()
	}
	return nil
}

// Fingerprint 数据内容的 sha256，用于答案缓存的 key
func (f *Frame) Fingerprint() string {
	h := sha256.New()
	for _, c := range f.Columns {
		h.Write([]byte(c.Name))
		h.Write([]byte{0})
		for r := 0; r < f.rows; r++ {
			h.Write([]byte(c.Format(r)))
			h.Write([]byte{1})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SchemaSummary 列名与类型的简要描述，供提示词使用
func (f *Frame) SchemaSummary() string {
	s := fmt.Sprintf("rows: %d\ncolumns:\n", f.rows)
	for _, c := range f.Columns {
		s += fmt.Sprintf("- %s (%s, nulls=%d)\n", c.Name, c.Kind, c.NullCount())
	}
	return s
}
