package dataset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// 预处理涉及的已知列
const (
	ColApplicationType    = "Application_Type"
	ColSignalStrength     = "Signal_Strength"
	ColLatency            = "Latency"
	ColResourceAllocation = "Resource_Allocation"
	ColRequiredBandwidth  = "Required_Bandwidth"
	ColAllocatedBandwidth = "Allocated_Bandwidth"
	ColTimestamp          = "Timestamp"
	ColUtilizationRatio   = "Bandwidth_Utilization_Ratio"
)

// StandardizedColumns 预处理时做 z-score 标准化的列
var StandardizedColumns = []string{ColSignalStrength, ColLatency}

var unitValuePattern = regexp.MustCompile(`^([-+]?\d*\.?\d+)\s*([A-Za-z%]+)$`)

// 带宽单位统一换算为 Kbps
var bandwidthFactors = map[string]float64{
	"kbps": 1,
	"mbps": 1000,
	"gbps": 1000 * 1000,
}

// 可剥离的普通单位
var plainUnits = map[string]bool{
	"dbm": true,
	"ms":  true,
	"s":   true,
	"%":   true,
}

var timeLayouts = []string{
	time.RFC3339,
	time.DateTime,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04",
	time.DateOnly,
	"2006/01/02",
	"1/2/2006",
}

// PreprocessReport 记录每一步做了什么，失败的步骤只记录警告
type PreprocessReport struct {
	Steps    []string `json:"steps"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *PreprocessReport) step(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Steps = append(r.Steps, msg)
	zap.L().Debug("preprocess", zap.String("step", msg))
}

func (r *PreprocessReport) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	zap.L().Warn("preprocess", zap.String("warning", msg))
}

// Preprocess 在副本上完成清洗：单位剥离、时间解析、带宽换算、缺失值填充、标准化、派生列
func Preprocess(in *Frame) (*Frame, *PreprocessReport) {
	f := in.Clone()
	report := &PreprocessReport{}

	for _, c := range f.Columns {
		if c.Kind != KindString {
			continue
		}
		if converted, ok := convertUnits(c, report); ok {
			_ = f.Replace(converted)
		}
	}

	for _, c := range f.Columns {
		if c.Kind != KindString {
			continue
		}
		if converted, ok := convertTimes(c, report); ok {
			_ = f.Replace(converted)
		}
	}

	for _, c := range f.Columns {
		fillForwardBackward(c)
	}
	report.step("forward/backward filled missing values")

	for _, c := range f.Columns {
		impute(c, report)
	}

	for _, name := range StandardizedColumns {
		c, err := f.Column(name)
		if err != nil {
			report.warn("skip standardization of %s: column not found", name)
			continue
		}
		if c.Kind != KindNumber {
			report.warn("skip standardization of %s: column is %s", name, c.Kind)
			continue
		}
		standardize(c)
		report.step("standardized %s", name)
	}

	if ratio, err := utilizationRatio(f); err != nil {
		report.warn("skip %s: %v", ColUtilizationRatio, err)
	} else {
		_ = f.Replace(ratio)
		report.step("derived %s", ColUtilizationRatio)
	}

	return f, report
}

// convertUnits 识别 "-70 dBm" / "30 ms" / "80%" / "10 Mbps" 这类带单位的值
func convertUnits(c *Column, report *PreprocessReport) (*Column, bool) {
	numbers := make([]float64, c.Len())
	var unit string
	bandwidth := true
	sameUnit := true
	seen := 0

	for i, raw := range c.Strings {
		if !c.Valid[i] {
			continue
		}
		m := unitValuePattern.FindStringSubmatch(strings.TrimSpace(raw))
		if m == nil {
			return nil, false
		}
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, false
		}
		u := strings.ToLower(m[2])
		if _, ok := bandwidthFactors[u]; !ok && !plainUnits[u] {
			return nil, false
		}
		if seen == 0 {
			unit = u
		} else if u != unit {
			sameUnit = false
		}
		factor, isBandwidth := bandwidthFactors[u]
		if !isBandwidth {
			bandwidth = false
		} else {
			n *= factor
		}
		numbers[i] = n
		seen++
	}
	if seen == 0 {
		return nil, false
	}

	switch {
	case bandwidth:
		report.step("converted %s to Kbps", c.Name)
	case sameUnit:
		report.step("stripped unit %q from %s", unit, c.Name)
	default:
		report.warn("column %s mixes units, left as text", c.Name)
		return nil, false
	}
	return &Column{Name: c.Name, Kind: KindNumber, Numbers: numbers, Valid: append([]bool(nil), c.Valid...)}, true
}

func looksLikeTimeColumn(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "timestamp") || strings.Contains(n, "date") || strings.HasSuffix(n, "time")
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// convertTimes 时间命名的列强制解析（失败置空），其他列只有全部可解析才转换
func convertTimes(c *Column, report *PreprocessReport) (*Column, bool) {
	coerce := looksLikeTimeColumn(c.Name)
	times := make([]time.Time, c.Len())
	valid := make([]bool, c.Len())
	parsed, failed := 0, 0
	for i, raw := range c.Strings {
		if !c.Valid[i] {
			continue
		}
		t, ok := parseTime(raw)
		if !ok {
			failed++
			if !coerce {
				return nil, false
			}
			continue
		}
		times[i] = t
		valid[i] = true
		parsed++
	}
	if parsed == 0 {
		if coerce {
			report.warn("column %s has no parseable timestamps", c.Name)
		}
		return nil, false
	}
	if failed > 0 {
		report.warn("column %s: %d unparseable timestamps set to null", c.Name, failed)
	}
	report.step("parsed %s as time", c.Name)
	return &Column{Name: c.Name, Kind: KindTime, Times: times, Valid: valid}, true
}

// fillForwardBackward 先向前填充，再用后面的值补齐开头的空值
func fillForwardBackward(c *Column) {
	n := c.Len()
	last := -1
	for i := 0; i < n; i++ {
		if c.Valid[i] {
			last = i
			continue
		}
		if last >= 0 {
			copyValue(c, last, i)
		}
	}
	next := -1
	for i := n - 1; i >= 0; i-- {
		if c.Valid[i] {
			next = i
			continue
		}
		if next >= 0 {
			copyValue(c, next, i)
		}
	}
}

func copyValue(c *Column, from, to int) {
	switch c.Kind {
	case KindNumber:
		c.Numbers[to] = c.Numbers[from]
	case KindTime:
		c.Times[to] = c.Times[from]
	default:
		c.Strings[to] = c.Strings[from]
	}
	c.Valid[to] = true
}

// impute 填充后仍有空值时，数值列用均值，文本列用众数
func impute(c *Column, report *PreprocessReport) {
	if c.NullCount() == 0 {
		return
	}
	switch c.Kind {
	case KindNumber:
		vals := c.ValidNumbers()
		if len(vals) == 0 {
			report.warn("column %s is entirely null", c.Name)
			return
		}
		mean := stat.Mean(vals, nil)
		for i := range c.Numbers {
			if !c.Valid[i] {
				c.Numbers[i] = mean
				c.Valid[i] = true
			}
		}
		report.step("imputed %s with mean %.4f", c.Name, mean)
	case KindString:
		counts := valueCounts(c)
		if len(counts) == 0 {
			report.warn("column %s is entirely null", c.Name)
			return
		}
		mode := counts[0].Value
		for i := range c.Strings {
			if !c.Valid[i] {
				c.Strings[i] = mode
				c.Valid[i] = true
			}
		}
		report.step("imputed %s with most frequent %q", c.Name, mode)
	default:
		report.warn("column %s still has nulls", c.Name)
	}
}

// standardize z-score，使用总体标准差；标准差为 0 时只做中心化
func standardize(c *Column) {
	vals := c.ValidNumbers()
	if len(vals) == 0 {
		return
	}
	mean, std := stat.PopMeanStdDev(vals, nil)
	if std == 0 {
		std = 1
	}
	for i := range c.Numbers {
		if c.Valid[i] {
			c.Numbers[i] = (c.Numbers[i] - mean) / std
		}
	}
}

func utilizationRatio(f *Frame) (*Column, error) {
	alloc, err := f.Column(ColAllocatedBandwidth)
	if err != nil {
		return nil, err
	}
	req, err := f.Column(ColRequiredBandwidth)
	if err != nil {
		return nil, err
	}
	if alloc.Kind != KindNumber || req.Kind != KindNumber {
		return nil, fmt.Errorf("bandwidth columns are not numeric")
	}

	n := f.Len()
	out := &Column{Name: ColUtilizationRatio, Kind: KindNumber, Numbers: make([]float64, n), Valid: make([]bool, n)}
	for i := 0; i < n; i++ {
		if !alloc.Valid[i] || !req.Valid[i] || req.Numbers[i] == 0 {
			continue
		}
		out.Numbers[i] = alloc.Numbers[i] / req.Numbers[i]
		out.Valid[i] = true
	}
	return out, nil
}
