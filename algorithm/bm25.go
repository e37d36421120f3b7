package algorithm

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

type BM25 struct {
	docs     [][]string         // 文档
	avgdl    float64            // 文档平均长度
	k1       float64            // 影响速度调节因子 1.2-2.0
	b        float64            // 惩罚调节因子 0.75
	idf      map[string]float64 // 逆文档频率
	docCount int                // 文档数量
}

// Ranked 排序结果
type Ranked struct {
	Index int
	Score float64
}

func NewBM25(docs [][]string) *BM25 {
	bm := &BM25{
		docs:     docs,
		k1:       1.5,
		b:        0.75,
		docCount: len(docs),
		idf:      make(map[string]float64),
	}
	bm.calculateStats()

	return bm
}

// calculateStats 计算IDF和平均长度
// IDF 用于判断某一个词是否是常用词，从而找到稀有的关键词
// 采用 ln(1 + (N-n+0.5)/(n+0.5))，保证 IDF 非负
func (bm *BM25) calculateStats() {
	if bm.docCount == 0 {
		return
	}
	var totalLen int
	docFreq := make(map[string]int)

	for _, doc := range bm.docs {
		totalLen += len(doc)
		uniqueWords := make(map[string]bool)
		for _, word := range doc {
			uniqueWords[word] = true
		}
		for word := range uniqueWords {
			docFreq[word]++
		}
	}

	bm.avgdl = float64(totalLen) / float64(bm.docCount)

	for word, freq := range docFreq {
		bm.idf[word] = math.Log(1 + (float64(bm.docCount-freq)+0.5)/(float64(freq)+0.5))
	}
}

// Score 计算查询在第 i 篇文档的得分
// tf(词频)：某个关键词在文档出现次数
// k1：调节影响效果的因子，k1越大这个关键字的得分就越高
// b： 调节文档长度影响效果的因子，b越大得分受长度影响越严重
func (bm *BM25) Score(query []string, i int) float64 {
	doc := bm.docs[i]
	var score float64
	docLen := float64(len(doc))

	tfMap := make(map[string]int)
	for _, word := range doc {
		tfMap[word]++
	}

	for _, qWord := range query {
		tf := float64(tfMap[qWord])
		if tf == 0 {
			continue
		}
		idf := bm.idf[qWord]
		numerator := tf * (bm.k1 + 1)
		denominator := tf + bm.k1*(1-bm.b+bm.b*docLen/bm.avgdl)

		score += idf * (numerator / denominator)
	}

	return score
}

// Rank 返回得分大于 0 的文档，按得分降序
func (bm *BM25) Rank(query []string) []Ranked {
	out := make([]Ranked, 0, bm.docCount)
	for i := range bm.docs {
		if s := bm.Score(query, i); s > 0 {
			out = append(out, Ranked{Index: i, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "for": true, "by": true,
	"and": true, "or": true, "to": true, "in": true, "on": true, "me": true,
	"show": true, "what": true, "is": true, "are": true, "with": true, "each": true,
	"please": true, "can": true, "you": true, "how": true, "per": true,
}

// Tokenize 小写、按非字母数字切分、去停用词，并把简单复数还原为单数
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if stopWords[f] {
			continue
		}
		if len(f) > 3 && strings.HasSuffix(f, "s") && !strings.HasSuffix(f, "ss") {
			f = strings.TrimSuffix(f, "s")
		}
		out = append(out, f)
	}
	return out
}
