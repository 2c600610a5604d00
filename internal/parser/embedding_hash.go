package parser

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/cloudwego/eino/components/embedding"
)

// HashingEmbedder 进程内确定性嵌入器：词级特征哈希 + L2归一化
// 没有任何随机性，相同文本永远得到相同向量；
// 词元重叠度高的技能集合/经历文本余弦相似度也高。
// 用于测试和未配置嵌入服务的离线运行，生产检索建议配置HTTP嵌入器。
type HashingEmbedder struct {
	dimensions int
}

// NewHashingEmbedder 创建哈希嵌入器，维度进程内固定
func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashingEmbedder{dimensions: dimensions}
}

// GetDimensions 返回嵌入向量的维度
func (h *HashingEmbedder) GetDimensions() int {
	return h.dimensions
}

// EmbedStrings 批量向量化文本，实现 embedding.Embedder
func (h *HashingEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = h.embed(text)
	}
	return vectors, nil
}

func (h *HashingEmbedder) embed(text string) []float64 {
	vec := make([]float64, h.dimensions)
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec
	}

	// 单词 + 相邻词二元组，二元组权重减半
	for _, tok := range tokens {
		h.accumulate(vec, tok, 1.0)
	}
	for i := 0; i+1 < len(tokens); i++ {
		h.accumulate(vec, tokens[i]+" "+tokens[i+1], 0.5)
	}

	// L2归一化，余弦相似度退化为点积
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// accumulate 哈希到桶下标，用次一位决定符号，减少碰撞偏差
func (h *HashingEmbedder) accumulate(vec []float64, token string, weight float64) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(token))
	sum := hasher.Sum64()

	idx := int(sum % uint64(h.dimensions))
	sign := 1.0
	if (sum>>32)&1 == 1 {
		sign = -1.0
	}
	vec[idx] += sign * weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

// CosineSimilarity 计算两个向量的余弦相似度，维度不一致或零向量返回0
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
