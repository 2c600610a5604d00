package processor

import (
	"context"

	"github.com/cloudwego/eino/components/embedding"

	"resume-skill-extractor/internal/parser"
	"resume-skill-extractor/internal/types"
)

//
// PDF解析相关接口
//

// PDFTextExtractor PDF文本提取接口
type PDFTextExtractor interface {
	// ExtractFromBytes 从PDF字节内容提取归一化文本与页数
	ExtractFromBytes(ctx context.Context, data []byte) (string, int, error)
}

// SegmentFunc 章节切分函数：归一化文本 -> 标签到文本块的映射
type SegmentFunc func(text string) map[types.SectionType]string

//
// 技能归一化相关接口
//

// SkillNormalizer 技能归一化接口
type SkillNormalizer interface {
	// NormalizeAll 批量归一化：返回去重规范集合与保留文档顺序的展示列表
	NormalizeAll(ctx context.Context, tokens []string) ([]string, []string, error)
}

//
// 向量嵌入相关接口
//

// TextEmbedder 文本向量化接口 (符合 cloudwego/eino 规范)
type TextEmbedder interface {
	// EmbedStrings 将文本转换为向量表示
	EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error)

	// GetDimensions 返回嵌入向量的维度
	GetDimensions() int
}

//
// 问题生成相关接口
//

// QuestionGenerator 面试问题生成边界接口
type QuestionGenerator interface {
	// GenerateQuestions 为候选人生成count个kind类型的面试问题
	GenerateQuestions(ctx context.Context, record *types.CandidateRecord, kind parser.QuestionKind, targetRole string, count int) ([]string, error)
}

//
// 存储相关接口
//

// CandidateStore 候选人记录存储边界
// 实现必须保证结构化字段与嵌入向量在同一次写入中落盘，不出现半可见状态
type CandidateStore interface {
	// SaveCandidate 保存记录；同一CandidateID重复保存时整体替换
	SaveCandidate(ctx context.Context, record *types.CandidateRecord) error

	// GetCandidate 按ID取回记录
	GetCandidate(ctx context.Context, candidateID string) (*types.CandidateRecord, error)

	// ListCandidates 分页列出全部记录
	ListCandidates(ctx context.Context, limit, offset int) ([]*types.CandidateRecord, error)

	// SetHired 标记录用/入围
	SetHired(ctx context.Context, candidateID string, hired bool) error

	// DeleteCandidate 按外部请求删除记录
	DeleteCandidate(ctx context.Context, candidateID string) error
}

// VectorStore 向量库边界（可选，未配置时检索在进程内计算）
type VectorStore interface {
	// UpsertCandidateVector 写入候选人向量与过滤载荷
	UpsertCandidateVector(ctx context.Context, record *types.CandidateRecord) error

	// DeleteCandidateVector 删除候选人向量
	DeleteCandidateVector(ctx context.Context, candidateID string) error
}
