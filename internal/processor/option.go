package processor

import (
	"github.com/rs/zerolog"
)

// Option 处理器配置选项
type Option func(*ResumeProcessor)

// WithPDFExtractor 设置PDF提取器组件
func WithPDFExtractor(extractor PDFTextExtractor) Option {
	return func(p *ResumeProcessor) {
		p.extractor = extractor
	}
}

// WithSegmenter 设置章节切分函数
func WithSegmenter(segment SegmentFunc) Option {
	return func(p *ResumeProcessor) {
		p.segment = segment
	}
}

// WithNormalizer 设置技能归一化器
func WithNormalizer(normalizer SkillNormalizer) Option {
	return func(p *ResumeProcessor) {
		p.normalizer = normalizer
	}
}

// WithEmbedder 设置文本嵌入器
func WithEmbedder(embedder TextEmbedder) Option {
	return func(p *ResumeProcessor) {
		p.embedder = embedder
	}
}

// WithCandidateStore 设置候选人存储
func WithCandidateStore(store CandidateStore) Option {
	return func(p *ResumeProcessor) {
		p.store = store
	}
}

// WithVectorStore 设置向量库
func WithVectorStore(store VectorStore) Option {
	return func(p *ResumeProcessor) {
		p.vectorStore = store
	}
}

// WithQuestionGenerator 设置问题生成器
func WithQuestionGenerator(generator QuestionGenerator) Option {
	return func(p *ResumeProcessor) {
		p.questions = generator
	}
}

// WithLogger 设置日志记录器
func WithLogger(log zerolog.Logger) Option {
	return func(p *ResumeProcessor) {
		p.log = log
	}
}
