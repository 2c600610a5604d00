package processor

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"resume-skill-extractor/internal/logger"
	"resume-skill-extractor/internal/parser"
	"resume-skill-extractor/internal/types"
)

var processorTracer = otel.Tracer("resume-skill-extractor/processor")

// CandidateIDNamespace 用于生成确定性候选人ID的专用UUID命名空间
// 同一份源文件重复处理时得到相同ID，记录整体替换而不是新增
var CandidateIDNamespace = uuid.Must(uuid.FromString("a1f8a9d2-7c41-4e0b-9d53-2f6ce08b2a94"))

// ResumeProcessor 简历处理流水线
// 原始PDF字节 -> 文本提取 -> 章节切分 -> 字段解析 -> 技能归一化 -> 嵌入 -> 结构化记录
type ResumeProcessor struct {
	extractor   PDFTextExtractor
	segment     SegmentFunc
	normalizer  SkillNormalizer
	embedder    TextEmbedder
	store       CandidateStore
	vectorStore VectorStore
	questions   QuestionGenerator
	log         zerolog.Logger
}

// New 创建处理器；提取器与归一化器必须提供，嵌入器缺省为确定性哈希嵌入器
func New(options ...Option) (*ResumeProcessor, error) {
	p := &ResumeProcessor{
		segment: parser.SegmentText,
		log:     logger.Logger.With().Str("component", "resume_processor").Logger(),
	}
	for _, option := range options {
		option(p)
	}

	if p.extractor == nil {
		return nil, fmt.Errorf("必须提供PDF提取器")
	}
	if p.normalizer == nil {
		return nil, fmt.Errorf("必须提供技能归一化器")
	}
	if p.embedder == nil {
		p.embedder = parser.NewHashingEmbedder(384)
	}
	return p, nil
}

// CandidateIDForBytes 从源文件字节计算稳定候选人ID
func CandidateIDForBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return uuid.NewV5(CandidateIDNamespace, hex.EncodeToString(sum[:])).String()
}

// ProcessResume 对PDF字节执行完整提取流水线，返回结构化候选人记录
// 除PDF完全不可读外不会失败：字段级问题降级为置信标记
func (p *ResumeProcessor) ProcessResume(ctx context.Context, data []byte, sourceName string) (*types.CandidateRecord, error) {
	candidateID := CandidateIDForBytes(data)

	ctx, span := processorTracer.Start(ctx, "ResumeProcessor.ProcessResume")
	defer span.End()
	span.SetAttributes(
		attribute.String("candidate.id", candidateID),
		attribute.String("source.name", sourceName),
		attribute.Int("source.bytes", len(data)),
	)

	// 1. 文本提取（唯一会中止整个文件处理的阶段）
	text, pageCount, err := p.extractor.ExtractFromBytes(ctx, data)
	if err != nil {
		span.SetStatus(codes.Error, "extract failed")
		span.RecordError(err)
		return nil, NewExtractError(candidateID, err)
	}

	md5Sum := md5.Sum(data)
	record := &types.CandidateRecord{
		CandidateID: candidateID,
		RawText:     text,
		PageCount:   pageCount,
		SourceMD5:   hex.EncodeToString(md5Sum[:]),
	}

	// 2. 章节切分
	sections := p.segment(text)
	span.SetAttributes(attribute.Int("sections.count", len(sections)))

	// 3. 字段解析；缺失章节时对全文做正则兜底并降级置信
	p.parseContact(record, sections, text)
	p.parseSkillsSection(ctx, record, sections)
	p.parseExperienceSection(record, sections, text)
	p.parseEducationSection(record, sections)

	// 4. 嵌入向量，与结构化字段同批写入
	vectors, err := p.embedder.EmbedStrings(ctx, []string{record.SearchableText()})
	if err != nil {
		span.SetStatus(codes.Error, "embed failed")
		span.RecordError(err)
		return nil, NewEmbeddingError(candidateID, err)
	}
	if len(vectors) != 1 || len(vectors[0]) != p.embedder.GetDimensions() {
		return nil, NewEmbeddingError(candidateID, fmt.Errorf("向量维度不符: 期望%d", p.embedder.GetDimensions()))
	}
	record.Embedding = vectors[0]

	p.log.Info().
		Str("candidate_id", candidateID).
		Str("source", sourceName).
		Int("skills", len(record.Skills)).
		Int("experience", len(record.Experience)).
		Int("education", len(record.Education)).
		Msg("简历处理完成")
	return record, nil
}

// ProcessAndStore 执行流水线并持久化记录与向量
func (p *ResumeProcessor) ProcessAndStore(ctx context.Context, data []byte, sourceName string) (*types.CandidateRecord, error) {
	record, err := p.ProcessResume(ctx, data, sourceName)
	if err != nil {
		return nil, err
	}
	if p.store == nil {
		return record, nil
	}
	if err := p.store.SaveCandidate(ctx, record); err != nil {
		return nil, NewStoreError(record.CandidateID, err)
	}
	if p.vectorStore != nil {
		if err := p.vectorStore.UpsertCandidateVector(ctx, record); err != nil {
			return nil, NewStoreError(record.CandidateID, err)
		}
	}
	return record, nil
}

// GenerateQuestions 为已存储的候选人生成面试问题
func (p *ResumeProcessor) GenerateQuestions(ctx context.Context, candidateID string, kind parser.QuestionKind, targetRole string, count int) ([]string, error) {
	if p.questions == nil {
		return nil, NewQuestionGenError(candidateID, fmt.Errorf("未配置问题生成器"))
	}
	if p.store == nil {
		return nil, NewQuestionGenError(candidateID, fmt.Errorf("未配置候选人存储"))
	}
	record, err := p.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, NewQuestionGenError(candidateID, err)
	}
	questions, err := p.questions.GenerateQuestions(ctx, record, kind, targetRole, count)
	if err != nil {
		return nil, NewQuestionGenError(candidateID, err)
	}
	return questions, nil
}

// parseContact 联系方式解析；无contact章节时扫描全文并降级为inferred
func (p *ResumeProcessor) parseContact(record *types.CandidateRecord, sections map[types.SectionType]string, fullText string) {
	block, fallback := sections[types.SectionContact], false
	if block == "" {
		block, fallback = fullText, true
	}
	info := parser.ParseContact(block)
	record.Identity = info.Identity
	record.Confidence.Name = downgrade(info.NameConfidence, fallback)
	record.Confidence.Email = downgrade(info.EmailConfidence, fallback)
	record.Confidence.Phone = downgrade(info.PhoneConfidence, fallback)
}

// parseSkillsSection 技能解析与归一化；没有技能章节时标记missing
func (p *ResumeProcessor) parseSkillsSection(ctx context.Context, record *types.CandidateRecord, sections map[types.SectionType]string) {
	block := sections[types.SectionSkills]
	if block == "" {
		record.Confidence.Skills = types.ConfidenceMissing
		return
	}
	tokens := parser.ParseSkills(block)
	if len(tokens) == 0 {
		record.Confidence.Skills = types.ConfidenceMissing
		return
	}
	set, display, err := p.normalizer.NormalizeAll(ctx, tokens)
	if err != nil {
		p.log.Warn().Err(err).Str("candidate_id", record.CandidateID).Msg("技能归一化部分失败")
	}
	record.Skills = set
	record.SkillsDisplay = display
	record.Confidence.Skills = types.ConfidenceFound
}

// parseExperienceSection 经历解析；可解析日期齐全时按开始时间降序，否则保持文档顺序
func (p *ResumeProcessor) parseExperienceSection(record *types.CandidateRecord, sections map[types.SectionType]string, fullText string) {
	block, fallback := sections[types.SectionExperience], false
	if block == "" {
		if sections[types.SectionOther] == "" {
			record.Confidence.Experience = types.ConfidenceMissing
			return
		}
		// 零标题文档：对other块做日期区间兜底扫描
		block, fallback = sections[types.SectionOther], true
	}

	entries := parser.ParseExperience(block)
	if len(entries) == 0 {
		record.Confidence.Experience = types.ConfidenceMissing
		return
	}
	if fallback {
		for i := range entries {
			entries[i].Confidence = types.ConfidenceInferred
		}
	}

	allDated := true
	for _, e := range entries {
		if e.StartDate == nil {
			allDated = false
			break
		}
	}
	if allDated {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].StartDate.After(*entries[j].StartDate)
		})
	}
	record.Experience = entries
	if fallback {
		record.Confidence.Experience = types.ConfidenceInferred
	} else {
		record.Confidence.Experience = types.ConfidenceFound
	}
}

// parseEducationSection 教育经历解析，并汇总记录级最高CGPA
func (p *ResumeProcessor) parseEducationSection(record *types.CandidateRecord, sections map[types.SectionType]string) {
	block := sections[types.SectionEducation]
	if block == "" {
		record.Confidence.Education = types.ConfidenceMissing
		return
	}
	entries := parser.ParseEducation(block)
	if len(entries) == 0 {
		record.Confidence.Education = types.ConfidenceMissing
		return
	}
	record.Education = entries
	record.Confidence.Education = types.ConfidenceFound

	for _, edu := range entries {
		if edu.CGPA == nil {
			continue
		}
		if record.MaxCGPA == nil || *edu.CGPA > *record.MaxCGPA {
			v := *edu.CGPA
			record.MaxCGPA = &v
		}
	}
}

func downgrade(c types.Confidence, fallback bool) types.Confidence {
	if fallback && c == types.ConfidenceFound {
		return types.ConfidenceInferred
	}
	return c
}
