package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"resume-skill-extractor/internal/logger"
	"resume-skill-extractor/internal/processor"
	"resume-skill-extractor/internal/types"
)

var searchTracer = otel.Tracer("resume-skill-extractor/search")

// hoursPerYear 经验年限换算基准（365.25天）
const hoursPerYear = 365.25 * 24

// Engine 候选人检索引擎
// 两阶段：结构化硬过滤（技能AND、最低学历、最低年限），然后排序
// 有自由文本时按嵌入余弦相似度排序，否则按确定性次级键排序
type Engine struct {
	store      processor.CandidateStore
	embedder   processor.TextEmbedder
	normalizer processor.SkillNormalizer
	now        func() time.Time
	log        zerolog.Logger
}

// Option 引擎配置选项
type Option func(*Engine)

// WithNormalizer 设置查询技能归一化器；设置后查询中的必备技能走同一词表
func WithNormalizer(normalizer processor.SkillNormalizer) Option {
	return func(e *Engine) {
		e.normalizer = normalizer
	}
}

// WithClock 注入时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger 设置日志记录器
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// NewEngine 创建检索引擎
func NewEngine(store processor.CandidateStore, embedder processor.TextEmbedder, options ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("必须提供候选人存储")
	}
	if embedder == nil {
		return nil, fmt.Errorf("必须提供嵌入器")
	}
	e := &Engine{
		store:    store,
		embedder: embedder,
		now:      time.Now,
		log:      logger.Logger.With().Str("component", "search_engine").Logger(),
	}
	for _, option := range options {
		option(e)
	}
	return e, nil
}

// Search 执行检索：过滤 -> 打分 -> 排序 -> 截断
// 排序完全确定：同输入同结果，分数相同时按CandidateID升序
func (e *Engine) Search(ctx context.Context, query types.SearchQuery) ([]types.RankedCandidate, error) {
	ctx, span := searchTracer.Start(ctx, "Engine.Search")
	defer span.End()
	span.SetAttributes(
		attribute.Int("query.required_skills", len(query.RequiredSkills)),
		attribute.Bool("query.free_text", query.FreeText != ""),
	)

	required, err := e.normalizeRequired(ctx, query.RequiredSkills)
	if err != nil {
		return nil, err
	}

	candidates, err := e.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	var queryVector []float64
	if query.FreeText != "" {
		vectors, err := e.embedder.EmbedStrings(ctx, []string{query.FreeText})
		if err != nil {
			return nil, fmt.Errorf("查询文本嵌入失败: %w", err)
		}
		queryVector = vectors[0]
	}

	results := make([]types.RankedCandidate, 0, len(candidates))
	for _, record := range candidates {
		matched, ok := e.passesFilters(record, required, query)
		if !ok {
			continue
		}
		ranked := types.RankedCandidate{Record: record, MatchedSkills: matched}
		if queryVector != nil {
			ranked.Score = CosineSimilarity(queryVector, record.Embedding)
		}
		results = append(results, ranked)
	}

	e.sortResults(results, queryVector != nil)

	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	span.SetAttributes(attribute.Int("results.count", len(results)))
	return results, nil
}

// MatchScore 计算单个候选人对自由文本的相似度分数（原match_job_description语义）
func (e *Engine) MatchScore(ctx context.Context, candidateID, freeText string) (float64, error) {
	record, err := e.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return 0, err
	}
	vectors, err := e.embedder.EmbedStrings(ctx, []string{freeText})
	if err != nil {
		return 0, fmt.Errorf("查询文本嵌入失败: %w", err)
	}
	return CosineSimilarity(vectors[0], record.Embedding), nil
}

func (e *Engine) normalizeRequired(ctx context.Context, skills []string) ([]string, error) {
	if len(skills) == 0 || e.normalizer == nil {
		return skills, nil
	}
	normalized, _, err := e.normalizer.NormalizeAll(ctx, skills)
	if err != nil {
		return nil, fmt.Errorf("查询技能归一化失败: %w", err)
	}
	return normalized, nil
}

func (e *Engine) loadAll(ctx context.Context) ([]*types.CandidateRecord, error) {
	const pageSize = 500
	var all []*types.CandidateRecord
	for offset := 0; ; offset += pageSize {
		page, err := e.store.ListCandidates(ctx, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("加载候选人失败: %w", err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// passesFilters 硬过滤；返回命中的必备技能数与是否通过
// 必备技能是AND语义：缺任意一个即整体淘汰
func (e *Engine) passesFilters(record *types.CandidateRecord, required []string, query types.SearchQuery) (int, bool) {
	matched := 0
	for _, skill := range required {
		if !record.HasSkill(skill) {
			return 0, false
		}
		matched++
	}
	if query.MinEducation > types.DegreeUnknown && record.HighestDegreeLevel() < query.MinEducation {
		return 0, false
	}
	if query.MinExperienceYears > 0 && TotalExperienceYears(record.Experience, e.now()) < query.MinExperienceYears {
		return 0, false
	}
	return matched, true
}

// sortResults 确定性排序
// 有查询向量：相似度降序；否则命中技能数降序、最近经历结束时间降序
// 所有分支的最终平局判定都是CandidateID升序
func (e *Engine) sortResults(results []types.RankedCandidate, semantic bool) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if semantic {
			if a.Score != b.Score {
				return a.Score > b.Score
			}
		} else {
			if a.MatchedSkills != b.MatchedSkills {
				return a.MatchedSkills > b.MatchedSkills
			}
			ae, be := a.Record.LatestExperienceEnd(), b.Record.LatestExperienceEnd()
			if !ae.Equal(be) {
				return ae.After(be)
			}
		}
		return a.Record.CandidateID < b.Record.CandidateID
	})
}

// TotalExperienceYears 计算非重叠经验年限
// 重叠或嵌套的经历区间先合并再求和，避免并行职位重复计年
func TotalExperienceYears(entries []types.ExperienceEntry, now time.Time) float64 {
	type interval struct {
		start, end time.Time
	}
	intervals := make([]interval, 0, len(entries))
	for _, entry := range entries {
		if entry.StartDate == nil {
			continue
		}
		end := now
		if !entry.Present && entry.EndDate != nil {
			end = *entry.EndDate
		}
		if end.Before(*entry.StartDate) {
			continue
		}
		intervals = append(intervals, interval{start: *entry.StartDate, end: end})
	}
	if len(intervals) == 0 {
		return 0
	}
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start.Before(intervals[j].start)
	})

	var total time.Duration
	current := intervals[0]
	for _, iv := range intervals[1:] {
		if !iv.start.After(current.end) {
			if iv.end.After(current.end) {
				current.end = iv.end
			}
			continue
		}
		total += current.end.Sub(current.start)
		current = iv
	}
	total += current.end.Sub(current.start)
	return total.Hours() / hoursPerYear
}

// CosineSimilarity 余弦相似度；任一向量为零向量或维度不符时返回0
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
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
