package types

import (
	"sort"
	"strings"
	"time"
)

// SectionType 表示简历章节类型
type SectionType string

const (
	// SectionContact 联系方式章节
	SectionContact SectionType = "CONTACT"
	// SectionSummary 个人简介章节
	SectionSummary SectionType = "SUMMARY"
	// SectionSkills 技能章节
	SectionSkills SectionType = "SKILLS"
	// SectionExperience 工作经历章节
	SectionExperience SectionType = "EXPERIENCE"
	// SectionEducation 教育经历章节
	SectionEducation SectionType = "EDUCATION"
	// SectionOther 未分类内容章节
	SectionOther SectionType = "OTHER"
)

// Section 简历章节：标签 + 归属于该标签的连续文本块
type Section struct {
	Type    SectionType // 章节类型
	Title   string      // 实际匹配到的章节标题（未识别到标题时为空）
	Content string      // 章节内容
}

// Confidence 字段级置信标记：found / inferred / missing
type Confidence string

const (
	// ConfidenceFound 字段被直接提取到
	ConfidenceFound Confidence = "found"
	// ConfidenceInferred 字段通过启发式推断得到
	ConfidenceInferred Confidence = "inferred"
	// ConfidenceMissing 字段缺失
	ConfidenceMissing Confidence = "missing"
)

// Identity 候选人基本身份信息，所有字段均可为空
type Identity struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
}

// ExperienceEntry 一段工作经历
// 日期解析不到时 StartDate/EndDate 均为 nil 并标记低置信
type ExperienceEntry struct {
	Title        string     `json:"title,omitempty"`
	Organization string     `json:"organization,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Present      bool       `json:"present,omitempty"` // 在职至今
	Description  string     `json:"description,omitempty"`
	Confidence   Confidence `json:"confidence,omitempty"`
}

// EducationEntry 一段教育经历
type EducationEntry struct {
	Degree      string     `json:"degree,omitempty"`
	Institution string     `json:"institution,omitempty"`
	Year        int        `json:"year,omitempty"`
	CGPA        *float64   `json:"cgpa,omitempty"`
	Confidence  Confidence `json:"confidence,omitempty"`
}

// ExtractionConfidence 记录级置信标记集合
type ExtractionConfidence struct {
	Name       Confidence `json:"name"`
	Email      Confidence `json:"email"`
	Phone      Confidence `json:"phone"`
	Skills     Confidence `json:"skills"`
	Experience Confidence `json:"experience"`
	Education  Confidence `json:"education"`
}

// CandidateRecord 一份已处理简历的结构化记录
type CandidateRecord struct {
	// CandidateID 首次解析成功时分配，对同一源文件重新处理保持稳定
	CandidateID string `json:"candidate_id"`

	Identity Identity `json:"identity"`

	// Skills 规范化技能标识符集合（去重，匹配时视为无序）
	Skills []string `json:"skills"`

	// SkillsDisplay 按文档原始顺序保留的展示用技能列表
	SkillsDisplay []string `json:"skills_display,omitempty"`

	// Experience 按开始日期降序；日期不可解析时保持文档顺序
	Experience []ExperienceEntry `json:"experience"`

	Education []EducationEntry `json:"education"`

	// RawText 归一化后的源文本，保留用于重新处理与嵌入兜底
	RawText string `json:"raw_text,omitempty"`

	// Embedding 固定维度向量，随 skills/experience 文本变化同步重算
	Embedding []float64 `json:"embedding,omitempty"`

	Confidence ExtractionConfidence `json:"confidence"`

	// MaxCGPA 教育经历中最高的CGPA（可缺失）
	MaxCGPA *float64 `json:"max_cgpa,omitempty"`

	// SourceMD5 源文件内容MD5，用于去重与幂等重处理
	SourceMD5 string `json:"source_md5,omitempty"`

	// PageCount 源PDF页数
	PageCount int `json:"page_count,omitempty"`

	// Hired 外部标记的录用/入围标志
	Hired bool `json:"hired,omitempty"`
}

// HasSkill 判断记录是否包含某个规范化技能标识符
func (r *CandidateRecord) HasSkill(canonical string) bool {
	for _, s := range r.Skills {
		if s == canonical {
			return true
		}
	}
	return false
}

// SearchableText 返回用于嵌入的文本：技能 + 经历描述，为空时回退到原始文本
func (r *CandidateRecord) SearchableText() string {
	var b strings.Builder
	if len(r.Skills) > 0 {
		sorted := make([]string, len(r.Skills))
		copy(sorted, r.Skills)
		sort.Strings(sorted)
		b.WriteString(strings.Join(sorted, ", "))
	}
	for _, exp := range r.Experience {
		if exp.Description == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		if exp.Title != "" {
			b.WriteString(exp.Title)
			b.WriteString(": ")
		}
		b.WriteString(exp.Description)
	}
	if b.Len() == 0 {
		return r.RawText
	}
	return b.String()
}

// LatestExperienceEnd 返回最近一段经历的结束时间，用于无查询文本时的次级排序
// 在职经历视为最新，返回的时间远大于任何历史结束时间
func (r *CandidateRecord) LatestExperienceEnd() time.Time {
	var latest time.Time
	for _, exp := range r.Experience {
		if exp.Present {
			// 在职条目排在所有已结束条目之前
			return time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
		}
		if exp.EndDate != nil && exp.EndDate.After(latest) {
			latest = *exp.EndDate
		}
	}
	return latest
}

// DegreeLevel 学历层级，用于最低学历过滤
type DegreeLevel int

const (
	DegreeUnknown DegreeLevel = iota
	DegreeAssociate
	DegreeBachelor
	DegreeMaster
	DegreeDoctorate
)

// ParseDegreeLevel 从学位文本推断学历层级
func ParseDegreeLevel(degree string) DegreeLevel {
	d := strings.ToLower(degree)
	switch {
	case strings.Contains(d, "phd"), strings.Contains(d, "ph.d"), strings.Contains(d, "doctor"):
		return DegreeDoctorate
	case strings.Contains(d, "master"), strings.Contains(d, "msc"), strings.Contains(d, "m.s"), strings.Contains(d, "mba"), strings.Contains(d, "mtech"), strings.Contains(d, "m.tech"):
		return DegreeMaster
	case strings.Contains(d, "bachelor"), strings.Contains(d, "bsc"), strings.Contains(d, "b.s"), strings.Contains(d, "btech"), strings.Contains(d, "b.tech"), strings.Contains(d, "b.e"), strings.Contains(d, "be "):
		return DegreeBachelor
	case strings.Contains(d, "associate"), strings.Contains(d, "diploma"):
		return DegreeAssociate
	default:
		return DegreeUnknown
	}
}

// HighestDegreeLevel 返回记录中最高的学历层级
func (r *CandidateRecord) HighestDegreeLevel() DegreeLevel {
	highest := DegreeUnknown
	for _, edu := range r.Education {
		if lvl := ParseDegreeLevel(edu.Degree); lvl > highest {
			highest = lvl
		}
	}
	return highest
}

// SearchQuery 搜索请求：结构化过滤 + 可选自由文本语义排序
type SearchQuery struct {
	// RequiredSkills 必备技能（AND语义，规范化标识符）
	RequiredSkills []string `json:"required_skills,omitempty"`

	// MinEducation 最低学历过滤
	MinEducation DegreeLevel `json:"min_education,omitempty"`

	// MinExperienceYears 最低经验年限（非重叠经历时长之和）
	MinExperienceYears float64 `json:"min_experience_years,omitempty"`

	// FreeText 自由文本，非空时按语义相似度排序
	FreeText string `json:"free_text,omitempty"`

	// Limit 返回结果上限，0表示不限制
	Limit int `json:"limit,omitempty"`
}

// RankedCandidate 一条搜索结果
type RankedCandidate struct {
	Record *CandidateRecord `json:"record"`

	// Score 语义相似度分数；无查询文本时为0
	Score float64 `json:"score"`

	// MatchedSkills 命中的必备技能数量
	MatchedSkills int `json:"matched_skills"`
}
