package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-skill-extractor/internal/parser"
	"resume-skill-extractor/internal/types"
)

// TestSegmentText_StandardResume 测试标准简历的章节切分
func TestSegmentText_StandardResume(t *testing.T) {
	text := `Jane Doe
jane.doe@example.com
+1 415 555 0100

SKILLS
Python, Go, Docker

EXPERIENCE
Software Engineer at Acme Corp
Jan 2020 - Present
- Built data pipelines

EDUCATION
BSc Computer Science, MIT, 2019`

	sections := parser.SegmentText(text)

	require.Contains(t, sections, types.SectionSkills, "应识别到技能章节")
	require.Contains(t, sections, types.SectionExperience, "应识别到经历章节")
	require.Contains(t, sections, types.SectionEducation, "应识别到教育章节")

	assert.Contains(t, sections[types.SectionSkills], "Python")
	assert.Contains(t, sections[types.SectionExperience], "Acme Corp")
	assert.Contains(t, sections[types.SectionEducation], "MIT")

	// 首个标题前含邮箱的部分归入contact
	require.Contains(t, sections, types.SectionContact)
	assert.Contains(t, sections[types.SectionContact], "jane.doe@example.com")
}

// TestSegmentText_HeaderWithColon 测试带冒号和大小写变体的标题
func TestSegmentText_HeaderWithColon(t *testing.T) {
	text := `Skills:
Go, Rust

Work Experience:
Engineer at Foo
2018 - 2020`

	sections := parser.SegmentText(text)

	require.Contains(t, sections, types.SectionSkills)
	require.Contains(t, sections, types.SectionExperience)
	assert.Contains(t, sections[types.SectionSkills], "Rust")
}

// TestSegmentText_KeywordInsideBulletNotHeader 列表项内出现章节关键词时不应切分
func TestSegmentText_KeywordInsideBulletNotHeader(t *testing.T) {
	text := `SKILLS
- Python
- Experience
- Docker

EDUCATION
BSc, State University, 2020`

	sections := parser.SegmentText(text)

	// "- Experience" 是技能列表的一项，不是新章节的开始
	require.Contains(t, sections, types.SectionSkills)
	assert.Contains(t, sections[types.SectionSkills], "- Experience")
	assert.NotContains(t, sections, types.SectionExperience)
}

// TestSegmentText_KeywordMidSentenceNotHeader 紧跟正文且非强调样式的关键词行不算标题
func TestSegmentText_KeywordMidSentenceNotHeader(t *testing.T) {
	text := `SUMMARY
Seasoned engineer with broad
experience
in distributed systems`

	sections := parser.SegmentText(text)

	// 小写"experience"前一行非空行且非强调样式，应保留在summary内
	require.Contains(t, sections, types.SectionSummary)
	assert.Contains(t, sections[types.SectionSummary], "experience")
	assert.NotContains(t, sections, types.SectionExperience)
}

// TestSegmentText_NoHeaders 零标题文档整篇归入other
func TestSegmentText_NoHeaders(t *testing.T) {
	text := `John worked at several companies over ten years.
He knows Python and SQL.`

	sections := parser.SegmentText(text)

	require.Contains(t, sections, types.SectionOther)
	assert.Contains(t, sections[types.SectionOther], "Python")
	assert.Len(t, sections, 1, "零标题文档只应有other章节")
}

// TestSegmentText_Empty 空文本返回空映射
func TestSegmentText_Empty(t *testing.T) {
	assert.Empty(t, parser.SegmentText(""))
	assert.Empty(t, parser.SegmentText("   \n\n  "))
}

// TestSegmentText_PreambleWithoutContact 首标题前无邮箱电话时归入summary
func TestSegmentText_PreambleWithoutContact(t *testing.T) {
	text := `Seasoned backend engineer.

SKILLS
Go`

	sections := parser.SegmentText(text)

	require.Contains(t, sections, types.SectionSummary)
	assert.Contains(t, sections[types.SectionSummary], "backend engineer")
}

// TestSegmentText_DuplicateHeaders 重复标题的内容应合并而不是覆盖
func TestSegmentText_DuplicateHeaders(t *testing.T) {
	text := `EXPERIENCE
Engineer at Foo
2018 - 2019

EXPERIENCE
Manager at Bar
2020 - 2021`

	sections := parser.SegmentText(text)

	require.Contains(t, sections, types.SectionExperience)
	assert.Contains(t, sections[types.SectionExperience], "Foo")
	assert.Contains(t, sections[types.SectionExperience], "Bar")
}

// TestSegmentText_LongLineNotHeader 超长行即使包含关键词也不算标题
func TestSegmentText_LongLineNotHeader(t *testing.T) {
	text := `SUMMARY
Education is the most important thing in my life and I have dedicated many years to it here`

	sections := parser.SegmentText(text)

	assert.NotContains(t, sections, types.SectionEducation)
}
