package parser_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-skill-extractor/internal/parser"
	"resume-skill-extractor/internal/types"
)

// TestParseExperience_TwoDates 同行两个日期解析为起止时间
func TestParseExperience_TwoDates(t *testing.T) {
	block := `Software Engineer at Acme Corp
Jan 2020 - Mar 2022
- Built data pipelines`

	entries := parser.ParseExperience(block)

	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "Software Engineer", e.Title)
	assert.Equal(t, "Acme Corp", e.Organization)
	require.NotNil(t, e.StartDate)
	require.NotNil(t, e.EndDate)
	assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), *e.StartDate)
	assert.Equal(t, time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC), *e.EndDate)
	assert.False(t, e.Present)
	assert.Equal(t, types.ConfidenceFound, e.Confidence)
	assert.Contains(t, e.Description, "data pipelines")
}

// TestParseExperience_Present 单个日期加在职关键词
func TestParseExperience_Present(t *testing.T) {
	block := `Senior Engineer at Foo Inc
Jun 2021 - Present`

	entries := parser.ParseExperience(block)

	require.Len(t, entries, 1)
	e := entries[0]
	require.NotNil(t, e.StartDate)
	assert.Nil(t, e.EndDate)
	assert.True(t, e.Present, "应标记为在职")
	assert.Equal(t, types.ConfidenceFound, e.Confidence)
}

// TestParseExperience_ReversedDates 日期顺序颠倒时应自动交换
func TestParseExperience_ReversedDates(t *testing.T) {
	entries := parser.ParseExperience("Engineer at Bar\n2022 - 2019")

	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].StartDate)
	require.NotNil(t, entries[0].EndDate)
	assert.True(t, entries[0].StartDate.Before(*entries[0].EndDate), "起始日期应早于结束日期")
}

// TestParseExperience_SingleDateInferred 只有一个日期且无在职关键词时为低置信
func TestParseExperience_SingleDateInferred(t *testing.T) {
	entries := parser.ParseExperience("Analyst at Baz\nJoined Mar 2021")

	require.Len(t, entries, 1)
	assert.Equal(t, types.ConfidenceInferred, entries[0].Confidence)
	require.NotNil(t, entries[0].StartDate)
	assert.Nil(t, entries[0].EndDate)
}

// TestParseExperience_NumericMonthFormat "01/2020" 数字月份格式
func TestParseExperience_NumericMonthFormat(t *testing.T) {
	entries := parser.ParseExperience("DevOps Engineer at Qux\n01/2020 - 06/2021")

	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].StartDate)
	assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), *entries[0].StartDate)
	require.NotNil(t, entries[0].EndDate)
	assert.Equal(t, time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC), *entries[0].EndDate)
}

// TestParseExperience_MultipleEntries 多条目切分并归属标题行
func TestParseExperience_MultipleEntries(t *testing.T) {
	block := `Backend Engineer at Acme
Jan 2020 - Dec 2021
- Owned billing service

Platform Engineer at Beta
Feb 2022 - Present
- Ran the k8s fleet`

	entries := parser.ParseExperience(block)

	require.Len(t, entries, 2)
	assert.Equal(t, "Acme", entries[0].Organization)
	assert.Equal(t, "Beta", entries[1].Organization)
	assert.True(t, entries[1].Present)
	assert.Contains(t, entries[0].Description, "billing")
}

// TestParseExperience_NoDatesFallback 整块无日期时按段落降级为低置信条目
func TestParseExperience_NoDatesFallback(t *testing.T) {
	block := `Freelance consultant for several startups
Helped with cloud migrations

Volunteer work at local nonprofit`

	entries := parser.ParseExperience(block)

	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, types.ConfidenceInferred, e.Confidence, "无日期条目应为低置信")
		assert.Nil(t, e.StartDate)
	}
}

// TestParseExperience_Empty 空块返回空
func TestParseExperience_Empty(t *testing.T) {
	assert.Nil(t, parser.ParseExperience("  \n "))
}

// TestParseExperience_TitleOnDateLine 日期与标题同行
func TestParseExperience_TitleOnDateLine(t *testing.T) {
	entries := parser.ParseExperience("Data Scientist at DeepLab (Mar 2019 - Aug 2020)")

	require.Len(t, entries, 1)
	assert.Equal(t, "Data Scientist", entries[0].Title)
	assert.Equal(t, "DeepLab", entries[0].Organization)
	assert.Equal(t, types.ConfidenceFound, entries[0].Confidence)
}
