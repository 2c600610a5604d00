package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-skill-extractor/internal/parser"
	"resume-skill-extractor/internal/types"
)

// TestParseEducation_SingleLine "学位, 院校, 年份" 单行解析
func TestParseEducation_SingleLine(t *testing.T) {
	entries := parser.ParseEducation("BSc Computer Science, MIT, 2019")

	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "BSc Computer Science", e.Degree)
	assert.Equal(t, "MIT", e.Institution)
	assert.Equal(t, 2019, e.Year)
	assert.Equal(t, types.ConfidenceFound, e.Confidence, "学位与院校齐全时为高置信")
}

// TestParseEducation_MultiLineWithCGPA 多行条目与CGPA续行
func TestParseEducation_MultiLineWithCGPA(t *testing.T) {
	block := `Master of Science in Data Engineering
Stanford University
2021, CGPA: 3.8`

	entries := parser.ParseEducation(block)

	require.Len(t, entries, 1)
	e := entries[0]
	assert.Contains(t, e.Degree, "Master")
	assert.Equal(t, "Stanford University", e.Institution)
	assert.Equal(t, 2021, e.Year)
	require.NotNil(t, e.CGPA)
	assert.InDelta(t, 3.8, *e.CGPA, 1e-9)
}

// TestParseEducation_MultipleEntries 多段教育经历
func TestParseEducation_MultipleEntries(t *testing.T) {
	block := `M.Tech, IIT Delhi, 2018
B.Tech, Anna University, 2016`

	entries := parser.ParseEducation(block)

	require.Len(t, entries, 2)
	assert.Equal(t, 2018, entries[0].Year)
	assert.Equal(t, 2016, entries[1].Year)
}

// TestParseEducation_CGPAOutOfRange 超出0~10范围的CGPA被丢弃
func TestParseEducation_CGPAOutOfRange(t *testing.T) {
	entries := parser.ParseEducation("MBA, Harvard Business School, 2020, CGPA: 88")

	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].CGPA)
}

// TestParseEducation_GradYearTakesLast 起止年份区间取最后一个年份
func TestParseEducation_GradYearTakesLast(t *testing.T) {
	entries := parser.ParseEducation("Bachelor of Engineering, State University, 2015 - 2019")

	require.Len(t, entries, 1)
	assert.Equal(t, 2019, entries[0].Year)
}

// TestParseEducation_NoDegreeKeyword 只有院校关键词时降级为低置信
func TestParseEducation_NoDegreeKeyword(t *testing.T) {
	entries := parser.ParseEducation("Central High School, 2012")

	require.Len(t, entries, 1)
	assert.Equal(t, types.ConfidenceInferred, entries[0].Confidence)
}

// TestParseEducation_Empty 空块返回空
func TestParseEducation_Empty(t *testing.T) {
	assert.Nil(t, parser.ParseEducation("\n  "))
}
