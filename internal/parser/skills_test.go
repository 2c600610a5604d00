package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-skill-extractor/internal/parser"
)

// TestParseSkills_MixedDelimiters 逗号、分号、竖线、项目符号混用
func TestParseSkills_MixedDelimiters(t *testing.T) {
	block := "Python, Go; Docker | Kubernetes\n• Terraform\n- AWS"

	tokens := parser.ParseSkills(block)

	assert.Equal(t, []string{"Python", "Go", "Docker", "Kubernetes", "Terraform", "AWS"}, tokens,
		"应按文档顺序输出去掉项目符号的技能token")
}

// TestParseSkills_CaseInsensitiveDedup 大小写不同的重复项只保留首次出现
func TestParseSkills_CaseInsensitiveDedup(t *testing.T) {
	tokens := parser.ParseSkills("Python, python, PYTHON, Go")

	assert.Equal(t, []string{"Python", "Go"}, tokens)
}

// TestParseSkills_SpecialCharTokens C++、C#这类token需完整保留
func TestParseSkills_SpecialCharTokens(t *testing.T) {
	tokens := parser.ParseSkills("C++, C#, Node.js")

	assert.Contains(t, tokens, "C++")
	assert.Contains(t, tokens, "C#")
	assert.Contains(t, tokens, "Node.js")
}

// TestParseSkills_LongFragmentSkipped 超长片段按正文处理，不进技能列表
func TestParseSkills_LongFragmentSkipped(t *testing.T) {
	long := strings.Repeat("x", 60)
	tokens := parser.ParseSkills("Go, " + long + ", Rust")

	assert.Equal(t, []string{"Go", "Rust"}, tokens)
}

// TestParseSkills_Empty 空块返回空列表
func TestParseSkills_Empty(t *testing.T) {
	assert.Nil(t, parser.ParseSkills(""))
	assert.Nil(t, parser.ParseSkills("  \n\t "))
}
