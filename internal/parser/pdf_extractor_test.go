package parser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-skill-extractor/internal/parser"
)

// TestNormalizeText_CollapsesWhitespace 行内多余空白压缩为单个空格
func TestNormalizeText_CollapsesWhitespace(t *testing.T) {
	input := "Jane   Doe\t\tSoftware  Engineer"
	assert.Equal(t, "Jane Doe Software Engineer", parser.NormalizeText(input))
}

// TestNormalizeText_CollapsesBlankLines 连续空行压缩为一个
func TestNormalizeText_CollapsesBlankLines(t *testing.T) {
	input := "SKILLS\n\n\n\nPython\n\n\nGo"
	assert.Equal(t, "SKILLS\n\nPython\n\nGo", parser.NormalizeText(input))
}

// TestNormalizeText_LineEndingsAndFormFeed 统一换行符并把分页符转为换行
func TestNormalizeText_LineEndingsAndFormFeed(t *testing.T) {
	input := "Page one\r\nmore\rtext\x0cPage two"
	assert.Equal(t, "Page one\nmore\ntext\nPage two", parser.NormalizeText(input))
}

// TestNormalizeText_StripsControlChars 控制字符被剔除
func TestNormalizeText_StripsControlChars(t *testing.T) {
	input := "Hello\x00\x07World"
	assert.Equal(t, "HelloWorld", parser.NormalizeText(input))
}

// TestNormalizeText_TrimsTrailingBlankLines 去掉首尾空行
func TestNormalizeText_TrimsTrailingBlankLines(t *testing.T) {
	assert.Equal(t, "content", parser.NormalizeText("content\n\n\n"))
	assert.Equal(t, "", parser.NormalizeText("   \n \t \n"))
}

// TestPDFExtractor_EmptyInput 空字节返回不可读错误
func TestPDFExtractor_EmptyInput(t *testing.T) {
	extractor, err := parser.NewPDFExtractor(context.Background())
	require.NoError(t, err, "应该成功创建PDF提取器")

	_, _, err = extractor.ExtractFromBytes(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrUnreadablePDF)
}

// TestPDFExtractor_GarbageBytes 非PDF字节两种策略都失败，返回不可读错误
func TestPDFExtractor_GarbageBytes(t *testing.T) {
	extractor, err := parser.NewPDFExtractor(context.Background())
	require.NoError(t, err)

	_, _, err = extractor.ExtractFromBytes(context.Background(), []byte("this is not a pdf document"))
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrUnreadablePDF)
}
