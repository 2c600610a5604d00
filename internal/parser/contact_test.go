package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-skill-extractor/internal/parser"
	"resume-skill-extractor/internal/types"
)

// TestParseContact_Full 测试完整联系方式块的解析
func TestParseContact_Full(t *testing.T) {
	block := `Jane Doe
San Francisco, CA
Jane.Doe@Example.COM
+1 (415) 555-0100
linkedin.com/in/janedoe`

	info := parser.ParseContact(block)

	assert.Equal(t, "jane.doe@example.com", info.Identity.Email, "邮箱应统一转小写")
	assert.Equal(t, types.ConfidenceFound, info.EmailConfidence)

	assert.Equal(t, "+1 (415) 555-0100", info.Identity.Phone)
	assert.Equal(t, types.ConfidenceFound, info.PhoneConfidence)

	assert.Equal(t, "Jane Doe", info.Identity.Name, "姓名取首条干净文本行")
	assert.Equal(t, types.ConfidenceInferred, info.NameConfidence, "姓名是启发式猜测")

	assert.Equal(t, "San Francisco, CA", info.Identity.Location)
}

// TestParseContact_YearRangeNotPhone 年份区间不应被当作电话号码
func TestParseContact_YearRangeNotPhone(t *testing.T) {
	block := `John Smith
2019 - 2023
john@example.com`

	info := parser.ParseContact(block)

	assert.Empty(t, info.Identity.Phone, "年份区间不是电话号码")
	assert.Equal(t, types.ConfidenceMissing, info.PhoneConfidence)
	assert.Equal(t, "John Smith", info.Identity.Name)
}

// TestParseContact_MissingFields 缺字段时置信度为missing
func TestParseContact_MissingFields(t *testing.T) {
	info := parser.ParseContact("Some unstructured text without signal")

	assert.Empty(t, info.Identity.Email)
	assert.Equal(t, types.ConfidenceMissing, info.EmailConfidence)
	assert.Empty(t, info.Identity.Phone)
	assert.Equal(t, types.ConfidenceMissing, info.PhoneConfidence)
}

// TestParseContact_EmptyBlock 空块返回全missing，不报错
func TestParseContact_EmptyBlock(t *testing.T) {
	info := parser.ParseContact("   \n  ")

	assert.Equal(t, types.ConfidenceMissing, info.NameConfidence)
	assert.Equal(t, types.ConfidenceMissing, info.EmailConfidence)
	assert.Equal(t, types.ConfidenceMissing, info.PhoneConfidence)
}

// TestParseContact_NameSkipsNoise 姓名猜测跳过含邮箱、URL和数字多的行
func TestParseContact_NameSkipsNoise(t *testing.T) {
	block := `jane@example.com
github.com/janedoe
+1 415 555 0100
Jane Doe`

	info := parser.ParseContact(block)

	assert.Equal(t, "Jane Doe", info.Identity.Name)
}

// TestParseContact_PhoneDigitBounds 数字位数不足7位的串不算电话
func TestParseContact_PhoneDigitBounds(t *testing.T) {
	info := parser.ParseContact("Ref: 12-34-56")

	assert.Empty(t, info.Identity.Phone)
}
