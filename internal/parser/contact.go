package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"resume-skill-extractor/internal/types"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// 容忍各种分隔符的电话号码分组，有效性由数字位数二次校验
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9()\s\-.]{5,18}[0-9]`)
	urlPattern   = regexp.MustCompile(`(?i)(https?://|www\.|linkedin\.com/|github\.com/)\S*`)
	// "City, ST" 或 "City, Country" 形式的地点行
	locationPattern = regexp.MustCompile(`^[A-Z][A-Za-z .\-]+,\s*[A-Z][A-Za-z .\-]*$`)
	yearRangePattern = regexp.MustCompile(`^\s*(19|20)\d{2}\s*[-–—]\s*(19|20)\d{2}\s*$`)
)

// maxNameRunes 姓名猜测的长度上限，更长的行按正文处理
const maxNameRunes = 48

// ContactInfo 联系方式解析结果
type ContactInfo struct {
	Identity        types.Identity
	NameConfidence  types.Confidence
	EmailConfidence types.Confidence
	PhoneConfidence types.Confidence
}

// ParseContact 从文本块提取邮箱、电话和姓名猜测
// 空块或格式混乱时返回部分结果，不报错
func ParseContact(block string) ContactInfo {
	info := ContactInfo{
		NameConfidence:  types.ConfidenceMissing,
		EmailConfidence: types.ConfidenceMissing,
		PhoneConfidence: types.ConfidenceMissing,
	}
	if strings.TrimSpace(block) == "" {
		return info
	}

	// 第一个形似RFC格式的邮箱
	if m := emailPattern.FindString(block); m != "" {
		info.Identity.Email = strings.ToLower(m)
		info.EmailConfidence = types.ConfidenceFound
	}

	// 电话：匹配候选后按纯数字位数7~15校验，避免把年份区间当号码
	for _, cand := range phonePattern.FindAllString(block, -1) {
		digits := countDigits(cand)
		if digits >= 7 && digits <= 15 && !looksLikeYearRange(cand) {
			info.Identity.Phone = strings.TrimSpace(cand)
			info.PhoneConfidence = types.ConfidenceFound
			break
		}
	}

	// 姓名猜测：第一条不含邮箱/电话/URL的非空行
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if emailPattern.MatchString(line) || urlPattern.MatchString(line) {
			continue
		}
		if countDigits(line) >= 7 {
			continue
		}
		if utf8.RuneCountInString(line) > maxNameRunes {
			continue
		}
		info.Identity.Name = line
		info.NameConfidence = types.ConfidenceInferred
		break
	}

	// 地点：姓名之后第一条形如 "City, ST" 的行
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == info.Identity.Name {
			continue
		}
		if locationPattern.MatchString(line) && countDigits(line) == 0 {
			info.Identity.Location = line
			break
		}
	}

	return info
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// looksLikeYearRange "2019-2023" 这类区间不是电话号码
func looksLikeYearRange(s string) bool {
	return yearRangePattern.MatchString(s)
}
