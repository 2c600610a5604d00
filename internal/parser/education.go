package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"resume-skill-extractor/internal/types"
)

var (
	// 学位关键词表，覆盖常见缩写
	degreePattern = regexp.MustCompile(`(?i)\b(bachelor(?:'?s)?|master(?:'?s)?|ph\.?d|doctor(?:ate)?|associate|b\.?sc|m\.?sc|b\.?tech|m\.?tech|mba|bca|mca|b\.?e|b\.?a|m\.?a|b\.?s|m\.?s|diploma)\b`)
	// 院校类型关键词
	institutionPattern = regexp.MustCompile(`(?i)\b(university|college|institute|school|academy|polytechnic|iit|mit)\b`)
	// 毕业年份
	gradYearPattern = regexp.MustCompile(`\b(19[5-9]\d|20[0-3]\d)\b`)
	cgpaPattern     = regexp.MustCompile(`(?i)\b(?:cgpa|gpa)\s*[:\-]?\s*([0-9]+(?:\.[0-9]+)?)`)
)

// ParseEducation 将教育块切分为条目，提取学位、院校、年份与可选CGPA
// 畸形输入降级为部分结果，不报错
func ParseEducation(block string) []types.EducationEntry {
	if strings.TrimSpace(block) == "" {
		return nil
	}

	var entries []types.EducationEntry
	var current *types.EducationEntry

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-•*·‣– "))
		if line == "" {
			continue
		}

		hasDegree := degreePattern.MatchString(line)
		hasInstitution := institutionPattern.MatchString(line)

		if hasDegree || (hasInstitution && current != nil && current.Institution != "") {
			// 新条目
			if current != nil {
				entries = append(entries, *current)
			}
			entry := parseEducationLine(line)
			current = &entry
			continue
		}

		if current == nil {
			if hasInstitution {
				entry := parseEducationLine(line)
				current = &entry
			}
			continue
		}

		// 续行：补全院校、年份、CGPA
		if current.Institution == "" {
			if inst := extractInstitution(line); inst != "" {
				current.Institution = inst
			}
		}
		if current.Year == 0 {
			if y := extractGradYear(line); y != 0 {
				current.Year = y
			}
		}
		if current.CGPA == nil {
			if g := extractCGPA(line); g != nil {
				current.CGPA = g
			}
		}
	}
	if current != nil {
		entries = append(entries, *current)
	}
	return entries
}

// parseEducationLine 解析 "BSc Computer Science, MIT, 2019" 形式的单行条目
func parseEducationLine(line string) types.EducationEntry {
	entry := types.EducationEntry{Confidence: types.ConfidenceInferred}

	entry.Year = extractGradYear(line)
	entry.CGPA = extractCGPA(line)

	parts := strings.Split(line, ",")
	var leftovers []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch {
		case entry.Degree == "" && degreePattern.MatchString(part):
			entry.Degree = strings.TrimSpace(cgpaPattern.ReplaceAllString(part, ""))
		case entry.Institution == "" && institutionPattern.MatchString(part):
			entry.Institution = strings.TrimSpace(gradYearPattern.ReplaceAllString(part, ""))
			entry.Institution = strings.Trim(entry.Institution, " ,-")
		case gradYearPattern.MatchString(part) && countLetters(part) == 0:
			// 纯年份片段已被extractGradYear消化
		default:
			leftovers = append(leftovers, part)
		}
	}

	// 专有名词启发：没有院校关键词时，取首个大写开头的剩余片段当院校
	if entry.Institution == "" {
		for _, part := range leftovers {
			cleaned := strings.TrimSpace(gradYearPattern.ReplaceAllString(part, ""))
			cleaned = strings.Trim(cleaned, " ,-")
			if cleaned == "" {
				continue
			}
			r := []rune(cleaned)[0]
			if unicode.IsUpper(r) {
				entry.Institution = cleaned
				break
			}
		}
	}

	if entry.Degree != "" && entry.Institution != "" {
		entry.Confidence = types.ConfidenceFound
	}
	return entry
}

func extractInstitution(line string) string {
	if !institutionPattern.MatchString(line) {
		return ""
	}
	cleaned := gradYearPattern.ReplaceAllString(line, "")
	cleaned = cgpaPattern.ReplaceAllString(cleaned, "")
	return strings.Trim(strings.TrimSpace(cleaned), " ,-")
}

func extractGradYear(line string) int {
	// 取行内最后一个年份（起止年份区间时毕业年在后）
	matches := gradYearPattern.FindAllString(line, -1)
	if len(matches) == 0 {
		return 0
	}
	year, _ := strconv.Atoi(matches[len(matches)-1])
	return year
}

func extractCGPA(line string) *float64 {
	m := cgpaPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 || v > 10 {
		return nil
	}
	return &v
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
