package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"resume-skill-extractor/internal/types"
)

var (
	// "Jan 2020" / "January 2020"
	monthYearPattern = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?\s+((19|20)\d{2})\b`)
	// "01/2020" / "1-2020"
	numericMonthPattern = regexp.MustCompile(`\b(0?[1-9]|1[0-2])[/\-]((19|20)\d{2})\b`)
	// 裸年份
	bareYearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	// 在职关键词
	presentPattern = regexp.MustCompile(`(?i)\b(present|current|now|ongoing|till date|to date)\b`)
)

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseExperience 将经历块切分为条目
// 规则：含日期token的行开启新条目，其前一条未带日期的短行作为标题行；
// 日期策略：两个日期 -> (start, end)；一个日期+present关键词 -> 在职；
// 无可解析日期 -> 条目保留、日期为空并标记低置信
func ParseExperience(block string) []types.ExperienceEntry {
	if strings.TrimSpace(block) == "" {
		return nil
	}

	var entries []types.ExperienceEntry
	var current *types.ExperienceEntry
	var pending []string // 尚未归属的无日期行，可能是下一条的标题

	flushPending := func() {
		if current != nil && len(pending) > 0 {
			desc := strings.TrimSpace(strings.Join(pending, "\n"))
			if current.Description == "" {
				current.Description = desc
			} else {
				current.Description += "\n" + desc
			}
		}
		pending = nil
	}

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		dates := extractDates(line)
		hasPresent := presentPattern.MatchString(line)
		if len(dates) == 0 && !hasPresent {
			if current == nil {
				pending = append(pending, line)
			} else if len(pending) > 0 || looksLikeTitleLine(line) {
				// 描述行之后再出现标题样式的行，视为下一条目的开头
				pending = append(pending, line)
			} else {
				bullet := strings.TrimLeft(line, "-•*·‣– ")
				if current.Description == "" {
					current.Description = bullet
				} else {
					current.Description += "\n" + bullet
				}
			}
			continue
		}

		// 开启新条目
		if current != nil {
			entries = append(entries, *current)
		}
		entry := types.ExperienceEntry{Confidence: types.ConfidenceInferred}

		switch {
		case len(dates) >= 2:
			start, end := dates[0], dates[1]
			if end.Before(start) {
				start, end = end, start
			}
			entry.StartDate = &start
			entry.EndDate = &end
			entry.Confidence = types.ConfidenceFound
		case len(dates) == 1 && hasPresent:
			entry.StartDate = &dates[0]
			entry.Present = true
			entry.Confidence = types.ConfidenceFound
		case len(dates) == 1:
			entry.StartDate = &dates[0]
		}

		// 标题/公司：同一行去掉日期后的剩余文本，为空则取上一条无日期行
		remainder := stripDates(line)
		if remainder == "" && len(pending) > 0 {
			remainder = pending[len(pending)-1]
			pending = pending[:len(pending)-1]
		}
		entry.Title, entry.Organization = splitTitleOrganization(remainder)

		// 多余的pending行归入上一条目的描述
		if len(pending) > 0 && len(entries) > 0 {
			prev := &entries[len(entries)-1]
			desc := strings.TrimSpace(strings.Join(pending, "\n"))
			if prev.Description == "" {
				prev.Description = desc
			} else {
				prev.Description += "\n" + desc
			}
		}
		pending = nil
		current = &entry
	}

	flushPending()
	if current != nil {
		entries = append(entries, *current)
	}

	// 整块没有任何日期行：按空行分段，每段保留为低置信条目
	if len(entries) == 0 {
		for _, para := range strings.Split(block, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			lines := strings.SplitN(para, "\n", 2)
			entry := types.ExperienceEntry{Confidence: types.ConfidenceInferred}
			entry.Title, entry.Organization = splitTitleOrganization(lines[0])
			if len(lines) > 1 {
				entry.Description = strings.TrimSpace(lines[1])
			}
			entries = append(entries, entry)
		}
	}
	return entries
}

// extractDates 按出现顺序提取行内日期token（月精度，缺月份按1月）
func extractDates(line string) []time.Time {
	type hit struct {
		pos int
		t   time.Time
	}
	var hits []hit

	for _, m := range monthYearPattern.FindAllStringSubmatchIndex(line, -1) {
		mon := strings.ToLower(line[m[2]:m[3]])
		year, _ := strconv.Atoi(line[m[4]:m[5]])
		hits = append(hits, hit{m[0], time.Date(year, monthIndex[mon[:3]], 1, 0, 0, 0, 0, time.UTC)})
	}
	for _, m := range numericMonthPattern.FindAllStringSubmatchIndex(line, -1) {
		mon, _ := strconv.Atoi(line[m[2]:m[3]])
		year, _ := strconv.Atoi(line[m[4]:m[5]])
		hits = append(hits, hit{m[0], time.Date(year, time.Month(mon), 1, 0, 0, 0, 0, time.UTC)})
	}
	// 裸年份只在没被上面两种模式覆盖时计入
	covered := make([]bool, len(line))
	for _, m := range monthYearPattern.FindAllStringIndex(line, -1) {
		for i := m[0]; i < m[1]; i++ {
			covered[i] = true
		}
	}
	for _, m := range numericMonthPattern.FindAllStringIndex(line, -1) {
		for i := m[0]; i < m[1]; i++ {
			covered[i] = true
		}
	}
	for _, m := range bareYearPattern.FindAllStringIndex(line, -1) {
		if covered[m[0]] {
			continue
		}
		year, _ := strconv.Atoi(line[m[0]:m[1]])
		if year < 1950 || year > 2035 {
			continue
		}
		hits = append(hits, hit{m[0], time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)})
	}

	// 按行内出现位置排序
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := make([]time.Time, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.t)
	}
	return out
}

// stripDates 去掉行内日期与在职关键词，剩余部分作为标题候选
func stripDates(line string) string {
	s := monthYearPattern.ReplaceAllString(line, "")
	s = numericMonthPattern.ReplaceAllString(s, "")
	s = bareYearPattern.ReplaceAllString(s, "")
	s = presentPattern.ReplaceAllString(s, "")
	s = strings.Trim(s, " \t-–—|,()[]")
	return strings.TrimSpace(s)
}

// splitTitleOrganization 拆分 "Title at Company" / "Title - Company" / "Title, Company"
func splitTitleOrganization(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	for _, sep := range []string{" at ", " @ ", " - ", " – ", " — ", " | ", ", "} {
		if idx := strings.Index(s, sep); idx > 0 {
			return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+len(sep):])
		}
	}
	return s, ""
}

// looksLikeTitleLine 短且无句末标点的行可能是职位标题
func looksLikeTitleLine(line string) bool {
	if len(line) > 80 {
		return false
	}
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") || strings.HasPrefix(line, "*") {
		return false
	}
	return !strings.HasSuffix(line, ".")
}
