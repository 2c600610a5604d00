package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"resume-skill-extractor/internal/types"
)

// headerRule 章节标题识别规则：标签 -> 关键词同义词集合
// 声明式规则表，扩展新章节只需加一行，不动扫描逻辑
type headerRule struct {
	section  types.SectionType
	keywords []string
}

var headerRules = []headerRule{
	{types.SectionSkills, []string{
		"skills", "technical skills", "core competencies", "skill set",
		"technologies", "technical proficiencies", "key skills",
	}},
	{types.SectionExperience, []string{
		"experience", "work experience", "employment history",
		"professional experience", "work history", "career history",
		"employment", "internships",
	}},
	{types.SectionEducation, []string{
		"education", "academic background", "educational qualifications",
		"academics", "qualifications", "education and training",
	}},
	{types.SectionSummary, []string{
		"summary", "professional summary", "objective", "career objective",
		"profile", "about me", "personal statement",
	}},
	{types.SectionContact, []string{
		"contact", "contact information", "contact details",
		"personal details", "personal information",
	}},
}

// maxHeaderRunes 标题行长度上限，超过视为正文
const maxHeaderRunes = 48

var bulletPrefixes = []string{"-", "•", "*", "·", "+", "–", "—", "‣", "o "}

// SegmentText 将归一化文本切分为带标签的章节
// 完全识别不到标题时整篇归入 other，内容不丢弃（嵌入兜底需要它）
func SegmentText(text string) map[types.SectionType]string {
	sections := make(map[types.SectionType]string)
	if strings.TrimSpace(text) == "" {
		return sections
	}

	lines := strings.Split(text, "\n")

	current := types.SectionType("")
	var preamble []string
	blocks := make(map[types.SectionType][]string)

	for i, line := range lines {
		if sec, ok := matchHeader(lines, i); ok {
			current = sec
			continue
		}
		if current == "" {
			preamble = append(preamble, line)
			continue
		}
		blocks[current] = append(blocks[current], line)
	}

	if current == "" {
		// 零标题文档：整篇归入 other
		sections[types.SectionOther] = strings.TrimSpace(strings.Join(preamble, "\n"))
		return sections
	}

	// 首个标题之前的文本按启发式归入 contact 或 summary
	if pre := strings.TrimSpace(strings.Join(preamble, "\n")); pre != "" {
		if emailPattern.MatchString(pre) || phonePattern.MatchString(pre) {
			sections[types.SectionContact] = pre
		} else {
			sections[types.SectionSummary] = pre
		}
	}

	for sec, ls := range blocks {
		content := strings.TrimSpace(strings.Join(ls, "\n"))
		if content == "" {
			continue
		}
		if existing, ok := sections[sec]; ok && existing != "" {
			content = existing + "\n" + content
		}
		sections[sec] = content
	}
	return sections
}

// matchHeader 判断第i行是否是章节标题
// 保守策略：列表项内的行（如技能列表里的 "Project Management"）永远不当作标题，
// 要求行短、无句子标点、且要么前一行为空行、要么整行大写/词首大写
func matchHeader(lines []string, i int) (types.SectionType, bool) {
	line := strings.TrimSpace(lines[i])
	if line == "" {
		return "", false
	}
	if isBulletLine(line) {
		return "", false
	}
	if utf8.RuneCountInString(line) > maxHeaderRunes {
		return "", false
	}

	folded := strings.ToLower(strings.TrimSuffix(line, ":"))
	folded = strings.TrimSpace(folded)

	var section types.SectionType
	found := false
	for _, rule := range headerRules {
		for _, kw := range rule.keywords {
			if folded == kw {
				section = rule.section
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	if !found {
		return "", false
	}

	// 标点意味着句子而不是标题
	if strings.ContainsAny(line, ".,;!?") {
		return "", false
	}

	isolated := i == 0 || strings.TrimSpace(lines[i-1]) == ""
	if !isolated && !isEmphasized(line) {
		return "", false
	}
	return section, true
}

func isBulletLine(line string) bool {
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	// 编号列表: "1." "2)" 等
	if len(line) >= 2 && unicode.IsDigit(rune(line[0])) &&
		(line[1] == '.' || line[1] == ')') {
		return true
	}
	return false
}

// isEmphasized 整行大写或每个词首字母大写
func isEmphasized(line string) bool {
	hasLetter := false
	allUpper := true
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				allUpper = false
			}
		}
	}
	if hasLetter && allUpper {
		return true
	}

	words := strings.Fields(line)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
