package parser

import (
	"strings"
	"unicode/utf8"
)

// maxSkillTokenRunes 超过此长度的片段视为正文而非技能
const maxSkillTokenRunes = 40

// skillDelimiters 技能列表常见分隔符：逗号、分号、竖线、项目符号
var skillDelimiters = func(r rune) bool {
	switch r {
	case ',', ';', '|', '•', '·', '‣', '\n', '\t':
		return true
	}
	return false
}

// ParseSkills 按分隔符切分技能块，保留文档顺序输出原始技能token
// 空块返回空列表，不报错
func ParseSkills(block string) []string {
	if strings.TrimSpace(block) == "" {
		return nil
	}

	var tokens []string
	seen := make(map[string]struct{})
	for _, raw := range strings.FieldsFunc(block, skillDelimiters) {
		token := strings.TrimSpace(raw)
		token = strings.TrimLeft(token, "-–—* ")
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if utf8.RuneCountInString(token) > maxSkillTokenRunes {
			continue
		}
		// 文档内去重，保留首次出现的位置
		key := strings.ToLower(token)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}
