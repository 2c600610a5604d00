package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"resume-skill-extractor/internal/types"
)

func datePtr(year int, month time.Month) *time.Time {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return &t
}

// TestCandidateRecord_HasSkill 技能集合匹配
func TestCandidateRecord_HasSkill(t *testing.T) {
	r := &types.CandidateRecord{Skills: []string{"go", "python"}}

	assert.True(t, r.HasSkill("go"))
	assert.False(t, r.HasSkill("Go"), "匹配使用规范化标识符，不做折叠")
	assert.False(t, r.HasSkill("rust"))
}

// TestCandidateRecord_SearchableText 技能排序后拼接经历描述
func TestCandidateRecord_SearchableText(t *testing.T) {
	r := &types.CandidateRecord{
		Skills: []string{"python", "go"},
		Experience: []types.ExperienceEntry{
			{Title: "Engineer", Description: "Built pipelines"},
			{Title: "Intern"},
		},
	}

	text := r.SearchableText()
	assert.Equal(t, "go, python\nEngineer: Built pipelines", text,
		"技能按字典序排序，无描述的经历跳过")
}

// TestCandidateRecord_SearchableText_FallsBackToRawText 无结构化内容时回退原始文本
func TestCandidateRecord_SearchableText_FallsBackToRawText(t *testing.T) {
	r := &types.CandidateRecord{RawText: "unstructured resume body"}
	assert.Equal(t, "unstructured resume body", r.SearchableText())
}

// TestCandidateRecord_LatestExperienceEnd 在职条目排最前，否则取最晚结束时间
func TestCandidateRecord_LatestExperienceEnd(t *testing.T) {
	past := &types.CandidateRecord{
		Experience: []types.ExperienceEntry{
			{EndDate: datePtr(2019, time.June)},
			{EndDate: datePtr(2022, time.March)},
		},
	}
	assert.Equal(t, time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC), past.LatestExperienceEnd())

	active := &types.CandidateRecord{
		Experience: []types.ExperienceEntry{
			{EndDate: datePtr(2019, time.June)},
			{Present: true},
		},
	}
	assert.True(t, active.LatestExperienceEnd().After(past.LatestExperienceEnd()),
		"在职经历应晚于任何历史结束时间")
}

// TestParseDegreeLevel 学位文本映射到层级
func TestParseDegreeLevel(t *testing.T) {
	cases := map[string]types.DegreeLevel{
		"PhD in Computer Science": types.DegreeDoctorate,
		"Master of Science":       types.DegreeMaster,
		"MBA":                     types.DegreeMaster,
		"Bachelor of Engineering": types.DegreeBachelor,
		"BSc Computer Science":    types.DegreeBachelor,
		"B.Tech":                  types.DegreeBachelor,
		"Diploma in Electronics":  types.DegreeAssociate,
		"Certificate Course":      types.DegreeUnknown,
	}
	for degree, want := range cases {
		assert.Equal(t, want, types.ParseDegreeLevel(degree), "学位: %s", degree)
	}
}

// TestCandidateRecord_HighestDegreeLevel 取最高学历层级
func TestCandidateRecord_HighestDegreeLevel(t *testing.T) {
	r := &types.CandidateRecord{
		Education: []types.EducationEntry{
			{Degree: "BSc Computer Science"},
			{Degree: "Master of Science"},
		},
	}
	assert.Equal(t, types.DegreeMaster, r.HighestDegreeLevel())

	empty := &types.CandidateRecord{}
	assert.Equal(t, types.DegreeUnknown, empty.HighestDegreeLevel())
}
