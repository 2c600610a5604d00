package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-skill-extractor/internal/storage/models"
	"resume-skill-extractor/internal/types"
)

// TestToJSON_FromJSON JSON列值往返不丢字段
func TestToJSON_FromJSON(t *testing.T) {
	entries := []types.ExperienceEntry{
		{Title: "Engineer", Organization: "Acme", Confidence: types.ConfidenceFound},
	}

	column, err := models.ToJSON(entries)
	require.NoError(t, err, "应该成功序列化为JSON列")
	require.NotEmpty(t, column)

	var decoded []types.ExperienceEntry
	require.NoError(t, models.FromJSON(column, &decoded))
	assert.Equal(t, entries, decoded)
}

// TestToJSON_Nil nil值得到空列
func TestToJSON_Nil(t *testing.T) {
	column, err := models.ToJSON(nil)
	require.NoError(t, err)
	assert.Nil(t, column)
}

// TestFromJSON_EmptyColumn 空列不改写目标值
func TestFromJSON_EmptyColumn(t *testing.T) {
	skills := []string{"go"}
	require.NoError(t, models.FromJSON(nil, &skills))
	assert.Equal(t, []string{"go"}, skills, "空列应保持目标值不变")
}

// TestFromJSON_Malformed 畸形JSON报错
func TestFromJSON_Malformed(t *testing.T) {
	var dest []string
	err := models.FromJSON([]byte("{not json"), &dest)
	assert.Error(t, err)
}

// TestCandidate_TableName 表名固定
func TestCandidate_TableName(t *testing.T) {
	assert.Equal(t, "candidates", models.Candidate{}.TableName())
}
