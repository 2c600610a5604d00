package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Candidate 候选人主表
// 结构化字段与嵌入向量在同一行，保证单次写入内一致落盘
type Candidate struct {
	CandidateID string `gorm:"type:char(36);primaryKey"`
	Name        string `gorm:"type:varchar(255)"`
	Email       string `gorm:"type:varchar(255);index:idx_candidates_email"`
	Phone       string `gorm:"type:varchar(50)"`
	Location    string `gorm:"type:varchar(255)"`

	SkillsJSON        datatypes.JSON `gorm:"type:json"`
	SkillsDisplayJSON datatypes.JSON `gorm:"type:json"`
	ExperienceJSON    datatypes.JSON `gorm:"type:json"`
	EducationJSON     datatypes.JSON `gorm:"type:json"`
	ConfidenceJSON    datatypes.JSON `gorm:"type:json"`
	EmbeddingJSON     datatypes.JSON `gorm:"type:json"`

	RawText   string   `gorm:"type:mediumtext"`
	MaxCGPA   *float64 `gorm:"type:float"`
	SourceMD5 string   `gorm:"type:char(32);index:idx_candidates_source_md5"`
	PageCount int      `gorm:"type:int"`
	Hired     bool     `gorm:"type:tinyint(1);default:0;index:idx_candidates_hired"`

	CreatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// ToJSON 将任意可序列化值转换为datatypes.JSON列值
func ToJSON(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("序列化为JSON列失败: %w", err)
	}
	return datatypes.JSON(data), nil
}

// FromJSON 从datatypes.JSON列值反序列化
func FromJSON(column datatypes.JSON, dest interface{}) error {
	if len(column) == 0 {
		return nil
	}
	if err := json.Unmarshal(column, dest); err != nil {
		return fmt.Errorf("解析JSON列失败: %w", err)
	}
	return nil
}
