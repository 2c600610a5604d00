package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"resume-skill-extractor/internal/config"
	"resume-skill-extractor/internal/processor"
	"resume-skill-extractor/internal/storage/models"
	"resume-skill-extractor/internal/types"
)

var mysqlTracer = otel.Tracer("resume-skill-extractor/storage/mysql")

// 确保MySQL实现了CandidateStore接口
var _ processor.CandidateStore = (*MySQL)(nil)

// MySQL 候选人主存储
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端并自动迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	var logLevel gormlogger.LogLevel
	switch cfg.LogLevel {
	case "silent":
		logLevel = gormlogger.Silent
	case "error":
		logLevel = gormlogger.Error
	case "warn":
		logLevel = gormlogger.Warn
	default:
		logLevel = gormlogger.Info
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	if err := db.AutoMigrate(&models.Candidate{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return &MySQL{db: db, cfg: cfg}, nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// SaveCandidate 保存候选人记录
// 主键冲突时整行覆盖：同一源文件重新处理不会残留旧字段
func (m *MySQL) SaveCandidate(ctx context.Context, record *types.CandidateRecord) error {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.SaveCandidate",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		semconv.DBSystemMySQL,
		attribute.String("db.sql.table", "candidates"),
		attribute.String("candidate.id", record.CandidateID),
	)

	model, err := recordToModel(record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "candidate_id"}},
		UpdateAll: true,
	}).Create(model).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("保存候选人记录失败: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// GetCandidate 按ID取回候选人记录
func (m *MySQL) GetCandidate(ctx context.Context, candidateID string) (*types.CandidateRecord, error) {
	var model models.Candidate
	err := m.db.WithContext(ctx).First(&model, "candidate_id = ?", candidateID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", processor.ErrCandidateNotFound, candidateID)
		}
		return nil, fmt.Errorf("查询候选人失败: %w", err)
	}
	return modelToRecord(&model)
}

// ListCandidates 按CandidateID升序分页列出记录，保证遍历顺序确定
func (m *MySQL) ListCandidates(ctx context.Context, limit, offset int) ([]*types.CandidateRecord, error) {
	var rows []models.Candidate
	query := m.db.WithContext(ctx).Order("candidate_id asc").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("列出候选人失败: %w", err)
	}

	records := make([]*types.CandidateRecord, 0, len(rows))
	for i := range rows {
		record, err := modelToRecord(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// SetHired 标记录用/入围状态
func (m *MySQL) SetHired(ctx context.Context, candidateID string, hired bool) error {
	result := m.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("candidate_id = ?", candidateID).
		Update("hired", hired)
	if result.Error != nil {
		return fmt.Errorf("更新录用状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", processor.ErrCandidateNotFound, candidateID)
	}
	return nil
}

// DeleteCandidate 删除候选人记录
func (m *MySQL) DeleteCandidate(ctx context.Context, candidateID string) error {
	result := m.db.WithContext(ctx).Delete(&models.Candidate{}, "candidate_id = ?", candidateID)
	if result.Error != nil {
		return fmt.Errorf("删除候选人失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", processor.ErrCandidateNotFound, candidateID)
	}
	return nil
}

// FindBySourceMD5 通过源文件MD5查找候选人，用于上传去重兜底
func (m *MySQL) FindBySourceMD5(ctx context.Context, md5 string) (*types.CandidateRecord, error) {
	var model models.Candidate
	err := m.db.WithContext(ctx).First(&model, "source_md5 = ?", md5).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: md5=%s", processor.ErrCandidateNotFound, md5)
		}
		return nil, fmt.Errorf("按MD5查询候选人失败: %w", err)
	}
	return modelToRecord(&model)
}

// ListMissingEmbeddings 列出嵌入缺失的候选人ID，用于回填任务
func (m *MySQL) ListMissingEmbeddings(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	query := m.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("embedding_json IS NULL OR JSON_LENGTH(embedding_json) = 0").
		Order("candidate_id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("candidate_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("查询缺失嵌入的候选人失败: %w", err)
	}
	return ids, nil
}

func recordToModel(record *types.CandidateRecord) (*models.Candidate, error) {
	model := &models.Candidate{
		CandidateID: record.CandidateID,
		Name:        record.Identity.Name,
		Email:       record.Identity.Email,
		Phone:       record.Identity.Phone,
		Location:    record.Identity.Location,
		RawText:     record.RawText,
		MaxCGPA:     record.MaxCGPA,
		SourceMD5:   record.SourceMD5,
		PageCount:   record.PageCount,
		Hired:       record.Hired,
	}

	var err error
	if model.SkillsJSON, err = models.ToJSON(record.Skills); err != nil {
		return nil, err
	}
	if model.SkillsDisplayJSON, err = models.ToJSON(record.SkillsDisplay); err != nil {
		return nil, err
	}
	if model.ExperienceJSON, err = models.ToJSON(record.Experience); err != nil {
		return nil, err
	}
	if model.EducationJSON, err = models.ToJSON(record.Education); err != nil {
		return nil, err
	}
	if model.ConfidenceJSON, err = models.ToJSON(record.Confidence); err != nil {
		return nil, err
	}
	if model.EmbeddingJSON, err = models.ToJSON(record.Embedding); err != nil {
		return nil, err
	}
	return model, nil
}

func modelToRecord(model *models.Candidate) (*types.CandidateRecord, error) {
	record := &types.CandidateRecord{
		CandidateID: model.CandidateID,
		Identity: types.Identity{
			Name:     model.Name,
			Email:    model.Email,
			Phone:    model.Phone,
			Location: model.Location,
		},
		RawText:   model.RawText,
		MaxCGPA:   model.MaxCGPA,
		SourceMD5: model.SourceMD5,
		PageCount: model.PageCount,
		Hired:     model.Hired,
	}

	if err := models.FromJSON(model.SkillsJSON, &record.Skills); err != nil {
		return nil, err
	}
	if err := models.FromJSON(model.SkillsDisplayJSON, &record.SkillsDisplay); err != nil {
		return nil, err
	}
	if err := models.FromJSON(model.ExperienceJSON, &record.Experience); err != nil {
		return nil, err
	}
	if err := models.FromJSON(model.EducationJSON, &record.Education); err != nil {
		return nil, err
	}
	if err := models.FromJSON(model.ConfidenceJSON, &record.Confidence); err != nil {
		return nil, err
	}
	if err := models.FromJSON(model.EmbeddingJSON, &record.Embedding); err != nil {
		return nil, err
	}
	return record, nil
}
