package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-skill-extractor/internal/config"
)

// TestDefaultConfig 默认值检查
func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Equal(t, "resume_extractor", cfg.MySQL.Database)
	assert.Equal(t, 30, cfg.Redis.MD5RecordExpireDays)
	assert.Equal(t, "resume-files", cfg.MinIO.BucketName)
	assert.Equal(t, "resume.events.exchange", cfg.RabbitMQ.UploadExchange)
	assert.Equal(t, "q.raw_resume_uploaded", cfg.RabbitMQ.RawResumeQueue)
	assert.Equal(t, 384, cfg.Qdrant.Dimension)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", cfg.Embedding.Model)
	assert.InDelta(t, 0.8, cfg.Vocabulary.FuzzyThreshold, 1e-9)
	assert.Equal(t, "memory", cfg.Vocabulary.Backend)
	assert.False(t, cfg.Tracing.Enabled, "链路追踪默认关闭")
}

// TestMySQLConfig_DSN 连接串格式
func TestMySQLConfig_DSN(t *testing.T) {
	cfg := config.MySQLConfig{
		Host:     "db.internal",
		Port:     3307,
		Username: "app",
		Password: "secret",
		Database: "resumes",
	}
	assert.Equal(t,
		"app:secret@tcp(db.internal:3307)/resumes?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DSN())
}

// TestLoadConfig_FromFile YAML文件覆盖默认值，未出现的字段保留默认值
func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  address: ":9090"
mysql:
  host: "mysql.test"
  database: "override_db"
vocabulary:
  fuzzy_threshold: 0.9
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err, "应该成功加载配置文件")

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "mysql.test", cfg.MySQL.Host)
	assert.Equal(t, "override_db", cfg.MySQL.Database)
	assert.InDelta(t, 0.9, cfg.Vocabulary.FuzzyThreshold, 1e-9)

	// 文件未覆盖的字段保留默认值
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
}

// TestLoadConfig_EnvOverrides 环境变量覆盖敏感配置
func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":9090\"\n"), 0o644))

	t.Setenv("HF_API_KEY", "env-hf-key")
	t.Setenv("MYSQL_PASSWORD", "env-db-pass")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-hf-key", cfg.HuggingFace.APIKey)
	assert.Equal(t, "env-db-pass", cfg.MySQL.Password)
}

// TestLoadConfig_MissingFile 指定路径不存在时报错
func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.LoadConfig("/no/such/config.yaml")
	assert.Error(t, err)
}

// TestLoadConfig_MalformedYAML 畸形YAML报错
func TestLoadConfig_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{ not yaml"), 0o644))

	_, err := config.LoadConfig(path)
	assert.Error(t, err)
}
