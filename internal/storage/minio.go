package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"resume-skill-extractor/internal/config"
)

// MinIO 原始简历文件存储
type MinIO struct {
	client *minio.Client
	bucket string
}

// NewMinIO 创建MinIO客户端并确保存储桶存在
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	bucket := cfg.BucketName
	if bucket == "" {
		bucket = "resume-files"
	}

	m := &MinIO{client: client, bucket: bucket}
	if err := m.ensureBucketExists(context.Background(), cfg.Location); err != nil {
		return nil, fmt.Errorf("确保存储桶 %s 存在失败: %w", bucket, err)
	}
	return m, nil
}

func (m *MinIO) ensureBucketExists(ctx context.Context, location string) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶是否存在时出错: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: location}); err != nil {
			return fmt.Errorf("创建存储桶失败: %w", err)
		}
		log.Printf("已创建MinIO存储桶: %s", m.bucket)
	}
	return nil
}

// UploadResumeFile 上传原始简历PDF，对象键按候选人ID组织
func (m *MinIO) UploadResumeFile(ctx context.Context, candidateID string, data []byte) (string, error) {
	objectName := fmt.Sprintf("resumes/%s.pdf", candidateID)
	_, err := m.client.PutObject(ctx, m.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return "", fmt.Errorf("上传简历文件失败: %w", err)
	}
	return objectName, nil
}

// DownloadResumeFile 下载原始简历PDF，供重新处理使用
func (m *MinIO) DownloadResumeFile(ctx context.Context, objectName string) ([]byte, error) {
	object, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取简历文件失败: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("读取简历文件内容失败: %w", err)
	}
	return data, nil
}

// DeleteResumeFile 删除原始简历PDF
func (m *MinIO) DeleteResumeFile(ctx context.Context, objectName string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除简历文件失败: %w", err)
	}
	return nil
}
