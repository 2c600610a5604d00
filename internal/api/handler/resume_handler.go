package handler

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"resume-skill-extractor/internal/config"
	"resume-skill-extractor/internal/logger"
	"resume-skill-extractor/internal/parser"
	"resume-skill-extractor/internal/processor"
	"resume-skill-extractor/internal/search"
	"resume-skill-extractor/internal/storage"
	"resume-skill-extractor/internal/types"
)

// ResumeHandler 简历处理入口，协调上传、处理、检索与问题生成
type ResumeHandler struct {
	cfg             *config.Config
	storage         *storage.Storage
	processorModule *processor.ResumeProcessor
	searchEngine    *search.Engine
}

// NewResumeHandler 创建简历处理器
func NewResumeHandler(
	cfg *config.Config,
	storage *storage.Storage,
	processorModule *processor.ResumeProcessor,
	searchEngine *search.Engine,
) *ResumeHandler {
	return &ResumeHandler{
		cfg:             cfg,
		storage:         storage,
		processorModule: processorModule,
		searchEngine:    searchEngine,
	}
}

// ResumeUploadResponse 简历上传响应
type ResumeUploadResponse struct {
	CandidateID string `json:"candidate_id"`
	Status      string `json:"status"`
}

// 上传处理状态
const (
	StatusSubmitted        = "SUBMITTED_FOR_PROCESSING"
	StatusProcessed        = "PROCESSED"
	StatusDuplicateSkipped = "DUPLICATE_FILE_SKIPPED"
)

// HandleResumeUpload 处理简历上传
// 有消息队列时异步投递；否则同步处理。重复文件按MD5直接跳过
func (h *ResumeHandler) HandleResumeUpload(ctx context.Context, reader io.Reader, filename string) (*ResumeUploadResponse, error) {
	fileBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件内容失败: %w", err)
	}
	if len(fileBytes) == 0 {
		return nil, fmt.Errorf("上传文件为空")
	}

	md5Sum := md5.Sum(fileBytes)
	fileMD5 := hex.EncodeToString(md5Sum[:])
	candidateID := processor.CandidateIDForBytes(fileBytes)

	// MD5去重：SetNX保证并发上传同一文件只放行一个
	if h.storage.Redis != nil {
		first, err := h.storage.Redis.MarkSourceMD5(ctx, fileMD5, candidateID)
		if err != nil {
			logger.Error().Err(err).Str("md5", fileMD5).Msg("查询文件MD5去重键失败")
			return nil, fmt.Errorf("检查文件重复性失败: %w", err)
		}
		if !first {
			logger.Info().
				Str("md5", fileMD5).
				Str("filename", filename).
				Msg("检测到重复的文件MD5，跳过处理")
			return &ResumeUploadResponse{
				CandidateID: candidateID,
				Status:      StatusDuplicateSkipped,
			}, nil
		}
	}

	// 原始文件落盘对象存储，供失败重试与回填使用
	var objectPath string
	if h.storage.MinIO != nil {
		objectPath, err = h.storage.MinIO.UploadResumeFile(ctx, candidateID, fileBytes)
		if err != nil {
			return nil, fmt.Errorf("上传简历到对象存储失败: %w", err)
		}
	}

	// 异步路径：发布上传事件，由消费者执行提取流水线
	if h.storage.RabbitMQ != nil && objectPath != "" {
		event := &storage.ResumeUploadedEvent{
			CandidateID:      candidateID,
			ObjectPath:       objectPath,
			OriginalFilename: filename,
			SourceMD5:        fileMD5,
			UploadedAt:       time.Now(),
		}
		if err := h.storage.RabbitMQ.PublishUploadEvent(ctx, event); err != nil {
			return nil, fmt.Errorf("发布上传事件失败: %w", err)
		}
		return &ResumeUploadResponse{
			CandidateID: candidateID,
			Status:      StatusSubmitted,
		}, nil
	}

	// 同步路径
	record, err := h.processorModule.ProcessAndStore(ctx, fileBytes, filename)
	if err != nil {
		h.releaseMD5OnFailure(ctx, fileMD5)
		return nil, err
	}
	return &ResumeUploadResponse{
		CandidateID: record.CandidateID,
		Status:      StatusProcessed,
	}, nil
}

// StartUploadConsumer 启动上传事件消费者
func (h *ResumeHandler) StartUploadConsumer(ctx context.Context) (chan<- struct{}, error) {
	if h.storage.RabbitMQ == nil {
		return nil, fmt.Errorf("未配置RabbitMQ")
	}
	if h.storage.MinIO == nil {
		return nil, fmt.Errorf("消费者需要对象存储来取回原始文件")
	}

	return h.storage.RabbitMQ.StartUploadConsumer(func(event *storage.ResumeUploadedEvent) bool {
		fileBytes, err := h.storage.MinIO.DownloadResumeFile(ctx, event.ObjectPath)
		if err != nil {
			logger.Error().
				Err(err).
				Str("candidate_id", event.CandidateID).
				Str("object_path", event.ObjectPath).
				Msg("下载原始简历失败")
			return false
		}

		_, err = h.processorModule.ProcessAndStore(ctx, fileBytes, event.OriginalFilename)
		if err != nil {
			logger.Error().
				Err(err).
				Str("candidate_id", event.CandidateID).
				Msg("处理简历失败")
			// 不可读的PDF重试没有意义，Ack掉并释放去重键
			if errors.Is(err, parser.ErrUnreadablePDF) {
				h.releaseMD5OnFailure(ctx, event.SourceMD5)
				return true
			}
			return false
		}
		return true
	})
}

// releaseMD5OnFailure 处理失败后释放去重键，允许重新上传
func (h *ResumeHandler) releaseMD5OnFailure(ctx context.Context, fileMD5 string) {
	if h.storage.Redis == nil {
		return
	}
	if err := h.storage.Redis.ClearSourceMD5(ctx, fileMD5); err != nil {
		logger.Warn().Err(err).Str("md5", fileMD5).Msg("释放MD5去重键失败")
	}
}

// HandleGetCandidate 按ID取回候选人记录
func (h *ResumeHandler) HandleGetCandidate(ctx context.Context, candidateID string) (*types.CandidateRecord, error) {
	return h.storage.MySQL.GetCandidate(ctx, candidateID)
}

// HandleListCandidates 分页列出候选人
func (h *ResumeHandler) HandleListCandidates(ctx context.Context, limit, offset int) ([]*types.CandidateRecord, error) {
	return h.storage.MySQL.ListCandidates(ctx, limit, offset)
}

// HandleSearch 执行候选人检索
func (h *ResumeHandler) HandleSearch(ctx context.Context, query types.SearchQuery) ([]types.RankedCandidate, error) {
	if h.searchEngine == nil {
		return nil, fmt.Errorf("检索引擎未配置")
	}
	return h.searchEngine.Search(ctx, query)
}

// HandleMatchScore 计算候选人与职位描述的相似度分数
func (h *ResumeHandler) HandleMatchScore(ctx context.Context, candidateID, jobDescription string) (float64, error) {
	if h.searchEngine == nil {
		return 0, fmt.Errorf("检索引擎未配置")
	}
	return h.searchEngine.MatchScore(ctx, candidateID, jobDescription)
}

// HandleGenerateQuestions 为候选人生成面试问题
func (h *ResumeHandler) HandleGenerateQuestions(ctx context.Context, candidateID string, kind parser.QuestionKind, targetRole string, count int) ([]string, error) {
	return h.processorModule.GenerateQuestions(ctx, candidateID, kind, targetRole, count)
}

// HandleSetHired 标记候选人录用状态
func (h *ResumeHandler) HandleSetHired(ctx context.Context, candidateID string, hired bool) error {
	return h.storage.MySQL.SetHired(ctx, candidateID, hired)
}

// HandleDeleteCandidate 删除候选人的全部数据：主记录、向量、原始文件与去重键
func (h *ResumeHandler) HandleDeleteCandidate(ctx context.Context, candidateID string) error {
	record, err := h.storage.MySQL.GetCandidate(ctx, candidateID)
	if err != nil {
		return err
	}

	if err := h.storage.MySQL.DeleteCandidate(ctx, candidateID); err != nil {
		return err
	}
	if h.storage.Qdrant != nil {
		if err := h.storage.Qdrant.DeleteCandidateVector(ctx, candidateID); err != nil {
			logger.Warn().Err(err).Str("candidate_id", candidateID).Msg("删除候选人向量失败")
		}
	}
	if h.storage.MinIO != nil {
		objectPath := fmt.Sprintf("resumes/%s.pdf", candidateID)
		if err := h.storage.MinIO.DeleteResumeFile(ctx, objectPath); err != nil {
			logger.Warn().Err(err).Str("candidate_id", candidateID).Msg("删除原始简历文件失败")
		}
	}
	h.releaseMD5OnFailure(ctx, record.SourceMD5)
	return nil
}
