package processor

import (
	"errors"
	"fmt"
)

// 流水线各阶段的基础错误类型
var (
	ErrExtractTextFailed = errors.New("提取简历文本失败")
	ErrNormalizeFailed   = errors.New("技能归一化失败")
	ErrEmbeddingFailed   = errors.New("计算嵌入向量失败")
	ErrStoreFailed       = errors.New("持久化候选人记录失败")
	ErrQuestionGenFailed = errors.New("生成面试问题失败")
	ErrCandidateNotFound = errors.New("候选人不存在")
)

// ProcessError 带阶段与候选人标识的处理错误
type ProcessError struct {
	CandidateID string
	Op          string
	BaseErr     error
	Detail      string
}

func (e *ProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 候选人:%s): %s", e.BaseErr, e.Op, e.CandidateID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 候选人:%s)", e.BaseErr, e.Op, e.CandidateID)
}

func (e *ProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 支持 errors.Is 比较
func (e *ProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// NewExtractError 提取阶段错误；cause保留底层原因（如parser.ErrUnreadablePDF）
func NewExtractError(candidateID string, cause error) error {
	return &ProcessError{
		CandidateID: candidateID,
		Op:          "extract",
		BaseErr:     fmt.Errorf("%w: %w", ErrExtractTextFailed, cause),
	}
}

func NewNormalizeError(candidateID, detail string) error {
	return &ProcessError{
		CandidateID: candidateID,
		Op:          "normalize",
		BaseErr:     ErrNormalizeFailed,
		Detail:      detail,
	}
}

func NewEmbeddingError(candidateID string, cause error) error {
	return &ProcessError{
		CandidateID: candidateID,
		Op:          "embed",
		BaseErr:     fmt.Errorf("%w: %w", ErrEmbeddingFailed, cause),
	}
}

func NewStoreError(candidateID string, cause error) error {
	return &ProcessError{
		CandidateID: candidateID,
		Op:          "store",
		BaseErr:     fmt.Errorf("%w: %w", ErrStoreFailed, cause),
	}
}

func NewQuestionGenError(candidateID string, cause error) error {
	return &ProcessError{
		CandidateID: candidateID,
		Op:          "questions",
		BaseErr:     fmt.Errorf("%w: %w", ErrQuestionGenFailed, cause),
	}
}
