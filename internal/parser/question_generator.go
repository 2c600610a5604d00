package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"resume-skill-extractor/internal/config"
	"resume-skill-extractor/internal/logger"
	"resume-skill-extractor/internal/types"
)

// ErrExternalService 外部模型服务调用失败或超时
var ErrExternalService = errors.New("外部模型服务调用失败")

// QuestionKind 面试问题类型
type QuestionKind string

const (
	// QuestionTechnical 基于技能的技术问题
	QuestionTechnical QuestionKind = "technical"
	// QuestionBehavioral 基于工作经历的行为问题
	QuestionBehavioral QuestionKind = "behavioral"
	// QuestionRoleSpecific 针对目标岗位的问题
	QuestionRoleSpecific QuestionKind = "role_specific"
)

const technicalQuestionPrompt = `Based on the following resume information, generate %d technical interview questions
that would be relevant for a candidate with these skills and experience.

Resume Summary:
%s

Skills: %s

Format the output as a JSON array of strings. Return ONLY the JSON array.`

const behavioralQuestionPrompt = `Generate %d behavioral interview questions based on the candidate's work experience.
Focus on their roles, responsibilities, and achievements mentioned in their resume.

Work Experience:
%s

Format the output as a JSON array of strings. Return ONLY the JSON array.`

const roleSpecificQuestionPrompt = `Generate %d role-specific technical questions for a %s position
based on the candidate's skills and experience.

Skills: %s
Experience: %s

Format the output as a JSON array of strings. Return ONLY the JSON array.`

// QuestionGenerator 面试问题生成器：对托管LLM的一次性边界调用
// 超时或失败返回 ErrExternalService，绝不返回半截问题列表
type QuestionGenerator struct {
	apiKey       string
	model        string
	baseURL      string
	temperature  float64
	maxNewTokens int
	maxRetries   int
	httpClient   *http.Client
	log          zerolog.Logger
}

// NewQuestionGenerator 创建问题生成器
func NewQuestionGenerator(cfg config.HuggingFaceConfig) (*QuestionGenerator, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("LLM模型不能为空")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co/models"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &QuestionGenerator{
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		temperature:  cfg.Temperature,
		maxNewTokens: cfg.MaxNewTokens,
		maxRetries:   maxRetries,
		httpClient:   &http.Client{Timeout: timeout},
		log:          logger.Logger.With().Str("component", "question_generator").Logger(),
	}, nil
}

// GenerateQuestions 为候选人生成count个kind类型的面试问题
// kind为role_specific时必须提供targetRole
func (g *QuestionGenerator) GenerateQuestions(ctx context.Context, record *types.CandidateRecord, kind QuestionKind, targetRole string, count int) ([]string, error) {
	if count <= 0 {
		count = 5
	}

	skills := strings.Join(record.Skills, ", ")
	expSummary := formatExperienceSummary(record)

	var prompt string
	switch kind {
	case QuestionTechnical:
		name := record.Identity.Name
		if name == "" {
			name = "The candidate"
		}
		summary := fmt.Sprintf("%s has experience in %s.", name, skills)
		prompt = fmt.Sprintf(technicalQuestionPrompt, count, summary, skills)
	case QuestionBehavioral:
		prompt = fmt.Sprintf(behavioralQuestionPrompt, count, expSummary)
	case QuestionRoleSpecific:
		if targetRole == "" {
			return nil, fmt.Errorf("role_specific问题需要指定目标岗位")
		}
		prompt = fmt.Sprintf(roleSpecificQuestionPrompt, count, targetRole, skills, expSummary)
	default:
		return nil, fmt.Errorf("未知的问题类型: %s", kind)
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrExternalService, ctx.Err())
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		questions, err := g.callOnce(ctx, prompt)
		if err == nil {
			if len(questions) > count {
				questions = questions[:count]
			}
			return questions, nil
		}
		lastErr = err
		g.log.Warn().Err(err).Int("attempt", attempt+1).Msg("LLM调用失败")
	}
	return nil, lastErr
}

// hfGenerateRequest HuggingFace推理API请求结构
type hfGenerateRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		Temperature    float64 `json:"temperature,omitempty"`
		MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
		ReturnFullText bool    `json:"return_full_text"`
	} `json:"parameters"`
}

func (g *QuestionGenerator) callOnce(ctx context.Context, prompt string) ([]string, error) {
	reqBody := hfGenerateRequest{Inputs: prompt}
	reqBody.Parameters.Temperature = g.temperature
	reqBody.Parameters.MaxNewTokens = g.maxNewTokens
	reqBody.Parameters.ReturnFullText = false

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化LLM请求失败: %w", err)
	}

	url := g.baseURL + "/" + g.model
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("创建LLM请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取响应失败: %v", ErrExternalService, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: LLM服务返回 %d: %s", ErrExternalService, resp.StatusCode, truncate(string(body), 200))
	}

	var hfResp []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(body, &hfResp); err != nil || len(hfResp) == 0 {
		return nil, fmt.Errorf("%w: 解析LLM响应失败", ErrExternalService)
	}

	questions, err := parseQuestionArray(hfResp[0].GeneratedText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	return questions, nil
}

// parseQuestionArray 从LLM输出中解出JSON字符串数组
// 模型经常把JSON包进markdown代码块里，先剥壳再找方括号
func parseQuestionArray(output string) ([]string, error) {
	cleaned := CleanJSONFences(output)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("LLM输出中找不到JSON数组")
	}
	cleaned = cleaned[start : end+1]

	var questions []string
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, fmt.Errorf("LLM输出不是合法的字符串数组: %v", err)
	}
	out := questions[:0]
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("LLM输出为空问题列表")
	}
	return out, nil
}

// CleanJSONFences 去掉 ```json ... ``` 代码块包装
func CleanJSONFences(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// formatExperienceSummary 把经历列表格式化为提示词用的摘要文本
func formatExperienceSummary(record *types.CandidateRecord) string {
	var sb strings.Builder
	for _, exp := range record.Experience {
		title := exp.Title
		if title == "" {
			title = "Role"
		}
		org := exp.Organization
		if org == "" {
			org = "Company"
		}
		sb.WriteString(fmt.Sprintf("- %s at %s", title, org))
		if exp.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(exp.Description)
		}
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		return "(no work experience listed)"
	}
	return sb.String()
}
