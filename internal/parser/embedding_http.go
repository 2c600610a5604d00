package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"

	"resume-skill-extractor/internal/config"
	"resume-skill-extractor/internal/logger"
)

// HTTPEmbedder 通过OpenAI兼容的/embeddings端点计算文本向量
// 实现 embedding.Embedder 接口，可直接挂进eino管线
type HTTPEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewHTTPEmbedder 创建HTTP嵌入器
func NewHTTPEmbedder(embeddingCfg config.EmbeddingConfig) (*HTTPEmbedder, error) {
	if embeddingCfg.BaseURL == "" {
		return nil, fmt.Errorf("嵌入服务BaseURL不能为空")
	}
	model := embeddingCfg.Model
	if model == "" {
		model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	dimensions := embeddingCfg.Dimensions
	if dimensions == 0 {
		dimensions = 384
	}
	timeout := time.Duration(embeddingCfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPEmbedder{
		apiKey:     embeddingCfg.APIKey,
		model:      model,
		dimensions: dimensions,
		baseURL:    embeddingCfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.Logger.With().Str("component", "http_embedder").Logger(),
	}, nil
}

// GetDimensions 返回嵌入向量的维度
func (e *HTTPEmbedder) GetDimensions() int {
	return e.dimensions
}

// openAIEmbeddingRequest OpenAI兼容的Embedding请求结构
type openAIEmbeddingRequest struct {
	Input          interface{} `json:"input"` // string 或 []string
	Model          string      `json:"model"`
	Dimensions     int         `json:"dimensions,omitempty"`
	EncodingFormat string      `json:"encoding_format,omitempty"`
}

// openAIEmbeddingResponse OpenAI兼容的Embedding响应结构
type openAIEmbeddingResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Object    string    `json:"object"`
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// EmbedStrings 批量向量化文本，实现 embedding.Embedder
func (e *HTTPEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := openAIEmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		Dimensions:     e.dimensions,
		EncodingFormat: "float",
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化嵌入请求失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("创建嵌入请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取嵌入响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: 嵌入服务返回 %d: %s", ErrExternalService, resp.StatusCode, truncate(string(body), 200))
	}

	var apiResp openAIEmbeddingResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("解析嵌入响应失败: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrExternalService, apiResp.Error.Message)
	}
	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("嵌入响应数量不匹配: 期望%d实际%d", len(texts), len(apiResp.Data))
	}

	// 响应顺序按Index重排，保证与输入对齐
	vectors := make([][]float64, len(texts))
	for _, entry := range apiResp.Data {
		if entry.Index < 0 || entry.Index >= len(texts) {
			return nil, fmt.Errorf("嵌入响应索引越界: %d", entry.Index)
		}
		vectors[entry.Index] = entry.Embedding
	}
	return vectors, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
