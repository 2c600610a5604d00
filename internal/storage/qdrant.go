package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"resume-skill-extractor/internal/config"
	"resume-skill-extractor/internal/processor"
	"resume-skill-extractor/internal/types"
)

var qdrantTracer = otel.Tracer("resume-skill-extractor/storage/qdrant")

// 确保Qdrant实现了VectorStore接口
var _ processor.VectorStore = (*Qdrant)(nil)

// Qdrant 候选人向量库，基于REST接口
// 点ID直接使用CandidateID，upsert天然幂等
type Qdrant struct {
	endpoint       string
	collectionName string
	vectorSize     int
	distanceMetric string
	apiKey         string
	httpClient     *http.Client
}

// QdrantSearchResult 一条向量检索结果
type QdrantSearchResult struct {
	ID      string
	Score   float32
	Payload map[string]interface{}
}

// QdrantOption Qdrant构造选项
type QdrantOption func(*Qdrant)

// WithQdrantTimeout 设置HTTP客户端超时
func WithQdrantTimeout(timeout time.Duration) QdrantOption {
	return func(q *Qdrant) {
		q.httpClient = &http.Client{Timeout: timeout}
	}
}

// NewQdrant 创建Qdrant客户端并确保集合存在
func NewQdrant(cfg *config.QdrantConfig, opts ...QdrantOption) (*Qdrant, error) {
	if cfg == nil {
		return nil, fmt.Errorf("qdrant配置不能为空")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:6333"
	}
	collectionName := cfg.Collection
	if collectionName == "" {
		collectionName = "candidates"
	}
	vectorSize := cfg.Dimension
	if vectorSize <= 0 {
		vectorSize = 384
	}

	q := &Qdrant{
		endpoint:       endpoint,
		collectionName: collectionName,
		vectorSize:     vectorSize,
		distanceMetric: "Cosine",
		apiKey:         cfg.APIKey,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(q)
	}

	if err := q.ensureCollectionExists(context.Background()); err != nil {
		return nil, fmt.Errorf("确保集合 '%s' 存在失败: %w", collectionName, err)
	}
	return q, nil
}

// ensureCollectionExists 检查集合，不存在则按当前维度创建
func (q *Qdrant) ensureCollectionExists(ctx context.Context) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.EnsureCollectionExists",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "qdrant"),
		attribute.String("db.collection", q.collectionName),
		attribute.Int("db.vector_size", q.vectorSize),
	)

	status, body, err := q.doRequest(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", q.collectionName), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if status == http.StatusNotFound {
		span.AddEvent("collection_not_found")
		return q.createCollection(ctx)
	}
	if status != http.StatusOK {
		err := fmt.Errorf("检查集合失败，状态码: %d, 响应: %s", status, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size     int    `json:"size"`
						Distance string `json:"distance"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return fmt.Errorf("解析集合信息失败: %w", err)
	}
	if info.Result.Config.Params.Vectors.Size != q.vectorSize {
		span.AddEvent("collection_config_mismatch", trace.WithAttributes(
			attribute.Int("existing_vector_size", info.Result.Config.Params.Vectors.Size),
		))
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// createCollection 创建向量集合
func (q *Qdrant) createCollection(ctx context.Context) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.CreateCollection",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	reqBody := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     q.vectorSize,
			"distance": q.distanceMetric,
		},
	}
	status, body, err := q.doRequest(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", q.collectionName), reqBody)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if status != http.StatusOK {
		err := fmt.Errorf("创建集合失败，状态码: %d, 响应: %s", status, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// UpsertCandidateVector 写入候选人向量与过滤载荷
func (q *Qdrant) UpsertCandidateVector(ctx context.Context, record *types.CandidateRecord) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.UpsertCandidateVector",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "qdrant"),
		attribute.String("db.collection", q.collectionName),
		attribute.String("candidate.id", record.CandidateID),
	)

	if len(record.Embedding) != q.vectorSize {
		err := fmt.Errorf("向量维度(%d)与集合维度(%d)不匹配", len(record.Embedding), q.vectorSize)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	payload := map[string]interface{}{
		"candidate_id":    record.CandidateID,
		"skills":          record.Skills,
		"education_level": int(record.HighestDegreeLevel()),
		"hired":           record.Hired,
	}
	if record.Identity.Name != "" {
		payload["candidate_name"] = record.Identity.Name
	}
	if record.Identity.Email != "" {
		payload["candidate_email"] = record.Identity.Email
	}

	reqBody := map[string]interface{}{
		"points": []map[string]interface{}{
			{
				"id":      record.CandidateID,
				"vector":  record.Embedding,
				"payload": payload,
			},
		},
	}
	status, body, err := q.doRequest(ctx, http.MethodPut,
		fmt.Sprintf("/collections/%s/points?wait=true", q.collectionName), reqBody)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if status != http.StatusOK {
		err := fmt.Errorf("写入向量失败，状态码: %d, 响应: %s", status, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// DeleteCandidateVector 删除候选人向量
func (q *Qdrant) DeleteCandidateVector(ctx context.Context, candidateID string) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.DeleteCandidateVector",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("candidate.id", candidateID))

	reqBody := map[string]interface{}{
		"points": []string{candidateID},
	}
	status, body, err := q.doRequest(ctx, http.MethodPost,
		fmt.Sprintf("/collections/%s/points/delete?wait=true", q.collectionName), reqBody)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if status != http.StatusOK {
		err := fmt.Errorf("删除向量失败，状态码: %d, 响应: %s", status, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// SearchSimilar 按查询向量检索相似候选人，filter为Qdrant过滤表达式（可为nil）
func (q *Qdrant) SearchSimilar(ctx context.Context, queryVector []float64, limit int, filter map[string]interface{}) ([]QdrantSearchResult, error) {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.SearchSimilar",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("db.collection", q.collectionName),
		attribute.Int("search.limit", limit),
	)

	if limit <= 0 {
		limit = 10
	}
	reqBody := map[string]interface{}{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter != nil {
		reqBody["filter"] = filter
	}

	status, body, err := q.doRequest(ctx, http.MethodPost,
		fmt.Sprintf("/collections/%s/points/search", q.collectionName), reqBody)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if status != http.StatusOK {
		err := fmt.Errorf("向量检索失败，状态码: %d, 响应: %s", status, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var response struct {
		Result []struct {
			ID      interface{}            `json:"id"`
			Score   float32                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("解析检索响应失败: %w", err)
	}

	results := make([]QdrantSearchResult, 0, len(response.Result))
	for _, item := range response.Result {
		results = append(results, QdrantSearchResult{
			ID:      fmt.Sprintf("%v", item.ID),
			Score:   item.Score,
			Payload: item.Payload,
		})
	}
	span.SetAttributes(attribute.Int("search.results", len(results)))
	span.SetStatus(codes.Ok, "")
	return results, nil
}

// doRequest 发送HTTP请求并注入追踪上下文，返回状态码与响应体
func (q *Qdrant) doRequest(ctx context.Context, method, path string, reqBody interface{}) (int, []byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return 0, nil, fmt.Errorf("序列化请求失败: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.endpoint+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("创建请求失败: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return resp.StatusCode, body, nil
}
