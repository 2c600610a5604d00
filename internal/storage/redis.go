package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"resume-skill-extractor/internal/config"
)

// ErrNotFound Redis键不存在
var ErrNotFound = redis.Nil

// sourceMD5KeyPrefix 已处理源文件MD5的去重键前缀
const sourceMD5KeyPrefix = "resume:source_md5:"

// Redis 词表持久化与上传去重
type Redis struct {
	Client *redis.Client
	cfg    *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	})

	// 记录所有Redis操作到链路追踪
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("Redis链路追踪初始化失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis失败 (%s): %w", cfg.Address, err)
	}

	return &Redis{Client: client, cfg: cfg}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查Redis连接
func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// md5ExpireDuration 去重键过期时间
func (r *Redis) md5ExpireDuration() time.Duration {
	days := r.cfg.MD5RecordExpireDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// MarkSourceMD5 记录源文件MD5，返回是否首次出现
// SetNX保证并发上传同一文件只有一个返回true
func (r *Redis) MarkSourceMD5(ctx context.Context, md5, candidateID string) (bool, error) {
	key := sourceMD5KeyPrefix + md5
	first, err := r.Client.SetNX(ctx, key, candidateID, r.md5ExpireDuration()).Result()
	if err != nil {
		return false, fmt.Errorf("写入MD5去重键失败: %w", err)
	}
	return first, nil
}

// LookupSourceMD5 查询已处理文件的候选人ID，未命中返回空字符串
func (r *Redis) LookupSourceMD5(ctx context.Context, md5 string) (string, error) {
	key := sourceMD5KeyPrefix + md5
	candidateID, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("查询MD5去重键失败: %w", err)
	}
	return candidateID, nil
}

// ClearSourceMD5 删除去重键，候选人被删除后允许重新上传
func (r *Redis) ClearSourceMD5(ctx context.Context, md5 string) error {
	if md5 == "" {
		return nil
	}
	if err := r.Client.Del(ctx, sourceMD5KeyPrefix+md5).Err(); err != nil {
		return fmt.Errorf("删除MD5去重键失败: %w", err)
	}
	return nil
}
