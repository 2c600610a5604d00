package vocab

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// defaultVocabularyKey 词表在Redis中的hash键
const defaultVocabularyKey = "skill_vocabulary:aliases"

// RedisStore Redis hash实现的词表存储
// HSETNX保证两个并发上传不会为同一别名写入不同规范名
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore 创建Redis词表存储，key为空时使用默认键
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultVocabularyKey
	}
	return &RedisStore{client: client, key: key}
}

// Load 实现 Store
func (s *RedisStore) Load(ctx context.Context) (map[string]string, error) {
	mapping, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("读取Redis词表失败: %w", err)
	}
	return mapping, nil
}

// PutAlias 实现 Store：HSETNX原子insert-if-absent
func (s *RedisStore) PutAlias(ctx context.Context, alias, canonical string) (string, error) {
	set, err := s.client.HSetNX(ctx, s.key, alias, canonical).Result()
	if err != nil {
		return "", fmt.Errorf("写入Redis词表失败: %w", err)
	}
	if set {
		return canonical, nil
	}
	// 写入冲突：读回先到者的规范名
	existing, err := s.client.HGet(ctx, s.key, alias).Result()
	if err != nil {
		return "", fmt.Errorf("词表写入冲突后读回失败: %w", err)
	}
	return existing, nil
}
