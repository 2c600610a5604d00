package vocab

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store 词表持久化边界：别名->规范名映射的加载与追加
// 外部存储格式不限，只要求可幂等加载/保存
type Store interface {
	// Load 加载全部别名映射
	Load(ctx context.Context) (map[string]string, error)

	// PutAlias 原子insert-if-absent；返回最终生效的规范标识符
	// （已存在时返回先到者，调用方据此收敛）
	PutAlias(ctx context.Context, alias, canonical string) (string, error)
}

// MemoryStore 纯内存实现，测试与单机离线运行用
type MemoryStore struct {
	mu      sync.Mutex
	aliases map[string]string
}

// NewMemoryStore 创建内存词表存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{aliases: make(map[string]string)}
}

// Load 实现 Store
func (s *MemoryStore) Load(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.aliases))
	for k, v := range s.aliases {
		out[k] = v
	}
	return out, nil
}

// PutAlias 实现 Store
func (s *MemoryStore) PutAlias(ctx context.Context, alias, canonical string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.aliases[alias]; ok {
		return existing, nil
	}
	s.aliases[alias] = canonical
	return canonical, nil
}

// seedFile 种子文件结构: 规范名 -> 别名列表
//
//	javascript: [js, javascript, ecmascript]
//	kubernetes: [k8s]
type seedFile map[string][]string

// LoadSeedFile 读取YAML种子文件，展开为别名->规范名映射
func LoadSeedFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取词表种子文件失败: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed 解析YAML种子内容
func ParseSeed(data []byte) (map[string]string, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("解析词表种子失败: %w", err)
	}
	mapping := make(map[string]string)
	for canonical, aliases := range seed {
		mapping[canonical] = canonical
		for _, alias := range aliases {
			mapping[alias] = canonical
		}
	}
	return mapping, nil
}
