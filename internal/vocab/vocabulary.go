package vocab

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"resume-skill-extractor/internal/logger"
)

// Vocabulary 进程级技能词表：别名 -> 规范化技能标识符
// 正常运行期间只追加：可以学到新别名，已有映射不会被悄悄改写。
// 懒增长：完全未知的token注册为新的规范词条而不是丢弃。
// 所有写入走互斥锁内的insert-if-absent，两个并发上传不会为同一
// 新技能铸出两个规范标识符。
type Vocabulary struct {
	mu         sync.RWMutex
	aliases    map[string]string   // 折叠后的别名 -> 规范标识符
	canonicals map[string]struct{} // 规范标识符集合
	store      Store               // 可为nil（纯内存）
	threshold  float64             // 模糊匹配相似度阈值
	log        zerolog.Logger
}

// Option 词表配置选项
type Option func(*Vocabulary)

// WithFuzzyThreshold 设置模糊匹配阈值，0-1之间
func WithFuzzyThreshold(threshold float64) Option {
	return func(v *Vocabulary) {
		if threshold > 0 && threshold <= 1 {
			v.threshold = threshold
		}
	}
}

// New 创建词表并从store加载已有映射
func New(ctx context.Context, store Store, options ...Option) (*Vocabulary, error) {
	v := &Vocabulary{
		aliases:    make(map[string]string),
		canonicals: make(map[string]struct{}),
		store:      store,
		threshold:  0.8,
		log:        logger.Logger.With().Str("component", "vocabulary").Logger(),
	}
	for _, option := range options {
		option(v)
	}

	if store != nil {
		loaded, err := store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("加载技能词表失败: %w", err)
		}
		for alias, canonical := range loaded {
			v.aliases[foldToken(alias)] = canonical
			v.canonicals[canonical] = struct{}{}
		}
		v.log.Info().Int("aliases", len(v.aliases)).Msg("技能词表加载完成")
	}
	return v, nil
}

// Seed 批量注入别名映射（进程启动时加载种子文件用）
func (v *Vocabulary) Seed(mapping map[string]string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for alias, canonical := range mapping {
		folded := foldToken(alias)
		canonical = foldToken(canonical)
		if _, exists := v.aliases[folded]; !exists {
			v.aliases[folded] = canonical
		}
		v.canonicals[canonical] = struct{}{}
		// 规范名永远是自身的别名，保证归一化是不动点
		if _, exists := v.aliases[canonical]; !exists {
			v.aliases[canonical] = canonical
		}
	}
}

// Normalize 把一个原始技能token映射到唯一的规范标识符
// 全函数：任何非空token都有输出；对已规范token是恒等映射
func (v *Vocabulary) Normalize(ctx context.Context, token string) (string, error) {
	folded := foldToken(token)
	if folded == "" {
		return "", fmt.Errorf("空技能token")
	}

	// 1) 大小写不敏感的精确别名命中
	v.mu.RLock()
	if canonical, ok := v.aliases[folded]; ok {
		v.mu.RUnlock()
		return canonical, nil
	}
	// 2) 对已知规范名做模糊匹配
	best := v.fuzzyMatchLocked(folded)
	v.mu.RUnlock()

	if best != "" {
		// 学到新别名
		return v.learnAlias(ctx, folded, best)
	}
	// 3) 仍未命中：token自身成为新的规范词条（懒增长）
	return v.learnAlias(ctx, folded, folded)
}

// NormalizeAll 批量归一化：返回去重后的规范集合与保留文档顺序的展示列表
func (v *Vocabulary) NormalizeAll(ctx context.Context, tokens []string) ([]string, []string, error) {
	var display []string
	seen := make(map[string]struct{})
	for _, token := range tokens {
		canonical, err := v.Normalize(ctx, token)
		if err != nil {
			continue
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		display = append(display, canonical)
	}

	set := make([]string, len(display))
	copy(set, display)
	sort.Strings(set)
	return set, display, nil
}

// fuzzyMatchLocked 在读锁内对规范名集合做编辑距离匹配
// 打分并列时取更短的规范名（偏向更通用的词），再按字典序保证确定性
func (v *Vocabulary) fuzzyMatchLocked(folded string) string {
	bestScore := v.threshold
	best := ""
	for canonical := range v.canonicals {
		score := similarity(folded, canonical)
		if score < bestScore {
			continue
		}
		if score > bestScore || best == "" ||
			len(canonical) < len(best) ||
			(len(canonical) == len(best) && canonical < best) {
			bestScore = score
			best = canonical
		}
	}
	return best
}

// learnAlias insert-if-absent：已有映射获胜，返回最终生效的规范标识符
func (v *Vocabulary) learnAlias(ctx context.Context, folded, canonical string) (string, error) {
	v.mu.Lock()
	if existing, ok := v.aliases[folded]; ok {
		// 并发写入先到先得
		v.mu.Unlock()
		return existing, nil
	}
	v.aliases[folded] = canonical
	v.canonicals[canonical] = struct{}{}
	if _, ok := v.aliases[canonical]; !ok {
		v.aliases[canonical] = canonical
	}
	v.mu.Unlock()

	if v.store != nil {
		winner, err := v.store.PutAlias(ctx, folded, canonical)
		if err != nil {
			v.log.Warn().Err(err).Str("alias", folded).Msg("持久化别名失败")
			return canonical, nil
		}
		if winner != canonical {
			// 另一个进程先注册了这个别名，采纳它的规范名
			v.mu.Lock()
			v.aliases[folded] = winner
			v.canonicals[winner] = struct{}{}
			v.mu.Unlock()
			return winner, nil
		}
	}
	return canonical, nil
}

// Size 返回词表中别名数量
func (v *Vocabulary) Size() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.aliases)
}

// foldToken 小写、去首尾空白、压缩内部空白
func foldToken(token string) string {
	folded := strings.ToLower(strings.TrimSpace(token))
	return strings.Join(strings.Fields(folded), " ")
}

// similarity 基于编辑距离的相似度，1为完全相同
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
