package vocab_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-skill-extractor/internal/vocab"
)

// TestVocabulary_SeedAliases 种子别名变体收敛到同一规范名
func TestVocabulary_SeedAliases(t *testing.T) {
	v, err := vocab.New(context.Background(), nil)
	require.NoError(t, err, "应该成功创建词表")

	v.Seed(map[string]string{
		"js":         "javascript",
		"javascript": "javascript",
		"k8s":        "kubernetes",
	})

	ctx := context.Background()
	for _, variant := range []string{"Javascript", "JS", "javascript", "  JS  "} {
		canonical, err := v.Normalize(ctx, variant)
		require.NoError(t, err)
		assert.Equal(t, "javascript", canonical, "变体 %q 应收敛到同一规范名", variant)
	}

	canonical, err := v.Normalize(ctx, "K8S")
	require.NoError(t, err)
	assert.Equal(t, "kubernetes", canonical)
}

// TestVocabulary_IdempotentNormalize 归一化是不动点：规范名映射到自身
func TestVocabulary_IdempotentNormalize(t *testing.T) {
	v, err := vocab.New(context.Background(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := v.Normalize(ctx, "Some Brand New Skill")
	require.NoError(t, err)

	second, err := v.Normalize(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, second, "对规范名再归一化必须是恒等映射")
}

// TestVocabulary_LazyGrowth 未知token注册为新的规范词条而不是丢弃
func TestVocabulary_LazyGrowth(t *testing.T) {
	v, err := vocab.New(context.Background(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	before := v.Size()
	canonical, err := v.Normalize(ctx, "QuantumFrobnicator")
	require.NoError(t, err)
	assert.Equal(t, "quantumfrobnicator", canonical)
	assert.Greater(t, v.Size(), before, "词表应该增长")

	// 再次归一化命中已学到的词条
	again, err := v.Normalize(ctx, "quantumfrobnicator")
	require.NoError(t, err)
	assert.Equal(t, canonical, again)
}

// TestVocabulary_FuzzyMatch 编辑距离相近的拼写变体归并到已有规范名
func TestVocabulary_FuzzyMatch(t *testing.T) {
	v, err := vocab.New(context.Background(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	v.Seed(map[string]string{"postgresql": "postgresql"})

	canonical, err := v.Normalize(ctx, "postgresq")
	require.NoError(t, err)
	assert.Equal(t, "postgresql", canonical, "一字之差应模糊命中")
}

// TestVocabulary_FuzzyThreshold 低于阈值的token不归并
func TestVocabulary_FuzzyThreshold(t *testing.T) {
	v, err := vocab.New(context.Background(), nil, vocab.WithFuzzyThreshold(0.9))
	require.NoError(t, err)
	ctx := context.Background()

	v.Seed(map[string]string{"java": "java"})

	canonical, err := v.Normalize(ctx, "javascript")
	require.NoError(t, err)
	assert.Equal(t, "javascript", canonical, "相差太远的token应成为新词条")
}

// TestVocabulary_EmptyToken 空token报错
func TestVocabulary_EmptyToken(t *testing.T) {
	v, err := vocab.New(context.Background(), nil)
	require.NoError(t, err)

	_, err = v.Normalize(context.Background(), "   ")
	assert.Error(t, err)
}

// TestVocabulary_NormalizeAll 批量归一化返回排序集合与文档顺序展示列表
func TestVocabulary_NormalizeAll(t *testing.T) {
	v, err := vocab.New(context.Background(), nil)
	require.NoError(t, err)
	v.Seed(map[string]string{"js": "javascript"})

	set, display, err := v.NormalizeAll(context.Background(), []string{"Python", "JS", "python", "Go"})
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "javascript", "python"}, set, "集合按字典序排序")
	assert.Equal(t, []string{"python", "javascript", "go"}, display, "展示列表保留文档顺序并去重")
}

// TestVocabulary_ConcurrentNormalize 并发归一化同一新token只铸一个规范名
func TestVocabulary_ConcurrentNormalize(t *testing.T) {
	v, err := vocab.New(context.Background(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	const workers = 16
	results := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			canonical, err := v.Normalize(ctx, "Apache Flink")
			assert.NoError(t, err)
			results[i] = canonical
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Equal(t, results[0], results[i], "并发归一化结果必须一致")
	}
}

// TestVocabulary_StoreWinnerAdoption store中先到的映射获胜
func TestVocabulary_StoreWinnerAdoption(t *testing.T) {
	store := vocab.NewMemoryStore()
	ctx := context.Background()

	// 模拟另一进程先注册了别名
	_, err := store.PutAlias(ctx, "golang", "go")
	require.NoError(t, err)

	v, err := vocab.New(ctx, store)
	require.NoError(t, err)

	canonical, err := v.Normalize(ctx, "GoLang")
	require.NoError(t, err)
	assert.Equal(t, "go", canonical, "应采纳store中已有的规范名")
}

// TestParseSeed YAML种子展开为别名映射
func TestParseSeed(t *testing.T) {
	data := []byte("javascript: [js, ecmascript]\nkubernetes: [k8s]\n")

	mapping, err := vocab.ParseSeed(data)
	require.NoError(t, err)

	assert.Equal(t, "javascript", mapping["js"])
	assert.Equal(t, "javascript", mapping["ecmascript"])
	assert.Equal(t, "javascript", mapping["javascript"], "规范名是自身的别名")
	assert.Equal(t, "kubernetes", mapping["k8s"])
}

// TestParseSeed_Invalid 非法YAML报错
func TestParseSeed_Invalid(t *testing.T) {
	_, err := vocab.ParseSeed([]byte("::: not yaml {"))
	assert.Error(t, err)
}

// TestMemoryStore_PutAlias insert-if-absent语义
func TestMemoryStore_PutAlias(t *testing.T) {
	store := vocab.NewMemoryStore()
	ctx := context.Background()

	winner, err := store.PutAlias(ctx, "js", "javascript")
	require.NoError(t, err)
	assert.Equal(t, "javascript", winner)

	winner, err = store.PutAlias(ctx, "js", "java")
	require.NoError(t, err)
	assert.Equal(t, "javascript", winner, "已有映射获胜")

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"js": "javascript"}, loaded)
}

func ExampleVocabulary_Normalize() {
	v, _ := vocab.New(context.Background(), nil)
	v.Seed(map[string]string{"js": "javascript"})
	canonical, _ := v.Normalize(context.Background(), "JS")
	fmt.Println(canonical)
	// Output: javascript
}
