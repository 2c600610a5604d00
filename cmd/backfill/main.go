package main

import (
	"context"
	"os"

	"github.com/spf13/pflag"

	"resume-skill-extractor/internal/config"
	applogger "resume-skill-extractor/internal/logger"
	"resume-skill-extractor/internal/parser"
	"resume-skill-extractor/internal/processor"
	"resume-skill-extractor/internal/storage"
)

// 嵌入回填工具：为历史记录补算缺失的嵌入向量
// 词表或嵌入策略升级后，对存量候选人执行一次即可
func main() {
	var configPath string
	var batchSize int
	var dryRun bool
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.IntVarP(&batchSize, "batch", "b", 100, "单批处理的候选人数量")
	pflag.BoolVar(&dryRun, "dry-run", false, "仅统计，不写入")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		applogger.Fatal().Err(err).Msg("加载配置失败")
	}
	applogger.Init(applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
	})

	ctx := context.Background()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		applogger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()

	var embedder processor.TextEmbedder
	if cfg.Embedding.BaseURL != "" {
		embedder, err = parser.NewHTTPEmbedder(cfg.Embedding)
		if err != nil {
			applogger.Fatal().Err(err).Msg("初始化HTTP嵌入器失败")
		}
	} else {
		embedder = parser.NewHashingEmbedder(cfg.Embedding.Dimensions)
	}

	var processed, failed int
	for {
		ids, err := storageManager.MySQL.ListMissingEmbeddings(ctx, batchSize)
		if err != nil {
			applogger.Fatal().Err(err).Msg("查询缺失嵌入的候选人失败")
		}
		if len(ids) == 0 {
			break
		}
		if dryRun {
			applogger.Info().Int("missing", len(ids)).Msg("dry-run：存在缺失嵌入的候选人")
			os.Exit(0)
		}

		for _, id := range ids {
			if err := backfillOne(ctx, storageManager, embedder, id); err != nil {
				applogger.Error().Err(err).Str("candidate_id", id).Msg("回填嵌入失败")
				failed++
				continue
			}
			processed++
		}

		// 失败的记录仍然缺嵌入，会再次被查出来；全部失败时停止避免死循环
		if failed >= len(ids) {
			break
		}
		failed = 0
	}

	applogger.Info().Int("processed", processed).Msg("嵌入回填完成")
}

func backfillOne(ctx context.Context, storageManager *storage.Storage, embedder processor.TextEmbedder, candidateID string) error {
	record, err := storageManager.MySQL.GetCandidate(ctx, candidateID)
	if err != nil {
		return err
	}

	vectors, err := embedder.EmbedStrings(ctx, []string{record.SearchableText()})
	if err != nil {
		return err
	}
	record.Embedding = vectors[0]

	if err := storageManager.MySQL.SaveCandidate(ctx, record); err != nil {
		return err
	}
	if storageManager.Qdrant != nil {
		if err := storageManager.Qdrant.UpsertCandidateVector(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
