package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"

	"resume-skill-extractor/internal/api/handler"
	"resume-skill-extractor/internal/api/router"
	"resume-skill-extractor/internal/config"
	applogger "resume-skill-extractor/internal/logger"
	"resume-skill-extractor/internal/parser"
	"resume-skill-extractor/internal/processor"
	"resume-skill-extractor/internal/search"
	"resume-skill-extractor/internal/storage"
	"resume-skill-extractor/internal/tracing"
	"resume-skill-extractor/internal/vocab"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	applogger.Init(applogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	glog.SetLogger(hertzadapter.From(applogger.Logger))
	glog.Info("配置与日志初始化成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, &cfg.Tracing)
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := shutdownTracing(shutdownCtx); err != nil {
			glog.Warnf("关闭链路追踪失败: %v", err)
		}
	}()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// 词表：Redis后端跨进程共享，未配置时退化为进程内存储
	var vocabStore vocab.Store
	if cfg.Vocabulary.Backend == "redis" && storageManager.Redis != nil {
		vocabStore = vocab.NewRedisStore(storageManager.Redis.Client, "")
		glog.Info("技能词表使用Redis后端")
	} else {
		vocabStore = vocab.NewMemoryStore()
		glog.Info("技能词表使用内存后端")
	}
	vocabulary, err := vocab.New(ctx, vocabStore, vocab.WithFuzzyThreshold(cfg.Vocabulary.FuzzyThreshold))
	if err != nil {
		glog.Fatalf("初始化技能词表失败: %v", err)
	}
	if cfg.Vocabulary.SeedFile != "" {
		seed, err := vocab.LoadSeedFile(cfg.Vocabulary.SeedFile)
		if err != nil {
			glog.Fatalf("加载词表种子文件失败: %v", err)
		}
		vocabulary.Seed(seed)
		glog.Infof("已加载词表种子，共%d个别名", len(seed))
	}

	// 嵌入器：配置了外部服务用HTTP嵌入，否则用确定性哈希嵌入
	var embedder processor.TextEmbedder
	if cfg.Embedding.BaseURL != "" {
		embedder, err = parser.NewHTTPEmbedder(cfg.Embedding)
		if err != nil {
			glog.Fatalf("初始化HTTP嵌入器失败: %v", err)
		}
		glog.Infof("使用外部嵌入服务: %s", cfg.Embedding.Model)
	} else {
		embedder = parser.NewHashingEmbedder(cfg.Embedding.Dimensions)
		glog.Info("使用进程内哈希嵌入器")
	}

	pdfExtractor, err := parser.NewPDFExtractor(ctx)
	if err != nil {
		glog.Fatalf("创建PDF提取器失败: %v", err)
	}

	processorOpts := []processor.Option{
		processor.WithPDFExtractor(pdfExtractor),
		processor.WithNormalizer(vocabulary),
		processor.WithEmbedder(embedder),
		processor.WithCandidateStore(storageManager.MySQL),
	}
	if storageManager.Qdrant != nil {
		processorOpts = append(processorOpts, processor.WithVectorStore(storageManager.Qdrant))
	}
	if cfg.HuggingFace.APIKey != "" {
		questionGen, err := parser.NewQuestionGenerator(cfg.HuggingFace)
		if err != nil {
			glog.Fatalf("初始化问题生成器失败: %v", err)
		}
		processorOpts = append(processorOpts, processor.WithQuestionGenerator(questionGen))
	}

	resumeProcessor, err := processor.New(processorOpts...)
	if err != nil {
		glog.Fatalf("初始化简历处理器失败: %v", err)
	}
	glog.Info("简历处理器初始化成功")

	searchEngine, err := search.NewEngine(storageManager.MySQL, embedder,
		search.WithNormalizer(vocabulary))
	if err != nil {
		glog.Fatalf("初始化检索引擎失败: %v", err)
	}

	resumeHandler := handler.NewResumeHandler(cfg, storageManager, resumeProcessor, searchEngine)

	var consumerStop chan<- struct{}
	if storageManager.RabbitMQ != nil && storageManager.MinIO != nil {
		consumerStop, err = resumeHandler.StartUploadConsumer(ctx)
		if err != nil {
			glog.Fatalf("启动上传消费者失败: %v", err)
		}
		glog.Info("上传事件消费者已启动")
	}

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})
	router.RegisterRoutes(h, resumeHandler)

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if consumerStop != nil {
		close(consumerStop)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}
