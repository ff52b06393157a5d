package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/ragtimehq/ragtime/internal/ai"
	"github.com/ragtimehq/ragtime/internal/config"
	"github.com/ragtimehq/ragtime/internal/embedcache"
	"github.com/ragtimehq/ragtime/internal/handler"
	"github.com/ragtimehq/ragtime/internal/job"
	"github.com/ragtimehq/ragtime/internal/mcp"
	"github.com/ragtimehq/ragtime/internal/middleware"
	"github.com/ragtimehq/ragtime/internal/orchestrator"
	"github.com/ragtimehq/ragtime/internal/rag"
	"github.com/ragtimehq/ragtime/internal/repo"
	"github.com/ragtimehq/ragtime/internal/schedule"
	"github.com/ragtimehq/ragtime/internal/watcher"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "ragtime",
		Short: "local retrieval-augmented chat server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the ragtime server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			_ = godotenv.Load()
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_path", cfg.DBPath),
		zap.String("chat_provider", cfg.Chat.Provider),
		zap.String("embed_provider", cfg.Embed.Provider),
	)

	db, err := repo.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	messageRepo := repo.NewMessageRepo(db)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(db)

	backend, err := ai.NewChatProvider(cfg.Chat.Provider, cfg.Chat.Args)
	if err != nil {
		return fmt.Errorf("init chat provider: %w", err)
	}
	chatModel := cfg.Chat.Model
	if chatModel == "" {
		models := backend.ListModels(ctx)
		if len(models) == 0 {
			return fmt.Errorf("chat provider %s offers no models", backend.Name())
		}
		chatModel = models[0]
	}

	embedProvider, err := ai.NewEmbedProvider(cfg.Embed.Provider, cfg.Embed.Args)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.NewEmbedder(embedProvider, cfg.Embed.Model)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, embedCacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.Embed.LRUSize,
		time.Duration(cfg.Embed.LRUTTLSeconds)*time.Second)

	chunkCache, err := rag.NewChunkCache(cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("init chunk cache: %w", err)
	}
	engine := rag.NewEngine(
		rag.NewIngestor(chunkCache, cfg.RAG.ChunkWords),
		rag.NewIndex(),
		embedder,
		rag.EngineOptions{TopK: cfg.RAG.TopK, MinSimilarity: cfg.RAG.MinSimilarity},
	)

	mcpServer := mcp.NewServer(cfg.MCP.Enabled)

	orch := orchestrator.New(orchestrator.Options{
		Backend:   backend,
		ModelName: chatModel,
		Retriever: engine,
		Tools:     mcpServer,
		Store:     messageRepo,
		TopK:      cfg.RAG.TopK,
	})

	scheduler := schedule.NewCronScheduler()
	cleanupJob := job.NewEmbeddingCacheCleanupJob(embedCacheRepo, cfg.Jobs.CacheMaxAgeDays)
	if err := scheduler.AddJob(cleanupJob, cfg.Jobs.CacheCleanupSpec); err != nil {
		return err
	}
	if cfg.DocsDir != "" {
		rescanJob := job.NewCorpusRescanJob(engine, cfg.DocsDir)
		if err := scheduler.AddJob(rescanJob, cfg.Jobs.RescanSpec); err != nil {
			return err
		}
		w, err := watcher.New(cfg.DocsDir, engine, rescanJob)
		if err != nil {
			return fmt.Errorf("init watcher: %w", err)
		}
		go w.Run(ctx)
		// Populate the index with whatever is already on disk.
		if err := rescanJob.Run(ctx); err != nil {
			logutil.GetLogger(ctx).Warn("initial corpus scan failed", zap.Error(err))
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	deps := handler.RouterDeps{
		Chat:      handler.NewChatHandler(orch),
		Documents: handler.NewDocumentHandler(engine),
		Models:    handler.NewModelHandler(backend),
		History:   handler.NewHistoryHandler(messageRepo),
		MCP:       handler.NewMCPHandler(mcpServer),
	}

	middlewares := []gin.HandlerFunc{
		middleware.RequestID(),
		middleware.CORS(cfg.CORSOrigin),
		gzip.Gzip(gzip.DefaultCompression),
	}
	if cfg.RateLimitMS > 0 {
		middlewares = append(middlewares, middleware.RateLimit(time.Duration(cfg.RateLimitMS)*time.Millisecond))
	}

	engineHTTP, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(middlewares...),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engineHTTP.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
