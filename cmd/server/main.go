package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/omeshsingh/bnsp/cache"
	"github.com/omeshsingh/bnsp/config"
	"github.com/omeshsingh/bnsp/handlers"
	"github.com/omeshsingh/bnsp/llm"
	"github.com/omeshsingh/bnsp/logger"
	"github.com/omeshsingh/bnsp/metrics"
	"github.com/omeshsingh/bnsp/repository"
	"github.com/omeshsingh/bnsp/service"
)

func main() {
	cfg, err := config.Load(config.GetEnv())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.NewLogger(cfg.Env, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	if err := run(cfg, zl); err != nil {
		zl.Fatal("Server exited", zap.Error(err))
	}
}

func run(cfg config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.LLM.APIKey == "" {
		return errors.New("no model API key configured (set LLM_API_KEY, GEMINI_API_KEY or OPENAI_API_KEY)")
	}

	// Initialize database connections
	db, err := initPostgres(ctx, cfg.Database, zl)
	if err != nil {
		return err
	}
	defer db.Close()

	sectionRepo := repository.NewSectionRepository(db, repository.WithQueryTimeout(cfg.Database.QueryTimeout()))
	readiness := map[string]handlers.Pinger{"postgres": sectionRepo}

	// Initialize model clients
	metrics.RegisterLLMMetrics()
	embedder, generator, closeLLM, err := initLLM(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	defer closeLLM()

	guard := llm.NewGuard(
		llm.WithRateLimit(cfg.LLM.RequestsPerSecond, cfg.LLM.Burst),
		llm.WithCallTimeout(cfg.LLM.Timeout()),
		llm.WithMaxRetries(cfg.LLM.MaxRetries),
		llm.WithGuardLogger(zl),
	)
	var queryEmbedder llm.Embedder = llm.NewGuardedEmbedder(embedder, guard)

	if cfg.Cache.Enabled() {
		store, err := cache.NewStore(cache.Config{
			Addrs:    cfg.Cache.RedisAddrs,
			Password: cfg.Cache.RedisPassword,
			TTL:      cfg.Cache.TTL(),
		})
		if err != nil {
			return err
		}
		defer store.Close()
		queryEmbedder = llm.NewCachedEmbedder(queryEmbedder, store, cfg.LLM.EmbeddingModel, zl)
		readiness["redis"] = store
		zl.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.RedisAddrs))
	}

	// Initialize services
	sectionService := service.NewSectionService(
		service.WithSectionStore(sectionRepo),
	)
	analysisService := service.NewAnalysisService(
		service.WithRetriever(service.NewSemanticRetriever(queryEmbedder, sectionRepo, cfg.Retrieval.TopK)),
		service.WithGenerator(llm.NewGuardedGenerator(generator, guard)),
	)

	// Initialize handlers
	sectionHandler := handlers.NewSectionHandler(sectionService)
	analysisHandler := handlers.NewAnalysisHandler(analysisService)
	healthHandler := handlers.NewHealthHandler(readiness)

	// Setup Gin router
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(
		handlers.Recovery(zl),
		handlers.RequestID(),
		handlers.RequestLogger(zl),
		metrics.Middleware(),
		handlers.Timeout(time.Duration(cfg.HTTP.RequestTimeoutSec)*time.Second),
	)
	r.NoRoute(handlers.NoRoute)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterRoutes(r, sectionHandler, analysisHandler, healthHandler)

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           corsHandler(r),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("llm_provider", cfg.LLM.Provider),
			zap.Strings("cors_origins", cfg.HTTP.CORSOrigins))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func initPostgres(ctx context.Context, cfg config.DatabaseConfig, zl *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout())
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	zl.Info("Postgres connection established", zap.String("host", poolCfg.ConnConfig.Host))
	return pool, nil
}

func initLLM(ctx context.Context, cfg config.LLMConfig) (llm.Embedder, llm.Generator, func(), error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		client := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Dimensions:     cfg.Dimensions,
			Temperature:    cfg.Temperature,
		})
		return client, client, func() {}, nil
	default:
		client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:         cfg.APIKey,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Dimensions:     cfg.Dimensions,
			Temperature:    cfg.Temperature,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return client, client, func() { _ = client.Close() }, nil
	}
}
