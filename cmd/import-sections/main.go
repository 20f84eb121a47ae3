package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/omeshsingh/bnsp/config"
	"github.com/omeshsingh/bnsp/llm"
	"github.com/omeshsingh/bnsp/logger"
	"github.com/omeshsingh/bnsp/repository"
	"github.com/omeshsingh/bnsp/service"
	"github.com/omeshsingh/bnsp/storage"
)

func main() {
	file := flag.String("file", "cleaned_bns.csv", "CSV file name, relative to the storage root")
	force := flag.Bool("force", false, "import even if crime_sections already has rows")
	batchSize := flag.Int("batch-size", service.DefaultImportBatchSize, "sections written per transaction")
	flag.Parse()

	cfg, err := config.Load(config.GetEnv())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zl, err := logger.NewLogger(cfg.Env, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, zl)

	if cfg.LLM.APIKey == "" {
		zl.Fatal("No model API key configured")
	}

	src, err := storage.NewSource(ctx, cfg.Storage)
	if err != nil {
		zl.Fatal("Failed to initialize storage", zap.Error(err))
	}
	rc, err := src.Open(ctx, *file)
	if err != nil {
		zl.Fatal("Failed to open section export", zap.String("location", src.Location(*file)), zap.Error(err))
	}
	defer rc.Close()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	embedder, closeLLM, err := newDocumentEmbedder(ctx, cfg.LLM, zl)
	if err != nil {
		zl.Fatal("Failed to initialize embedding model", zap.Error(err))
	}
	defer closeLLM()

	importer := service.NewImportService(
		service.WithSectionWriter(repository.NewSectionRepository(pool)),
		service.WithDocumentEmbedder(embedder),
		service.WithBatchSize(*batchSize),
	)

	zl.Info("Importing sections", zap.String("location", src.Location(*file)), zap.Bool("force", *force))
	res, err := importer.ImportSections(ctx, service.ImportSectionsRequest{Source: rc, Force: *force})
	if err != nil {
		if errors.Is(err, service.ErrStoreNotEmpty) {
			zl.Warn("Nothing imported", zap.Error(err))
			return
		}
		fields := []zap.Field{zap.Error(err)}
		if res != nil {
			fields = append(fields, zap.Int("imported_before_failure", res.Imported))
		}
		zl.Fatal("Import failed", fields...)
	}

	zl.Info("Import complete", zap.Int("sections", res.Imported), zap.Int("batches", res.Batches))
}

func newDocumentEmbedder(ctx context.Context, cfg config.LLMConfig, zl *zap.Logger) (llm.Embedder, func(), error) {
	guard := llm.NewGuard(
		llm.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
		llm.WithCallTimeout(cfg.Timeout()),
		llm.WithMaxRetries(cfg.MaxRetries),
		llm.WithGuardLogger(zl),
	)

	if cfg.Provider == config.ProviderOpenAI {
		client := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			EmbeddingModel: cfg.EmbeddingModel,
			Dimensions:     cfg.Dimensions,
		})
		return llm.NewGuardedEmbedder(client, guard), func() {}, nil
	}

	client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
		APIKey:         cfg.APIKey,
		EmbeddingModel: cfg.EmbeddingModel,
		Dimensions:     cfg.Dimensions,
	})
	if err != nil {
		return nil, nil, err
	}
	return llm.NewGuardedEmbedder(client, guard), func() { _ = client.Close() }, nil
}
