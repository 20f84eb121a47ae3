package main

import (
	"context"
	"flag"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/omeshsingh/bnsp/config"
	"github.com/omeshsingh/bnsp/logger"
	"github.com/omeshsingh/bnsp/repository"
)

func main() {
	drop := flag.Bool("drop", false, "drop the existing crime_sections table first (destroys data)")
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

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	stmts := repository.SectionSchema(cfg.LLM.Dimensions, *drop)
	for _, st := range stmts {
		if err := repository.ApplySchema(ctx, pool, []repository.SchemaStatement{st}); err != nil {
			zl.Fatal("Schema step failed", zap.String("step", st.Name), zap.Error(err))
		}
		zl.Info("Applied schema step", zap.String("step", st.Name))
	}

	zl.Info("Schema ready", zap.Int("dimensions", cfg.LLM.Dimensions), zap.Bool("dropped", *drop))
}
