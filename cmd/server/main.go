// Command server exposes the enrichment workflow over HTTP.
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"catalog/internal/api"
	"catalog/internal/config"
	"catalog/internal/env"
	"catalog/internal/logging"
	"catalog/internal/models"
	"catalog/internal/pipeline"
	"catalog/internal/storage"
	"catalog/internal/textgen"
	"catalog/internal/tracing"
	"catalog/pkg/graceful"
)

func main() {
	env.LoadEnv()
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := logging.WithComponent(logging.NewLogger(cfg.LogLevel), "server")

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	var (
		simple   storage.Store[models.Product]
		enriched storage.Store[models.EnrichedProduct]
	)
	if cfg.CatalogDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.CatalogDSN)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pool.Close()

		pgSimple := storage.NewPostgresStore[models.Product](pool, "catalog_simple")
		pgEnriched := storage.NewPostgresStore[models.EnrichedProduct](pool, "catalog_enriched")
		if err := pgSimple.Init(ctx); err != nil {
			log.Fatalf("Failed to initialize catalog table: %v", err)
		}
		if err := pgEnriched.Init(ctx); err != nil {
			log.Fatalf("Failed to initialize catalog table: %v", err)
		}
		simple, enriched = pgSimple, pgEnriched
	} else {
		for _, path := range []string{cfg.SimpleCatalogPath, cfg.EnrichedCatalogPath} {
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					log.Fatalf("Failed to create catalog directory: %v", err)
				}
			}
		}
		simple = storage.NewFileStore[models.Product](cfg.SimpleCatalogPath)
		enriched = storage.NewFileStore[models.EnrichedProduct](cfg.EnrichedCatalogPath)
	}

	generator := textgen.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, "")
	tracer := tracing.New(cfg.LangSmithAPIKey, cfg.LangSmithProject, "", logger)

	enricher, err := pipeline.New(pipeline.Options{
		Generator:  generator,
		Tracer:     tracer,
		Logger:     logger,
		Sequential: cfg.Sequential(),
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	server := api.NewServer(api.ServerConfig{
		Port:          cfg.Port,
		Enricher:      enricher,
		Generator:     generator,
		Tracer:        tracer,
		SimpleStore:   simple,
		EnrichedStore: enriched,
		Logger:        logger,
		StartTime:     time.Now(),
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}
	log.Println("Server exiting.")
}
