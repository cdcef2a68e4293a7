// Command enricher runs the batch enrichment workflow over the catalog
// files: every simple-catalog record without an enriched counterpart is
// pushed through the pipeline and the results are appended to the
// enriched catalog.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

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
	processAll := flag.Bool("all", false, "process every pending product instead of only the newest")
	dryRun := flag.Bool("dry-run", false, "run the pipeline but do not write the enriched catalog")
	format := flag.String("format", "text", "output format: text, json, or stream")
	flag.Parse()

	if *format != "text" && *format != "json" && *format != "stream" {
		log.Fatalf("Unknown format %q: must be text, json, or stream", *format)
	}

	env.LoadEnv()
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := logging.WithComponent(logging.NewLogger(cfg.LogLevel), "enricher")

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	simple, enriched, cleanup, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open catalog storage: %v", err)
	}
	defer cleanup()

	if *dryRun {
		// Previewed results are merged in memory and never written.
		enriched = previewStore[models.EnrichedProduct]{inner: enriched}
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

	start := time.Now()
	processed, err := enricher.ProcessPending(ctx, simple, enriched, *processAll)
	if err != nil {
		log.Fatalf("Batch run failed: %v", err)
	}

	if len(processed) == 0 {
		fmt.Println("No new products to process.")
		return
	}

	switch *format {
	case "json":
		printJSON(processed)
	case "stream":
		printStream(processed)
	default:
		printText(processed, time.Since(start), *dryRun)
	}
}

// openStores selects Postgres when CATALOG_DSN is set, JSON files
// otherwise. The returned cleanup releases the connection pool.
func openStores(ctx context.Context, cfg *config.Config) (
	storage.Store[models.Product],
	storage.Store[models.EnrichedProduct],
	func(),
	error,
) {
	if cfg.CatalogDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.CatalogDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		simple := storage.NewPostgresStore[models.Product](pool, "catalog_simple")
		enriched := storage.NewPostgresStore[models.EnrichedProduct](pool, "catalog_enriched")
		if err := simple.Init(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		if err := enriched.Init(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return simple, enriched, pool.Close, nil
	}

	for _, path := range []string{cfg.SimpleCatalogPath, cfg.EnrichedCatalogPath} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, nil, err
			}
		}
	}
	simple := storage.NewFileStore[models.Product](cfg.SimpleCatalogPath)
	enriched := storage.NewFileStore[models.EnrichedProduct](cfg.EnrichedCatalogPath)
	return simple, enriched, func() {}, nil
}

// previewStore reads through to the real catalog but keeps appends in
// memory only.
type previewStore[T storage.Record] struct {
	inner storage.Store[T]
}

func (p previewStore[T]) Load(ctx context.Context) ([]T, error) {
	return p.inner.Load(ctx)
}

func (p previewStore[T]) AppendUnique(_ context.Context, existing, records []T) ([]T, error) {
	return append(existing, records...), nil
}

func printText(processed []models.ProcessedProduct, elapsed time.Duration, dryRun bool) {
	for _, result := range processed {
		fmt.Printf("=== %s (%s) ===\n", result.Enriched.Name, result.SKU)
		for _, event := range result.Events {
			fmt.Printf("  [%s] %s\n", event.Step, event.Message)
		}
		payload, err := json.MarshalIndent(result.Enriched, "  ", "  ")
		if err != nil {
			log.Fatalf("Failed to encode enriched product: %v", err)
		}
		fmt.Printf("  %s\n", payload)
	}
	suffix := ""
	if dryRun {
		suffix = " (dry run, nothing written)"
	}
	fmt.Printf("\nProcessed %d product(s) in %s%s\n", len(processed), elapsed.Round(time.Millisecond), suffix)
}

func printJSON(processed []models.ProcessedProduct) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(processed); err != nil {
		log.Fatalf("Failed to encode results: %v", err)
	}
}

// printStream writes one JSON line per workflow event, then one per
// enriched record, so the output can be piped into line-oriented tools.
func printStream(processed []models.ProcessedProduct) {
	enc := json.NewEncoder(os.Stdout)
	for _, result := range processed {
		for _, event := range result.Events {
			line := map[string]any{"sku": result.SKU, "event": event}
			if err := enc.Encode(line); err != nil {
				log.Fatalf("Failed to encode event: %v", err)
			}
		}
		if err := enc.Encode(map[string]any{"sku": result.SKU, "enriched": result.Enriched}); err != nil {
			log.Fatalf("Failed to encode result: %v", err)
		}
	}
}
