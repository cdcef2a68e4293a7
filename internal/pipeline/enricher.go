package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"catalog/internal/models"
	"catalog/internal/storage"
	"catalog/internal/textgen"
	"catalog/internal/tracing"
)

// Enricher runs the enrichment workflow for single products and for
// batches of pending catalog records. The execution strategy is chosen
// once at construction and never changes afterwards.
type Enricher struct {
	strategy Strategy
	logger   *slog.Logger
}

// Options configure a new Enricher. Generator must not be nil; pass
// textgen.Disabled{} when no backend is configured. A nil Tracer
// disables tracing. Sequential forces the fallback strategy.
type Options struct {
	Generator  textgen.Generator
	Tracer     *tracing.Tracer
	Logger     *slog.Logger
	Sequential bool
}

// New builds an Enricher with the configured strategy.
func New(opts Options) (*Enricher, error) {
	if opts.Generator == nil {
		opts.Generator = textgen.Disabled{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	sg := &stages{gen: opts.Generator, logger: opts.Logger}

	var strategy Strategy
	if opts.Sequential {
		strategy = newSequentialStrategy(sg)
	} else {
		chained, err := newChainedStrategy(sg, opts.Tracer, opts.Logger)
		if err != nil {
			return nil, err
		}
		strategy = chained
	}

	return &Enricher{strategy: strategy, logger: opts.Logger}, nil
}

// GraphEnabled reports whether runs use graph orchestration. The flag
// is informational; callers never need it to use the pipeline.
func (e *Enricher) GraphEnabled() bool {
	return e.strategy.Name() == "graph"
}

// Enrich runs the full workflow for one product. A ValidationError
// aborts the run at the validate stage and no enriched output is
// produced for that product.
func (e *Enricher) Enrich(ctx context.Context, product models.Product) (*models.ProcessedProduct, error) {
	start := time.Now()
	st := NewState(product)

	e.logger.Info("starting enrichment", "strategy", e.strategy.Name(), "sku", product.SKU)
	if err := e.strategy.Run(ctx, st); err != nil {
		return nil, err
	}
	if st.Enriched == nil {
		return nil, errors.New("enrichment failed to produce output")
	}
	e.logger.Info("completed enrichment",
		"strategy", e.strategy.Name(), "sku", product.SKU, "duration", time.Since(start))

	return &models.ProcessedProduct{
		SKU:      product.SKU,
		Original: product,
		Enriched: *st.Enriched,
		Events:   st.Events,
	}, nil
}

// ProcessPending enriches the simple-catalog records whose sku is not
// yet present in the enriched catalog, preserving catalog order. When
// processAll is false only the newest pending record (last by
// position) is processed. Per-record failures are logged and skipped
// so one bad record never aborts the batch; storage failures abort the
// whole invocation. Successful results are appended to the enriched
// catalog with dedup-by-sku, so an immediate rerun finds nothing
// pending and returns an empty result.
func (e *Enricher) ProcessPending(
	ctx context.Context,
	simple storage.Store[models.Product],
	enriched storage.Store[models.EnrichedProduct],
	processAll bool,
) ([]models.ProcessedProduct, error) {
	simpleRecords, err := simple.Load(ctx)
	if err != nil {
		return nil, err
	}
	enrichedRecords, err := enriched.Load(ctx)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]struct{}, len(enrichedRecords))
	for _, record := range enrichedRecords {
		existing[record.SKU] = struct{}{}
	}

	var pending []models.Product
	for _, record := range simpleRecords {
		if _, ok := existing[record.SKU]; !ok {
			pending = append(pending, record)
		}
	}
	if !processAll && len(pending) > 1 {
		pending = pending[len(pending)-1:]
	}

	var processed []models.ProcessedProduct
	for _, product := range pending {
		result, err := e.Enrich(ctx, product)
		if err != nil {
			e.logger.Error("failed to process product", "sku", product.SKU, "error", err)
			continue
		}
		processed = append(processed, *result)
		e.logger.Info("processed product", "sku", result.SKU)
	}

	if len(processed) > 0 {
		newRecords := make([]models.EnrichedProduct, 0, len(processed))
		for _, result := range processed {
			newRecords = append(newRecords, result.Enriched)
		}
		if _, err := enriched.AppendUnique(ctx, enrichedRecords, newRecords); err != nil {
			return nil, err
		}
	}
	return processed, nil
}
