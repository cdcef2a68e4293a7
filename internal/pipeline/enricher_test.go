package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"catalog/internal/models"
	"catalog/internal/storage"
	"catalog/internal/textgen"
)

func newTestEnricher(t *testing.T, gen textgen.Generator, sequential bool) *Enricher {
	t.Helper()
	enricher, err := New(Options{Generator: gen, Logger: testLogger(), Sequential: sequential})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return enricher
}

func TestStrategyEquivalence(t *testing.T) {
	tests := []struct {
		name string
		gen  func() textgen.Generator
	}{
		{name: "capability absent", gen: func() textgen.Generator { return textgen.Disabled{} }},
		{name: "capability available", gen: func() textgen.Generator { return scriptedGenerator() }},
		{name: "capability failing", gen: func() textgen.Generator { return failingGenerator() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			product := testProduct()

			graphEnricher := newTestEnricher(t, tt.gen(), false)
			seqEnricher := newTestEnricher(t, tt.gen(), true)

			if !graphEnricher.GraphEnabled() {
				t.Error("graph enricher must report graph orchestration")
			}
			if seqEnricher.GraphEnabled() {
				t.Error("sequential enricher must not report graph orchestration")
			}

			fromGraph, err := graphEnricher.Enrich(ctx, product)
			if err != nil {
				t.Fatalf("graph Enrich() error: %v", err)
			}
			fromSeq, err := seqEnricher.Enrich(ctx, product)
			if err != nil {
				t.Fatalf("sequential Enrich() error: %v", err)
			}

			if !reflect.DeepEqual(fromGraph.Enriched, fromSeq.Enriched) {
				t.Errorf("strategies diverged:\ngraph: %+v\nsequential: %+v", fromGraph.Enriched, fromSeq.Enriched)
			}
		})
	}
}

func TestEnrich_ValidationFailureProducesNoOutput(t *testing.T) {
	enricher := newTestEnricher(t, textgen.Disabled{}, false)

	result, err := enricher.Enrich(context.Background(), models.Product{SKU: "NO-PRICE", Name: "Thing"})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
}

func tempStores(t *testing.T, products []models.Product) (storage.Store[models.Product], storage.Store[models.EnrichedProduct]) {
	t.Helper()
	dir := t.TempDir()
	simple := storage.NewFileStore[models.Product](filepath.Join(dir, "simple.json"))
	enriched := storage.NewFileStore[models.EnrichedProduct](filepath.Join(dir, "enriched.json"))
	if _, err := simple.AppendUnique(context.Background(), nil, products); err != nil {
		t.Fatalf("seeding simple catalog: %v", err)
	}
	return simple, enriched
}

func TestProcessPending_Idempotent(t *testing.T) {
	ctx := context.Background()
	enricher := newTestEnricher(t, textgen.Disabled{}, false)
	simple, enriched := tempStores(t, []models.Product{
		testProduct(),
		{SKU: "TEMP-3", Name: "Mug", Category: "Kitchen", Price: 8},
	})

	processed, err := enricher.ProcessPending(ctx, simple, enriched, true)
	if err != nil {
		t.Fatalf("ProcessPending() error: %v", err)
	}
	if len(processed) != 2 {
		t.Fatalf("first run processed %d, want 2", len(processed))
	}

	saved, err := enriched.Load(ctx)
	if err != nil {
		t.Fatalf("loading enriched catalog: %v", err)
	}
	if len(saved) != 2 || saved[0].SKU != "TEMP-2" {
		t.Errorf("enriched catalog = %+v", saved)
	}

	repeat, err := enricher.ProcessPending(ctx, simple, enriched, true)
	if err != nil {
		t.Fatalf("second ProcessPending() error: %v", err)
	}
	if len(repeat) != 0 {
		t.Errorf("second run processed %d, want 0", len(repeat))
	}
}

func TestProcessPending_NewestOnlyByDefault(t *testing.T) {
	ctx := context.Background()
	enricher := newTestEnricher(t, textgen.Disabled{}, false)
	simple, enriched := tempStores(t, []models.Product{
		{SKU: "OLD-1", Name: "Old", Price: 1},
		{SKU: "NEW-2", Name: "New", Price: 2},
	})

	processed, err := enricher.ProcessPending(ctx, simple, enriched, false)
	if err != nil {
		t.Fatalf("ProcessPending() error: %v", err)
	}
	if len(processed) != 1 || processed[0].SKU != "NEW-2" {
		t.Errorf("processed = %+v, want only the newest pending record", processed)
	}
}

func TestProcessPending_IsolatesPerRecordFailures(t *testing.T) {
	ctx := context.Background()
	enricher := newTestEnricher(t, textgen.Disabled{}, false)
	simple, enriched := tempStores(t, []models.Product{
		{SKU: "BAD-1", Name: "Missing price"},
		{SKU: "GOOD-2", Name: "Valid", Price: 5},
	})

	processed, err := enricher.ProcessPending(ctx, simple, enriched, true)
	if err != nil {
		t.Fatalf("per-record failure must not fail the batch: %v", err)
	}
	if len(processed) != 1 || processed[0].SKU != "GOOD-2" {
		t.Fatalf("processed = %+v, want exactly the valid record", processed)
	}

	saved, err := enriched.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 || saved[0].SKU != "GOOD-2" {
		t.Errorf("enriched catalog = %+v", saved)
	}
}

func TestProcessPending_CorruptStoreAbortsBatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	simplePath := filepath.Join(dir, "simple.json")
	if err := os.WriteFile(simplePath, []byte("{not an array}"), 0o644); err != nil {
		t.Fatal(err)
	}
	simple := storage.NewFileStore[models.Product](simplePath)
	enriched := storage.NewFileStore[models.EnrichedProduct](filepath.Join(dir, "enriched.json"))

	enricher := newTestEnricher(t, textgen.Disabled{}, false)
	_, err := enricher.ProcessPending(ctx, simple, enriched, true)

	var perr *storage.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want PersistenceError", err)
	}
}
