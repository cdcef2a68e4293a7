package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"catalog/internal/models"
	"catalog/internal/pipeline"
	"catalog/internal/status"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/api", func(r chi.Router) {
		r.Post("/enrich", enrichHandler(cfg))
		r.Post("/enrich/stream", enrichStreamHandler(cfg))
		r.Get("/products/simple", listSimpleHandler(cfg))
		r.Get("/products/enriched", listEnrichedHandler(cfg))
		r.Get("/products/{sku}", getProductHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	steps := make([]string, len(status.WorkflowSteps))
	for i, s := range status.WorkflowSteps {
		steps[i] = string(s)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:           "ok",
			Version:          "0.1.0",
			UptimeS:          int64(time.Since(cfg.StartTime).Seconds()),
			WorkflowSteps:    steps,
			GraphEnabled:     cfg.Enricher.GraphEnabled(),
			TextGenAvailable: cfg.Generator.Available(),
			TracingEnabled:   cfg.Tracer.Enabled(),
		})
	}
}

func enrichHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EnrichRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		product := req.ToProduct()
		result, err := cfg.Enricher.Enrich(r.Context(), product)
		if err != nil {
			var verr *pipeline.ValidationError
			if errors.As(err, &verr) {
				WriteError(w, http.StatusUnprocessableEntity, verr.Error(), "VALIDATION_FAILED")
				return
			}
			cfg.Logger.Error("enrichment failed", "sku", product.SKU, "error", err)
			WriteError(w, http.StatusInternalServerError, "enrichment failed", "INTERNAL_ERROR")
			return
		}

		if err := persistResult(r, cfg, product, result.Enriched); err != nil {
			cfg.Logger.Error("failed to persist enrichment", "sku", product.SKU, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to persist result", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, EnrichResponse{
			SKU:      result.SKU,
			Enriched: result.Enriched,
			Events:   result.Events,
		})
	}
}

// enrichStreamHandler runs the same workflow but replays the audit
// trail as server-sent events so a caller can watch the run stage by
// stage.
func enrichStreamHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EnrichRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteError(w, http.StatusInternalServerError, "streaming unsupported", "INTERNAL_ERROR")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		product := req.ToProduct()
		writeSSE(w, flusher, "ack", map[string]any{"sku": product.SKU})
		writeSSE(w, flusher, "workflow", map[string]any{
			"steps": status.WorkflowSteps,
			"graph": cfg.Enricher.GraphEnabled(),
		})

		result, err := cfg.Enricher.Enrich(r.Context(), product)
		if err != nil {
			writeSSE(w, flusher, "error", map[string]any{"error": err.Error()})
			return
		}

		for _, event := range result.Events {
			writeSSE(w, flusher, "event", event)
		}

		if err := persistResult(r, cfg, product, result.Enriched); err != nil {
			cfg.Logger.Error("failed to persist enrichment", "sku", product.SKU, "error", err)
			writeSSE(w, flusher, "error", map[string]any{"error": "failed to persist result"})
			return
		}

		writeSSE(w, flusher, "enriched", result.Enriched)
		writeSSE(w, flusher, "done", map[string]any{"sku": result.SKU})
	}
}

func listSimpleHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := cfg.SimpleStore.Load(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load catalog", "INTERNAL_ERROR")
			return
		}
		if products == nil {
			products = []models.Product{}
		}
		WriteJSON(w, http.StatusOK, SimpleProductsResponse{Products: products, Count: len(products)})
	}
}

func listEnrichedHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := cfg.EnrichedStore.Load(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load catalog", "INTERNAL_ERROR")
			return
		}
		if products == nil {
			products = []models.EnrichedProduct{}
		}
		WriteJSON(w, http.StatusOK, EnrichedProductsResponse{Products: products, Count: len(products)})
	}
}

func getProductHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku := chi.URLParam(r, "sku")

		resp := ProductDetailResponse{SKU: sku}

		simple, err := cfg.SimpleStore.Load(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load catalog", "INTERNAL_ERROR")
			return
		}
		for i := range simple {
			if simple[i].SKU == sku {
				resp.Simple = &simple[i]
				break
			}
		}

		enriched, err := cfg.EnrichedStore.Load(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load catalog", "INTERNAL_ERROR")
			return
		}
		for i := range enriched {
			if enriched[i].SKU == sku {
				resp.Enriched = &enriched[i]
				break
			}
		}

		if resp.Simple == nil && resp.Enriched == nil {
			WriteError(w, http.StatusNotFound, "product not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// persistResult appends the submitted record and its enrichment to the
// catalogs, deduplicating by sku so replays leave both unchanged.
func persistResult(r *http.Request, cfg ServerConfig, product models.Product, enriched models.EnrichedProduct) error {
	existing, err := cfg.SimpleStore.Load(r.Context())
	if err != nil {
		return err
	}
	if _, err := cfg.SimpleStore.AppendUnique(r.Context(), existing, []models.Product{product}); err != nil {
		return err
	}

	existingEnriched, err := cfg.EnrichedStore.Load(r.Context())
	if err != nil {
		return err
	}
	_, err = cfg.EnrichedStore.AppendUnique(r.Context(), existingEnriched, []models.EnrichedProduct{enriched})
	return err
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
