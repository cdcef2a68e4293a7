// Package models holds the catalog record types shared across the
// pipeline, storage, and API layers. EnrichedProduct is the persisted
// public contract; downstream consumers serialize it as-is.
package models

import "catalog/internal/status"

// Product is a raw catalog record as submitted by a merchant. It is
// immutable once ingested; sku, name, and price are required and are
// checked by the validate stage, not here.
type Product struct {
	SKU         string         `json:"sku"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Price       float64        `json:"price"`
	Currency    string         `json:"currency"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Key returns the unique catalog key for the record.
func (p Product) Key() string { return p.SKU }

// Pricing is the validated price block produced by the validate stage.
type Pricing struct {
	Currency string  `json:"currency"`
	Price    float64 `json:"price"`
	InStock  bool    `json:"in_stock"`
}

// SEOCopy is the copywrite stage output.
type SEOCopy struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Keywords        []string `json:"keywords"`
	LongDescription string   `json:"long_description,omitempty"`
}

// Localization is one locale variant of the SEO copy. The en-US entry
// is always the unmodified base copy.
type Localization struct {
	Locale          string `json:"locale"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	LongDescription string `json:"long_description,omitempty"`
}

// EnrichedProduct is the pipeline's terminal output for one product.
type EnrichedProduct struct {
	SKU                  string         `json:"sku"`
	Name                 string         `json:"name"`
	NormalizedAttributes map[string]any `json:"normalized_attributes"`
	SEO                  SEOCopy        `json:"seo"`
	Localizations        []Localization `json:"localizations"`
	Pricing              Pricing        `json:"pricing"`
}

// Key returns the unique catalog key for the record.
func (e EnrichedProduct) Key() string { return e.SKU }

// ProcessedProduct pairs the original record with its enrichment and
// the full audit trail of the run. Immutable once constructed.
type ProcessedProduct struct {
	SKU      string                 `json:"sku"`
	Original Product                `json:"original"`
	Enriched EnrichedProduct        `json:"enriched"`
	Events   []status.WorkflowEvent `json:"events"`
}
