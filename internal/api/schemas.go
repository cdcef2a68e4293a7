package api

import (
	"catalog/internal/models"
	"catalog/internal/status"
)

type HealthResponse struct {
	Status           string   `json:"status"`
	Version          string   `json:"version"`
	UptimeS          int64    `json:"uptime_s"`
	WorkflowSteps    []string `json:"workflow_steps"`
	GraphEnabled     bool     `json:"graph_enabled"`
	TextGenAvailable bool     `json:"textgen_available"`
	TracingEnabled   bool     `json:"tracing_enabled"`
}

type EnrichRequest struct {
	SKU         string         `json:"sku"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category,omitempty"`
	Price       float64        `json:"price"`
	Currency    string         `json:"currency,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

type EnrichResponse struct {
	SKU      string                 `json:"sku"`
	Enriched models.EnrichedProduct `json:"enriched"`
	Events   []status.WorkflowEvent `json:"events"`
}

type SimpleProductsResponse struct {
	Products []models.Product `json:"products"`
	Count    int              `json:"count"`
}

type EnrichedProductsResponse struct {
	Products []models.EnrichedProduct `json:"products"`
	Count    int                      `json:"count"`
}

type ProductDetailResponse struct {
	SKU      string                  `json:"sku"`
	Simple   *models.Product         `json:"simple,omitempty"`
	Enriched *models.EnrichedProduct `json:"enriched,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ToProduct converts the request into a catalog record, applying the
// same defaults the batch processor uses for raw records.
func (r EnrichRequest) ToProduct() models.Product {
	category := r.Category
	if category == "" {
		category = "general"
	}
	currency := r.Currency
	if currency == "" {
		currency = "USD"
	}
	return models.Product{
		SKU:         r.SKU,
		Name:        r.Name,
		Description: r.Description,
		Category:    category,
		Price:       r.Price,
		Currency:    currency,
		Attributes:  r.Attributes,
	}
}
