package keys

import (
	"fmt"
	"strings"

	"catalog/internal/models"
)

// sanitizeKey replaces spaces with hyphens and lowercases the string so
// the result is a valid, predictable object key segment.
func sanitizeKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "-"))
}

// Product returns the canonical object key for a raw product record.
func Product(p models.Product) string {
	category := p.Category
	if category == "" {
		category = "general"
	}
	return fmt.Sprintf("products/%s/%s.json", sanitizeKey(category), sanitizeKey(p.SKU))
}

// Enriched returns the canonical object key for an enriched record.
func Enriched(sku string) string {
	return fmt.Sprintf("enriched/%s.json", sanitizeKey(sku))
}
