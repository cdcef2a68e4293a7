package keys

import (
	"testing"

	"catalog/internal/models"
)

func TestProduct(t *testing.T) {
	tests := []struct {
		name    string
		product models.Product
		want    string
	}{
		{
			name:    "category and sku sanitized",
			product: models.Product{SKU: "TEMP 2", Category: "Water Bottles"},
			want:    "products/water-bottles/temp-2.json",
		},
		{
			name:    "blank category defaults",
			product: models.Product{SKU: "A-1"},
			want:    "products/general/a-1.json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Product(tt.product); got != tt.want {
				t.Errorf("Product() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnriched(t *testing.T) {
	if got := Enriched("TEMP-2"); got != "enriched/temp-2.json" {
		t.Errorf("Enriched() = %q", got)
	}
}
