// Package pipeline implements the six-stage catalog enrichment
// workflow: ingest, extract, validate, copywrite, localize, publish.
// Stages run strictly in that order under one of two interchangeable
// strategies and accumulate their outputs on a shared state bag.
package pipeline

import (
	"catalog/internal/models"
	"catalog/internal/status"
)

// State is the mutable bag threaded through one product's run. Each
// output field is populated by exactly one stage and read only by
// later stages; the fixed stage order is what guarantees a field is
// never read before its owning stage has run. That precondition is
// documented, not runtime-checked.
//
// A State is owned by the single goroutine running the product and is
// never shared across products.
type State struct {
	Product models.Product
	Events  []status.WorkflowEvent

	NormalizedAttributes map[string]any        // owned by extract
	Pricing              models.Pricing        // owned by validate
	SEO                  models.SEOCopy        // owned by copywrite
	Localizations        []models.Localization // owned by localize
	Enriched             *models.EnrichedProduct // owned by publish
}

// NewState initializes a run with only the source product and an empty
// event list.
func NewState(product models.Product) *State {
	return &State{Product: product}
}

func (s *State) appendEvent(step status.Step, message string, payload map[string]any) {
	s.Events = append(s.Events, status.NewEvent(step, message, payload))
}
