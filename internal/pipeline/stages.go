package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"catalog/internal/models"
	"catalog/internal/status"
	"catalog/internal/textgen"
	"catalog/internal/units"
)

// localeTargets are the locales generated on top of the en-US base.
// A per-locale failure omits that locale from the result; there is no
// placeholder translation.
var localeTargets = []struct {
	Code string
	Name string
}{
	{Code: "es-ES", Name: "Spanish"},
	{Code: "fr-FR", Name: "French"},
}

// stages holds the six stage functions and their shared collaborators.
// Each stage mutates only the event list and its own output field on
// the state; every capability failure is absorbed into an event plus
// the deterministic fallback. Only validate can fail the run.
type stages struct {
	gen    textgen.Generator
	logger *slog.Logger
}

func (s *stages) ingest(_ context.Context, st *State) error {
	st.appendEvent(status.StepIngest, "Loaded product", map[string]any{"sku": st.Product.SKU})
	s.logger.Info("ingest completed", "sku", st.Product.SKU)
	return nil
}

func (s *stages) extract(ctx context.Context, st *State) error {
	st.appendEvent(status.StepExtract, "Extracting attributes with AI", nil)

	if s.gen.Available() {
		st.NormalizedAttributes = s.aiExtractAttributes(ctx, st)
	} else {
		st.appendEvent(status.StepExtract, "Using fallback attribute extraction", nil)
		st.NormalizedAttributes = s.fallbackExtractAttributes(st)
	}

	s.logger.Info("extract completed", "sku", st.Product.SKU, "attributes", len(st.NormalizedAttributes))
	return nil
}

func (s *stages) validate(_ context.Context, st *State) error {
	p := st.Product

	var missing []string
	if p.SKU == "" {
		missing = append(missing, "sku")
	}
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.Price == 0 {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		st.appendEvent(status.StepValidate,
			"Missing required fields: "+strings.Join(missing, ", "),
			map[string]any{"status": "error"})
		return &ValidationError{Missing: missing}
	}

	st.appendEvent(status.StepValidate, "Validation passed", nil)
	st.Pricing = models.Pricing{
		Currency: currencyOf(p),
		Price:    p.Price,
		InStock:  !math.IsNaN(p.Price) && !math.IsInf(p.Price, 0),
	}
	s.logger.Info("validate completed", "sku", p.SKU)
	return nil
}

func (s *stages) copywrite(ctx context.Context, st *State) error {
	if s.gen.Available() {
		st.SEO = s.aiSEOCopy(ctx, st)
	} else {
		st.appendEvent(status.StepCopywrite, "Using fallback SEO generation", nil)
		st.SEO = s.fallbackSEOCopy(st)
	}

	s.logger.Info("copywrite completed", "sku", st.Product.SKU)
	return nil
}

func (s *stages) localize(ctx context.Context, st *State) error {
	if s.gen.Available() {
		st.Localizations = s.aiLocalize(ctx, st)
	} else {
		st.appendEvent(status.StepLocalize, "Using fallback localization", nil)
		st.Localizations = s.fallbackLocalize(st)
	}

	s.logger.Info("localize completed", "sku", st.Product.SKU, "locales", len(st.Localizations))
	return nil
}

func (s *stages) publish(_ context.Context, st *State) error {
	st.Enriched = &models.EnrichedProduct{
		SKU:                  st.Product.SKU,
		Name:                 st.Product.Name,
		NormalizedAttributes: st.NormalizedAttributes,
		SEO:                  st.SEO,
		Localizations:        st.Localizations,
		Pricing:              st.Pricing,
	}
	st.appendEvent(status.StepPublish, "Enriched product ready", map[string]any{"sku": st.Product.SKU})
	s.logger.Info("publish completed", "sku", st.Product.SKU)
	return nil
}

const extractSystemPrompt = "You are an expert product data analyst. Extract structured product " +
	"attributes from product information. Respond only with valid JSON."

func (s *stages) aiExtractAttributes(ctx context.Context, st *State) map[string]any {
	p := st.Product
	prompt := fmt.Sprintf(`Analyze this product and extract structured attributes useful for e-commerce:

Product Name: %s
Description: %s
Category: %s
Existing Attributes: %v

Extract and normalize physical properties, material, technical specifications,
style features, compatibility, and usage characteristics when applicable.

Return a JSON object with normalized attribute names (lowercase, underscore-separated) and clear values.`,
		p.Name, p.Description, p.Category, p.Attributes)

	result, err := s.gen.Generate(ctx, textgen.Request{
		System:      extractSystemPrompt,
		User:        prompt,
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		return s.extractFallbackAfterFailure(st, err)
	}

	var extracted map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(result.Text)), &extracted); err != nil {
		return s.extractFallbackAfterFailure(st, err)
	}

	st.appendEvent(status.StepExtract, "AI extracted product attributes",
		map[string]any{"token_usage": result.TokensUsed})

	extracted["category"] = categoryOf(p)
	for key, value := range extracted {
		extracted[key] = units.Convert(key, value)
	}
	return extracted
}

func (s *stages) extractFallbackAfterFailure(st *State, cause error) map[string]any {
	s.logger.Error("AI attribute extraction failed", "sku", st.Product.SKU, "error", cause)
	st.appendEvent(status.StepExtract,
		fmt.Sprintf("AI extraction failed: %v, using fallback", cause), nil)
	return s.fallbackExtractAttributes(st)
}

func (s *stages) fallbackExtractAttributes(st *State) map[string]any {
	st.appendEvent(status.StepExtract, "Normalizing attributes", nil)

	normalized := make(map[string]any, len(st.Product.Attributes)+1)
	for key, value := range st.Product.Attributes {
		normalizedKey := strings.ReplaceAll(strings.ToLower(key), " ", "_")
		normalized[normalizedKey] = units.Convert(normalizedKey, value)
	}
	normalized["category"] = categoryOf(st.Product)
	return normalized
}

const seoSystemPrompt = "You are an expert SEO copywriter specializing in e-commerce product " +
	"optimization. Create compelling, conversion-focused copy that ranks well and drives sales. " +
	"Respond only with valid JSON."

func (s *stages) aiSEOCopy(ctx context.Context, st *State) models.SEOCopy {
	p := st.Product
	prompt := fmt.Sprintf(`Create compelling SEO-optimized copy for this e-commerce product:

Product Name: %s
Description: %s
Category: %s
Price: $%v %s
Key Attributes: %s

Generate:
1. SEO Title (50-60 chars): compelling, keyword-rich page title
2. Meta Description (150-160 chars): engaging description that drives clicks
3. Keywords (5-10): relevant search terms for this product
4. Long description for product pages

Return JSON format:
{"title": "...", "description": "...", "keywords": ["..."], "long_description": "..."}`,
		p.Name, p.Description, p.Category, p.Price, currencyOf(p), attributeContext(st.NormalizedAttributes, 5))

	result, err := s.gen.Generate(ctx, textgen.Request{
		System:      seoSystemPrompt,
		User:        prompt,
		Temperature: 0.3,
		MaxTokens:   600,
	})
	if err != nil {
		return s.seoFallbackAfterFailure(st, err)
	}

	var seo models.SEOCopy
	if err := json.Unmarshal([]byte(strings.TrimSpace(result.Text)), &seo); err != nil {
		return s.seoFallbackAfterFailure(st, err)
	}

	st.appendEvent(status.StepCopywrite, "AI generated SEO copy",
		map[string]any{"token_usage": result.TokensUsed})
	return seo
}

func (s *stages) seoFallbackAfterFailure(st *State, cause error) models.SEOCopy {
	s.logger.Error("AI SEO generation failed", "sku", st.Product.SKU, "error", cause)
	st.appendEvent(status.StepCopywrite,
		fmt.Sprintf("AI SEO failed: %v, using fallback", cause), nil)
	return s.fallbackSEOCopy(st)
}

func (s *stages) fallbackSEOCopy(st *State) models.SEOCopy {
	p := st.Product

	featured, ok := firstAttribute(st.NormalizedAttributes).(string)
	if !ok {
		featured = p.Description
	}

	title := strings.TrimSpace(p.Name + " | " + titleCase(p.Category))
	description := strings.TrimSpace(fmt.Sprintf("Buy %s featuring %s.", p.Name, featured))

	seen := map[string]struct{}{}
	var keywords []string
	for _, kw := range []string{p.Category, p.Name} {
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	st.appendEvent(status.StepCopywrite, "Generated SEO copy", nil)
	return models.SEOCopy{Title: title, Description: description, Keywords: keywords}
}

func (s *stages) aiLocalize(ctx context.Context, st *State) []models.Localization {
	base := models.Localization{
		Locale:          "en-US",
		Title:           st.SEO.Title,
		Description:     st.SEO.Description,
		LongDescription: st.SEO.LongDescription,
	}
	localizations := []models.Localization{base}

	for _, target := range localeTargets {
		translated, tokens, err := s.translateCopy(ctx, base, target.Name)
		if err != nil {
			s.logger.Error("AI localization failed", "sku", st.Product.SKU, "locale", target.Code, "error", err)
			st.appendEvent(status.StepLocalize,
				fmt.Sprintf("Localization failed for %s: %v", target.Code, err), nil)
			continue
		}
		translated.Locale = target.Code
		localizations = append(localizations, translated)
		st.appendEvent(status.StepLocalize, "AI localized to "+target.Name,
			map[string]any{"token_usage": tokens})
	}
	return localizations
}

func (s *stages) translateCopy(ctx context.Context, base models.Localization, language string) (models.Localization, int, error) {
	system := fmt.Sprintf("You are an expert translator and localizer specializing in e-commerce "+
		"copy for %s markets. Provide culturally appropriate, SEO-optimized translations. "+
		"Respond only with valid JSON.", language)
	prompt := fmt.Sprintf(`Translate and localize this e-commerce product copy to %s,
adapting it for %s market preferences while preserving key product information:

Original Title: %s
Original Description: %s
Long Description: %s

Return JSON format:
{"title": "...", "description": "...", "long_description": "..."}`,
		language, language, base.Title, base.Description, base.LongDescription)

	result, err := s.gen.Generate(ctx, textgen.Request{
		System:      system,
		User:        prompt,
		Temperature: 0.2,
		MaxTokens:   400,
	})
	if err != nil {
		return models.Localization{}, 0, err
	}

	var translated models.Localization
	if err := json.Unmarshal([]byte(strings.TrimSpace(result.Text)), &translated); err != nil {
		return models.Localization{}, 0, err
	}
	return translated, result.TokensUsed, nil
}

func (s *stages) fallbackLocalize(st *State) []models.Localization {
	st.appendEvent(status.StepLocalize, "Generated default locale copy", nil)
	return []models.Localization{{
		Locale:      "en-US",
		Title:       st.SEO.Title,
		Description: st.SEO.Description,
	}}
}

func categoryOf(p models.Product) string {
	if p.Category == "" {
		return "uncategorized"
	}
	return strings.ToLower(p.Category)
}

func currencyOf(p models.Product) string {
	if p.Currency == "" {
		return "USD"
	}
	return p.Currency
}

// firstAttribute returns the value of the alphabetically first
// attribute other than the always-present category, or the category
// itself when no other attribute exists. Sorting keeps the choice
// deterministic across runs.
func firstAttribute(normalized map[string]any) any {
	keys := make([]string, 0, len(normalized))
	for key := range normalized {
		if key == "category" {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return normalized["category"]
	}
	sort.Strings(keys)
	return normalized[keys[0]]
}

// attributeContext renders up to limit attributes as prompt context,
// in sorted key order for deterministic prompts.
func attributeContext(normalized map[string]any, limit int) string {
	keys := make([]string, 0, len(normalized))
	for key := range normalized {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, normalized[key]))
	}
	return strings.Join(parts, ", ")
}

// titleCase capitalizes the first letter of each space-separated word
// and lowercases the rest, matching the display style used for
// category names in titles.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, word := range words {
		runes := []rune(word)
		words[i] = strings.ToUpper(string(runes[0])) + string(runes[1:])
	}
	return strings.Join(words, " ")
}
