package config

import "testing"

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.SimpleCatalogPath != "catalog/simple.json" {
		t.Errorf("SimpleCatalogPath = %q", cfg.SimpleCatalogPath)
	}
	if cfg.EnrichedCatalogPath != "catalog/enriched.json" {
		t.Errorf("EnrichedCatalogPath = %q", cfg.EnrichedCatalogPath)
	}
	if cfg.Strategy != "graph" || cfg.Sequential() {
		t.Errorf("Strategy = %q, Sequential() = %v", cfg.Strategy, cfg.Sequential())
	}
	if cfg.OpenAIModel != "gpt-3.5-turbo" {
		t.Errorf("OpenAIModel = %q", cfg.OpenAIModel)
	}
	if cfg.LangSmithProject != "ecommerce-catalog-enrichment" {
		t.Errorf("LangSmithProject = %q", cfg.LangSmithProject)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.MinioBucket != "catalog" {
		t.Errorf("MinioBucket = %q", cfg.MinioBucket)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ENRICH_STRATEGY", "sequential")
	t.Setenv("PORT", "9191")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !cfg.Sequential() {
		t.Error("Sequential() = false, want true")
	}
	if cfg.Port != 9191 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if !cfg.MinioUseSSL {
		t.Error("MinioUseSSL = false, want true")
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("OpenAIModel = %q", cfg.OpenAIModel)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad strategy", "ENRICH_STRATEGY", "parallel"},
		{"bad port", "PORT", "not-a-port"},
		{"port out of range", "PORT", "70000"},
		{"bad ssl flag", "MINIO_USE_SSL", "maybe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("FromEnv accepted %s=%q", tc.key, tc.value)
			}
		})
	}
}
