// Package config collects the environment-driven settings for the
// catalog enrichment binaries.
package config

import (
	"fmt"
	"os"
	"strconv"

	"catalog/internal/env"
)

// Config holds every tunable the enricher, server, and worker read
// from the environment.
type Config struct {
	// Catalog storage.
	SimpleCatalogPath   string
	EnrichedCatalogPath string
	CatalogDSN          string

	// Enrichment behaviour.
	Strategy string

	// Text generation.
	OpenAIAPIKey string
	OpenAIModel  string

	// Tracing.
	LangSmithAPIKey  string
	LangSmithProject string

	// HTTP server.
	Port int

	// Kafka worker.
	KafkaBroker      string
	KafkaTopic       string
	KafkaGroupID     string
	KafkaResultTopic string

	// Object storage.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string

	LogLevel string
}

// FromEnv builds a Config from environment variables, applying the
// defaults the Python-era tooling used.
func FromEnv() (*Config, error) {
	cfg := &Config{
		SimpleCatalogPath:   env.GetEnv("CATALOG_SIMPLE_PATH", "catalog/simple.json"),
		EnrichedCatalogPath: env.GetEnv("CATALOG_ENRICHED_PATH", "catalog/enriched.json"),
		CatalogDSN:          os.Getenv("CATALOG_DSN"),
		Strategy:            env.GetEnv("ENRICH_STRATEGY", "graph"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         env.GetEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		LangSmithAPIKey:     os.Getenv("LANGSMITH_API_KEY"),
		LangSmithProject:    env.GetEnv("LANGCHAIN_PROJECT", "ecommerce-catalog-enrichment"),
		KafkaBroker:         os.Getenv("KAFKA_BROKER"),
		KafkaTopic:          os.Getenv("KAFKA_TOPIC"),
		KafkaGroupID:        os.Getenv("KAFKA_GROUP_ID"),
		KafkaResultTopic:    os.Getenv("KAFKA_RESULT_TOPIC"),
		MinioEndpoint:       os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:      os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:      os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:         env.GetEnv("MINIO_BUCKET", "catalog"),
		LogLevel:            env.GetEnv("LOG_LEVEL", "info"),
	}

	if cfg.Strategy != "graph" && cfg.Strategy != "sequential" {
		return nil, fmt.Errorf("invalid ENRICH_STRATEGY %q: must be graph or sequential", cfg.Strategy)
	}

	port := env.GetEnv("PORT", "8080")
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", port)
	}
	cfg.Port = p

	if ssl := os.Getenv("MINIO_USE_SSL"); ssl != "" {
		useSSL, err := strconv.ParseBool(ssl)
		if err != nil {
			return nil, fmt.Errorf("invalid MINIO_USE_SSL %q", ssl)
		}
		cfg.MinioUseSSL = useSSL
	}

	return cfg, nil
}

// Sequential reports whether the sequential execution strategy was
// requested instead of the graph runner.
func (c *Config) Sequential() bool {
	return c.Strategy == "sequential"
}
