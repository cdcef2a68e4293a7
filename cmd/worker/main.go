// Command worker consumes bucket-notification events from Kafka,
// enriches each referenced product, writes the result back to object
// storage, and announces completions on a result topic.
package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"catalog/internal/config"
	"catalog/internal/env"
	"catalog/internal/logging"
	"catalog/internal/pipeline"
	"catalog/internal/service"
	"catalog/internal/storage"
	"catalog/internal/textgen"
	"catalog/internal/tracing"
	"catalog/pkg/graceful"
	"catalog/pkg/kafkaclient"
)

type completionMessage struct {
	SKU         string    `json:"sku"`
	Key         string    `json:"key"`
	CompletedAt time.Time `json:"completed_at"`
}

func main() {
	env.LoadEnv()
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := logging.WithComponent(logging.NewLogger(cfg.LogLevel), "worker")

	kafkaBroker := env.MustGetEnv("KAFKA_BROKER")
	kafkaTopic := env.MustGetEnv("KAFKA_TOPIC")
	kafkaGroupID := env.MustGetEnv("KAFKA_GROUP_ID")

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	log.Printf("Connecting to Kafka broker: %s on topic: %s with group ID: %s", kafkaBroker, kafkaTopic, kafkaGroupID)
	consumer := kafkaclient.NewConsumer(kafkaTopic, kafkaGroupID, kafkaBroker)

	var publisher *kafkaclient.Publisher
	if cfg.KafkaResultTopic != "" {
		publisher = kafkaclient.NewPublisher(cfg.KafkaResultTopic, kafkaBroker)
		defer publisher.Close()
	}

	objectStore, err := storage.NewS3Store(storage.S3Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		UseSSL:    cfg.MinioUseSSL,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}
	if err := objectStore.EnsureBucket(ctx, cfg.MinioBucket); err != nil {
		log.Fatalf("Failed to ensure bucket: %v", err)
	}

	generator := textgen.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, "")
	tracer := tracing.New(cfg.LangSmithAPIKey, cfg.LangSmithProject, "", logger)

	enricher, err := pipeline.New(pipeline.Options{
		Generator:  generator,
		Tracer:     tracer,
		Logger:     logger,
		Sequential: cfg.Sequential(),
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	consumer.StartConsuming(ctx)
	iterator := service.NewIterator(consumer, objectStore.GetProduct, logger)

	for obj := range iterator.Objects(ctx) {
		result, err := enricher.Enrich(ctx, *obj.Data)
		if err != nil {
			logger.Error("failed to enrich product", "sku", obj.Data.SKU, "key", obj.Key, "error", err)
			continue
		}

		if err := objectStore.PutEnriched(ctx, obj.Bucket, result.Enriched); err != nil {
			logger.Error("failed to store enriched product", "sku", result.SKU, "error", err)
			continue
		}

		if publisher != nil {
			msg, err := json.Marshal(completionMessage{
				SKU:         result.SKU,
				Key:         obj.Key,
				CompletedAt: time.Now().UTC(),
			})
			if err == nil {
				err = publisher.Publish(ctx, result.SKU, msg)
			}
			if err != nil {
				logger.Error("failed to publish completion", "sku", result.SKU, "error", err)
			}
		}
	}

	consumer.Stop()
	log.Println("Worker exiting.")
}
