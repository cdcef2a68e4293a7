// Package service joins the message transport to object storage: it
// consumes bucket-notification events from a message source (Kafka via
// pkg/kafkaclient) and loads the referenced records through a
// pluggable LoaderFunc.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"
)

// MessageIterator is the contract for consuming messages. The
// implementation owns the consumer lifecycle; Messages is closed when
// the consumer stops.
type MessageIterator interface {
	Messages() <-chan kafka.Message
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// LoaderFunc loads and decodes one record of type T from object
// storage given the notification's bucket and key. Implementations
// must be read-only and honor the context.
type LoaderFunc[T any] func(ctx context.Context, bucket, key string) (T, error)

// FetchedObject pairs a loaded record with the object coordinates that
// produced it.
type FetchedObject[T any] struct {
	Data   T
	Bucket string
	Key    string
}

// Iterator consumes notification messages, loads each referenced
// object, and yields the results on a channel. Malformed messages and
// load failures are logged and skipped; offsets are committed only
// after the object has been delivered downstream.
type Iterator[T any] struct {
	msgIterator MessageIterator
	loader      LoaderFunc[T]
	logger      *slog.Logger
}

// NewIterator constructs an Iterator for the given source and loader.
func NewIterator[T any](msgIterator MessageIterator, loader LoaderFunc[T], logger *slog.Logger) *Iterator[T] {
	return &Iterator[T]{msgIterator: msgIterator, loader: loader, logger: logger}
}

// Objects streams loaded records until the underlying message channel
// closes. It spawns one goroutine per call.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *FetchedObject[T] {
	out := make(chan *FetchedObject[T])
	go func() {
		defer close(out)

		for msg := range it.msgIterator.Messages() {
			var event notification.Info
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				it.logger.Error("skipping malformed notification", "error", err)
				continue
			}
			if len(event.Records) == 0 {
				it.logger.Warn("skipping notification without records")
				continue
			}

			s3 := event.Records[0].S3
			objectKey, err := url.QueryUnescape(s3.Object.Key)
			if err != nil {
				it.logger.Error("skipping notification with undecodable key", "key", s3.Object.Key, "error", err)
				continue
			}

			data, err := it.loader(ctx, s3.Bucket.Name, objectKey)
			if err != nil {
				it.logger.Error("failed to load object", "bucket", s3.Bucket.Name, "key", objectKey, "error", err)
				continue
			}

			select {
			case out <- &FetchedObject[T]{Data: data, Bucket: s3.Bucket.Name, Key: objectKey}:
			case <-ctx.Done():
				return
			}

			if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
				it.logger.Error("failed to commit offset", "error", err)
			}
		}
	}()
	return out
}
