package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"catalog/internal/models"
)

type fakeMessageIterator struct {
	messages  chan kafka.Message
	committed []kafka.Message
}

func (f *fakeMessageIterator) Messages() <-chan kafka.Message { return f.messages }

func (f *fakeMessageIterator) CommitOffset(_ context.Context, msg kafka.Message) error {
	f.committed = append(f.committed, msg)
	return nil
}

func notificationFor(bucket, key string) []byte {
	return []byte(fmt.Sprintf(`{"Records":[{"s3":{"bucket":{"name":%q},"object":{"key":%q}}}]}`, bucket, key))
}

func TestIterator_LoadsAndCommits(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	source := &fakeMessageIterator{messages: make(chan kafka.Message, 3)}
	source.messages <- kafka.Message{Offset: 0, Value: notificationFor("catalog", "products/general/a-1.json")}
	source.messages <- kafka.Message{Offset: 1, Value: []byte("not json")}
	source.messages <- kafka.Message{Offset: 2, Value: notificationFor("catalog", "products/general/b-2.json")}
	close(source.messages)

	loader := func(_ context.Context, bucket, key string) (*models.Product, error) {
		if key == "products/general/b-2.json" {
			return nil, errors.New("object gone")
		}
		return &models.Product{SKU: "A-1", Name: "First"}, nil
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	it := NewIterator(source, loader, logger)

	var fetched []*FetchedObject[*models.Product]
	for obj := range it.Objects(ctx) {
		fetched = append(fetched, obj)
	}

	if len(fetched) != 1 {
		t.Fatalf("fetched %d objects, want 1 (bad message and load failure skipped)", len(fetched))
	}
	if fetched[0].Data.SKU != "A-1" || fetched[0].Bucket != "catalog" {
		t.Errorf("fetched = %+v", fetched[0])
	}

	// Only the successfully delivered message gets its offset committed.
	if len(source.committed) != 1 || source.committed[0].Offset != 0 {
		t.Errorf("committed = %+v, want only offset 0", source.committed)
	}
}
