package kafkaclient

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

// mockReader simulates the kafka-go Reader for unit testing.
type mockReader struct {
	messages   chan kafka.Message
	commitChan chan kafka.Message
	wg         sync.WaitGroup
	isClosed   bool
}

func newMockReader() *mockReader {
	return &mockReader{
		messages:   make(chan kafka.Message, 10),
		commitChan: make(chan kafka.Message, 10),
	}
}

// startProducing simulates messages arriving from the broker.
func (mr *mockReader) startProducing(count int) {
	mr.wg.Add(1)
	go func() {
		defer mr.wg.Done()
		defer close(mr.messages)

		for i := 0; i < count; i++ {
			mr.messages <- kafka.Message{
				Topic:     "test-topic",
				Partition: 0,
				Offset:    int64(i),
				Value:     []byte(fmt.Sprintf("mock-message-%d", i)),
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()
}

func (mr *mockReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if mr.isClosed {
		return kafka.Message{}, fmt.Errorf("kafka: reader closed")
	}
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case msg, ok := <-mr.messages:
		if !ok {
			return kafka.Message{}, fmt.Errorf("kafka: reader closed")
		}
		return msg, nil
	}
}

func (mr *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	if mr.isClosed {
		return fmt.Errorf("kafka: reader closed")
	}
	for _, msg := range msgs {
		mr.commitChan <- msg
	}
	return nil
}

func (mr *mockReader) Close() error {
	mr.isClosed = true
	close(mr.commitChan)
	return nil
}

func TestConsumer_ConsumeAndCommit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	mock := newMockReader()
	consumer := newConsumer(mock)

	const expectedMessages = 3
	mock.startProducing(expectedMessages)
	consumer.StartConsuming(ctx)

	received := 0
	for msg := range consumer.Messages() {
		expected := fmt.Sprintf("mock-message-%d", received)
		if string(msg.Value) != expected {
			t.Errorf("message value = %q, want %q", string(msg.Value), expected)
		}
		if err := consumer.CommitOffset(ctx, msg); err != nil {
			t.Errorf("CommitOffset() failed: %v", err)
		}
		received++
	}
	if received != expectedMessages {
		t.Errorf("received %d messages, want %d", received, expectedMessages)
	}

	consumer.Stop()

	committed := 0
	for range mock.commitChan {
		committed++
	}
	if committed != expectedMessages {
		t.Errorf("committed %d messages, want %d", committed, expectedMessages)
	}
}

func TestConsumer_GracefulShutdownMidStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	mock := newMockReader()
	consumer := newConsumer(mock)

	// Produce far more messages than the test consumes; Stop must
	// still return promptly.
	mock.startProducing(100)
	consumer.StartConsuming(ctx)

	consumed := 0
	for i := 0; i < 5; i++ {
		select {
		case <-consumer.Messages():
			consumed++
		case <-ctx.Done():
			t.Fatal("context canceled unexpectedly")
		case <-time.After(500 * time.Millisecond):
			t.Fatal("timed out waiting for a message")
		}
	}
	if consumed != 5 {
		t.Fatalf("consumed %d messages, want 5", consumed)
	}

	done := make(chan struct{})
	go func() {
		consumer.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return in time")
	}

	// The message channel must be closed after shutdown.
	if _, ok := <-consumer.Messages(); ok {
		// One buffered message may still be in flight; drain and
		// require the channel to close right after.
		for range consumer.Messages() {
		}
	}
}
