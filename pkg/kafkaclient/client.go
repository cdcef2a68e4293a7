// Package kafkaclient wraps segmentio/kafka-go with a channel-based
// consumer (manual offset commits, graceful shutdown) and a small
// publisher for completion announcements.
package kafkaclient

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Reader is the subset of the kafka-go Reader the consumer needs.
// It exists so unit tests can inject a mock.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer runs a Kafka read loop and exposes messages on a channel.
// Offsets are committed manually by the caller after each message has
// been fully processed, so a crash mid-message replays it.
type Consumer struct {
	reader      Reader
	doneChan    chan struct{}
	wg          sync.WaitGroup
	messageChan chan kafka.Message
}

// NewConsumer creates a consumer for the given topic and group.
func NewConsumer(topic, groupID, broker string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: groupID,
		// Manual commits only; auto-commit would acknowledge
		// messages before the pipeline has run.
		CommitInterval: 0,
		MinBytes:       10e3,
		MaxBytes:       10e6,
	})
	return newConsumer(reader)
}

func newConsumer(reader Reader) *Consumer {
	return &Consumer{
		reader:      reader,
		doneChan:    make(chan struct{}),
		messageChan: make(chan kafka.Message),
	}
}

// Messages returns the channel the read loop delivers to. The channel
// is closed when the consumer stops.
func (c *Consumer) Messages() <-chan kafka.Message {
	return c.messageChan
}

// CommitOffset acknowledges one fully processed message.
func (c *Consumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	log.Printf("Committing offset for topic=%s, partition=%d, offset=%d", msg.Topic, msg.Partition, msg.Offset)
	return c.reader.CommitMessages(ctx, msg)
}

// StartConsuming begins the read loop in its own goroutine. The loop
// ends when the context is canceled, Stop is called, or the reader is
// closed.
func (c *Consumer) StartConsuming(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.messageChan)

		log.Println("Starting Kafka consumer loop...")

		for {
			select {
			case <-ctx.Done():
				log.Println("Context canceled, stopping consumer loop.")
				return
			case <-c.doneChan:
				log.Println("Shutdown signal received, stopping consumer loop.")
				return
			default:
				msg, err := c.reader.ReadMessage(ctx)
				if err != nil {
					log.Printf("Error reading message: %v", err)
					if err.Error() == "kafka: reader closed" {
						return
					}
					// Back off to avoid a tight error loop.
					time.Sleep(1 * time.Second)
					continue
				}

				select {
				case c.messageChan <- msg:
				case <-ctx.Done():
					log.Println("Context canceled, stopping consumer before sending message.")
					return
				case <-c.doneChan:
					log.Println("Shutdown signal received, stopping consumer before sending message.")
					return
				}
			}
		}
	}()
}

// Stop shuts the consumer down and waits for the read loop to exit.
func (c *Consumer) Stop() {
	close(c.doneChan)
	c.wg.Wait()
	if err := c.reader.Close(); err != nil {
		log.Printf("Failed to close Kafka reader: %v", err)
	}
	log.Println("Kafka consumer stopped gracefully.")
}

// Publisher writes keyed JSON messages to a single topic.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given topic.
func NewPublisher(topic, broker string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(broker),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish writes one message keyed for partition affinity.
func (p *Publisher) Publish(ctx context.Context, key string, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
