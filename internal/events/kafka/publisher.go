// Package kafka publishes ledger events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/JonMunkholm/payables/internal/config"
	"github.com/JonMunkholm/payables/internal/core"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements core.EventPublisher.
type Publisher struct {
	writer       messageWriter
	writeTimeout time.Duration
}

var _ core.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a publisher writing JSON events to cfg.Topic.
func NewPublisher(cfg config.EventsConfig) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.LeastBytes{},
			WriteTimeout:           cfg.WriteTimeout,
			AllowAutoTopicCreation: true,
		},
		writeTimeout: cfg.WriteTimeout,
	}
}

// Publish writes e as a single message.
func (p *Publisher) Publish(ctx context.Context, e core.Event) error {
	msg, err := buildMessage(e)
	if err != nil {
		return err
	}

	if p.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.writeTimeout)
		defer cancel()
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Close flushes pending writes and closes the connection.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// buildMessage keys a message by its first payable ID so events about
// one record land on one partition.
func buildMessage(e core.Event) (kafka.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s event: %w", e.Type, err)
	}

	msg := kafka.Message{
		Value: data,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	}
	if len(e.PayableIDs) > 0 {
		msg.Key = []byte(e.PayableIDs[0].String())
	}
	if id := e.Meta["request_id"]; id != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "request-id", Value: []byte(id)})
	}
	return msg, nil
}
