package events

import (
	"context"
	"encoding/json"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/koustreak/DatEd/internal/errs"
)

// Config holds the Kafka connection settings for change events.
type Config struct {
	// Brokers is the list of bootstrap servers, e.g. ["localhost:9092"].
	Brokers []string

	// TopicPrefix namespaces the per-table topics: events for table t are
	// written to "<TopicPrefix>.<t>".
	TopicPrefix string
}

// KafkaPublisher writes change events to Kafka, one topic per table.
// It is safe for concurrent use by multiple goroutines.
type KafkaPublisher struct {
	writer *kafka.Writer
	prefix string
}

// NewKafkaPublisher creates a publisher for the given brokers. Topics are
// created on first write so no upfront provisioning is needed.
func NewKafkaPublisher(cfg *Config) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w, prefix: cfg.TopicPrefix}
}

// Publish writes one event, keyed by record ID so all changes to the same
// record land in the same partition in order.
func (p *KafkaPublisher) Publish(ctx context.Context, event ChangeEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(errs.ErrKindUnknown, "failed to encode change event", err)
	}

	msg := kafka.Message{
		Topic: p.prefix + "." + event.Table,
		Key:   []byte(event.RecordID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "failed to publish change event", err)
	}
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
