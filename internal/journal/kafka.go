package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/rzpsarthak13/msgsql/internal/config"
	"github.com/rzpsarthak13/msgsql/internal/core"
)

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink produces one message per event, keyed by table so events of a
// table stay ordered within a partition.
type KafkaSink struct {
	writer messageWriter
	topic  string
	closed bool
}

// NewKafkaSink creates a synchronous Kafka writer for the journal topic.
func NewKafkaSink(cfg config.KafkaJournalConfig) *KafkaSink {
	log.Printf("[KAFKA] Journal brokers: %v, topic: %s", cfg.Brokers, cfg.Topic)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:  3,
		Async:        false,
	}
	return newKafkaSink(writer, cfg.Topic)
}

func newKafkaSink(writer messageWriter, topic string) *KafkaSink {
	return &KafkaSink{writer: writer, topic: topic}
}

// Emit implements core.Sink.
func (s *KafkaSink) Emit(ctx context.Context, event *core.Event) error {
	if s.closed {
		return fmt.Errorf("kafka journal is closed")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal journal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.Table),
		Value: data,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
			{Key: "operation", Value: []byte(event.Operation)},
			{Key: "table", Value: []byte(event.Table)},
		},
	}

	if err := s.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write journal event to Kafka topic %s: %w", s.topic, err)
	}
	return nil
}

// Close implements core.Sink.
func (s *KafkaSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.writer.Close()
}

// KafkaSinkFactory creates Kafka sinks.
type KafkaSinkFactory struct{}

// Type returns the type identifier for this factory.
func (f *KafkaSinkFactory) Type() string {
	return "kafka"
}

// Validate validates the Kafka journal configuration.
func (f *KafkaSinkFactory) Validate(cfg config.JournalConfig) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("journal.kafka.brokers is required")
	}
	if cfg.Kafka.Topic == "" {
		return fmt.Errorf("journal.kafka.topic is required")
	}
	switch cfg.Kafka.RequiredAcks {
	case -1, 0, 1:
	default:
		return fmt.Errorf("journal.kafka.required_acks must be -1, 0 or 1")
	}
	return nil
}

// Create creates a Kafka sink.
func (f *KafkaSinkFactory) Create(cfg config.JournalConfig) (core.Sink, error) {
	return NewKafkaSink(cfg.Kafka), nil
}

func init() {
	register(&KafkaSinkFactory{})
}
