// Package audit publishes usage events to Kafka.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/genguard/internal/config"
	"github.com/turtacn/genguard/internal/domain/models"
	"github.com/turtacn/genguard/internal/domain/service"
	"github.com/turtacn/genguard/pkg/logger"
)

var (
	_ service.UsageEventPublisher = (*KafkaProducer)(nil)
	_ service.UsageEventPublisher = NoopPublisher{}
)

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer publishes usage events keyed by identifier, so all events
// for one caller land on the same partition.
type KafkaProducer struct {
	writer MessageWriter
	logger logger.Logger
}

// NewKafkaProducer creates a producer writing to cfg.UsageTopic.
func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.UsageTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           cfg.WriteTimeout,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		AllowAutoTopicCreation: true,
	}
	return NewKafkaProducerWithWriter(writer, log), nil
}

// NewKafkaProducerWithWriter wraps an existing writer.
func NewKafkaProducerWithWriter(w MessageWriter, log logger.Logger) *KafkaProducer {
	return &KafkaProducer{
		writer: w,
		logger: log.WithComponent("KafkaProducer"),
	}
}

// Publish sends event to the usage topic.
func (p *KafkaProducer) Publish(ctx context.Context, event *models.UsageEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal usage event", err)
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Identifier),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		p.logger.Error(ctx, "failed to write usage event to Kafka", err,
			logger.String("event_type", string(event.Type)),
		)
	}
	return err
}

// Close closes the underlying Kafka writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every event. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *models.UsageEvent) error { return nil }
func (NoopPublisher) Close() error                                      { return nil }

// NewPublisher returns a Kafka producer when enabled, otherwise a NoopPublisher.
func NewPublisher(cfg config.KafkaConfig, log logger.Logger) (service.UsageEventPublisher, error) {
	if !cfg.Enabled {
		return NoopPublisher{}, nil
	}
	return NewKafkaProducer(cfg, log)
}
