package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer publishes notification domain events to Kafka. It is optional:
// the reference server runs without a broker and skips publishing entirely.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a producer for the given topic
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{
		writer: writer,
		logger: logger,
	}
}

// Publish sends an event keyed by the owning user
func (p *Producer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		p.logger.Error("Failed to marshal event",
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	p.logger.Debug("Event published", zap.String("key", key))
	return nil
}

// Close closes the underlying writer
func (p *Producer) Close() error {
	return p.writer.Close()
}
