package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dinehall-loyalty-service/internal/config"
	"github.com/segmentio/kafka-go"
)

// LoyaltyEventProducer publishes committed ledger activity to the loyalty
// events topic. The outbox poller marks a message processed only after the
// publish succeeds, so writes are synchronous with full acks.
type LoyaltyEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewLoyaltyEventProducer creates the producer and ensures the topic exists
func NewLoyaltyEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*LoyaltyEventProducer, error) {
	if cfg.LoyaltyEventsTopic == "" {
		return nil, fmt.Errorf("kafka loyalty events topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for loyalty event producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.LoyaltyEventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure loyalty events topic %s exists: %w", cfg.LoyaltyEventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.LoyaltyEventsTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write loyalty event messages", "topic", cfg.LoyaltyEventsTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote loyalty event messages", "topic", cfg.LoyaltyEventsTopic, "count", len(messages))
			}
		},
	}

	return &LoyaltyEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.LoyaltyEventsTopic,
	}, nil
}

func (p *LoyaltyEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal loyalty event value: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish loyalty event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish loyalty event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published loyalty event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *LoyaltyEventProducer) Close() error {
	p.logger.Info("Closing loyalty event Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close loyalty event kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
