// Package report exports run results for post-run reporting: a summary
// message to Kafka and per-signature outcome rows to ClickHouse.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"siggraph/internal/importer"
)

// KafkaConfig holds the run-summary publisher settings.
type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	RequiredAcks int           `yaml:"required_acks"`
}

// DefaultKafkaConfig returns the default publisher configuration.
func DefaultKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Enabled:      false,
		Brokers:      []string{"localhost:9092"},
		Topic:        "siggraph.run-summaries",
		BatchTimeout: 100 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: 1,
	}
}

// Validate checks the publisher configuration.
func (c *KafkaConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("report: at least one kafka broker is required")
	}
	if c.Topic == "" {
		return fmt.Errorf("report: kafka topic is required")
	}
	return nil
}

// Publisher sends one message per completed run, keyed by run id.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka-backed run-summary publisher.
func NewPublisher(cfg KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Debug(fmt.Sprintf(msg, args...), "component", "kafka-writer")
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error(fmt.Sprintf(msg, args...), "component", "kafka-writer")
		}),
	}

	logger.Info("run-summary publisher initialized",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
	)

	return &Publisher{writer: writer, logger: logger}, nil
}

// Publish sends the run summary. The message value is the JSON summary
// including per-signature outcomes.
func (p *Publisher) Publish(ctx context.Context, summary *importer.Summary) error {
	value, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("report: marshal summary: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(summary.RunID.String()),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("report: publish summary: %w", err)
	}

	p.logger.Debug("published run summary",
		"run_id", summary.RunID,
		"outcomes", len(summary.Outcomes),
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
