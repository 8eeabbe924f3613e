package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"PersonsPipeline/internal/domain"
	"PersonsPipeline/internal/ports"
	"PersonsPipeline/pkg/logger"
)

const (
	headerEventType = "event-type"
	eventRunSummary = "persons.run.completed"
)

// messageWriter is the subset of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends run summaries to a Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

var _ ports.SummaryPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher builds a synchronous writer for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, log *slog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if log == nil {
		log = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(logger.Printf(log, slog.LevelDebug)),
		ErrorLogger:  kafka.LoggerFunc(logger.Printf(log, slog.LevelError)),
	}
	return &KafkaPublisher{writer: writer, topic: topic}, nil
}

// PublishRun writes one message keyed by run id.
func (p *KafkaPublisher) PublishRun(ctx context.Context, report domain.RunReport) error {
	if p.writer == nil {
		return fmt.Errorf("kafka publisher misconfigured")
	}

	body, err := json.Marshal(NewRunSummary(report))
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(report.RunID),
		Value: body,
		Time:  report.FinishedAt,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(eventRunSummary)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
