package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"call-bridge/internal/observability"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Call lifecycle event types.
const (
	EventCallEnded            = "call.ended"
	EventCallExtracted        = "call.extracted"
	EventCallExtractionFailed = "call.extraction_failed"
)

// CallEvent is one call lifecycle event.
type CallEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	SessionID string                 `json:"session_id"`
	CallSid   string                 `json:"call_sid,omitempty"`
	Data      map[string]interface{} `json:"data"`
	Timestamp string                 `json:"timestamp"`
}

// NewCallEvent stamps an event with a fresh id and the current time.
func NewCallEvent(eventType, sessionID, callSid string, data map[string]interface{}) CallEvent {
	return CallEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		SessionID: sessionID,
		CallSid:   callSid,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing call events to Kafka
type Producer struct {
	writer messageWriter
	logger *observability.Logger
}

// ProducerConfig contains configuration for Kafka producer
type ProducerConfig struct {
	Brokers []string
	Topic   string
}

// NewProducer creates a new Kafka producer
func NewProducer(config ProducerConfig, logger *observability.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(config.Brokers...),
		Topic:    config.Topic,
		Balancer: &kafka.Hash{},
		// Compression for better throughput
		Compression:  kafka.Snappy,
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		logger: logger,
	}
}

// PublishCallEvent publishes an event keyed by session id, so one call's
// events stay ordered within a partition.
func (p *Producer) PublishCallEvent(ctx context.Context, event CallEvent) error {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "event_type", Value: event.Type},
		observability.Field{Key: "event_id", Value: event.ID},
	)

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.SessionID),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "session_id", Value: []byte(event.SessionID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(ctx, "failed to write message to kafka", err)
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	p.logger.Info(ctx, fmt.Sprintf("published event %s to kafka", event.Type))
	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
