package postcall

//go:generate go run go.uber.org/mock/mockgen@latest -source=processor.go -destination=mocks_test.go -package=postcall

import (
	"context"
	"fmt"
	"time"

	"call-bridge/internal/clients/kafka"
	"call-bridge/internal/extraction"
	"call-bridge/internal/observability"
	"call-bridge/internal/workers"
)

// ExtractionPipeline runs extraction and delivery for one transcript.
type ExtractionPipeline interface {
	Run(ctx context.Context, sessionID string, transcript string) (extraction.Result, error)
}

// EventPublisher publishes call lifecycle events.
type EventPublisher interface {
	PublishCallEvent(ctx context.Context, event kafka.CallEvent) error
}

// Processor runs the post-call pipeline for finished sessions
type Processor struct {
	pipeline  ExtractionPipeline
	publisher EventPublisher
	logger    *observability.Logger
}

// NewProcessor creates a post-call processor. publisher may be nil when
// event streaming is disabled.
func NewProcessor(pipeline ExtractionPipeline, publisher EventPublisher, logger *observability.Logger) *Processor {
	return &Processor{
		pipeline:  pipeline,
		publisher: publisher,
		logger:    logger,
	}
}

// Process extracts and delivers the transcript of one finished call
func (p *Processor) Process(ctx context.Context, job workers.Job) error {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "session_id", Value: job.SessionID},
		observability.Field{Key: "call_sid", Value: job.CallSid},
	)

	p.publish(ctx, job, kafka.EventCallEnded, map[string]interface{}{
		"end_reason": job.EndReason,
		"utterances": job.Utterances,
		"ended_at":   job.EndedAt.UTC().Format(time.RFC3339),
	})

	result, err := p.pipeline.Run(ctx, job.SessionID, job.Transcript)
	if err != nil {
		p.publish(ctx, job, kafka.EventCallExtractionFailed, map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("post-call pipeline failed: %w", err)
	}

	p.publish(ctx, job, kafka.EventCallExtracted, map[string]interface{}{
		"customer_name":         result.CustomerName,
		"customer_availability": result.CustomerAvailability,
		"special_notes":         result.SpecialNotes,
	})
	return nil
}

func (p *Processor) publish(ctx context.Context, job workers.Job, eventType string, data map[string]interface{}) {
	if p.publisher == nil {
		return
	}
	event := kafka.NewCallEvent(eventType, job.SessionID, job.CallSid, data)
	if err := p.publisher.PublishCallEvent(ctx, event); err != nil {
		p.logger.Error(ctx, fmt.Sprintf("failed to publish %s event", eventType), err)
	}
}

// Name returns the processor name for logging
func (p *Processor) Name() string {
	return "post-call-extraction"
}
