package extraction

import (
	"context"
	"fmt"
	"time"

	"call-bridge/internal/observability"
)

// Pipeline converts a finished transcript into a Result and hands it to the
// sink. Each run is independent and keeps nothing after it returns.
type Pipeline struct {
	extractor Extractor
	sink      Sink
	timeout   time.Duration
	logger    *observability.Logger
}

func NewPipeline(extractor Extractor, sink Sink, timeout time.Duration, logger *observability.Logger) *Pipeline {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Pipeline{
		extractor: extractor,
		sink:      sink,
		timeout:   timeout,
		logger:    logger,
	}
}

// Extract runs the extraction step alone and validates its output.
func (p *Pipeline) Extract(ctx context.Context, transcript string) (Result, error) {
	extractCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.extractor.Extract(extractCtx, Request{
		Instruction: Instruction,
		Transcript:  transcript,
		SchemaName:  SchemaName,
		Fields:      ResultFields,
	})
	if err != nil {
		return Result{}, fmt.Errorf("extraction via %s failed: %w", p.extractor.Name(), err)
	}

	return ParseResult(raw)
}

// Run extracts and delivers. The sink is not touched when extraction fails.
// Failures are returned, not logged; the caller owns reporting them.
func (p *Pipeline) Run(ctx context.Context, sessionID string, transcript string) (Result, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "session_id", Value: sessionID},
		observability.Field{Key: "extractor", Value: p.extractor.Name()},
	)

	result, err := p.Extract(ctx, transcript)
	if err != nil {
		return Result{}, fmt.Errorf("extraction failed, result not delivered: %w", err)
	}

	if err := p.sink.Deliver(ctx, result); err != nil {
		return result, fmt.Errorf("delivery failed: %w", err)
	}

	p.logger.Info(ctx, "Post-call extraction completed")
	return result, nil
}
