package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"call-bridge/internal/observability"
)

// WebhookSink posts results to a single configured URL. There is no retry:
// a failed delivery is reported to the caller and the result is dropped.
type WebhookSink struct {
	url        string
	logger     *observability.Logger
	httpClient *http.Client
}

func NewWebhookSink(url string, timeout time.Duration, logger *observability.Logger) *WebhookSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSink{
		url:    url,
		logger: logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Deliver sends the result as a JSON object and requires a 2xx response.
func (s *WebhookSink) Deliver(ctx context.Context, result Result) error {
	payloadBytes, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Call-Bridge-Webhook/1.0")

	resp, err := s.httpClient.Do(req)
	durationMs := time.Since(startTime).Milliseconds()
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// Read response body (limit to 10KB)
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 10240))
	if err != nil {
		s.logger.Warn(ctx, "failed to read webhook response body")
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "webhook_status", Value: resp.StatusCode},
		observability.Field{Key: "webhook_duration_ms", Value: durationMs},
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.logger.Info(ctx, "Delivered extraction result to webhook")
		return nil
	}

	return fmt.Errorf("%w: status %d: %s", ErrSinkRejected, resp.StatusCode, string(bodyBytes))
}
