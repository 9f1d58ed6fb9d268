package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/sickdaywithferris/booking-ai-platform/pkg/logging"
)

// RetryLLMClient retries failed completions with exponential backoff.
// Retries stop early when the request context is cancelled.
type RetryLLMClient struct {
	inner       LLMClient
	maxAttempts int
	baseDelay   time.Duration
	logger      *logging.Logger
}

func NewRetryLLMClient(inner LLMClient, maxAttempts int, baseDelay time.Duration, logger *logging.Logger) *RetryLLMClient {
	if inner == nil {
		panic("agent: inner llm client cannot be nil")
	}
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RetryLLMClient{
		inner:       inner,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
	}
}

func (c *RetryLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	var lastErr error
	delay := c.baseDelay

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == c.maxAttempts {
			break
		}
		c.logger.Warn("completion attempt failed, retrying",
			"attempt", attempt, "max_attempts", c.maxAttempts,
			"delay", delay.String(), "error", err.Error())

		select {
		case <-ctx.Done():
			return LLMResponse{}, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return LLMResponse{}, fmt.Errorf("agent: completion failed after %d attempts: %w", c.maxAttempts, lastErr)
}
