package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"kitai/logger"
)

// retryBaseDelay is the first backoff step; it doubles after every attempt.
var retryBaseDelay = time.Second

// GenerateObjectInto runs a structured call and decodes it into out, retrying
// transient failures and unparseable output up to maxRetries extra times.
func GenerateObjectInto(ctx context.Context, c Client, req ObjectRequest, out any, maxRetries int) error {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			delay := retryBaseDelay * time.Duration(1<<uint(i-1))
			logger.Warn("retrying structured generation", "provider", c.Provider(), "model", req.Model,
				"attempt", i+1, "delay_ms", delay.Milliseconds(), "error", lastErr)
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}

		raw, err := c.GenerateObject(ctx, req)
		if err == nil {
			if err = json.Unmarshal(raw, out); err != nil {
				err = fmt.Errorf("%w: %v", ErrInvalidOutput, err)
			}
		}
		if err == nil {
			return nil
		}
		if !Retryable(err) || ctx.Err() != nil {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("structured generation failed after %d attempts: %w", maxRetries+1, lastErr)
}

// Retryable reports whether err is worth another attempt: rate limits, server
// errors, transport failures and invalid structured output.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var unsupported *UnsupportedProviderError
	if errors.As(err, &unsupported) {
		return false
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		switch {
		case upstream.StatusCode == http.StatusTooManyRequests,
			upstream.StatusCode == http.StatusRequestTimeout,
			upstream.StatusCode == http.StatusConflict,
			upstream.StatusCode >= 500:
			return true
		default:
			return false
		}
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
