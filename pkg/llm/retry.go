package llm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryConfig controls retry behavior for transient failures.
type RetryConfig struct {
	MaxRetries        int           // max retry attempts (default: 3)
	InitialBackoff    time.Duration // initial backoff (default: 1s)
	MaxBackoff        time.Duration // backoff cap (default: 30s)
	BackoffFactor     float64       // multiplier per retry (default: 2.0)
	JitterFraction    float64       // random jitter as fraction of backoff (default: 0.1)
	RetryableStatuses []int         // HTTP codes to retry (default: 429, 529, 500, 502, 503)
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffFactor:     2.0,
		JitterFraction:    0.1,
		RetryableStatuses: []int{429, 529, 500, 502, 503},
	}
}

// doWithRetry executes makeRequest with retry logic for transient failures.
func doWithRetry(ctx context.Context, config RetryConfig, makeRequest func(ctx context.Context) (*http.Response, error)) (*http.Response, error) {
	var lastStatus int

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt-1))
			if backoff > float64(config.MaxBackoff) {
				backoff = float64(config.MaxBackoff)
			}
			jitter := backoff * config.JitterFraction * rand.Float64()

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(backoff + jitter)):
			}
		}

		resp, err := makeRequest(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Network errors are retryable.
			lastStatus = 0
			continue
		}

		if resp.StatusCode == 200 {
			return resp, nil
		}

		lastStatus = resp.StatusCode

		// Honor Retry-After when present (429 in particular).
		if retryAfter := parseRetryAfter(resp.Header.Get("Retry-After")); retryAfter > 0 {
			resp.Body.Close()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryAfter):
			}
			continue
		}

		if !isRetryable(resp.StatusCode, config.RetryableStatuses) {
			return resp, nil // caller will classify the error
		}

		resp.Body.Close()
	}

	return nil, &MaxRetriesError{Attempts: config.MaxRetries + 1, LastStatus: lastStatus}
}

func isRetryable(statusCode int, retryableStatuses []int) bool {
	for _, s := range retryableStatuses {
		if statusCode == s {
			return true
		}
	}
	return false
}

// parseRetryAfter parses a Retry-After header value.
// Supports both seconds (integer) and HTTP-date formats.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(value, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}

	return 0
}
