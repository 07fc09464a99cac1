package llm

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIError wraps HTTP-level errors from the LLM API.
type APIError struct {
	StatusCode int
	Kind       string // "authentication_failed" | "invalid_request" | "rate_limit" | "server_error" | "unknown"
	Message    string // error message from the response body
	Retryable  bool
	RetryAfter time.Duration // from Retry-After header, if present
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
}

// MaxRetriesError is returned when all retry attempts are exhausted.
type MaxRetriesError struct {
	Attempts   int
	LastStatus int
}

func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("llm: max retries exceeded (%d attempts, last HTTP %d)", e.Attempts, e.LastStatus)
}

// classifyError maps a non-200 HTTP response to an APIError.
func classifyError(resp *http.Response) *APIError {
	bodyBytes, _ := io.ReadAll(resp.Body)
	msg := string(bodyBytes)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	kind, retryable := classifyStatus(resp.StatusCode)

	return &APIError{
		StatusCode: resp.StatusCode,
		Kind:       kind,
		Message:    msg,
		Retryable:  retryable,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

func classifyStatus(statusCode int) (kind string, retryable bool) {
	switch statusCode {
	case 401, 403:
		return "authentication_failed", false
	case 400, 422:
		return "invalid_request", false
	case 429, 529:
		return "rate_limit", true
	case 500, 502, 503:
		return "server_error", true
	default:
		return "unknown", false
	}
}
