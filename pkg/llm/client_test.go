package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestCompleteDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", got)
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q, want test-model (default from config)", req.Model)
		}

		json.NewEncoder(w).Encode(Response{
			ID:         "msg_1",
			StopReason: StopToolUse,
			Content: []ContentBlock{
				{Type: BlockText, Text: "working on it"},
				{Type: BlockToolUse, ID: "tu_1", Name: "bash", Input: map[string]any{"command": "ls"}},
			},
			Usage: Usage{InputTokens: 10, OutputTokens: 5},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})

	resp, err := client.Complete(context.Background(), &Request{
		Messages: []Message{UserText("hi")},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.StopReason != StopToolUse {
		t.Errorf("stop_reason = %q, want tool_use", resp.StopReason)
	}
	if got := resp.TextContent(); got != "working on it" {
		t.Errorf("TextContent = %q", got)
	}
	uses := resp.ToolUses()
	if len(uses) != 1 || uses[0].Name != "bash" {
		t.Errorf("ToolUses = %+v, want one bash call", uses)
	}
}

func TestCompleteRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Response{StopReason: StopEndTurn, Content: []ContentBlock{{Type: BlockText, Text: "ok"}}})
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL: srv.URL,
		Model:   "test-model",
		Retry: RetryConfig{
			MaxRetries:        2,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        time.Millisecond,
			BackoffFactor:     1,
			RetryableStatuses: []int{503},
		},
	})

	resp, err := client.Complete(context.Background(), &Request{Messages: []Message{UserText("hi")}})
	if err != nil {
		t.Fatalf("Complete after retry: %v", err)
	}
	if resp.TextContent() != "ok" {
		t.Errorf("TextContent = %q, want ok", resp.TextContent())
	}
	if calls.Load() != 2 {
		t.Errorf("server calls = %d, want 2", calls.Load())
	}
}

func TestCompleteClassifiesAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad key"))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "m"})
	_, err := client.Complete(context.Background(), &Request{Messages: []Message{UserText("hi")}})

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Kind != "authentication_failed" || apiErr.Retryable {
		t.Errorf("got %+v, want non-retryable authentication_failed", apiErr)
	}
}

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status    int
		kind      string
		retryable bool
	}{
		{401, "authentication_failed", false},
		{400, "invalid_request", false},
		{429, "rate_limit", true},
		{529, "rate_limit", true},
		{500, "server_error", true},
		{418, "unknown", false},
	}
	for _, c := range cases {
		kind, retryable := classifyStatus(c.status)
		if kind != c.kind || retryable != c.retryable {
			t.Errorf("classifyStatus(%d) = (%q, %v), want (%q, %v)", c.status, kind, retryable, c.kind, c.retryable)
		}
	}
}

func TestParseRetryAfterSeconds(t *testing.T) {
	if got := parseRetryAfter("7"); got != 7*time.Second {
		t.Errorf("parseRetryAfter(7) = %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("parseRetryAfter empty = %v, want 0", got)
	}
}
