package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultAnthropicVersion = "2023-06-01"

// Client is the LLM inference client. All methods are safe for concurrent use.
type Client interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Model returns the configured default model string.
	Model() string
}

// Config holds LLM client configuration.
type Config struct {
	BaseURL    string            // API base URL, e.g. "https://api.anthropic.com"
	APIKey     string            // API key sent as x-api-key
	Model      string            // default model for requests with an empty Model
	MaxTokens  int               // default max_tokens (8192)
	Headers    map[string]string // additional HTTP headers
	HTTPClient *http.Client      // custom HTTP client (timeouts, proxies)
	Retry      RetryConfig
}

type httpClient struct {
	config Config
	http   *http.Client
}

// NewClient creates a new LLM client with the given configuration.
func NewClient(cfg Config) Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Minute}
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialBackoff == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	return &httpClient{config: cfg, http: cfg.HTTPClient}
}

// Complete sends the request and decodes the response.
func (c *httpClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	if req.Model == "" {
		req.Model = c.config.Model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.config.MaxTokens
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}

	url := c.config.BaseURL + "/v1/messages"

	resp, err := doWithRetry(ctx, c.config.Retry, func(ctx context.Context) (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}

		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("anthropic-version", defaultAnthropicVersion)
		if c.config.APIKey != "" {
			httpReq.Header.Set("x-api-key", c.config.APIKey)
		}
		for k, v := range c.config.Headers {
			httpReq.Header.Set(k, v)
		}

		return c.http.Do(httpReq)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, classifyError(resp)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("llm: decode response: %w", err)
	}
	return &out, nil
}

// Model returns the configured default model string.
func (c *httpClient) Model() string {
	return c.config.Model
}
