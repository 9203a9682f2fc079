// Package graph is a thin Microsoft Graph REST client: bearer auth, JSON in and
// out, and typed errors for non-2xx responses.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *RateLimiter
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

func WithRateLimiter(limiter *RateLimiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    NewRateLimiter(DefaultRequestsPerSecond, DefaultBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	method string
	body   any
}

type RequestOption func(*request)

func WithMethod(method string) RequestOption {
	return func(r *request) { r.method = method }
}

// WithBody JSON-encodes v as the request body
func WithBody(v any) RequestOption {
	return func(r *request) { r.body = v }
}

// Call sends one request to path and returns the response body as JSON.
// An empty body comes back as {} and a non-JSON body as {"text": "..."}.
// path may be relative to the base URL or an absolute https:// URL.
func (c *Client) Call(ctx context.Context, path, accessToken string, opts ...RequestOption) (json.RawMessage, error) {
	req := request{method: http.MethodGet}
	for _, opt := range opts {
		opt(&req)
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.resolve(path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling %s %s: %w", req.method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	result := decodeBody(raw)

	if resp.StatusCode == http.StatusTooManyRequests {
		c.limiter.Throttle(retryAfter(resp.Header))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, result)
	}
	return result, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func decodeBody(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage(`{}`)
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	wrapped, _ := json.Marshal(map[string]string{"text": string(raw)})
	return wrapped
}
