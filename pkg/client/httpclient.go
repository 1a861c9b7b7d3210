package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultHealthWait     = 30 * time.Second
)

// HttpClient talks JSON to one roomly service.
type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client
	token      string
}

func NewHttpClient(baseURL string) *HttpClient {
	return &HttpClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

// SetToken makes every later request carry "Authorization: Bearer <token>".
func (c *HttpClient) SetToken(token string) {
	c.token = token
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (r *Response) String() string {
	return fmt.Sprintf("%d %s", r.StatusCode, string(r.Body))
}

// Replayed reports whether the server answered from its idempotency cache.
func (r *Response) Replayed() bool {
	return r.Header.Get("Idempotent-Replayed") == "true"
}

// DecodeData unwraps the {"data": ...} envelope into target.
func (r *Response) DecodeData(target any) error {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body, &wrapper); err != nil {
		return fmt.Errorf("could not decode response wrapper (%s): %w", r, err)
	}
	if err := json.Unmarshal(wrapper.Data, target); err != nil {
		return fmt.Errorf("could not decode response data (%s): %w", r, err)
	}
	return nil
}

type requestOptions struct {
	headers map[string]string
	raw     []byte
}

type RequestOption func(*requestOptions)

func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		o.headers[key] = value
	}
}

// WithIdempotencyKey lets a retried write be answered from the server's cache.
func WithIdempotencyKey(key string) RequestOption {
	return WithHeader("Idempotency-Key", key)
}

// WithRawBody sends the bytes as they are instead of marshalling a body.
func WithRawBody(raw []byte) RequestOption {
	return func(o *requestOptions) { o.raw = raw }
}

func (c *HttpClient) GET(path string, opts ...RequestOption) (*Response, error) {
	return c.Do(context.Background(), http.MethodGet, path, nil, opts...)
}

func (c *HttpClient) POST(path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(context.Background(), http.MethodPost, path, body, opts...)
}

func (c *HttpClient) PATCH(path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(context.Background(), http.MethodPatch, path, body, opts...)
}

func (c *HttpClient) DELETE(path string, opts ...RequestOption) (*Response, error) {
	return c.Do(context.Background(), http.MethodDelete, path, nil, opts...)
}

// Do sends one request and buffers the whole response body.
func (c *HttpClient) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	var reqBody io.Reader
	hasBody := false
	switch {
	case o.raw != nil:
		reqBody, hasBody = bytes.NewReader(o.raw), true
	case body != nil:
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody, hasBody = bytes.NewReader(payload), true
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for key, value := range o.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{Response: resp, Body: respBody}, nil
}

// WaitForHealthy polls /health until it answers 200 or maxWait passes.
func (c *HttpClient) WaitForHealthy(maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), maxWait)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		resp, err := c.Do(ctx, http.MethodGet, "/health", nil)
		if err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s did not become healthy within %v", c.BaseURL, maxWait)
		case <-ticker.C:
		}
	}
}

// GetErrorMessage pulls the most specific message out of an error body.
func GetErrorMessage(resp *Response) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := resp.DecodeJSON(&errResp); err != nil {
		return fmt.Sprintf("failed to unmarshal error: %v", err)
	}

	switch {
	case errResp.Message != "":
		return errResp.Message
	case errResp.Error != "":
		return errResp.Error
	default:
		return errResp.Code
	}
}
