package http

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

// ClientOption configures Client.
type ClientOption func(*Client)

// Client talks JSON to one base URL.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// StatusError is returned for non-2xx responses and keeps the raw body.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, strings.TrimSpace(string(e.Body)))
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

// GetJSON decodes the JSON body of GET path into dest.
func (c *Client) GetJSON(ctx context.Context, path string, dest interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

// PostJSON sends body as JSON and decodes the response into dest.
func (c *Client) PostJSON(ctx context.Context, path string, body, dest interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(b), dest)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &StatusError{Code: resp.StatusCode, Body: b}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// WithTimeout sets client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}
