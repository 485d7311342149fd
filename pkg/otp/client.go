package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dragonlab/mimokit/pkg/tokenstore"
)

// Response is the backend's OTP envelope. Status false is a declared
// business failure, distinct from a transport error.
type Response struct {
	Status  bool          `json:"status"`
	Message string        `json:"message,omitempty"`
	Data    *ResponseData `json:"data,omitempty"`
}

// ResponseData carries the optional verification token issued on success.
type ResponseData struct {
	Token string `json:"token,omitempty"`
}

// Client posts OTP requests to the backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  tokenstore.Store
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenStore makes requests carry the stored bearer token. Without a
// store, requests go out unauthenticated (the register/forgot flows run
// before login).
func WithTokenStore(store tokenstore.Store) ClientOption {
	return func(c *Client) {
		c.tokens = store
	}
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Post sends body as JSON to path and decodes the response envelope.
// A decodable envelope is returned regardless of HTTP status code, so a 422
// with {"status":false,...} surfaces as a declared failure, not an error.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errors.Join(ErrInvalidResponse, err)
	}
	return &envelope, nil
}
