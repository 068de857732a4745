package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Envelope is the shape shared by every API response.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Query holds URL query parameters. Empty values are dropped.
type Query map[string]string

// Set adds key=value unless value is empty.
func (q Query) Set(key, value string) Query {
	if value != "" {
		q[key] = value
	}
	return q
}

// RequestOption customises a single request.
type RequestOption func(*resty.Request)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *resty.Request) {
		r.SetHeader(key, value)
	}
}

// Client is a thin wrapper over the storefront REST API.
type Client struct {
	http   *resty.Client
	tokens TokenSource
}

// New creates a client for baseURL. A nil TokenSource sends anonymous requests.
func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{http: httpClient, tokens: tokens}
}

// Get performs a GET and decodes envelope data into out (when non-nil).
func (c *Client) Get(ctx context.Context, path string, query Query, out interface{}, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, opts...)
}

// Post performs a JSON POST and decodes envelope data into out (when non-nil).
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, query Query, body interface{}, out interface{}, opts ...RequestOption) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("read session token: %w", err)
	}

	req := c.http.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return &NetworkError{Err: err}
	}

	return decodeEnvelope(resp.StatusCode(), resp.Body(), out)
}

func decodeEnvelope(status int, body []byte, out interface{}) error {
	var env Envelope
	decodeErr := json.Unmarshal(body, &env)

	if status < 200 || status > 299 {
		apiErr := &ApiError{StatusCode: status, Message: DefaultErrorMessage}
		if decodeErr == nil {
			if env.Message != "" {
				apiErr.Message = env.Message
			}
			apiErr.Errors = env.Errors
		}
		return apiErr
	}

	if decodeErr != nil {
		return &ApiError{StatusCode: status, Message: DefaultErrorMessage}
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = DefaultErrorMessage
		}
		return &ApiError{StatusCode: status, Message: msg, Errors: env.Errors}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
