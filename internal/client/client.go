// Package client talks to the companion GraphQL tooling server and to the
// GraphQL endpoints configured on workspace tabs.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/studiowebux/gqlws/internal/gql"
)

// Server endpoints
const (
	FormatQueryPath  = "/format-query"
	ProxyPath        = "/graphql-proxy"
	RenderSchemaPath = "/render-schema"
	ProxyRequestPath = "/proxy-graphql-request"
)

// ServerError is an error reported by a server in its response. Message is
// kept verbatim for display.
type ServerError struct {
	Kind    string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// IsServerError reports whether err carries a server-reported error
func IsServerError(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}

// Client wraps resty for the workspace's HTTP calls. It never retries.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger routes request logging through logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
			c.http.SetLogger(logger.Sugar())
		}
	}
}

// New creates a client for the tooling server at serverURL
func New(serverURL string, timeout time.Duration, opts ...Option) *Client {
	r := resty.New().
		SetBaseURL(strings.TrimRight(serverURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "gqlws")

	c := &Client{http: r, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FormatQuery asks the server to pretty-print query
func (c *Client) FormatQuery(ctx context.Context, query string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetHeader("Accept", "text/plain").
		SetBody(query).
		Post(FormatQueryPath)
	if err != nil {
		return "", fmt.Errorf("format request failed: %w", err)
	}

	if !IsSuccessStatus(resp.StatusCode()) {
		return "", &ServerError{Kind: "format", Status: resp.StatusCode(), Message: resp.String()}
	}
	return resp.String(), nil
}

// Format uses the server formatter and falls back to the local one when the
// server cannot be reached. Errors reported by the server are returned as is.
func (c *Client) Format(ctx context.Context, query string) (string, error) {
	formatted, err := c.FormatQuery(ctx, query)
	if err == nil || IsServerError(err) || ctx.Err() != nil {
		return formatted, err
	}

	c.logger.Debug("format server unreachable, formatting locally", zap.Error(err))
	return gql.Format(query)
}

// RenderSchema fetches the server's pre-rendered schema documentation
func (c *Client) RenderSchema(ctx context.Context) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(RenderSchemaPath)
	if err != nil {
		return "", fmt.Errorf("render-schema request failed: %w", err)
	}

	if !IsSuccessStatus(resp.StatusCode()) {
		return "", &ServerError{Kind: "render", Status: resp.StatusCode(), Message: resp.String()}
	}
	return resp.String(), nil
}
