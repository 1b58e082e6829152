package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"go.uber.org/zap"

	"github.com/studiowebux/gqlws/internal/gql"
	"github.com/studiowebux/gqlws/internal/workspace"
)

// Target is where a tab sends its requests
type Target struct {
	URL     string
	Proxy   bool
	Headers []workspace.Header
}

// TargetFor builds the target of a tab
func TargetFor(tab workspace.TabSettings) Target {
	return Target{URL: tab.URL, Proxy: tab.Proxy, Headers: tab.Headers}
}

// Request is a GraphQL request. Variables is JSON text and may contain
// comments or trailing commas.
type Request struct {
	Query         string
	Variables     string
	OperationName string
}

// RequestFor builds the request held by a tab
func RequestFor(tab workspace.TabSettings) Request {
	return Request{Query: tab.Query, Variables: tab.Variables, OperationName: tab.OperationName}
}

type graphQLBody struct {
	Query         string          `json:"query"`
	Variables     json.RawMessage `json:"variables,omitempty"`
	OperationName string          `json:"operationName,omitempty"`
}

// proxiedBody is what the server's request proxy forwards to URL
type proxiedBody struct {
	URL     string             `json:"url"`
	Headers []workspace.Header `json:"headers"`
	graphQLBody
}

// Result is the outcome of an executed request
type Result struct {
	Status       int               `json:"status"`
	StatusText   string            `json:"statusText"`
	Headers      map[string]string `json:"headers"`
	Body         string            `json:"body"`
	Duration     int64             `json:"duration"`
	RequestSize  int               `json:"requestSize"`
	ResponseSize int               `json:"responseSize"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Errors returns the messages of the GraphQL errors in the body
func (r *Result) Errors() []string {
	var resp graphQLResponse
	if err := json.Unmarshal([]byte(r.Body), &resp); err != nil {
		return nil
	}
	messages := make([]string, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		messages = append(messages, e.Message)
	}
	return messages
}

// Pretty returns the indented body, or the body as is when it is not JSON
func (r *Result) Pretty() string {
	return indentJSON(json.RawMessage(r.Body))
}

// Execute sends req to target.URL with the target's headers, or through the
// server's request proxy when target.Proxy is set. Network failures are
// returned as errors; any HTTP response, whatever its status, is a Result.
func (c *Client) Execute(ctx context.Context, target Target, req Request) (*Result, error) {
	if strings.TrimSpace(target.URL) == "" {
		return nil, fmt.Errorf("no endpoint URL set")
	}

	body := graphQLBody{Query: req.Query, OperationName: req.OperationName}
	if strings.TrimSpace(req.Variables) != "" {
		vars, err := NormalizeVariables(req.Variables)
		if err != nil {
			return nil, err
		}
		body.Variables = vars
	}

	r := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	var (
		payload any = body
		url         = target.URL
	)
	if target.Proxy {
		payload = proxiedBody{URL: target.URL, Headers: target.Headers, graphQLBody: body}
		url = ProxyRequestPath
	} else {
		for _, h := range target.Headers {
			if h.Name != "" {
				r.SetHeader(h.Name, h.Value)
			}
		}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	c.logger.Debug("executing request", zap.String("url", target.URL), zap.Bool("proxy", target.Proxy))

	start := time.Now()
	resp, err := r.SetBody(encoded).Post(url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	duration := time.Since(start).Milliseconds()

	headers := make(map[string]string)
	for key, values := range resp.Header() {
		headers[key] = strings.Join(values, ", ")
	}

	return &Result{
		Status:       resp.StatusCode(),
		StatusText:   resp.Status(),
		Headers:      headers,
		Body:         resp.String(),
		Duration:     duration,
		RequestSize:  len(encoded),
		ResponseSize: len(resp.Body()),
	}, nil
}

// Introspect runs the introspection query against target and rebuilds its
// schema. A non-2xx status or a response without a schema is a *ServerError.
func (c *Client) Introspect(ctx context.Context, target Target) (*gql.Schema, error) {
	result, err := c.Execute(ctx, target, Request{
		Query:         gql.IntrospectionQuery,
		OperationName: "IntrospectionQuery",
	})
	if err != nil {
		return nil, err
	}

	if !IsSuccessStatus(result.Status) {
		return nil, &ServerError{Kind: "introspection", Status: result.Status, Message: result.Body}
	}

	schema, err := gql.BuildSchema([]byte(result.Body))
	if err != nil {
		if messages := result.Errors(); len(messages) > 0 {
			return nil, &ServerError{Kind: "introspection", Status: result.Status, Message: strings.Join(messages, "\n")}
		}
		return nil, err
	}
	return schema, nil
}

// NormalizeVariables turns variables text into compact JSON. Comments and
// trailing commas are accepted; the value must be an object.
func NormalizeVariables(text string) (json.RawMessage, error) {
	cleaned := jsonc.ToJSON([]byte(text))

	var vars map[string]any
	if err := json.Unmarshal(cleaned, &vars); err != nil {
		return nil, fmt.Errorf("variables must be a JSON object: %w", err)
	}
	if vars == nil {
		return nil, fmt.Errorf("variables must be a JSON object")
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, cleaned); err != nil {
		return nil, fmt.Errorf("variables must be a JSON object: %w", err)
	}
	return buf.Bytes(), nil
}

func indentJSON(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}
