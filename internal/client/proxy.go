package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// ProxyRequest runs a query against a schema held only on the server
type ProxyRequest struct {
	Query     string          `json:"query"`
	Schema    string          `json:"schema"`
	Variables json.RawMessage `json:"variables,omitempty"`
}

// ProxyResult is the outcome of a proxy call. At most one of the error
// fields is set. When the body is not JSON, Raw holds it as text.
type ProxyResult struct {
	Data                 json.RawMessage `json:"data,omitempty"`
	MaterializationError string          `json:"materiamlizationError,omitempty"`
	SyntaxError          string          `json:"syntaxError,omitempty"`
	UnexpectedError      string          `json:"unexpectedError,omitempty"`
	Raw                  string          `json:"-"`
}

// Err returns the server-reported error, if any
func (r *ProxyResult) Err() error {
	switch {
	case r.SyntaxError != "":
		return &ServerError{Kind: "syntax", Message: r.SyntaxError}
	case r.MaterializationError != "":
		return &ServerError{Kind: "materialization", Message: r.MaterializationError}
	case r.UnexpectedError != "":
		return &ServerError{Kind: "unexpected", Message: r.UnexpectedError}
	}
	return nil
}

// Display returns what should be shown for the result: indented data, the
// error message or the raw text.
func (r *ProxyResult) Display() string {
	if err := r.Err(); err != nil {
		return err.Error()
	}
	if r.Raw != "" {
		return r.Raw
	}
	return indentJSON(r.Data)
}

// Proxy sends req to the server's schema proxy. A server-reported error is
// returned both in the result and as a *ServerError.
func (c *Client) Proxy(ctx context.Context, req ProxyRequest) (*ProxyResult, error) {
	if len(req.Variables) > 0 {
		vars, err := NormalizeVariables(string(req.Variables))
		if err != nil {
			return nil, err
		}
		req.Variables = vars
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(req).
		Post(ProxyPath)
	if err != nil {
		return nil, fmt.Errorf("proxy request failed: %w", err)
	}

	result := &ProxyResult{}
	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return &ProxyResult{Raw: resp.String()}, nil
	}
	return result, result.Err()
}
