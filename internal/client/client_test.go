package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/gqlws/internal/workspace"
)

const minimalIntrospection = `{"data":{"__schema":{
  "queryType":{"name":"Query"},
  "types":[{"kind":"OBJECT","name":"Query","fields":[
    {"name":"ping","args":[],"type":{"kind":"SCALAR","name":"String"},"isDeprecated":false}
  ],"interfaces":[]}],
  "directives":[]
}}}`

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, New(server.URL, 5*time.Second)
}

func TestFormatQuery(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, FormatQueryPath, r.URL.Path)
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "{a}", string(body))
		_, _ = w.Write([]byte("{\n  a\n}"))
	})

	formatted, err := c.FormatQuery(context.Background(), "{a}")
	require.NoError(t, err)
	assert.Equal(t, "{\n  a\n}", formatted)
}

func TestFormatQuery_ServerErrorVerbatim(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Syntax error at 1:3"))
	})

	_, err := c.FormatQuery(context.Background(), "{a")
	require.Error(t, err)
	assert.True(t, IsServerError(err))
	assert.Equal(t, "Syntax error at 1:3", err.Error())
}

func TestFormatQuery_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(url, time.Second).FormatQuery(context.Background(), "{a}")
	require.Error(t, err)
	assert.False(t, IsServerError(err))
}

func TestProxy(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  string
		wantRaw  string
		wantData string
	}{
		{
			name:     "data",
			response: `{"data":{"ping":"pong"}}`,
			wantData: `{"ping":"pong"}`,
		},
		{
			name:     "syntax error",
			response: `{"syntaxError":"Expected Name, found }"}`,
			wantErr:  "Expected Name, found }",
		},
		{
			name:     "materialization error",
			response: `{"materiamlizationError":"Unknown type Foo"}`,
			wantErr:  "Unknown type Foo",
		},
		{
			name:     "unexpected error",
			response: `{"unexpectedError":"boom"}`,
			wantErr:  "boom",
		},
		{
			name:     "not json",
			response: `<html>502 Bad Gateway</html>`,
			wantRaw:  `<html>502 Bad Gateway</html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, ProxyPath, r.URL.Path)

				var req ProxyRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "{ping}", req.Query)
				assert.Equal(t, "type Query { ping: String }", req.Schema)
				assert.JSONEq(t, `{"n":1}`, string(req.Variables))

				_, _ = w.Write([]byte(tt.response))
			})

			result, err := c.Proxy(context.Background(), ProxyRequest{
				Query:     "{ping}",
				Schema:    "type Query { ping: String }",
				Variables: json.RawMessage("{\"n\": 1, // comment\n}"),
			})
			require.NotNil(t, result)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, IsServerError(err))
				assert.Equal(t, tt.wantErr, err.Error())
				assert.Equal(t, tt.wantErr, result.Display())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRaw, result.Raw)
			if tt.wantData != "" {
				assert.JSONEq(t, tt.wantData, string(result.Data))
			}
		})
	}
}

func TestRenderSchema(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, RenderSchemaPath, r.URL.Path)
		_, _ = w.Write([]byte("<h1>Query</h1>"))
	})

	html, err := c.RenderSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<h1>Query</h1>", html)
}

func TestExecute_Direct(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "query Q { ping }", body["query"])
		assert.Equal(t, "Q", body["operationName"])
		assert.Equal(t, map[string]any{"id": "1"}, body["variables"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"ping":"pong"}}`))
	}))
	defer endpoint.Close()

	c := New("http://127.0.0.1:1", 5*time.Second)
	result, err := c.Execute(context.Background(), Target{
		URL:     endpoint.URL,
		Headers: []workspace.Header{{Name: "Authorization", Value: "Bearer abc"}, {Name: "", Value: "ignored"}},
	}, Request{Query: "query Q { ping }", Variables: `{"id": "1",}`, OperationName: "Q"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, "application/json", result.Headers["Content-Type"])
	assert.Equal(t, "{\n  \"data\": {\n    \"ping\": \"pong\"\n  }\n}", result.Pretty())
	assert.Empty(t, result.Errors())
	assert.Equal(t, len(result.Body), result.ResponseSize)
}

func TestExecute_ThroughProxy(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ProxyRequestPath, r.URL.Path)
		assert.Empty(t, r.Header.Get("X-Tenant"), "tab headers travel in the body")

		var body proxiedBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "http://upstream/graphql", body.URL)
		assert.Equal(t, []workspace.Header{{Name: "X-Tenant", Value: "acme"}}, body.Headers)
		assert.Equal(t, "{ ping }", body.Query)

		_, _ = w.Write([]byte(`{"errors":[{"message":"denied"}]}`))
	})

	result, err := c.Execute(context.Background(), Target{
		URL:     "http://upstream/graphql",
		Proxy:   true,
		Headers: []workspace.Header{{Name: "X-Tenant", Value: "acme"}},
	}, Request{Query: "{ ping }"})
	require.NoError(t, err)
	assert.Equal(t, []string{"denied"}, result.Errors())
}

func TestExecute_InvalidInput(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second)

	_, err := c.Execute(context.Background(), Target{}, Request{Query: "{a}"})
	assert.Error(t, err)

	_, err = c.Execute(context.Background(), Target{URL: "http://127.0.0.1:1"}, Request{Query: "{a}", Variables: "[1]"})
	assert.ErrorContains(t, err, "variables must be a JSON object")
}

func TestExecute_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer endpoint.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(endpoint.URL, 5*time.Second).Execute(ctx, Target{URL: endpoint.URL}, Request{Query: "{a}"})
	assert.Error(t, err)
}

func TestIntrospect(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(minimalIntrospection))
	}))
	defer endpoint.Close()

	schema, err := New(endpoint.URL, 5*time.Second).Introspect(context.Background(), Target{URL: endpoint.URL})
	require.NoError(t, err)
	assert.Equal(t, []string{"ping"}, schema.Queries())
}

func TestIntrospect_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "graphql errors", status: http.StatusOK, body: `{"errors":[{"message":"introspection disabled"}]}`, wantMsg: "introspection disabled"},
		{name: "http status", status: http.StatusUnauthorized, body: `unauthorized`, wantMsg: "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer endpoint.Close()

			_, err := New(endpoint.URL, 5*time.Second).Introspect(context.Background(), Target{URL: endpoint.URL})
			require.Error(t, err)
			assert.True(t, IsServerError(err))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestTargetAndRequestFor(t *testing.T) {
	tab := workspace.TabSettings{
		ID:            "3",
		URL:           "http://x/graphql",
		Proxy:         true,
		Headers:       []workspace.Header{{Name: "A", Value: "1"}},
		Query:         "{a}",
		Variables:     `{"v":1}`,
		OperationName: "Op",
	}

	assert.Equal(t, Target{URL: "http://x/graphql", Proxy: true, Headers: tab.Headers}, TargetFor(tab))
	assert.Equal(t, Request{Query: "{a}", Variables: `{"v":1}`, OperationName: "Op"}, RequestFor(tab))
}

func TestStatusHelpers(t *testing.T) {
	assert.Equal(t, "999ms", FormatDuration(999))
	assert.Equal(t, "1.50s", FormatDuration(1500))
	assert.Equal(t, "512B", FormatSize(512))
	assert.Equal(t, "2.00KB", FormatSize(2048))
	assert.Equal(t, "1.00MB", FormatSize(1024*1024))
	assert.True(t, IsSuccessStatus(204))
	assert.False(t, IsSuccessStatus(302))

	r := &Result{StatusText: "200 OK", Duration: 12, ResponseSize: 10}
	assert.Equal(t, "200 OK · 12ms · 10B", r.Summary())
}

func TestFormat_FallsBackToLocal(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	formatted, err := New(url, time.Second).Format(context.Background(), "{a}")
	require.NoError(t, err)
	assert.Contains(t, formatted, "a")
	assert.Contains(t, formatted, "\n")
}

func TestFormat_KeepsServerError(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Unexpected EOF"))
	})

	_, err := c.Format(context.Background(), "{a")
	require.Error(t, err)
	assert.Equal(t, "Unexpected EOF", err.Error())
}
