package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/gqlws/internal/client"
	"github.com/studiowebux/gqlws/internal/config"
	"github.com/studiowebux/gqlws/internal/history"
	"github.com/studiowebux/gqlws/internal/storage"
	"github.com/studiowebux/gqlws/internal/workspace"
)

const introspectionBody = `{"data":{"__schema":{
  "queryType":{"name":"Query"},
  "types":[{"kind":"OBJECT","name":"Query","fields":[
    {"name":"ping","args":[],"type":{"kind":"SCALAR","name":"String"},"isDeprecated":false}
  ],"interfaces":[]}],
  "directives":[]
}}}`

// graphQLHandler answers introspection with a one-field schema and every
// other query with {"data":{"hello":"world"}}
func graphQLHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(string(body), "__schema") {
			_, _ = w.Write([]byte(introspectionBody))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"hello":"world"}}`))
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// newTestApp builds an App over a memory store and a temporary history
// database. Output is captured in the returned buffer.
func newTestApp(t *testing.T, serverURL string) (*App, *bytes.Buffer) {
	t.Helper()

	db, err := storage.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	settings := config.Default()
	settings.Workspace = "test"
	settings.ServerURL = serverURL
	settings.DefaultURL = serverURL + "/graphql"
	settings.Timeout = 5 * time.Second

	app, err := NewApp(settings, storage.NewMemoryStore(), history.NewManager(db, settings.Workspace), nil)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	app.Out = out
	app.Err = io.Discard
	return app, out
}

func TestListTabs(t *testing.T) {
	app, out := newTestApp(t, "http://127.0.0.1:1")

	require.NoError(t, ListTabs(app, OutputText))
	assert.Equal(t, "No tabs\n", out.String())

	require.NoError(t, AddTab(app, OutputText))
	require.NoError(t, AddTab(app, OutputText))
	out.Reset()

	require.NoError(t, ListTabs(app, OutputJSON))
	var tabs []TabInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &tabs))
	require.Len(t, tabs, 2)
	assert.Equal(t, "1", tabs[0].ID)
	assert.False(t, tabs[0].Active)
	assert.Equal(t, "2", tabs[1].ID)
	assert.True(t, tabs[1].Active)
	assert.Equal(t, "Query 2", tabs[1].Name)
}

func TestListTabs_UnknownFormat(t *testing.T) {
	app, _ := newTestApp(t, "http://127.0.0.1:1")
	err := ListTabs(app, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestCloseAndReopenTab(t *testing.T) {
	app, out := newTestApp(t, "http://127.0.0.1:1")

	require.NoError(t, AddTab(app, OutputText))
	out.Reset()

	require.NoError(t, CloseTab(app, "1"))
	assert.Equal(t, "Closed tab 1\nOpened tab 2\n", out.String())

	out.Reset()
	require.NoError(t, ReopenTab(app, OutputText))
	assert.Contains(t, out.String(), "Tab 1 (Query 1)")
	assert.Equal(t, "1", app.Workspace.ActiveID())

	err := CloseTab(app, "99")
	assert.ErrorIs(t, err, workspace.ErrTabNotFound)
}

func TestReopenTab_NothingClosed(t *testing.T) {
	app, _ := newTestApp(t, "http://127.0.0.1:1")
	err := ReopenTab(app, OutputText)
	require.Error(t, err)
	assert.Equal(t, "no closed tabs", err.Error())
}

func TestActivateTab(t *testing.T) {
	app, out := newTestApp(t, "http://127.0.0.1:1")
	require.NoError(t, AddTab(app, OutputText))
	require.NoError(t, AddTab(app, OutputText))
	out.Reset()

	require.NoError(t, ActivateTab(app, "1"))
	assert.Equal(t, "1", app.Workspace.ActiveID())
	assert.Equal(t, "Active tab: 1\n", out.String())

	assert.ErrorIs(t, ActivateTab(app, "7"), workspace.ErrTabNotFound)
}

func TestSetTab(t *testing.T) {
	app, out := newTestApp(t, "http://127.0.0.1:1")

	name := "Users"
	url := "http://example.com/graphql"
	proxy := true
	err := SetTab(app, "", TabUpdate{
		Name:    &name,
		URL:     &url,
		Proxy:   &proxy,
		Headers: []string{"Authorization: Bearer x", "X-Trace:1"},
	}, OutputText)
	require.NoError(t, err)

	settings := app.Workspace.ActiveTab().Settings()
	assert.Equal(t, "Users", settings.Name)
	assert.Equal(t, url, settings.URL)
	assert.True(t, settings.Proxy)
	assert.Equal(t, []workspace.Header{
		{Name: "Authorization", Value: "Bearer x"},
		{Name: "X-Trace", Value: "1"},
	}, settings.Headers)

	assert.Equal(t, []string{url}, app.Workspace.UsedURLs())
	assert.Len(t, app.Workspace.RecentHeaders(), 2)
	assert.Contains(t, out.String(), "Header:  Authorization: Bearer x")
}

func TestSetTab_QueryTracksOperationName(t *testing.T) {
	app, _ := newTestApp(t, "http://127.0.0.1:1")

	named := "query Users { users { id } }"
	require.NoError(t, SetTab(app, "", TabUpdate{Query: &named}, OutputText))
	assert.Equal(t, "Users", app.Workspace.ActiveTab().Settings().OperationName)

	anonymous := "{ hero { name } }"
	require.NoError(t, SetTab(app, "", TabUpdate{Query: &anonymous}, OutputText))
	assert.Empty(t, app.Workspace.ActiveTab().Settings().OperationName)
}

func TestNewApp_RejectsOverlappingWorkspaceKey(t *testing.T) {
	settings := config.Default()
	settings.Workspace = "dev-2"

	_, err := NewApp(settings, storage.NewMemoryStore(), nil, nil)
	assert.ErrorIs(t, err, workspace.ErrInvalidKey)
}

func TestSetTab_InvalidHeader(t *testing.T) {
	app, _ := newTestApp(t, "http://127.0.0.1:1")
	err := SetTab(app, "", TabUpdate{Headers: []string{"no separator"}}, OutputText)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid header")
}

func TestRun(t *testing.T) {
	server := newTestServer(t, graphQLHandler(t))
	app, out := newTestApp(t, server.URL)

	query := "query Hello { hello }"
	require.NoError(t, SetTab(app, "", TabUpdate{Query: &query}, OutputText))
	out.Reset()

	err := Run(context.Background(), app, RunOptions{OutputFormat: OutputJSON})
	require.NoError(t, err)

	var got runOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "1", got.Tab)
	assert.Equal(t, server.URL+"/graphql", got.URL)
	assert.Equal(t, http.StatusOK, got.Result.Status)
	assert.JSONEq(t, `{"data":{"hello":"world"}}`, got.Result.Body)

	entries, err := app.History.List("1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Hello", entries[0].OperationName)
	assert.Equal(t, http.StatusOK, entries[0].Status)
	assert.False(t, entries[0].Failed())

	assert.Equal(t, []string{server.URL + "/graphql"}, app.Workspace.UsedURLs())
}

func TestRun_FilterAndQuery(t *testing.T) {
	server := newTestServer(t, graphQLHandler(t))
	app, out := newTestApp(t, server.URL)

	query := "{ hello }"
	require.NoError(t, SetTab(app, "", TabUpdate{Query: &query}, OutputText))
	out.Reset()

	err := Run(context.Background(), app, RunOptions{OutputFormat: OutputBody, Filter: "data", Query: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "\"world\"\n", out.String())
}

func TestRun_GraphQLErrors(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Cannot query field \"nope\""}]}`))
	})
	app, out := newTestApp(t, server.URL)

	query := "{ nope }"
	require.NoError(t, SetTab(app, "", TabUpdate{Query: &query}, OutputText))
	out.Reset()

	err := Run(context.Background(), app, RunOptions{OutputFormat: OutputText})
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, out.String(), `Error: Cannot query field "nope"`)

	entries, err := app.History.List("", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Failed())
}

func TestRun_NetworkErrorIsRecorded(t *testing.T) {
	app, _ := newTestApp(t, "http://127.0.0.1:1")

	query := "{ hello }"
	require.NoError(t, SetTab(app, "", TabUpdate{Query: &query}, OutputText))

	err := Run(context.Background(), app, RunOptions{OutputFormat: OutputText})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute request")

	entries, err := app.History.List("", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].Error)
	assert.Empty(t, app.Workspace.UsedURLs())
}

func TestRun_EmptyQuery(t *testing.T) {
	app, _ := newTestApp(t, "http://127.0.0.1:1")
	err := Run(context.Background(), app, RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no query")
}

func TestRun_SavePath(t *testing.T) {
	server := newTestServer(t, graphQLHandler(t))
	app, out := newTestApp(t, server.URL)

	query := "{ hello }"
	require.NoError(t, SetTab(app, "", TabUpdate{Query: &query}, OutputText))
	out.Reset()

	path := filepath.Join(t.TempDir(), "response.json")
	require.NoError(t, Run(context.Background(), app, RunOptions{OutputFormat: OutputBody, SavePath: path}))
	assert.Empty(t, out.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"hello":"world"}}`, string(data))
}

func TestIntrospect_AllKeepsGoingPastFailures(t *testing.T) {
	server := newTestServer(t, graphQLHandler(t))
	app, out := newTestApp(t, server.URL)

	require.NoError(t, AddTab(app, OutputText))
	require.NoError(t, AddTab(app, OutputText))
	broken := "http://127.0.0.1:1/graphql"
	require.NoError(t, SetTab(app, "2", TabUpdate{URL: &broken}, OutputText))
	out.Reset()

	err := Introspect(context.Background(), app, IntrospectOptions{All: true}, OutputJSON)
	require.Error(t, err)
	assert.Equal(t, "introspection failed for 1 tab(s)", err.Error())

	var reports []IntrospectionReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "1", reports[0].Tab)
	assert.Empty(t, reports[0].Error)
	assert.Equal(t, []string{"ping"}, reports[0].Queries)
	assert.Equal(t, "2", reports[1].Tab)
	assert.NotEmpty(t, reports[1].Error)
}

func TestIntrospect_SDL(t *testing.T) {
	server := newTestServer(t, graphQLHandler(t))
	app, out := newTestApp(t, server.URL)

	require.NoError(t, Introspect(context.Background(), app, IntrospectOptions{SDL: true}, OutputText))
	assert.Contains(t, out.String(), "ping: String")
}

func TestIntrospect_ServerErrorVerbatim(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("introspection disabled"))
	})
	app, out := newTestApp(t, server.URL)

	err := Introspect(context.Background(), app, IntrospectOptions{}, OutputText)
	require.Error(t, err)
	assert.Contains(t, out.String(), "introspection disabled")
}

func TestFormat_Local(t *testing.T) {
	app, out := newTestApp(t, "http://127.0.0.1:1")

	require.NoError(t, Format(context.Background(), app, "query Q{hello}", FormatOptions{Local: true}))
	assert.Equal(t, "query Q {\n  hello\n}\n", out.String())
}

func TestFormat_Server(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, client.FormatQueryPath, r.URL.Path)
		_, _ = w.Write([]byte("{\n  hello\n}"))
	})
	app, out := newTestApp(t, server.URL)

	require.NoError(t, Format(context.Background(), app, "{hello}", FormatOptions{}))
	assert.Equal(t, "{\n  hello\n}", out.String())
}

func TestFormat_InPlace(t *testing.T) {
	app, out := newTestApp(t, "http://127.0.0.1:1")

	query := "query Q{hello}"
	require.NoError(t, SetTab(app, "", TabUpdate{Query: &query}, OutputText))
	out.Reset()

	require.NoError(t, Format(context.Background(), app, "", FormatOptions{Local: true, InPlace: true}))
	assert.Equal(t, "query Q {\n  hello\n}\n", app.Workspace.ActiveTab().Settings().Query)
}

func TestFormat_Empty(t *testing.T) {
	app, _ := newTestApp(t, "http://127.0.0.1:1")
	err := Format(context.Background(), app, "  \n", FormatOptions{Local: true})
	require.Error(t, err)
	assert.Equal(t, "nothing to format", err.Error())
}

func TestRenderSchema(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("<h1>Query</h1>"))
	})
	app, out := newTestApp(t, server.URL)

	require.NoError(t, RenderSchema(context.Background(), app))
	assert.Equal(t, "<h1>Query</h1>\n", out.String())
}

func TestProxy(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req client.ProxyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "{ a }", req.Query)
		assert.JSONEq(t, `{"id":1}`, string(req.Variables))
		_, _ = w.Write([]byte(`{"data":{"a":1}}`))
	})
	app, out := newTestApp(t, server.URL)

	err := Proxy(context.Background(), app, ProxyOptions{
		Query:     "{ a }",
		Schema:    "type Query { a: Int }",
		Variables: `{"id": 1, /* comment */}`,
	}, OutputText)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", out.String())
}

func TestProxy_ServerErrorVerbatim(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"syntaxError":"Syntax Error: Expected Name"}`))
	})
	app, out := newTestApp(t, server.URL)

	err := Proxy(context.Background(), app, ProxyOptions{Query: "{", Schema: "type Query { a: Int }"}, OutputText)
	require.Error(t, err)
	assert.Equal(t, "Syntax Error: Expected Name", err.Error())
	assert.Equal(t, "Syntax Error: Expected Name\n", out.String())
}

func TestExportImport(t *testing.T) {
	app, out := newTestApp(t, "http://127.0.0.1:1")

	name := "Saved"
	require.NoError(t, SetTab(app, "", TabUpdate{Name: &name}, OutputText))
	require.NoError(t, AddTab(app, OutputText))

	path := filepath.Join(t.TempDir(), "workspace.yaml")
	require.NoError(t, Export(app, path, ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "key: test")

	// a tab added after the export must not survive the import
	require.NoError(t, AddTab(app, OutputText))
	require.Len(t, app.Workspace.Tabs(), 3)

	out.Reset()
	require.NoError(t, Import(app, data))
	assert.Equal(t, "Imported test (2 tabs)\n", out.String())

	tabs := app.Workspace.Tabs()
	require.Len(t, tabs, 2)
	assert.Equal(t, "Saved", tabs[0].Name())

	reopened, err := workspace.Open(app.Store, "test")
	require.NoError(t, err)
	assert.Len(t, reopened.Tabs(), 2)
}

func TestExport_Stdout(t *testing.T) {
	app, out := newTestApp(t, "http://127.0.0.1:1")
	require.NoError(t, AddTab(app, OutputText))
	out.Reset()

	require.NoError(t, Export(app, "", OutputJSON))
	snap, err := workspace.DecodeSnapshot(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "test", snap.Key)
	assert.Len(t, snap.Tabs, 1)
}

func TestImport_OtherWorkspace(t *testing.T) {
	app, out := newTestApp(t, "http://127.0.0.1:1")

	snap := workspace.Snapshot{
		Settings: workspace.DefaultSettings("other"),
		Tabs:     []workspace.TabSettings{{ID: "4", Name: "Imported", URL: "http://x/graphql"}},
	}
	data, err := workspace.EncodeSnapshot(snap, workspace.FormatJSON)
	require.NoError(t, err)

	require.NoError(t, Import(app, data))
	assert.Equal(t, "Imported other (1 tabs)\n", out.String())
	assert.Equal(t, "test", app.Workspace.Key())

	other, err := workspace.Open(app.Store, "other")
	require.NoError(t, err)
	require.Len(t, other.Tabs(), 1)
	assert.Equal(t, "Imported", other.Tabs()[0].Name())
}

func TestCleanup(t *testing.T) {
	server := newTestServer(t, graphQLHandler(t))
	app, out := newTestApp(t, server.URL)

	query := "{ hello }"
	require.NoError(t, SetTab(app, "", TabUpdate{Query: &query}, OutputText))
	require.NoError(t, Run(context.Background(), app, RunOptions{OutputFormat: OutputBody}))
	out.Reset()

	require.NoError(t, Cleanup(app))
	assert.Equal(t, "Erased workspace test\n", out.String())

	keys, err := app.Store.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	count, err := app.History.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListURLs(t *testing.T) {
	app, out := newTestApp(t, "http://127.0.0.1:1")
	for _, u := range []string{"http://api.example.com/graphql", "http://localhost:4000/graphql", "http://countries.dev/graphql"} {
		_, err := app.Workspace.RememberURL(u)
		require.NoError(t, err)
	}

	require.NoError(t, ListURLs(app, "", OutputText))
	assert.Equal(t, "http://countries.dev/graphql\nhttp://localhost:4000/graphql\nhttp://api.example.com/graphql\n", out.String())

	out.Reset()
	require.NoError(t, ListURLs(app, "local", OutputJSON))
	var urls []string
	require.NoError(t, json.Unmarshal(out.Bytes(), &urls))
	assert.Equal(t, []string{"http://localhost:4000/graphql"}, urls)
}

func TestListHeaders(t *testing.T) {
	app, out := newTestApp(t, "http://127.0.0.1:1")
	require.NoError(t, SetTab(app, "", TabUpdate{Headers: []string{"X-A: 1"}}, OutputText))
	out.Reset()

	require.NoError(t, ListHeaders(app, OutputText))
	assert.Equal(t, "X-A: 1\n", out.String())
}

func TestHistory(t *testing.T) {
	server := newTestServer(t, graphQLHandler(t))
	app, out := newTestApp(t, server.URL)

	require.NoError(t, ListHistory(app, HistoryOptions{}, OutputText))
	assert.Equal(t, "No history\n", out.String())

	query := "query Hello { hello }"
	require.NoError(t, SetTab(app, "", TabUpdate{Query: &query}, OutputText))
	require.NoError(t, Run(context.Background(), app, RunOptions{OutputFormat: OutputBody}))
	require.NoError(t, Run(context.Background(), app, RunOptions{OutputFormat: OutputBody}))

	out.Reset()
	require.NoError(t, ListHistory(app, HistoryOptions{Limit: 1}, OutputJSON))
	var entries []history.Entry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Hello", entries[0].OperationName)

	out.Reset()
	require.NoError(t, HistoryStats(app, OutputJSON))
	var stats []history.Stats
	require.NoError(t, json.Unmarshal(out.Bytes(), &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].TotalCalls)
	assert.Equal(t, 2, stats[0].SuccessCount)

	out.Reset()
	require.NoError(t, ClearHistory(app, "1"))
	assert.Equal(t, "Removed 2 entries\n", out.String())
}

func TestKeybinds_ExportThenValidate(t *testing.T) {
	app, out := newTestApp(t, "http://127.0.0.1:1")
	path := filepath.Join(t.TempDir(), "keybinds.json")

	require.NoError(t, ExportKeybinds(app, path, false))
	assert.FileExists(t, path)

	err := ExportKeybinds(app, path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	require.NoError(t, ExportKeybinds(app, path, true))

	out.Reset()
	require.NoError(t, ValidateKeybinds(app, path))
	assert.NotEmpty(t, out.String())
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.graphql")
	require.NoError(t, os.WriteFile(path, []byte("{ a }"), 0644))

	got, err := ReadInput(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "{ a }", got)

	got, err = ReadInput("-", strings.NewReader("{ b }"))
	require.NoError(t, err)
	assert.Equal(t, "{ b }", got)

	_, err = ReadInput(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestSelectorModel(t *testing.T) {
	app, _ := newTestApp(t, "http://127.0.0.1:1")
	require.NoError(t, AddTab(app, OutputText))
	require.NoError(t, AddTab(app, OutputText))
	require.NoError(t, ActivateTab(app, "1"))

	m := newTabSelector(app.Workspace)
	assert.Equal(t, 0, m.list.Index())

	model, _ := m.Update(keyDown())
	model, cmd := model.Update(keyEnter())
	require.NotNil(t, cmd)

	result := model.(selectorModel)
	assert.Equal(t, "2", result.choice)
	assert.Empty(t, result.View())
}

func keyDown() tea.Msg  { return tea.KeyMsg{Type: tea.KeyDown} }
func keyEnter() tea.Msg { return tea.KeyMsg{Type: tea.KeyEnter} }
