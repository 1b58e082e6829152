package tui

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/gqlws/internal/client"
	"github.com/studiowebux/gqlws/internal/history"
	"github.com/studiowebux/gqlws/internal/storage"
	"github.com/studiowebux/gqlws/internal/workspace"
)

// CreateTestModel creates a Model on an in-memory workspace. serverURL is
// the format server; pass "" when the test never formats.
func CreateTestModel(t *testing.T, serverURL string) *Model {
	t.Helper()
	return createTestModel(t, serverURL, nil)
}

// CreateTestModelWithHistory also records runs in a temporary database
func CreateTestModelWithHistory(t *testing.T, serverURL string) (*Model, *history.Manager) {
	t.Helper()

	db, err := storage.OpenDatabase(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mgr := history.NewManager(db, "test")
	return createTestModel(t, serverURL, mgr), mgr
}

func createTestModel(t *testing.T, serverURL string, mgr *history.Manager) *Model {
	t.Helper()

	if serverURL == "" {
		serverURL = "http://127.0.0.1:1"
	}

	ws, err := workspace.Open(storage.NewMemoryStore(), "test")
	if err != nil {
		t.Fatalf("Failed to open workspace: %v", err)
	}

	m, err := New(Deps{
		Workspace:   ws,
		Client:      client.New(serverURL, 5*time.Second),
		History:     mgr,
		Timeout:     5 * time.Second,
		FormatDelay: time.Millisecond,
		ExportPath:  t.TempDir() + "/workspace.json",
	})
	if err != nil {
		t.Fatalf("Failed to create test model: %v", err)
	}
	t.Cleanup(m.Cleanup)

	// static cursors keep blink commands out of the message flow
	m.editor.Cursor.SetMode(cursor.CursorStatic)
	m.input.Cursor.SetMode(cursor.CursorStatic)

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return &m
}

// NewTestServer serves handler for the duration of the test
func NewTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// RunCmd executes cmd and returns every message it produces, flattening
// batches
func RunCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}

	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, RunCmd(c)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// Drain feeds the messages of cmd back into the model until no command is
// left, the way the Bubble Tea runtime would
func Drain(m *Model, cmd tea.Cmd) {
	for _, msg := range RunCmd(cmd) {
		_, next := m.Update(msg)
		Drain(m, next)
	}
}

// PressKey sends a key press and returns the resulting command
func PressKey(m *Model, key tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: key})
	return cmd
}

// TypeText sends runes as one key press and returns the resulting command
func TypeText(m *Model, text string) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return cmd
}

// AssertModelField checks a model field value
func AssertModelField(t *testing.T, fieldName string, got, want interface{}) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s = %v, want %v", fieldName, got, want)
	}
}
