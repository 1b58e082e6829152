package workspace

import (
	"fmt"
	"sync"

	"github.com/studiowebux/gqlws/internal/state"
	"github.com/studiowebux/gqlws/internal/storage"
)

// Tab is one live editor session of a workspace
type Tab struct {
	mu       sync.RWMutex
	state    *state.State
	settings TabSettings
}

// tabNamespace keeps tab keys out of the workspace's own "<key>-" prefix
func tabNamespace(workspaceKey, id string) string {
	return workspaceKey + ".tab" + id
}

// newTab creates or restores a tab. initial is written first, then whatever
// the store already holds for the namespace.
func newTab(store storage.Store, workspaceKey, id string, initial *TabSettings) (*Tab, error) {
	var init any
	if initial != nil {
		settings := cloneTabSettings(*initial)
		settings.ID = id
		init = settings
	}

	st, err := state.New(store, tabNamespace(workspaceKey, id), init)
	if err != nil {
		return nil, fmt.Errorf("failed to load tab %s: %w", id, err)
	}

	t := &Tab{state: st}
	if err := st.Decode(&t.settings); err != nil {
		return nil, fmt.Errorf("failed to decode tab %s: %w", id, err)
	}

	// A tab whose keys were lost still answers to its id
	if t.settings.ID != id {
		t.settings.ID = id
		if err := st.Set("id", id); err != nil {
			return nil, err
		}
	}
	if t.settings.Headers == nil {
		t.settings.Headers = []Header{}
	}

	return t, nil
}

// ID returns the tab identifier
func (t *Tab) ID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.settings.ID
}

// Name returns the display name
func (t *Tab) Name() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.settings.Name
}

// Settings returns a copy of the tab's persisted fields
func (t *Tab) Settings() TabSettings {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneTabSettings(t.settings)
}

// SetName renames the tab
func (t *Tab) SetName(name string) error {
	return t.set("name", name, func(s *TabSettings) { s.Name = name })
}

// SetURL changes the target endpoint
func (t *Tab) SetURL(url string) error {
	return t.set("url", url, func(s *TabSettings) { s.URL = url })
}

// SetProxy toggles proxy mode
func (t *Tab) SetProxy(proxy bool) error {
	return t.set("proxy", proxy, func(s *TabSettings) { s.Proxy = proxy })
}

// SetHeaders replaces the header list
func (t *Tab) SetHeaders(headers []Header) error {
	headers = cloneHeaders(headers)
	return t.set("headers", headers, func(s *TabSettings) { s.Headers = headers })
}

// SetQuery stores the editor content
func (t *Tab) SetQuery(query string) error {
	return t.set("query", query, func(s *TabSettings) { s.Query = query })
}

// SetVariables stores the variables editor content
func (t *Tab) SetVariables(variables string) error {
	return t.set("variables", variables, func(s *TabSettings) { s.Variables = variables })
}

// SetOperationName selects the operation to run
func (t *Tab) SetOperationName(name string) error {
	return t.set("operationName", name, func(s *TabSettings) { s.OperationName = name })
}

// Frozen reports whether the tab's storage has been erased
func (t *Tab) Frozen() bool {
	return t.state.Frozen()
}

func (t *Tab) set(field string, value any, apply func(*TabSettings)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Frozen() {
		return nil
	}
	if err := t.state.Set(field, value); err != nil {
		return err
	}
	apply(&t.settings)
	return nil
}

func (t *Tab) cleanup() error {
	return t.state.Cleanup()
}
