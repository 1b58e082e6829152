package workspace

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/studiowebux/gqlws/internal/state"
	"github.com/studiowebux/gqlws/internal/storage"
	"go.uber.org/zap"
)

// Workspace is the persisted set of tabs plus shared defaults and histories
type Workspace struct {
	mu       sync.Mutex
	store    storage.Store
	state    *state.State
	settings Settings
	tabs     []*Tab
	logger   *zap.Logger
}

// Option configures a workspace
type Option func(*options)

type options struct {
	logger  *zap.Logger
	initial func(*Settings)
}

// WithLogger sets the logger used for tab lifecycle events
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDefaultURL seeds the default endpoint of a new namespace
func WithDefaultURL(url string) Option {
	return withInitial(func(s *Settings) { s.DefaultURL = url })
}

// WithHistoryLimits seeds the closed-tab and used-URL caps of a new namespace
func WithHistoryLimits(maxTabs, maxURLs int) Option {
	return withInitial(func(s *Settings) {
		s.MaxTabHistory = maxTabs
		s.MaxURLHistory = maxURLs
	})
}

func withInitial(fn func(*Settings)) Option {
	return func(o *options) {
		prev := o.initial
		o.initial = func(s *Settings) {
			if prev != nil {
				prev(s)
			}
			fn(s)
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// Open loads the workspace stored under key. Values already in the store win
// over the defaults; a namespace seen for the first time gets the defaults.
func Open(store storage.Store, key string, opts ...Option) (*Workspace, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	initial := DefaultSettings(key)
	if o.initial != nil {
		o.initial(&initial)
	}

	w, err := load(store, key, initial, o.logger)
	if err != nil {
		return nil, err
	}

	for _, id := range w.settings.TabIDs {
		tab, err := newTab(store, key, id, nil)
		if err != nil {
			return nil, err
		}
		w.tabs = append(w.tabs, tab)
	}

	w.logger.Debug("workspace opened", zap.String("key", key), zap.Int("tabs", len(w.tabs)))
	return w, nil
}

// FromSnapshot rebuilds a workspace from an export
func FromSnapshot(store storage.Store, snap Snapshot, opts ...Option) (*Workspace, error) {
	if snap.Key == "" {
		return nil, ErrNoKey
	}
	if err := ValidateKey(snap.Key); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	initial := snap.Settings.clone()
	applyLimitDefaults(&initial)

	ids := make([]string, 0, len(snap.Tabs))
	for _, t := range snap.Tabs {
		ids = append(ids, t.ID)
	}
	initial.TabIDs = ids

	w, err := load(store, snap.Key, initial, o.logger)
	if err != nil {
		return nil, err
	}

	for _, settings := range snap.Tabs {
		settings := settings
		tab, err := newTab(store, snap.Key, settings.ID, &settings)
		if err != nil {
			return nil, err
		}
		w.tabs = append(w.tabs, tab)
	}

	w.logger.Debug("workspace restored from snapshot", zap.String("key", snap.Key), zap.Int("tabs", len(w.tabs)))
	return w, nil
}

func load(store storage.Store, key string, initial Settings, logger *zap.Logger) (*Workspace, error) {
	st, err := state.New(store, key, initial)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace %s: %w", key, err)
	}

	w := &Workspace{store: store, state: st, logger: logger}
	if err := st.Decode(&w.settings); err != nil {
		return nil, fmt.Errorf("failed to decode workspace %s: %w", key, err)
	}
	applyLimitDefaults(&w.settings)
	if w.settings.TabIDs == nil {
		w.settings.TabIDs = []string{}
	}

	return w, nil
}

func applyLimitDefaults(s *Settings) {
	if s.MaxTabHistory <= 0 {
		s.MaxTabHistory = DefaultMaxTabHistory
	}
	if s.MaxURLHistory <= 0 {
		s.MaxURLHistory = DefaultMaxURLHistory
	}
}

// Key returns the workspace namespace
func (w *Workspace) Key() string {
	return w.state.Key()
}

// Settings returns a copy of the persisted workspace fields
func (w *Workspace) Settings() Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings.clone()
}

// Tabs returns the live tabs in order
func (w *Workspace) Tabs() []*Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*Tab(nil), w.tabs...)
}

// Tab returns the live tab with id
func (w *Workspace) Tab(id string) (*Tab, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx := w.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	return w.tabs[idx], true
}

// ActiveID returns the id of the active tab
func (w *Workspace) ActiveID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings.ActiveID
}

// ActiveTab returns the active tab, falling back to the first one
func (w *Workspace) ActiveTab() *Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	if idx := w.indexOf(w.settings.ActiveID); idx >= 0 {
		return w.tabs[idx]
	}
	if len(w.tabs) > 0 {
		return w.tabs[0]
	}
	return nil
}

// SetActive marks the tab with id as active
func (w *Workspace) SetActive(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrTabNotFound, id)
	}
	return w.setActive(id)
}

// EnsureTab adds a tab when the workspace has none and returns the active tab
func (w *Workspace) EnsureTab() (*Tab, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.tabs) == 0 {
		return w.addTab()
	}
	if idx := w.indexOf(w.settings.ActiveID); idx >= 0 {
		return w.tabs[idx], nil
	}
	first := w.tabs[0]
	return first, w.setActive(first.ID())
}

// AddTab appends a new tab seeded from the workspace defaults and activates it
func (w *Workspace) AddTab() (*Tab, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addTab()
}

func (w *Workspace) addTab() (*Tab, error) {
	if w.state.Frozen() {
		return nil, ErrFrozen
	}

	id, err := w.nextID()
	if err != nil {
		return nil, err
	}

	tab, err := newTab(w.store, w.Key(), id, &TabSettings{
		Name:    "Query " + strconv.Itoa(len(w.settings.TabIDs)+1),
		URL:     w.settings.DefaultURL,
		Proxy:   w.settings.DefaultProxy,
		Headers: w.settings.DefaultHeaders,
	})
	if err != nil {
		return nil, err
	}

	w.tabs = append(w.tabs, tab)
	tabIDs := append(append([]string{}, w.settings.TabIDs...), id)
	if err := w.state.SetMany(map[string]any{"tabIds": tabIDs, "activeId": id}); err != nil {
		return nil, err
	}
	w.settings.TabIDs = tabIDs
	w.settings.ActiveID = id

	w.logger.Debug("tab added", zap.String("workspace", w.Key()), zap.String("tab", id))
	return tab, nil
}

// RemoveTab closes the tab with id. Its snapshot goes to the front of the
// closed-tab history and its storage is erased. When the last tab is closed a
// fresh one is created and returned; otherwise the returned tab is nil.
func (w *Workspace) RemoveTab(id string) (*Tab, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Frozen() {
		return nil, ErrFrozen
	}

	idx := w.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrTabNotFound, id)
	}

	tab := w.tabs[idx]
	if err := w.rememberTab(tab.Settings()); err != nil {
		return nil, err
	}
	if err := tab.cleanup(); err != nil {
		return nil, fmt.Errorf("failed to erase tab %s: %w", id, err)
	}

	w.tabs = append(w.tabs[:idx:idx], w.tabs[idx+1:]...)
	tabIDs := append(append([]string{}, w.settings.TabIDs[:idx]...), w.settings.TabIDs[idx+1:]...)
	if err := w.state.Set("tabIds", tabIDs); err != nil {
		return nil, err
	}
	w.settings.TabIDs = tabIDs

	w.logger.Debug("tab closed", zap.String("workspace", w.Key()), zap.String("tab", id))

	if len(w.tabs) == 0 {
		return w.addTab()
	}

	if w.settings.ActiveID == id {
		activeIdx := idx
		if idx == len(w.tabs) {
			activeIdx = idx - 1
		}
		if err := w.setActive(w.tabs[activeIdx].ID()); err != nil {
			return nil, err
		}
	}

	return nil, nil
}

// ReopenTab restores the most recently closed tab with its original id.
// It returns nil when the closed-tab history is empty.
func (w *Workspace) ReopenTab() (*Tab, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Frozen() {
		return nil, ErrFrozen
	}
	if len(w.settings.ClosedTabs) == 0 {
		return nil, nil
	}

	settings := w.settings.ClosedTabs[0]
	rest := append([]TabSettings{}, w.settings.ClosedTabs[1:]...)

	tab, err := newTab(w.store, w.Key(), settings.ID, &settings)
	if err != nil {
		return nil, err
	}

	w.tabs = append(w.tabs, tab)
	tabIDs := append(append([]string{}, w.settings.TabIDs...), settings.ID)
	if err := w.state.SetMany(map[string]any{"tabIds": tabIDs, "activeId": settings.ID}); err != nil {
		return nil, err
	}
	w.settings.TabIDs = tabIDs
	w.settings.ActiveID = settings.ID

	if err := w.state.Set("closedTabs", rest); err != nil {
		return nil, err
	}
	w.settings.ClosedTabs = rest

	w.logger.Debug("tab reopened", zap.String("workspace", w.Key()), zap.String("tab", settings.ID))
	return tab, nil
}

// ClosedTabs returns the closed-tab history, most recent first
func (w *Workspace) ClosedTabs() []TabSettings {
	return w.Settings().ClosedTabs
}

// RememberURL records url at the front of the used-URL history.
// It reports false when url was already known.
func (w *Workspace) RememberURL(url string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, used := range w.settings.UsedURLs {
		if used == url {
			return false, nil
		}
	}

	urls := pushFront(w.settings.UsedURLs, url, w.settings.MaxURLHistory)
	if err := w.state.Set("usedUrls", urls); err != nil {
		return false, err
	}
	w.settings.UsedURLs = urls
	return true, nil
}

// RememberHeader records header at the front of the recent-header history.
// Headers are equal when both name and value are equal.
func (w *Workspace) RememberHeader(header Header) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, recent := range w.settings.RecentHeaders {
		if recent == header {
			return false, nil
		}
	}

	headers := pushFront(w.settings.RecentHeaders, header, MaxRecentHeaders)
	if err := w.state.Set("recentHeaders", headers); err != nil {
		return false, err
	}
	w.settings.RecentHeaders = headers
	return true, nil
}

// UsedURLs returns the used-URL history, most recent first
func (w *Workspace) UsedURLs() []string {
	return w.Settings().UsedURLs
}

// RecentHeaders returns the recent-header history, most recent first
func (w *Workspace) RecentHeaders() []Header {
	return w.Settings().RecentHeaders
}

// SetDefaults changes the connection settings used to seed new tabs
func (w *Workspace) SetDefaults(url string, proxy bool, headers []Header) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	headers = cloneHeaders(headers)
	if err := w.state.SetMany(map[string]any{
		"defaultUrl":     url,
		"defaultProxy":   proxy,
		"defaultHeaders": headers,
	}); err != nil {
		return err
	}
	w.settings.DefaultURL = url
	w.settings.DefaultProxy = proxy
	w.settings.DefaultHeaders = headers
	return nil
}

// SetHistoryLimits changes the closed-tab and used-URL caps.
// Existing histories are trimmed to fit.
func (w *Workspace) SetHistoryLimits(maxTabs, maxURLs int) error {
	if maxTabs <= 0 || maxURLs <= 0 {
		return fmt.Errorf("history limits must be positive, got %d and %d", maxTabs, maxURLs)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	closed := w.settings.ClosedTabs
	if len(closed) > maxTabs {
		closed = closed[:maxTabs]
	}
	urls := w.settings.UsedURLs
	if len(urls) > maxURLs {
		urls = urls[:maxURLs]
	}

	if err := w.state.SetMany(map[string]any{
		"maxTabHistory": maxTabs,
		"maxUrlHistory": maxURLs,
		"closedTabs":    closed,
		"usedUrls":      urls,
	}); err != nil {
		return err
	}
	w.settings.MaxTabHistory = maxTabs
	w.settings.MaxURLHistory = maxURLs
	w.settings.ClosedTabs = closed
	w.settings.UsedURLs = urls
	return nil
}

// Export returns the workspace settings plus the state of every live tab
func (w *Workspace) Export() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{Settings: w.settings.clone()}
	snap.Tabs = make([]TabSettings, 0, len(w.tabs))
	for _, tab := range w.tabs {
		snap.Tabs = append(snap.Tabs, tab.Settings())
	}
	return snap
}

// Cleanup erases every tab and then the workspace itself from the store.
// The workspace is unusable afterwards: further writes are dropped.
func (w *Workspace) Cleanup() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, tab := range w.tabs {
		if err := tab.cleanup(); err != nil {
			return fmt.Errorf("failed to erase tab %s: %w", tab.ID(), err)
		}
	}
	if err := w.state.Cleanup(); err != nil {
		return fmt.Errorf("failed to erase workspace %s: %w", w.Key(), err)
	}

	w.logger.Debug("workspace erased", zap.String("key", w.Key()))
	return nil
}

// Frozen reports whether Cleanup has been called
func (w *Workspace) Frozen() bool {
	return w.state.Frozen()
}

func (w *Workspace) nextID() (string, error) {
	next := w.settings.LastID + 1
	if err := w.state.Set("lastId", next); err != nil {
		return "", err
	}
	w.settings.LastID = next
	return strconv.Itoa(next), nil
}

func (w *Workspace) rememberTab(settings TabSettings) error {
	closed := pushFront(w.settings.ClosedTabs, settings, w.settings.MaxTabHistory)
	if err := w.state.Set("closedTabs", closed); err != nil {
		return err
	}
	w.settings.ClosedTabs = closed
	return nil
}

func (w *Workspace) setActive(id string) error {
	if err := w.state.Set("activeId", id); err != nil {
		return err
	}
	w.settings.ActiveID = id
	return nil
}

func (w *Workspace) indexOf(id string) int {
	for i, tab := range w.tabs {
		if tab.ID() == id {
			return i
		}
	}
	return -1
}

// pushFront inserts item at the front, dropping the oldest (last) entries so
// the result holds at most limit items
func pushFront[T any](list []T, item T, limit int) []T {
	if limit <= 0 {
		limit = 1
	}
	if len(list) >= limit {
		list = list[:limit-1]
	}
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	return append(out, list...)
}
