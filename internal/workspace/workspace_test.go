package workspace

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studiowebux/gqlws/internal/storage"
)

func openTest(t *testing.T, opts ...Option) (*Workspace, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	w, err := Open(store, "graphiql", opts...)
	require.NoError(t, err)
	return w, store
}

func tabIDs(w *Workspace) []string {
	var ids []string
	for _, tab := range w.Tabs() {
		ids = append(ids, tab.ID())
	}
	return ids
}

func TestOpen_FreshNamespaceDefaults(t *testing.T) {
	w, store := openTest(t)

	s := w.Settings()
	assert.Equal(t, "graphiql", s.Key)
	assert.Equal(t, 0, s.LastID)
	assert.Empty(t, s.TabIDs)
	assert.Equal(t, DefaultMaxTabHistory, s.MaxTabHistory)
	assert.Equal(t, DefaultMaxURLHistory, s.MaxURLHistory)
	assert.Equal(t, "http://try.sangria-graphql.org/graphql", s.DefaultURL)

	value, ok, err := store.Get("graphiql-maxUrlHistory")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"data":20}`, value)
}

func TestAddTab_AssignsNextIDAndAppends(t *testing.T) {
	w, _ := openTest(t)
	require.NoError(t, w.SetDefaults("http://api.test/graphql", true, []Header{{Name: "X-Token", Value: "t"}}))

	for i := 0; i < 3; i++ {
		before := w.Settings()

		tab, err := w.AddTab()
		require.NoError(t, err)

		after := w.Settings()
		assert.Equal(t, strconv.Itoa(before.LastID+1), tab.ID())
		assert.Len(t, after.TabIDs, len(before.TabIDs)+1)
		assert.Equal(t, tab.ID(), after.TabIDs[len(after.TabIDs)-1])
		assert.Equal(t, tab.ID(), after.ActiveID)
	}

	settings := w.Tabs()[2].Settings()
	assert.Equal(t, "Query 3", settings.Name)
	assert.Equal(t, "http://api.test/graphql", settings.URL)
	assert.True(t, settings.Proxy)
	assert.Equal(t, []Header{{Name: "X-Token", Value: "t"}}, settings.Headers)
}

func TestAddTab_HeadersAreCopied(t *testing.T) {
	w, _ := openTest(t)
	require.NoError(t, w.SetDefaults("http://api.test", false, []Header{{Name: "A", Value: "1"}}))

	tab, err := w.AddTab()
	require.NoError(t, err)
	require.NoError(t, tab.SetHeaders([]Header{{Name: "B", Value: "2"}}))

	assert.Equal(t, []Header{{Name: "A", Value: "1"}}, w.Settings().DefaultHeaders)
}

func TestOpen_RestoresTabsFromStore(t *testing.T) {
	w, store := openTest(t)

	first, err := w.AddTab()
	require.NoError(t, err)
	require.NoError(t, first.SetQuery("{ hero { name } }"))
	_, err = w.AddTab()
	require.NoError(t, err)

	reopened, err := Open(store, "graphiql")
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, tabIDs(reopened))
	assert.Equal(t, "2", reopened.ActiveID())
	assert.Equal(t, 2, reopened.Settings().LastID)

	tab, ok := reopened.Tab("1")
	require.True(t, ok)
	assert.Equal(t, "{ hero { name } }", tab.Settings().Query)
}

func TestRemoveTab_LastTabSynthesizesReplacement(t *testing.T) {
	w, store := openTest(t)

	t1, err := w.AddTab()
	require.NoError(t, err)
	require.NoError(t, t1.SetURL("http://one.test"))

	replacement, err := w.RemoveTab(t1.ID())
	require.NoError(t, err)
	require.NotNil(t, replacement)

	assert.NotEqual(t, t1.ID(), replacement.ID())
	assert.Equal(t, []string{replacement.ID()}, tabIDs(w))
	assert.Equal(t, replacement.ID(), w.ActiveID())

	closed := w.ClosedTabs()
	require.NotEmpty(t, closed)
	assert.Equal(t, t1.ID(), closed[0].ID)
	assert.Equal(t, "http://one.test", closed[0].URL)

	// The closed tab's durable keys are gone
	keys, err := storage.KeysWithPrefix(store, tabNamespace("graphiql", t1.ID())+"-")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRemoveTab_ThenReopenKeepsOriginalID(t *testing.T) {
	w, _ := openTest(t)

	t1, err := w.AddTab()
	require.NoError(t, err)
	require.NoError(t, t1.SetName("Heroes"))

	t2, err := w.RemoveTab(t1.ID())
	require.NoError(t, err)
	require.NotNil(t, t2)

	reopened, err := w.ReopenTab()
	require.NoError(t, err)
	require.NotNil(t, reopened)

	assert.Equal(t, []string{t2.ID(), t1.ID()}, tabIDs(w))
	assert.Equal(t, t1.ID(), reopened.ID())
	assert.Equal(t, "Heroes", reopened.Name())
	assert.Equal(t, t1.ID(), w.ActiveID())
	assert.Empty(t, w.ClosedTabs())
}

func TestRemoveTab_ActiveFallsToSameIndex(t *testing.T) {
	w, _ := openTest(t)
	for i := 0; i < 3; i++ {
		_, err := w.AddTab()
		require.NoError(t, err)
	}
	require.NoError(t, w.SetActive("2"))

	newTab, err := w.RemoveTab("2")
	require.NoError(t, err)
	assert.Nil(t, newTab)

	assert.Equal(t, []string{"1", "3"}, tabIDs(w))
	assert.Equal(t, []string{"1", "3"}, w.Settings().TabIDs)
	assert.Equal(t, "3", w.ActiveID())
}

func TestRemoveTab_ActiveLastFallsToNewLast(t *testing.T) {
	w, _ := openTest(t)
	for i := 0; i < 3; i++ {
		_, err := w.AddTab()
		require.NoError(t, err)
	}

	_, err := w.RemoveTab("3")
	require.NoError(t, err)
	assert.Equal(t, "2", w.ActiveID())
}

func TestRemoveTab_InactiveKeepsActive(t *testing.T) {
	w, _ := openTest(t)
	for i := 0; i < 3; i++ {
		_, err := w.AddTab()
		require.NoError(t, err)
	}

	_, err := w.RemoveTab("1")
	require.NoError(t, err)
	assert.Equal(t, "3", w.ActiveID())
}

func TestRemoveTab_Unknown(t *testing.T) {
	w, _ := openTest(t)
	_, err := w.AddTab()
	require.NoError(t, err)

	_, err = w.RemoveTab("42")
	assert.ErrorIs(t, err, ErrTabNotFound)
	assert.Equal(t, []string{"1"}, tabIDs(w))
	assert.Empty(t, w.ClosedTabs())
}

func TestReopenTab_EmptyHistory(t *testing.T) {
	w, _ := openTest(t)

	tab, err := w.ReopenTab()
	require.NoError(t, err)
	assert.Nil(t, tab)
}

func TestClosedTabs_BoundedEvictsOldest(t *testing.T) {
	w, _ := openTest(t, WithHistoryLimits(2, 20))
	for i := 0; i < 4; i++ {
		_, err := w.AddTab()
		require.NoError(t, err)
	}

	for _, id := range []string{"1", "2", "3"} {
		_, err := w.RemoveTab(id)
		require.NoError(t, err)
	}

	closed := w.ClosedTabs()
	require.Len(t, closed, 2)
	assert.Equal(t, "3", closed[0].ID)
	assert.Equal(t, "2", closed[1].ID)
}

func TestRememberURL_Scenario(t *testing.T) {
	w, _ := openTest(t, WithHistoryLimits(20, 2))

	for _, url := range []string{"a", "b", "c"} {
		added, err := w.RememberURL(url)
		require.NoError(t, err)
		assert.True(t, added)
	}

	assert.Equal(t, []string{"c", "b"}, w.UsedURLs())
}

func TestRememberURL_Duplicate(t *testing.T) {
	w, _ := openTest(t)

	_, err := w.RememberURL("a")
	require.NoError(t, err)
	_, err = w.RememberURL("b")
	require.NoError(t, err)

	added, err := w.RememberURL("a")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"b", "a"}, w.UsedURLs())
}

func TestRememberHeader_StructuralEquality(t *testing.T) {
	w, _ := openTest(t)

	added, err := w.RememberHeader(Header{Name: "ab", Value: "c"})
	require.NoError(t, err)
	assert.True(t, added)

	// Same concatenation, different pair
	added, err = w.RememberHeader(Header{Name: "a", Value: "bc"})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = w.RememberHeader(Header{Name: "ab", Value: "c"})
	require.NoError(t, err)
	assert.False(t, added)

	assert.Len(t, w.RecentHeaders(), 2)
}

func TestRememberHeader_Bounded(t *testing.T) {
	w, _ := openTest(t)

	for i := 0; i < MaxRecentHeaders+5; i++ {
		_, err := w.RememberHeader(Header{Name: "X-N", Value: strconv.Itoa(i)})
		require.NoError(t, err)
	}

	headers := w.RecentHeaders()
	require.Len(t, headers, MaxRecentHeaders)
	assert.Equal(t, strconv.Itoa(MaxRecentHeaders+4), headers[0].Value)
	assert.Equal(t, "5", headers[len(headers)-1].Value)
}

func TestSetHistoryLimits_Trims(t *testing.T) {
	w, _ := openTest(t)
	for _, url := range []string{"a", "b", "c"} {
		_, err := w.RememberURL(url)
		require.NoError(t, err)
	}

	require.NoError(t, w.SetHistoryLimits(5, 1))
	assert.Equal(t, []string{"c"}, w.UsedURLs())

	assert.Error(t, w.SetHistoryLimits(0, 1))
}

func TestExport_RoundTrip(t *testing.T) {
	w, _ := openTest(t)
	for i := 0; i < 3; i++ {
		tab, err := w.AddTab()
		require.NoError(t, err)
		require.NoError(t, tab.SetQuery("query Q"+tab.ID()+" { __typename }"))
	}
	_, err := w.RemoveTab("2")
	require.NoError(t, err)
	_, err = w.RememberURL("http://a.test")
	require.NoError(t, err)

	snap := w.Export()

	restored, err := FromSnapshot(storage.NewMemoryStore(), snap)
	require.NoError(t, err)

	assert.Equal(t, tabIDs(w), tabIDs(restored))
	assert.Equal(t, snap, restored.Export())

	// Idempotent
	again, err := FromSnapshot(storage.NewMemoryStore(), restored.Export())
	require.NoError(t, err)
	assert.Equal(t, snap, again.Export())
}

func TestFromSnapshot_RequiresKey(t *testing.T) {
	_, err := FromSnapshot(storage.NewMemoryStore(), Snapshot{})
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestCleanup_ErasesEverythingAndFreezes(t *testing.T) {
	w, store := openTest(t)
	tab, err := w.AddTab()
	require.NoError(t, err)
	second, err := w.AddTab()
	require.NoError(t, err)
	_, err = w.AddTab()
	require.NoError(t, err)
	_, err = w.RemoveTab(second.ID())
	require.NoError(t, err)

	require.NoError(t, w.Cleanup())
	assert.Equal(t, 0, store.Len())
	assert.True(t, w.Frozen())
	assert.True(t, tab.Frozen())

	// Stale references cannot resurrect the session
	require.NoError(t, tab.SetName("ghost"))
	_, err = w.RememberURL("http://ghost.test")
	require.NoError(t, err)

	_, err = w.AddTab()
	assert.ErrorIs(t, err, ErrFrozen)
	_, err = w.ReopenTab()
	assert.ErrorIs(t, err, ErrFrozen)
	_, err = w.RemoveTab(tab.ID())
	assert.ErrorIs(t, err, ErrFrozen)
	assert.Equal(t, 0, store.Len())

	fresh, err := Open(store, "graphiql")
	require.NoError(t, err)
	added, err := fresh.AddTab()
	require.NoError(t, err)
	assert.Equal(t, "Query 1", added.Name())
}

func TestEnsureTab(t *testing.T) {
	w, _ := openTest(t)

	tab, err := w.EnsureTab()
	require.NoError(t, err)
	assert.Equal(t, "1", tab.ID())

	again, err := w.EnsureTab()
	require.NoError(t, err)
	assert.Equal(t, tab.ID(), again.ID())
	assert.Len(t, w.Tabs(), 1)
}

func TestSetActive_Unknown(t *testing.T) {
	w, _ := openTest(t)
	assert.ErrorIs(t, w.SetActive("9"), ErrTabNotFound)
}

func TestWorkspaces_ShareStoreInIsolation(t *testing.T) {
	store := storage.NewMemoryStore()

	a, err := Open(store, "a")
	require.NoError(t, err)
	b, err := Open(store, "b")
	require.NoError(t, err)

	_, err = a.AddTab()
	require.NoError(t, err)
	require.NoError(t, b.Cleanup())

	reopened, err := Open(store, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, tabIDs(reopened))
}

func TestWorkspaces_SimilarKeysShareStore(t *testing.T) {
	store := storage.NewMemoryStore()

	dev, err := Open(store, "dev")
	require.NoError(t, err)
	dev2, err := Open(store, "dev2")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = dev2.AddTab()
		require.NoError(t, err)
	}
	before, err := storage.KeysWithPrefix(store, "dev2")
	require.NoError(t, err)

	_, err = dev.AddTab()
	require.NoError(t, err)
	require.NoError(t, dev.Cleanup())

	after, err := storage.KeysWithPrefix(store, "dev2")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	reopened, err := Open(store, "dev2")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, tabIDs(reopened))
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"graphiql", true},
		{"dev_2", true},
		{"", false},
		{"dev-2", false},
		{"dev.tab1", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidKey)
			}
		})
	}

	store := storage.NewMemoryStore()
	_, err := Open(store, "dev-2")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = FromSnapshot(store, Snapshot{Settings: Settings{Key: "dev.tab1"}})
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.Equal(t, 0, store.Len())
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		in      string
		want    Header
		wantErr bool
	}{
		{"X-Token: abc", Header{Name: "X-Token", Value: "abc"}, false},
		{"X-Url: http://a:1", Header{Name: "X-Url", Value: "http://a:1"}, false},
		{"X-Empty:", Header{Name: "X-Empty"}, false},
		{": value", Header{}, true},
		{"nocolon", Header{}, true},
	}

	for _, tt := range tests {
		got, err := ParseHeader(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
