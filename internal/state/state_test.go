package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studiowebux/gqlws/internal/storage"
)

type sample struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func TestNew_WritesDefaultsWithEnvelope(t *testing.T) {
	store := storage.NewMemoryStore()

	s, err := New(store, "ws", sample{Name: "a", Count: 1})
	require.NoError(t, err)

	value, ok, err := store.Get("ws-name")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"data":"a"}`, value)

	var count int
	present, err := s.Get("count", &count)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, 1, count)
}

func TestNew_RestoredOverridesDefaults(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set("ws-count", `{"data":7}`))
	require.NoError(t, store.Set("ws-extra", `{"data":true}`))
	require.NoError(t, store.Set("wsx-count", `{"data":99}`))

	s, err := New(store, "ws", sample{Name: "a", Count: 1})
	require.NoError(t, err)

	var got sample
	require.NoError(t, s.Decode(&got))
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, 7, got.Count)

	var extra bool
	present, err := s.Get("extra", &extra)
	require.NoError(t, err)
	assert.True(t, present)
	assert.True(t, extra)

	// Restored value is written back as well
	value, _, _ := store.Get("ws-count")
	assert.JSONEq(t, `{"data":7}`, value)
}

func TestNew_SkipsCorruptEntries(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set("ws-count", "not json"))

	s, err := New(store, "ws", sample{Count: 3})
	require.NoError(t, err)

	var count int
	_, err = s.Get("count", &count)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNew_RejectsNonObject(t *testing.T) {
	_, err := New(storage.NewMemoryStore(), "ws", []int{1, 2})
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestSet_UpdatesMirrorAndStore(t *testing.T) {
	store := storage.NewMemoryStore()
	s, err := New(store, "ws", nil)
	require.NoError(t, err)

	require.NoError(t, s.SetMany(map[string]any{
		"tags":  []string{"x", "y"},
		"count": 2,
	}))

	var tags []string
	_, err = s.Get("tags", &tags)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, tags)

	value, ok, _ := store.Get("ws-tags")
	assert.True(t, ok)
	assert.JSONEq(t, `{"data":["x","y"]}`, value)
}

func TestCleanup_ErasesNamespaceOnly(t *testing.T) {
	store := storage.NewMemoryStore()
	s, err := New(store, "ws", sample{Name: "a"})
	require.NoError(t, err)
	require.NoError(t, store.Set("other-name", `{"data":"b"}`))

	require.NoError(t, s.Cleanup())

	keys, err := storage.KeysWithPrefix(store, "ws-")
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, ok, _ := store.Get("other-name")
	assert.True(t, ok)
	assert.True(t, s.Frozen())
}

func TestCleanup_FreezesWrites(t *testing.T) {
	store := storage.NewMemoryStore()
	s, err := New(store, "ws", sample{Name: "a"})
	require.NoError(t, err)
	require.NoError(t, s.Cleanup())

	before := store.Dump()

	require.NoError(t, s.Set("name", "resurrected"))
	require.NoError(t, s.SetMany(map[string]any{"count": 5}))

	assert.Equal(t, before, store.Dump())

	var name string
	_, err = s.Get("name", &name)
	require.NoError(t, err)
	assert.Equal(t, "a", name, "mirror must not change after cleanup")
}

func TestNamespacesSharingAPrefix(t *testing.T) {
	store := storage.NewMemoryStore()
	dev, err := New(store, "dev", sample{Name: "dev", Tags: []string{"a"}})
	require.NoError(t, err)
	other, err := New(store, "dev-2", sample{Name: "dev-2", Count: 2})
	require.NoError(t, err)
	require.NoError(t, store.Set("dev-2.tab1-name", `{"data":"tab"}`))

	reopened, err := New(store, "dev", nil)
	require.NoError(t, err)
	assert.Len(t, reopened.Fields(), 3)

	var name string
	_, err = reopened.Get("name", &name)
	require.NoError(t, err)
	assert.Equal(t, "dev", name)

	var count int
	_, err = reopened.Get("count", &count)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, dev.Cleanup())

	keys, err := storage.KeysWithPrefix(store, "dev-2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dev-2-name", "dev-2-count", "dev-2-tags", "dev-2.tab1-name"}, keys)
	assert.False(t, other.Frozen())
}

func TestSet_RejectsFieldWithSeparator(t *testing.T) {
	s, err := New(storage.NewMemoryStore(), "ws", nil)
	require.NoError(t, err)

	err = s.Set("a-b", 1)
	assert.ErrorIs(t, err, ErrInvalidField)
	err = s.Set("", 1)
	assert.ErrorIs(t, err, ErrInvalidField)
}
