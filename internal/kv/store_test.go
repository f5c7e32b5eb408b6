package kv

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	store := New(t.TempDir())

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, store.Set("groups:mine", payload{Name: "ajo circle", Count: 4}))

	var got payload
	found, err := store.Get("groups:mine", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ajo circle", got.Name)
	assert.Equal(t, 4, got.Count)
}

func TestGetMissing(t *testing.T) {
	store := New(t.TempDir())

	var got map[string]any
	found, err := store.Get("nope", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDelete(t *testing.T) {
	store := New(t.TempDir())

	require.NoError(t, store.Set("k", "v"))
	require.NoError(t, store.Delete("k"))

	var got string
	found, err := store.Get("k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is not an error.
	require.NoError(t, store.Delete("k"))
}

func TestKeysAndClearByPrefix(t *testing.T) {
	store := New(t.TempDir())

	require.NoError(t, store.Set("@cache:GET:/groups", 1))
	require.NoError(t, store.Set("@cache:GET:/payments", 2))
	require.NoError(t, store.Set("session:userId", "u1"))

	keys, err := store.Keys("@cache:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"@cache:GET:/groups", "@cache:GET:/payments"}, keys)

	require.NoError(t, store.Clear("@cache:"))

	keys, err = store.Keys("@cache:")
	require.NoError(t, err)
	assert.Empty(t, keys)

	// Unrelated keys survive.
	var user string
	found, err := store.Get("session:userId", &user)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "u1", user)
}

func TestCorruptedEntryTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	require.NoError(t, store.Set("k", "v"))
	require.NoError(t, os.WriteFile(store.path("k"), []byte("{not json"), 0600))

	var got string
	found, err := store.Get("k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFilePermissions(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.path("k"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
