package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	t.Run("roundtrip", func(t *testing.T) {
		store := NewFileStorage(path)
		require.NoError(t, store.Set("auth_token", "abc"))

		v, ok := store.Get("auth_token")
		assert.True(t, ok)
		assert.Equal(t, "abc", v)
	})

	t.Run("persists across instances", func(t *testing.T) {
		store := NewFileStorage(path)
		v, ok := store.Get("auth_token")
		assert.True(t, ok)
		assert.Equal(t, "abc", v)
	})

	t.Run("delete", func(t *testing.T) {
		store := NewFileStorage(path)
		require.NoError(t, store.Delete("auth_token"))

		_, ok := store.Get("auth_token")
		assert.False(t, ok)
	})

	t.Run("missing file reads as empty", func(t *testing.T) {
		store := NewFileStorage(filepath.Join(t.TempDir(), "nope.json"))
		_, ok := store.Get("anything")
		assert.False(t, ok)
	})
}
