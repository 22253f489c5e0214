package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "token"))

	require.NoError(t, store.Save("tok-abc"))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "token"))

	token, err := store.Load()

	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileStoreClear(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, store.Save("tok-abc"))

	require.NoError(t, store.Clear())
	// Clearing twice is fine.
	require.NoError(t, store.Clear())

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestHolderRestoresPersistedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, NewFileStore(path).Save("tok-abc"))

	holder := NewHolder(NewFileStore(path))
	require.NoError(t, holder.Restore())

	assert.Equal(t, "tok-abc", holder.Token())
}

func TestHolderSetAndClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	holder := NewHolder(NewFileStore(path))

	require.NoError(t, holder.Set("tok-abc"))
	assert.Equal(t, "tok-abc", holder.Token())

	require.NoError(t, holder.Clear())
	assert.Empty(t, holder.Token())

	// The cleared session does not come back after a restart.
	again := NewHolder(NewFileStore(path))
	require.NoError(t, again.Restore())
	assert.Empty(t, again.Token())
}
