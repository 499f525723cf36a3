package blob

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutGet(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	id := uuid.NewString()
	require.NoError(t, store.Put(id, []byte("audio-bytes")))

	data, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), data)
}

func TestStoreGetMissingReturnsNil(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	data, err := store.Get(uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestStoreRejectsInvalidID(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get("../etc/passwd")
	assert.Error(t, err)

	assert.Error(t, store.Put("not-a-uuid", []byte("x")))
}

func TestStoreStagePromote(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	id := uuid.NewString()
	require.NoError(t, store.Stage(id, []byte("staged")))

	// Not visible until promoted.
	data, err := store.Get(id)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, store.Promote([]string{id}))

	data, err = store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("staged"), data)

	_, err = os.Stat(filepath.Join(dir, stagingDir, id))
	assert.True(t, os.IsNotExist(err))
}

func TestStoreDiscard(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	id := uuid.NewString()
	require.NoError(t, store.Stage(id, []byte("staged")))

	store.Discard([]string{id})

	_, err = os.Stat(filepath.Join(dir, stagingDir, id))
	assert.True(t, os.IsNotExist(err))

	// Discarding ids that were never staged is a no-op.
	store.Discard([]string{uuid.NewString(), "garbage"})
}
