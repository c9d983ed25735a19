package blob

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	store, err := NewLocalStore(&Config{
		Dir:     t.TempDir(),
		BaseURL: "/uploads",
	})
	require.NoError(t, err)
	return store
}

func TestLocalStore_SaveAndExists(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Save(bytes.NewReader([]byte("image bytes")), ".png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "todos/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.True(t, store.Exists(key))

	content, err := os.ReadFile(filepath.Join(store.Dir(), filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, []byte("image bytes"), content)
}

func TestLocalStore_SaveNormalizesExtension(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Save(bytes.NewReader([]byte("x")), "jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".jpg"), "Missing dot gets prepended")

	key, err = store.Save(bytes.NewReader([]byte("x")), "")
	require.NoError(t, err)
	assert.NotContains(t, filepath.Base(key), ".")
}

func TestLocalStore_URL(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, "/uploads/todos/abc.png", store.URL("todos/abc.png"))

	trailing, err := NewLocalStore(&Config{Dir: t.TempDir(), BaseURL: "/uploads/"})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/todos/abc.png", trailing.URL("todos/abc.png"), "Trailing slash is trimmed")
}

func TestLocalStore_Delete(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Save(bytes.NewReader([]byte("gone soon")), ".png")
	require.NoError(t, err)

	require.NoError(t, store.Delete(key))
	assert.False(t, store.Exists(key))

	err = store.Delete(key)
	assert.ErrorIs(t, err, ErrBlobNotFound)
}
