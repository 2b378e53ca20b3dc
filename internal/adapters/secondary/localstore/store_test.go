package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-insurance-mlops/internal/core/domain"
)

func TestStore_PutGetExists(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := New(root, "models-bucket")
	require.NoError(t, err)

	key := "models/20260301T120000Z/model.json.gz"
	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrModelNotFound)

	require.NoError(t, store.Put(ctx, key, []byte("v1"), "application/gzip"))
	assert.FileExists(t, filepath.Join(root, "models-bucket", "models", "20260301T120000Z", "model.json.gz"))

	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Put(ctx, key, []byte("v2"), "application/gzip"))
	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	entries, err := os.ReadDir(filepath.Join(root, "models-bucket", "models", "20260301T120000Z"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.Equal(t, "models-bucket", store.Bucket())
	assert.Contains(t, store.URI(key), "file://")
}

func TestStore_InvalidKey(t *testing.T) {
	store, err := New(t.TempDir(), "b")
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../escape"} {
		assert.Error(t, store.Put(context.Background(), key, []byte("x"), ""), key)
	}
}
