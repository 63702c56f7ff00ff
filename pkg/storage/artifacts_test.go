package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactStoreRoundtrip(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	rel := store.SignedPath("JS-100001", "nda-1.0-signed.pdf")
	saved, err := store.Save(rel, []byte("%PDF-1.4 test"))
	require.NoError(t, err)
	assert.Equal(t, rel, saved)
	assert.True(t, store.Exists(rel))

	data, err := store.Read(rel)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 test"), data)

	require.NoError(t, store.Delete(rel))
	assert.False(t, store.Exists(rel))

	// Deleting an absent file is not an error.
	require.NoError(t, store.Delete(rel))
}

func TestArtifactStoreCreatesTree(t *testing.T) {
	base := t.TempDir()
	_, err := NewArtifactStore(base)
	require.NoError(t, err)

	for _, sub := range []string{DirTemplates, DirGenerated, DirSigned, DirSignatures} {
		info, err := os.Stat(filepath.Join(base, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestArtifactStoreCleanupOlderThan(t *testing.T) {
	base := t.TempDir()
	store, err := NewArtifactStore(base)
	require.NoError(t, err)

	stale := store.GeneratedPath("JS-100001", "nda-1.0-preview.pdf")
	_, err = store.Save(stale, []byte("stale"))
	require.NoError(t, err)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(store.Path(stale), old, old))

	fresh := store.GeneratedPath("JS-100002", "nda-1.0-preview.pdf")
	_, err = store.Save(fresh, []byte("fresh"))
	require.NoError(t, err)

	deleted, err := store.CleanupOlderThan(30 * time.Minute)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)
	assert.False(t, store.Exists(stale))
	assert.True(t, store.Exists(fresh))
}
