package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	content := "%PDF-1.4 fake pdf body"
	key, size, mimeType, err := store.Save(context.Background(), "doc-1", "exhibit A.pdf", strings.NewReader(content))
	require.NoError(t, err)
	require.EqualValues(t, len(content), size)
	require.NotEmpty(t, mimeType)
	require.True(t, strings.HasPrefix(key, "doc-1/"))
	require.True(t, strings.HasSuffix(key, "_exhibit A.pdf"))

	rc, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, content, string(data))

	require.NoError(t, store.Delete(context.Background(), key))
	_, err = store.Open(context.Background(), key)
	require.Error(t, err)

	// Deleting a missing key is a no-op.
	require.NoError(t, store.Delete(context.Background(), key))
}

func TestLocalStoreDistinctKeysForSameName(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	first, _, _, err := store.Save(context.Background(), "doc-1", "scan.pdf", strings.NewReader("one"))
	require.NoError(t, err)
	second, _, _, err := store.Save(context.Background(), "doc-1", "scan.pdf", strings.NewReader("two"))
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "../etc/passwd")
	require.Error(t, err)

	_, err = store.Open(context.Background(), "/etc/passwd")
	require.Error(t, err)

	_, _, _, err = store.Save(context.Background(), "doc-1", "   ", strings.NewReader("x"))
	require.Error(t, err)
}
