package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bnema/sage/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	testCases := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "empty", key: "", wantErr: "secret key is empty"},
		{name: "whitespace", key: "   ", wantErr: "secret key is empty"},
		{name: "padded", key: " sage/default/api_key", wantErr: "invalid secret key"},
		{name: "multi-line", key: "sage/a\nb", wantErr: "invalid secret key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Put(context.Background(), tc.key, "value")
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStorePutGetRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sage/default/api_key", "sk-default"))
	require.NoError(t, store.Put(ctx, "sage/remote/api_key", "sk-remote"))

	got, err := store.Get(ctx, "sage/default/api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-default", got)

	got, err = store.Get(ctx, "sage/remote/api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-remote", got)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
}

func TestStoreDeleteKeepsOtherKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "sage/a/api_key", "a"))
	require.NoError(t, store.Put(ctx, "sage/b/api_key", "b"))

	require.NoError(t, store.Delete(ctx, "sage/a/api_key"))
	require.NoError(t, store.Delete(ctx, "sage/a/api_key"))

	_, err := store.Get(ctx, "sage/a/api_key")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
	got, err := store.Get(ctx, "sage/b/api_key")
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestStoreGetWithoutFileIsNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewStore(t.TempDir()).Get(context.Background(), "sage/missing/api_key")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreReadsHandEditedFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	content := "version = 1\n\n[keys]\n\"sage/default/api_key\" = \"  sk-edited  \"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o600))

	got, err := NewStore(root).Get(context.Background(), "sage/default/api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-edited", got)
}

func TestStoreRejectsMalformedAndFutureFiles(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "malformed", content: "keys = [", wantErr: "decode key file"},
		{name: "future version", content: "version = 9\n", wantErr: "unsupported key file version 9"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(tc.content), 0o600))

			_, err := NewStore(root).Get(context.Background(), "sage/default/api_key")
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStoreConcurrentPutsKeepEveryKey(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	ctx := context.Background()
	aliases := []string{"a", "b", "c", "d", "e", "f"}

	var wg sync.WaitGroup
	for _, alias := range aliases {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Put(ctx, "sage/"+alias+"/api_key", "sk-"+alias))
		}()
	}
	wg.Wait()

	for _, alias := range aliases {
		got, err := store.Get(ctx, "sage/"+alias+"/api_key")
		require.NoError(t, err)
		assert.Equal(t, "sk-"+alias, got)
	}
}
