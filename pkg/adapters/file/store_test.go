package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/file"
	contract "github.com/aretw0/parley/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	contract.RunArtifactStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_WritesMarkdownFile(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)

	ref, err := store.Save(context.Background(), "daily", "# Daily AI News\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "daily_summary.md"), ref.Location)

	data, err := os.ReadFile(ref.Location)
	require.NoError(t, err)
	assert.Equal(t, "# Daily AI News\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	store := file.New(t.TempDir())
	for _, key := range []string{"", "../etc", "a/b", ".."} {
		_, err := store.Save(context.Background(), key, "x")
		assert.Error(t, err, "key %q", key)
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
