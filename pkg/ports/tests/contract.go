package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunArtifactStoreContract runs a suite of tests to verify that an ArtifactStore
// implementation adheres to the interface contract.
func RunArtifactStoreContract(t *testing.T, store ports.ArtifactStore) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		key := "daily-" + suffix
		ref, err := store.Save(ctx, key, "# Daily\n\nX")
		require.NoError(t, err, "Save should not return error")
		assert.Equal(t, key, ref.Key)
		assert.NotEmpty(t, ref.Location)

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "# Daily\n\nX", loaded.Content)
		assert.Equal(t, key, loaded.Ref.Key)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		key := "weekly-" + suffix
		_, err := store.Save(ctx, key, "first")
		require.NoError(t, err)
		_, err = store.Save(ctx, key, "second")
		require.NoError(t, err)

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.Content)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "monthly-missing-"+suffix)
		assert.ErrorIs(t, err, domain.ErrArtifactNotFound)

		var notFound *domain.ArtifactNotFoundError
		assert.True(t, errors.As(err, &notFound))
	})

	t.Run("Delete", func(t *testing.T) {
		key := "delete-" + suffix
		_, err := store.Save(ctx, key, "gone soon")
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrArtifactNotFound, "Load after Delete should return ErrArtifactNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Deleting twice should be a no-op")
	})

	t.Run("List", func(t *testing.T) {
		k1 := "list1-" + suffix
		k2 := "list2-" + suffix
		_, _ = store.Save(ctx, k1, "a")
		_, _ = store.Save(ctx, k2, "b")
		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})

	t.Run("Concurrent Writers Different Keys", func(t *testing.T) {
		var wg sync.WaitGroup
		keys := []string{"cw-a-" + suffix, "cw-b-" + suffix, "cw-c-" + suffix}
		for _, k := range keys {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				_, err := store.Save(ctx, key, "content for "+key)
				assert.NoError(t, err)
			}(k)
		}
		wg.Wait()

		for _, k := range keys {
			loaded, err := store.Load(ctx, k)
			require.NoError(t, err)
			assert.Equal(t, "content for "+k, loaded.Content)
			_ = store.Delete(ctx, k)
		}
	})
}
