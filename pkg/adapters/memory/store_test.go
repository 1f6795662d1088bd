package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/adapters/memory"
	contract "github.com/aretw0/parley/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	contract.RunArtifactStoreContract(t, store)
}

func TestMemoryStore_Clock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore(memory.WithClock(func() time.Time { return fixed }))

	ref, err := store.Save(context.Background(), "daily", "X")
	require.NoError(t, err)
	assert.Equal(t, fixed, ref.UpdatedAt)
	assert.Equal(t, "memory://daily", ref.Location)
}
