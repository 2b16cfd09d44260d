package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunThreadStoreContract(t, store)
}

func TestMemoryStore_CopiesRecords(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	rec := domain.NewThreadRecord("t1", "graph")
	rec.Touch("original")
	require.NoError(t, store.Save(ctx, "t1", rec))

	// Mutating the caller's record must not reach the store.
	rec.LastPrompt = "mutated after save"

	loaded, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "original", loaded.LastPrompt)

	// Mutating a loaded record must not reach the store either.
	loaded.LastPrompt = "mutated after load"

	again, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.LastPrompt)
}
