package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/nullvoyager/voyager/pkg/adapters/memory"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	state := domain.NewState()
	require.NoError(t, store.Save(ctx, "s1", state))

	// Mutating the saved value must not leak into the store
	state.Mode = domain.ModeBooking
	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeInspiration, loaded.Mode)
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(memory.WithTTL(50 * time.Millisecond))

	require.NoError(t, store.Save(ctx, "short-lived", domain.NewState()))
	time.Sleep(100 * time.Millisecond)

	_, err := store.Load(ctx, "short-lived")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, sessions, "short-lived")
}
