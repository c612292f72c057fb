package ports

import (
	"context"
	"testing"
	"time"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		budget := 1200.0
		state := domain.NewState()
		state.Mode = domain.ModePlanning
		state.Preferences.Travelers = 2
		state.Preferences.OriginCity = "New York"
		state.Preferences.DestinationCity = "Lisbon"
		state.Preferences.Dates = &domain.DateRange{Start: "2025-06-01", End: "2025-06-10"}
		state.Preferences.Budget = &budget
		state.Cart.SelectedFlightID = "mock-2"

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state, loaded, "Round trip should preserve every field")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		state := domain.NewState()
		state.Mode = domain.ModeBooking
		require.NoError(t, store.Save(ctx, sessionID, state))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.ModeBooking, loaded.Mode)
		assert.Nil(t, loaded.Preferences.Dates)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewState())
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewState())
		_ = store.Save(ctx, id2, domain.NewState())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
