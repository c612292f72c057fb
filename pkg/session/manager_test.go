package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nullvoyager/voyager/pkg/adapters/memory"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.VoyagerState
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, state *domain.VoyagerState) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.VoyagerState)
	}
	s.data[sessionID] = state.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.VoyagerState, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.data[sessionID]; ok {
		return state.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_LoadDefaultsOnMiss(t *testing.T) {
	manager := session.NewManager(memory.NewStore())

	state, err := manager.Load(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, domain.NewState(), state)

	// A read must not create a record
	ids, err := manager.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestManager_UpdateIsAdditive(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(memory.NewStore())
	id := "additive"

	_, err := manager.Update(ctx, id, domain.StatePatch{Preferences: &domain.PreferencesPatch{
		OriginCity: ptr("Paris"),
	}})
	require.NoError(t, err)

	_, err = manager.TransitionMode(ctx, id, domain.ModePlanning)
	require.NoError(t, err)

	state, err := manager.Update(ctx, id, domain.StatePatch{Preferences: &domain.PreferencesPatch{
		Budget: ptr(500.0),
	}})
	require.NoError(t, err)

	assert.Equal(t, domain.ModePlanning, state.Mode)
	assert.Equal(t, "Paris", state.Preferences.OriginCity)
	assert.Equal(t, 500.0, *state.Preferences.Budget)
	assert.Equal(t, 1, state.Preferences.Travelers)

	reloaded, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, state, reloaded)
}

func TestManager_UpdateRejectsInvalidPatch(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	_, err := manager.Update(context.Background(), "s", domain.StatePatch{
		Preferences: &domain.PreferencesPatch{Travelers: ptr(0)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPatch)
}

func TestManager_SerializesReadModifyWrite(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	concurrentWrites := 10

	// Each writer increments the traveler count; lost updates would show up as a lower total.
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, id, func(ctx context.Context, s *session.Session) error {
				n := s.State().Preferences.Travelers + 1
				_, err := s.Update(ctx, domain.StatePatch{Preferences: &domain.PreferencesPatch{Travelers: &n}})
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1+concurrentWrites, state.Preferences.Travelers)
}

func TestManager_ChangeListener(t *testing.T) {
	ctx := context.Background()
	var got []*domain.StateDiff
	manager := session.NewManager(memory.NewStore(), session.WithChangeListener(
		func(ctx context.Context, id string, before, after *domain.VoyagerState) {
			if d := domain.Diff(id, before, after); d != nil {
				got = append(got, d)
			}
		},
	))

	_, err := manager.TransitionMode(ctx, "s1", domain.ModeBooking)
	require.NoError(t, err)
	_, err = manager.TransitionMode(ctx, "s1", domain.ModeBooking)
	require.NoError(t, err)

	require.Len(t, got, 1, "Unchanged saves produce no diff")
	assert.Equal(t, domain.ModeBooking, *got[0].Mode)
	assert.Nil(t, got[0].Cart)
}

func TestManager_FnErrorPropagates(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	boom := errors.New("boom")
	err := manager.WithLock(context.Background(), "s", func(ctx context.Context, s *session.Session) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func ptr[T any](v T) *T { return &v }
