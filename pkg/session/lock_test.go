package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nullvoyager/voyager/pkg/adapters/memory"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, sid, domain.NewState())
		_ = mgr.Delete(ctx, sid)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}

// countingLocker records distributed lock usage.
type countingLocker struct {
	mu       sync.Mutex
	locks    int
	unlocks  int
	lastTTL  time.Duration
	heldKeys map[string]bool
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.heldKeys == nil {
		l.heldKeys = map[string]bool{}
	}
	l.locks++
	l.lastTTL = ttl
	l.heldKeys[key] = true
	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		delete(l.heldKeys, key)
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &countingLocker{}
	mgr := NewManager(memory.NewStore(), WithLocker(locker), WithLockTTL(time.Minute))

	err := mgr.WithLock(context.Background(), "s1", func(ctx context.Context, s *Session) error {
		locker.mu.Lock()
		defer locker.mu.Unlock()
		assert.True(t, locker.heldKeys["s1"], "Distributed lock must be held inside the callback")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, locker.locks)
	assert.Equal(t, 1, locker.unlocks)
	assert.Equal(t, time.Minute, locker.lastTTL)
}
