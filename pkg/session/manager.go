package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nullvoyager/voyager/internal/logging"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 2 * time.Minute

// ChangeFunc is notified after a state change has been persisted.
type ChangeFunc func(ctx context.Context, sessionID string, before, after *domain.VoyagerState)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker   ports.DistributedLocker // Optional distributed locker
	lockTTL  time.Duration
	onChange []ChangeFunc
	logger   *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithChangeListener registers a function called after every persisted change.
func WithChangeListener(fn ChangeFunc) Option {
	return func(m *Manager) {
		m.onChange = append(m.onChange, fn)
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnChange registers a change listener after construction.
// It must be called before the manager is shared between goroutines.
func (m *Manager) OnChange(fn ChangeFunc) {
	m.onChange = append(m.onChange, fn)
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// lock runs fn while holding the in-process and (if configured) distributed lock.
func (m *Manager) lock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The request context may already be canceled; release regardless.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// WithLock executes fn while holding the lock for the session.
// The Session handed to fn is loaded on entry and is only valid inside fn.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context, *Session) error) error {
	return m.lock(ctx, sessionID, func(ctx context.Context) error {
		state, err := m.loadOrDefault(ctx, sessionID)
		if err != nil {
			return err
		}
		return fn(ctx, &Session{id: sessionID, m: m, state: state})
	})
}

func (m *Manager) loadOrDefault(ctx context.Context, sessionID string) (*domain.VoyagerState, error) {
	state, err := m.store.Load(ctx, sessionID)
	if err == nil {
		return state, nil
	}
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.NewState(), nil
	}
	return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
}

// Load returns the session state, or the default state if none was stored.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.VoyagerState, error) {
	var state *domain.VoyagerState
	err := m.WithLock(ctx, sessionID, func(ctx context.Context, s *Session) error {
		state = s.State()
		return nil
	})
	return state, err
}

// Save persists the session state, replacing the stored record.
func (m *Manager) Save(ctx context.Context, sessionID string, state *domain.VoyagerState) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context, s *Session) error {
		return s.Save(ctx, state)
	})
}

// Update loads the session state, merges the patch, persists and returns the result.
func (m *Manager) Update(ctx context.Context, sessionID string, patch domain.StatePatch) (*domain.VoyagerState, error) {
	var state *domain.VoyagerState
	err := m.WithLock(ctx, sessionID, func(ctx context.Context, s *Session) error {
		var err error
		state, err = s.Update(ctx, patch)
		return err
	})
	return state, err
}

// TransitionMode sets the session mode. Any mode may follow any other.
func (m *Manager) TransitionMode(ctx context.Context, sessionID string, mode domain.Mode) (*domain.VoyagerState, error) {
	return m.Update(ctx, sessionID, domain.ModePatch(mode))
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.lock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

func (m *Manager) notify(ctx context.Context, sessionID string, before, after *domain.VoyagerState) {
	for _, fn := range m.onChange {
		fn(ctx, sessionID, before, after)
	}
}

// Session is a locked view of one session's state.
// It implements ports.StateAccessor.
type Session struct {
	id    string
	m     *Manager
	state *domain.VoyagerState
}

var _ ports.StateAccessor = (*Session)(nil)

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// State returns a copy of the current state.
func (s *Session) State() *domain.VoyagerState {
	return s.state.Clone()
}

// Save replaces the state and persists it.
func (s *Session) Save(ctx context.Context, state *domain.VoyagerState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	next := state.Clone()
	if err := s.m.store.Save(ctx, s.id, next); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.id, err)
	}
	before := s.state
	s.state = next
	s.m.notify(ctx, s.id, before, next.Clone())
	return nil
}

// Update merges the patch into the current state, persists and returns the result.
func (s *Session) Update(ctx context.Context, patch domain.StatePatch) (*domain.VoyagerState, error) {
	next, err := s.state.Merge(patch)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, next); err != nil {
		return nil, err
	}
	return s.State(), nil
}
