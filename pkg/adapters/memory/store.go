package memory

import (
	"context"
	"sort"
	"time"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/persistence"
	"github.com/patrickmn/go-cache"
)

// Store implements ports.StateStore in memory on top of an expiring cache.
// Records are kept in their encoded form so callers never share pointers with the store.
// Safe for concurrent use.
type Store struct {
	cache *cache.Cache
	codec persistence.Codec
	ttl   time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for sessions. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithCodec sets the codec used to encode records.
func WithCodec(c persistence.Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{codec: persistence.JSON}
	for _, opt := range opts {
		opt(s)
	}

	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if s.ttl > 0 {
		expiration = s.ttl
		cleanup = s.ttl
	}
	s.cache = cache.New(expiration, cleanup)
	return s
}

// Save persists the state in memory.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.VoyagerState) error {
	data, err := s.codec.Encode(state)
	if err != nil {
		return err
	}
	s.cache.Set(sessionID, data, cache.DefaultExpiration)
	return nil
}

// Load retrieves the state from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.VoyagerState, error) {
	v, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.codec.Decode(v.([]byte))
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

// List returns active sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	items := s.cache.Items()
	sessions := make([]string, 0, len(items))
	for id := range items {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}
