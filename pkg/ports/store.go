package ports

import (
	"context"

	"github.com/nullvoyager/voyager/pkg/domain"
)

// StateStore defines the interface for persisting the per-session state record.
type StateStore interface {
	// Save persists the state for a given session ID, replacing any previous record.
	Save(ctx context.Context, sessionID string, state *domain.VoyagerState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.VoyagerState, error)

	// Delete removes the state for a given session ID.
	// Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
