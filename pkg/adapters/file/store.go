package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/persistence"
)

// ErrInvalidSessionID is returned for IDs that are empty or would escape the base path.
var ErrInvalidSessionID = errors.New("invalid session id")

// Store implements ports.StateStore using the local filesystem.
// It stores sessions as one JSON file per session in a configured directory.
type Store struct {
	BasePath string
	codec    persistence.Codec
}

type Option func(*Store)

// WithCodec sets the codec used to encode records.
func WithCodec(c persistence.Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".voyager/sessions".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".voyager", "sessions")
	}
	s := &Store{BasePath: basePath, codec: persistence.JSON}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) path(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	return filepath.Join(s.BasePath, sessionID+".json"), nil
}

// Save persists the session state to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.VoyagerState) error {
	destPath, err := s.path(sessionID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := s.codec.Encode(state)
	if err != nil {
		return err
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+sessionID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to session file: %w", err)
	}
	return nil
}

// Load retrieves the session state from a JSON file.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.VoyagerState, error) {
	filePath, err := s.path(sessionID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	return s.codec.Decode(data)
}

// Delete removes the session file.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	filePath, err := s.path(sessionID)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns all stored session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(sessions)
	return sessions, nil
}
