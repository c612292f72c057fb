package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nullvoyager/voyager/pkg/adapters/file"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements StateStore
var _ ports.StateStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunStateStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "abc", domain.NewState()))

	data, err := os.ReadFile(filepath.Join(dir, "abc.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"INSPIRATION","preferences":{"travelers":1},"cart":{}}`, string(data))

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	sessions, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	err := store.Save(context.Background(), "../escape", domain.NewState())
	assert.ErrorIs(t, err, file.ErrInvalidSessionID)

	_, err = store.Load(context.Background(), "")
	assert.ErrorIs(t, err, file.ErrInvalidSessionID)
}
