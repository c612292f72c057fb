package postgres_test

import (
	"os"
	"testing"

	"github.com/nullvoyager/voyager/pkg/adapters/postgres"
	"github.com/nullvoyager/voyager/pkg/ports"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Contract(t *testing.T) {
	dsn := os.Getenv("VOYAGER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping integration test: VOYAGER_TEST_DATABASE_URL not set")
	}

	store, err := postgres.Open(dsn)
	require.NoError(t, err)
	defer store.Close()

	ports.RunStateStoreContract(t, store)
}
