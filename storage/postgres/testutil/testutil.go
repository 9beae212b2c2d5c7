package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0glabs/storage-ops/log"
	"github.com/0glabs/storage-ops/storage/postgres"
)

// SkipIfNoDatabase skips tests that need a live PostgreSQL instance.
func SkipIfNoDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode")
	}
	if os.Getenv("CI_TEST_CONN_STRING") == "" {
		t.Skip("CI_TEST_CONN_STRING not set")
	}
}

// NewTestClient returns a postgres client used in CI tests, with the
// migrations at migrationsSource applied.
func NewTestClient(t *testing.T, migrationsSource string) *postgres.Client {
	connString := os.Getenv("CI_TEST_CONN_STRING")
	logger, err := log.NewLogger("postgres-test", os.Stdout, log.FmtJSON, log.LevelError)
	require.Nil(t, err, "log.NewLogger")

	require.NoError(t, postgres.RunMigrations(migrationsSource, connString, logger), "postgres.RunMigrations")

	client, err := postgres.NewClient(connString, logger)
	require.Nil(t, err, "postgres.NewClient")
	return client
}
