package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenCreatesDirAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wabot.db")

	database, err := Open(path)
	require.NoError(t, err)
	defer database.Close()

	var n int
	err = database.QueryRow(`SELECT COUNT(*) FROM activity`).Scan(&n)
	require.NoError(t, err)
	require.Zero(t, n)

	// Reopening an existing database must not fail on the schema.
	again, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}
