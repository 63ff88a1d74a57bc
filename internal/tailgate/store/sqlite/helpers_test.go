package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	dbpkg "github.com/BrandonDHaskell/tailgate/server/internal/db"
)

// openTestDB creates a migrated database in a per-test temp directory.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := dbpkg.Open(context.Background(), dbpkg.Config{
		Path: filepath.Join(t.TempDir(), "history.db"),
	})
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newTestWriter(t *testing.T, conn *sql.DB) *dbpkg.Worker {
	t.Helper()
	w := dbpkg.NewWorker(conn)
	t.Cleanup(w.Close)
	return w
}
