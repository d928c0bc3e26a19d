package migrations_test

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-stages/migrations"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrations(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, migrations.Run(db))

	want := []string{"tournaments", "participants", "stages", "stage_groups", "standings", "matches", "match_idempotency", "disputes"}
	for _, table := range want {
		var name string
		err := db.QueryRow(`SELECT table_name FROM information_schema.tables WHERE table_name = $1`, table).Scan(&name)
		require.NoError(t, err, "table %q not found", table)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, migrations.Run(db), "first run")
	require.NoError(t, migrations.Run(db), "second run should be a no-op")
}
