package sqlitedb

import (
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppliesMigrationsOnce(t *testing.T) {
	migrations := fstest.MapFS{
		"001_items.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT);\n-- +migrate Down\nDROP TABLE items;\n")},
		"002_seed.sql":  {Data: []byte("INSERT INTO items (name) VALUES ('first');")},
		"README.md":     {Data: []byte("ignored")},
	}
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := Open(path, migrations)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path, migrations)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM items").Scan(&n))
	assert.Equal(t, 1, n, "seed migration ran once")

	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestOpenFailsOnBadMigration(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "bad.db"), fstest.MapFS{
		"001_bad.sql": {Data: []byte("CREATE TABLE (")},
	})
	assert.Error(t, err)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ", nil)
	assert.Error(t, err)
}

func TestUpSection(t *testing.T) {
	assert.Equal(t, "\nA\n", upSection("-- +migrate Up\nA\n-- +migrate Down\nB"))
	assert.Equal(t, "plain", upSection("plain"))
}

func TestMillisRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 123e6, time.UTC)
	assert.True(t, ts.Equal(FromMillis(ToMillis(ts))))
}
