package migrations

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMigrationsDir(t *testing.T, dir string) {
	t.Helper()
	original := MigrationsDir
	MigrationsDir = dir
	t.Cleanup(func() { MigrationsDir = original })
}

func TestGetInitialSchema_Embedded(t *testing.T) {
	withMigrationsDir(t, filepath.Join(t.TempDir(), "nonexistent"))

	schema, err := GetInitialSchema()
	require.NoError(t, err)
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS pending_sightings")
	assert.Contains(t, schema, "UNIQUE (owner, src_tx_hash)")
	assert.Contains(t, schema, "CREATE INDEX IF NOT EXISTS idx_sightings_last_seen")
}

func TestGetInitialSchema_DirectoryOverride(t *testing.T) {
	dir := t.TempDir()
	custom := "CREATE TABLE IF NOT EXISTS custom_sightings (id INTEGER);"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_initial_schema.sql"), []byte(custom), 0644))
	withMigrationsDir(t, dir)

	schema, err := GetInitialSchema()
	require.NoError(t, err)
	assert.Equal(t, custom, schema)
}

func TestInitialSchema_AppliesCleanlyTwice(t *testing.T) {
	withMigrationsDir(t, filepath.Join(t.TempDir(), "nonexistent"))

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	schema, err := GetInitialSchema()
	require.NoError(t, err)

	_, err = db.Exec(schema)
	require.NoError(t, err)
	_, err = db.Exec(schema)
	require.NoError(t, err, "schema must be idempotent")

	_, err = db.Exec(`INSERT INTO pending_sightings
		(owner, src_tx_hash, status, lz_tx_page, first_seen, last_seen, last_scan_id)
		VALUES ('o', 'h', 'WAITING', 'p', 1, 1, 's')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO pending_sightings
		(owner, src_tx_hash, status, lz_tx_page, first_seen, last_seen, last_scan_id)
		VALUES ('o', 'h', 'WAITING', 'p', 2, 2, 't')`)
	assert.Error(t, err, "owner and tx hash are unique together")
}
