package sqlite

import "database/sql"

// The engine persists two independent string keys (the cart blob and the
// legacy table id), so the schema is a single key-value table. These run on
// startup to ensure it exists.
const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
