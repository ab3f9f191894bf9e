package sqlite

import "database/sql"

// schema sets up the key/value table holding the persisted session.
// The token and the serialized user live in separate rows and are always
// written and deleted in the same transaction.
const schema = `
CREATE TABLE IF NOT EXISTS session (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

const (
	keyToken = "token"
	keyUser  = "user"
)

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
