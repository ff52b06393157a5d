package repo

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	ctime INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS embedding_cache (
	model_name TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	embedding TEXT NOT NULL,
	ctime INTEGER NOT NULL,
	PRIMARY KEY (model_name, content_hash)
);
`

func Open(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
