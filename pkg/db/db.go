package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fadedpez/scoreboard/pkg/db/migrations"
	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens the SQLite database at dbPath, creating its directory,
// and applies every pending embedded migration.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps ":memory:"
	// databases from splitting across connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	applied, err := migrations.NewMigrator(db, migrations.Embedded()).MigrateUp(context.Background())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error applying migrations: %w", err)
	}
	if applied > 0 {
		log.Printf("Applied %d migrations to %s", applied, dbPath)
	}

	return db, nil
}
