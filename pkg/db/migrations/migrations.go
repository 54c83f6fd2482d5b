// Package migrations applies the numbered SQL files that define the
// scoreboard schema. Files are named NNN_description.sql and run once each,
// in version order, each inside its own transaction.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fadedpez/scoreboard/internal/logging"
)

//go:embed sql/*.sql
var embedded embed.FS

// Embedded returns the migrations compiled into the binary
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migration is one schema change
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// Status pairs a known migration with when it was applied, if it was
type Status struct {
	Migration
	AppliedAt *time.Time
}

// Migrator applies migrations from an fs.FS to a database
type Migrator struct {
	db     *sql.DB
	source fs.FS
	logger *logging.Logger
}

// Option configures a Migrator
type Option func(*Migrator)

// WithLogger reports each applied migration to l
func WithLogger(l *logging.Logger) Option {
	return func(m *Migrator) {
		m.logger = l
	}
}

// NewMigrator creates a migrator applying the .sql files found in source
func NewMigrator(db *sql.DB, source fs.FS, opts ...Option) *Migrator {
	m := &Migrator{
		db:     db,
		source: source,
		logger: logging.Discard,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("migrations")
	return m
}

// Initialize creates the bookkeeping table if it doesn't exist
func (m *Migrator) Initialize(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("error creating schema_migrations: %w", err)
	}
	return nil
}

// Applied returns when each recorded version was applied
func (m *Migrator) Applied(ctx context.Context) (map[string]time.Time, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]time.Time)
	for rows.Next() {
		var (
			version string
			at      time.Time
		)
		if err := rows.Scan(&version, &at); err != nil {
			return nil, err
		}
		applied[version] = at
	}
	return applied, rows.Err()
}

// Load reads every migration in the source, sorted by version
func (m *Migrator) Load() ([]Migration, error) {
	return load(m.source)
}

func load(source fs.FS) ([]Migration, error) {
	files, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string)
	var migrations []Migration
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		version, description, err := parseName(file.Name())
		if err != nil {
			return nil, err
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %s", other, file.Name(), version)
		}
		seen[version] = file.Name()

		content, err := fs.ReadFile(source, file.Name())
		if err != nil {
			return nil, err
		}

		migrations = append(migrations, Migration{
			Version:     version,
			Description: description,
			SQL:         string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// parseName splits "001_initial_schema.sql" into "001" and "initial schema"
func parseName(name string) (version, description string, err error) {
	version, rest, ok := strings.Cut(strings.TrimSuffix(name, ".sql"), "_")
	if !ok || rest == "" {
		return "", "", fmt.Errorf("invalid migration filename: %s", name)
	}
	if _, err := strconv.Atoi(version); err != nil {
		return "", "", fmt.Errorf("invalid migration version in %s", name)
	}
	return version, strings.ReplaceAll(rest, "_", " "), nil
}

// apply runs one migration and records it in the same transaction
func (m *Migrator) apply(ctx context.Context, migration Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		return fmt.Errorf("error applying migration %s: %w", migration.Version, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
		migration.Version, migration.Description, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("error recording migration %s: %w", migration.Version, err)
	}

	return tx.Commit()
}

// MigrateUp applies all pending migrations and returns how many ran. It
// stops at the first failure; earlier migrations stay applied.
func (m *Migrator) MigrateUp(ctx context.Context) (int, error) {
	if err := m.Initialize(ctx); err != nil {
		return 0, err
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return 0, err
	}

	migrations, err := m.Load()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, migration := range migrations {
		if _, done := applied[migration.Version]; done {
			continue
		}

		m.logger.Info("Applying migration %s: %s", migration.Version, migration.Description)
		if err := m.apply(ctx, migration); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Status lists every known migration with its applied time. Versions
// recorded in the database but missing from the source are returned
// separately.
func (m *Migrator) Status(ctx context.Context) ([]Status, []string, error) {
	if err := m.Initialize(ctx); err != nil {
		return nil, nil, err
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, nil, err
	}
	migrations, err := m.Load()
	if err != nil {
		return nil, nil, err
	}

	statuses := make([]Status, 0, len(migrations))
	for _, migration := range migrations {
		st := Status{Migration: migration}
		if at, ok := applied[migration.Version]; ok {
			st.AppliedAt = &at
			delete(applied, migration.Version)
		}
		statuses = append(statuses, st)
	}

	unknown := make([]string, 0, len(applied))
	for version := range applied {
		unknown = append(unknown, version)
	}
	sort.Strings(unknown)

	return statuses, unknown, nil
}

// CreateMigration writes a new, empty migration file into dir, numbered
// one past the highest version already there
func CreateMigration(dir, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", errors.New("migration description is required")
	}

	existing, err := load(os.DirFS(dir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	next := 1
	for _, migration := range existing {
		if n, _ := strconv.Atoi(migration.Version); n >= next {
			next = n + 1
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	name := strings.Join(strings.Fields(strings.ToLower(description)), "_")
	filePath := filepath.Join(dir, fmt.Sprintf("%03d_%s.sql", next, name))

	content := fmt.Sprintf("-- Migration: %s\n-- Created: %s\n\n", description, time.Now().Format(time.RFC3339))
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		return "", err
	}
	return filePath, nil
}
