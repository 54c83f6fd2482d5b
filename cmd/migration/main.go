package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/fadedpez/scoreboard/internal/logging"
	"github.com/fadedpez/scoreboard/pkg/db/migrations"
	_ "github.com/mattn/go-sqlite3"
)

const defaultMigrationsDir = "pkg/db/migrations/sql"

func main() {
	// Define command-line flags
	createCmd := flag.NewFlagSet("create", flag.ExitOnError)
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)

	// Create command options
	migrationsDir := createCmd.String("dir", defaultMigrationsDir, "Directory to store migrations")

	// Migrate command options
	dbPath := migrateCmd.String("db", "data/scoreboard.db", "Path to SQLite database")
	migrateDir := migrateCmd.String("dir", "", "Directory containing migrations (default: the ones built in)")

	// Status command options
	statusDBPath := statusCmd.String("db", "data/scoreboard.db", "Path to SQLite database")

	// Show usage if no arguments provided
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Parse command
	switch os.Args[1] {
	case "create":
		createCmd.Parse(os.Args[2:])
		if createCmd.NArg() < 1 {
			fmt.Println("Error: Missing migration description")
			createCmd.Usage()
			os.Exit(1)
		}
		createNewMigration(*migrationsDir, createCmd.Arg(0))

	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		applyMigrations(*dbPath, *migrateDir)

	case "status":
		statusCmd.Parse(os.Args[2:])
		showStatus(*statusDBPath)

	case "help":
		printUsage()

	default:
		fmt.Printf("Error: Unknown command '%s'\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/migration create DESCRIPTION  - Create a new migration")
	fmt.Println("  go run ./cmd/migration migrate             - Apply pending migrations")
	fmt.Println("  go run ./cmd/migration status              - List applied and pending migrations")
	fmt.Println("  go run ./cmd/migration help                - Show this help")
	fmt.Println("\nExamples:")
	fmt.Println("  go run ./cmd/migration create \"add seasons table\"")
	fmt.Println("  go run ./cmd/migration migrate -db data/scoreboard.db")
}

func createNewMigration(migrationsDir, description string) {
	filePath, err := migrations.CreateMigration(migrationsDir, description)
	if err != nil {
		log.Fatalf("Error creating migration: %v", err)
	}

	// Add helpful SQLite examples to the migration file
	addSQLiteExamples(filePath)

	fmt.Printf("Created migration file: %s\n", filePath)
	fmt.Println("Edit this file to add your database schema changes. It is built into the binary on the next build.")
}

func addSQLiteExamples(filePath string) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("Error reading migration file: %v", err)
	}

	examples := `
-- SQLite Examples:

-- Add a column to existing table
-- ALTER TABLE games ADD COLUMN new_column TEXT;

-- Create an index
-- CREATE INDEX IF NOT EXISTS idx_table_column ON table_name(column_name);

-- Your migration SQL goes below this line:

`

	if err := os.WriteFile(filePath, []byte(string(content)+examples), 0644); err != nil {
		log.Fatalf("Error writing to migration file: %v", err)
	}
}

func openDatabase(dbPath string) *sql.DB {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("Error creating database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	return db
}

func applyMigrations(dbPath, migrationsDir string) {
	db := openDatabase(dbPath)
	defer db.Close()

	var source fs.FS = migrations.Embedded()
	if migrationsDir != "" {
		source = os.DirFS(migrationsDir)
	}

	logger := logging.NewLogger(logging.INFO)
	applied, err := migrations.NewMigrator(db, source, migrations.WithLogger(logger)).MigrateUp(context.Background())
	if err != nil {
		log.Fatalf("Error applying migrations: %v", err)
	}

	fmt.Printf("Migrations applied successfully! (%d new)\n", applied)
}

func showStatus(dbPath string) {
	db := openDatabase(dbPath)
	defer db.Close()

	statuses, unknown, err := migrations.NewMigrator(db, migrations.Embedded()).Status(context.Background())
	if err != nil {
		log.Fatalf("Error reading migration status: %v", err)
	}

	for _, st := range statuses {
		state := "pending"
		if st.AppliedAt != nil {
			state = "applied " + st.AppliedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%s  %-24s %s\n", st.Version, state, st.Description)
	}

	// Versions recorded by a newer binary
	for _, version := range unknown {
		fmt.Printf("%s  %-24s (not in this build)\n", version, "applied")
	}
}
