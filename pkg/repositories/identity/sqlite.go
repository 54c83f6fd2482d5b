package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fadedpez/scoreboard/pkg/entities"
	"github.com/google/uuid"
)

// SQLiteRepository implements the Repository interface using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over an already migrated
// database, see db.OpenSQLite
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetOrCreateUser returns the user for externalID, creating it if needed
func (r *SQLiteRepository) GetOrCreateUser(ctx context.Context, externalID, nickname string) (*entities.User, error) {
	// Use UPSERT syntax for SQLite; an empty nickname keeps the stored one
	query := `
		INSERT INTO users (id, external_id, nickname, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(external_id)
		DO UPDATE SET nickname = CASE
			WHEN excluded.nickname != '' THEN excluded.nickname
			ELSE users.nickname
		END`

	_, err := r.db.ExecContext(ctx, query, uuid.New().String(), externalID, nickname, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, external_id, nickname, created_at FROM users WHERE external_id = ?`, externalID))
}

// GetOrCreateGroup returns the group for externalID, creating it if needed
func (r *SQLiteRepository) GetOrCreateGroup(ctx context.Context, externalID string) (*entities.Group, error) {
	query := `
		INSERT INTO groups (id, external_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(external_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, uuid.New().String(), externalID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	var group entities.Group
	err = r.db.QueryRowContext(ctx,
		`SELECT id, external_id, created_at FROM groups WHERE external_id = ?`, externalID,
	).Scan(&group.ID, &group.ExternalID, &group.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetUser retrieves a user by internal ID
func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (*entities.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, external_id, nickname, created_at FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(&user.ID, &user.ExternalID, &user.Nickname, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
