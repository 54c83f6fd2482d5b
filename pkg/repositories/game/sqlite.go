package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

const selectGameSQL = `
	SELECT id, code, group_id, promoter_id, season_id, mode, state,
		progress_round, progress_honba, progress_dealer_id,
		complete_time, accessible, created_at, updated_at, deleted_at
	FROM games`

// CreateGame stores a new game under the next free code of its group
func (r *SQLiteRepository) CreateGame(ctx context.Context, game *entities.Game) (*entities.Game, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stored := game.Clone()
	stored.ID = uuid.New().String()

	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(code), 0) + 1 FROM games WHERE group_id = ?`,
		stored.GroupID,
	).Scan(&stored.Code)
	if err != nil {
		return nil, fmt.Errorf("error allocating game code: %w", err)
	}

	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	round, honba, dealer := progressColumns(stored.Progress)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (
			id, code, group_id, promoter_id, season_id, mode, state,
			progress_round, progress_honba, progress_dealer_id,
			complete_time, accessible, created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.Code, stored.GroupID, stored.PromoterID, stored.SeasonID,
		string(stored.Mode), string(stored.State),
		round, honba, dealer,
		stored.CompleteTime, stored.Accessible, stored.CreatedAt, stored.UpdatedAt, stored.DeletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error inserting game: %w", err)
	}

	if err := insertRecords(ctx, tx, stored); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stored, nil
}

// GetGame retrieves a game by ID
func (r *SQLiteRepository) GetGame(ctx context.Context, id string) (*entities.Game, error) {
	row := r.db.QueryRowContext(ctx, selectGameSQL+` WHERE id = ?`, id)
	return r.loadGame(ctx, row)
}

// GetGameByCode retrieves a game by its code within a group
func (r *SQLiteRepository) GetGameByCode(ctx context.Context, groupID string, code int) (*entities.Game, error) {
	row := r.db.QueryRowContext(ctx, selectGameSQL+` WHERE group_id = ? AND code = ?`, groupID, code)
	return r.loadGame(ctx, row)
}

func (r *SQLiteRepository) loadGame(ctx context.Context, row *sql.Row) (*entities.Game, error) {
	game, err := scanGame(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT participant_id, score, rank_point
		FROM game_records
		WHERE game_id = ?
		ORDER BY position`, game.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	game.Records = []*entities.Result{}
	for rows.Next() {
		record := &entities.Result{}
		if err := rows.Scan(&record.ParticipantID, &record.Score, &record.RankPoint); err != nil {
			return nil, err
		}
		game.Records = append(game.Records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return game, nil
}

// SaveGame replaces a stored game and its record set, and appends to its
// audit trail, in one transaction
func (r *SQLiteRepository) SaveGame(ctx context.Context, game *entities.Game, audit Audit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updatedAt := time.Now().UTC()
	round, honba, dealer := progressColumns(game.Progress)

	res, err := tx.ExecContext(ctx, `
		UPDATE games SET
			promoter_id = ?, season_id = ?, mode = ?, state = ?,
			progress_round = ?, progress_honba = ?, progress_dealer_id = ?,
			complete_time = ?, accessible = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		game.PromoterID, game.SeasonID, string(game.Mode), string(game.State),
		round, honba, dealer,
		game.CompleteTime, game.Accessible, updatedAt, game.DeletedAt,
		game.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating game: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrGameNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM game_records WHERE game_id = ?`, game.ID); err != nil {
		return fmt.Errorf("error clearing game records: %w", err)
	}
	if err := insertRecords(ctx, tx, game); err != nil {
		return err
	}

	if audit.At.IsZero() {
		audit.At = updatedAt
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO game_audit (game_id, operator_id, action, participant_id, at)
		VALUES (?, ?, ?, ?, ?)`,
		game.ID, audit.OperatorID, string(audit.Action), nullString(audit.ParticipantID), audit.At,
	)
	if err != nil {
		return fmt.Errorf("error recording audit: %w", err)
	}

	return tx.Commit()
}

// GetHistory returns the audit trail of a game, oldest first
func (r *SQLiteRepository) GetHistory(ctx context.Context, gameID string) ([]Audit, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE id = ?`, gameID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrGameNotFound
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT operator_id, action, participant_id, at
		FROM game_audit
		WHERE game_id = ?
		ORDER BY id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []Audit{}
	for rows.Next() {
		var (
			audit       Audit
			action      string
			participant sql.NullString
		)
		if err := rows.Scan(&audit.OperatorID, &action, &participant, &audit.At); err != nil {
			return nil, err
		}
		audit.Action = Action(action)
		audit.ParticipantID = participant.String
		history = append(history, audit)
	}

	return history, rows.Err()
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// ListAcceptedGames loads a group's accessible accepted games with their records
func (r *SQLiteRepository) ListAcceptedGames(ctx context.Context, groupID string) ([]*entities.Game, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM games
		WHERE group_id = ? AND state = ? AND accessible = 1
		ORDER BY code`,
		groupID, string(entities.StateAccepted),
	)
	if err != nil {
		return nil, fmt.Errorf("error listing games: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Records are loaded once the id cursor is closed; the pool holds a
	// single connection
	games := make([]*entities.Game, 0, len(ids))
	for _, id := range ids {
		game, err := r.GetGame(ctx, id)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, nil
}

func scanGame(row *sql.Row) (*entities.Game, error) {
	var (
		game         entities.Game
		seasonID     sql.NullString
		mode, state  string
		round, honba sql.NullInt64
		dealer       sql.NullString
		completeTime sql.NullTime
		deletedAt    sql.NullTime
	)

	err := row.Scan(
		&game.ID, &game.Code, &game.GroupID, &game.PromoterID, &seasonID, &mode, &state,
		&round, &honba, &dealer,
		&completeTime, &game.Accessible, &game.CreatedAt, &game.UpdatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}

	game.Mode = entities.Mode(mode)
	game.State = entities.GameState(state)
	if seasonID.Valid {
		game.SeasonID = &seasonID.String
	}
	if round.Valid {
		game.Progress = &entities.Progress{
			Round:    int(round.Int64),
			Honba:    int(honba.Int64),
			DealerID: dealer.String,
		}
	}
	if completeTime.Valid {
		t := completeTime.Time.UTC()
		game.CompleteTime = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time.UTC()
		game.DeletedAt = &t
	}

	return &game, nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, game *entities.Game) error {
	for position, record := range game.Records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO game_records (game_id, participant_id, position, score, rank_point)
			VALUES (?, ?, ?, ?, ?)`,
			game.ID, record.ParticipantID, position, record.Score, record.RankPoint,
		)
		if err != nil {
			return fmt.Errorf("error inserting record for %s: %w", record.ParticipantID, err)
		}
	}
	return nil
}

func progressColumns(p *entities.Progress) (round, honba sql.NullInt64, dealer sql.NullString) {
	if p == nil {
		return
	}
	round = sql.NullInt64{Int64: int64(p.Round), Valid: true}
	honba = sql.NullInt64{Int64: int64(p.Honba), Valid: true}
	dealer = nullString(p.DealerID)
	return
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
