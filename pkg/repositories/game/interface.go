package game

import (
	"context"
	"errors"
	"time"

	"github.com/fadedpez/scoreboard/pkg/entities"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_game

var (
	// ErrGameNotFound means no game, deleted or not, exists for the lookup
	ErrGameNotFound = errors.New("game not found")
)

// Action names the mutation recorded in the audit trail
type Action string

const (
	ActionRecord   Action = "RECORD"
	ActionRevert   Action = "REVERT"
	ActionDelete   Action = "DELETE"
	ActionProgress Action = "PROGRESS"
)

// Audit describes who changed a game and how
type Audit struct {
	OperatorID    string
	Action        Action
	ParticipantID string // Participant whose result changed, if any
	At            time.Time
}

// Repository persists games and their records. Each call is transactional
// for a single game.
type Repository interface {
	// CreateGame stores a new game, assigning its ID, its per-group Code and
	// timestamps, and returns the stored copy
	CreateGame(ctx context.Context, game *entities.Game) (*entities.Game, error)

	// GetGame loads a game by ID, deleted games included
	GetGame(ctx context.Context, id string) (*entities.Game, error)

	// GetGameByCode loads a game by its code within a group. Soft-deleted
	// games are returned with Accessible=false so callers can tell "deleted"
	// from "never existed"; the latter is ErrGameNotFound.
	GetGameByCode(ctx context.Context, groupID string, code int) (*entities.Game, error)

	// SaveGame replaces the stored game, including its full record set, and
	// appends audit to the game's history
	SaveGame(ctx context.Context, game *entities.Game, audit Audit) error

	// GetHistory returns the audit trail of a game, oldest first
	GetHistory(ctx context.Context, gameID string) ([]Audit, error)

	// ListAcceptedGames returns the accessible accepted games of a group,
	// ordered by code
	ListAcceptedGames(ctx context.Context, groupID string) ([]*entities.Game, error)

	// Close closes any resources used by the repository
	Close() error
}
