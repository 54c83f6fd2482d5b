package game

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fadedpez/scoreboard/pkg/entities"
	"github.com/google/uuid"
)

// MemoryRepository implements Repository interface with in-memory storage
type MemoryRepository struct {
	mu sync.RWMutex
	// Map of game ID to game
	games map[string]*entities.Game
	// Map of group ID to code to game ID
	codes map[string]map[int]string
	// Map of game ID to audit trail
	history map[string][]Audit
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		games:   make(map[string]*entities.Game),
		codes:   make(map[string]map[int]string),
		history: make(map[string][]Audit),
	}
}

// CreateGame stores a new game under the next free code of its group
func (r *MemoryRepository) CreateGame(ctx context.Context, game *entities.Game) (*entities.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := game.Clone()
	stored.ID = uuid.New().String()

	groupCodes, ok := r.codes[stored.GroupID]
	if !ok {
		groupCodes = make(map[int]string)
		r.codes[stored.GroupID] = groupCodes
	}
	stored.Code = len(groupCodes) + 1
	groupCodes[stored.Code] = stored.ID

	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.games[stored.ID] = stored
	return stored.Clone(), nil
}

// GetGame retrieves a game by ID
func (r *MemoryRepository) GetGame(ctx context.Context, id string) (*entities.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	game, exists := r.games[id]
	if !exists {
		return nil, ErrGameNotFound
	}
	return game.Clone(), nil
}

// GetGameByCode retrieves a game by its code within a group
func (r *MemoryRepository) GetGameByCode(ctx context.Context, groupID string, code int) (*entities.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.codes[groupID][code]
	if !exists {
		return nil, ErrGameNotFound
	}
	return r.games[id].Clone(), nil
}

// SaveGame replaces a stored game
func (r *MemoryRepository) SaveGame(ctx context.Context, game *entities.Game, audit Audit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.games[game.ID]; !exists {
		return ErrGameNotFound
	}

	stored := game.Clone()
	stored.UpdatedAt = time.Now().UTC()
	r.games[game.ID] = stored

	if audit.At.IsZero() {
		audit.At = stored.UpdatedAt
	}
	r.history[game.ID] = append(r.history[game.ID], audit)

	return nil
}

// GetHistory returns a copy of the audit trail of a game
func (r *MemoryRepository) GetHistory(ctx context.Context, gameID string) ([]Audit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.games[gameID]; !exists {
		return nil, ErrGameNotFound
	}

	history := make([]Audit, len(r.history[gameID]))
	copy(history, r.history[gameID])
	return history, nil
}

// ListAcceptedGames returns copies of a group's accessible accepted games
func (r *MemoryRepository) ListAcceptedGames(ctx context.Context, groupID string) ([]*entities.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]int, 0, len(r.codes[groupID]))
	for code := range r.codes[groupID] {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	games := []*entities.Game{}
	for _, code := range codes {
		game := r.games[r.codes[groupID][code]]
		if game.Accessible && game.State == entities.StateAccepted {
			games = append(games, game.Clone())
		}
	}
	return games, nil
}

// Close is a no-op for memory repository since there are no resources to close
func (r *MemoryRepository) Close() error {
	return nil
}
